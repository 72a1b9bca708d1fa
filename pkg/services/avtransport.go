package services

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// AVTransport delivers playback state and track changes. Devices report
// them through a LastChange variable wrapping an entity-escaped Event
// document; some firmware also reports plain per-variable properties,
// which are accepted too.
type AVTransport struct{}

func (AVTransport) Type() model.ServiceType { return model.ServiceAVTransport }

func (AVTransport) EventPath() string { return "/MediaRenderer/AVTransport/Event" }

type valAttr struct {
	Val string `xml:"val,attr"`
}

type avtEvent struct {
	Instances []struct {
		TransportState       *valAttr `xml:"TransportState"`
		CurrentTrackMetaData *valAttr `xml:"CurrentTrackMetaData"`
		CurrentTrackURI      *valAttr `xml:"CurrentTrackURI"`
		CurrentTrackDuration *valAttr `xml:"CurrentTrackDuration"`
		RelativeTimePosition *valAttr `xml:"RelativeTimePosition"`
	} `xml:"InstanceID"`
}

func (s AVTransport) Parse(device model.DeviceID, vars map[string]string) ([]model.StateChange, error) {
	pc := model.PlaybackChange{}
	var track *model.TrackInfo
	touched := false

	ensureTrack := func() *model.TrackInfo {
		if track == nil {
			track = &model.TrackInfo{}
		}
		return track
	}

	if lc, ok := vars["LastChange"]; ok {
		var ev avtEvent
		if err := xml.Unmarshal([]byte(lc), &ev); err != nil {
			return nil, &ParseError{Service: s.Type(), Err: err}
		}
		for _, inst := range ev.Instances {
			if inst.TransportState != nil {
				st := parsePlaybackState(inst.TransportState.Val)
				pc.State = &st
				touched = true
			}
			if inst.CurrentTrackMetaData != nil && inst.CurrentTrackMetaData.Val != "" {
				meta, err := parseTrackMetadata(inst.CurrentTrackMetaData.Val)
				if err != nil {
					return nil, &ParseError{Service: s.Type(), Err: err}
				}
				if meta != nil {
					t := ensureTrack()
					t.Title = meta.Title
					t.Artist = meta.Artist
					t.Album = meta.Album
					touched = true
				}
			}
			if inst.CurrentTrackURI != nil {
				ensureTrack().URI = inst.CurrentTrackURI.Val
				touched = true
			}
			if inst.CurrentTrackDuration != nil {
				if ms, ok := parseTrackTime(inst.CurrentTrackDuration.Val); ok {
					ensureTrack().DurationMs = ms
					touched = true
				}
			}
			if inst.RelativeTimePosition != nil {
				if ms, ok := parseTrackTime(inst.RelativeTimePosition.Val); ok {
					pc.PositionMs = &ms
					touched = true
				}
			}
		}
	}

	// Plain (non-LastChange) variables.
	if v, ok := vars["TransportState"]; ok {
		st := parsePlaybackState(v)
		pc.State = &st
		touched = true
	}
	if v, ok := vars["CurrentTrackURI"]; ok {
		ensureTrack().URI = v
		touched = true
	}
	if v, ok := vars["CurrentTrackDuration"]; ok {
		if ms, ok := parseTrackTime(v); ok {
			ensureTrack().DurationMs = ms
			touched = true
		}
	}

	if !touched {
		return nil, nil
	}
	pc.Track = track
	return []model.StateChange{model.NewPlaybackChange(device, pc)}, nil
}

func parsePlaybackState(v string) model.PlaybackState {
	switch v {
	case "PLAYING":
		return model.PlaybackPlaying
	case "PAUSED_PLAYBACK":
		return model.PlaybackPaused
	case "STOPPED":
		return model.PlaybackStopped
	case "TRANSITIONING":
		return model.PlaybackTransitioning
	default:
		return model.PlaybackUnknown
	}
}

// parseTrackTime converts the H:MM:SS form devices use for durations and
// positions to milliseconds. Placeholder values like NOT_IMPLEMENTED
// report not-ok.
func parseTrackTime(v string) (int64, bool) {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.ParseInt(parts[0], 10, 64)
	m, err2 := strconv.ParseInt(parts[1], 10, 64)
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil || h < 0 || m < 0 || sec < 0 {
		return 0, false
	}
	return (h*3600+m*60)*1000 + int64(sec*1000), true
}

type didlLite struct {
	Items []struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
		Album   string `xml:"album"`
	} `xml:"item"`
}

type trackMetadata struct {
	Title  string
	Artist string
	Album  string
}

// parseTrackMetadata decodes a DIDL-Lite document carried inside
// CurrentTrackMetaData. An empty or placeholder value yields nil.
func parseTrackMetadata(v string) (*trackMetadata, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "NOT_IMPLEMENTED" {
		return nil, nil
	}
	var doc didlLite
	if err := xml.Unmarshal([]byte(v), &doc); err != nil {
		return nil, fmt.Errorf("track metadata: %w", err)
	}
	if len(doc.Items) == 0 {
		return nil, nil
	}
	item := doc.Items[0]
	return &trackMetadata{Title: item.Title, Artist: item.Creator, Album: item.Album}, nil
}
