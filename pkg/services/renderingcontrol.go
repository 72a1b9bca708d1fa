package services

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// RenderingControl delivers volume and mute changes. Values are
// per-channel; only the Master channel reflects the device as a whole,
// the per-speaker LF/RF channels are skipped.
type RenderingControl struct{}

func (RenderingControl) Type() model.ServiceType { return model.ServiceRenderingControl }

func (RenderingControl) EventPath() string { return "/MediaRenderer/RenderingControl/Event" }

type channelVal struct {
	Channel string `xml:"channel,attr"`
	Val     string `xml:"val,attr"`
}

type rcsEvent struct {
	Instances []struct {
		Volume []channelVal `xml:"Volume"`
		Mute   []channelVal `xml:"Mute"`
	} `xml:"InstanceID"`
}

func (s RenderingControl) Parse(device model.DeviceID, vars map[string]string) ([]model.StateChange, error) {
	vc := model.VolumeChange{}
	touched := false

	if lc, ok := vars["LastChange"]; ok {
		var ev rcsEvent
		if err := xml.Unmarshal([]byte(lc), &ev); err != nil {
			return nil, &ParseError{Service: s.Type(), Err: err}
		}
		for _, inst := range ev.Instances {
			if v, ok := masterChannel(inst.Volume); ok {
				level, err := parseVolume(v)
				if err != nil {
					return nil, &ParseError{Service: s.Type(), Err: err}
				}
				vc.Level = &level
				touched = true
			}
			if v, ok := masterChannel(inst.Mute); ok {
				muted := v != "0"
				vc.Muted = &muted
				touched = true
			}
		}
	}

	if v, ok := vars["Volume"]; ok {
		level, err := parseVolume(v)
		if err != nil {
			return nil, &ParseError{Service: s.Type(), Err: err}
		}
		vc.Level = &level
		touched = true
	}
	if v, ok := vars["Mute"]; ok {
		muted := v != "0"
		vc.Muted = &muted
		touched = true
	}

	if !touched {
		return nil, nil
	}
	return []model.StateChange{model.NewVolumeChange(device, vc)}, nil
}

// masterChannel picks the Master entry. Entries without a channel
// attribute count as Master; older firmware omits it.
func masterChannel(entries []channelVal) (string, bool) {
	for _, e := range entries {
		if e.Channel == "Master" || e.Channel == "" {
			return e.Val, true
		}
	}
	return "", false
}

func parseVolume(v string) (int, error) {
	level, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("volume %q: %w", v, err)
	}
	if level < 0 || level > 100 {
		return 0, fmt.Errorf("volume %d out of range", level)
	}
	return level, nil
}
