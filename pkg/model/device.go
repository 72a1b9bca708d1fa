package model

import (
	"fmt"
	"time"
)

// DeviceID is the stable identifier of a device, as reported by the
// device itself (for Sonos hardware this is the RINCON UDN).
type DeviceID string

// String returns the identifier as a plain string.
func (id DeviceID) String() string { return string(id) }

// Endpoint is the network address used for control and subscription
// requests against a device.
type Endpoint struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// String returns the endpoint in host:port form.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// BaseURL returns the http:// base URL for requests to the device.
func (e Endpoint) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

// Device is one entry of the roster handed to the subsystem at startup.
// The roster is produced by a discovery collaborator; the subsystem never
// discovers devices itself.
type Device struct {
	ID       DeviceID `yaml:"id"`
	Name     string   `yaml:"name"`
	Endpoint Endpoint `yaml:"endpoint"`
}

// Roster is the startup input contract: the known devices and,
// optionally, an initial topology snapshot from the discovery scan.
type Roster struct {
	Devices  []Device
	Topology *Topology
}

// DeviceState is the reconciled per-device view maintained by the state
// cache. Entries are created lazily on the first accepted change for a
// device.
type DeviceState struct {
	Volume        int
	Muted         bool
	PlaybackState PlaybackState
	Track         *TrackInfo
	PositionMs    int64
	LastUpdated   time.Time
}

// Clone returns a deep copy of the state.
func (s DeviceState) Clone() DeviceState {
	out := s
	if s.Track != nil {
		t := *s.Track
		out.Track = &t
	}
	return out
}

// TrackInfo describes the track a device is currently rendering. Fields
// the device did not report are left empty.
type TrackInfo struct {
	Title      string
	Artist     string
	Album      string
	URI        string
	DurationMs int64
}

// PlaybackState is the transport state of a device.
type PlaybackState uint8

const (
	PlaybackUnknown PlaybackState = iota
	PlaybackPlaying
	PlaybackPaused
	PlaybackStopped
	PlaybackTransitioning
)

// String returns a human-readable playback state name.
func (s PlaybackState) String() string {
	switch s {
	case PlaybackPlaying:
		return "PLAYING"
	case PlaybackPaused:
		return "PAUSED"
	case PlaybackStopped:
		return "STOPPED"
	case PlaybackTransitioning:
		return "TRANSITIONING"
	default:
		return "UNKNOWN"
	}
}
