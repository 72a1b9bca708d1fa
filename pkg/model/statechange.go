package model

import "time"

// ChangeKind tags the payload carried by a StateChange.
type ChangeKind uint8

const (
	// ChangePlayback carries a PlaybackChange.
	ChangePlayback ChangeKind = iota
	// ChangeVolume carries a VolumeChange.
	ChangeVolume
	// ChangeTopology carries a full Topology snapshot.
	ChangeTopology
	// ChangeSubscription carries a SubscriptionNotice.
	ChangeSubscription
)

// String returns the kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangePlayback:
		return "playback"
	case ChangeVolume:
		return "volume"
	case ChangeTopology:
		return "topology"
	case ChangeSubscription:
		return "subscription"
	default:
		return "unknown"
	}
}

// StateChange is one parsed event from a device notification, or a
// subscription lifecycle notice. Exactly one of the payload pointers is
// set, selected by Kind.
//
// Optional payload fields use pointers: a nil field means the
// notification did not mention that property, and applying the change
// leaves the cached value untouched. This is what makes cache
// application idempotent.
type StateChange struct {
	Kind      ChangeKind
	DeviceID  DeviceID // empty for topology changes
	Timestamp time.Time

	Playback     *PlaybackChange
	Volume       *VolumeChange
	Topology     *Topology
	Subscription *SubscriptionNotice
}

// PlaybackChange is a transport-state or track update for one device.
type PlaybackChange struct {
	State      *PlaybackState
	Track      *TrackInfo
	PositionMs *int64
}

// VolumeChange is a volume or mute update for one device. Devices often
// report only one of the two in a single notification.
type VolumeChange struct {
	Level *int
	Muted *bool
}

// SubscriptionNotice reports a subscription failure or a non-fatal
// parse diagnostic. It never mutates the state cache.
type SubscriptionNotice struct {
	Service ServiceType
	// Fatal is true when the subscription transitioned to Failed;
	// false for payload-scoped diagnostics that leave the lease alive.
	Fatal  bool
	Reason string
}

// NewPlaybackChange builds a playback StateChange for a device.
func NewPlaybackChange(id DeviceID, pc PlaybackChange) StateChange {
	return StateChange{Kind: ChangePlayback, DeviceID: id, Timestamp: time.Now(), Playback: &pc}
}

// NewVolumeChange builds a volume StateChange for a device.
func NewVolumeChange(id DeviceID, vc VolumeChange) StateChange {
	return StateChange{Kind: ChangeVolume, DeviceID: id, Timestamp: time.Now(), Volume: &vc}
}

// NewTopologyChange builds a topology StateChange.
func NewTopologyChange(t Topology) StateChange {
	return StateChange{Kind: ChangeTopology, Timestamp: time.Now(), Topology: &t}
}

// NewSubscriptionNotice builds a subscription lifecycle StateChange.
// The device ID is empty for network-wide services.
func NewSubscriptionNotice(id DeviceID, n SubscriptionNotice) StateChange {
	return StateChange{Kind: ChangeSubscription, DeviceID: id, Timestamp: time.Now(), Subscription: &n}
}
