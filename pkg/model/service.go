package model

// ServiceType identifies one of the device services the subsystem can
// subscribe to. The set is closed: adding a service means adding a new
// variant in the services package.
type ServiceType uint8

const (
	// ServiceAVTransport delivers playback-state and track events.
	ServiceAVTransport ServiceType = iota
	// ServiceRenderingControl delivers volume and mute events.
	ServiceRenderingControl
	// ServiceZoneGroupTopology delivers whole-network group snapshots.
	ServiceZoneGroupTopology
)

// String returns the service name as used in log output.
func (t ServiceType) String() string {
	switch t {
	case ServiceAVTransport:
		return "AVTransport"
	case ServiceRenderingControl:
		return "RenderingControl"
	case ServiceZoneGroupTopology:
		return "ZoneGroupTopology"
	default:
		return "Unknown"
	}
}

// SubscriptionScope states whether a service needs one lease per device
// or a single lease for the whole network.
type SubscriptionScope uint8

const (
	// ScopePerDevice means one subscription per (device, service) pair.
	ScopePerDevice SubscriptionScope = iota
	// ScopeNetworkWide means a single subscription covers all devices.
	ScopeNetworkWide
)

// String returns the scope name.
func (s SubscriptionScope) String() string {
	switch s {
	case ScopePerDevice:
		return "PerDevice"
	case ScopeNetworkWide:
		return "NetworkWide"
	default:
		return "Unknown"
	}
}

// Scope returns the subscription scope of the service type. Topology is
// reported identically by every device, so one lease covers the fleet.
func (t ServiceType) Scope() SubscriptionScope {
	if t == ServiceZoneGroupTopology {
		return ScopeNetworkWide
	}
	return ScopePerDevice
}
