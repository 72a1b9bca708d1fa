package eventing

import (
	"time"

	"github.com/linkdata/deadlock"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
	"github.com/tatimblin/sonos-local-controller/pkg/services"
	"github.com/tatimblin/sonos-local-controller/pkg/upnp"
)

// Status is the lifecycle state of one subscription.
type Status uint8

const (
	// StatusPending means the initial lease has not been granted yet.
	StatusPending Status = iota
	// StatusActive means the lease is granted and notifications flow.
	StatusActive
	// StatusRenewing means a renewal is in flight.
	StatusRenewing
	// StatusFailed means retries were exhausted. Terminal until an
	// explicit Resubscribe.
	StatusFailed
	// StatusTerminated means the lease was deliberately released.
	StatusTerminated
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusActive:
		return "Active"
	case StatusRenewing:
		return "Renewing"
	case StatusFailed:
		return "Failed"
	case StatusTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Key identifies one subscription: a (device, service) pair. For
// network-wide services the device is the one carrying the lease.
type Key struct {
	Device  model.DeviceID
	Service model.ServiceType
}

// subscription is one registry entry. The token is the local callback
// path segment and never changes; the SID is device-issued and may be
// replaced across re-establishment.
type subscription struct {
	key     Key
	device  model.Device
	service services.Service
	token   string

	mu      deadlock.Mutex
	status  Status
	lease   upnp.Lease
	lastSeq uint32
	seenSeq bool
}

func newSubscription(key Key, device model.Device, svc services.Service, token string) *subscription {
	return &subscription{
		key:     key,
		device:  device,
		service: svc,
		token:   token,
	}
}

// Status returns the current status.
func (s *subscription) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// setStatus transitions to the given status unconditionally and returns
// the previous one.
func (s *subscription) setStatus(status Status) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.status
	s.status = status
	return prev
}

// transition moves from an expected status to a new one. It reports
// false without modifying anything when the current status differs, so
// concurrent schedulers never double-claim a subscription.
func (s *subscription) transition(from, to Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != from {
		return false
	}
	s.status = to
	return true
}

// activate stores a granted lease and moves to Active. Sequence
// tracking resets: the device starts a fresh SEQ run on a new lease.
func (s *subscription) activate(lease upnp.Lease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lease = lease
	s.status = StatusActive
	s.seenSeq = false
	s.lastSeq = 0
}

// renewed stores the lease from a successful renewal without touching
// sequence tracking; the device continues its SEQ run.
func (s *subscription) renewed(lease upnp.Lease) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lease = lease
	s.status = StatusActive
}

// Lease returns a copy of the current lease.
func (s *subscription) Lease() upnp.Lease {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lease
}

// dueForRenewal reports whether the lease expires within the margin.
func (s *subscription) dueForRenewal(margin time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusActive && now.Add(margin).After(s.lease.ExpiresAt)
}

// admitSeq checks a notification's event key against the last one seen
// and records it. A key lower than the last is stale and rejected,
// except 0 which devices restart from after a lease is re-established.
func (s *subscription) admitSeq(seq uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seenSeq && seq != 0 && seq < s.lastSeq {
		return false
	}
	s.lastSeq = seq
	s.seenSeq = true
	return true
}

// matchesSID reports whether the given SID belongs to this subscription.
func (s *subscription) matchesSID(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lease.SID != "" && s.lease.SID == sid
}

// SubscriptionStatus is a point-in-time snapshot of one subscription,
// as reported by Manager.Statuses.
type SubscriptionStatus struct {
	Device    model.DeviceID
	Service   model.ServiceType
	Status    Status
	SID       string
	ExpiresAt time.Time
}

func (s *subscription) snapshot() SubscriptionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubscriptionStatus{
		Device:    s.key.Device,
		Service:   s.key.Service,
		Status:    s.status,
		SID:       s.lease.SID,
		ExpiresAt: s.lease.ExpiresAt,
	}
}
