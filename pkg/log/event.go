package log

import (
	"time"
)

// Event represents one captured subsystem event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"2,keyasint"`

	// DeviceID is the device the event concerns (empty for
	// network-wide subscriptions and receiver lifecycle events).
	DeviceID string `cbor:"3,keyasint,omitempty"`

	// Service is the service name (AVTransport, RenderingControl,
	// ZoneGroupTopology) when the event is service-scoped.
	Service string `cbor:"4,keyasint,omitempty"`

	// SID is the subscription identifier issued by the device.
	SID string `cbor:"5,keyasint,omitempty"`

	// RemoteAddr is the peer address for notification events.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (at most one of these is set).
	Subscription *SubscriptionEvent `cbor:"7,keyasint,omitempty"`
	Notify       *NotifyEvent       `cbor:"8,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"9,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategorySubscribe covers subscribe and resubscribe attempts.
	CategorySubscribe Category = 0
	// CategoryRenew covers renewal attempts.
	CategoryRenew Category = 1
	// CategoryUnsubscribe covers lease teardown.
	CategoryUnsubscribe Category = 2
	// CategoryNotify covers received notifications.
	CategoryNotify Category = 3
	// CategoryParse covers payload parse diagnostics.
	CategoryParse Category = 4
	// CategoryLifecycle covers receiver and manager lifecycle.
	CategoryLifecycle Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySubscribe:
		return "SUBSCRIBE"
	case CategoryRenew:
		return "RENEW"
	case CategoryUnsubscribe:
		return "UNSUBSCRIBE"
	case CategoryNotify:
		return "NOTIFY"
	case CategoryParse:
		return "PARSE"
	case CategoryLifecycle:
		return "LIFECYCLE"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionEvent captures a subscription status transition.
type SubscriptionEvent struct {
	// OldStatus is the previous status name (may be empty).
	OldStatus string `cbor:"1,keyasint,omitempty"`

	// NewStatus is the new status name.
	NewStatus string `cbor:"2,keyasint"`

	// Attempt is the retry attempt number (0 for the first try).
	Attempt int `cbor:"3,keyasint,omitempty"`

	// Granted is the lease duration the device granted.
	// Stored as nanoseconds.
	Granted *time.Duration `cbor:"4,keyasint,omitempty"`

	// Reason for the transition (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// NotifyEvent captures one received notification.
type NotifyEvent struct {
	// Seq is the device-assigned event key.
	Seq uint32 `cbor:"1,keyasint"`

	// Size is the body size in bytes.
	Size int `cbor:"2,keyasint"`

	// Variables is the number of variables the payload carried.
	Variables int `cbor:"3,keyasint,omitempty"`

	// Stale indicates the notification was dropped as out of order.
	Stale bool `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
