package eventing

import (
	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// LifecycleKind classifies a lifecycle callback invocation.
type LifecycleKind uint8

const (
	// LifecycleStarted fires once the receiver is bound and initial
	// subscriptions have been attempted.
	LifecycleStarted LifecycleKind = iota
	// LifecycleStopped fires when Stop completes.
	LifecycleStopped
	// LifecycleCallbackFallback fires when no reachable callback host
	// could be detected and the receiver fell back to localhost.
	LifecycleCallbackFallback
	// LifecycleSubscriptionFailed fires when a subscription exhausts
	// its retries and becomes Failed.
	LifecycleSubscriptionFailed
	// LifecycleSubscriptionSkipped fires when a device refuses a
	// subscription outright (satellite speakers answer 503).
	LifecycleSubscriptionSkipped
)

// String returns the kind name.
func (k LifecycleKind) String() string {
	switch k {
	case LifecycleStarted:
		return "started"
	case LifecycleStopped:
		return "stopped"
	case LifecycleCallbackFallback:
		return "callback-fallback"
	case LifecycleSubscriptionFailed:
		return "subscription-failed"
	case LifecycleSubscriptionSkipped:
		return "subscription-skipped"
	default:
		return "unknown"
	}
}

// LifecycleEvent is handed to the OnLifecycle callback. Callbacks run
// on manager goroutines and must return quickly.
type LifecycleEvent struct {
	Kind    LifecycleKind
	Device  model.DeviceID    // set for subscription-scoped kinds
	Service model.ServiceType // set for subscription-scoped kinds
	Message string
}
