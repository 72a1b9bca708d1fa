package eventing

import (
	"errors"
	"fmt"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// Manager errors.
var (
	// ErrInvalidConfig is returned by NewManager for a configuration
	// that cannot work.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoFreePort is returned by Start when no port in the callback
	// range could be bound.
	ErrNoFreePort = errors.New("no free port in callback range")

	// ErrAlreadyRunning is returned by Start on a running manager.
	ErrAlreadyRunning = errors.New("manager already running")

	// ErrNotRunning is returned by operations that need a started manager.
	ErrNotRunning = errors.New("manager not running")

	// ErrUnknownSubscription is returned by Resubscribe for a
	// (device, service) pair the manager does not cover.
	ErrUnknownSubscription = errors.New("unknown subscription")

	// ErrNotFailed is returned by Resubscribe when the pair is not in
	// the Failed state; live subscriptions are not re-established.
	ErrNotFailed = errors.New("subscription has not failed")

	// ErrEmptyRoster is returned by Start for a roster without devices.
	ErrEmptyRoster = errors.New("roster has no devices")
)

// SubscriptionError reports a failure scoped to one (device, service)
// pair. It never aborts the manager.
type SubscriptionError struct {
	Device  model.DeviceID
	Service model.ServiceType
	Err     error
}

func (e *SubscriptionError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s/%s: %v", e.Device, e.Service, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
