package eventing

import (
	"fmt"
	"time"

	"github.com/tatimblin/sonos-local-controller/pkg/log"
	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// Default configuration values.
const (
	DefaultBufferSize     = 1000
	DefaultLeaseDuration  = 30 * time.Minute
	DefaultRenewalMargin  = 2 * time.Minute
	DefaultRetryAttempts  = 3
	DefaultRetryBackoff   = 1 * time.Second
	DefaultAttemptTimeout = 10 * time.Second
	DefaultScanInterval   = 30 * time.Second
	DefaultPushTimeout    = 1 * time.Second
	DefaultPortRangeStart = 8080
	DefaultPortRangeEnd   = 8090
)

// Config holds manager configuration. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// BufferSize is the capacity of the event stream.
	BufferSize int

	// LeaseDuration is the lease requested from devices. Devices may
	// grant less; the granted value drives renewal scheduling.
	LeaseDuration time.Duration

	// RenewalMargin is how long before expiry a lease is renewed.
	RenewalMargin time.Duration

	// RetryAttempts is the number of attempts per subscribe/renew
	// operation before the subscription is marked Failed.
	RetryAttempts int

	// RetryBackoff is the delay after the first failed attempt. It
	// doubles after each subsequent failure.
	RetryBackoff time.Duration

	// AttemptTimeout bounds each individual HTTP request to a device.
	AttemptTimeout time.Duration

	// ScanInterval is how often the renewal scheduler scans the
	// registry for leases approaching expiry.
	ScanInterval time.Duration

	// PushTimeout is how long a stream push blocks on a full buffer
	// before the oldest queued item is dropped.
	PushTimeout time.Duration

	// PortRangeStart and PortRangeEnd bound the sequential probe for
	// the callback listener port (inclusive).
	PortRangeStart int
	PortRangeEnd   int

	// CallbackHost overrides callback host detection when set.
	CallbackHost string

	// EnabledServices selects the services to subscribe to. Empty
	// means all known services.
	EnabledServices []model.ServiceType

	// Logger receives the structured event trace. Nil disables it.
	Logger log.Logger

	// OnLifecycle is invoked for lifecycle transitions. Nil disables it.
	OnLifecycle func(LifecycleEvent)
}

// DefaultConfig returns the default manager configuration with all
// services enabled.
func DefaultConfig() Config {
	return Config{
		BufferSize:     DefaultBufferSize,
		LeaseDuration:  DefaultLeaseDuration,
		RenewalMargin:  DefaultRenewalMargin,
		RetryAttempts:  DefaultRetryAttempts,
		RetryBackoff:   DefaultRetryBackoff,
		AttemptTimeout: DefaultAttemptTimeout,
		ScanInterval:   DefaultScanInterval,
		PushTimeout:    DefaultPushTimeout,
		PortRangeStart: DefaultPortRangeStart,
		PortRangeEnd:   DefaultPortRangeEnd,
		EnabledServices: []model.ServiceType{
			model.ServiceAVTransport,
			model.ServiceRenderingControl,
			model.ServiceZoneGroupTopology,
		},
	}
}

// Validate checks the configuration and returns ErrInvalidConfig with a
// description of the first problem found.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.LeaseDuration < time.Minute {
		return fmt.Errorf("%w: lease duration %v below one minute", ErrInvalidConfig, c.LeaseDuration)
	}
	if c.RenewalMargin <= 0 || c.RenewalMargin >= c.LeaseDuration {
		return fmt.Errorf("%w: renewal margin %v must be positive and below the lease duration", ErrInvalidConfig, c.RenewalMargin)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1, got %d", ErrInvalidConfig, c.RetryAttempts)
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("%w: retry backoff must be positive", ErrInvalidConfig)
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("%w: attempt timeout must be positive", ErrInvalidConfig)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan interval must be positive", ErrInvalidConfig)
	}
	if c.PushTimeout < 0 {
		return fmt.Errorf("%w: push timeout must not be negative", ErrInvalidConfig)
	}
	if c.PortRangeStart < 1 || c.PortRangeStart > 65535 ||
		c.PortRangeEnd < c.PortRangeStart || c.PortRangeEnd > 65535 {
		return fmt.Errorf("%w: callback port range %d-%d", ErrInvalidConfig, c.PortRangeStart, c.PortRangeEnd)
	}
	return nil
}

// services returns the enabled service types, defaulting to all.
func (c *Config) services() []model.ServiceType {
	if len(c.EnabledServices) > 0 {
		return c.EnabledServices
	}
	return []model.ServiceType{
		model.ServiceAVTransport,
		model.ServiceRenderingControl,
		model.ServiceZoneGroupTopology,
	}
}

// logger returns the configured logger, defaulting to a no-op.
func (c *Config) logger() log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.NoopLogger{}
}
