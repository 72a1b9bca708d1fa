package eventing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultBufferSize, cfg.BufferSize)
	assert.Equal(t, DefaultLeaseDuration, cfg.LeaseDuration)
	assert.Equal(t, DefaultRetryAttempts, cfg.RetryAttempts)
	assert.Len(t, cfg.EnabledServices, 3)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }},
		{"short lease", func(c *Config) { c.LeaseDuration = 30 * time.Second }},
		{"zero margin", func(c *Config) { c.RenewalMargin = 0 }},
		{"margin above lease", func(c *Config) { c.RenewalMargin = c.LeaseDuration * 2 }},
		{"zero retries", func(c *Config) { c.RetryAttempts = 0 }},
		{"zero backoff", func(c *Config) { c.RetryBackoff = 0 }},
		{"zero attempt timeout", func(c *Config) { c.AttemptTimeout = 0 }},
		{"zero scan interval", func(c *Config) { c.ScanInterval = 0 }},
		{"negative push timeout", func(c *Config) { c.PushTimeout = -time.Second }},
		{"inverted port range", func(c *Config) { c.PortRangeStart = 9000; c.PortRangeEnd = 8000 }},
		{"port out of range", func(c *Config) { c.PortRangeEnd = 70000 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfigServicesDefaultsToAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledServices = nil
	assert.Len(t, cfg.services(), 3)

	cfg.EnabledServices = []model.ServiceType{model.ServiceAVTransport}
	assert.Equal(t, []model.ServiceType{model.ServiceAVTransport}, cfg.services())
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = -1
	_, err := NewManager(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBackoffDelayDoubles(t *testing.T) {
	base := time.Second
	assert.Equal(t, time.Second, backoffDelay(base, 0))
	assert.Equal(t, 2*time.Second, backoffDelay(base, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(base, 2))
}
