package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tatimblin/sonos-local-controller/pkg/eventing"
	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// fileConfig is the YAML configuration file format. Durations are
// strings in Go duration syntax ("30m", "1s"). Unset fields keep the
// library defaults.
type fileConfig struct {
	BufferSize    int    `yaml:"buffer_size"`
	LeaseDuration string `yaml:"lease_duration"`
	RenewalMargin string `yaml:"renewal_margin"`
	RetryAttempts int    `yaml:"retry_attempts"`
	RetryBackoff  string `yaml:"retry_backoff"`

	Services []string `yaml:"services"`

	Callback struct {
		Host      string `yaml:"host"`
		PortStart int    `yaml:"port_start"`
		PortEnd   int    `yaml:"port_end"`
	} `yaml:"callback"`

	Devices []model.Device `yaml:"devices"`
}

// loadConfig reads the YAML file and folds it over the defaults.
func loadConfig(path string) (eventing.Config, model.Roster, error) {
	cfg := eventing.DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, model.Roster{}, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, model.Roster{}, fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.BufferSize > 0 {
		cfg.BufferSize = fc.BufferSize
	}
	if fc.RetryAttempts > 0 {
		cfg.RetryAttempts = fc.RetryAttempts
	}
	if err := applyDuration(&cfg.LeaseDuration, fc.LeaseDuration); err != nil {
		return cfg, model.Roster{}, fmt.Errorf("lease_duration: %w", err)
	}
	if err := applyDuration(&cfg.RenewalMargin, fc.RenewalMargin); err != nil {
		return cfg, model.Roster{}, fmt.Errorf("renewal_margin: %w", err)
	}
	if err := applyDuration(&cfg.RetryBackoff, fc.RetryBackoff); err != nil {
		return cfg, model.Roster{}, fmt.Errorf("retry_backoff: %w", err)
	}

	if len(fc.Services) > 0 {
		cfg.EnabledServices = cfg.EnabledServices[:0]
		for _, name := range fc.Services {
			st, err := serviceByName(name)
			if err != nil {
				return cfg, model.Roster{}, err
			}
			cfg.EnabledServices = append(cfg.EnabledServices, st)
		}
	}

	cfg.CallbackHost = fc.Callback.Host
	if fc.Callback.PortStart > 0 {
		cfg.PortRangeStart = fc.Callback.PortStart
	}
	if fc.Callback.PortEnd > 0 {
		cfg.PortRangeEnd = fc.Callback.PortEnd
	}

	return cfg, model.Roster{Devices: fc.Devices}, nil
}

func applyDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func serviceByName(name string) (model.ServiceType, error) {
	switch name {
	case "AVTransport":
		return model.ServiceAVTransport, nil
	case "RenderingControl":
		return model.ServiceRenderingControl, nil
	case "ZoneGroupTopology":
		return model.ServiceZoneGroupTopology, nil
	default:
		return 0, fmt.Errorf("unknown service %q", name)
	}
}
