package services

import (
	"fmt"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// Service is one subscribable device service. Implementations are
// stateless and safe for concurrent use.
type Service interface {
	// Type identifies the service.
	Type() model.ServiceType

	// EventPath is the path of the service's event endpoint on a device.
	EventPath() string

	// Parse converts the variables of one notification into state
	// changes. The device ID is the device the notification's lease
	// belongs to; network-wide services ignore it. Variables the
	// service does not understand are skipped, a malformed payload
	// returns a ParseError and no changes.
	Parse(device model.DeviceID, vars map[string]string) ([]model.StateChange, error)
}

// ParseError reports a malformed notification payload. It is scoped to
// the single notification; the subscription that delivered it stays
// alive.
type ParseError struct {
	Service model.ServiceType
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed payload: %v", e.Service, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ForType returns the variant implementing the given service type.
func ForType(t model.ServiceType) (Service, error) {
	switch t {
	case model.ServiceAVTransport:
		return AVTransport{}, nil
	case model.ServiceRenderingControl:
		return RenderingControl{}, nil
	case model.ServiceZoneGroupTopology:
		return ZoneGroupTopology{}, nil
	default:
		return nil, fmt.Errorf("unknown service type %d", t)
	}
}

// All returns every known service variant.
func All() []Service {
	return []Service{AVTransport{}, RenderingControl{}, ZoneGroupTopology{}}
}
