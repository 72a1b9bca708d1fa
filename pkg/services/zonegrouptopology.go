package services

import (
	"encoding/xml"
	"strings"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// ZoneGroupTopology delivers whole-network group snapshots. The service
// is network wide: every device reports the same ZoneGroupState, so a
// single lease covers the fleet and the parsed result replaces the
// cached topology as one unit.
type ZoneGroupTopology struct{}

func (ZoneGroupTopology) Type() model.ServiceType { return model.ServiceZoneGroupTopology }

func (ZoneGroupTopology) EventPath() string { return "/ZoneGroupTopology/Event" }

type zoneGroupMemberXML struct {
	UUID       string `xml:"UUID,attr"`
	ZoneName   string `xml:"ZoneName,attr"`
	Satellites string `xml:"Satellites,attr"`
	Nested     []struct {
		UUID string `xml:"UUID,attr"`
	} `xml:"Satellite"`
}

type zoneGroupXML struct {
	Coordinator string               `xml:"Coordinator,attr"`
	ID          string               `xml:"ID,attr"`
	Members     []zoneGroupMemberXML `xml:"ZoneGroupMember"`
}

type vanishedDeviceXML struct {
	UUID   string `xml:"UUID,attr"`
	Reason string `xml:"Reason,attr"`
}

// zoneGroupStateXML accepts both root forms devices emit: a
// ZoneGroupState wrapper around ZoneGroups, or ZoneGroups directly.
type zoneGroupStateXML struct {
	Wrapped  []zoneGroupXML      `xml:"ZoneGroups>ZoneGroup"`
	Direct   []zoneGroupXML      `xml:"ZoneGroup"`
	Vanished []vanishedDeviceXML `xml:"VanishedDevices>Device"`
}

func (s ZoneGroupTopology) Parse(_ model.DeviceID, vars map[string]string) ([]model.StateChange, error) {
	raw, ok := vars["ZoneGroupState"]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var doc zoneGroupStateXML
	if err := xml.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, &ParseError{Service: s.Type(), Err: err}
	}

	groups := doc.Wrapped
	if len(groups) == 0 {
		groups = doc.Direct
	}

	topo := model.Topology{}
	for _, g := range groups {
		group := model.Group{
			ID:          g.ID,
			Coordinator: model.DeviceID(g.Coordinator),
		}
		for _, m := range g.Members {
			member := model.GroupMember{
				DeviceID: model.DeviceID(m.UUID),
				Name:     m.ZoneName,
			}
			// Satellites appear either as a comma-separated attribute
			// or as nested elements, depending on firmware.
			for _, sat := range strings.Split(m.Satellites, ",") {
				if sat = strings.TrimSpace(sat); sat != "" {
					member.Satellites = append(member.Satellites, model.DeviceID(sat))
				}
			}
			for _, sat := range m.Nested {
				if sat.UUID != "" {
					member.Satellites = append(member.Satellites, model.DeviceID(sat.UUID))
				}
			}
			group.Members = append(group.Members, member)
		}
		topo.Groups = append(topo.Groups, group)
	}
	for _, v := range doc.Vanished {
		topo.Vanished = append(topo.Vanished, model.VanishedDevice{
			DeviceID: model.DeviceID(v.UUID),
			Reason:   v.Reason,
		})
	}

	return []model.StateChange{model.NewTopologyChange(topo)}, nil
}
