package model

// Group is one coordinated playback group: a coordinator device plus
// member devices, each of which may have bonded satellite devices
// (e.g. surround speakers) that never appear as standalone members.
type Group struct {
	ID          string
	Coordinator DeviceID
	Members     []GroupMember
}

// GroupMember is a device inside a group together with its satellites.
type GroupMember struct {
	DeviceID   DeviceID
	Name       string
	Satellites []DeviceID
}

// VanishedDevice records a device the network reports as gone.
type VanishedDevice struct {
	DeviceID DeviceID
	Reason   string
}

// Topology is the current partition of the fleet into groups. It is
// always replaced as a whole snapshot, never patched field by field, so
// readers can never observe a half-updated grouping.
type Topology struct {
	Groups   []Group
	Vanished []VanishedDevice
}

// Clone returns a deep copy of the topology.
func (t Topology) Clone() Topology {
	out := Topology{
		Groups:   make([]Group, len(t.Groups)),
		Vanished: make([]VanishedDevice, len(t.Vanished)),
	}
	copy(out.Vanished, t.Vanished)
	for i, g := range t.Groups {
		cg := g
		cg.Members = make([]GroupMember, len(g.Members))
		for j, m := range g.Members {
			cm := m
			cm.Satellites = append([]DeviceID(nil), m.Satellites...)
			cg.Members[j] = cm
		}
		out.Groups[i] = cg
	}
	return out
}

// GroupOf returns the group containing the given device, either as a
// member or as a satellite, or false if the device is ungrouped.
func (t Topology) GroupOf(id DeviceID) (Group, bool) {
	for _, g := range t.Groups {
		for _, m := range g.Members {
			if m.DeviceID == id {
				return g, true
			}
			for _, sat := range m.Satellites {
				if sat == id {
					return g, true
				}
			}
		}
	}
	return Group{}, false
}
