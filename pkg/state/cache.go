package state

import (
	"github.com/linkdata/deadlock"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// Cache is the concurrent state store. Device entries are created
// lazily on the first accepted change; reads during an apply see either
// the old or the new value, never a partial one.
//
// Applying a change is idempotent: change payloads carry only the
// fields the notification named, and the entry timestamp comes from the
// change itself, so replaying a change is a no-op.
type Cache struct {
	mu      deadlock.RWMutex
	devices map[model.DeviceID]*entry

	topoMu   deadlock.RWMutex
	topology *model.Topology
}

type entry struct {
	mu    deadlock.RWMutex
	state model.DeviceState
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{devices: make(map[model.DeviceID]*entry)}
}

// Apply folds one state change into the cache. Subscription notices
// pass through untouched; they carry no device state.
func (c *Cache) Apply(change model.StateChange) {
	switch change.Kind {
	case model.ChangePlayback:
		if change.Playback == nil {
			return
		}
		e := c.entryFor(change.DeviceID)
		e.mu.Lock()
		pc := change.Playback
		if pc.State != nil {
			e.state.PlaybackState = *pc.State
		}
		if pc.Track != nil {
			t := *pc.Track
			e.state.Track = &t
		}
		if pc.PositionMs != nil {
			e.state.PositionMs = *pc.PositionMs
		}
		e.state.LastUpdated = change.Timestamp
		e.mu.Unlock()

	case model.ChangeVolume:
		if change.Volume == nil {
			return
		}
		e := c.entryFor(change.DeviceID)
		e.mu.Lock()
		if change.Volume.Level != nil {
			e.state.Volume = *change.Volume.Level
		}
		if change.Volume.Muted != nil {
			e.state.Muted = *change.Volume.Muted
		}
		e.state.LastUpdated = change.Timestamp
		e.mu.Unlock()

	case model.ChangeTopology:
		if change.Topology == nil {
			return
		}
		c.SetTopology(*change.Topology)
	}
}

func (c *Cache) entryFor(id model.DeviceID) *entry {
	c.mu.RLock()
	e, ok := c.devices[id]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok = c.devices[id]; !ok {
		e = &entry{}
		c.devices[id] = e
	}
	return e
}

// Device returns a copy of the cached state for one device, or false if
// no change has been applied for it yet.
func (c *Cache) Device(id model.DeviceID) (model.DeviceState, bool) {
	c.mu.RLock()
	e, ok := c.devices[id]
	c.mu.RUnlock()
	if !ok {
		return model.DeviceState{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone(), true
}

// Devices returns the IDs of every device with a cached entry.
func (c *Cache) Devices() []model.DeviceID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]model.DeviceID, 0, len(c.devices))
	for id := range c.devices {
		ids = append(ids, id)
	}
	return ids
}

// SetTopology replaces the topology snapshot as a whole.
func (c *Cache) SetTopology(t model.Topology) {
	snap := t.Clone()
	c.topoMu.Lock()
	c.topology = &snap
	c.topoMu.Unlock()
}

// Topology returns a copy of the current topology snapshot, or false if
// none has been applied yet.
func (c *Cache) Topology() (model.Topology, bool) {
	c.topoMu.RLock()
	defer c.topoMu.RUnlock()
	if c.topology == nil {
		return model.Topology{}, false
	}
	return c.topology.Clone(), true
}
