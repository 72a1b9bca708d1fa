package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func statePtr(s model.PlaybackState) *model.PlaybackState { return &s }

func TestCacheLazyEntryCreation(t *testing.T) {
	c := NewCache()

	_, ok := c.Device("RINCON_X")
	assert.False(t, ok)
	assert.Empty(t, c.Devices())

	c.Apply(model.NewVolumeChange("RINCON_X", model.VolumeChange{Level: intPtr(30)}))

	got, ok := c.Device("RINCON_X")
	require.True(t, ok)
	assert.Equal(t, 30, got.Volume)
	assert.Equal(t, []model.DeviceID{"RINCON_X"}, c.Devices())
}

func TestCachePartialUpdateKeepsOtherFields(t *testing.T) {
	c := NewCache()
	c.Apply(model.NewVolumeChange("RINCON_X", model.VolumeChange{Level: intPtr(42), Muted: boolPtr(true)}))

	// A mute-only notification must leave the volume level alone.
	c.Apply(model.NewVolumeChange("RINCON_X", model.VolumeChange{Muted: boolPtr(false)}))

	got, ok := c.Device("RINCON_X")
	require.True(t, ok)
	assert.Equal(t, 42, got.Volume)
	assert.False(t, got.Muted)
}

func TestCacheApplyIdempotent(t *testing.T) {
	c := NewCache()
	change := model.NewPlaybackChange("RINCON_X", model.PlaybackChange{
		State: statePtr(model.PlaybackPlaying),
		Track: &model.TrackInfo{Title: "Song", DurationMs: 1000},
	})

	c.Apply(change)
	first, ok := c.Device("RINCON_X")
	require.True(t, ok)

	c.Apply(change)
	second, ok := c.Device("RINCON_X")
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestCacheDeviceReturnsCopy(t *testing.T) {
	c := NewCache()
	c.Apply(model.NewPlaybackChange("RINCON_X", model.PlaybackChange{
		Track: &model.TrackInfo{Title: "Original"},
	}))

	got, ok := c.Device("RINCON_X")
	require.True(t, ok)
	got.Track.Title = "Mutated"

	again, _ := c.Device("RINCON_X")
	assert.Equal(t, "Original", again.Track.Title)
}

func TestCacheTopologySwap(t *testing.T) {
	c := NewCache()

	_, ok := c.Topology()
	assert.False(t, ok)

	c.SetTopology(model.Topology{Groups: []model.Group{{
		ID:          "RINCON_X:1",
		Coordinator: "RINCON_X",
		Members:     []model.GroupMember{{DeviceID: "RINCON_X", Name: "Office"}},
	}}})

	topo, ok := c.Topology()
	require.True(t, ok)
	require.Len(t, topo.Groups, 1)

	// Mutating the returned copy must not leak into the cache.
	topo.Groups[0].Members[0].Name = "Mutated"
	again, _ := c.Topology()
	assert.Equal(t, "Office", again.Groups[0].Members[0].Name)
}

func TestCacheTopologyAtomicUnderConcurrency(t *testing.T) {
	c := NewCache()

	a := model.Topology{Groups: []model.Group{
		{ID: "a:1", Coordinator: "a", Members: []model.GroupMember{{DeviceID: "a"}}},
	}}
	b := model.Topology{Groups: []model.Group{
		{ID: "b:1", Coordinator: "b", Members: []model.GroupMember{{DeviceID: "b"}}},
		{ID: "b:2", Coordinator: "c", Members: []model.GroupMember{{DeviceID: "c"}}},
	}}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				c.Apply(model.NewTopologyChange(a))
			} else {
				c.Apply(model.NewTopologyChange(b))
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		topo, ok := c.Topology()
		if !ok {
			continue
		}
		// Every read sees one of the two complete snapshots.
		switch len(topo.Groups) {
		case 1:
			assert.Equal(t, model.DeviceID("a"), topo.Groups[0].Coordinator)
		case 2:
			assert.Equal(t, model.DeviceID("b"), topo.Groups[0].Coordinator)
		default:
			t.Fatalf("torn topology read: %d groups", len(topo.Groups))
		}
	}

	close(stop)
	wg.Wait()
}

func TestCacheConcurrentDeviceApplies(t *testing.T) {
	c := NewCache()
	ids := []model.DeviceID{"RINCON_A", "RINCON_B", "RINCON_C"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id model.DeviceID) {
			defer wg.Done()
			for v := 0; v <= 100; v++ {
				c.Apply(model.NewVolumeChange(id, model.VolumeChange{Level: intPtr(v)}))
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		got, ok := c.Device(id)
		require.True(t, ok)
		assert.Equal(t, 100, got.Volume)
	}
	assert.Len(t, c.Devices(), 3)
}
