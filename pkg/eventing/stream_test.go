package eventing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

func volumeChange(level int) model.StateChange {
	return model.NewVolumeChange("RINCON_X", model.VolumeChange{Level: &level})
}

func TestStreamFIFO(t *testing.T) {
	s := newStream(10, time.Millisecond)
	for i := 0; i < 3; i++ {
		s.push(volumeChange(i))
	}

	for i := 0; i < 3; i++ {
		c, ok := s.TryRecv()
		require.True(t, ok)
		assert.Equal(t, i, *c.Volume.Level)
	}
	_, ok := s.TryRecv()
	assert.False(t, ok)
}

func TestStreamOverflowKeepsNewest(t *testing.T) {
	// Capacity 2, five pushes, no consumer: exactly the 2 newest remain.
	s := newStream(2, time.Millisecond)
	for i := 1; i <= 5; i++ {
		s.push(volumeChange(i))
	}

	assert.Equal(t, 2, s.Len())

	first, ok := s.TryRecv()
	require.True(t, ok)
	second, ok := s.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 4, *first.Volume.Level)
	assert.Equal(t, 5, *second.Volume.Level)
}

func TestStreamPushWaitsForConsumer(t *testing.T) {
	s := newStream(1, 500*time.Millisecond)
	s.push(volumeChange(1))

	done := make(chan struct{})
	go func() {
		// Buffer is full; the push should block until the consumer
		// below drains, not drop item 1.
		s.push(volumeChange(2))
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	c, ok := s.Recv()
	require.True(t, ok)
	assert.Equal(t, 1, *c.Volume.Level)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push did not complete after consumer drained")
	}

	c, ok = s.Recv()
	require.True(t, ok)
	assert.Equal(t, 2, *c.Volume.Level)
}

func TestStreamCloseUnblocksRecv(t *testing.T) {
	s := newStream(4, time.Millisecond)

	result := make(chan bool, 1)
	go func() {
		_, ok := s.Recv()
		result <- ok
	}()

	time.Sleep(50 * time.Millisecond)
	s.Close()

	select {
	case ok := <-result:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Recv did not observe termination")
	}
}

func TestStreamCloseDrainsQueued(t *testing.T) {
	s := newStream(4, time.Millisecond)
	s.push(volumeChange(1))
	s.push(volumeChange(2))
	s.Close()

	c, ok := s.Recv()
	require.True(t, ok)
	assert.Equal(t, 1, *c.Volume.Level)
	c, ok = s.Recv()
	require.True(t, ok)
	assert.Equal(t, 2, *c.Volume.Level)

	_, ok = s.Recv()
	assert.False(t, ok)
}

func TestStreamPushAfterClose(t *testing.T) {
	s := newStream(4, time.Millisecond)
	s.Close()
	s.push(volumeChange(1))

	_, ok := s.TryRecv()
	assert.False(t, ok)
}

func TestStreamRecvTimeout(t *testing.T) {
	s := newStream(4, time.Millisecond)

	start := time.Now()
	_, ok := s.RecvTimeout(50 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	s.push(volumeChange(7))
	c, ok := s.RecvTimeout(time.Second)
	require.True(t, ok)
	assert.Equal(t, 7, *c.Volume.Level)
}

func TestStreamRangeIteration(t *testing.T) {
	s := newStream(4, time.Millisecond)
	for i := 0; i < 3; i++ {
		s.push(volumeChange(i))
	}
	s.Close()

	var got []int
	for c := range s.Changes() {
		got = append(got, *c.Volume.Level)
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestStreamCapacity(t *testing.T) {
	s := newStream(8, time.Millisecond)
	assert.Equal(t, 8, s.Capacity())
	assert.Equal(t, 0, s.Len())
}
