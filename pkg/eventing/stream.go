package eventing

import (
	"sync"
	"time"

	"github.com/tatimblin/sonos-local-controller/pkg/model"
)

// Stream is the bounded event stream consumers read state changes from.
//
// Overflow policy: a push on a full buffer blocks the producer for the
// configured push timeout to let a slow consumer catch up; if the
// buffer is still full, the oldest queued item is dropped to admit the
// new one. Memory stays bounded and the newest items always survive.
//
// Close wakes every blocked consumer. Items queued before Close remain
// receivable; once they are drained Recv reports termination.
type Stream struct {
	ch          chan model.StateChange
	pushTimeout time.Duration

	pushMu sync.Mutex
	closed bool
}

func newStream(capacity int, pushTimeout time.Duration) *Stream {
	return &Stream{
		ch:          make(chan model.StateChange, capacity),
		pushTimeout: pushTimeout,
	}
}

// push enqueues one change. Only the dispatcher calls it; the mutex
// keeps the drop-oldest step atomic and orders pushes against Close.
func (s *Stream) push(change model.StateChange) {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- change:
		return
	default:
	}

	// Full: give the consumer the push timeout to catch up.
	timer := time.NewTimer(s.pushTimeout)
	defer timer.Stop()
	select {
	case s.ch <- change:
		return
	case <-timer.C:
	}

	// Still full: drop the oldest queued item and admit the new one.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- change:
	default:
	}
}

// Recv blocks until a change is available or the stream is closed and
// drained. The second return is false only on termination.
func (s *Stream) Recv() (model.StateChange, bool) {
	c, ok := <-s.ch
	return c, ok
}

// RecvTimeout waits up to d for a change. The second return is false
// when the timeout elapsed or the stream terminated.
func (s *Stream) RecvTimeout(d time.Duration) (model.StateChange, bool) {
	select {
	case c, ok := <-s.ch:
		return c, ok
	default:
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case c, ok := <-s.ch:
		return c, ok
	case <-timer.C:
		return model.StateChange{}, false
	}
}

// TryRecv returns a change without blocking. The second return is false
// when the buffer is empty.
func (s *Stream) TryRecv() (model.StateChange, bool) {
	select {
	case c, ok := <-s.ch:
		return c, ok
	default:
		return model.StateChange{}, false
	}
}

// Changes exposes the stream as a receive channel for range loops. The
// channel delivers remaining queued items after Close, then ends.
func (s *Stream) Changes() <-chan model.StateChange { return s.ch }

// Len returns the number of queued changes.
func (s *Stream) Len() int { return len(s.ch) }

// Capacity returns the configured buffer capacity.
func (s *Stream) Capacity() int { return cap(s.ch) }

// Close terminates the stream. Safe to call more than once.
func (s *Stream) Close() {
	s.pushMu.Lock()
	defer s.pushMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
