package log

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// captureLogger records events for assertions.
type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureLogger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestNoopLogger(t *testing.T) {
	// Must not panic, including as a zero value.
	var l NoopLogger
	l.Log(Event{Category: CategorySubscribe})
}

func TestMultiLoggerFanOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	m := NewMultiLogger(a, b)

	m.Log(Event{Category: CategoryRenew})
	m.Log(Event{Category: CategoryNotify})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("fan-out: a=%d b=%d, want 2 each", a.count(), b.count())
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Timestamp: time.Now(),
		Category:  CategorySubscribe,
		DeviceID:  "RINCON_A",
		Service:   "AVTransport",
		Subscription: &SubscriptionEvent{
			NewStatus: "Active",
		},
	})

	out := buf.String()
	for _, want := range []string{"SUBSCRIBE", "RINCON_A", "AVTransport", "Active"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSlogAdapterErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		Category: CategoryParse,
		Error:    &ErrorEventData{Message: "malformed payload", Context: "dispatch"},
	})

	out := buf.String()
	if !strings.Contains(out, "malformed payload") || !strings.Contains(out, "dispatch") {
		t.Errorf("output missing error fields: %s", out)
	}
}
