package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
// Useful for development when you want to see subsystem events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	// Add optional identifiers
	if event.DeviceID != "" {
		attrs = append(attrs, slog.String("device_id", event.DeviceID))
	}
	if event.Service != "" {
		attrs = append(attrs, slog.String("service", event.Service))
	}
	if event.SID != "" {
		attrs = append(attrs, slog.String("sid", event.SID))
	}
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote_addr", event.RemoteAddr))
	}

	// Add type-specific attributes
	switch {
	case event.Subscription != nil:
		if event.Subscription.OldStatus != "" {
			attrs = append(attrs, slog.String("old_status", event.Subscription.OldStatus))
		}
		attrs = append(attrs, slog.String("new_status", event.Subscription.NewStatus))
		if event.Subscription.Attempt > 0 {
			attrs = append(attrs, slog.Int("attempt", event.Subscription.Attempt))
		}
		if event.Subscription.Granted != nil {
			attrs = append(attrs, slog.Duration("granted", *event.Subscription.Granted))
		}
		if event.Subscription.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Subscription.Reason))
		}
	case event.Notify != nil:
		attrs = append(attrs,
			slog.Uint64("seq", uint64(event.Notify.Seq)),
			slog.Int("size", event.Notify.Size),
		)
		if event.Notify.Variables > 0 {
			attrs = append(attrs, slog.Int("variables", event.Notify.Variables))
		}
		if event.Notify.Stale {
			attrs = append(attrs, slog.Bool("stale", true))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "eventing", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
