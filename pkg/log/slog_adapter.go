package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
// Useful during bring-up to see rail activity on the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates an adapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("category", event.Category.String()),
	}
	if event.Rail != "" {
		attrs = append(attrs, slog.String("rail", event.Rail))
	}

	switch {
	case event.Voltage != nil:
		v := event.Voltage
		attrs = append(attrs,
			slog.Int("target_uv", v.TargetMicroVolts),
			slog.Uint64("selector", uint64(v.Selector)),
			slog.String("tier", v.Tier.String()),
			slog.String("outcome", v.Outcome.String()),
			slog.Duration("elapsed", v.Elapsed),
		)
		if v.Source != "" {
			attrs = append(attrs, slog.String("source", v.Source))
		}
	case event.Mode != nil:
		attrs = append(attrs,
			slog.String("mode", event.Mode.Mode),
			slog.String("outcome", event.Mode.Outcome.String()),
		)
	case event.Budget != nil:
		b := event.Budget
		attrs = append(attrs,
			slog.Int64("requested_ua", b.RequestedMicroAmps),
			slog.Int64("previous_ua", b.PreviousMicroAmps),
			slog.String("outcome", b.Outcome.String()),
		)
		if b.Parent != "" {
			attrs = append(attrs, slog.String("parent", b.Parent))
		}
		if b.Waits > 0 {
			attrs = append(attrs, slog.Int("waits", b.Waits), slog.Duration("blocked", b.Blocked))
		}
	case event.Notify != nil:
		n := event.Notify
		attrs = append(attrs,
			slog.String("kind", n.Kind),
			slog.Int64("old_max_ua", n.OldMaxMicroAmp),
			slog.Int64("new_max_ua", n.NewMaxMicroAmp),
		)
		if n.Origin != "" {
			attrs = append(attrs, slog.String("origin", n.Origin))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "rail", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
