package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// DefaultVBUSPollInterval is how often the watcher checks the interrupt bit.
const DefaultVBUSPollInterval = 50 * time.Millisecond

// Poster accepts events for delivery. *Dispatcher implements it.
type Poster interface {
	Post(Event) error
}

// VBUSWatcher turns VBUS-valid interrupts into USBPolicy events.
type VBUSWatcher struct {
	bank     reg.Bank
	policy   USBPolicy
	out      Poster
	interval time.Duration
	logger   *slog.Logger
}

// NewVBUSWatcher creates a watcher. interval <= 0 selects
// DefaultVBUSPollInterval.
func NewVBUSWatcher(bank reg.Bank, policy USBPolicy, out Poster, interval time.Duration) *VBUSWatcher {
	if interval <= 0 {
		interval = DefaultVBUSPollInterval
	}
	return &VBUSWatcher{
		bank:     bank,
		policy:   policy,
		out:      out,
		interval: interval,
		logger:   slog.Default(),
	}
}

// SetLogger sets the operational logger.
func (w *VBUSWatcher) SetLogger(l *slog.Logger) {
	if l != nil {
		w.logger = l
	}
}

// Prime arms the interrupt for the next edge and posts the event for the
// present VBUS state, so the ceiling matches the supply from the start.
func (w *VBUSWatcher) Prime() error {
	power.ArmVBUSInterrupt(w.bank)
	return w.post(power.VBUSValid(w.bank))
}

// Poll acknowledges a pending interrupt and posts its event. It reports
// whether an edge was seen.
func (w *VBUSWatcher) Poll() (bool, error) {
	pending, valid := power.AckVBUSInterrupt(w.bank)
	if !pending {
		return false, nil
	}
	return true, w.post(valid)
}

// Run primes the watcher and polls until ctx is done. Post failures are
// logged and do not stop the watcher.
func (w *VBUSWatcher) Run(ctx context.Context) error {
	if err := w.policy.Validate(); err != nil {
		return err
	}
	if err := w.Prime(); err != nil {
		w.logger.Warn("initial vbus event not posted", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Poll(); err != nil {
				w.logger.Warn("vbus event not posted", "error", err)
			}
		}
	}
}

func (w *VBUSWatcher) post(valid bool) error {
	ev := w.policy.Event(valid)
	w.logger.Info("vbus state", "valid", valid, "rail", ev.Rail, "max_ua", ev.MaxMicroAmps)
	return w.out.Post(ev)
}
