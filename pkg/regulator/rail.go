package regulator

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mxs-pmu/pmu-go/pkg/budget"
	"github.com/mxs-pmu/pmu-go/pkg/log"
	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// Rail is one regulated output. Rails are created by New and safe for
// concurrent use.
type Rail struct {
	desc   Descriptor
	engine *Engine

	// mu serializes writes to the rail's control register. Reads take no lock.
	mu sync.Mutex

	node *budget.Node // nil when the rail has no current ceiling

	// softMode holds the mode of rails without a stepping bit.
	softMode atomic.Uint32
}

// ID returns the rail id.
func (r *Rail) ID() ID { return r.desc.ID }

// Name returns the rail name.
func (r *Rail) Name() string { return r.desc.Name }

// Descriptor returns a copy of the rail's static description.
func (r *Rail) Descriptor() Descriptor { return r.desc }

// Source decodes which supply currently feeds the rail. It only reads
// registers. Rails without voltage control always report power.Unknown.
func (r *Rail) Source() power.Source {
	if !r.desc.HasVoltage() {
		return power.Unknown
	}
	return decodeSource(r.desc.Class, signals(r.engine.bank, &r.desc))
}

// Selector converts a voltage to a selector using the rail's law.
func (r *Rail) Selector(uV int) (uint32, error) {
	if !r.desc.HasVoltage() {
		return 0, r.noVoltage()
	}
	return r.desc.Selector(uV)
}

// ListVoltage returns the voltage of selector sel.
func (r *Rail) ListVoltage(sel uint32) (int, error) {
	if !r.desc.HasVoltage() {
		return 0, r.noVoltage()
	}
	return r.desc.ListVoltage(sel)
}

// SetVoltage moves the rail to the selector nearest uV and waits for the
// converter to report DC_OK.
//
// Rails fed by a source that bypasses the converter complete after a fixed
// settle delay without polling. Otherwise DC_OK is polled in a short burst;
// if that fails the write is issued again and DC_OK is polled until the slow
// timeout. ErrTimeout leaves the new selector written.
func (r *Rail) SetVoltage(uV int) error {
	if !r.desc.HasVoltage() {
		return r.noVoltage()
	}
	start := time.Now()

	sel, err := r.desc.Selector(uV)
	if err != nil {
		r.traceVoltage(&log.VoltageEvent{TargetMicroVolts: uV, Outcome: log.OutcomeRejected})
		return err
	}

	b := r.engine.bank
	d := &r.desc

	r.mu.Lock()
	defer r.mu.Unlock()

	word := reg.Merge(b.Read(d.Control), d.SelectMask, sel<<d.selectShift())
	b.Write(d.Control, word)

	src := r.Source()
	ev := &log.VoltageEvent{
		TargetMicroVolts: uV,
		Selector:         sel,
		Source:           src.String(),
	}

	if !src.UsesConverter() {
		delay(r.engine.timing.SettleDelay)
		ev.Tier = log.TierSettle
		ev.Elapsed = time.Since(start)
		r.traceVoltage(ev)
		return nil
	}

	ev.Tier, ev.Polls, err = r.awaitStable(word)
	ev.Elapsed = time.Since(start)
	if err != nil {
		ev.Outcome = log.OutcomeTimeout
		r.traceVoltage(ev)
		r.engine.logger.Warn("voltage transition not confirmed",
			"rail", d.Name, "target_uv", uV, "selector", sel, "source", src.String(), "elapsed", ev.Elapsed)
		return fmt.Errorf("%w: %s at selector %d after %v", ErrTimeout, d.Name, sel, ev.Elapsed)
	}
	r.traceVoltage(ev)
	return nil
}

// awaitStable runs the two-tier poll ladder. Called with r.mu held.
func (r *Rail) awaitStable(word uint32) (log.Tier, int, error) {
	t := r.engine.timing
	b := r.engine.bank
	d := &r.desc

	polls := 0
	for i := 0; i < t.FastPolls; i++ {
		polls++
		if r.stable() {
			return log.TierFast, polls, nil
		}
		delay(t.FastInterval)
	}

	// The first write may not have been latched.
	b.Write(d.Control, word)

	deadline := time.Now().Add(t.SlowTimeout)
	for {
		polls++
		if r.stable() {
			return log.TierSlow, polls, nil
		}
		if !time.Now().Before(deadline) {
			return log.TierSlow, polls, ErrTimeout
		}
		if t.SlowInterval > 0 {
			time.Sleep(t.SlowInterval)
		} else {
			runtime.Gosched()
		}
	}
}

func (r *Rail) stable() bool {
	return r.engine.bank.Read(r.desc.Status)&r.desc.StableMask != 0
}

// Voltage reads the rail's selector back and converts it to microvolts.
// A selector beyond the law is clamped to the highest step.
func (r *Rail) Voltage() (int, error) {
	if !r.desc.HasVoltage() {
		return 0, r.noVoltage()
	}
	d := &r.desc
	sel := reg.Field(r.engine.bank.Read(d.Control), d.SelectMask, d.selectShift())
	if int64(sel) >= int64(d.Selectors) {
		sel = uint32(d.Selectors - 1)
	}
	return d.ListVoltage(sel)
}

// SetMode selects stepping behavior. ModeFast sets the stepping-disable bit
// and ModeNormal clears it. Rails without a stepping bit keep the mode in
// software, where it only affects current requests.
func (r *Rail) SetMode(m Mode) error {
	if m != ModeNormal && m != ModeFast {
		r.traceMode(m, log.OutcomeRejected)
		return fmt.Errorf("%w: %s mode %d", ErrInvalidArgument, r.desc.Name, m)
	}

	d := &r.desc
	if d.StepMask == 0 {
		r.softMode.Store(uint32(m))
		r.traceMode(m, log.OutcomeOK)
		return nil
	}

	// The rail control registers have no SET/CLR aliases.
	var val uint32
	if m == ModeFast {
		val = d.StepMask
	}
	r.mu.Lock()
	reg.Update(r.engine.bank, d.Control, d.StepMask, val)
	r.mu.Unlock()

	r.traceMode(m, log.OutcomeOK)
	return nil
}

// Mode reads the stepping mode back.
func (r *Rail) Mode() Mode {
	d := &r.desc
	if d.StepMask == 0 {
		return Mode(r.softMode.Load())
	}
	if r.engine.bank.Read(d.Control)&d.StepMask != 0 {
		return ModeFast
	}
	return ModeNormal
}

func (r *Rail) noVoltage() error {
	return fmt.Errorf("%w: %s has no voltage control", ErrNotSupported, r.desc.Name)
}
