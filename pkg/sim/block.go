package sim

import (
	"sync"
	"time"

	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// rail is a control register the simulator watches.
type rail struct {
	off      uint32
	sel      uint32
	stepping uint32 // DISABLE_STEPPING bit
}

var rails = []rail{
	{power.RegVDDIOCtrl, power.VDDIOTrgMask, power.VDDIODisableStepping},
	{power.RegVDDACtrl, power.VDDATrgMask, power.VDDADisableStepping},
	{power.RegVDDDCtrl, power.VDDDTrgMask, power.VDDDDisableStepping},
}

// Options configure a PowerBlock.
type Options struct {
	// Latency is the time from a target change to DC_OK with stepping enabled.
	Latency time.Duration

	// FastLatency applies while stepping is disabled.
	FastLatency time.Duration

	// Stuck keeps DC_OK low after the first target change.
	Stuck bool

	// DropWrites is the number of target changes ignored before the
	// converter starts latching writes.
	DropWrites int
}

// DefaultOptions settle quickly enough for interactive use.
func DefaultOptions() Options {
	return Options{
		Latency:     200 * time.Microsecond,
		FastLatency: 0,
	}
}

// PowerBlock is a simulated power block.
type PowerBlock struct {
	*reg.MemBank

	mu      sync.Mutex
	opts    Options
	gen     uint64
	pending *time.Timer
	changes int
}

var _ reg.Bank = (*PowerBlock)(nil)

// New creates a simulated block in its reset state: every rail converter fed,
// DC_OK raised, no 5V present.
func New(opts Options) *PowerBlock {
	p := &PowerBlock{
		MemBank: reg.NewMemBank(reg.DefaultWindow),
		opts:    opts,
	}
	p.Reset()
	p.OnWrite(p.observe)
	return p
}

// Reset puts the registers back to the reset state without touching options.
func (p *PowerBlock) Reset() {
	p.mu.Lock()
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
	p.changes = 0
	p.mu.Unlock()

	for off := uint32(0); off < reg.DefaultWindow; off += 4 {
		p.Poke(off, 0)
	}
	dcdc := uint32(power.LinregOffsetDCDCMode)
	p.Poke(power.RegVDDIOCtrl, dcdc<<power.VDDIOLinregShift|0x0c)
	p.Poke(power.RegVDDACtrl, dcdc<<power.VDDALinregShift|power.VDDAEnableLinreg|0x0a)
	p.Poke(power.RegVDDDCtrl, dcdc<<power.VDDDLinregShift|power.VDDDEnableLinreg|0x10)
	p.Poke(power.Reg5VCtrl, power.FiveVEnableDCDC)
	p.Poke(power.RegMisc, power.MiscSelPLLClk|2<<power.MiscFreqShift)
	p.Poke(power.RegStatus, power.StatusDCOK)
}

// SetOptions replaces the options. Pending settle timers keep their latency.
func (p *PowerBlock) SetOptions(opts Options) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts = opts
}

// TargetChanges returns how many latched writes changed a rail target.
func (p *PowerBlock) TargetChanges() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changes
}

// Stable reports whether DC_OK is raised.
func (p *PowerBlock) Stable() bool {
	return p.Read(power.RegStatus)&power.StatusDCOK != 0
}

// Close stops pending settle timers.
func (p *PowerBlock) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

func (p *PowerBlock) observe(off, old, next uint32) {
	var r *rail
	for i := range rails {
		if rails[i].off == off {
			r = &rails[i]
			break
		}
	}
	if r == nil || old&r.sel == next&r.sel {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.PokeBits(power.RegStatus, power.StatusDCOK, false)
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}

	if p.opts.DropWrites > 0 {
		p.opts.DropWrites--
		p.Poke(off, old)
		return
	}
	p.changes++
	if p.opts.Stuck {
		return
	}

	latency := p.opts.Latency
	if next&r.stepping != 0 {
		latency = p.opts.FastLatency
	}
	if latency <= 0 {
		p.PokeBits(power.RegStatus, power.StatusDCOK, true)
		return
	}

	gen := p.gen
	p.pending = time.AfterFunc(latency, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen == gen {
			p.PokeBits(power.RegStatus, power.StatusDCOK, true)
			p.pending = nil
		}
	})
}
