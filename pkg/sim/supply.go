package sim

import (
	"github.com/mxs-pmu/pmu-go/pkg/power"
)

// Attach plugs in a valid 5V supply.
func (p *PowerBlock) Attach() {
	p.setVBUS(true)
}

// Detach removes the 5V supply.
func (p *PowerBlock) Detach() {
	p.setVBUS(false)
}

func (p *PowerBlock) setVBUS(valid bool) {
	was := power.VBUSValid(p)
	p.PokeBits(power.RegStatus, power.StatusVBUSValid|power.StatusVDD5VGtVDDIO, valid)
	if was == valid {
		return
	}

	// Polarity set catches the rising edge, clear the falling one.
	ctrl := p.Read(power.RegCtrl)
	if ctrl&power.CtrlEnableIRQVBUSValid == 0 {
		return
	}
	if (ctrl&power.CtrlPolarityVBUSValid != 0) == valid {
		p.PokeBits(power.RegCtrl, power.CtrlVBUSValidIRQ, true)
	}
}
