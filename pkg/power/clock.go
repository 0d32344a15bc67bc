package power

import (
	"errors"
	"fmt"

	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// Supported DC-DC converter clock frequencies in kHz.
const (
	ClockXtalKHz  = 24000
	Clock19200KHz = 19200
	Clock20000KHz = 20000
	Clock24000KHz = 24000
)

// ErrInvalidFrequency is returned for frequencies the converter does not support.
var ErrInvalidFrequency = errors.New("invalid DC-DC clock frequency")

// DCDCClock returns the converter clock in kHz.
func DCDCClock(b reg.Bank) (int, error) {
	val := b.Read(RegMisc)

	if val&MiscSelPLLClk == 0 {
		return ClockXtalKHz, nil
	}

	switch reg.Field(val, MiscFreqSel, MiscFreqShift) {
	case freqSel20000:
		return Clock20000KHz, nil
	case freqSel24000:
		return Clock24000KHz, nil
	case freqSel19200:
		return Clock19200KHz, nil
	default:
		return 0, fmt.Errorf("%w: FREQSEL=%d", ErrInvalidFrequency, reg.Field(val, MiscFreqSel, MiscFreqShift))
	}
}

// SetDCDCClock switches the converter to the PLL-derived clock at kHz.
// FREQSEL is programmed with the PLL deselected, then the PLL is selected in
// a second write.
func SetDCDCClock(b reg.Bank, kHz int) error {
	var sel uint32
	switch kHz {
	case Clock19200KHz:
		sel = freqSel19200
	case Clock20000KHz:
		sel = freqSel20000
	case Clock24000KHz:
		sel = freqSel24000
	default:
		return fmt.Errorf("%w: %d kHz (use 19200, 20000 or 24000)", ErrInvalidFrequency, kHz)
	}

	val := b.Read(RegMisc)
	val &^= MiscFreqSel | MiscSelPLLClk
	val |= sel << MiscFreqShift

	b.Write(RegMisc, val)
	b.Write(RegMisc, val|MiscSelPLLClk)
	return nil
}
