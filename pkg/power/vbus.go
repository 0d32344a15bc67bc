package power

import "github.com/mxs-pmu/pmu-go/pkg/reg"

// VBUSValid reports whether a valid 5V supply is present.
func VBUSValid(b reg.Bank) bool {
	return b.Read(RegStatus)&StatusVBUSValid != 0
}

// Online reports the "dc" supply state: online while 5V is present.
func Online(b reg.Bank) bool {
	return VBUSValid(b)
}

// ArmVBUSInterrupt enables the VBUS-valid interrupt with its polarity set to
// catch the next edge away from the current state.
func ArmVBUSInterrupt(b reg.Bank) {
	reg.Clear(b, RegCtrl, CtrlVBUSValidIRQ)
	if VBUSValid(b) {
		// Already valid: wait for VBUS to drop.
		reg.Clear(b, RegCtrl, CtrlPolarityVBUSValid)
	} else {
		reg.Set(b, RegCtrl, CtrlPolarityVBUSValid)
	}
	reg.Set(b, RegCtrl, CtrlEnableIRQVBUSValid)
}

// AckVBUSInterrupt checks for a pending VBUS-valid interrupt. When one is
// pending it is cleared and the polarity flipped so the opposite edge is
// caught next. valid is the 5V state at the time of the call.
func AckVBUSInterrupt(b reg.Bank) (pending, valid bool) {
	valid = VBUSValid(b)
	if b.Read(RegCtrl)&CtrlVBUSValidIRQ == 0 {
		return false, valid
	}

	reg.Clear(b, RegCtrl, CtrlVBUSValidIRQ)
	reg.Toggle(b, RegCtrl, CtrlPolarityVBUSValid)
	return true, valid
}

// ConfigureVBUSDetect selects VBUSVALID as the 5V detection source with a
// 4.40V threshold and keeps 5V brownout from powering the chip down.
func ConfigureVBUSDetect(b reg.Bank) {
	reg.Update(b, Reg5VCtrl,
		FiveVVBUSValidThresh|FiveVVBUSValid5VDetect|FiveVPwdn5VBrownout,
		FiveVVBUSValidThresh4V40|FiveVVBUSValid5VDetect)
}
