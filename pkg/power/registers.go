package power

// Register offsets from the power block base.
const (
	RegCtrl      = 0x00 // HW_POWER_CTRL: interrupt enables and polarities
	Reg5VCtrl    = 0x10 // HW_POWER_5VCTRL: 5V and DC-DC converter control
	RegVDDDCtrl  = 0x40 // HW_POWER_VDDDCTRL: digital logic rail
	RegVDDACtrl  = 0x50 // HW_POWER_VDDACTRL: analog rail
	RegVDDIOCtrl = 0x60 // HW_POWER_VDDIOCTRL: digital I/O rail
	RegMisc      = 0x90 // HW_POWER_MISC: DC-DC clock selection
	RegStatus    = 0xc0 // HW_POWER_STS: read-only, shared by every rail
)

// HW_POWER_CTRL bits.
const (
	CtrlEnableIRQVBUSValid = 1 << 3
	CtrlVBUSValidIRQ       = 1 << 4
	CtrlPolarityVBUSValid  = 1 << 5
)

// HW_POWER_5VCTRL bits.
const (
	FiveVEnableDCDC        = 1 << 0
	FiveVVBUSValid5VDetect = 1 << 4
	FiveVPwdn5VBrownout    = 1 << 7
	FiveVVBUSValidThresh   = 7 << 8

	// FiveVVBUSValidThresh4V40 selects a 4.40V VBUS-valid threshold.
	FiveVVBUSValidThresh4V40 = 5 << 8
)

// HW_POWER_STS bits.
const (
	StatusVBUSValid    = 1 << 1
	StatusVDD5VGtVDDIO = 1 << 5
	StatusDCOK         = 1 << 9
)

// VDDIOCTRL layout.
const (
	VDDIOTrgMask         = 0x1f
	VDDIOLinregOffset    = 3 << 12
	VDDIOLinregShift     = 12
	VDDIODisableFET      = 1 << 16
	VDDIODisableStepping = 1 << 17
)

// VDDACTRL layout.
const (
	VDDATrgMask         = 0x1f
	VDDALinregOffset    = 3 << 12
	VDDALinregShift     = 12
	VDDADisableFET      = 1 << 16
	VDDAEnableLinreg    = 1 << 17
	VDDADisableStepping = 1 << 18
)

// VDDDCTRL layout.
const (
	VDDDTrgMask         = 0x1f
	VDDDLinregOffset    = 3 << 16
	VDDDLinregShift     = 16
	VDDDDisableFET      = 1 << 20
	VDDDEnableLinreg    = 1 << 21
	VDDDDisableStepping = 1 << 22
)

// Values of the LINREG_OFFSET field: the linear regulator target relative to
// the converter target.
const (
	LinregOffsetNoStep    = 0
	LinregOffsetStepAbove = 1
	LinregOffsetStepBelow = 2

	// LinregOffsetLinregMode puts the linear regulator in charge.
	LinregOffsetLinregMode = LinregOffsetNoStep

	// LinregOffsetDCDCMode leaves the converter in charge with the linear
	// regulator one step below as backup.
	LinregOffsetDCDCMode = LinregOffsetStepBelow
)

// HW_POWER_MISC fields.
const (
	MiscSelPLLClk = 1 << 0
	MiscFreqSel   = 7 << MiscFreqShift
	MiscFreqShift = 4
	freqSel20000  = 1
	freqSel24000  = 2
	freqSel19200  = 3
)
