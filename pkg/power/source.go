package power

// Source identifies which physical supply currently feeds a rail.
type Source uint8

const (
	// Unknown means the register state matches no known pattern.
	Unknown Source = iota

	// LinregDCDCOff: linear regulator active, converter off.
	LinregDCDCOff

	// LinregDCDCReady: linear regulator active, converter ready to take over.
	LinregDCDCReady

	// DCDCLinregOn: converter active, linear regulator on as backup.
	DCDCLinregOn

	// DCDCLinregOff: converter active, linear regulator off.
	DCDCLinregOff

	// DCDCLinregReady: converter active, linear regulator ready.
	DCDCLinregReady

	// External5V: rail fed from the external 5V supply.
	External5V

	// ExternalBattery: rail fed directly from the battery.
	ExternalBattery
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case LinregDCDCOff:
		return "LINREG_DCDC_OFF"
	case LinregDCDCReady:
		return "LINREG_DCDC_READY"
	case DCDCLinregOn:
		return "DCDC_LINREG_ON"
	case DCDCLinregOff:
		return "DCDC_LINREG_OFF"
	case DCDCLinregReady:
		return "DCDC_LINREG_READY"
	case External5V:
		return "EXTERNAL_5V"
	case ExternalBattery:
		return "EXTERNAL_BATTERY"
	default:
		return "UNKNOWN"
	}
}

// UsesConverter reports whether a voltage change on a rail fed by s has to
// wait for the DC-DC converter to settle. Unknown is treated as converter-fed.
func (s Source) UsesConverter() bool {
	switch s {
	case LinregDCDCOff, LinregDCDCReady, External5V:
		return false
	default:
		return true
	}
}
