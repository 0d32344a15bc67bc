package notify

import "fmt"

// USB input limits in microamps.
const (
	// DefaultHostMicroAmps is what an unconfigured USB host port may supply.
	DefaultHostMicroAmps = 500000

	// OriginVBUS tags events raised by a VBUS change.
	OriginVBUS = "vbus"
)

// USBPolicy maps the VBUS state to the ceiling of the aggregate rail.
// While a USB host supplies 5V the rail is held to HostMicroAmps; without
// it the rail may draw ExternalMicroAmps from the battery or wall supply.
type USBPolicy struct {
	Rail              string
	HostMicroAmps     int64
	ExternalMicroAmps int64
}

// NewUSBPolicy returns a policy for rail with the default host limit.
func NewUSBPolicy(rail string, externalMicroAmps int64) USBPolicy {
	return USBPolicy{
		Rail:              rail,
		HostMicroAmps:     DefaultHostMicroAmps,
		ExternalMicroAmps: externalMicroAmps,
	}
}

// Validate checks the limits.
func (p USBPolicy) Validate() error {
	if p.Rail == "" {
		return fmt.Errorf("%w: usb policy has no rail", ErrInvalidEvent)
	}
	if p.HostMicroAmps < 0 || p.ExternalMicroAmps < 0 {
		return fmt.Errorf("%w: negative usb limit", ErrInvalidEvent)
	}
	return nil
}

// Event returns the budget event for a VBUS state.
func (p USBPolicy) Event(attached bool) Event {
	if attached {
		return Event{Kind: BudgetLowered, Rail: p.Rail, MaxMicroAmps: p.HostMicroAmps, Origin: OriginVBUS}
	}
	return Event{Kind: BudgetRaised, Rail: p.Rail, MaxMicroAmps: p.ExternalMicroAmps, Origin: OriginVBUS}
}
