package regulator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mxs-pmu/pmu-go/pkg/power"
)

// Rail names used by the built-in tables.
const (
	NameVDDIO          = "vddio"
	NameVDDA           = "vdda"
	NameVDDD           = "vddd"
	NameOverallCurrent = "overall_current"
)

// UnlimitedMicroAmps is the aggregate ceiling before any supply event arrives.
const UnlimitedMicroAmps = 0x7fffffff

// Model is a named rail table for one SoC.
type Model struct {
	Name  string
	Rails []Descriptor
}

// mxsRails is shared by i.MX23 and i.MX28: both use the same power block layout.
func mxsRails() []Descriptor {
	return []Descriptor{
		{
			ID:                DigitalIO,
			Name:              NameVDDIO,
			Class:             ClassIO,
			Parent:            NameOverallCurrent,
			MinMicroVolts:     2800000,
			MaxMicroVolts:     3600000,
			StepMicroVolts:    50000,
			Selectors:         0x10,
			Control:           power.RegVDDIOCtrl,
			Status:            power.RegStatus,
			FiveVolt:          power.Reg5VCtrl,
			SelectMask:        power.VDDIOTrgMask,
			StepMask:          power.VDDIODisableStepping,
			DisableFETMask:    power.VDDIODisableFET,
			LinregOffsetMask:  power.VDDIOLinregOffset,
			LinregOffsetShift: power.VDDIOLinregShift,
			StableMask:        power.StatusDCOK,
		},
		{
			ID:                Analog,
			Name:              NameVDDA,
			Class:             ClassAnalogLogic,
			Parent:            NameOverallCurrent,
			MinMicroVolts:     1500000,
			MaxMicroVolts:     2275000,
			StepMicroVolts:    25000,
			Selectors:         0x1f,
			Control:           power.RegVDDACtrl,
			Status:            power.RegStatus,
			FiveVolt:          power.Reg5VCtrl,
			SelectMask:        power.VDDATrgMask,
			EnableMask:        power.VDDADisableFET | power.VDDAEnableLinreg,
			StepMask:          power.VDDADisableStepping,
			DisableFETMask:    power.VDDADisableFET,
			EnableLinregMask:  power.VDDAEnableLinreg,
			LinregOffsetMask:  power.VDDALinregOffset,
			LinregOffsetShift: power.VDDALinregShift,
			StableMask:        power.StatusDCOK,
		},
		{
			ID:                Logic,
			Name:              NameVDDD,
			Class:             ClassAnalogLogic,
			Parent:            NameOverallCurrent,
			MinMicroVolts:     800000,
			MaxMicroVolts:     1575000,
			StepMicroVolts:    25000,
			Selectors:         0x1f,
			Control:           power.RegVDDDCtrl,
			Status:            power.RegStatus,
			FiveVolt:          power.Reg5VCtrl,
			SelectMask:        power.VDDDTrgMask,
			EnableMask:        power.VDDDDisableFET | power.VDDDEnableLinreg,
			StepMask:          power.VDDDDisableStepping,
			DisableFETMask:    power.VDDDDisableFET,
			EnableLinregMask:  power.VDDDEnableLinreg,
			LinregOffsetMask:  power.VDDDLinregOffset,
			LinregOffsetShift: power.VDDDLinregShift,
			StableMask:        power.StatusDCOK,
		},
		{
			ID:           AggregateCurrent,
			Name:         NameOverallCurrent,
			Class:        ClassCurrent,
			MaxMicroAmps: UnlimitedMicroAmps,
		},
	}
}

var models = map[string]func() []Descriptor{
	"imx23": mxsRails,
	"imx28": mxsRails,
}

// LookupModel returns a fresh copy of the rail table for name.
func LookupModel(name string) (Model, error) {
	key := strings.ToLower(name)
	table, ok := models[key]
	if !ok {
		return Model{}, fmt.Errorf("%w: unknown model %q (known: %s)", ErrInvalidArgument, name,
			strings.Join(ModelNames(), ", "))
	}
	return Model{Name: key, Rails: table()}, nil
}

// ModelNames lists the built-in models.
func ModelNames() []string {
	names := make([]string, 0, len(models))
	for n := range models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
