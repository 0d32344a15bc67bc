package regulator

import (
	"fmt"
	"math/bits"
)

// Descriptor is the static description of one rail.
type Descriptor struct {
	ID     ID
	Name   string
	Class  Class
	Parent string // budget parent by name, empty for none

	// Voltage law: uV = MinMicroVolts + selector*StepMicroVolts for
	// selector in [0, Selectors). MaxMicroVolts = Min + Selectors*Step.
	MinMicroVolts  int
	MaxMicroVolts  int
	StepMicroVolts int
	Selectors      int

	// Board constraints narrowing the law range. Zero means unconstrained.
	MinAllowedMicroVolts int
	MaxAllowedMicroVolts int

	// Register offsets. Status is shared by every rail.
	Control  uint32
	Status   uint32
	FiveVolt uint32

	SelectMask        uint32
	EnableMask        uint32
	StepMask          uint32 // DISABLE_STEPPING: set in ModeFast
	DisableFETMask    uint32
	EnableLinregMask  uint32
	LinregOffsetMask  uint32
	LinregOffsetShift uint

	// StableMask is the status bit reporting converter convergence.
	StableMask uint32

	// MaxMicroAmps is the current ceiling. Zero keeps the rail out of
	// current arbitration.
	MaxMicroAmps int64
}

// HasVoltage reports whether the rail has voltage control.
func (d *Descriptor) HasVoltage() bool {
	return d.Class != ClassCurrent
}

// HasBudget reports whether the rail takes part in current arbitration.
func (d *Descriptor) HasBudget() bool {
	return d.MaxMicroAmps > 0
}

// Validate checks one descriptor on its own.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: rail %d has no name", ErrInvalidDescriptor, d.ID)
	}
	if d.ID == 0 {
		return fmt.Errorf("%w: %s has no id", ErrInvalidDescriptor, d.Name)
	}
	if d.MaxMicroAmps < 0 {
		return fmt.Errorf("%w: %s negative current ceiling", ErrInvalidDescriptor, d.Name)
	}

	switch d.Class {
	case ClassCurrent:
		if !d.HasBudget() {
			return fmt.Errorf("%w: current rail %s needs a ceiling", ErrInvalidDescriptor, d.Name)
		}
		return nil
	case ClassIO, ClassAnalogLogic:
	default:
		return fmt.Errorf("%w: %s has unknown class %d", ErrInvalidDescriptor, d.Name, d.Class)
	}

	if d.Selectors <= 0 || d.StepMicroVolts <= 0 || d.MaxMicroVolts <= d.MinMicroVolts {
		return fmt.Errorf("%w: %s voltage law [%d, %d] step %d x%d", ErrInvalidDescriptor,
			d.Name, d.MinMicroVolts, d.MaxMicroVolts, d.StepMicroVolts, d.Selectors)
	}
	if d.MaxMicroVolts-d.MinMicroVolts != d.StepMicroVolts*d.Selectors {
		return fmt.Errorf("%w: %s range %d uV is not %d steps of %d uV", ErrInvalidDescriptor,
			d.Name, d.MaxMicroVolts-d.MinMicroVolts, d.Selectors, d.StepMicroVolts)
	}
	if d.SelectMask == 0 {
		return fmt.Errorf("%w: %s has no select mask", ErrInvalidDescriptor, d.Name)
	}
	if uint64(d.Selectors-1) > uint64(d.SelectMask>>d.selectShift()) {
		return fmt.Errorf("%w: %s select mask 0x%x too narrow for %d selectors", ErrInvalidDescriptor,
			d.Name, d.SelectMask, d.Selectors)
	}
	if d.StableMask == 0 {
		return fmt.Errorf("%w: %s has no status stable bit", ErrInvalidDescriptor, d.Name)
	}

	lo, hi := d.allowedRange()
	if lo > hi || lo < d.MinMicroVolts || hi > d.MaxMicroVolts {
		return fmt.Errorf("%w: %s allowed range [%d, %d] outside law", ErrInvalidDescriptor, d.Name, lo, hi)
	}
	return nil
}

func (d *Descriptor) selectShift() uint {
	return uint(bits.TrailingZeros32(d.SelectMask))
}

func (d *Descriptor) allowedRange() (lo, hi int) {
	lo, hi = d.MinMicroVolts, d.MaxMicroVolts
	if d.MinAllowedMicroVolts != 0 {
		lo = d.MinAllowedMicroVolts
	}
	if d.MaxAllowedMicroVolts != 0 {
		hi = d.MaxAllowedMicroVolts
	}
	return lo, hi
}

// Selector converts a target voltage to a selector with rounding.
func (d *Descriptor) Selector(uV int) (uint32, error) {
	lo, hi := d.allowedRange()
	if uV < lo || uV > hi {
		return 0, fmt.Errorf("%w: %s target %d uV outside [%d, %d]", ErrInvalidArgument, d.Name, uV, lo, hi)
	}

	span := int64(d.MaxMicroVolts - d.MinMicroVolts)
	num := int64(uV-d.MinMicroVolts) * int64(d.Selectors)
	sel := (2*num + span) / (2 * span)

	if sel >= int64(d.Selectors) {
		return 0, fmt.Errorf("%w: %s target %d uV maps to selector %d of %d", ErrInvalidArgument,
			d.Name, uV, sel, d.Selectors)
	}
	return uint32(sel), nil
}

// ListVoltage returns the voltage of a selector.
func (d *Descriptor) ListVoltage(sel uint32) (int, error) {
	if int64(sel) >= int64(d.Selectors) {
		return 0, fmt.Errorf("%w: %s selector %d of %d", ErrInvalidArgument, d.Name, sel, d.Selectors)
	}
	return d.MinMicroVolts + int(sel)*d.StepMicroVolts, nil
}

// ValidateTable checks a descriptor set as a whole: unique ids and names,
// parents present and budgeted, no cycles.
func ValidateTable(descs []Descriptor) error {
	byName := make(map[string]*Descriptor, len(descs))
	ids := make(map[ID]string, len(descs))

	for i := range descs {
		d := &descs[i]
		if err := d.Validate(); err != nil {
			return err
		}
		if other, dup := ids[d.ID]; dup {
			return fmt.Errorf("%w: id %d used by %s and %s", ErrInvalidDescriptor, d.ID, other, d.Name)
		}
		if _, dup := byName[d.Name]; dup {
			return fmt.Errorf("%w: duplicate rail %s", ErrInvalidDescriptor, d.Name)
		}
		ids[d.ID] = d.Name
		byName[d.Name] = d
	}

	for i := range descs {
		d := &descs[i]
		if d.Parent == "" {
			continue
		}
		p, ok := byName[d.Parent]
		if !ok {
			return fmt.Errorf("%w: %s parent %s not defined", ErrInvalidDescriptor, d.Name, d.Parent)
		}
		if d.HasBudget() && !p.HasBudget() {
			return fmt.Errorf("%w: %s parent %s has no current ceiling", ErrInvalidDescriptor, d.Name, d.Parent)
		}

		// Walk up; a chain longer than the table is a cycle.
		seen := 0
		for cur := p; cur != nil && cur.Parent != ""; cur = byName[cur.Parent] {
			if cur.Name == d.Name || seen > len(descs) {
				return fmt.Errorf("%w: parent cycle through %s", ErrInvalidDescriptor, d.Name)
			}
			seen++
		}
	}
	return nil
}

// budgetOrder returns budgeted descriptors with every parent before its children.
func budgetOrder(descs []Descriptor) []*Descriptor {
	byName := make(map[string]*Descriptor, len(descs))
	for i := range descs {
		byName[descs[i].Name] = &descs[i]
	}

	var out []*Descriptor
	placed := make(map[string]bool)
	var place func(d *Descriptor)
	place = func(d *Descriptor) {
		if placed[d.Name] || !d.HasBudget() {
			return
		}
		if p, ok := byName[d.Parent]; ok {
			place(p)
		}
		placed[d.Name] = true
		out = append(out, d)
	}
	for i := range descs {
		place(&descs[i])
	}
	return out
}
