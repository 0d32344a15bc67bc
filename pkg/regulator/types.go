package regulator

import (
	"fmt"
	"strings"
)

// ID identifies a rail.
type ID uint8

// Built-in rail ids. Board-defined current consumers use ids from FirstBoardID.
const (
	DigitalIO        ID = 1
	Analog           ID = 2
	Logic            ID = 3
	AggregateCurrent ID = 4

	FirstBoardID ID = 16
)

// String returns the rail id name.
func (id ID) String() string {
	switch id {
	case DigitalIO:
		return "DIGITAL_IO"
	case Analog:
		return "ANALOG"
	case Logic:
		return "LOGIC"
	case AggregateCurrent:
		return "AGGREGATE_CURRENT"
	default:
		return fmt.Sprintf("BOARD_%d", uint8(id))
	}
}

// Class selects the decoder variant and which operations a rail supports.
type Class uint8

const (
	// ClassIO is the digital I/O rail (no linear regulator enable bit).
	ClassIO Class = iota + 1

	// ClassAnalogLogic covers the analog and digital logic rails.
	ClassAnalogLogic

	// ClassCurrent rails have no voltage control and only take part in
	// current arbitration.
	ClassCurrent
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassIO:
		return "io"
	case ClassAnalogLogic:
		return "analog-logic"
	case ClassCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// Mode selects the hardware stepping behavior.
type Mode uint8

const (
	// ModeNormal steps the output gradually between targets. Current
	// requests in this mode wait for budget.
	ModeNormal Mode = iota + 1

	// ModeFast disables stepping. Current requests in this mode fail with
	// ErrOutOfBudget instead of waiting.
	ModeFast
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeFast:
		return "FAST"
	default:
		return "UNKNOWN"
	}
}

// ParseMode parses "normal" or "fast" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "normal":
		return ModeNormal, nil
	case "fast":
		return ModeFast, nil
	default:
		return 0, fmt.Errorf("%w: mode %q", ErrInvalidArgument, s)
	}
}
