package log

import "time"

// Event is one trace record. Exactly one payload pointer is set.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the engine instance that produced the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Category classifies the payload.
	Category Category `cbor:"3,keyasint"`

	// Rail is the rail name.
	Rail string `cbor:"4,keyasint,omitempty"`

	// RailID is the numeric rail identifier.
	RailID uint8 `cbor:"5,keyasint,omitempty"`

	Voltage *VoltageEvent   `cbor:"10,keyasint,omitempty"`
	Mode    *ModeEvent      `cbor:"11,keyasint,omitempty"`
	Budget  *BudgetEvent    `cbor:"12,keyasint,omitempty"`
	Notify  *NotifyEvent    `cbor:"13,keyasint,omitempty"`
	Error   *ErrorEventData `cbor:"14,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryVoltage is a voltage transition.
	CategoryVoltage Category = 0
	// CategoryMode is a stepping mode change.
	CategoryMode Category = 1
	// CategoryBudget is a current budget reservation.
	CategoryBudget Category = 2
	// CategoryNotify is an external budget notification.
	CategoryNotify Category = 3
	// CategoryError is an error outside the request paths above.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryVoltage:
		return "VOLTAGE"
	case CategoryMode:
		return "MODE"
	case CategoryBudget:
		return "BUDGET"
	case CategoryNotify:
		return "NOTIFY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the result of a traced request.
type Outcome uint8

const (
	OutcomeOK          Outcome = 0
	OutcomeRejected    Outcome = 1
	OutcomeTimeout     Outcome = 2
	OutcomeOutOfBudget Outcome = 3
	OutcomeSuperseded  Outcome = 4
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeRejected:
		return "REJECTED"
	case OutcomeTimeout:
		return "TIMEOUT"
	case OutcomeOutOfBudget:
		return "OUT_OF_BUDGET"
	case OutcomeSuperseded:
		return "SUPERSEDED"
	default:
		return "UNKNOWN"
	}
}

// Tier is the stage a voltage transition completed in.
type Tier uint8

const (
	// TierNone: rejected before any hardware write.
	TierNone Tier = 0
	// TierSettle: converter not involved, fixed settle delay only.
	TierSettle Tier = 1
	// TierFast: DC_OK observed in the short burst.
	TierFast Tier = 2
	// TierSlow: DC_OK observed after the write was re-issued.
	TierSlow Tier = 3
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierNone:
		return "NONE"
	case TierSettle:
		return "SETTLE"
	case TierFast:
		return "FAST"
	case TierSlow:
		return "SLOW"
	default:
		return "UNKNOWN"
	}
}

// VoltageEvent captures one SetVoltage call.
type VoltageEvent struct {
	TargetMicroVolts int     `cbor:"1,keyasint"`
	Selector         uint32  `cbor:"2,keyasint"`
	Source           string  `cbor:"3,keyasint,omitempty"`
	Tier             Tier    `cbor:"4,keyasint"`
	Polls            int     `cbor:"5,keyasint,omitempty"`
	Outcome          Outcome `cbor:"6,keyasint"`

	// Elapsed is stored as nanoseconds.
	Elapsed time.Duration `cbor:"7,keyasint"`
}

// ModeEvent captures a stepping mode change.
type ModeEvent struct {
	Mode    string  `cbor:"1,keyasint"`
	Outcome Outcome `cbor:"2,keyasint"`
}

// BudgetEvent captures one current limit request.
type BudgetEvent struct {
	RequestedMicroAmps int64   `cbor:"1,keyasint"`
	PreviousMicroAmps  int64   `cbor:"2,keyasint"`
	Parent             string  `cbor:"3,keyasint,omitempty"`
	Waits              int     `cbor:"4,keyasint,omitempty"`
	Outcome            Outcome `cbor:"5,keyasint"`

	// Blocked is how long the caller waited for budget (nanoseconds).
	Blocked time.Duration `cbor:"6,keyasint,omitempty"`
}

// NotifyEvent captures a budget ceiling change from an external event.
type NotifyEvent struct {
	Kind           string `cbor:"1,keyasint"`
	OldMaxMicroAmp int64  `cbor:"2,keyasint"`
	NewMaxMicroAmp int64  `cbor:"3,keyasint"`

	// Origin names what raised the event (for example "vbus").
	Origin string `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors not tied to a request payload.
type ErrorEventData struct {
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
