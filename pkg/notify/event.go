package notify

import (
	"errors"
	"fmt"
)

// Kind is the type of budget event.
type Kind uint8

const (
	// BudgetRaised raises the rail ceiling to MaxMicroAmps.
	BudgetRaised Kind = iota + 1

	// BudgetLowered lowers the rail ceiling to MaxMicroAmps.
	BudgetLowered
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case BudgetRaised:
		return "BUDGET_RAISED"
	case BudgetLowered:
		return "BUDGET_LOWERED"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidEvent is returned for events that cannot be applied.
var ErrInvalidEvent = errors.New("invalid notification event")

// Event is an external change to a rail's current ceiling.
type Event struct {
	Kind Kind

	// Rail names the rail whose ceiling changes.
	Rail string

	// MaxMicroAmps is the new ceiling.
	MaxMicroAmps int64

	// Origin is a free-form tag for tracing ("vbus", "shell", ...).
	Origin string
}

// Validate checks the event shape. Whether the event actually raises or
// lowers the ceiling is up to the Sink.
func (e Event) Validate() error {
	switch e.Kind {
	case BudgetRaised, BudgetLowered:
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidEvent, e.Kind)
	}
	if e.Rail == "" {
		return fmt.Errorf("%w: no rail", ErrInvalidEvent)
	}
	if e.MaxMicroAmps < 0 {
		return fmt.Errorf("%w: negative ceiling %d uA", ErrInvalidEvent, e.MaxMicroAmps)
	}
	return nil
}

// String returns a compact description.
func (e Event) String() string {
	return fmt.Sprintf("%s %s %d uA", e.Kind, e.Rail, e.MaxMicroAmps)
}

// Sink applies events.
type Sink interface {
	Notify(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

// Notify calls f.
func (f SinkFunc) Notify(e Event) error { return f(e) }
