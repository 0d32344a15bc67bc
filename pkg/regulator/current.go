package regulator

import (
	"errors"
	"fmt"

	"github.com/mxs-pmu/pmu-go/pkg/budget"
	"github.com/mxs-pmu/pmu-go/pkg/log"
)

// SetCurrentLimit reserves uA for the rail against its parent.
//
// In ModeNormal the call blocks until the parent can accept the increase.
// It is woken when a sibling releases budget or the parent's ceiling is
// raised, and it has no timeout. A later request on the same rail, such as
// a release to zero, ends the wait with ErrSuperseded. In ModeFast it fails
// with ErrOutOfBudget instead of waiting.
func (r *Rail) SetCurrentLimit(uA int64) error {
	return r.setCurrent(uA, r.Mode() == ModeNormal)
}

// TrySetCurrentLimit is SetCurrentLimit without waiting, in any mode.
func (r *Rail) TrySetCurrentLimit(uA int64) error {
	return r.setCurrent(uA, false)
}

func (r *Rail) setCurrent(uA int64, wait bool) error {
	if r.node == nil {
		return r.noBudget()
	}

	res, err := r.node.Set(uA, wait)

	ev := &log.BudgetEvent{
		RequestedMicroAmps: uA,
		PreviousMicroAmps:  res.Previous,
		Waits:              res.Waits,
		Blocked:            res.Blocked,
	}
	if p := r.node.Parent(); p != nil {
		ev.Parent = p.Name()
	}

	switch {
	case err == nil:
		ev.Outcome = log.OutcomeOK
	case errors.Is(err, budget.ErrOutOfBudget):
		ev.Outcome = log.OutcomeOutOfBudget
		err = fmt.Errorf("%w: %w", ErrOutOfBudget, err)
	case errors.Is(err, budget.ErrSuperseded):
		ev.Outcome = log.OutcomeSuperseded
		err = fmt.Errorf("%w: %w", ErrSuperseded, err)
	default:
		ev.Outcome = log.OutcomeRejected
		err = fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	r.emit(log.Event{Category: log.CategoryBudget, Budget: ev})

	if res.Waits > 0 {
		r.engine.logger.Debug("current request waited for budget",
			"rail", r.desc.Name, "requested_ua", uA, "waits", res.Waits, "blocked", res.Blocked)
	}
	return err
}

// CurrentLimit returns the rail's present reservation.
func (r *Rail) CurrentLimit() (int64, error) {
	if r.node == nil {
		return 0, r.noBudget()
	}
	return r.node.Current(), nil
}

// MaxCurrent returns the rail's effective ceiling.
func (r *Rail) MaxCurrent() (int64, error) {
	if r.node == nil {
		return 0, r.noBudget()
	}
	return r.node.Max(), nil
}

// HasBudget reports whether the rail takes part in current arbitration.
func (r *Rail) HasBudget() bool { return r.node != nil }

func (r *Rail) noBudget() error {
	return fmt.Errorf("%w: %s takes no part in current arbitration", ErrNotSupported, r.desc.Name)
}
