package regulator

import "errors"

// Engine errors.
var (
	// ErrInvalidArgument: out-of-range voltage, selector, mode or current.
	// Nothing was written to hardware.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTimeout: DC_OK was not observed within the poll ladder. The new
	// selector has been written.
	ErrTimeout = errors.New("voltage transition not confirmed")

	// ErrOutOfBudget: the parent cannot supply the requested current and the
	// caller asked not to wait.
	ErrOutOfBudget = errors.New("current budget exhausted")

	// ErrSuperseded: a waiting current request was replaced by a newer
	// request on the same rail before budget became available.
	ErrSuperseded = errors.New("current request superseded")

	// ErrNotSupported: the rail has no voltage control, or takes no part in
	// current arbitration.
	ErrNotSupported = errors.New("operation not supported by rail")

	// ErrUnknownRail: no rail with that id or name.
	ErrUnknownRail = errors.New("unknown rail")

	// ErrInvalidDescriptor: the rail table is inconsistent.
	ErrInvalidDescriptor = errors.New("invalid rail descriptor")
)
