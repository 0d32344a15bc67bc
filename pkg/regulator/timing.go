package regulator

import (
	"fmt"
	"time"
)

// Timing bounds the voltage transition poll ladder.
type Timing struct {
	// FastPolls DC_OK checks spaced FastInterval apart cover a converter in
	// fast mode.
	FastPolls    int
	FastInterval time.Duration

	// SlowTimeout bounds the second tier, which starts after the write is
	// re-issued. SlowInterval is the sleep between checks.
	SlowTimeout  time.Duration
	SlowInterval time.Duration

	// SettleDelay is waited instead of polling when the converter does not
	// feed the rail.
	SettleDelay time.Duration
}

// DefaultTiming returns the production ladder.
func DefaultTiming() Timing {
	return Timing{
		FastPolls:    20,
		FastInterval: time.Microsecond,
		SlowTimeout:  20 * time.Millisecond,
		SlowInterval: 50 * time.Microsecond,
		SettleDelay:  time.Millisecond,
	}
}

// Validate checks the ladder is usable.
func (t Timing) Validate() error {
	if t.FastPolls < 0 {
		return fmt.Errorf("%w: fast polls %d", ErrInvalidArgument, t.FastPolls)
	}
	if t.FastInterval < 0 || t.SlowInterval < 0 || t.SettleDelay < 0 {
		return fmt.Errorf("%w: negative poll interval", ErrInvalidArgument)
	}
	if t.SlowTimeout <= 0 {
		return fmt.Errorf("%w: slow timeout %v", ErrInvalidArgument, t.SlowTimeout)
	}
	return nil
}

// spinThreshold is the longest delay busy-waited instead of slept; the
// scheduler cannot sleep for a microsecond.
const spinThreshold = 20 * time.Microsecond

func delay(d time.Duration) {
	if d <= 0 {
		return
	}
	if d > spinThreshold {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
