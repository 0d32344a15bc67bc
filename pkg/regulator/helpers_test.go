package regulator

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mxs-pmu/pmu-go/pkg/log"
	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// testTiming keeps timeouts short.
var testTiming = Timing{
	FastPolls:    3,
	FastInterval: 0,
	SlowTimeout:  5 * time.Millisecond,
	SlowInterval: 100 * time.Microsecond,
	SettleDelay:  0,
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// boardRails is the MX28 table with voltage rails drawing from a 500 mA supply.
func boardRails(t *testing.T) []Descriptor {
	t.Helper()
	m, err := LookupModel("imx28")
	require.NoError(t, err)

	for i := range m.Rails {
		switch m.Rails[i].Name {
		case NameOverallCurrent:
			m.Rails[i].MaxMicroAmps = 500000
		case NameVDDA, NameVDDD:
			m.Rails[i].MaxMicroAmps = 500000
		}
	}
	return m.Rails
}

// newTestEngine builds an engine over a zeroed MemBank with DC-DC mode
// selected on every rail and the given trace.
func newTestEngine(t *testing.T, descs []Descriptor, trace log.Logger) (*Engine, *reg.MemBank) {
	t.Helper()
	bank := reg.NewMemBank(reg.DefaultWindow)
	dcdc := uint32(power.LinregOffsetDCDCMode)
	bank.Poke(power.RegVDDIOCtrl, dcdc<<power.VDDIOLinregShift)
	bank.Poke(power.RegVDDACtrl, dcdc<<power.VDDALinregShift)
	bank.Poke(power.RegVDDDCtrl, dcdc<<power.VDDDLinregShift)

	e, err := New(bank, descs, WithLogger(quiet), WithTrace(trace), WithTiming(testTiming))
	require.NoError(t, err)
	return e, bank
}

func mustRail(t *testing.T, e *Engine, name string) *Rail {
	t.Helper()
	r, err := e.RailByName(name)
	require.NoError(t, err)
	return r
}
