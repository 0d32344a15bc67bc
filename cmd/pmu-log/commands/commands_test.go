package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxs-pmu/pmu-go/pkg/log"
)

// writeTrace writes a short session to a temporary trace file.
func writeTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pmu.cbor")
	fl, err := log.NewFileLogger(path)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := "0d5c1c1e-8f7a-4b5e-9a43-1f1f3e0c2a77"
	events := []log.Event{
		{Category: log.CategoryVoltage, Rail: "vddd", RailID: 3, Voltage: &log.VoltageEvent{
			TargetMicroVolts: 1000000, Selector: 8, Source: "DCDC_LINREG_ON",
			Tier: log.TierFast, Polls: 2, Outcome: log.OutcomeOK, Elapsed: 40 * time.Microsecond,
		}},
		{Category: log.CategoryVoltage, Rail: "vddd", RailID: 3, Voltage: &log.VoltageEvent{
			TargetMicroVolts: 1200000, Selector: 16, Tier: log.TierSlow, Polls: 300,
			Outcome: log.OutcomeTimeout, Elapsed: 20 * time.Millisecond,
		}},
		{Category: log.CategoryBudget, Rail: "vdda", RailID: 2, Budget: &log.BudgetEvent{
			RequestedMicroAmps: 200000, Parent: "overall_current", Waits: 1,
			Outcome: log.OutcomeOK, Blocked: 3 * time.Millisecond,
		}},
		{Category: log.CategoryNotify, Rail: "overall_current", RailID: 4, Notify: &log.NotifyEvent{
			Kind: "BUDGET_LOWERED", OldMaxMicroAmp: 1500000, NewMaxMicroAmp: 500000, Origin: "vbus",
		}},
	}
	for i, ev := range events {
		ev.Timestamp = base.Add(time.Duration(i) * time.Second)
		ev.SessionID = session
		fl.Log(ev)
	}
	require.NoError(t, fl.Close())
	return path
}

func TestRunView(t *testing.T) {
	path := writeTrace(t)

	var buf bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{}, &buf))
	out := buf.String()

	assert.Contains(t, out, "[0d5c1c1e] VOLTAGE vddd")
	assert.Contains(t, out, "selector 8")
	assert.Contains(t, out, "Source: DCDC_LINREG_ON")
	assert.Contains(t, out, "TIMEOUT tier=SLOW")
	assert.Contains(t, out, "Parent: overall_current")
	assert.Contains(t, out, "after 1 waits")
	assert.Contains(t, out, "BUDGET_LOWERED")
	assert.Contains(t, out, "from vbus")
}

func TestRunViewFiltered(t *testing.T) {
	path := writeTrace(t)

	cat := log.CategoryBudget
	var buf bytes.Buffer
	require.NoError(t, RunView(path, log.Filter{Category: &cat}, &buf))

	assert.Equal(t, 1, strings.Count(buf.String(), "BUDGET"))
	assert.NotContains(t, buf.String(), "VOLTAGE")

	buf.Reset()
	require.NoError(t, RunView(path, log.Filter{Rail: "vddd"}, &buf))
	assert.Equal(t, 2, strings.Count(buf.String(), "VOLTAGE vddd"))
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView(filepath.Join(t.TempDir(), "none.cbor"), log.Filter{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestParseCategoryFlag(t *testing.T) {
	c, err := ParseCategoryFlag("Notify")
	require.NoError(t, err)
	assert.Equal(t, log.CategoryNotify, c)

	_, err = ParseCategoryFlag("frame")
	assert.Error(t, err)
}

func TestCollectStats(t *testing.T) {
	stats, err := CollectStats(writeTrace(t))
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalEvents)
	assert.Len(t, stats.Sessions, 1)
	assert.Equal(t, 2, stats.EventsByCategory[log.CategoryVoltage])
	assert.Equal(t, 3*time.Second, stats.TimeRange.End.Sub(stats.TimeRange.Start))

	vddd := stats.Rails["vddd"]
	require.NotNil(t, vddd)
	assert.Equal(t, 2, vddd.Transitions)
	assert.Equal(t, 1, vddd.Timeouts)
	assert.Equal(t, 1, vddd.ByTier[log.TierFast])
	assert.Equal(t, 20*time.Millisecond, vddd.SlowestSet)

	vdda := stats.Rails["vdda"]
	require.NotNil(t, vdda)
	assert.Equal(t, 1, vdda.Waits)
	assert.Equal(t, 3*time.Millisecond, vdda.LongestBlock)

	assert.Equal(t, 1, stats.Rails["overall_current"].Notifies)
}

func TestRunStatsOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RunStats(writeTrace(t), &buf))
	out := buf.String()

	assert.Contains(t, out, "Total Events: 4")
	assert.Contains(t, out, "Rail vddd:")
	assert.Contains(t, out, "Transitions: 2 (settle 0, fast 1, slow 1)")
	assert.Contains(t, out, "Notifies:    1")
}

func TestRunExport(t *testing.T) {
	path := writeTrace(t)

	var buf bytes.Buffer
	require.NoError(t, RunExport(path, log.Filter{Rail: "vddd"}, "", &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ev log.Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ev))
	assert.Equal(t, "vddd", ev.Rail)
	require.NotNil(t, ev.Voltage)
	assert.Equal(t, 1000000, ev.Voltage.TargetMicroVolts)

	out := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, RunExport(path, log.Filter{}, out, nil))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "\n"))
}
