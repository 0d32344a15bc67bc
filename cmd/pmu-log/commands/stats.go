package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mxs-pmu/pmu-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Rails            map[string]*RailStats
	Sessions         map[string]int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RailStats holds statistics for a single rail.
type RailStats struct {
	Transitions  int
	ByTier       map[log.Tier]int
	Timeouts     int
	Rejected     int
	SlowestSet   time.Duration
	BudgetCalls  int
	OutOfBudget  int
	Waits        int
	LongestBlock time.Duration
	Notifies     int
}

// CollectStats reads the trace file into Stats.
func CollectStats(path string) (*Stats, error) {
	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Rails:            make(map[string]*RailStats),
		Sessions:         make(map[string]int),
	}

	err := log.Scan(path, log.Filter{}, func(event log.Event) error {
		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.Sessions[event.SessionID]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Rail == "" {
			return nil
		}
		rs, ok := stats.Rails[event.Rail]
		if !ok {
			rs = &RailStats{ByTier: make(map[log.Tier]int)}
			stats.Rails[event.Rail] = rs
		}

		switch {
		case event.Voltage != nil:
			v := event.Voltage
			rs.Transitions++
			rs.ByTier[v.Tier]++
			switch v.Outcome {
			case log.OutcomeTimeout:
				rs.Timeouts++
			case log.OutcomeRejected:
				rs.Rejected++
			}
			rs.SlowestSet = max(rs.SlowestSet, v.Elapsed)
		case event.Budget != nil:
			b := event.Budget
			rs.BudgetCalls++
			if b.Outcome == log.OutcomeOutOfBudget {
				rs.OutOfBudget++
			}
			rs.Waits += b.Waits
			rs.LongestBlock = max(rs.LongestBlock, b.Blocked)
		case event.Notify != nil:
			rs.Notifies++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file: %w", err)
	}
	return stats, nil
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Regulator Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Sessions:     %d\n", len(stats.Sessions))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryVoltage, log.CategoryMode, log.CategoryBudget, log.CategoryNotify, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}

	names := make([]string, 0, len(stats.Rails))
	for name := range stats.Rails {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rs := stats.Rails[name]
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Rail %s:\n", name)
		if rs.Transitions > 0 {
			fmt.Fprintf(w, "  Transitions: %d (settle %d, fast %d, slow %d)\n", rs.Transitions,
				rs.ByTier[log.TierSettle], rs.ByTier[log.TierFast], rs.ByTier[log.TierSlow])
			fmt.Fprintf(w, "  Timeouts:    %d, rejected %d, slowest %s\n", rs.Timeouts, rs.Rejected, rs.SlowestSet)
		}
		if rs.BudgetCalls > 0 {
			fmt.Fprintf(w, "  Budget:      %d requests, %d out of budget, %d waits (longest %s)\n",
				rs.BudgetCalls, rs.OutOfBudget, rs.Waits, rs.LongestBlock)
		}
		if rs.Notifies > 0 {
			fmt.Fprintf(w, "  Notifies:    %d\n", rs.Notifies)
		}
	}
}
