// Package commands implements the pmu-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"periph.io/x/conn/v3/physic"

	"github.com/mxs-pmu/pmu-go/pkg/log"
)

// ParseCategoryFlag parses a category name as used on the command line.
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "voltage":
		return log.CategoryVoltage, nil
	case "mode":
		return log.CategoryMode, nil
	case "budget":
		return log.CategoryBudget, nil
	case "notify":
		return log.CategoryNotify, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("unknown category: %s (valid: voltage, mode, budget, notify, error)", s)
	}
}

// RunView prints every event matching filter.
func RunView(path string, filter log.Filter, w io.Writer) error {
	err := log.Scan(path, filter, func(event log.Event) error {
		formatEvent(w, event)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read trace file: %w", err)
	}
	return nil
}

// formatEvent writes one event: a header line, then indented details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [%s] %-7s %s\n", ts, shortenSessionID(event.SessionID), event.Category, event.Rail)

	switch {
	case event.Voltage != nil:
		v := event.Voltage
		fmt.Fprintf(w, "  Target: %s (selector %d)\n", formatMicroVolts(v.TargetMicroVolts), v.Selector)
		if v.Source != "" {
			fmt.Fprintf(w, "  Source: %s\n", v.Source)
		}
		fmt.Fprintf(w, "  Result: %s tier=%s polls=%d elapsed=%s\n", v.Outcome, v.Tier, v.Polls, v.Elapsed)
	case event.Mode != nil:
		fmt.Fprintf(w, "  Mode: %s (%s)\n", event.Mode.Mode, event.Mode.Outcome)
	case event.Budget != nil:
		b := event.Budget
		fmt.Fprintf(w, "  Request: %s (was %s)\n",
			formatMicroAmps(b.RequestedMicroAmps), formatMicroAmps(b.PreviousMicroAmps))
		if b.Parent != "" {
			fmt.Fprintf(w, "  Parent: %s\n", b.Parent)
		}
		fmt.Fprintf(w, "  Result: %s", b.Outcome)
		if b.Waits > 0 {
			fmt.Fprintf(w, " after %d waits (%s)", b.Waits, b.Blocked)
		}
		fmt.Fprintln(w)
	case event.Notify != nil:
		n := event.Notify
		fmt.Fprintf(w, "  %s: %s -> %s", n.Kind,
			formatMicroAmps(n.OldMaxMicroAmp), formatMicroAmps(n.NewMaxMicroAmp))
		if n.Origin != "" {
			fmt.Fprintf(w, " from %s", n.Origin)
		}
		fmt.Fprintln(w)
	case event.Error != nil:
		fmt.Fprintf(w, "  Error: %s\n", event.Error.Message)
		if event.Error.Context != "" {
			fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
		}
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatMicroVolts(uV int) string {
	return (physic.ElectricPotential(uV) * physic.MicroVolt).String()
}

func formatMicroAmps(uA int64) string {
	return (physic.ElectricCurrent(uA) * physic.MicroAmpere).String()
}
