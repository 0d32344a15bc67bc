// Command pmu-log views and summarizes regulator trace files.
//
// Trace files are written by pmu-ctl with the -trace flag.
//
// Usage:
//
//	pmu-log <command> [flags] <file.cbor>
//
// Commands:
//
//	view     Print events in human-readable form
//	export   Write events as JSON lines
//	stats    Summarize transitions, budget waits and notifications per rail
//
// Examples:
//
//	# View only budget requests on vddd
//	pmu-log view -category budget -rail vddd pmu.cbor
//
//	# Show statistics
//	pmu-log stats pmu.cbor
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mxs-pmu/pmu-go/cmd/pmu-log/commands"
	"github.com/mxs-pmu/pmu-go/pkg/log"
)

const usage = `pmu-log - Regulator Trace Analyzer

Usage:
  pmu-log <command> [flags] <file.cbor>

Commands:
  view     Print events in human-readable form
  export   Write events as JSON lines
  stats    Summarize transitions, budget waits and notifications per rail

Use "pmu-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) func() log.Filter {
	session := fs.String("session", "", "Filter by session ID")
	rail := fs.String("rail", "", "Filter by rail name")
	category := fs.String("category", "", "Filter by category (voltage, mode, budget, notify, error)")
	since := fs.String("since", "", "Only events at or after this time (RFC3339)")
	until := fs.String("until", "", "Only events before this time (RFC3339)")

	return func() log.Filter {
		f := log.Filter{SessionID: *session, Rail: *rail}
		if *category != "" {
			c, err := commands.ParseCategoryFlag(*category)
			if err != nil {
				fatal(err)
			}
			f.Category = &c
		}
		if *since != "" {
			ts, err := time.Parse(time.RFC3339, *since)
			if err != nil {
				fatal(fmt.Errorf("invalid -since: %w", err))
			}
			f.TimeStart = &ts
		}
		if *until != "" {
			ts, err := time.Parse(time.RFC3339, *until)
			if err != nil {
				fatal(fmt.Errorf("invalid -until: %w", err))
			}
			f.TimeEnd = &ts
		}
		return f
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pmu-log view - Print events in human-readable form

Usage:
  pmu-log view [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}
	filter := filterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunView(path, filter(), os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pmu-log export - Write events as JSON lines

Usage:
  pmu-log export [flags] <file.cbor>

Flags:
`)
		fs.PrintDefaults()
	}
	filter := filterFlags(fs)
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, filter(), *output, os.Stdout); err != nil {
		fatal(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `pmu-log stats - Summarize a trace file

Usage:
  pmu-log stats <file.cbor>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
