// Command pmu-ctl drives the power block regulators.
//
// It builds the regulator engine for a board file, starts the budget event
// dispatcher and the VBUS watcher, and optionally opens an interactive shell.
//
// Usage:
//
//	pmu-ctl [flags]
//
// Flags:
//
//	-config string      Board file (YAML). Built-in model defaults when empty
//	-model string       Override the board file model (imx23, imx28)
//	-simulate           Run against the simulated power block
//	-devmem string      Physical base address, overrides sysfs discovery
//	-trace string       Write a CBOR trace log to this file
//	-log-level string   debug, info, warn or error (default "info")
//	-interactive        Open the command shell
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mxs-pmu/pmu-go/cmd/pmu-ctl/interactive"
	"github.com/mxs-pmu/pmu-go/pkg/config"
	"github.com/mxs-pmu/pmu-go/pkg/log"
	"github.com/mxs-pmu/pmu-go/pkg/notify"
	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
	"github.com/mxs-pmu/pmu-go/pkg/regulator"
	"github.com/mxs-pmu/pmu-go/pkg/sim"
)

// Config holds the command-line configuration.
type Config struct {
	ConfigFile  string
	Model       string
	Simulate    bool
	DevMem      string
	TraceFile   string
	LogLevel    string
	Interactive bool
}

var cfg Config

func init() {
	flag.StringVar(&cfg.ConfigFile, "config", "", "Board file (YAML)")
	flag.StringVar(&cfg.Model, "model", "", "Override the board file model")
	flag.BoolVar(&cfg.Simulate, "simulate", false, "Run against the simulated power block")
	flag.StringVar(&cfg.DevMem, "devmem", "", "Physical base address of the power block")
	flag.StringVar(&cfg.TraceFile, "trace", "", "Write a CBOR trace log to this file")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&cfg.Interactive, "interactive", false, "Open the command shell")
}

func main() {
	flag.Parse()

	logger, err := setupLogging(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}

	if err := run(logger); err != nil {
		stdlog.Fatalf("pmu-ctl: %v", err)
	}
}

func setupLogging(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)
	if lvl <= slog.LevelDebug {
		stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds | stdlog.Lshortfile)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func loadBoard() (*config.Config, error) {
	board := config.Default()
	if cfg.ConfigFile != "" {
		var err error
		if board, err = config.Load(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	if cfg.Model != "" {
		board.Model = cfg.Model
		if err := board.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.TraceFile != "" {
		board.Trace = cfg.TraceFile
	}
	return board, nil
}

// openBank returns the register bank and, when simulating, the block behind it.
func openBank(board *config.Config) (reg.Bank, *sim.PowerBlock, func() error, error) {
	if cfg.Simulate {
		block := sim.New(sim.DefaultOptions())
		return block, block, func() error { block.Close(); return nil }, nil
	}

	base := board.BaseAddress
	if cfg.DevMem != "" {
		v, err := strconv.ParseUint(strings.TrimPrefix(cfg.DevMem, "0x"), 16, 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid -devmem %q: %w", cfg.DevMem, err)
		}
		base = v
	}
	if base == 0 {
		base = reg.BaseAddress(board.DevicesDir)
	}

	mem, err := reg.OpenDevMem(base, reg.DefaultWindow)
	if err != nil {
		return nil, nil, nil, err
	}
	return mem, nil, mem.Close, nil
}

func run(logger *slog.Logger) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}
	descs, err := board.Descriptors()
	if err != nil {
		return err
	}
	timing, err := board.RegulatorTiming()
	if err != nil {
		return err
	}

	bank, block, closeBank, err := openBank(board)
	if err != nil {
		return err
	}
	defer closeBank()

	if board.DCDCPLLKHz != 0 {
		if err := power.SetDCDCClock(bank, board.DCDCPLLKHz); err != nil {
			return err
		}
		logger.Info("DC-DC clock programmed", slog.Int("khz", board.DCDCPLLKHz))
	}

	traces := []log.Logger{}
	if board.Trace != "" {
		fl, err := log.NewFileLogger(board.Trace)
		if err != nil {
			return fmt.Errorf("open trace: %w", err)
		}
		defer fl.Close()
		traces = append(traces, fl)
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		traces = append(traces, log.NewSlogAdapter(logger))
	}

	engine, err := regulator.New(bank, descs,
		regulator.WithLogger(logger),
		regulator.WithTrace(log.Tee(traces...)),
		regulator.WithTiming(timing),
	)
	if err != nil {
		return err
	}

	stdlog.Println("pmu-ctl")
	stdlog.Printf("  Model:   %s", board.Model)
	stdlog.Printf("  Session: %s", engine.SessionID())
	if block != nil {
		stdlog.Println("  Bank:    simulated")
	}
	stdlog.Printf("  Rails:   %d", len(engine.Rails()))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dispatcher := notify.NewDispatcher(engine, notify.DefaultQueueDepth)
	dispatcher.SetLogger(logger)
	dispatcher.OnError(func(ev notify.Event, err error) {
		logger.Warn("budget event rejected", slog.String("event", ev.String()), slog.Any("error", err))
	})
	// Post fails until the dispatcher is running.
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if policy, interval, ok := board.USBPolicy(); ok {
		power.ConfigureVBUSDetect(bank)
		watcher := notify.NewVBUSWatcher(bank, policy, dispatcher, interval)
		watcher.SetLogger(logger)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
		stdlog.Printf("  USB:     %s host=%d uA external=%d uA", policy.Rail, policy.HostMicroAmps, policy.ExternalMicroAmps)
	}

	if cfg.Interactive {
		shell := interactive.NewShell(engine, dispatcher, block, os.Stdout)
		g.Go(func() error {
			defer shell.Close()
			return shell.Run(gctx, cancel)
		})
	} else {
		stdlog.Println("Running. Press Ctrl+C to stop.")
	}

	<-gctx.Done()
	cancel()
	stdlog.Println("Shutting down...")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	stats := dispatcher.Stats()
	stdlog.Printf("Events: %d delivered, %d failed, %d dropped", stats.Delivered, stats.Failed, stats.Dropped)
	return nil
}
