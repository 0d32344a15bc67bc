// Package interactive provides the pmu-ctl command shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"periph.io/x/conn/v3/physic"

	"github.com/mxs-pmu/pmu-go/pkg/notify"
	"github.com/mxs-pmu/pmu-go/pkg/power"
	"github.com/mxs-pmu/pmu-go/pkg/regulator"
	"github.com/mxs-pmu/pmu-go/pkg/sim"
)

// blockedReport is how long a current request may take before the shell
// reports it as waiting and returns to the prompt.
const blockedReport = 50 * time.Millisecond

// Shell executes operator commands against an engine.
type Shell struct {
	engine *regulator.Engine
	events notify.Poster
	block  *sim.PowerBlock // nil on hardware

	mu      sync.Mutex // serializes output from background requests
	out     io.Writer
	waiting map[*regulator.Rail]int

	pending sync.WaitGroup
}

// NewShell creates a shell writing to out. block enables the vbus command.
func NewShell(engine *regulator.Engine, events notify.Poster, block *sim.PowerBlock, out io.Writer) *Shell {
	return &Shell{engine: engine, events: events, block: block, out: out,
		waiting: make(map[*regulator.Rail]int)}
}

// Run reads commands with line editing until exit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "pmu> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	s.mu.Lock()
	s.out = rl.Stdout()
	s.mu.Unlock()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			s.printf("Exiting...\n")
			cancel()
			return nil
		}

		if quit := s.Exec(line); quit {
			cancel()
			return nil
		}
	}
}

// Close abandons current requests still waiting for budget and returns
// once every background request has finished. Each waiting rail is sent a
// request for its present reservation, which ends the wait without
// changing what the rail holds.
func (s *Shell) Close() {
	s.mu.Lock()
	rails := make([]*regulator.Rail, 0, len(s.waiting))
	for r := range s.waiting {
		rails = append(rails, r)
	}
	s.mu.Unlock()

	for _, r := range rails {
		cur, err := r.CurrentLimit()
		if err == nil {
			err = r.TrySetCurrentLimit(cur)
		}
		if err != nil {
			s.printf("%s: could not abandon request: %v\n", r.Name(), err)
		}
	}
	s.pending.Wait()
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()
	case "rails", "ls":
		s.cmdRails()
	case "get", "g":
		err = s.cmdGet(args)
	case "set", "s":
		err = s.cmdSet(args)
	case "mode", "m":
		err = s.cmdMode(args)
	case "current", "c":
		err = s.cmdCurrent(args, true)
	case "try":
		err = s.cmdCurrent(args, false)
	case "notify", "n":
		err = s.cmdNotify(args)
	case "source":
		err = s.cmdSource(args)
	case "clock":
		err = s.cmdClock(args)
	case "vbus":
		err = s.cmdVBUS(args)
	case "exit", "quit", "q":
		return true
	default:
		s.printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		s.printf("Error: %v\n", err)
	}
	return false
}

func (s *Shell) printHelp() {
	s.printf(`Commands:
  rails                          List rails with voltage, mode and budget
  get <rail>                     Show one rail
  set <rail> <uV>                Set voltage
  mode <rail> [normal|fast]      Show or set stepping mode
  current <rail> [uA]            Show or reserve current (waits in normal mode)
  try <rail> <uA>                Reserve current without waiting
  notify <rail> raise|lower <uA> Deliver a budget event
  source <rail>                  Decode the supply feeding a rail
  clock [kHz]                    Show or set the DC-DC clock (19200, 20000, 24000)
  vbus attach|detach             Plug or unplug 5V (simulation only)
  exit                           Leave the shell
`)
}

func (s *Shell) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) rail(args []string, need int, usage string) (*regulator.Rail, error) {
	if len(args) < need {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return s.engine.RailByName(args[0])
}

func (s *Shell) cmdRails() {
	for _, r := range s.engine.Rails() {
		s.printf("%s\n", describe(r))
	}
}

func (s *Shell) cmdGet(args []string) error {
	r, err := s.rail(args, 1, "get <rail>")
	if err != nil {
		return err
	}
	s.printf("%s\n", describe(r))
	return nil
}

// describe formats a rail on one line.
func describe(r *regulator.Rail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s id=%-3d", r.Name(), r.ID())
	if uV, err := r.Voltage(); err == nil {
		d := r.Descriptor()
		fmt.Fprintf(&b, " %-9s [%s..%s] source=%s", formatVolts(uV),
			formatVolts(d.MinMicroVolts), formatVolts(d.MaxMicroVolts), r.Source())
	}
	fmt.Fprintf(&b, " mode=%s", r.Mode())
	if cur, err := r.CurrentLimit(); err == nil {
		max, _ := r.MaxCurrent()
		fmt.Fprintf(&b, " current=%s/%s", formatAmps(cur), formatAmps(max))
	}
	return b.String()
}

func (s *Shell) cmdSet(args []string) error {
	r, err := s.rail(args, 2, "set <rail> <uV>")
	if err != nil {
		return err
	}
	uV, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid voltage %q: %w", args[1], err)
	}

	start := time.Now()
	if err := r.SetVoltage(uV); err != nil {
		return err
	}
	got, _ := r.Voltage()
	s.printf("%s set to %s in %s\n", r.Name(), formatVolts(got), time.Since(start).Round(time.Microsecond))
	return nil
}

func (s *Shell) cmdMode(args []string) error {
	r, err := s.rail(args, 1, "mode <rail> [normal|fast]")
	if err != nil {
		return err
	}
	if len(args) > 1 {
		m, err := regulator.ParseMode(args[1])
		if err != nil {
			return err
		}
		if err := r.SetMode(m); err != nil {
			return err
		}
	}
	s.printf("%s mode %s\n", r.Name(), r.Mode())
	return nil
}

func (s *Shell) cmdCurrent(args []string, wait bool) error {
	usage := "current <rail> [uA]"
	if !wait {
		usage = "try <rail> <uA>"
	}
	need := 1
	if !wait {
		need = 2
	}
	r, err := s.rail(args, need, usage)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		cur, err := r.CurrentLimit()
		if err != nil {
			return err
		}
		max, _ := r.MaxCurrent()
		s.printf("%s current %s of %s\n", r.Name(), formatAmps(cur), formatAmps(max))
		return nil
	}

	uA, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid current %q: %w", args[1], err)
	}

	if !wait {
		if err := r.TrySetCurrentLimit(uA); err != nil {
			return err
		}
		s.printf("%s reserved %s\n", r.Name(), formatAmps(uA))
		return nil
	}

	done := make(chan error, 1)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		done <- r.SetCurrentLimit(uA)
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		s.printf("%s reserved %s\n", r.Name(), formatAmps(uA))
	case <-time.After(blockedReport):
		s.printf("%s waiting for %s of budget\n", r.Name(), formatAmps(uA))
		s.mu.Lock()
		s.waiting[r]++
		s.mu.Unlock()
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			err := <-done
			s.mu.Lock()
			if s.waiting[r]--; s.waiting[r] == 0 {
				delete(s.waiting, r)
			}
			s.mu.Unlock()
			switch {
			case errors.Is(err, regulator.ErrSuperseded):
				s.printf("%s request for %s abandoned\n", r.Name(), formatAmps(uA))
				return
			case err != nil:
				s.printf("%s request failed: %v\n", r.Name(), err)
				return
			}
			s.printf("%s reserved %s after waiting\n", r.Name(), formatAmps(uA))
		}()
	}
	return nil
}

func (s *Shell) cmdNotify(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: notify <rail> raise|lower <uA>")
	}
	var kind notify.Kind
	switch strings.ToLower(args[1]) {
	case "raise", "raised":
		kind = notify.BudgetRaised
	case "lower", "lowered":
		kind = notify.BudgetLowered
	default:
		return fmt.Errorf("unknown event %q (use raise or lower)", args[1])
	}
	uA, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid current %q: %w", args[2], err)
	}

	ev := notify.Event{Kind: kind, Rail: args[0], MaxMicroAmps: uA, Origin: "shell"}
	if err := s.events.Post(ev); err != nil {
		return err
	}
	s.printf("posted %s\n", ev)
	return nil
}

func (s *Shell) cmdSource(args []string) error {
	r, err := s.rail(args, 1, "source <rail>")
	if err != nil {
		return err
	}
	src := r.Source()
	polls := "polls DC_OK"
	if !src.UsesConverter() {
		polls = "settle delay only"
	}
	s.printf("%s fed by %s (%s)\n", r.Name(), src, polls)
	return nil
}

func (s *Shell) cmdClock(args []string) error {
	bank := s.engine.Bank()
	if len(args) > 0 {
		kHz, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid frequency %q: %w", args[0], err)
		}
		if err := power.SetDCDCClock(bank, kHz); err != nil {
			return err
		}
	}
	kHz, err := power.DCDCClock(bank)
	if err != nil {
		return err
	}
	s.printf("DC-DC clock %s\n", physic.Frequency(kHz)*physic.KiloHertz)
	return nil
}

func (s *Shell) cmdVBUS(args []string) error {
	if s.block == nil {
		return fmt.Errorf("vbus control needs -simulate")
	}
	if len(args) < 1 {
		s.printf("vbus valid=%t\n", power.VBUSValid(s.block))
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "attach", "on":
		s.block.Attach()
	case "detach", "off":
		s.block.Detach()
	default:
		return fmt.Errorf("usage: vbus attach|detach")
	}
	s.printf("vbus valid=%t\n", power.VBUSValid(s.block))
	return nil
}

func formatVolts(uV int) string {
	return (physic.ElectricPotential(uV) * physic.MicroVolt).String()
}

func formatAmps(uA int64) string {
	return (physic.ElectricCurrent(uA) * physic.MicroAmpere).String()
}
