package regulator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/mxs-pmu/pmu-go/pkg/budget"
	"github.com/mxs-pmu/pmu-go/pkg/log"
	"github.com/mxs-pmu/pmu-go/pkg/notify"
	"github.com/mxs-pmu/pmu-go/pkg/reg"
)

// Engine owns the rails of one power block.
type Engine struct {
	bank    reg.Bank
	logger  *slog.Logger
	trace   log.Logger
	timing  Timing
	session string

	tree   *budget.Tree
	rails  []*Rail // id order
	byID   map[ID]*Rail
	byName map[string]*Rail
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the operational logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTrace sets the event trace sink.
func WithTrace(t log.Logger) Option {
	return func(e *Engine) {
		if t != nil {
			e.trace = t
		}
	}
}

// WithTiming replaces the voltage poll ladder.
func WithTiming(t Timing) Option {
	return func(e *Engine) {
		e.timing = t
	}
}

// New validates descs and builds an engine over bank. The descriptors are
// copied; later changes to the slice have no effect.
func New(bank reg.Bank, descs []Descriptor, opts ...Option) (*Engine, error) {
	if bank == nil {
		return nil, fmt.Errorf("%w: nil register bank", ErrInvalidArgument)
	}

	e := &Engine{
		bank:    bank,
		logger:  slog.Default(),
		trace:   log.NoopLogger{},
		timing:  DefaultTiming(),
		session: uuid.NewString(),
		tree:    budget.NewTree(),
		byID:    make(map[ID]*Rail, len(descs)),
		byName:  make(map[string]*Rail, len(descs)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.timing.Validate(); err != nil {
		return nil, err
	}

	table := make([]Descriptor, len(descs))
	copy(table, descs)
	if err := ValidateTable(table); err != nil {
		return nil, err
	}

	for i := range table {
		r := &Rail{desc: table[i], engine: e}
		r.softMode.Store(uint32(ModeNormal))
		e.rails = append(e.rails, r)
		e.byID[r.desc.ID] = r
		e.byName[r.desc.Name] = r
	}
	sort.Slice(e.rails, func(i, j int) bool { return e.rails[i].desc.ID < e.rails[j].desc.ID })

	for _, d := range budgetOrder(table) {
		parent := ""
		if p, ok := e.byName[d.Parent]; ok && p.desc.HasBudget() {
			parent = d.Parent
		}
		node, err := e.tree.Add(d.Name, parent, d.MaxMicroAmps)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
		}
		e.byName[d.Name].node = node
	}

	e.logger.Info("regulator engine ready",
		"session", e.session, "rails", len(e.rails), "budgeted", e.tree.Len())
	return e, nil
}

// SessionID identifies this engine in trace events.
func (e *Engine) SessionID() string { return e.session }

// Timing returns the poll ladder in use.
func (e *Engine) Timing() Timing { return e.timing }

// Bank returns the register bank the engine drives.
func (e *Engine) Bank() reg.Bank { return e.bank }

// Rail returns the rail with the given id.
func (e *Engine) Rail(id ID) (*Rail, error) {
	r, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownRail, id)
	}
	return r, nil
}

// RailByName returns the rail with the given name.
func (e *Engine) RailByName(name string) (*Rail, error) {
	r, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRail, name)
	}
	return r, nil
}

// Rails returns every rail in id order.
func (e *Engine) Rails() []*Rail {
	out := make([]*Rail, len(e.rails))
	copy(out, e.rails)
	return out
}

// CheckBudget verifies the reservation invariant across the budget tree.
func (e *Engine) CheckBudget() error {
	return e.tree.Check()
}

// Notify applies an external budget event to the named rail's ceiling and
// wakes every caller waiting on it. It is the only runtime path that
// changes a ceiling.
func (e *Engine) Notify(ev notify.Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	r, err := e.RailByName(ev.Rail)
	if err != nil {
		return err
	}
	if r.node == nil {
		return fmt.Errorf("%w: %s takes no part in current arbitration", ErrNotSupported, r.desc.Name)
	}

	old, now, err := r.node.SetCeiling(ev.MaxMicroAmps)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if (ev.Kind == notify.BudgetRaised && ev.MaxMicroAmps < old) ||
		(ev.Kind == notify.BudgetLowered && ev.MaxMicroAmps > old) {
		e.logger.Warn("budget event direction does not match ceiling change",
			"rail", r.desc.Name, "kind", ev.Kind.String(), "old_ua", old, "new_ua", ev.MaxMicroAmps)
	}
	if now != ev.MaxMicroAmps {
		e.logger.Info("ceiling clamped to reservation until released",
			"rail", r.desc.Name, "target_ua", ev.MaxMicroAmps, "effective_ua", now)
	}

	r.emit(log.Event{
		Category: log.CategoryNotify,
		Notify: &log.NotifyEvent{
			Kind:           ev.Kind.String(),
			OldMaxMicroAmp: old,
			NewMaxMicroAmp: now,
			Origin:         ev.Origin,
		},
	})
	return nil
}

var _ notify.Sink = (*Engine)(nil)
