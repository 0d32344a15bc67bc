package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultQueueDepth is the number of events a Dispatcher buffers.
const DefaultQueueDepth = 16

// Dispatcher errors.
var (
	ErrQueueFull      = errors.New("notification queue full")
	ErrNotRunning     = errors.New("dispatcher not running")
	ErrAlreadyRunning = errors.New("dispatcher already running")
)

// Stats counts dispatcher activity.
type Stats struct {
	Delivered uint64
	Failed    uint64
	Dropped   uint64
}

// Dispatcher delivers events to a Sink from one goroutine, in post order.
type Dispatcher struct {
	sink  Sink
	queue chan Event

	mu      sync.RWMutex
	logger  *slog.Logger
	onError func(Event, error)

	// Background processing
	cancel    context.CancelFunc
	processWg sync.WaitGroup
	running   atomic.Bool

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher creates a dispatcher in front of sink. depth <= 0 selects
// DefaultQueueDepth.
func NewDispatcher(sink Sink, depth int) *Dispatcher {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Dispatcher{
		sink:   sink,
		queue:  make(chan Event, depth),
		logger: slog.Default(),
	}
}

// SetLogger sets the operational logger.
func (d *Dispatcher) SetLogger(l *slog.Logger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l != nil {
		d.logger = l
	}
}

// OnError registers a callback for events the sink rejected. It runs on the
// dispatch goroutine.
func (d *Dispatcher) OnError(fn func(Event, error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = fn
}

// Start begins delivering events in the background until Stop or until ctx
// is done.
func (d *Dispatcher) Start(ctx context.Context) {
	if d.running.Swap(true) {
		return // Already running
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.processWg.Add(1)
	go func() {
		defer d.processWg.Done()
		d.process(ctx)
	}()
}

// Stop delivers what is already queued and stops the background goroutine.
func (d *Dispatcher) Stop() {
	if !d.running.Load() {
		return // Not running
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.processWg.Wait()
}

// Run delivers events until ctx is done, then drains the queue. It is the
// blocking form of Start for use under an errgroup.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.running.Swap(true) {
		return ErrAlreadyRunning
	}
	d.process(ctx)
	return nil
}

// Running reports whether events are being delivered.
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

// Post validates ev and queues it without blocking.
func (d *Dispatcher) Post(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if !d.running.Load() {
		return ErrNotRunning
	}
	select {
	case d.queue <- ev:
		return nil
	default:
		d.dropped.Add(1)
		d.log().Warn("notification dropped", "event", ev.String())
		return fmt.Errorf("%w: %s", ErrQueueFull, ev)
	}
}

// Stats returns the delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) process(ctx context.Context) {
	defer d.running.Store(false)
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ev Event) {
	err := d.sink.Notify(ev)
	if err == nil {
		d.delivered.Add(1)
		return
	}

	d.failed.Add(1)
	d.mu.RLock()
	fn := d.onError
	d.mu.RUnlock()

	if fn != nil {
		fn(ev, err)
		return
	}
	d.log().Error("notification rejected", "event", ev.String(), "error", err)
}

func (d *Dispatcher) log() *slog.Logger {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.logger
}
