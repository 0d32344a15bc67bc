package budget

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Budget errors.
var (
	ErrOutOfBudget   = errors.New("current budget exhausted")
	ErrInvalidAmount = errors.New("invalid current amount")
	ErrSuperseded    = errors.New("reservation superseded by a newer request")
)

// Node is one participant in the budget tree.
type Node struct {
	name   string
	parent *Node // lookup only; the Tree owns every node

	// seq numbers Set calls. A parked Set gives up once a newer call on the
	// same node has been issued.
	seq    atomic.Uint64
	parked atomic.Int32

	mu     sync.Mutex
	cond   *sync.Cond
	cur    int64
	max    int64
	target int64
}

func newNode(name string, parent *Node, maxUA int64) *Node {
	n := &Node{name: name, parent: parent, max: maxUA, target: maxUA}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Current returns the present reservation.
func (n *Node) Current() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cur
}

// Max returns the effective ceiling.
func (n *Node) Max() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.max
}

// Target returns the requested ceiling, which differs from Max while a
// lowered ceiling waits for reservations to drain.
func (n *Node) Target() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// Snapshot returns cur and max read under one lock.
func (n *Node) Snapshot() (cur, max int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cur, n.max
}

// Result describes a completed Set.
type Result struct {
	Previous int64
	Current  int64

	// Waits counts how many times the caller parked before the parent
	// accepted the delta.
	Waits   int
	Blocked time.Duration
}

// Set changes the node's reservation to uA.
//
// With a parent, the difference is first reserved against the parent. If it
// does not fit and wait is false, ErrOutOfBudget is returned at once and
// nothing changes. If wait is true the caller parks until it fits.
//
// A parked Set never holds the node's lock, so other Set calls on the same
// node proceed. The newest call wins: a parked call returns ErrSuperseded
// once a later Set on the node has been issued, which is how an abandoned
// request is released.
func (n *Node) Set(uA int64, wait bool) (Result, error) {
	if uA < 0 {
		return Result{}, fmt.Errorf("%w: %d uA", ErrInvalidAmount, uA)
	}

	n.mu.Lock()
	prev := n.cur
	res := Result{Previous: prev, Current: prev}
	if uA > n.max {
		ceiling := n.max
		n.mu.Unlock()
		return res, fmt.Errorf("%w: %d uA above %s ceiling %d uA", ErrInvalidAmount, uA, n.name, ceiling)
	}

	my := n.seq.Add(1)
	if n.parked.Load() > 0 && n.parent != nil {
		// Let parked calls on this node see they were superseded.
		n.parent.wake()
	}

	delta := uA - prev
	if n.parent == nil || delta <= 0 || n.parent.tryReserve(delta) {
		if n.parent != nil && delta < 0 {
			n.parent.release(-delta)
		}
		n.commitLocked(uA, delta)
		n.mu.Unlock()
		res.Current = uA
		return res, nil
	}
	n.mu.Unlock()

	if !wait {
		return res, fmt.Errorf("%w: %s needs %d uA more from %s", ErrOutOfBudget, n.name, delta, n.parent.name)
	}

	n.parked.Add(1)
	waits, blocked, ok := n.parent.reserveUnless(delta, func() bool { return n.seq.Load() != my })
	n.parked.Add(-1)
	res.Waits, res.Blocked = waits, blocked
	if !ok {
		return res, fmt.Errorf("%w: %s request for %d uA", ErrSuperseded, n.name, uA)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.seq.Load() != my:
		n.parent.release(delta)
		return res, fmt.Errorf("%w: %s request for %d uA", ErrSuperseded, n.name, uA)
	case uA > n.max:
		// The ceiling was lowered while the caller was parked.
		n.parent.release(delta)
		return res, fmt.Errorf("%w: %d uA above %s ceiling %d uA", ErrInvalidAmount, uA, n.name, n.max)
	}
	n.commitLocked(uA, uA-n.cur)
	res.Current = uA
	return res, nil
}

// commitLocked stores the new reservation. A release moves a clamped
// ceiling toward its target and wakes children parked on this node.
func (n *Node) commitLocked(uA, delta int64) {
	n.cur = uA
	if delta < 0 {
		n.shrinkLocked()
		n.cond.Broadcast()
	}
}

// tryReserve adds delta to the reservation if it fits under the ceiling.
func (n *Node) tryReserve(delta int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tryReserveLocked(delta)
}

// release returns uA to the node and wakes its waiters.
func (n *Node) release(uA int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tryReserveLocked(-uA)
	n.shrinkLocked()
	n.cond.Broadcast()
}

// wake rouses every caller parked on the node.
func (n *Node) wake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cond.Broadcast()
}

// reserveUnless parks until delta fits or abandon reports true. The monitor
// lock is released while parked.
func (n *Node) reserveUnless(delta int64, abandon func() bool) (waits int, blocked time.Duration, ok bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	start := time.Now()
	for !n.tryReserveLocked(delta) {
		if abandon() {
			return waits, time.Since(start), false
		}
		waits++
		n.cond.Wait()
	}
	if waits > 0 {
		blocked = time.Since(start)
	}
	return waits, blocked, true
}

func (n *Node) tryReserveLocked(delta int64) bool {
	if delta <= 0 {
		n.cur += delta
		if n.cur < 0 {
			n.cur = 0
		}
		return true
	}
	if n.cur+delta > n.max {
		return false
	}
	n.cur += delta
	return true
}

// shrinkLocked moves a clamped ceiling toward its target after a release.
func (n *Node) shrinkLocked() {
	if n.max > n.target {
		n.max = max(n.target, n.cur)
	}
}

// SetCeiling changes the node's ceiling and wakes every waiter.
// It returns the effective ceiling before and after the change.
func (n *Node) SetCeiling(uA int64) (old, now int64, err error) {
	if uA < 0 {
		return 0, 0, fmt.Errorf("%w: ceiling %d uA", ErrInvalidAmount, uA)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	old = n.max
	n.target = uA
	n.max = max(uA, n.cur)
	n.cond.Broadcast()
	return old, n.max, nil
}
