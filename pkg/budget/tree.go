package budget

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Tree errors.
var (
	ErrNodeExists   = errors.New("budget node already exists")
	ErrNodeNotFound = errors.New("budget node not found")
)

// Tree owns the budget nodes. Nodes are added once at start-up.
type Tree struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: make(map[string]*Node)}
}

// Add creates a node. parent is empty for a root and must already exist
// otherwise; adding parents first keeps the tree acyclic.
func (t *Tree) Add(name, parent string, maxUA int64) (*Node, error) {
	if maxUA < 0 {
		return nil, fmt.Errorf("%w: %s ceiling %d uA", ErrInvalidAmount, name, maxUA)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.nodes[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrNodeExists, name)
	}

	var p *Node
	if parent != "" {
		var ok bool
		if p, ok = t.nodes[parent]; !ok {
			return nil, fmt.Errorf("%w: parent %s of %s", ErrNodeNotFound, parent, name)
		}
	}

	n := newNode(name, p, maxUA)
	t.nodes[name] = n
	return n, nil
}

// Node returns the node called name.
func (t *Tree) Node(name string) (*Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	return n, nil
}

// Children returns the direct children of name, sorted by name.
func (t *Tree) Children(name string) []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Node
	for _, n := range t.nodes {
		if n.parent != nil && n.parent.name == name {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// Check verifies cur <= max on every node and returns the first violation.
func (t *Tree) Check() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, n := range t.nodes {
		if cur, max := n.Snapshot(); cur > max {
			return fmt.Errorf("%s: reservation %d uA above ceiling %d uA", n.name, cur, max)
		}
	}
	return nil
}
