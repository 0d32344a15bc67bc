package reg

import (
	"sync"
	"sync/atomic"
)

// WriteHook observes a completed write. off is the register base offset
// (alias bits stripped), old and new are the word before and after the write.
type WriteHook func(off, old, new uint32)

// MemBank is an in-memory Bank. It is safe for concurrent use.
type MemBank struct {
	words []atomic.Uint32

	mu      sync.Mutex // serializes alias writes and hook dispatch
	writes  map[uint32]int
	aliases map[uint32]int
	hook    WriteHook
}

// Compile-time interface satisfaction check.
var _ Bank = (*MemBank)(nil)

// NewMemBank creates a zeroed bank spanning size bytes.
func NewMemBank(size int) *MemBank {
	return &MemBank{
		words:   make([]atomic.Uint32, (size+3)/4),
		writes:  make(map[uint32]int),
		aliases: make(map[uint32]int),
	}
}

// Size returns the window size in bytes.
func (m *MemBank) Size() int {
	return len(m.words) * 4
}

// Read returns the word at off. Out-of-range offsets read as zero.
func (m *MemBank) Read(off uint32) uint32 {
	base := off &^ aliasMask
	if off&aliasMask != 0 {
		// Alias registers are write-only; reads return the base register.
		off = base
	}
	idx := int(off / 4)
	if idx >= len(m.words) {
		return 0
	}
	return m.words[idx].Load()
}

// Write stores val with alias semantics. Out-of-range writes are dropped.
func (m *MemBank) Write(off, val uint32) {
	base := off &^ aliasMask
	idx := int(base / 4)
	if idx >= len(m.words) {
		return
	}

	m.mu.Lock()
	old := m.words[idx].Load()
	next := apply(off&aliasMask, old, val)
	m.words[idx].Store(next)
	m.writes[base]++
	if off&aliasMask != 0 {
		m.aliases[base]++
	}
	hook := m.hook
	m.mu.Unlock()

	if hook != nil {
		hook(base, old, next)
	}
}

// Poke stores val at off without alias handling, write accounting or hooks.
// It models the hardware changing a register on its own.
func (m *MemBank) Poke(off, val uint32) {
	idx := int((off &^ aliasMask) / 4)
	if idx >= len(m.words) {
		return
	}
	m.words[idx].Store(val)
}

// PokeBits sets (on=true) or clears mask bits at off like Poke.
func (m *MemBank) PokeBits(off, mask uint32, on bool) {
	idx := int((off &^ aliasMask) / 4)
	if idx >= len(m.words) {
		return
	}
	for {
		cur := m.words[idx].Load()
		next := cur &^ mask
		if on {
			next = cur | mask
		}
		if m.words[idx].CompareAndSwap(cur, next) {
			return
		}
	}
}

// Writes returns how many writes (including alias writes) hit the register at off.
func (m *MemBank) Writes(off uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[off&^aliasMask]
}

// AliasWrites returns how many SET/CLR/TOG alias writes hit the register at off.
func (m *MemBank) AliasWrites(off uint32) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aliases[off&^aliasMask]
}

// TotalWrites returns the number of writes across the bank.
func (m *MemBank) TotalWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.writes {
		n += c
	}
	return n
}

// OnWrite installs a hook called after each write. Pass nil to remove it.
// The hook runs outside the bank lock and may call Poke or Read.
func (m *MemBank) OnWrite(hook WriteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
}
