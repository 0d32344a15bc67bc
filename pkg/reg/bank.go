package reg

import (
	"errors"
	"fmt"
)

// Alias offsets relative to a register's base offset.
const (
	SetOffset    = 0x4
	ClearOffset  = 0x8
	ToggleOffset = 0xc

	aliasMask = 0xc
)

// Register errors.
var (
	ErrOutOfRange = errors.New("register offset out of range")
	ErrUnaligned  = errors.New("register offset not word aligned")
)

// Bank is a window of 32-bit registers.
// Implementations must be safe for concurrent use.
type Bank interface {
	// Read returns the register at byte offset off.
	Read(off uint32) uint32

	// Write stores val at byte offset off. Offsets carrying a SET, CLR or
	// TOG alias are applied with alias semantics.
	Write(off, val uint32)
}

// Set sets mask bits of the register at off with a single alias write.
func Set(b Bank, off, mask uint32) {
	b.Write(off+SetOffset, mask)
}

// Clear clears mask bits of the register at off with a single alias write.
func Clear(b Bank, off, mask uint32) {
	b.Write(off+ClearOffset, mask)
}

// Toggle inverts mask bits of the register at off with a single alias write.
func Toggle(b Bank, off, mask uint32) {
	b.Write(off+ToggleOffset, mask)
}

// Merge returns cur with the bits under mask replaced by val.
func Merge(cur, mask, val uint32) uint32 {
	return (cur &^ mask) | (val & mask)
}

// Update replaces the bits under mask with val using a read-modify-write and
// returns the written word. Callers serialize concurrent updates of the same
// register themselves.
func Update(b Bank, off, mask, val uint32) uint32 {
	word := Merge(b.Read(off), mask, val)
	b.Write(off, word)
	return word
}

// Field extracts the bits under mask shifted down by shift.
func Field(word, mask uint32, shift uint) uint32 {
	return (word & mask) >> shift
}

// Check reports whether off addresses a whole word inside a window of size bytes.
func Check(off uint32, size int) error {
	if off%4 != 0 {
		return fmt.Errorf("%w: 0x%x", ErrUnaligned, off)
	}
	if size <= 0 || uint64(off)+4 > uint64(size) {
		return fmt.Errorf("%w: 0x%x (window 0x%x)", ErrOutOfRange, off, size)
	}
	return nil
}

// apply computes the stored value for a write of val at an alias of cur.
func apply(alias, cur, val uint32) uint32 {
	switch alias {
	case SetOffset:
		return cur | val
	case ClearOffset:
		return cur &^ val
	case ToggleOffset:
		return cur ^ val
	default:
		return val
	}
}
