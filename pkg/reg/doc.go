// Package reg provides word-sized access to the MXS power block registers.
//
// The power block is a bank of 32-bit registers at fixed byte offsets from a
// base address. Each register has three write-only aliases that the hardware
// applies atomically:
//
//	off + 0x4  SET  - bits written as 1 are set
//	off + 0x8  CLR  - bits written as 1 are cleared
//	off + 0xc  TOG  - bits written as 1 are toggled
//
// Two Bank implementations are provided:
//
//	// Simulation and tests
//	bank := reg.NewMemBank(0x100)
//
//	// Real hardware through /dev/mem
//	bank, err := reg.OpenDevMem(reg.DefaultBaseAddress, 0x100)
//
// Reads never take a lock: the status register in particular is shared by
// every rail and always returns the combined instantaneous hardware state.
package reg
