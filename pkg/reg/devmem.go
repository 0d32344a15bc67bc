package reg

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"

	"periph.io/x/host/v3/pmem"
)

// DefaultBaseAddress is the datasheet physical address of the power block.
const DefaultBaseAddress = 0x80044000

// DefaultWindow covers every register the engine touches, including aliases.
const DefaultWindow = 0x100

// DevMem is a Bank over a physical memory mapping of the power block.
type DevMem struct {
	view  *pmem.View
	words []uint32
	base  uint64
}

// Compile-time interface satisfaction check.
var _ Bank = (*DevMem)(nil)

// OpenDevMem maps size bytes of physical memory starting at base.
// It requires access to /dev/mem.
func OpenDevMem(base uint64, size int) (*DevMem, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: window 0x%x", ErrOutOfRange, size)
	}
	view, err := pmem.Map(base, size)
	if err != nil {
		return nil, fmt.Errorf("map power block at 0x%x: %w", base, err)
	}
	return &DevMem{view: view, words: view.Uint32(), base: base}, nil
}

// Read loads the word at off. Out-of-range offsets read as zero.
func (d *DevMem) Read(off uint32) uint32 {
	if Check(off, len(d.words)*4) != nil {
		return 0
	}
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&d.words[off/4])))
}

// Write stores val at off. The alias registers are decoded by the hardware.
func (d *DevMem) Write(off, val uint32) {
	if Check(off, len(d.words)*4) != nil {
		return
	}
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&d.words[off/4])), val)
}

// PhysAddr returns the physical base address of the mapping.
func (d *DevMem) PhysAddr() uint64 {
	return d.base
}

// Close unmaps the window.
func (d *DevMem) Close() error {
	return d.view.Close()
}

// BaseAddress looks up the power block base address in sysfs, where platform
// devices are named "<hex address>.power". The datasheet default is returned
// when nothing matches.
func BaseAddress(devicesDir string) uint64 {
	if devicesDir == "" {
		devicesDir = "/sys/bus/platform/devices"
	}
	items, err := os.ReadDir(devicesDir)
	if err != nil {
		return DefaultBaseAddress
	}
	for _, item := range items {
		if addr, ok := parseDeviceName(filepath.Base(item.Name())); ok {
			return addr
		}
	}
	return DefaultBaseAddress
}

func parseDeviceName(name string) (uint64, bool) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 || parts[1] != "power" {
		return 0, false
	}
	addr, err := strconv.ParseUint(parts[0], 16, 64)
	if err != nil {
		return 0, false
	}
	return addr, true
}
