package reg

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestMemBankAliases(t *testing.T) {
	b := NewMemBank(0x40)

	b.Write(0x10, 0x00f0)
	Set(b, 0x10, 0x0003)
	if got := b.Read(0x10); got != 0x00f3 {
		t.Fatalf("after SET: got 0x%x, want 0xf3", got)
	}

	Clear(b, 0x10, 0x0030)
	if got := b.Read(0x10); got != 0x00c3 {
		t.Fatalf("after CLR: got 0x%x, want 0xc3", got)
	}

	Toggle(b, 0x10, 0x0101)
	if got := b.Read(0x10); got != 0x01c2 {
		t.Fatalf("after TOG: got 0x%x, want 0x1c2", got)
	}

	// Alias reads return the base register.
	if got := b.Read(0x10 + SetOffset); got != 0x01c2 {
		t.Errorf("alias read: got 0x%x, want 0x1c2", got)
	}

	if got := b.Writes(0x10); got != 4 {
		t.Errorf("Writes(0x10) = %d, want 4", got)
	}
	if got := b.AliasWrites(0x10); got != 3 {
		t.Errorf("AliasWrites(0x10) = %d, want 3", got)
	}
}

func TestMemBankOutOfRange(t *testing.T) {
	b := NewMemBank(0x10)

	b.Write(0x40, 1)
	if got := b.Read(0x40); got != 0 {
		t.Errorf("Read(0x40) = 0x%x, want 0", got)
	}
	if b.TotalWrites() != 0 {
		t.Errorf("TotalWrites() = %d, want 0", b.TotalWrites())
	}
}

func TestMemBankHook(t *testing.T) {
	b := NewMemBank(0x20)

	var gotOff, gotOld, gotNew uint32
	b.OnWrite(func(off, old, new uint32) {
		gotOff, gotOld, gotNew = off, old, new
	})

	b.Poke(0x10, 0x5)
	Set(b, 0x10, 0x2)

	if gotOff != 0x10 || gotOld != 0x5 || gotNew != 0x7 {
		t.Errorf("hook saw (0x%x, 0x%x, 0x%x), want (0x10, 0x5, 0x7)", gotOff, gotOld, gotNew)
	}

	// Poke bypasses accounting.
	if got := b.Writes(0x10); got != 1 {
		t.Errorf("Writes(0x10) = %d, want 1", got)
	}
}

func TestMemBankConcurrentAliasWrites(t *testing.T) {
	b := NewMemBank(0x20)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(bit uint32) {
			defer wg.Done()
			Set(b, 0x10, 1<<bit)
		}(uint32(i))
	}
	wg.Wait()

	if got := b.Read(0x10); got != 0xffffffff {
		t.Errorf("Read(0x10) = 0x%x, want 0xffffffff", got)
	}
}

func TestPokeBits(t *testing.T) {
	b := NewMemBank(0x20)
	b.PokeBits(0x10, 0x200, true)
	b.PokeBits(0x10, 0x1, true)
	b.PokeBits(0x10, 0x200, false)
	if got := b.Read(0x10); got != 0x1 {
		t.Errorf("Read(0x10) = 0x%x, want 0x1", got)
	}
}

func TestUpdateAndField(t *testing.T) {
	b := NewMemBank(0x80)
	b.Poke(0x40, 0xffff_ff00)

	word := Update(b, 0x40, 0x1f, 0x08)
	if word != 0xffff_ff08 {
		t.Errorf("Update() = 0x%x, want 0xffffff08", word)
	}
	if got := Field(0x0002_0000, 0x0003_0000, 16); got != 2 {
		t.Errorf("Field() = %d, want 2", got)
	}
	if got := Merge(0xabcd, 0x0f00, 0x0100); got != 0xa1cd {
		t.Errorf("Merge() = 0x%x, want 0xa1cd", got)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		off  uint32
		size int
		want error
	}{
		{"InRange", 0xc0, 0x100, nil},
		{"LastWord", 0xfc, 0x100, nil},
		{"PastEnd", 0x100, 0x100, ErrOutOfRange},
		{"Unaligned", 0x41, 0x100, ErrUnaligned},
		{"EmptyWindow", 0, 0, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.off, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("Check(0x%x, 0x%x) = %v, want %v", tt.off, tt.size, err, tt.want)
			}
		})
	}
}

func TestBaseAddress(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"80018000.pinctrl", "80044000.power", "8006c000.serial"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	if got := BaseAddress(dir); got != 0x80044000 {
		t.Errorf("BaseAddress() = 0x%x, want 0x80044000", got)
	}
}

func TestBaseAddressFallback(t *testing.T) {
	if got := BaseAddress(filepath.Join(t.TempDir(), "missing")); got != DefaultBaseAddress {
		t.Errorf("BaseAddress() = 0x%x, want default", got)
	}

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "zz.power"), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := BaseAddress(dir); got != DefaultBaseAddress {
		t.Errorf("BaseAddress() with bad name = 0x%x, want default", got)
	}
}
