package emu

import "encoding/binary"

// DRAMBase is the guest-physical address the DRAM window starts at.
const DRAMBase = 0x8000_0000

// DRAMSize is the size in bytes of the emulated DRAM window.
const DRAMSize = 1 << 20 // 1 MiB

// DRAM is a flat byte-addressable memory window, matching the reference
// emulator's single contiguous RAM region. allocSize tracks how many bytes
// from the start of the buffer have actually been populated, by a loader or
// by a store; loads are bounds-checked against allocSize, stores against the
// full DRAMSize, mirroring dram_load_data/dram_write_data in the original
// implementation.
type DRAM struct {
	data      [DRAMSize]byte
	allocSize uint64
}

// NewDRAM returns a zeroed DRAM window with nothing allocated yet.
func NewDRAM() *DRAM {
	return &DRAM{}
}

// gpaToOffset translates a guest-physical address into a DRAM byte offset.
func gpaToOffset(addr uint64) (uint64, bool) {
	if addr < DRAMBase {
		return 0, false
	}
	off := addr - DRAMBase
	if off >= DRAMSize {
		return 0, false
	}
	return off, true
}

// offsetToGPA is the inverse of gpaToOffset.
func offsetToGPA(off uint64) uint64 {
	return DRAMBase + off
}

// Alloc appends data to the DRAM window at the current allocation watermark
// (offset 0 on a fresh DRAM), advancing the watermark, and returns the
// offset the data was written at. It
// is used by the loader to place a program image before execution begins.
// Alloc panics if data would overflow DRAMSize; this is a loader-time
// invariant violation, not a runtime fault a guest program can trigger.
func (d *DRAM) Alloc(data []byte) uint64 {
	start := d.allocSize
	end := start + uint64(len(data))
	if end > DRAMSize {
		panic("emu: program image exceeds DRAM size")
	}
	copy(d.data[start:end], data)
	d.allocSize = end
	return start
}

// AllocSize returns the number of bytes currently allocated (the load
// watermark).
func (d *DRAM) AllocSize() uint64 {
	return d.allocSize
}

func (d *DRAM) checkLoad(off uint64, width uint64) error {
	if off+width > d.allocSize {
		return &AddressFault{Addr: offsetToGPA(off), Op: "load"}
	}
	return nil
}

func (d *DRAM) checkStore(off uint64, width uint64) error {
	if off+width > DRAMSize {
		return &AddressFault{Addr: offsetToGPA(off), Op: "store"}
	}
	// A store that reaches past the watermark extends it, so the bytes it
	// writes can be loaded back.
	if off+width > d.allocSize {
		d.allocSize = off + width
	}
	return nil
}

// Bus is the single-device address router between the CPU and DRAM. The
// reference implementation's bus_load/bus_store are thin wrappers around
// the DRAM functions via mmu_get_offset; Bus mirrors that shape even though
// there is exactly one device behind it.
type Bus struct {
	dram *DRAM
}

// NewBus creates a Bus backed by a fresh DRAM window.
func NewBus() *Bus {
	return &Bus{dram: NewDRAM()}
}

// DRAM exposes the underlying DRAM window, e.g. for the loader.
func (b *Bus) DRAM() *DRAM {
	return b.dram
}

// Read8 loads a byte from addr.
func (b *Bus) Read8(addr uint64) (uint8, error) {
	off, ok := gpaToOffset(addr)
	if !ok {
		return 0, &AddressFault{Addr: addr, Op: "load"}
	}
	if err := b.dram.checkLoad(off, 1); err != nil {
		return 0, err
	}
	return b.dram.data[off], nil
}

// Read16 loads a little-endian halfword from addr.
func (b *Bus) Read16(addr uint64) (uint16, error) {
	off, ok := gpaToOffset(addr)
	if !ok {
		return 0, &AddressFault{Addr: addr, Op: "load"}
	}
	if err := b.dram.checkLoad(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.dram.data[off : off+2]), nil
}

// Read32 loads a little-endian word from addr.
func (b *Bus) Read32(addr uint64) (uint32, error) {
	off, ok := gpaToOffset(addr)
	if !ok {
		return 0, &AddressFault{Addr: addr, Op: "load"}
	}
	if err := b.dram.checkLoad(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.dram.data[off : off+4]), nil
}

// Read64 loads a little-endian doubleword from addr.
func (b *Bus) Read64(addr uint64) (uint64, error) {
	off, ok := gpaToOffset(addr)
	if !ok {
		return 0, &AddressFault{Addr: addr, Op: "load"}
	}
	if err := b.dram.checkLoad(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b.dram.data[off : off+8]), nil
}

// Write8 stores a byte at addr.
func (b *Bus) Write8(addr uint64, value uint8) error {
	off, ok := gpaToOffset(addr)
	if !ok {
		return &AddressFault{Addr: addr, Op: "store"}
	}
	if err := b.dram.checkStore(off, 1); err != nil {
		return err
	}
	b.dram.data[off] = value
	return nil
}

// Write16 stores a little-endian halfword at addr.
func (b *Bus) Write16(addr uint64, value uint16) error {
	off, ok := gpaToOffset(addr)
	if !ok {
		return &AddressFault{Addr: addr, Op: "store"}
	}
	if err := b.dram.checkStore(off, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.dram.data[off:off+2], value)
	return nil
}

// Write32 stores a little-endian word at addr.
func (b *Bus) Write32(addr uint64, value uint32) error {
	off, ok := gpaToOffset(addr)
	if !ok {
		return &AddressFault{Addr: addr, Op: "store"}
	}
	if err := b.dram.checkStore(off, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.dram.data[off:off+4], value)
	return nil
}

// Write64 stores a little-endian doubleword at addr.
func (b *Bus) Write64(addr uint64, value uint64) error {
	off, ok := gpaToOffset(addr)
	if !ok {
		return &AddressFault{Addr: addr, Op: "store"}
	}
	if err := b.dram.checkStore(off, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.dram.data[off:off+8], value)
	return nil
}
