// Package loader loads RISC-V program images into an emulator's DRAM.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/lancerstadium/cemu/emu"
)

// Image describes a program that has been placed in DRAM and is ready to
// run.
type Image struct {
	// Path is the file the image was loaded from.
	Path string
	// Size is the number of bytes copied into DRAM.
	Size int
	// Machine is a human-readable name for e_machine, "NA" if not
	// recognized (display only — the loader does not reject a mismatched
	// machine type, since cemu only interprets RV64I regardless of what
	// the header claims).
	Machine string
	// EntryPC is the guest-physical address execution should begin at:
	// DRAMBase + e_entry.
	EntryPC uint64
}

const (
	elfMagic0 = 0x7F
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	elfClass64 = 2

	// Field offsets within an ELF64 header.
	offEIClass = 4
	offEMachine = 18
	offEEntry   = 24
	ehdrSize    = 64
)

var machineNames = map[uint16]string{
	0x02: "SPARC",
	0x03: "x86",
	0x08: "MIPS",
	0x14: "PowerPC",
	0x28: "ARM",
	0x32: "IA-64",
	0x3E: "x86-64",
	0xB7: "AArch64",
	0xF3: "RISC-V",
}

func machineName(e uint16) string {
	if name, ok := machineNames[e]; ok {
		return name
	}
	return "NA"
}

// Load reads path, validates it as an ELF64 header, copies the whole file
// into the Bus's DRAM starting at offset 0 (mirroring load_elf's
// whole-file-blob approach rather than a segment-by-segment placement),
// and returns an Image describing where execution should start.
func Load(bus *emu.Bus, path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &emu.LoadError{Path: path, Err: err}
	}

	if len(data) < ehdrSize {
		return nil, &emu.LoadError{Path: path, Err: fmt.Errorf("file too small to be an ELF64 image (%d bytes)", len(data))}
	}
	if data[0] != elfMagic0 || data[1] != elfMagic1 || data[2] != elfMagic2 || data[3] != elfMagic3 {
		return nil, &emu.LoadError{Path: path, Err: fmt.Errorf("missing ELF magic")}
	}
	if data[offEIClass] != elfClass64 {
		return nil, &emu.LoadError{Path: path, Err: fmt.Errorf("not a 64-bit ELF file")}
	}

	machine := binary.LittleEndian.Uint16(data[offEMachine : offEMachine+2])
	entry := binary.LittleEndian.Uint64(data[offEEntry : offEEntry+8])

	if uint64(len(data)) > emu.DRAMSize-bus.DRAM().AllocSize() {
		return nil, &emu.LoadError{Path: path, Err: fmt.Errorf("image of %d bytes does not fit in DRAM", len(data))}
	}
	bus.DRAM().Alloc(data)

	img := &Image{
		Path:    path,
		Size:    len(data),
		Machine: machineName(machine),
		EntryPC: emu.DRAMBase + entry,
	}

	logrus.WithFields(logrus.Fields{
		"path":    path,
		"size":    img.Size,
		"machine": img.Machine,
		"entry":   fmt.Sprintf("0x%x", entry),
		"dram":    fmt.Sprintf("0x%x", emu.DRAMBase),
		"pc":      fmt.Sprintf("0x%x", img.EntryPC),
	}).Info("loaded program")

	return img, nil
}

// LoadRaw copies a flat binary (no ELF header) into DRAM starting at
// offset 0, without validating or parsing anything. This mirrors the
// reference implementation's simpler load_file path, used when the REPL is
// handed a binary that is not an ELF image; the caller is responsible for
// choosing where execution should start (typically DRAMBase).
func LoadRaw(bus *emu.Bus, path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &emu.LoadError{Path: path, Err: err}
	}

	if uint64(len(data)) > emu.DRAMSize-bus.DRAM().AllocSize() {
		return nil, &emu.LoadError{Path: path, Err: fmt.Errorf("image of %d bytes does not fit in DRAM", len(data))}
	}
	bus.DRAM().Alloc(data)

	return &Image{
		Path:    path,
		Size:    len(data),
		Machine: "raw",
		EntryPC: emu.DRAMBase,
	}, nil
}
