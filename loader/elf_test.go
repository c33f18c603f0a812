package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lancerstadium/cemu/emu"
	"github.com/lancerstadium/cemu/loader"
)

// buildMinimalELF64 constructs just enough of an ELF64 header (plus a
// handful of trailing instruction bytes) for Load to parse: magic, class,
// e_machine, and e_entry are the only fields cemu's loader reads.
func buildMinimalELF64(path string, machine uint16, entry uint64, payload []byte) {
	hdr := make([]byte, 64+len(payload))
	hdr[0], hdr[1], hdr[2], hdr[3] = 0x7F, 'E', 'L', 'F'
	hdr[4] = 2 // ELFCLASS64
	binary.LittleEndian.PutUint16(hdr[18:20], machine)
	binary.LittleEndian.PutUint64(hdr[24:32], entry)
	copy(hdr[64:], payload)

	err := os.WriteFile(path, hdr, 0o644)
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("ELF Loader", func() {
	var (
		tempDir string
		bus     *emu.Bus
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "cemu-loader-test")
		Expect(err).NotTo(HaveOccurred())
		bus = emu.NewBus()
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid RISC-V ELF64 image", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				buildMinimalELF64(elfPath, 0xF3, 0x80, []byte{0x13, 0x00, 0x00, 0x00})
			})

			It("resolves EntryPC as DRAMBase + e_entry", func() {
				img, err := loader.Load(bus, elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(img.EntryPC).To(Equal(uint64(emu.DRAMBase + 0x80)))
				Expect(img.Machine).To(Equal("RISC-V"))
			})

			It("copies the whole file into DRAM starting at offset 0", func() {
				img, err := loader.Load(bus, elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(bus.DRAM().AllocSize()).To(Equal(uint64(img.Size)))
			})
		})

		Context("with a bad magic number", func() {
			It("returns a LoadError", func() {
				badPath := filepath.Join(tempDir, "bad.elf")
				Expect(os.WriteFile(badPath, []byte("not an elf file at all, padded out"), 0o644)).To(Succeed())

				_, err := loader.Load(bus, badPath)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a 32-bit ELF class", func() {
			It("rejects the file", func() {
				path32 := filepath.Join(tempDir, "32bit.elf")
				data := make([]byte, 64)
				data[0], data[1], data[2], data[3] = 0x7F, 'E', 'L', 'F'
				data[4] = 1 // ELFCLASS32
				Expect(os.WriteFile(path32, data, 0o644)).To(Succeed())

				_, err := loader.Load(bus, path32)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("LoadRaw", func() {
		It("blits the file to DRAM offset 0 without validation", func() {
			rawPath := filepath.Join(tempDir, "flat.bin")
			Expect(os.WriteFile(rawPath, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644)).To(Succeed())

			img, err := loader.LoadRaw(bus, rawPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.EntryPC).To(Equal(uint64(emu.DRAMBase)))
			Expect(img.Size).To(Equal(4))
		})
	})
})
