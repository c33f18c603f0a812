package monitor_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lancerstadium/cemu/emu"
	"github.com/lancerstadium/cemu/monitor"
)

var _ = Describe("Monitor", func() {
	var (
		e       *emu.Emulator
		out     *bytes.Buffer
		tempDir string
		prevDir string
	)

	BeforeEach(func() {
		e = emu.NewEmulator()
		out = &bytes.Buffer{}

		var err error
		tempDir, err = os.MkdirTemp("", "cemu-monitor-test")
		Expect(err).NotTo(HaveOccurred())
		prevDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		_ = os.Chdir(prevDir)
		_ = os.RemoveAll(tempDir)
	})

	Describe("command dispatch", func() {
		It("recognizes the help command", func() {
			in := strings.NewReader("help\nquit\n")
			m := monitor.New(e, in, out)
			m.Run()

			Expect(out.String()).To(ContainSubstring("commands:"))
		})

		It("reports an unknown command", func() {
			in := strings.NewReader("bogus\nquit\n")
			m := monitor.New(e, in, out)
			m.Run()

			Expect(out.String()).To(ContainSubstring("unknown command"))
		})

		It("persists commands to history.txt", func() {
			in := strings.NewReader("help\nquit\n")
			m := monitor.New(e, in, out)
			m.Run()

			data, err := os.ReadFile(filepath.Join(tempDir, "history.txt"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("help"))
		})
	})

	Describe("step", func() {
		It("advances the pc by 4 per instruction", func() {
			_ = e.Bus().Write32(emu.DRAMBase, 0x00000013) // nop (addi x0, x0, 0)
			_ = e.Bus().Write32(emu.DRAMBase+4, 0x00000013)

			in := strings.NewReader("step 2\nquit\n")
			m := monitor.New(e, in, out)
			m.Run()

			Expect(e.PC()).To(Equal(uint64(emu.DRAMBase + 8)))
		})
	})
})
