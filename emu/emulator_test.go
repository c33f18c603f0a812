package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lancerstadium/cemu/emu"
)

// rType/iType/sType/bType/uType/jType build raw instruction words using the
// same bit layout the decoder expects; they exist only to give these tests
// readable program fragments without hand-computing hex literals.

func rType(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func iType(opcode, funct3, rd, rs1 uint32, imm int64) uint32 {
	return uint32(imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func sType(opcode, funct3, rs1, rs2 uint32, imm int64) uint32 {
	u := uint32(imm) & 0xFFF
	return (u>>5)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

func bType(opcode, funct3, rs1, rs2 uint32, imm int64) uint32 {
	u := uint32(imm)
	bit12 := (u >> 12) & 1
	bit11 := (u >> 11) & 1
	bits10_5 := (u >> 5) & 0x3F
	bits4_1 := (u >> 1) & 0xF
	return bit12<<31 | bits10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | bits4_1<<8 | bit11<<7 | opcode
}

func jType(opcode, rd uint32, imm int64) uint32 {
	u := uint32(imm)
	bit20 := (u >> 20) & 1
	bits10_1 := (u >> 1) & 0x3FF
	bit11 := (u >> 11) & 1
	bits19_12 := (u >> 12) & 0xFF
	return bit20<<31 | bits10_1<<21 | bit11<<20 | bits19_12<<12 | rd<<7 | opcode
}

// uType builds a U-type word where imm20 is the already-positioned 20-bit
// value (i.e. the result occupies bits [31:12], matching how immU reads it
// straight back out).
func uType(opcode, rd, imm20 uint32) uint32 {
	return imm20<<12 | rd<<7 | opcode
}

const (
	opLoad   = 0x03
	opStore  = 0x23
	opImm    = 0x13
	opReg    = 0x33
	opBranch = 0x63
	opJAL    = 0x6f
	opJALR   = 0x67
	opSystem = 0x73
	opAUIPC  = 0x17
)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	Describe("NewEmulator", func() {
		It("initializes x2 to the top of DRAM and PC to DRAMBase", func() {
			Expect(e.RegFile().ReadReg(2)).To(Equal(uint64(emu.DRAMBase + emu.DRAMSize)))
			Expect(e.PC()).To(Equal(uint64(emu.DRAMBase)))
		})
	})

	Describe("ADDI then ADD", func() {
		It("computes x3 = x1 + x2 after loading both with ADDI", func() {
			prog := []uint32{
				iType(opImm, 0x0, 1, 0, 5),    // addi x1, x0, 5
				iType(opImm, 0x0, 2, 0, 7),    // addi x2, x0, 7
				rType(opReg, 0x0, 0x00, 3, 1, 2), // add x3, x1, x2
				iType(opSystem, 0x0, 0, 0, 1), // ebreak
			}
			loadProgram(e, prog)

			for i := 0; i < 3; i++ {
				result := e.Step()
				Expect(result.Err).To(BeNil())
			}

			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(12)))
		})
	})

	Describe("store/load round trip", func() {
		It("reads back a stored doubleword", func() {
			prog := []uint32{
				uType(opAUIPC, 1, 0),          // auipc x1, 0  (x1 = this instruction's pc)
				iType(opImm, 0x0, 1, 1, 256),  // addi x1, x1, 256 (scratch area past the code)
				iType(opImm, 0x0, 2, 0, -1),   // addi x2, x0, -1
				sType(opStore, 0x3, 1, 2, 0),  // sd x2, 0(x1)
				iType(opLoad, 0x3, 3, 1, 0),   // ld x3, 0(x1)
			}
			loadProgram(e, prog)

			for range prog {
				result := e.Step()
				Expect(result.Err).To(BeNil())
			}

			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
		})
	})

	Describe("unsigned load", func() {
		It("zero-extends LBU instead of sign-extending", func() {
			prog := []uint32{
				uType(opAUIPC, 1, 0),
				iType(opImm, 0x0, 1, 1, 256),
				iType(opImm, 0x0, 2, 0, -1),  // 0xFF in the low byte
				sType(opStore, 0x0, 1, 2, 0), // sb x2, 0(x1)
				iType(opLoad, 0x4, 3, 1, 0),  // lbu x3, 0(x1)
			}
			loadProgram(e, prog)

			for range prog {
				result := e.Step()
				Expect(result.Err).To(BeNil())
			}

			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(0xFF)))
		})
	})

	Describe("taken branch", func() {
		It("skips the next instruction on BEQ", func() {
			prog := []uint32{
				iType(opImm, 0x0, 1, 0, 5),
				iType(opImm, 0x0, 2, 0, 5),
				bType(opBranch, 0x0, 1, 2, 8), // beq x1, x2, +8 (skip one instruction)
				iType(opImm, 0x0, 3, 0, 111),  // skipped
				iType(opImm, 0x0, 3, 0, 222),  // landed on
			}
			loadProgram(e, prog)

			for i := 0; i < 4; i++ {
				result := e.Step()
				Expect(result.Err).To(BeNil())
			}

			Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(222)))
		})
	})

	Describe("JAL link register", func() {
		It("stores the return address in rd", func() {
			prog := []uint32{
				jType(opJAL, 1, 8), // jal x1, +8
				iType(opImm, 0x0, 2, 0, 1),
				iType(opImm, 0x0, 3, 0, 2),
			}
			loadProgram(e, prog)

			result := e.Step()
			Expect(result.Err).To(BeNil())

			Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(emu.DRAMBase + 4)))
			Expect(e.PC()).To(Equal(uint64(emu.DRAMBase + 8)))
		})
	})

	Describe("illegal instruction", func() {
		It("halts with an IllegalInstruction error", func() {
			prog := []uint32{0xFFFFFFFF}
			loadProgram(e, prog)

			result := e.Step()
			Expect(result.Exited).To(BeTrue())
			var illegal *emu.IllegalInstruction
			Expect(result.Err).To(BeAssignableToTypeOf(illegal))
		})
	})
})

func loadProgram(e *emu.Emulator, words []uint32) {
	loadProgramAt(e, words, emu.DRAMBase)
	e.SetPC(emu.DRAMBase)
}

// loadProgramAt writes words as little-endian 32-bit instructions starting
// at base and leaves PC wherever it already was, so tests
// that only want data placed in memory (not executed from the start) can
// reuse it.
func loadProgramAt(e *emu.Emulator, words []uint32, base uint64) {
	for i, w := range words {
		_ = e.Bus().Write32(base+uint64(i*4), w)
	}
}
