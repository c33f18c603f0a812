package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lancerstadium/cemu/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("U-type", func() {
		It("decodes LUI x1, 0x12345", func() {
			// imm=0x12345, rd=1, opcode=0x37
			word := uint32(0x12345000) | 1<<7 | 0x37
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rd).To(Equal(uint32(1)))
			Expect(inst.Imm).To(Equal(int64(0x12345000)))
		})

		It("decodes AUIPC with a negative immediate", func() {
			word := uint32(0xFFFFF000) | 2<<7 | 0x17
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(inst.Imm).To(Equal(int64(-0x1000)))
		})
	})

	Describe("J-type", func() {
		It("decodes JAL x1, 0 with rd=1", func() {
			word := uint32(1)<<7 | 0x6f
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Rd).To(Equal(uint32(1)))
			Expect(inst.Imm).To(Equal(int64(0)))
		})
	})

	Describe("I-type ALU", func() {
		It("decodes ADDI x5, x6, 10", func() {
			word := uint32(10)<<20 | uint32(6)<<15 | uint32(0)<<12 | uint32(5)<<7 | 0x13
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rd).To(Equal(uint32(5)))
			Expect(inst.Rs1).To(Equal(uint32(6)))
			Expect(inst.Imm).To(Equal(int64(10)))
		})

		It("decodes ADDI with a negative immediate", func() {
			imm12 := uint32(0xFFF) // -1
			word := imm12<<20 | uint32(1)<<15 | uint32(0)<<12 | uint32(2)<<7 | 0x13
			inst := decoder.Decode(word)

			Expect(inst.Imm).To(Equal(int64(-1)))
		})

		It("decodes SRAI with a 6-bit shamt", func() {
			shamt := uint32(33) // bit 5 of shamt lands in inst[25]
			f7 := uint32(0x20)  // funct7[31:25] upper bits select arithmetic
			word := f7<<25 | shamt<<20 | uint32(3)<<15 | uint32(5)<<12 | uint32(4)<<7 | 0x13
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Shamt).To(Equal(uint32(33)))
		})
	})

	Describe("R-type ALU", func() {
		It("decodes ADD x1, x2, x3", func() {
			word := uint32(3)<<20 | uint32(2)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x33
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Rd).To(Equal(uint32(1)))
			Expect(inst.Rs1).To(Equal(uint32(2)))
			Expect(inst.Rs2).To(Equal(uint32(3)))
		})

		It("decodes SUB via funct7=0x20", func() {
			word := uint32(0x20)<<25 | uint32(3)<<20 | uint32(2)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x33
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpSUB))
		})
	})

	Describe("S-type", func() {
		It("decodes SW with a split immediate", func() {
			// imm = 0xFFF (all ones in 12 bits, so -1), rs2=4, rs1=5
			word := uint32(0x7F)<<25 | uint32(4)<<20 | uint32(5)<<15 | uint32(2)<<12 | uint32(0x1F)<<7 | 0x23
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(insts.FormatS))
			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Rs1).To(Equal(uint32(5)))
			Expect(inst.Rs2).To(Equal(uint32(4)))
			Expect(inst.Imm).To(Equal(int64(-1)))
		})
	})

	Describe("B-type", func() {
		It("decodes BEQ with a positive offset", func() {
			// encode branch offset 8: bit11=0 bit[4:1]=0100 bit[10:5]=0 bit12=0
			word := uint32(0)<<31 | uint32(0)<<25 | uint32(2)<<20 | uint32(1)<<15 |
				uint32(0)<<12 | uint32(4)<<8 | uint32(0)<<7 | 0x63
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(insts.FormatB))
			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Imm).To(Equal(int64(8)))
		})

		It("decodes BGEU and not the mislogged jal bug", func() {
			word := uint32(2)<<20 | uint32(1)<<15 | uint32(7)<<12 | 0x63
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpBGEU))
			Expect(inst.Op.String()).To(Equal("bgeu"))
		})
	})

	Describe("loads and stores", func() {
		It("decodes LBU as zero-extending", func() {
			word := uint32(0)<<20 | uint32(1)<<15 | uint32(4)<<12 | uint32(2)<<7 | 0x03
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpLBU))
		})

		It("decodes LD", func() {
			word := uint32(0)<<20 | uint32(1)<<15 | uint32(3)<<12 | uint32(2)<<7 | 0x03
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpLD))
		})
	})

	Describe("W-form ops", func() {
		It("decodes ADDIW", func() {
			word := uint32(5)<<20 | uint32(1)<<15 | uint32(0)<<12 | uint32(2)<<7 | 0x1b
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpADDIW))
		})

		It("decodes MULW via funct7=1", func() {
			word := uint32(1)<<25 | uint32(3)<<20 | uint32(2)<<15 | uint32(0)<<12 | uint32(1)<<7 | 0x3b
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpMULW))
		})
	})

	Describe("CSR", func() {
		It("decodes CSRRS with a 12-bit csr index", func() {
			word := uint32(0x305)<<20 | uint32(1)<<15 | uint32(2)<<12 | uint32(3)<<7 | 0x73
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpCSRRS))
			Expect(inst.Csr).To(Equal(uint32(0x305)))
		})

		It("decodes ECALL", func() {
			word := uint32(0x73)
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpECALL))
		})

		It("decodes EBREAK", func() {
			word := uint32(1)<<20 | 0x73
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpEBREAK))
		})
	})

	Describe("AMO", func() {
		It("decodes AMOADD.W", func() {
			word := uint32(0x00)<<27 | uint32(3)<<20 | uint32(1)<<15 | uint32(2)<<12 | uint32(4)<<7 | 0x2f
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpAMOADD_W))
		})

		It("decodes AMOXOR.D at 64-bit width", func() {
			word := uint32(0x04)<<27 | uint32(3)<<20 | uint32(1)<<15 | uint32(3)<<12 | uint32(4)<<7 | 0x2f
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpAMOXOR_D))
		})

		It("decodes LR.W as a recognized no-op stub", func() {
			word := uint32(0x02)<<27 | uint32(1)<<15 | uint32(2)<<12 | uint32(4)<<7 | 0x2f
			inst := decoder.Decode(word)

			Expect(inst.Op).To(Equal(insts.OpLR_W))
		})
	})

	Describe("unknown encodings", func() {
		It("reports FormatInvalid for an unused major opcode", func() {
			inst := decoder.Decode(0x7F)
			Expect(inst.Format).To(Equal(insts.FormatInvalid))
			Expect(inst.Op).To(Equal(insts.OpInvalid))
		})
	})
})
