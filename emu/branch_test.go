package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lancerstadium/cemu/emu"
	"github.com/lancerstadium/cemu/insts"
)

var _ = Describe("BranchUnit", func() {
	var (
		regFile    *emu.RegFile
		branchUnit *emu.BranchUnit
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		branchUnit = emu.NewBranchUnit(regFile)
	})

	Describe("Check", func() {
		It("takes BEQ when equal", func() {
			Expect(branchUnit.Check(insts.OpBEQ, 5, 5)).To(BeTrue())
			Expect(branchUnit.Check(insts.OpBEQ, 5, 6)).To(BeFalse())
		})

		It("takes BNE when not equal", func() {
			Expect(branchUnit.Check(insts.OpBNE, 5, 6)).To(BeTrue())
			Expect(branchUnit.Check(insts.OpBNE, 5, 5)).To(BeFalse())
		})

		It("compares BLT as signed", func() {
			negOne := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(branchUnit.Check(insts.OpBLT, negOne, 1)).To(BeTrue())
			Expect(branchUnit.Check(insts.OpBLTU, negOne, 1)).To(BeFalse())
		})

		It("compares BGE as signed", func() {
			negOne := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(branchUnit.Check(insts.OpBGE, 1, negOne)).To(BeTrue())
		})

		It("compares BGEU as unsigned, not the reference's mislabeled jal", func() {
			negOne := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(branchUnit.Check(insts.OpBGEU, negOne, 1)).To(BeTrue())
			Expect(insts.OpBGEU.String()).To(Equal("bgeu"))
		})
	})

	Describe("JAL", func() {
		It("links rd to pc+4 and returns the target", func() {
			target := branchUnit.JAL(1, 0x1000, 16)

			Expect(target).To(Equal(uint64(0x1010)))
			Expect(regFile.ReadReg(1)).To(Equal(uint64(0x1004)))
		})

		It("discards a link into x0", func() {
			branchUnit.JAL(0, 0x1000, 16)
			Expect(regFile.ReadReg(0)).To(Equal(uint64(0)))
		})
	})

	Describe("JALR", func() {
		It("clears bit 0 of the computed target", func() {
			regFile.WriteReg(2, 0x2001)
			target := branchUnit.JALR(1, 0x1000, regFile.ReadReg(2), 0)

			Expect(target).To(Equal(uint64(0x2000)))
			Expect(regFile.ReadReg(1)).To(Equal(uint64(0x1004)))
		})
	})
})
