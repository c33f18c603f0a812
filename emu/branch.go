package emu

import "github.com/lancerstadium/cemu/insts"

// BranchUnit implements RV64I control-transfer execute units: the
// register-compare conditional branches, and the link-register bookkeeping
// for JAL/JALR. Unlike a flags-based ISA, RV64I branches compare two
// registers directly, so there is no PSTATE to consult.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Check evaluates a branch op against two register values and reports
// whether the branch is taken.
func (b *BranchUnit) Check(op insts.Op, rs1, rs2 uint64) bool {
	switch op {
	case insts.OpBEQ:
		return rs1 == rs2
	case insts.OpBNE:
		return rs1 != rs2
	case insts.OpBLT:
		return int64(rs1) < int64(rs2)
	case insts.OpBGE:
		return int64(rs1) >= int64(rs2)
	case insts.OpBLTU:
		return rs1 < rs2
	case insts.OpBGEU:
		return rs1 >= rs2
	default:
		return false
	}
}

// JAL writes PC+4 to rd and returns the jump target pc+imm.
func (b *BranchUnit) JAL(rd uint32, pc uint64, imm int64) uint64 {
	b.regFile.WriteReg(rd, pc+4)
	return uint64(int64(pc) + imm)
}

// JALR writes PC+4 to rd and returns the jump target (rs1+imm) with bit 0
// cleared, per the RISC-V manual.
func (b *BranchUnit) JALR(rd uint32, pc uint64, rs1Val uint64, imm int64) uint64 {
	target := uint64(int64(rs1Val)+imm) &^ 1
	b.regFile.WriteReg(rd, pc+4)
	return target
}
