package emu

// ALU implements the RV64I integer-arithmetic execute units: the R-type
// register-register ops, the I-type register-immediate ops, and their
// 32-bit W-form counterparts (which operate on the low 32 bits and
// sign-extend the result to 64 bits, per the base ISA's RV64 extension).
type ALU struct {
	regFile *RegFile
}

// NewALU creates an ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Reg performs a register-register op: rd = rs1 <op> rs2.
func (a *ALU) Reg(rd, rs1, rs2 uint32, op func(a, b uint64) uint64) {
	v1 := a.regFile.ReadReg(rs1)
	v2 := a.regFile.ReadReg(rs2)
	a.regFile.WriteReg(rd, op(v1, v2))
}

// Imm performs a register-immediate op: rd = rs1 <op> imm.
func (a *ALU) Imm(rd, rs1 uint32, imm int64, op func(a uint64, b int64) uint64) {
	v1 := a.regFile.ReadReg(rs1)
	a.regFile.WriteReg(rd, op(v1, imm))
}

// ADD computes rd = rs1 + rs2.
func (a *ALU) ADD(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x + y })
}

// SUB computes rd = rs1 - rs2.
func (a *ALU) SUB(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x - y })
}

// SLL computes rd = rs1 << (rs2 & 0x3f).
func (a *ALU) SLL(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x << (y & 0x3f) })
}

// SLT sets rd = 1 if rs1 < rs2 as signed 64-bit values, else 0.
func (a *ALU) SLT(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 {
		if int64(x) < int64(y) {
			return 1
		}
		return 0
	})
}

// SLTU sets rd = 1 if rs1 < rs2 as unsigned 64-bit values, else 0.
func (a *ALU) SLTU(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 {
		if x < y {
			return 1
		}
		return 0
	})
}

// XOR computes rd = rs1 ^ rs2.
func (a *ALU) XOR(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x ^ y })
}

// SRL computes rd = rs1 >> (rs2 & 0x3f), logical.
func (a *ALU) SRL(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x >> (y & 0x3f) })
}

// SRA computes rd = rs1 >> (rs2 & 0x3f), arithmetic.
func (a *ALU) SRA(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 {
		return uint64(int64(x) >> (y & 0x3f))
	})
}

// OR computes rd = rs1 | rs2.
func (a *ALU) OR(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x | y })
}

// AND computes rd = rs1 & rs2.
func (a *ALU) AND(rd, rs1, rs2 uint32) {
	a.Reg(rd, rs1, rs2, func(x, y uint64) uint64 { return x & y })
}

// ADDI computes rd = rs1 + imm.
func (a *ALU) ADDI(rd, rs1 uint32, imm int64) {
	a.Imm(rd, rs1, imm, func(x uint64, y int64) uint64 { return x + uint64(y) })
}

// SLTI sets rd = 1 if rs1 < imm as signed values, else 0.
func (a *ALU) SLTI(rd, rs1 uint32, imm int64) {
	a.Imm(rd, rs1, imm, func(x uint64, y int64) uint64 {
		if int64(x) < y {
			return 1
		}
		return 0
	})
}

// SLTIU sets rd = 1 if rs1 < imm as unsigned values (imm sign-extended then
// reinterpreted unsigned, per the manual), else 0.
func (a *ALU) SLTIU(rd, rs1 uint32, imm int64) {
	a.Imm(rd, rs1, imm, func(x uint64, y int64) uint64 {
		if x < uint64(y) {
			return 1
		}
		return 0
	})
}

// XORI computes rd = rs1 ^ imm.
func (a *ALU) XORI(rd, rs1 uint32, imm int64) {
	a.Imm(rd, rs1, imm, func(x uint64, y int64) uint64 { return x ^ uint64(y) })
}

// ORI computes rd = rs1 | imm.
func (a *ALU) ORI(rd, rs1 uint32, imm int64) {
	a.Imm(rd, rs1, imm, func(x uint64, y int64) uint64 { return x | uint64(y) })
}

// ANDI computes rd = rs1 & imm.
func (a *ALU) ANDI(rd, rs1 uint32, imm int64) {
	a.Imm(rd, rs1, imm, func(x uint64, y int64) uint64 { return x & uint64(y) })
}

// SLLI computes rd = rs1 << shamt (shamt is the 6-bit RV64 shift amount).
func (a *ALU) SLLI(rd, rs1 uint32, shamt uint32) {
	v := a.regFile.ReadReg(rs1)
	a.regFile.WriteReg(rd, v<<(shamt&0x3f))
}

// SRLI computes rd = rs1 >> shamt, logical.
func (a *ALU) SRLI(rd, rs1 uint32, shamt uint32) {
	v := a.regFile.ReadReg(rs1)
	a.regFile.WriteReg(rd, v>>(shamt&0x3f))
}

// SRAI computes rd = rs1 >> shamt, arithmetic.
func (a *ALU) SRAI(rd, rs1 uint32, shamt uint32) {
	v := a.regFile.ReadReg(rs1)
	a.regFile.WriteReg(rd, uint64(int64(v)>>(shamt&0x3f)))
}

// w32 sign-extends the low 32 bits of result to 64 bits, as every W-form op
// does before writing rd.
func w32(result uint32) uint64 {
	return uint64(int64(int32(result)))
}

// ADDIW computes rd = sext32(rs1[31:0] + imm).
func (a *ALU) ADDIW(rd, rs1 uint32, imm int64) {
	v := uint32(a.regFile.ReadReg(rs1))
	a.regFile.WriteReg(rd, w32(v+uint32(imm)))
}

// SLLIW computes rd = sext32(rs1[31:0] << shamt), shamt is 5 bits.
func (a *ALU) SLLIW(rd, rs1 uint32, shamt uint32) {
	v := uint32(a.regFile.ReadReg(rs1))
	a.regFile.WriteReg(rd, w32(v<<(shamt&0x1f)))
}

// SRLIW computes rd = sext32(rs1[31:0] >> shamt), logical, shamt is 5 bits.
func (a *ALU) SRLIW(rd, rs1 uint32, shamt uint32) {
	v := uint32(a.regFile.ReadReg(rs1))
	a.regFile.WriteReg(rd, w32(v>>(shamt&0x1f)))
}

// SRAIW computes rd = sext32(rs1[31:0] >> shamt), arithmetic, shamt is 5 bits.
func (a *ALU) SRAIW(rd, rs1 uint32, shamt uint32) {
	v := int32(uint32(a.regFile.ReadReg(rs1)))
	a.regFile.WriteReg(rd, w32(uint32(v>>(shamt&0x1f))))
}

// ADDW computes rd = sext32(rs1[31:0] + rs2[31:0]).
func (a *ALU) ADDW(rd, rs1, rs2 uint32) {
	v1 := uint32(a.regFile.ReadReg(rs1))
	v2 := uint32(a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, w32(v1+v2))
}

// SUBW computes rd = sext32(rs1[31:0] - rs2[31:0]).
func (a *ALU) SUBW(rd, rs1, rs2 uint32) {
	v1 := uint32(a.regFile.ReadReg(rs1))
	v2 := uint32(a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, w32(v1-v2))
}

// SLLW computes rd = sext32(rs1[31:0] << (rs2 & 0x1f)).
func (a *ALU) SLLW(rd, rs1, rs2 uint32) {
	v1 := uint32(a.regFile.ReadReg(rs1))
	v2 := uint32(a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, w32(v1<<(v2&0x1f)))
}

// SRLW computes rd = sext32(rs1[31:0] >> (rs2 & 0x1f)), logical.
func (a *ALU) SRLW(rd, rs1, rs2 uint32) {
	v1 := uint32(a.regFile.ReadReg(rs1))
	v2 := uint32(a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, w32(v1>>(v2&0x1f)))
}

// SRAW computes rd = sext32(rs1[31:0] >> (rs2 & 0x1f)), arithmetic.
func (a *ALU) SRAW(rd, rs1, rs2 uint32) {
	v1 := int32(uint32(a.regFile.ReadReg(rs1)))
	v2 := uint32(a.regFile.ReadReg(rs2))
	a.regFile.WriteReg(rd, w32(uint32(v1>>(v2&0x1f))))
}

// MULW computes rd = sext32(rs1[31:0] * rs2[31:0]).
func (a *ALU) MULW(rd, rs1, rs2 uint32) {
	v1 := int32(uint32(a.regFile.ReadReg(rs1)))
	v2 := int32(uint32(a.regFile.ReadReg(rs2)))
	a.regFile.WriteReg(rd, w32(uint32(v1*v2)))
}

// DIVW computes rd = sext32(rs1[31:0] / rs2[31:0]), signed. Division by
// zero yields -1 per the RISC-V manual's convention, not a trap.
func (a *ALU) DIVW(rd, rs1, rs2 uint32) {
	v1 := int32(uint32(a.regFile.ReadReg(rs1)))
	v2 := int32(uint32(a.regFile.ReadReg(rs2)))
	if v2 == 0 {
		a.regFile.WriteReg(rd, uint64(int64(-1)))
		return
	}
	if v1 == -0x80000000 && v2 == -1 {
		a.regFile.WriteReg(rd, w32(uint32(v1)))
		return
	}
	a.regFile.WriteReg(rd, w32(uint32(v1/v2)))
}

// DIVUW computes rd = sext32(rs1[31:0] / rs2[31:0]), unsigned. Division by
// zero yields all-ones.
func (a *ALU) DIVUW(rd, rs1, rs2 uint32) {
	v1 := uint32(a.regFile.ReadReg(rs1))
	v2 := uint32(a.regFile.ReadReg(rs2))
	if v2 == 0 {
		a.regFile.WriteReg(rd, w32(0xFFFFFFFF))
		return
	}
	a.regFile.WriteReg(rd, w32(v1/v2))
}

// REMW computes rd = sext32(rs1[31:0] % rs2[31:0]), signed. Remainder by
// zero yields rs1 unchanged (sign-extended) per the manual's convention.
func (a *ALU) REMW(rd, rs1, rs2 uint32) {
	v1 := int32(uint32(a.regFile.ReadReg(rs1)))
	v2 := int32(uint32(a.regFile.ReadReg(rs2)))
	if v2 == 0 {
		a.regFile.WriteReg(rd, w32(uint32(v1)))
		return
	}
	if v1 == -0x80000000 && v2 == -1 {
		a.regFile.WriteReg(rd, 0)
		return
	}
	a.regFile.WriteReg(rd, w32(uint32(v1%v2)))
}

// REMUW computes rd = sext32(rs1[31:0] % rs2[31:0]), unsigned.
func (a *ALU) REMUW(rd, rs1, rs2 uint32) {
	v1 := uint32(a.regFile.ReadReg(rs1))
	v2 := uint32(a.regFile.ReadReg(rs2))
	if v2 == 0 {
		a.regFile.WriteReg(rd, w32(v1))
		return
	}
	a.regFile.WriteReg(rd, w32(v1%v2))
}
