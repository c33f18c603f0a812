package emu

// LoadStoreUnit implements the RV64I load and store execute units: LB/LH/
// LW/LD/LBU/LHU/LWU and SB/SH/SW/SD, each addressed as rs1+imm.
type LoadStoreUnit struct {
	regFile *RegFile
	bus     *Bus
}

// NewLoadStoreUnit creates a LoadStoreUnit connected to the given register
// file and bus.
func NewLoadStoreUnit(regFile *RegFile, bus *Bus) *LoadStoreUnit {
	return &LoadStoreUnit{regFile: regFile, bus: bus}
}

func (lsu *LoadStoreUnit) addr(rs1 uint32, imm int64) uint64 {
	return uint64(int64(lsu.regFile.ReadReg(rs1)) + imm)
}

// LB loads a sign-extended byte: rd = sext8(mem[rs1+imm]).
func (lsu *LoadStoreUnit) LB(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read8(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, uint64(int64(int8(value))))
	return nil
}

// LBU loads a zero-extended byte: rd = zext8(mem[rs1+imm]).
func (lsu *LoadStoreUnit) LBU(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read8(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, uint64(value))
	return nil
}

// LH loads a sign-extended halfword.
func (lsu *LoadStoreUnit) LH(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read16(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, uint64(int64(int16(value))))
	return nil
}

// LHU loads a zero-extended halfword.
func (lsu *LoadStoreUnit) LHU(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read16(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, uint64(value))
	return nil
}

// LW loads a sign-extended word.
func (lsu *LoadStoreUnit) LW(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read32(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, uint64(int64(int32(value))))
	return nil
}

// LWU loads a zero-extended word.
func (lsu *LoadStoreUnit) LWU(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read32(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, uint64(value))
	return nil
}

// LD loads a doubleword.
func (lsu *LoadStoreUnit) LD(rd, rs1 uint32, imm int64) error {
	value, err := lsu.bus.Read64(lsu.addr(rs1, imm))
	if err != nil {
		return err
	}
	lsu.regFile.WriteReg(rd, value)
	return nil
}

// SB stores the low byte of rs2 at rs1+imm.
func (lsu *LoadStoreUnit) SB(rs1, rs2 uint32, imm int64) error {
	return lsu.bus.Write8(lsu.addr(rs1, imm), uint8(lsu.regFile.ReadReg(rs2)))
}

// SH stores the low halfword of rs2 at rs1+imm.
func (lsu *LoadStoreUnit) SH(rs1, rs2 uint32, imm int64) error {
	return lsu.bus.Write16(lsu.addr(rs1, imm), uint16(lsu.regFile.ReadReg(rs2)))
}

// SW stores the low word of rs2 at rs1+imm.
func (lsu *LoadStoreUnit) SW(rs1, rs2 uint32, imm int64) error {
	return lsu.bus.Write32(lsu.addr(rs1, imm), uint32(lsu.regFile.ReadReg(rs2)))
}

// SD stores rs2 at rs1+imm.
func (lsu *LoadStoreUnit) SD(rs1, rs2 uint32, imm int64) error {
	return lsu.bus.Write64(lsu.addr(rs1, imm), lsu.regFile.ReadReg(rs2))
}
