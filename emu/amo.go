package emu

import "github.com/lancerstadium/cemu/insts"

// AMOUnit implements the atomic-memory-operation execute unit. Only
// AMOADD/AMOXOR/AMOAND/AMOOR execute behaviourally, at both .W (32-bit,
// sign-extended result) and .D (64-bit) width; LR/SC/AMOSWAP/AMOMIN/AMOMAX/
// AMOMINU/AMOMAXU are decoded and dispatched but have no effect: memory and
// rd are left unchanged, matching the reference implementation's empty
// exec_* stubs for those opcodes.
type AMOUnit struct {
	regFile *RegFile
	bus     *Bus
}

// NewAMOUnit creates an AMOUnit connected to the given register file and
// bus.
func NewAMOUnit(regFile *RegFile, bus *Bus) *AMOUnit {
	return &AMOUnit{regFile: regFile, bus: bus}
}

// Execute dispatches an AMO instruction. rd receives the old value at
// mem[rs1] (sign-extended for the .W forms) before the memory write, per
// the RISC-V manual; no-op variants leave rd unchanged.
func (u *AMOUnit) Execute(op insts.Op, rd, rs1, rs2 uint32) error {
	addr := u.regFile.ReadReg(rs1)

	switch op {
	case insts.OpAMOADD_W, insts.OpAMOXOR_W, insts.OpAMOAND_W, insts.OpAMOOR_W:
		old, err := u.bus.Read32(addr)
		if err != nil {
			return err
		}
		operand := uint32(u.regFile.ReadReg(rs2))
		var next uint32
		switch op {
		case insts.OpAMOADD_W:
			next = old + operand
		case insts.OpAMOXOR_W:
			next = old ^ operand
		case insts.OpAMOAND_W:
			next = old & operand
		case insts.OpAMOOR_W:
			next = old | operand
		}
		if err := u.bus.Write32(addr, next); err != nil {
			return err
		}
		u.regFile.WriteReg(rd, uint64(int64(int32(old))))
		return nil

	case insts.OpAMOADD_D, insts.OpAMOXOR_D, insts.OpAMOAND_D, insts.OpAMOOR_D:
		old, err := u.bus.Read64(addr)
		if err != nil {
			return err
		}
		operand := u.regFile.ReadReg(rs2)
		var next uint64
		switch op {
		case insts.OpAMOADD_D:
			next = old + operand
		case insts.OpAMOXOR_D:
			next = old ^ operand
		case insts.OpAMOAND_D:
			next = old & operand
		case insts.OpAMOOR_D:
			next = old | operand
		}
		if err := u.bus.Write64(addr, next); err != nil {
			return err
		}
		u.regFile.WriteReg(rd, old)
		return nil

	case insts.OpLR_W, insts.OpSC_W, insts.OpAMOSWAP_W, insts.OpAMOMIN_W,
		insts.OpAMOMAX_W, insts.OpAMOMINU_W, insts.OpAMOMAXU_W,
		insts.OpLR_D, insts.OpSC_D, insts.OpAMOSWAP_D, insts.OpAMOMIN_D,
		insts.OpAMOMAX_D, insts.OpAMOMINU_D, insts.OpAMOMAXU_D:
		return nil

	default:
		return nil
	}
}
