package insts

// Decoder turns a raw 32-bit instruction word into an Instruction. It is
// stateless; a single Decoder can be shared across goroutines.
type Decoder struct{}

// NewDecoder returns a ready-to-use Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// opcode major-opcode values, from the low 7 bits of the instruction word.
const (
	opcodeLUI     = 0x37
	opcodeAUIPC   = 0x17
	opcodeJAL     = 0x6f
	opcodeJALR    = 0x67
	opcodeBranch  = 0x63
	opcodeLoad    = 0x03
	opcodeStore   = 0x23
	opcodeImm     = 0x13
	opcodeReg     = 0x33
	opcodeFence   = 0x0f
	opcodeImm64   = 0x1b
	opcodeReg64   = 0x3b
	opcodeSystem  = 0x73
	opcodeAMO     = 0x2f
)

func bits(word uint32, hi, lo uint) uint32 {
	mask := uint32(1)<<(hi-lo+1) - 1
	return (word >> lo) & mask
}

func signExtend(value uint32, bit uint) int64 {
	shift := 63 - bit
	return (int64(int32(value)) << shift) >> shift
}

// Decode parses word into an Instruction. Unknown opcode/funct3/funct7
// combinations decode to FormatInvalid / OpInvalid rather than panicking;
// the emulator surfaces that as an IllegalInstruction.
func (d *Decoder) Decode(word uint32) *Instruction {
	opcode := bits(word, 6, 0)

	switch opcode {
	case opcodeLUI:
		return d.decodeU(word, OpLUI)
	case opcodeAUIPC:
		return d.decodeU(word, OpAUIPC)
	case opcodeJAL:
		return d.decodeJ(word, OpJAL)
	case opcodeJALR:
		return d.decodeI(word, OpJALR)
	case opcodeBranch:
		return d.decodeBranch(word)
	case opcodeLoad:
		return d.decodeLoad(word)
	case opcodeStore:
		return d.decodeStore(word)
	case opcodeImm:
		return d.decodeImmALU(word)
	case opcodeReg:
		return d.decodeRegALU(word)
	case opcodeFence:
		return &Instruction{Raw: word, Format: FormatI, Op: OpFENCE}
	case opcodeImm64:
		return d.decodeImm64ALU(word)
	case opcodeReg64:
		return d.decodeReg64ALU(word)
	case opcodeSystem:
		return d.decodeSystem(word)
	case opcodeAMO:
		return d.decodeAMO(word)
	default:
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
}

func rd(word uint32) uint32     { return bits(word, 11, 7) }
func funct3(word uint32) uint32 { return bits(word, 14, 12) }
func rs1(word uint32) uint32    { return bits(word, 19, 15) }
func rs2(word uint32) uint32    { return bits(word, 24, 20) }
func funct7(word uint32) uint32 { return bits(word, 31, 25) }

func immI(word uint32) int64 {
	return signExtend(bits(word, 31, 20), 11)
}

func immS(word uint32) int64 {
	imm := bits(word, 31, 25)<<5 | bits(word, 11, 7)
	return signExtend(imm, 11)
}

func immB(word uint32) int64 {
	imm := bits(word, 31, 31)<<12 | bits(word, 7, 7)<<11 |
		bits(word, 30, 25)<<5 | bits(word, 11, 8)<<1
	return signExtend(imm, 12)
}

func immU(word uint32) int64 {
	return int64(int32(word & 0xFFFFF000))
}

func immJ(word uint32) int64 {
	imm := bits(word, 31, 31)<<20 | bits(word, 19, 12)<<12 |
		bits(word, 20, 20)<<11 | bits(word, 30, 21)<<1
	return signExtend(imm, 20)
}

func (d *Decoder) decodeU(word uint32, op Op) *Instruction {
	return &Instruction{
		Raw:    word,
		Format: FormatU,
		Op:     op,
		Rd:     rd(word),
		Imm:    immU(word),
	}
}

func (d *Decoder) decodeJ(word uint32, op Op) *Instruction {
	return &Instruction{
		Raw:    word,
		Format: FormatJ,
		Op:     op,
		Rd:     rd(word),
		Imm:    immJ(word),
	}
}

func (d *Decoder) decodeI(word uint32, op Op) *Instruction {
	return &Instruction{
		Raw:    word,
		Format: FormatI,
		Op:     op,
		Rd:     rd(word),
		Rs1:    rs1(word),
		Imm:    immI(word),
	}
}

func (d *Decoder) decodeBranch(word uint32) *Instruction {
	var op Op
	switch funct3(word) {
	case 0x0:
		op = OpBEQ
	case 0x1:
		op = OpBNE
	case 0x4:
		op = OpBLT
	case 0x5:
		op = OpBGE
	case 0x6:
		op = OpBLTU
	case 0x7:
		op = OpBGEU
	default:
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
	return &Instruction{
		Raw:    word,
		Format: FormatB,
		Op:     op,
		Rs1:    rs1(word),
		Rs2:    rs2(word),
		Imm:    immB(word),
	}
}

func (d *Decoder) decodeLoad(word uint32) *Instruction {
	var op Op
	switch funct3(word) {
	case 0x0:
		op = OpLB
	case 0x1:
		op = OpLH
	case 0x2:
		op = OpLW
	case 0x3:
		op = OpLD
	case 0x4:
		op = OpLBU
	case 0x5:
		op = OpLHU
	case 0x6:
		op = OpLWU
	default:
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
	return d.decodeI(word, op)
}

func (d *Decoder) decodeStore(word uint32) *Instruction {
	var op Op
	switch funct3(word) {
	case 0x0:
		op = OpSB
	case 0x1:
		op = OpSH
	case 0x2:
		op = OpSW
	case 0x3:
		op = OpSD
	default:
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
	return &Instruction{
		Raw:    word,
		Format: FormatS,
		Op:     op,
		Rs1:    rs1(word),
		Rs2:    rs2(word),
		Imm:    immS(word),
	}
}

func (d *Decoder) decodeImmALU(word uint32) *Instruction {
	f3 := funct3(word)
	switch f3 {
	case 0x0:
		return d.decodeI(word, OpADDI)
	case 0x2:
		return d.decodeI(word, OpSLTI)
	case 0x3:
		return d.decodeI(word, OpSLTIU)
	case 0x4:
		return d.decodeI(word, OpXORI)
	case 0x6:
		return d.decodeI(word, OpORI)
	case 0x7:
		return d.decodeI(word, OpANDI)
	case 0x1:
		inst := d.decodeI(word, OpSLLI)
		inst.Shamt = bits(word, 25, 20)
		return inst
	case 0x5:
		var op Op
		switch funct7(word) >> 1 {
		case 0x00:
			op = OpSRLI
		case 0x10:
			op = OpSRAI
		default:
			return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
		}
		inst := d.decodeI(word, op)
		inst.Shamt = bits(word, 25, 20)
		return inst
	default:
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
}

func (d *Decoder) decodeRegALU(word uint32) *Instruction {
	inst := &Instruction{
		Raw:    word,
		Format: FormatR,
		Rd:     rd(word),
		Rs1:    rs1(word),
		Rs2:    rs2(word),
	}
	switch funct3(word) {
	case 0x0:
		switch funct7(word) {
		case 0x00:
			inst.Op = OpADD
		case 0x20:
			inst.Op = OpSUB
		default:
			inst.Op, inst.Format = OpInvalid, FormatInvalid
		}
	case 0x1:
		inst.Op = OpSLL
	case 0x2:
		inst.Op = OpSLT
	case 0x3:
		inst.Op = OpSLTU
	case 0x4:
		inst.Op = OpXOR
	case 0x5:
		switch funct7(word) {
		case 0x00:
			inst.Op = OpSRL
		case 0x20:
			inst.Op = OpSRA
		default:
			inst.Op, inst.Format = OpInvalid, FormatInvalid
		}
	case 0x6:
		inst.Op = OpOR
	case 0x7:
		inst.Op = OpAND
	default:
		inst.Op, inst.Format = OpInvalid, FormatInvalid
	}
	return inst
}

func (d *Decoder) decodeImm64ALU(word uint32) *Instruction {
	f3 := funct3(word)
	switch f3 {
	case 0x0:
		return d.decodeI(word, OpADDIW)
	case 0x1:
		inst := d.decodeI(word, OpSLLIW)
		inst.Shamt = bits(word, 24, 20)
		return inst
	case 0x5:
		var op Op
		switch funct7(word) {
		case 0x00:
			op = OpSRLIW
		case 0x20:
			op = OpSRAIW
		default:
			return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
		}
		inst := d.decodeI(word, op)
		inst.Shamt = bits(word, 24, 20)
		return inst
	default:
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
}

func (d *Decoder) decodeReg64ALU(word uint32) *Instruction {
	inst := &Instruction{
		Raw:    word,
		Format: FormatR,
		Rd:     rd(word),
		Rs1:    rs1(word),
		Rs2:    rs2(word),
	}
	f3 := funct3(word)
	f7 := funct7(word)
	switch {
	case f3 == 0x0 && f7 == 0x00:
		inst.Op = OpADDW
	case f3 == 0x0 && f7 == 0x20:
		inst.Op = OpSUBW
	case f3 == 0x1 && f7 == 0x00:
		inst.Op = OpSLLW
	case f3 == 0x5 && f7 == 0x00:
		inst.Op = OpSRLW
	case f3 == 0x5 && f7 == 0x20:
		inst.Op = OpSRAW
	case f3 == 0x0 && f7 == 0x01:
		inst.Op = OpMULW
	case f3 == 0x4 && f7 == 0x01:
		inst.Op = OpDIVW
	case f3 == 0x5 && f7 == 0x01:
		inst.Op = OpDIVUW
	case f3 == 0x6 && f7 == 0x01:
		inst.Op = OpREMW
	case f3 == 0x7 && f7 == 0x01:
		inst.Op = OpREMUW
	default:
		inst.Op, inst.Format = OpInvalid, FormatInvalid
	}
	return inst
}

func (d *Decoder) decodeSystem(word uint32) *Instruction {
	f3 := funct3(word)
	if f3 == 0x0 {
		imm := bits(word, 31, 20)
		inst := &Instruction{Raw: word, Format: FormatI}
		switch imm {
		case 0x000:
			inst.Op = OpECALL
		case 0x001:
			inst.Op = OpEBREAK
		default:
			inst.Op, inst.Format = OpInvalid, FormatInvalid
		}
		return inst
	}

	inst := &Instruction{
		Raw:    word,
		Format: FormatI,
		Rd:     rd(word),
		Rs1:    rs1(word),
		Csr:    bits(word, 31, 20),
	}
	switch f3 {
	case 0x1:
		inst.Op = OpCSRRW
	case 0x2:
		inst.Op = OpCSRRS
	case 0x3:
		inst.Op = OpCSRRC
	case 0x5:
		inst.Op = OpCSRRWI
	case 0x6:
		inst.Op = OpCSRRSI
	case 0x7:
		inst.Op = OpCSRRCI
	default:
		inst.Op, inst.Format = OpInvalid, FormatInvalid
	}
	return inst
}

func (d *Decoder) decodeAMO(word uint32) *Instruction {
	f3 := funct3(word)
	if f3 != 0x2 && f3 != 0x3 {
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
	width64 := f3 == 0x3

	funct5 := bits(word, 31, 27)
	inst := &Instruction{
		Raw:    word,
		Format: FormatR,
		Rd:     rd(word),
		Rs1:    rs1(word),
		Rs2:    rs2(word),
		Aq:     bits(word, 26, 26) == 1,
		Rl:     bits(word, 25, 25) == 1,
	}

	type opPair struct{ w, d Op }
	ops := map[uint32]opPair{
		0x00: {OpAMOADD_W, OpAMOADD_D},
		0x01: {OpAMOSWAP_W, OpAMOSWAP_D},
		0x02: {OpLR_W, OpLR_D},
		0x03: {OpSC_W, OpSC_D},
		0x04: {OpAMOXOR_W, OpAMOXOR_D},
		0x08: {OpAMOOR_W, OpAMOOR_D},
		0x0c: {OpAMOAND_W, OpAMOAND_D},
		0x10: {OpAMOMIN_W, OpAMOMIN_D},
		0x14: {OpAMOMAX_W, OpAMOMAX_D},
		0x18: {OpAMOMINU_W, OpAMOMINU_D},
		0x1c: {OpAMOMAXU_W, OpAMOMAXU_D},
	}

	pair, ok := ops[funct5]
	if !ok {
		return &Instruction{Raw: word, Format: FormatInvalid, Op: OpInvalid}
	}
	if width64 {
		inst.Op = pair.d
	} else {
		inst.Op = pair.w
	}
	return inst
}
