// Package insts defines the decoded-instruction intermediate form shared by
// the decoder and the execution engine.
package insts

// Format identifies which of the six RV64I instruction encodings produced
// an Instruction.
type Format int

const (
	// FormatR covers register-register ALU and AMO.W/AMO.D ops.
	FormatR Format = iota
	// FormatI covers arithmetic-immediate, loads, JALR and CSR ops.
	FormatI
	// FormatS covers stores.
	FormatS
	// FormatB covers conditional branches.
	FormatB
	// FormatU covers LUI/AUIPC.
	FormatU
	// FormatJ covers JAL.
	FormatJ
	// FormatInvalid marks a word that did not decode to any known opcode.
	FormatInvalid
)

// Op names every mnemonic this emulator recognizes.
type Op int

const (
	OpInvalid Op = iota

	// U-type
	OpLUI
	OpAUIPC

	// J-type
	OpJAL

	// I-type jump
	OpJALR

	// B-type
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// I-type loads
	OpLB
	OpLH
	OpLW
	OpLD
	OpLBU
	OpLHU
	OpLWU

	// S-type stores
	OpSB
	OpSH
	OpSW
	OpSD

	// I-type ALU
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// R-type ALU
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// I-type W-form ALU
	OpADDIW
	OpSLLIW
	OpSRLIW
	OpSRAIW

	// R-type W-form ALU (also carries the W-form M-extension ops)
	OpADDW
	OpSUBW
	OpSLLW
	OpSRLW
	OpSRAW
	OpMULW
	OpDIVW
	OpDIVUW
	OpREMW
	OpREMUW

	// FENCE / system
	OpFENCE
	OpECALL
	OpEBREAK

	// CSR (I-type variant, funct3 selects the flavour)
	OpCSRRW
	OpCSRRS
	OpCSRRC
	OpCSRRWI
	OpCSRRSI
	OpCSRRCI

	// AMO.W / AMO.D (R-type with funct7[31:27] selecting the sub-op)
	OpLR_W
	OpSC_W
	OpAMOSWAP_W
	OpAMOADD_W
	OpAMOXOR_W
	OpAMOAND_W
	OpAMOOR_W
	OpAMOMIN_W
	OpAMOMAX_W
	OpAMOMINU_W
	OpAMOMAXU_W
	OpLR_D
	OpSC_D
	OpAMOSWAP_D
	OpAMOADD_D
	OpAMOXOR_D
	OpAMOAND_D
	OpAMOOR_D
	OpAMOMIN_D
	OpAMOMAX_D
	OpAMOMINU_D
	OpAMOMAXU_D
)

var opNames = map[Op]string{
	OpInvalid:   "invalid",
	OpLUI:       "lui",
	OpAUIPC:     "auipc",
	OpJAL:       "jal",
	OpJALR:      "jalr",
	OpBEQ:       "beq",
	OpBNE:       "bne",
	OpBLT:       "blt",
	OpBGE:       "bge",
	OpBLTU:      "bltu",
	OpBGEU:      "bgeu",
	OpLB:        "lb",
	OpLH:        "lh",
	OpLW:        "lw",
	OpLD:        "ld",
	OpLBU:       "lbu",
	OpLHU:       "lhu",
	OpLWU:       "lwu",
	OpSB:        "sb",
	OpSH:        "sh",
	OpSW:        "sw",
	OpSD:        "sd",
	OpADDI:      "addi",
	OpSLTI:      "slti",
	OpSLTIU:     "sltiu",
	OpXORI:      "xori",
	OpORI:       "ori",
	OpANDI:      "andi",
	OpSLLI:      "slli",
	OpSRLI:      "srli",
	OpSRAI:      "srai",
	OpADD:       "add",
	OpSUB:       "sub",
	OpSLL:       "sll",
	OpSLT:       "slt",
	OpSLTU:      "sltu",
	OpXOR:       "xor",
	OpSRL:       "srl",
	OpSRA:       "sra",
	OpOR:        "or",
	OpAND:       "and",
	OpADDIW:     "addiw",
	OpSLLIW:     "slliw",
	OpSRLIW:     "srliw",
	OpSRAIW:     "sraiw",
	OpADDW:      "addw",
	OpSUBW:      "subw",
	OpSLLW:      "sllw",
	OpSRLW:      "srlw",
	OpSRAW:      "sraw",
	OpMULW:      "mulw",
	OpDIVW:      "divw",
	OpDIVUW:     "divuw",
	OpREMW:      "remw",
	OpREMUW:     "remuw",
	OpFENCE:     "fence",
	OpECALL:     "ecall",
	OpEBREAK:    "ebreak",
	OpCSRRW:     "csrrw",
	OpCSRRS:     "csrrs",
	OpCSRRC:     "csrrc",
	OpCSRRWI:    "csrrwi",
	OpCSRRSI:    "csrrsi",
	OpCSRRCI:    "csrrci",
	OpLR_W:      "lr.w",
	OpSC_W:      "sc.w",
	OpAMOSWAP_W: "amoswap.w",
	OpAMOADD_W:  "amoadd.w",
	OpAMOXOR_W:  "amoxor.w",
	OpAMOAND_W:  "amoand.w",
	OpAMOOR_W:   "amoor.w",
	OpAMOMIN_W:  "amomin.w",
	OpAMOMAX_W:  "amomax.w",
	OpAMOMINU_W: "amominu.w",
	OpAMOMAXU_W: "amomaxu.w",
	OpLR_D:      "lr.d",
	OpSC_D:      "sc.d",
	OpAMOSWAP_D: "amoswap.d",
	OpAMOADD_D:  "amoadd.d",
	OpAMOXOR_D:  "amoxor.d",
	OpAMOAND_D:  "amoand.d",
	OpAMOOR_D:   "amoor.d",
	OpAMOMIN_D:  "amomin.d",
	OpAMOMAX_D:  "amomax.d",
	OpAMOMINU_D: "amominu.d",
	OpAMOMAXU_D: "amomaxu.d",
}

// String returns the canonical mnemonic for op, or "invalid" if unknown.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "invalid"
}

// Instruction is the flat decoded form every execute method operates on.
// Not every field is populated for every Format; see the decoder for which
// fields a given Op fills in.
type Instruction struct {
	Raw    uint32
	Format Format
	Op     Op

	Rd  uint32
	Rs1 uint32
	Rs2 uint32

	// Imm holds the sign-extended immediate for I/S/B/U/J formats.
	Imm int64

	// Csr holds the 12-bit CSR index for the CSRxx family (I-type, system
	// major opcode).
	Csr uint32

	// Shamt holds the 6-bit shift amount for SLLI/SRLI/SRAI and friends.
	// For the W-form shift-immediates only the low 5 bits are meaningful.
	Shamt uint32

	// Aq and Rl carry the AMO acquire/release bits (decoded, not enforced:
	// this emulator has a single hart and no memory model to order).
	Aq bool
	Rl bool
}
