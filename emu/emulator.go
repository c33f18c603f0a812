package emu

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/lancerstadium/cemu/insts"
)

// StepResult is the outcome of executing a single instruction.
type StepResult struct {
	// Exited is true if execution stopped, either on a clean halt (ECALL,
	// EBREAK, a zero instruction word, PC reaching zero, the instruction
	// limit) or on a fault.
	Exited bool

	// ExitCode carries a halt reason's severity: 0 for a clean halt,
	// nonzero if halting on a fault.
	ExitCode int64

	// Err says why execution stopped: a *HaltSignal for a clean halt, or the
	// fault (illegal instruction, address fault, misaligned target).
	Err error
}

// Emulator executes RV64I instructions functionally against a single hart:
// one register file, one CSR file, and one DRAM window reached through a
// Bus.
type Emulator struct {
	regFile *RegFile
	csr     *CSRFile
	bus     *Bus
	decoder *insts.Decoder

	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	amoUnit    *AMOUnit
	csrUnit    *CSRUnit

	logger *logrus.Logger
	stdout io.Writer
	stderr io.Writer

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption configures an Emulator at construction time.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) { e.stdout = w }
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) { e.stderr = w }
}

// WithLogger sets a custom logrus logger. Without this option a default
// logger at Info level is used.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) { e.logger = logger }
}

// WithMaxInstructions caps the number of instructions Run will execute
// before stopping on its own. A value of 0 (the default) means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) { e.maxInstructions = max }
}

// WithStackPointer overrides the default initial stack pointer (x2).
func WithStackPointer(sp uint64) EmulatorOption {
	return func(e *Emulator) { e.regFile.X[2] = sp }
}

// NewEmulator builds an Emulator with a fresh DRAM-backed Bus, CSR file,
// and register file initialized the way cpu_init sets up a hart: x0
// untouched at zero, x2 (sp) defaulted to the top of DRAM, and PC at
// DRAMBase, before any program is loaded.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	regFile := &RegFile{PC: DRAMBase}
	regFile.X[2] = DRAMBase + DRAMSize

	e := &Emulator{
		regFile: regFile,
		csr:     &CSRFile{},
		bus:     NewBus(),
		decoder: insts.NewDecoder(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logrus.New()
		e.logger.SetOutput(e.stderr)
	}

	e.alu = NewALU(regFile)
	e.lsu = NewLoadStoreUnit(regFile, e.bus)
	e.branchUnit = NewBranchUnit(regFile)
	e.amoUnit = NewAMOUnit(regFile, e.bus)
	e.csrUnit = NewCSRUnit(regFile, e.csr)

	return e
}

// Bus exposes the Emulator's Bus so a loader can populate DRAM before
// execution begins.
func (e *Emulator) Bus() *Bus {
	return e.bus
}

// RegFile exposes the Emulator's register file for inspection (tests and
// the self-test scenarios).
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// PC returns the current program counter.
func (e *Emulator) PC() uint64 {
	return e.regFile.PC
}

// SetPC sets the program counter, used by a loader once it has resolved a
// program's entry point.
func (e *Emulator) SetPC(pc uint64) {
	e.regFile.PC = pc
}

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step fetches, decodes, and executes exactly one instruction.
func (e *Emulator) Step() StepResult {
	pc := e.regFile.PC
	word, err := e.bus.Read32(pc)
	if err != nil {
		return StepResult{Exited: true, ExitCode: 1, Err: err}
	}
	if word == 0 {
		return StepResult{Exited: true, ExitCode: 0, Err: &HaltSignal{Reason: "zero instruction word"}}
	}

	inst := e.decoder.Decode(word)
	if inst.Format == insts.FormatInvalid {
		return StepResult{Exited: true, ExitCode: 1, Err: &IllegalInstruction{PC: pc, Raw: word}}
	}

	e.regFile.PC = pc + 4

	result := e.execute(inst, pc)

	e.regFile.X[0] = 0
	e.instructionCount++

	e.logger.WithFields(logrus.Fields{
		"pc":   pc,
		"op":   inst.Op.String(),
		"raw":  word,
		"regs": e.regFile.X,
	}).Debug("step")

	if e.maxInstructions != 0 && e.instructionCount >= e.maxInstructions && !result.Exited {
		return StepResult{Exited: true, ExitCode: 0, Err: &HaltSignal{Reason: "instruction limit reached"}}
	}

	return result
}

// Run steps the emulator until it halts, a fetch/decode/execute error
// occurs, or the PC becomes zero (mirroring the reference loop's
// termination conditions).
func (e *Emulator) Run() StepResult {
	for {
		if e.regFile.PC == 0 {
			return StepResult{Exited: true, ExitCode: 0, Err: &HaltSignal{Reason: "pc reached zero"}}
		}
		result := e.Step()
		if result.Exited {
			return result
		}
	}
}

func (e *Emulator) execute(inst *insts.Instruction, pc uint64) StepResult {
	switch inst.Op {
	case insts.OpLUI:
		e.regFile.WriteReg(inst.Rd, uint64(inst.Imm))
	case insts.OpAUIPC:
		e.regFile.WriteReg(inst.Rd, uint64(int64(pc)+inst.Imm))

	case insts.OpJAL:
		target := e.branchUnit.JAL(inst.Rd, pc, inst.Imm)
		if target%4 != 0 {
			return StepResult{Exited: true, ExitCode: 1, Err: &MisalignedPC{Target: target}}
		}
		e.regFile.PC = target
	case insts.OpJALR:
		rs1Val := e.regFile.ReadReg(inst.Rs1)
		target := e.branchUnit.JALR(inst.Rd, pc, rs1Val, inst.Imm)
		if target%4 != 0 {
			return StepResult{Exited: true, ExitCode: 1, Err: &MisalignedPC{Target: target}}
		}
		e.regFile.PC = target

	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE, insts.OpBLTU, insts.OpBGEU:
		rs1Val := e.regFile.ReadReg(inst.Rs1)
		rs2Val := e.regFile.ReadReg(inst.Rs2)
		if e.branchUnit.Check(inst.Op, rs1Val, rs2Val) {
			target := uint64(int64(pc) + inst.Imm)
			if target%4 != 0 {
				return StepResult{Exited: true, ExitCode: 1, Err: &MisalignedPC{Target: target}}
			}
			e.regFile.PC = target
		}

	case insts.OpLB:
		return e.loadResult(e.lsu.LB(inst.Rd, inst.Rs1, inst.Imm))
	case insts.OpLBU:
		return e.loadResult(e.lsu.LBU(inst.Rd, inst.Rs1, inst.Imm))
	case insts.OpLH:
		return e.loadResult(e.lsu.LH(inst.Rd, inst.Rs1, inst.Imm))
	case insts.OpLHU:
		return e.loadResult(e.lsu.LHU(inst.Rd, inst.Rs1, inst.Imm))
	case insts.OpLW:
		return e.loadResult(e.lsu.LW(inst.Rd, inst.Rs1, inst.Imm))
	case insts.OpLWU:
		return e.loadResult(e.lsu.LWU(inst.Rd, inst.Rs1, inst.Imm))
	case insts.OpLD:
		return e.loadResult(e.lsu.LD(inst.Rd, inst.Rs1, inst.Imm))

	case insts.OpSB:
		return e.loadResult(e.lsu.SB(inst.Rs1, inst.Rs2, inst.Imm))
	case insts.OpSH:
		return e.loadResult(e.lsu.SH(inst.Rs1, inst.Rs2, inst.Imm))
	case insts.OpSW:
		return e.loadResult(e.lsu.SW(inst.Rs1, inst.Rs2, inst.Imm))
	case insts.OpSD:
		return e.loadResult(e.lsu.SD(inst.Rs1, inst.Rs2, inst.Imm))

	case insts.OpADDI:
		e.alu.ADDI(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpSLTI:
		e.alu.SLTI(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpSLTIU:
		e.alu.SLTIU(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpXORI:
		e.alu.XORI(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpORI:
		e.alu.ORI(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpANDI:
		e.alu.ANDI(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpSLLI:
		e.alu.SLLI(inst.Rd, inst.Rs1, inst.Shamt)
	case insts.OpSRLI:
		e.alu.SRLI(inst.Rd, inst.Rs1, inst.Shamt)
	case insts.OpSRAI:
		e.alu.SRAI(inst.Rd, inst.Rs1, inst.Shamt)

	case insts.OpADD:
		e.alu.ADD(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSUB:
		e.alu.SUB(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSLL:
		e.alu.SLL(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSLT:
		e.alu.SLT(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSLTU:
		e.alu.SLTU(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpXOR:
		e.alu.XOR(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSRL:
		e.alu.SRL(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSRA:
		e.alu.SRA(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpOR:
		e.alu.OR(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpAND:
		e.alu.AND(inst.Rd, inst.Rs1, inst.Rs2)

	case insts.OpADDIW:
		e.alu.ADDIW(inst.Rd, inst.Rs1, inst.Imm)
	case insts.OpSLLIW:
		e.alu.SLLIW(inst.Rd, inst.Rs1, inst.Shamt)
	case insts.OpSRLIW:
		e.alu.SRLIW(inst.Rd, inst.Rs1, inst.Shamt)
	case insts.OpSRAIW:
		e.alu.SRAIW(inst.Rd, inst.Rs1, inst.Shamt)

	case insts.OpADDW:
		e.alu.ADDW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSUBW:
		e.alu.SUBW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSLLW:
		e.alu.SLLW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSRLW:
		e.alu.SRLW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpSRAW:
		e.alu.SRAW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpMULW:
		e.alu.MULW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpDIVW:
		e.alu.DIVW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpDIVUW:
		e.alu.DIVUW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpREMW:
		e.alu.REMW(inst.Rd, inst.Rs1, inst.Rs2)
	case insts.OpREMUW:
		e.alu.REMUW(inst.Rd, inst.Rs1, inst.Rs2)

	case insts.OpFENCE:
		// No multi-hart memory model to order; FENCE is a no-op.

	case insts.OpECALL:
		return StepResult{Exited: true, ExitCode: 0, Err: &HaltSignal{Reason: "ecall"}}
	case insts.OpEBREAK:
		return StepResult{Exited: true, ExitCode: 0, Err: &HaltSignal{Reason: "ebreak"}}

	case insts.OpCSRRW:
		e.csrUnit.CSRRW(inst.Rd, inst.Rs1, inst.Csr)
	case insts.OpCSRRS:
		e.csrUnit.CSRRS(inst.Rd, inst.Rs1, inst.Csr)
	case insts.OpCSRRC:
		e.csrUnit.CSRRC(inst.Rd, inst.Rs1, inst.Csr)
	case insts.OpCSRRWI:
		e.csrUnit.CSRRWI(inst.Rd, inst.Csr, uint64(inst.Rs1))
	case insts.OpCSRRSI:
		e.csrUnit.CSRRSI(inst.Rd, inst.Csr, uint64(inst.Rs1))
	case insts.OpCSRRCI:
		e.csrUnit.CSRRCI(inst.Rd, inst.Csr, uint64(inst.Rs1))

	case insts.OpLR_W, insts.OpSC_W, insts.OpAMOSWAP_W, insts.OpAMOADD_W,
		insts.OpAMOXOR_W, insts.OpAMOAND_W, insts.OpAMOOR_W, insts.OpAMOMIN_W,
		insts.OpAMOMAX_W, insts.OpAMOMINU_W, insts.OpAMOMAXU_W,
		insts.OpLR_D, insts.OpSC_D, insts.OpAMOSWAP_D, insts.OpAMOADD_D,
		insts.OpAMOXOR_D, insts.OpAMOAND_D, insts.OpAMOOR_D, insts.OpAMOMIN_D,
		insts.OpAMOMAX_D, insts.OpAMOMINU_D, insts.OpAMOMAXU_D:
		if err := e.amoUnit.Execute(inst.Op, inst.Rd, inst.Rs1, inst.Rs2); err != nil {
			return StepResult{Exited: true, ExitCode: 1, Err: err}
		}

	default:
		return StepResult{Exited: true, ExitCode: 1, Err: &IllegalInstruction{PC: pc, Raw: inst.Raw}}
	}

	return StepResult{}
}

func (e *Emulator) loadResult(err error) StepResult {
	if err != nil {
		return StepResult{Exited: true, ExitCode: 1, Err: err}
	}
	return StepResult{}
}
