// Package selftest runs the fixed scenario suite invoked by "cemu test":
// a handful of hand-encoded instruction sequences exercising ADDI/ADD,
// the store/load sign-extension contract, a taken branch, a JAL link
// register, and illegal-instruction detection.
package selftest

import (
	"fmt"
	"io"

	"github.com/lancerstadium/cemu/emu"
)

// Result is the outcome of one named scenario.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Report collects every scenario's Result.
type Report struct {
	Results []Result
}

// Failed returns the number of failing scenarios.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Print writes the report to w. quiet=0 prints every scenario, quiet=1
// prints only a pass/fail summary line, quiet>=2 prints nothing.
func (r *Report) Print(w io.Writer, quiet int) {
	if quiet >= 2 {
		return
	}
	if quiet == 0 {
		for _, res := range r.Results {
			status := "PASS"
			if !res.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(w, "[%s] %s: %s\n", status, res.Name, res.Detail)
		}
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", len(r.Results)-r.Failed(), len(r.Results))
}

// Run executes every scenario against a fresh emu.Emulator and returns a
// Report.
func Run() *Report {
	scenarios := []func() Result{
		scenarioAddiThenAdd,
		scenarioStoreLoadSignExtend,
		scenarioUnsignedLoad,
		scenarioTakenBranch,
		scenarioJALLinkRegister,
		scenarioIllegalInstruction,
	}

	report := &Report{}
	for _, s := range scenarios {
		report.Results = append(report.Results, s())
	}
	return report
}

// --- raw instruction-word encoders, matching the bit layout in insts/decoder.go ---

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

const (
	opLoad   = 0x03
	opStore  = 0x23
	opImm    = 0x13
	opReg    = 0x33
	opBranch = 0x63
	opJAL    = 0x6f
)

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Passed: false, Detail: fmt.Sprintf(format, args...)}
}

func pass(name, detail string) Result {
	return Result{Name: name, Passed: true, Detail: detail}
}

// scenarioAddiThenAdd: addi x1, x0, 7; add x2, x1, x1 -> x1=7, x2=14,
// PC advances by 4 each step.
func scenarioAddiThenAdd() Result {
	const name = "addi-then-add"
	e := emu.NewEmulator()
	prog := []uint32{
		iType(opImm, 0x0, 1, 0, 7),       // addi x1, x0, 7
		rType(opReg, 0x0, 0x00, 2, 1, 1), // add x2, x1, x1
	}
	loadWords(e, prog)

	start := e.PC()
	if res := e.Step(); res.Err != nil {
		return fail(name, "step 1: %v", res.Err)
	}
	if got := e.RegFile().ReadReg(1); got != 7 {
		return fail(name, "x1 = %d, want 7", got)
	}
	if got := e.PC(); got != start+4 {
		return fail(name, "pc = 0x%x, want 0x%x", got, start+4)
	}
	if res := e.Step(); res.Err != nil {
		return fail(name, "step 2: %v", res.Err)
	}
	if got := e.RegFile().ReadReg(2); got != 14 {
		return fail(name, "x2 = %d, want 14", got)
	}
	return pass(name, "x1=7, x2=14")
}

// scenarioStoreLoadSignExtend: sw x1, 0(x2); lw x3, 0(x2) with
// x1 = 0xDEADBEEF and x2 pointing 8 bytes below the top of DRAM. Expects x3 to be
// sign-extended to 0xFFFFFFFF_DEADBEEF.
func scenarioStoreLoadSignExtend() Result {
	const name = "store-load-sign-extend"
	e := emu.NewEmulator()
	ptr := int64(emu.DRAMBase + emu.DRAMSize - 8)

	// x1 can't be loaded with a 32-bit immediate in one ADDI (12-bit imm
	// limit), so seed it directly through the register file instead of via
	// guest code; this scenario is about the LSU's sign extension, not
	// immediate synthesis.
	e.RegFile().WriteReg(1, 0xDEADBEEF)
	e.RegFile().WriteReg(2, uint64(ptr))

	body := []uint32{
		sType(opStore, 0x2, 2, 1, 0), // sw x1, 0(x2)
		iType(opLoad, 0x2, 3, 2, 0),  // lw x3, 0(x2)
	}
	loadWords(e, body)
	e.SetPC(emu.DRAMBase)

	if res := e.Step(); res.Err != nil {
		return fail(name, "sw: %v", res.Err)
	}
	if res := e.Step(); res.Err != nil {
		return fail(name, "lw: %v", res.Err)
	}
	want := uint64(0xFFFFFFFF_DEADBEEF)
	if got := e.RegFile().ReadReg(3); got != want {
		return fail(name, "x3 = 0x%x, want 0x%x", got, want)
	}
	return pass(name, "x3 = 0xFFFFFFFF_DEADBEEF")
}

// scenarioUnsignedLoad: same as above but LWU, expecting zero extension.
func scenarioUnsignedLoad() Result {
	const name = "unsigned-load"
	e := emu.NewEmulator()
	ptr := int64(emu.DRAMBase + emu.DRAMSize - 8)
	e.RegFile().WriteReg(1, 0xDEADBEEF)
	e.RegFile().WriteReg(2, uint64(ptr))

	body := []uint32{
		sType(opStore, 0x2, 2, 1, 0), // sw x1, 0(x2)
		iType(opLoad, 0x6, 3, 2, 0),  // lwu x3, 0(x2)
	}
	loadWords(e, body)
	e.SetPC(emu.DRAMBase)

	if res := e.Step(); res.Err != nil {
		return fail(name, "sw: %v", res.Err)
	}
	if res := e.Step(); res.Err != nil {
		return fail(name, "lwu: %v", res.Err)
	}
	want := uint64(0x00000000_DEADBEEF)
	if got := e.RegFile().ReadReg(3); got != want {
		return fail(name, "x3 = 0x%x, want 0x%x", got, want)
	}
	return pass(name, "x3 = 0x00000000_DEADBEEF")
}

// scenarioTakenBranch: x1 = x2 = 5; beq x1, x2, +8 -> pc advances by 8,
// not 4.
func scenarioTakenBranch() Result {
	const name = "taken-branch"
	e := emu.NewEmulator()
	e.RegFile().WriteReg(1, 5)
	e.RegFile().WriteReg(2, 5)

	loadWords(e, []uint32{bType(opBranch, 0x0, 1, 2, 8)}) // beq x1, x2, +8
	e.SetPC(emu.DRAMBase)

	start := e.PC()
	if res := e.Step(); res.Err != nil {
		return fail(name, "beq: %v", res.Err)
	}
	want := start + 8
	if got := e.PC(); got != want {
		return fail(name, "pc = 0x%x, want 0x%x", got, want)
	}
	return pass(name, fmt.Sprintf("pc advanced to 0x%x", want))
}

// scenarioJALLinkRegister: jal x1, +16 at PC=DRAMBase -> x1 = DRAMBase+4,
// pc = DRAMBase+16.
func scenarioJALLinkRegister() Result {
	const name = "jal-link-register"
	e := emu.NewEmulator()
	loadWords(e, []uint32{jType(opJAL, 1, 16)}) // jal x1, +16
	e.SetPC(emu.DRAMBase)

	if res := e.Step(); res.Err != nil {
		return fail(name, "jal: %v", res.Err)
	}
	if got := e.RegFile().ReadReg(1); got != emu.DRAMBase+4 {
		return fail(name, "x1 = 0x%x, want 0x%x", got, emu.DRAMBase+4)
	}
	if got := e.PC(); got != emu.DRAMBase+16 {
		return fail(name, "pc = 0x%x, want 0x%x", got, emu.DRAMBase+16)
	}
	return pass(name, "x1=pc+4, pc=pc+16")
}

// scenarioIllegalInstruction: a 0xFFFFFFFF word does not decode to any
// known opcode; Step must report IllegalInstruction and halt without
// mutating any register.
func scenarioIllegalInstruction() Result {
	const name = "illegal-instruction"
	e := emu.NewEmulator()
	loadWords(e, []uint32{0xFFFFFFFF})
	e.SetPC(emu.DRAMBase)

	before := snapshot(e)
	res := e.Step()
	if res.Err == nil {
		return fail(name, "expected an error, got none")
	}
	if _, ok := res.Err.(*emu.IllegalInstruction); !ok {
		return fail(name, "expected *emu.IllegalInstruction, got %T: %v", res.Err, res.Err)
	}
	after := snapshot(e)
	for i := range before {
		if before[i] != after[i] {
			return fail(name, "register x%d mutated (0x%x -> 0x%x) on an illegal decode", i, before[i], after[i])
		}
	}
	return pass(name, "halted with IllegalInstruction, registers unchanged")
}

func snapshot(e *emu.Emulator) [32]uint64 {
	var regs [32]uint64
	for i := 0; i < 32; i++ {
		regs[i] = e.RegFile().ReadReg(uint32(i))
	}
	return regs
}

// loadWords places a little-endian instruction stream into DRAM starting
// at DRAMBase and positions PC there.
func loadWords(e *emu.Emulator, words []uint32) {
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		buf = append(buf, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	e.Bus().DRAM().Alloc(buf)
	e.SetPC(emu.DRAMBase)
}
