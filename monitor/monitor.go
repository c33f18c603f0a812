// Package monitor implements the interactive REPL: run/step/load/quit/help,
// with command history persisted across sessions the way a small debugger
// shell typically does.
package monitor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lancerstadium/cemu/emu"
	"github.com/lancerstadium/cemu/loader"
)

// defaultStepCount is how many instructions a bare "step" (no count)
// executes, matching the reference REPL's default.
const defaultStepCount = 10

const historyFileName = "history.txt"

// Monitor drives an Emulator interactively from a line-oriented command
// loop.
type Monitor struct {
	emu     *emu.Emulator
	in      *bufio.Reader
	out     io.Writer
	history []string
}

// New creates a Monitor reading commands from in and writing output to
// out.
func New(e *emu.Emulator, in io.Reader, out io.Writer) *Monitor {
	m := &Monitor{
		emu: e,
		in:  bufio.NewReader(in),
		out: out,
	}
	m.loadHistory()
	return m
}

// Run drives the command loop until "quit" or EOF.
func (m *Monitor) Run() {
	fmt.Fprintln(m.out, "cemu monitor. Type 'help' for commands.")
	for {
		fmt.Fprint(m.out, "(cemu) ")
		line, err := m.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			m.history = append(m.history, line)
			m.appendHistory(line)
		}

		if line != "" {
			if m.dispatch(line) {
				return
			}
		}

		if err != nil {
			return
		}
	}
}

// dispatch executes one command line and reports whether the loop should
// stop.
func (m *Monitor) dispatch(line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch {
	case matches(cmd, "run", "r"):
		m.cmdRun()
	case matches(cmd, "step", "si", "s"):
		m.cmdStep(args)
	case matches(cmd, "load", "l"):
		m.cmdLoad(args)
	case matches(cmd, "quit", "q", "exit"):
		return true
	case matches(cmd, "help", "h", "?"):
		m.cmdHelp()
	default:
		fmt.Fprintf(m.out, "unknown command %q (try 'help')\n", cmd)
	}
	return false
}

// matches reports whether cmd equals name or any of its short aliases.
func matches(cmd, name string, aliases ...string) bool {
	if cmd == name {
		return true
	}
	for _, a := range aliases {
		if cmd == a {
			return true
		}
	}
	return false
}

func (m *Monitor) cmdRun() {
	result := m.emu.Run()
	m.reportResult(result)
}

func (m *Monitor) cmdStep(args []string) {
	n := defaultStepCount
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		} else {
			fmt.Fprintf(m.out, "invalid step count %q, using %d\n", args[0], defaultStepCount)
		}
	}
	// Matches cpu_step's MIN(MAX_CPU_STEP, step): a requested count never
	// runs more than defaultStepCount instructions.
	if n > defaultStepCount {
		n = defaultStepCount
	}

	for i := 0; i < n; i++ {
		result := m.emu.Step()
		if result.Exited {
			m.reportResult(result)
			return
		}
	}
	fmt.Fprintf(m.out, "stepped %d instructions; pc=0x%x\n", n, m.emu.PC())
}

func (m *Monitor) cmdLoad(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(m.out, "usage: load PATH")
		return
	}
	path := args[0]

	img, err := loader.Load(m.emu.Bus(), path)
	if err != nil {
		img, err = loader.LoadRaw(m.emu.Bus(), path)
	}
	if err != nil {
		fmt.Fprintf(m.out, "load failed: %v\n", err)
		return
	}

	m.emu.SetPC(img.EntryPC)
	fmt.Fprintf(m.out, "loaded %s (%d bytes), entry pc=0x%x\n", filepath.Base(path), img.Size, img.EntryPC)
}

func (m *Monitor) cmdHelp() {
	fmt.Fprintln(m.out, "commands:")
	fmt.Fprintln(m.out, "  run                run until halt or error")
	fmt.Fprintln(m.out, "  step [N]           execute N instructions (default and max 10)")
	fmt.Fprintln(m.out, "  load PATH          load an ELF or raw binary into DRAM")
	fmt.Fprintln(m.out, "  quit               exit the monitor")
	fmt.Fprintln(m.out, "  help               show this message")
}

func (m *Monitor) reportResult(result emu.StepResult) {
	if result.Err != nil {
		fmt.Fprintf(m.out, "halted: %v (pc=0x%x, exit=%d)\n", result.Err, m.emu.PC(), result.ExitCode)
		return
	}
	fmt.Fprintf(m.out, "halted cleanly (pc=0x%x)\n", m.emu.PC())
}

func historyPath() string {
	return historyFileName
}

func (m *Monitor) loadHistory() {
	data, err := os.ReadFile(historyPath())
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			m.history = append(m.history, line)
		}
	}
}

func (m *Monitor) appendHistory(line string) {
	f, err := os.OpenFile(historyPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	fmt.Fprintln(f, line)
}
