// Command cemu is a single-hart RV64I emulator: it loads a statically
// linked RISC-V ELF binary into a simulated DRAM window and single-steps
// the register+memory machine, optionally under an interactive monitor.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lancerstadium/cemu/emu"
	"github.com/lancerstadium/cemu/internal/selftest"
	"github.com/lancerstadium/cemu/internal/telemetry"
	"github.com/lancerstadium/cemu/loader"
	"github.com/lancerstadium/cemu/monitor"
)

const defaultDebugInput = "./test/temp_02.out"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var input string
	var logPath string

	root := &cobra.Command{
		Use:           "cemu",
		Short:         "A single-hart RV64I instruction-set emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input is required")
			}
			return runEmulate(input, logPath)
		},
	}
	root.Flags().StringVar(&input, "input", "", "path to a RISC-V ELF binary (required)")
	root.PersistentFlags().StringVar(&logPath, "log", "", "path to write log output (default stderr)")

	root.AddCommand(newDebugCmd())
	root.AddCommand(newTestCmd())
	return root
}

func newDebugCmd() *cobra.Command {
	var input string
	var logPath string

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Enter the interactive monitor (REPL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDebug(input, logPath)
		},
	}
	cmd.Flags().StringVar(&input, "input", defaultDebugInput, "binary to preload before entering the monitor")
	cmd.Flags().StringVar(&logPath, "log", "", "path to write log output (default stderr)")
	return cmd
}

func newTestCmd() *cobra.Command {
	var quiet int
	var output string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the built-in scenario suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfTest(quiet, output)
		},
	}
	cmd.Flags().IntVar(&quiet, "quiet", 0, "verbosity: 0=verbose, 1=summary only, 2=silent")
	cmd.Flags().StringVar(&output, "output", "", "path to write test output (default stdout)")
	return cmd
}

func openLogWriter(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// runEmulate implements the default (no subcommand) behaviour: load --input
// and run to a halt, exiting 0 on clean termination and nonzero otherwise.
func runEmulate(input, logPath string) error {
	logFile, err := openLogWriter(logPath)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logWriter := os.Stderr
	if logFile != nil {
		logWriter = logFile
	}
	logger := telemetry.New(logWriter, logrus.InfoLevel)

	e := emu.NewEmulator(emu.WithLogger(logger))
	img, err := loader.Load(e.Bus(), input)
	if err != nil {
		return err
	}
	e.SetPC(img.EntryPC)

	result := e.Run()
	if result.Err != nil {
		logger.WithError(result.Err).Error("emulation halted")
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("emulation exited with code %d: %v", result.ExitCode, result.Err)
	}
	return nil
}

// runDebug preloads --input (if it can be found) and hands control to the
// interactive monitor.
func runDebug(input, logPath string) error {
	logFile, err := openLogWriter(logPath)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logWriter := os.Stderr
	if logFile != nil {
		logWriter = logFile
	}
	logger := telemetry.New(logWriter, logrus.InfoLevel)

	e := emu.NewEmulator(emu.WithLogger(logger))

	if input != "" {
		img, err := loader.Load(e.Bus(), input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "preload failed: %v\n", err)
		} else {
			e.SetPC(img.EntryPC)
		}
	}

	mon := monitor.New(e, os.Stdin, os.Stdout)
	mon.Run()
	return nil
}

// runSelfTest runs the built-in scenario suite and reports pass/fail.
func runSelfTest(quiet int, outputPath string) error {
	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("opening test output: %w", err)
		}
		defer f.Close()
		out = f
	}

	report := selftest.Run()
	report.Print(out, quiet)

	if report.Failed() > 0 {
		return fmt.Errorf("%d/%d scenarios failed", report.Failed(), len(report.Results))
	}
	return nil
}
