// Command vm runs a flat RV32I binary program to completion, printing
// per-cycle trace output and register state on request.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/bassosimone/rv32pipe/pkg/vm"
)

func main() {
	debug := getopt.BoolLong("debug", 'd', "pause and prompt before every cycle")
	verbose := getopt.BoolLong("verbose", 'v', "log a trace line for every cycle")
	filename := getopt.StringLong("file", 'f', "", "flat RV32I binary to run")
	memSize := getopt.IntLong("mem", 'm', 1<<20, "physical memory size in bytes")
	maxCycles := getopt.Uint64Long("cycles", 'c', 10_000_000, "cycle budget before giving up")
	help := getopt.BoolLong("help", 'h', "show usage")
	getopt.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *help || *filename == "" {
		getopt.Usage()
		os.Exit(0)
	}

	cpu := vm.NewCPU(*memSize)
	if err := cpu.LoadProgram(*filename); err != nil {
		logger.Error("loading program", "error", err)
		os.Exit(1)
	}

	var line *liner.State
	if *debug {
		line = liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)
	}

	var cycles uint64
	for cycles = 0; cycles < *maxCycles; cycles++ {
		pc := cpu.RegisterBank().GetPC()
		if *verbose {
			word, err := cpu.ReadWordFromMemory(pc)
			if err == nil {
				logger.Debug("cycle", "pc", fmt.Sprintf("%#08x", pc), "instr", vm.Disassemble(word))
			}
		}
		if line != nil && !debugPrompt(line, cpu, logger) {
			line = nil
		}
		halted, err := cpu.Step()
		if err != nil {
			logger.Error("fault", "pc", fmt.Sprintf("%#08x", pc), "error", err)
			os.Exit(1)
		}
		if halted {
			logger.Info("halted", "cycles", cycles+1)
			return
		}
	}
	logger.Error("cycle budget exhausted", "cycles", cycles)
	os.Exit(1)
}

// debugPrompt reads debugger commands until one of them steps the CPU.
// It returns false when the user asked to continue without further
// pauses, so the caller can drop the prompt for the rest of the run.
func debugPrompt(line *liner.State, cpu *vm.CPU, logger *slog.Logger) bool {
	for {
		input, err := line.Prompt("vm> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				os.Exit(0)
			}
			logger.Error("reading debugger prompt", "error", err)
			os.Exit(1)
		}
		line.AppendHistory(input)
		switch input {
		case "", "s", "step":
			return true
		case "c", "continue":
			return false
		case "r", "regs":
			printRegisters(cpu)
		case "q", "quit":
			os.Exit(0)
		default:
			fmt.Println("commands: s(tep), c(ontinue), r(egs), q(uit)")
		}
	}
}

func printRegisters(cpu *vm.CPU) {
	fmt.Printf("pc  = %#08x\n", cpu.RegisterBank().GetPC())
	for i := uint32(0); i < vm.NumRegisters; i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Printf("x%-2d = %#08x  ", j, cpu.GetRegister(j))
		}
		fmt.Println()
	}
}
