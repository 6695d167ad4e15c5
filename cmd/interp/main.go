// Command interp assembles an RV32I source file and runs it
// immediately, without an intermediate binary on disk, with the same
// interactive single-step debugger cmd/vm offers. With -tty it also
// attaches the memory-mapped serial console and waits for a
// controlling TCP connection before starting the program.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"
	"github.com/peterh/liner"

	"github.com/bassosimone/rv32pipe/pkg/asm"
	"github.com/bassosimone/rv32pipe/pkg/vm"
)

func main() {
	debug := getopt.BoolLong("debug", 'd', "pause and prompt before every cycle")
	verbose := getopt.BoolLong("verbose", 'v', "log a trace line for every cycle")
	filename := getopt.StringLong("file", 'f', "", "RV32I assembly source to assemble and run")
	memSize := getopt.IntLong("mem", 'm', 1<<20, "physical memory size in bytes")
	maxCycles := getopt.Uint64Long("cycles", 'c', 10_000_000, "cycle budget before giving up")
	tty := getopt.BoolLong("tty", 't', "attach the memory-mapped console and wait for a connection")
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

	fp, err := os.Open(*filename)
	if err != nil {
		logger.Error("opening source", "error", err)
		os.Exit(1)
	}
	defer fp.Close()

	program, err := asm.AssembleToBytes(fp)
	if err != nil {
		logger.Error("assembling", "error", err)
		os.Exit(1)
	}

	cpu := vm.NewCPU(*memSize)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(program)); err != nil {
		logger.Error("loading assembled program", "error", err)
		os.Exit(1)
	}

	var console *vm.Console
	if *tty {
		logger.Info("waiting for a console connection")
		console, err = vm.ListenAndAcceptConsole(vm.ConsoleMMIOBase)
		if err != nil {
			logger.Error("accepting console connection", "error", err)
			os.Exit(1)
		}
		defer console.Close()
		cpu.MMU().AttachDevice(console)
		cpu.PageTable().AddEntry(vm.ConsoleMMIOBase,
			vm.NewPageTableEntry(vm.ConsoleMMIOBase, vm.PTEValid|vm.PTERead|vm.PTEWrite|vm.PTEUserAccessible))
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
		if console != nil {
			if err := console.Poll(); err != nil {
				logger.Error("console detached", "error", err)
				os.Exit(1)
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
		input, err := line.Prompt("interp> ")
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
