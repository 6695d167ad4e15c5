// Command asm assembles an RV32I source file into either a flat
// little-endian binary pkg/vm.CPU.LoadProgram can run, or a
// human-readable listing of the encoded words.
package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/bassosimone/rv32pipe/pkg/asm"
)

func main() {
	filename := getopt.StringLong("file", 'f', "", "assembly source file")
	output := getopt.StringLong("output", 'o', "", "write flat binary here instead of a listing")
	help := getopt.BoolLong("help", 'h', "show usage")
	getopt.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
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

	if *output != "" {
		data, err := asm.AssembleToBytes(fp)
		if err != nil {
			logger.Error("assembling", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			logger.Error("writing output", "error", err)
			os.Exit(1)
		}
		return
	}

	for ioe := range asm.StartAssembler(fp) {
		if ioe.Error != nil {
			logger.Error("assembling", "line", ioe.Lineno, "error", ioe.Error)
			os.Exit(1)
		}
		fmt.Printf("0x%08x\t# 0b%032b - line: %d\n", ioe.Instruction, ioe.Instruction, ioe.Lineno)
	}
}
