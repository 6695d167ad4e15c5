package asm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// InstructionOrError is one assembled word or the error that occurred
// producing it, tagged with the source line for reporting.
type InstructionOrError struct {
	Instruction uint32
	Error       error
	Lineno      int
}

// StartAssembler starts the assembler pipeline (lex, parse, encode)
// in a background goroutine and returns the resulting stream.
func StartAssembler(r io.Reader) <-chan InstructionOrError {
	out := make(chan InstructionOrError)
	go AssemblerAsync(r, out)
	return out
}

// AssemblerAsync runs the two-pass assembler: it first drains the
// parser to collect every instruction and every label's address (its
// index into the instruction stream), then encodes each instruction
// now that label lookups can succeed regardless of whether a label is
// defined before or after its use.
func AssemblerAsync(r io.Reader, out chan<- InstructionOrError) {
	defer close(out)
	labels := make(map[string]int64)
	var instructions []Instruction
	var idx int64
	for instr := range StartParsing(StartLexing(r)) {
		if instr.Err() != nil {
			out <- InstructionOrError{Error: instr.Err(), Lineno: instr.Line()}
			return
		}
		if instr.Label() != nil {
			labels[*instr.Label()] = idx
		}
		instructions = append(instructions, instr)
		idx++
	}
	for pc, instr := range instructions {
		encoded, err := instr.Encode(labels, uint32(pc))
		if err != nil {
			out <- InstructionOrError{Error: err, Lineno: instr.Line()}
			continue
		}
		out <- InstructionOrError{Instruction: encoded, Lineno: instr.Line()}
	}
}

// Assemble runs the full pipeline over r and returns the encoded words
// in program order, or the first error encountered.
func Assemble(r io.Reader) ([]uint32, error) {
	var words []uint32
	for ioe := range StartAssembler(r) {
		if ioe.Error != nil {
			return nil, fmt.Errorf("asm: line %d: %w", ioe.Lineno, ioe.Error)
		}
		words = append(words, ioe.Instruction)
	}
	return words, nil
}

// AssembleToBytes runs Assemble and packs the resulting words into a
// little-endian flat binary, the format pkg/vm's CPU.LoadProgram reads
// directly into physical memory at address 0.
func AssembleToBytes(r io.Reader) ([]byte, error) {
	words, err := Assemble(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
	return buf, nil
}
