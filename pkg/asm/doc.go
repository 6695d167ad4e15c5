// Package asm contains the RV32I text assembler: mnemonic source lines
// in, encoded 32-bit instruction words out, label references resolved
// against the encoded instruction stream's own addresses.
//
// The pipeline is three goroutine stages joined by channels:
// StartLexing tokenizes an
// io.Reader line by line, StartParsing turns the token stream into a
// stream of Instruction values (one per source line, carrying its own
// parse error if any), and StartAssembler drives both and performs the
// two-pass label resolution (collect labels during the parse pass,
// then Encode each instruction now that every label's address is
// known).
//
// Supported mnemonics cover the RV32I base integer instruction set this
// module implements: the ten R-type ALU ops, the nine OP-IMM forms
// (including the SLLI/SRLI/SRAI shift-immediate encodings), the five
// load widths, the three store widths, the six branch conditions,
// LUI/AUIPC, and JAL/JALR — plus NOP and J as pseudo-instructions and
// .word (alias .fill) as a raw-data directive. The SYSTEM opcode family (ECALL,
// EBREAK, CSR instructions) is out of scope, matching pkg/vm.
package asm
