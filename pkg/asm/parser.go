package asm

import "fmt"

// StartParsing consumes a token stream and produces an Instruction
// stream, one per source line that carries a mnemonic. Label-only
// lines are absorbed into whichever instruction follows them rather
// than producing an entry of their own.
func StartParsing(tokens <-chan Token) <-chan Instruction {
	out := make(chan Instruction)
	go parseAsync(tokens, out)
	return out
}

// lineParser carries the label defined by a label-only line over to
// the next line that holds a mnemonic.
type lineParser struct {
	pendingLabel *string
}

func parseAsync(tokens <-chan Token, out chan<- Instruction) {
	defer close(out)
	p := &lineParser{}
	var line []Token
	for tok := range tokens {
		switch tok.Kind {
		case TokenLabelDef:
			name := tok.Text
			p.pendingLabel = &name
		case TokenNewline:
			if len(line) > 0 {
				out <- p.parseLine(line)
				line = nil
			}
		case TokenEOF:
			if len(line) > 0 {
				out <- p.parseLine(line)
			}
			return
		default:
			line = append(line, tok)
		}
	}
}

// parseLine dispatches a fully buffered line (everything but its
// label, already consumed) on its leading mnemonic token.
func (p *lineParser) parseLine(line []Token) Instruction {
	label := p.pendingLabel
	p.pendingLabel = nil

	mnemonicTok := line[0]
	name := mnemonicTok.Text
	operands := line[1:]
	lineno := mnemonicTok.Line

	if name == ".word" || name == ".fill" {
		return parseData(operands, label, lineno)
	}
	if name == "nop" {
		return &parsedInstruction{lineno: lineno, maybeLabel: label, info: mnemonics["addi"], rd: 0, rs1: 0, imm: "0"}
	}
	if name == "j" {
		return parseJ(operands, label, lineno)
	}

	info, ok := mnemonics[name]
	if !ok {
		return ParseError{Cause: fmt.Errorf("%w: %q", ErrUnknownMnemonic, name), Lineno: lineno}
	}

	switch info.format {
	case formatR:
		return parseRType(operands, info, label, lineno)
	case formatOpImm:
		return parseOpImm(operands, info, label, lineno)
	case formatShiftImm:
		return parseOpImm(operands, info, label, lineno)
	case formatLoad:
		return parseMemWithOffset(operands, info, label, lineno)
	case formatJALR:
		return parseJALR(operands, info, label, lineno)
	case formatStore:
		return parseStore(operands, info, label, lineno)
	case formatBranch:
		return parseBranch(operands, info, label, lineno)
	case formatLUI, formatAUIPC:
		return parseU(operands, info, label, lineno)
	case formatJAL:
		return parseJAL(operands, info, label, lineno)
	default:
		return ParseError{Cause: fmt.Errorf("%w: unhandled mnemonic format", ErrCannotEncode), Lineno: lineno}
	}
}

// operandIdents extracts the TokenIdent text at the given positions
// within a comma-separated operand list, ignoring TokenComma
// separators; it fails if the list is shorter than expected.
func operandIdents(operands []Token, want int, lineno int) ([]string, error) {
	var idents []string
	for _, t := range operands {
		if t.Kind == TokenIdent {
			idents = append(idents, t.Text)
		}
	}
	if len(idents) < want {
		return nil, fmt.Errorf("%w: expected %d operands on line %d", ErrSyntax, want, lineno)
	}
	return idents, nil
}

func parseRType(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 3, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rd, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs1, err := resolveRegister(idents[1])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs2, err := resolveRegister(idents[2])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rd: rd, rs1: rs1, rs2: rs2}
}

func parseOpImm(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 3, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rd, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs1, err := resolveRegister(idents[1])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rd: rd, rs1: rs1, imm: idents[2]}
}

// parseMemWithOffset parses the "rd, imm(rs1)" load syntax.
func parseMemWithOffset(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 3, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rd, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs1, err := resolveRegister(idents[2])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rd: rd, rs1: rs1, imm: idents[1]}
}

func parseJALR(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	return parseMemWithOffset(operands, info, label, lineno)
}

// parseStore parses the "rs2, imm(rs1)" store syntax.
func parseStore(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 3, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs2, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs1, err := resolveRegister(idents[2])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rs1: rs1, rs2: rs2, imm: idents[1]}
}

func parseBranch(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 3, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs1, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rs2, err := resolveRegister(idents[1])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rs1: rs1, rs2: rs2, imm: idents[2]}
}

func parseU(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 2, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rd, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rd: rd, imm: idents[1]}
}

func parseJAL(operands []Token, info mnemonicInfo, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 2, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	rd, err := resolveRegister(idents[0])
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: info, rd: rd, imm: idents[1]}
}

// parseJ handles the "j label" pseudo-instruction: jal x0, label.
func parseJ(operands []Token, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 1, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{lineno: lineno, maybeLabel: label, info: mnemonics["jal"], rd: 0, imm: idents[0]}
}

// parseData handles ".word value" / ".fill value", a raw 32-bit word
// directive.
func parseData(operands []Token, label *string, lineno int) Instruction {
	idents, err := operandIdents(operands, 1, lineno)
	if err != nil {
		return ParseError{Cause: err, Lineno: lineno}
	}
	return &parsedInstruction{
		lineno: lineno, maybeLabel: label,
		info: mnemonicInfo{format: formatData},
		imm:  idents[0],
	}
}
