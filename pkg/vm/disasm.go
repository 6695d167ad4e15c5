package vm

import "fmt"

// Disassemble renders a 32-bit instruction word as assembly text, used
// by the front-ends for per-cycle trace output. Unrecognized words
// render as an annotated placeholder rather than an error so a trace
// can always print something.
func Disassemble(word uint32) string {
	switch d := Decode(word).(type) {
	case *DecodedInstructionRType:
		return disassembleRType(d)
	case *DecodedInstructionIType:
		return disassembleIType(d)
	case *DecodedInstructionSType:
		if name, ok := storeName(d.Funct3); ok {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, d.Rs2, d.Imm, d.Rs1)
		}
	case *DecodedInstructionBType:
		if name, ok := branchName(d.Funct3); ok {
			return fmt.Sprintf("%s x%d, x%d, %d", name, d.Rs1, d.Rs2, d.Imm)
		}
	case *DecodedInstructionUType:
		name := "lui"
		if d.Opcode == OpcodeAUIPC {
			name = "auipc"
		}
		return fmt.Sprintf("%s x%d, 0x%x", name, d.Rd, d.Imm>>12)
	case *DecodedInstructionJType:
		return fmt.Sprintf("jal x%d, %d", d.Rd, d.Imm)
	}
	return fmt.Sprintf("<unknown instruction: %#08x>", word)
}

func disassembleRType(d *DecodedInstructionRType) string {
	key := d.Funct7<<3 | d.Funct3
	names := map[uint32]string{
		0x00<<3 | 0x0: "add", 0x20<<3 | 0x0: "sub",
		0x00<<3 | 0x1: "sll", 0x00<<3 | 0x2: "slt", 0x00<<3 | 0x3: "sltu",
		0x00<<3 | 0x4: "xor", 0x00<<3 | 0x5: "srl", 0x20<<3 | 0x5: "sra",
		0x00<<3 | 0x6: "or", 0x00<<3 | 0x7: "and",
	}
	name, ok := names[key]
	if !ok {
		return fmt.Sprintf("<unknown instruction: %#08x>", d.Raw)
	}
	return fmt.Sprintf("%s x%d, x%d, x%d", name, d.Rd, d.Rs1, d.Rs2)
}

func disassembleIType(d *DecodedInstructionIType) string {
	switch d.Opcode {
	case OpcodeOPIMM:
		return disassembleOpImm(d)
	case OpcodeLOAD:
		if name, ok := loadName(d.Funct3); ok {
			return fmt.Sprintf("%s x%d, %d(x%d)", name, d.Rd, d.Imm, d.Rs1)
		}
	case OpcodeJALR:
		return fmt.Sprintf("jalr x%d, %d(x%d)", d.Rd, d.Imm, d.Rs1)
	}
	return fmt.Sprintf("<unknown instruction: %#08x>", d.Raw)
}

func disassembleOpImm(d *DecodedInstructionIType) string {
	switch d.Funct3 {
	case 0x0:
		return fmt.Sprintf("addi x%d, x%d, %d", d.Rd, d.Rs1, d.Imm)
	case 0x2:
		return fmt.Sprintf("slti x%d, x%d, %d", d.Rd, d.Rs1, d.Imm)
	case 0x3:
		return fmt.Sprintf("sltiu x%d, x%d, %d", d.Rd, d.Rs1, d.Imm)
	case 0x4:
		return fmt.Sprintf("xori x%d, x%d, %d", d.Rd, d.Rs1, d.Imm)
	case 0x6:
		return fmt.Sprintf("ori x%d, x%d, %d", d.Rd, d.Rs1, d.Imm)
	case 0x7:
		return fmt.Sprintf("andi x%d, x%d, %d", d.Rd, d.Rs1, d.Imm)
	case 0x1:
		return fmt.Sprintf("slli x%d, x%d, %d", d.Rd, d.Rs1, (d.Raw>>20)&0x1F)
	case 0x5:
		name := "srli"
		if (d.Raw>>25)&0x7F == 0x20 {
			name = "srai"
		}
		return fmt.Sprintf("%s x%d, x%d, %d", name, d.Rd, d.Rs1, (d.Raw>>20)&0x1F)
	}
	return fmt.Sprintf("<unknown instruction: %#08x>", d.Raw)
}

func loadName(funct3 uint32) (string, bool) {
	switch funct3 {
	case 0x0:
		return "lb", true
	case 0x1:
		return "lh", true
	case 0x2:
		return "lw", true
	case 0x4:
		return "lbu", true
	case 0x5:
		return "lhu", true
	}
	return "", false
}

func storeName(funct3 uint32) (string, bool) {
	switch funct3 {
	case 0x0:
		return "sb", true
	case 0x1:
		return "sh", true
	case 0x2:
		return "sw", true
	}
	return "", false
}

func branchName(funct3 uint32) (string, bool) {
	switch funct3 {
	case 0x0:
		return "beq", true
	case 0x1:
		return "bne", true
	case 0x4:
		return "blt", true
	case 0x5:
		return "bge", true
	case 0x6:
		return "bltu", true
	case 0x7:
		return "bgeu", true
	}
	return "", false
}
