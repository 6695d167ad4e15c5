package vm

// InstructionFormat names which of the six RV32I instruction formats
// (or the Invalid sentinel) a decoded instruction belongs to.
type InstructionFormat int

// The seven classification outcomes of decode: the six RV32I formats
// plus Invalid for anything the decoder could not classify.
const (
	FormatR InstructionFormat = iota
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
	FormatInvalid
)

// String renders the format name, mostly useful for tracing/logging.
func (f InstructionFormat) String() string {
	switch f {
	case FormatR:
		return "R"
	case FormatI:
		return "I"
	case FormatS:
		return "S"
	case FormatB:
		return "B"
	case FormatU:
		return "U"
	case FormatJ:
		return "J"
	default:
		return "Invalid"
	}
}

// DecodedInstruction is the common interface over the tagged variants
// produced by Decode — one variant per instruction format rather than
// a single struct with every possible field, so decode classification
// is total and execute dispatch stays exhaustive.
type DecodedInstruction interface {
	// Format identifies which RV32I format this instruction decoded
	// into.
	Format() InstructionFormat

	// RawWord returns the original 32-bit fetched word.
	RawWord() uint32

	// OpcodeValue returns the low 7 opcode bits of the raw word.
	OpcodeValue() uint32
}

// The opcode values RV32I base assigns to each instruction format. The
// classification switch in Decode is the total function from these
// values (and everything else) to an InstructionFormat.
const (
	OpcodeOP     = uint32(0x33) // R-type: register-register ALU ops
	OpcodeOPIMM  = uint32(0x13) // I-type: register-immediate ALU ops
	OpcodeLOAD   = uint32(0x03) // I-type: loads
	OpcodeJALR   = uint32(0x67) // I-type: indirect jump-and-link
	OpcodeSYSTEM = uint32(0x73) // I-type: ECALL/EBREAK family (unused fields)
	OpcodeSTORE  = uint32(0x23) // S-type
	OpcodeBRANCH = uint32(0x63) // B-type
	OpcodeLUI    = uint32(0x37) // U-type
	OpcodeAUIPC  = uint32(0x17) // U-type
	OpcodeJAL    = uint32(0x6F) // J-type
)

// DecodedInstructionRType is a decoded R-type (register-register ALU)
// instruction.
type DecodedInstructionRType struct {
	Raw    uint32
	Opcode uint32
	Rd     uint32
	Funct3 uint32
	Rs1    uint32
	Rs2    uint32
	Funct7 uint32
}

// NewDecodedInstructionRType returns an R-type variant carrying only
// the raw word; callers (Decode, or tests constructing one by hand)
// fill in the remaining fields.
func NewDecodedInstructionRType(raw uint32) *DecodedInstructionRType {
	return &DecodedInstructionRType{Raw: raw}
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionRType) Format() InstructionFormat { return FormatR }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionRType) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionRType) OpcodeValue() uint32 { return d.Opcode }

// DecodedInstructionIType is a decoded I-type instruction (OP-IMM,
// LOAD, JALR, SYSTEM).
type DecodedInstructionIType struct {
	Raw    uint32
	Opcode uint32
	Rd     uint32
	Funct3 uint32
	Rs1    uint32
	Imm    int32 // sign-extended 12-bit immediate
}

// NewDecodedInstructionIType returns an I-type variant carrying only
// the raw word.
func NewDecodedInstructionIType(raw uint32) *DecodedInstructionIType {
	return &DecodedInstructionIType{Raw: raw}
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionIType) Format() InstructionFormat { return FormatI }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionIType) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionIType) OpcodeValue() uint32 { return d.Opcode }

// DecodedInstructionSType is a decoded S-type (store) instruction.
type DecodedInstructionSType struct {
	Raw    uint32
	Opcode uint32
	Funct3 uint32
	Rs1    uint32
	Rs2    uint32
	Imm    int32 // sign-extended 12-bit immediate, split [31:25]|[11:7]
}

// NewDecodedInstructionSType returns an S-type variant carrying only
// the raw word.
func NewDecodedInstructionSType(raw uint32) *DecodedInstructionSType {
	return &DecodedInstructionSType{Raw: raw}
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionSType) Format() InstructionFormat { return FormatS }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionSType) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionSType) OpcodeValue() uint32 { return d.Opcode }

// DecodedInstructionBType is a decoded B-type (branch) instruction.
type DecodedInstructionBType struct {
	Raw    uint32
	Opcode uint32
	Funct3 uint32
	Rs1    uint32
	Rs2    uint32
	Imm    int32 // sign-extended 13-bit immediate, scattered, bit 0 is zero
}

// NewDecodedInstructionBType returns a B-type variant carrying only
// the raw word.
func NewDecodedInstructionBType(raw uint32) *DecodedInstructionBType {
	return &DecodedInstructionBType{Raw: raw}
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionBType) Format() InstructionFormat { return FormatB }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionBType) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionBType) OpcodeValue() uint32 { return d.Opcode }

// DecodedInstructionUType is a decoded U-type (LUI/AUIPC) instruction.
type DecodedInstructionUType struct {
	Raw    uint32
	Opcode uint32
	Rd     uint32
	Imm    uint32 // upper 20 bits placed in [31:12], low 12 bits zero
}

// NewDecodedInstructionUType returns a U-type variant carrying only
// the raw word.
func NewDecodedInstructionUType(raw uint32) *DecodedInstructionUType {
	return &DecodedInstructionUType{Raw: raw}
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionUType) Format() InstructionFormat { return FormatU }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionUType) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionUType) OpcodeValue() uint32 { return d.Opcode }

// DecodedInstructionJType is a decoded J-type (JAL) instruction.
type DecodedInstructionJType struct {
	Raw    uint32
	Opcode uint32
	Rd     uint32
	Imm    int32 // sign-extended 21-bit immediate, scattered, bit 0 is zero
}

// NewDecodedInstructionJType returns a J-type variant carrying only
// the raw word.
func NewDecodedInstructionJType(raw uint32) *DecodedInstructionJType {
	return &DecodedInstructionJType{Raw: raw}
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionJType) Format() InstructionFormat { return FormatJ }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionJType) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionJType) OpcodeValue() uint32 { return d.Opcode }

// DecodedInstructionInvalid marks a word the decoder could not
// classify into any RV32I format.
type DecodedInstructionInvalid struct {
	Raw    uint32
	Reason string
}

// Format implements DecodedInstruction.
func (d *DecodedInstructionInvalid) Format() InstructionFormat { return FormatInvalid }

// RawWord implements DecodedInstruction.
func (d *DecodedInstructionInvalid) RawWord() uint32 { return d.Raw }

// OpcodeValue implements DecodedInstruction.
func (d *DecodedInstructionInvalid) OpcodeValue() uint32 { return d.Raw & 0x7F }

// Decode classifies a 32-bit fetched word into a DecodedInstruction
// variant and extracts its fields. It never returns nil: unclassifiable
// words come back as *DecodedInstructionInvalid.
func Decode(word uint32) DecodedInstruction {
	opcode := word & 0x7F
	switch opcode {
	case OpcodeOP:
		return decodeRType(word, opcode)
	case OpcodeOPIMM, OpcodeLOAD, OpcodeJALR, OpcodeSYSTEM:
		return decodeIType(word, opcode)
	case OpcodeSTORE:
		return decodeSType(word, opcode)
	case OpcodeBRANCH:
		return decodeBType(word, opcode)
	case OpcodeLUI, OpcodeAUIPC:
		return decodeUType(word, opcode)
	case OpcodeJAL:
		return decodeJType(word, opcode)
	default:
		return &DecodedInstructionInvalid{Raw: word, Reason: "unrecognized opcode"}
	}
}

func decodeRType(word, opcode uint32) *DecodedInstructionRType {
	return &DecodedInstructionRType{
		Raw:    word,
		Opcode: opcode,
		Rd:     (word >> 7) & 0x1F,
		Funct3: (word >> 12) & 0x7,
		Rs1:    (word >> 15) & 0x1F,
		Rs2:    (word >> 20) & 0x1F,
		Funct7: (word >> 25) & 0x7F,
	}
}

func decodeIType(word, opcode uint32) *DecodedInstructionIType {
	return &DecodedInstructionIType{
		Raw:    word,
		Opcode: opcode,
		Rd:     (word >> 7) & 0x1F,
		Funct3: (word >> 12) & 0x7,
		Rs1:    (word >> 15) & 0x1F,
		Imm:    signExtend(word>>20, 12),
	}
}

func decodeSType(word, opcode uint32) *DecodedInstructionSType {
	imm := ((word >> 25) << 5) | ((word >> 7) & 0x1F)
	return &DecodedInstructionSType{
		Raw:    word,
		Opcode: opcode,
		Funct3: (word >> 12) & 0x7,
		Rs1:    (word >> 15) & 0x1F,
		Rs2:    (word >> 20) & 0x1F,
		Imm:    signExtend(imm, 12),
	}
}

func decodeBType(word, opcode uint32) *DecodedInstructionBType {
	imm := (((word >> 31) & 0x1) << 12) |
		(((word >> 7) & 0x1) << 11) |
		(((word >> 25) & 0x3F) << 5) |
		(((word >> 8) & 0xF) << 1)
	return &DecodedInstructionBType{
		Raw:    word,
		Opcode: opcode,
		Funct3: (word >> 12) & 0x7,
		Rs1:    (word >> 15) & 0x1F,
		Rs2:    (word >> 20) & 0x1F,
		Imm:    signExtend(imm, 13),
	}
}

func decodeUType(word, opcode uint32) *DecodedInstructionUType {
	return &DecodedInstructionUType{
		Raw:    word,
		Opcode: opcode,
		Rd:     (word >> 7) & 0x1F,
		Imm:    word &^ 0xFFF, // imm[31:12] placed in bits [31:12]
	}
}

func decodeJType(word, opcode uint32) *DecodedInstructionJType {
	imm := (((word >> 31) & 0x1) << 20) |
		(((word >> 12) & 0xFF) << 12) |
		(((word >> 20) & 0x1) << 11) |
		(((word >> 21) & 0x3FF) << 1)
	return &DecodedInstructionJType{
		Raw:    word,
		Opcode: opcode,
		Rd:     (word >> 7) & 0x1F,
		Imm:    signExtend(imm, 21),
	}
}

// signExtend sign-extends the low bits-wide value v to a full 32-bit
// two's-complement int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}
