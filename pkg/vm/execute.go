package vm

// MemoryOpKind tags whether an ExecutionResult carries a load or a
// store for the memory access stage to perform.
type MemoryOpKind int

// The two kinds of memory operation an ExecutionResult can carry.
const (
	MemoryOpNone MemoryOpKind = iota
	MemoryOpLoad
	MemoryOpStore
)

// MemoryWidth is the width, in bytes, of a load or store.
type MemoryWidth int

// The three widths RV32I loads/stores operate on.
const (
	WidthByte MemoryWidth = 1
	WidthHalf MemoryWidth = 2
	WidthWord MemoryWidth = 4
)

// MemoryOperation describes a pending load or store, derived from the
// decoded instruction's subtype during Execute and consumed by
// MemoryAccessStage.
type MemoryOperation struct {
	Kind   MemoryOpKind
	Width  MemoryWidth
	Signed bool   // for loads: sign-extend (true) or zero-extend (false)
	Rd     uint32 // for loads: destination register
	Rs2    uint32 // for stores: source register holding the value to store
}

// ExecutionResult is the latch ExecuteStage produces and
// MemoryAccessStage/WriteBackStage consume.
type ExecutionResult struct {
	ALUResult    uint32
	BranchTaken  bool
	BranchTarget uint32
	MemoryOp     *MemoryOperation
}

// IsMemoryOp reports whether this result carries a pending load/store.
func (r *ExecutionResult) IsMemoryOp() bool {
	return r.MemoryOp != nil
}

// execute computes the ExecutionResult for a decoded instruction,
// reading source operands from regs and using pc for PC-relative
// operations (branch/jump targets, AUIPC). It returns an
// *IllegalInstruction fault for the Invalid variant or for any
// unrecognized funct3/funct7 combination within an otherwise valid
// opcode. Every such fault carries pc.
func execute(instr DecodedInstruction, regs *RegisterBank, pc uint32) (result *ExecutionResult, err error) {
	defer func() {
		if ill, ok := err.(*IllegalInstruction); ok {
			ill.PC = pc
		}
	}()
	switch d := instr.(type) {
	case *DecodedInstructionRType:
		return executeRType(d, regs)
	case *DecodedInstructionIType:
		return executeIType(d, regs, pc)
	case *DecodedInstructionSType:
		return executeSType(d, regs)
	case *DecodedInstructionBType:
		return executeBType(d, regs, pc)
	case *DecodedInstructionUType:
		return executeUType(d, pc)
	case *DecodedInstructionJType:
		return executeJType(d, pc)
	case *DecodedInstructionInvalid:
		return nil, &IllegalInstruction{RawWord: d.Raw, PC: pc}
	default:
		return nil, &IllegalInstruction{RawWord: instr.RawWord(), PC: pc}
	}
}

func executeRType(d *DecodedInstructionRType, regs *RegisterBank) (*ExecutionResult, error) {
	a, b := regs.Read(d.Rs1), regs.Read(d.Rs2)
	var result uint32
	switch {
	case d.Funct3 == 0 && d.Funct7 == 0x00: // ADD
		result = a + b
	case d.Funct3 == 0 && d.Funct7 == 0x20: // SUB
		result = a - b
	case d.Funct3 == 0x1 && d.Funct7 == 0x00: // SLL
		result = a << (b & 0x1F)
	case d.Funct3 == 0x2 && d.Funct7 == 0x00: // SLT
		result = boolToWord(int32(a) < int32(b))
	case d.Funct3 == 0x3 && d.Funct7 == 0x00: // SLTU
		result = boolToWord(a < b)
	case d.Funct3 == 0x4 && d.Funct7 == 0x00: // XOR
		result = a ^ b
	case d.Funct3 == 0x5 && d.Funct7 == 0x00: // SRL
		result = a >> (b & 0x1F)
	case d.Funct3 == 0x5 && d.Funct7 == 0x20: // SRA
		result = uint32(int32(a) >> (b & 0x1F))
	case d.Funct3 == 0x6 && d.Funct7 == 0x00: // OR
		result = a | b
	case d.Funct3 == 0x7 && d.Funct7 == 0x00: // AND
		result = a & b
	default:
		return nil, &IllegalInstruction{RawWord: d.Raw}
	}
	return &ExecutionResult{ALUResult: result}, nil
}

func executeIType(d *DecodedInstructionIType, regs *RegisterBank, pc uint32) (*ExecutionResult, error) {
	switch d.Opcode {
	case OpcodeOPIMM:
		return executeOpImm(d, regs)
	case OpcodeLOAD:
		return executeLoad(d, regs)
	case OpcodeJALR:
		target := uint32(int32(regs.Read(d.Rs1))+d.Imm) &^ 1
		return &ExecutionResult{
			ALUResult:    pc + 4,
			BranchTaken:  true,
			BranchTarget: target,
		}, nil
	default:
		// SYSTEM (ECALL/EBREAK/CSR) is out of scope; any word that
		// decodes to it is not executable here.
		return nil, &IllegalInstruction{RawWord: d.Raw, PC: pc}
	}
}

func executeOpImm(d *DecodedInstructionIType, regs *RegisterBank) (*ExecutionResult, error) {
	src := regs.Read(d.Rs1)
	imm := d.Imm
	immU := uint32(imm)
	var result uint32
	switch d.Funct3 {
	case 0x0: // ADDI
		result = uint32(int32(src) + imm)
	case 0x2: // SLTI
		result = boolToWord(int32(src) < imm)
	case 0x3: // SLTIU
		result = boolToWord(src < immU)
	case 0x4: // XORI
		result = src ^ immU
	case 0x6: // ORI
		result = src | immU
	case 0x7: // ANDI
		result = src & immU
	case 0x1: // SLLI: shamt is imm[4:0], imm[11:5] (funct7) must be 0
		shamt := (d.Raw >> 20) & 0x1F
		funct7 := (d.Raw >> 25) & 0x7F
		if funct7 != 0x00 {
			return nil, &IllegalInstruction{RawWord: d.Raw}
		}
		result = src << shamt
	case 0x5: // SRLI / SRAI, distinguished by imm[11:5] (funct7)
		shamt := (d.Raw >> 20) & 0x1F
		funct7 := (d.Raw >> 25) & 0x7F
		switch funct7 {
		case 0x00: // SRLI
			result = src >> shamt
		case 0x20: // SRAI
			result = uint32(int32(src) >> shamt)
		default:
			return nil, &IllegalInstruction{RawWord: d.Raw}
		}
	default:
		return nil, &IllegalInstruction{RawWord: d.Raw}
	}
	return &ExecutionResult{ALUResult: result}, nil
}

func executeLoad(d *DecodedInstructionIType, regs *RegisterBank) (*ExecutionResult, error) {
	width, signed, ok := loadSubtype(d.Funct3)
	if !ok {
		return nil, &IllegalInstruction{RawWord: d.Raw}
	}
	addr := uint32(int32(regs.Read(d.Rs1)) + d.Imm)
	return &ExecutionResult{
		ALUResult: addr,
		MemoryOp: &MemoryOperation{
			Kind:   MemoryOpLoad,
			Width:  width,
			Signed: signed,
			Rd:     d.Rd,
		},
	}, nil
}

func loadSubtype(funct3 uint32) (width MemoryWidth, signed bool, ok bool) {
	switch funct3 {
	case 0x0: // LB
		return WidthByte, true, true
	case 0x1: // LH
		return WidthHalf, true, true
	case 0x2: // LW
		return WidthWord, false, true
	case 0x4: // LBU
		return WidthByte, false, true
	case 0x5: // LHU
		return WidthHalf, false, true
	default:
		return 0, false, false
	}
}

func executeSType(d *DecodedInstructionSType, regs *RegisterBank) (*ExecutionResult, error) {
	var width MemoryWidth
	switch d.Funct3 {
	case 0x0: // SB
		width = WidthByte
	case 0x1: // SH
		width = WidthHalf
	case 0x2: // SW
		width = WidthWord
	default:
		return nil, &IllegalInstruction{RawWord: d.Raw}
	}
	addr := uint32(int32(regs.Read(d.Rs1)) + d.Imm)
	return &ExecutionResult{
		ALUResult: addr,
		MemoryOp: &MemoryOperation{
			Kind:  MemoryOpStore,
			Width: width,
			Rs2:   d.Rs2,
		},
	}, nil
}

func executeBType(d *DecodedInstructionBType, regs *RegisterBank, pc uint32) (*ExecutionResult, error) {
	a, b := regs.Read(d.Rs1), regs.Read(d.Rs2)
	var taken bool
	switch d.Funct3 {
	case 0x0: // BEQ
		taken = a == b
	case 0x1: // BNE
		taken = a != b
	case 0x4: // BLT
		taken = int32(a) < int32(b)
	case 0x5: // BGE
		taken = int32(a) >= int32(b)
	case 0x6: // BLTU
		taken = a < b
	case 0x7: // BGEU
		taken = a >= b
	default:
		return nil, &IllegalInstruction{RawWord: d.Raw, PC: pc}
	}
	target := pc + 4
	if taken {
		target = uint32(int32(pc) + d.Imm)
	}
	return &ExecutionResult{BranchTaken: taken, BranchTarget: target}, nil
}

func executeUType(d *DecodedInstructionUType, pc uint32) (*ExecutionResult, error) {
	switch d.Opcode {
	case OpcodeLUI:
		return &ExecutionResult{ALUResult: d.Imm}, nil
	case OpcodeAUIPC:
		return &ExecutionResult{ALUResult: pc + d.Imm}, nil
	default:
		return nil, &IllegalInstruction{RawWord: d.Raw, PC: pc}
	}
}

func executeJType(d *DecodedInstructionJType, pc uint32) (*ExecutionResult, error) {
	return &ExecutionResult{
		ALUResult:    pc + 4,
		BranchTaken:  true,
		BranchTarget: uint32(int32(pc) + d.Imm),
	}, nil
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// ExecuteStage wraps execute in the long-lived, settable-input /
// gettable-output object shape shared by all five pipeline stages, so
// the stage can be driven in isolation: set the decoded instruction,
// call Process, read the result back out.
type ExecuteStage struct {
	regs    *RegisterBank
	instr   DecodedInstruction
	pc      uint32
	result  *ExecutionResult
	lastErr error
}

// NewExecuteStage returns an ExecuteStage bound to the given register
// bank, the only state execute semantics read and write.
func NewExecuteStage(regs *RegisterBank) *ExecuteStage {
	return &ExecuteStage{regs: regs}
}

// SetDecodedInstruction sets the instruction the next Process call will
// execute.
func (s *ExecuteStage) SetDecodedInstruction(instr DecodedInstruction) {
	s.instr = instr
}

// SetPC sets the program counter value Process will treat as "current"
// for PC-relative computations (branch/jump targets, AUIPC, JAL/JALR
// link values). The pipeline driver always supplies the PC of the
// instruction being executed, not the (not yet updated) next PC.
func (s *ExecuteStage) SetPC(pc uint32) {
	s.pc = pc
}

// Process computes the ExecutionResult for the current instruction.
func (s *ExecuteStage) Process() error {
	result, err := execute(s.instr, s.regs, s.pc)
	s.result, s.lastErr = result, err
	return err
}

// GetResult returns the result of the most recent Process call.
func (s *ExecuteStage) GetResult() *ExecutionResult {
	return s.result
}
