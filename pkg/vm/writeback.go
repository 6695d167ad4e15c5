package vm

// writeBack commits a result into the decoded instruction's
// destination register, if it has one and the register is not x0.
// Loads get the loaded value; everything else with an rd (R-type,
// OP-IMM, LUI, AUIPC, JAL, JALR) gets the ALU result; stores and
// branches write nothing back.
func writeBack(instr DecodedInstruction, regs *RegisterBank, execResult *ExecutionResult, memResult *MemoryAccessResult) {
	switch d := instr.(type) {
	case *DecodedInstructionRType:
		regs.Write(d.Rd, execResult.ALUResult)
	case *DecodedInstructionIType:
		if d.Opcode == OpcodeLOAD {
			if memResult != nil && memResult.LoadData != nil {
				regs.Write(d.Rd, *memResult.LoadData)
			}
			return
		}
		// OP-IMM or JALR: both define rd from the ALU result.
		regs.Write(d.Rd, execResult.ALUResult)
	case *DecodedInstructionUType:
		regs.Write(d.Rd, execResult.ALUResult)
	case *DecodedInstructionJType:
		regs.Write(d.Rd, execResult.ALUResult)
	case *DecodedInstructionSType, *DecodedInstructionBType:
		// no destination register
	}
}

// WriteBackStage wraps writeBack in the long-lived, settable-input
// object shape shared by all five pipeline stages.
type WriteBackStage struct {
	regs       *RegisterBank
	instr      DecodedInstruction
	execResult *ExecutionResult
	memResult  *MemoryAccessResult
}

// NewWriteBackStage returns a WriteBackStage bound to the given
// register bank.
func NewWriteBackStage(regs *RegisterBank) *WriteBackStage {
	return &WriteBackStage{regs: regs}
}

// SetDecodedInstruction sets the instruction whose destination (if
// any) the next Process call will write.
func (s *WriteBackStage) SetDecodedInstruction(instr DecodedInstruction) {
	s.instr = instr
}

// SetExecutionResult sets the ExecutionResult the next Process call
// will read the ALU result from.
func (s *WriteBackStage) SetExecutionResult(result *ExecutionResult) {
	s.execResult = result
}

// SetMemoryAccessResult sets the MemoryAccessResult the next Process
// call will read load data from.
func (s *WriteBackStage) SetMemoryAccessResult(result *MemoryAccessResult) {
	s.memResult = result
}

// Process commits the register write, if any.
func (s *WriteBackStage) Process() error {
	writeBack(s.instr, s.regs, s.execResult, s.memResult)
	return nil
}
