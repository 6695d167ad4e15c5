package vm

// MemoryAccessResult is the latch MemoryAccessStage produces and
// WriteBackStage consumes.
type MemoryAccessResult struct {
	LoadData *uint32 // set only for loads
	Stored   bool    // true if a store was performed
}

// memoryAccess performs the load or store described by result.MemoryOp
// (if any) through mmu, using result.ALUResult as the virtual address
// and regs to source a store's value. If result carries no memory
// operation, it passes through with an empty MemoryAccessResult.
func memoryAccess(mmu *MMU, regs *RegisterBank, result *ExecutionResult) (*MemoryAccessResult, error) {
	op := result.MemoryOp
	if op == nil {
		return &MemoryAccessResult{}, nil
	}
	addr := result.ALUResult
	switch op.Kind {
	case MemoryOpLoad:
		return loadThroughMMU(mmu, addr, op)
	case MemoryOpStore:
		return storeThroughMMU(mmu, regs, addr, op)
	default:
		return &MemoryAccessResult{}, nil
	}
}

func loadThroughMMU(mmu *MMU, addr uint32, op *MemoryOperation) (*MemoryAccessResult, error) {
	var value uint32
	switch op.Width {
	case WidthByte:
		b, err := mmu.Read(addr)
		if err != nil {
			return nil, err
		}
		if op.Signed {
			value = uint32(int32(int8(b)))
		} else {
			value = uint32(b)
		}
	case WidthHalf:
		h, err := mmu.ReadHalfword(addr)
		if err != nil {
			return nil, err
		}
		if op.Signed {
			value = uint32(int32(int16(h)))
		} else {
			value = uint32(h)
		}
	case WidthWord:
		w, err := mmu.ReadWord(addr)
		if err != nil {
			return nil, err
		}
		value = w
	}
	return &MemoryAccessResult{LoadData: &value}, nil
}

func storeThroughMMU(mmu *MMU, regs *RegisterBank, addr uint32, op *MemoryOperation) (*MemoryAccessResult, error) {
	value := regs.Read(op.Rs2)
	switch op.Width {
	case WidthByte:
		if err := mmu.Write(addr, byte(value)); err != nil {
			return nil, err
		}
	case WidthHalf:
		if err := mmu.WriteHalfword(addr, uint16(value)); err != nil {
			return nil, err
		}
	case WidthWord:
		if err := mmu.WriteWord(addr, value); err != nil {
			return nil, err
		}
	}
	return &MemoryAccessResult{Stored: true}, nil
}

// MemoryAccessStage wraps memoryAccess in the long-lived, settable-
// input / gettable-output object shape shared by all five pipeline
// stages.
type MemoryAccessStage struct {
	mmu    *MMU
	regs   *RegisterBank
	instr  DecodedInstruction
	input  *ExecutionResult
	result *MemoryAccessResult
}

// NewMemoryAccessStage returns a MemoryAccessStage bound to the given
// MMU (for the actual load/store) and register bank (to source a
// store's value).
func NewMemoryAccessStage(mmu *MMU, regs *RegisterBank) *MemoryAccessStage {
	return &MemoryAccessStage{mmu: mmu, regs: regs}
}

// SetExecutionResult sets the ExecutionResult the next Process call
// will act on.
func (s *MemoryAccessStage) SetExecutionResult(result *ExecutionResult) {
	s.input = result
}

// SetDecodedInstruction is accepted for parity with the other stages'
// input setters but is otherwise unused: every fact Process needs
// about the access is already folded into the ExecutionResult's
// MemoryOp by ExecuteStage.
func (s *MemoryAccessStage) SetDecodedInstruction(instr DecodedInstruction) {
	s.instr = instr
}

// Process performs the pending load/store, if any.
func (s *MemoryAccessStage) Process() error {
	result, err := memoryAccess(s.mmu, s.regs, s.input)
	s.result = result
	return err
}

// GetResult returns the result of the most recent Process call.
func (s *MemoryAccessStage) GetResult() *MemoryAccessResult {
	return s.result
}
