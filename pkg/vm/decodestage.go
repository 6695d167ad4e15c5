package vm

// DecodeStage wraps Decode in the long-lived, settable-input /
// gettable-output object shape shared by all five pipeline stages.
// Decode itself needs nothing but the fetched word; the register bank
// parameter is accepted at construction for parity with the other
// stages, the same way MemoryAccessStage accepts a decoded instruction
// it doesn't strictly need.
type DecodeStage struct {
	regs    *RegisterBank
	fetched uint32
	decoded DecodedInstruction
}

// NewDecodeStage returns a DecodeStage. regs is unused by decode
// semantics but kept for constructor parity with the other stages.
func NewDecodeStage(regs *RegisterBank) *DecodeStage {
	return &DecodeStage{regs: regs}
}

// SetFetchedInstruction sets the word the next Process call will
// classify.
func (s *DecodeStage) SetFetchedInstruction(word uint32) {
	s.fetched = word
}

// Process classifies the fetched word into a DecodedInstruction.
// Decode is total: this never fails, even for unrecognized opcodes,
// which come back as *DecodedInstructionInvalid for ExecuteStage to
// fault on.
func (s *DecodeStage) Process() error {
	s.decoded = Decode(s.fetched)
	return nil
}

// GetDecodedInstruction returns the result of the most recent Process
// call.
func (s *DecodeStage) GetDecodedInstruction() DecodedInstruction {
	return s.decoded
}
