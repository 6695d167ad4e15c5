package vm

// FetchStage wraps the fetch of a single instruction word through the
// MMU in the long-lived, settable-input / gettable-output object shape
// shared by all five pipeline stages. It reads the program counter
// straight from the register bank supplied at construction time, so
// there is nothing to set before calling Process beyond
// RegisterBank.SetPC.
type FetchStage struct {
	mmu     *MMU
	regs    *RegisterBank
	fetched uint32
}

// NewFetchStage returns a FetchStage bound to the given MMU (for the
// Execute-class translation every fetch performs) and register bank
// (for the program counter).
func NewFetchStage(mmu *MMU, regs *RegisterBank) *FetchStage {
	return &FetchStage{mmu: mmu, regs: regs}
}

// Process fetches the word at the current PC. Any MMU fault (page
// fault, access violation, misaligned fetch) propagates unchanged.
func (s *FetchStage) Process() error {
	word, err := s.mmu.FetchWord(s.regs.GetPC())
	if err != nil {
		return err
	}
	s.fetched = word
	return nil
}

// GetFetchedInstruction returns the word fetched by the most recent
// Process call.
func (s *FetchStage) GetFetchedInstruction() uint32 {
	return s.fetched
}
