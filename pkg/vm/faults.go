package vm

import (
	"errors"
	"fmt"
)

// The following sentinels identify each fault kind so callers can use
// errors.Is/errors.As without depending on the exact message text.
var (
	// ErrPageFault indicates the MMU found no valid mapping for a
	// virtual address.
	ErrPageFault = errors.New("vm: page fault")

	// ErrAccessViolation indicates a permission or privilege check
	// rejected an otherwise-mapped access.
	ErrAccessViolation = errors.New("vm: access violation")

	// ErrAlignmentError indicates a multi-byte access was not aligned
	// to its natural width.
	ErrAlignmentError = errors.New("vm: alignment error")

	// ErrMemoryBounds indicates a physical access fell outside the
	// backing memory array.
	ErrMemoryBounds = errors.New("vm: memory bounds error")

	// ErrIllegalInstruction indicates a fetched word could not be
	// executed: its opcode is not a supported RV32I format, or its
	// funct3/funct7 combination (or SYSTEM opcode) is not supported.
	ErrIllegalInstruction = errors.New("vm: illegal instruction")

	// ErrCycleBudgetExhausted indicates RunFor's cycle budget expired
	// before the program halted or faulted.
	ErrCycleBudgetExhausted = errors.New("vm: cycle budget exhausted")
)

// AccessKind identifies the purpose of a memory access, used both for
// MMU permission checks and for fault reporting.
type AccessKind int

// The following constants define the access kinds the MMU enforces
// permissions for.
const (
	AccessRead AccessKind = iota
	AccessWrite
	AccessExecute
)

// String renders the access kind the way faults report it.
func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	case AccessExecute:
		return "Execute"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// PageFault is raised when a virtual address has no valid page-table
// entry (absent, or present with the Valid bit clear).
type PageFault struct {
	VirtualAddress uint32
}

// Error implements error.
func (f *PageFault) Error() string {
	return fmt.Sprintf("%s: va=0x%08x", ErrPageFault, f.VirtualAddress)
}

// Unwrap lets errors.Is(err, ErrPageFault) work.
func (f *PageFault) Unwrap() error { return ErrPageFault }

// AccessViolation is raised when a mapped page denies the requested
// permission or privilege.
type AccessViolation struct {
	VirtualAddress uint32
	Kind           AccessKind
}

// Error implements error.
func (f *AccessViolation) Error() string {
	return fmt.Sprintf("%s: va=0x%08x kind=%s", ErrAccessViolation, f.VirtualAddress, f.Kind)
}

// Unwrap lets errors.Is(err, ErrAccessViolation) work.
func (f *AccessViolation) Unwrap() error { return ErrAccessViolation }

// AlignmentError is raised when a multi-byte access is not aligned to
// its width.
type AlignmentError struct {
	VirtualAddress uint32
	Width          int
}

// Error implements error.
func (f *AlignmentError) Error() string {
	return fmt.Sprintf("%s: va=0x%08x width=%d", ErrAlignmentError, f.VirtualAddress, f.Width)
}

// Unwrap lets errors.Is(err, ErrAlignmentError) work.
func (f *AlignmentError) Unwrap() error { return ErrAlignmentError }

// MemoryBoundsError is raised when a physical access falls outside the
// backing memory array.
type MemoryBoundsError struct {
	PhysicalAddress uint32
	Width           int
}

// Error implements error.
func (f *MemoryBoundsError) Error() string {
	return fmt.Sprintf("%s: pa=0x%08x width=%d", ErrMemoryBounds, f.PhysicalAddress, f.Width)
}

// Unwrap lets errors.Is(err, ErrMemoryBounds) work.
func (f *MemoryBoundsError) Unwrap() error { return ErrMemoryBounds }

// IllegalInstruction is raised when a fetched word cannot be executed:
// the decoder cannot classify it into any supported RV32I format, or
// ExecuteStage finds an unsupported funct3/funct7 combination or a
// SYSTEM instruction. PC is the address the word was fetched from.
type IllegalInstruction struct {
	RawWord uint32
	PC      uint32
}

// Error implements error.
func (f *IllegalInstruction) Error() string {
	return fmt.Sprintf("%s: raw=0x%08x pc=0x%08x", ErrIllegalInstruction, f.RawWord, f.PC)
}

// Unwrap lets errors.Is(err, ErrIllegalInstruction) work.
func (f *IllegalInstruction) Unwrap() error { return ErrIllegalInstruction }

// CycleBudgetExhausted is raised by RunFor when the cycle budget expires
// before the program halts or faults.
type CycleBudgetExhausted struct {
	CyclesRun uint64
}

// Error implements error.
func (f *CycleBudgetExhausted) Error() string {
	return fmt.Sprintf("%s: ran=%d", ErrCycleBudgetExhausted, f.CyclesRun)
}

// Unwrap lets errors.Is(err, ErrCycleBudgetExhausted) work.
func (f *CycleBudgetExhausted) Unwrap() error { return ErrCycleBudgetExhausted }
