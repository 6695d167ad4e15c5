package vm

import (
	"io"
	"os"
)

// CPU is a complete pipelined RV32I core: physical memory, a page
// table, an MMU wired over both, a register bank, and the five stage
// objects, driven one cycle at a time. One cycle retires exactly one
// instruction.
//
// CPU owns PhysicalMemory and PageTable outright and lends shared
// access to both through its MMU — the loader and introspection
// methods below reach PhysicalMemory directly (bypassing the MMU, as
// configuration-time code is allowed to), while every stage reaches
// memory only through the MMU.
//
// A freshly constructed CPU installs an identity mapping across the
// whole of physical memory with full V|R|W|X|U permissions in MACHINE
// mode, so a program loaded at address 0 and run with no further setup
// behaves as if there were no MMU at all. Embedders that want real
// paging call PageTable() and replace these default entries.
type CPU struct {
	memory    *PhysicalMemory
	pageTable *PageTable
	mmu       *MMU
	regs      *RegisterBank

	fetch  *FetchStage
	decode *DecodeStage
	exec   *ExecuteStage
	mem    *MemoryAccessStage
	wb     *WriteBackStage

	cycles uint64
}

// identityPageFlags grants every permission bit: a freshly constructed
// CPU's default page table maps memory 1:1 with no restrictions, so
// unconfigured programs run as if unpaged.
const identityPageFlags = PTEValid | PTERead | PTEWrite | PTEExecute | PTEUserAccessible

// NewCPU constructs a CPU with memorySizeBytes of physical memory,
// identity-mapped by default (see the CPU doc comment).
func NewCPU(memorySizeBytes int) *CPU {
	memory := NewPhysicalMemory(memorySizeBytes)
	pageTable := NewPageTable()
	installIdentityMapping(pageTable, memorySizeBytes)
	mmu := NewMMU(memory, pageTable, PrivilegeMachine)
	regs := NewRegisterBank()

	return &CPU{
		memory:    memory,
		pageTable: pageTable,
		mmu:       mmu,
		regs:      regs,
		fetch:     NewFetchStage(mmu, regs),
		decode:    NewDecodeStage(regs),
		exec:      NewExecuteStage(regs),
		mem:       NewMemoryAccessStage(mmu, regs),
		wb:        NewWriteBackStage(regs),
	}
}

func installIdentityMapping(pageTable *PageTable, memorySizeBytes int) {
	for base := uint32(0); int(base) < memorySizeBytes; base += 4096 {
		pageTable.AddEntry(base, NewPageTableEntry(base, identityPageFlags))
	}
}

// MMU returns the CPU's memory management unit, for embedders that
// want to reconfigure paging or privilege mode.
func (c *CPU) MMU() *MMU {
	return c.mmu
}

// PageTable returns the CPU's page table, so OS-emulation code can
// replace the default identity mapping with real permissions.
func (c *CPU) PageTable() *PageTable {
	return c.pageTable
}

// RegisterBank returns the CPU's register bank.
func (c *CPU) RegisterBank() *RegisterBank {
	return c.regs
}

// GetRegister returns the value of general-purpose register i.
func (c *CPU) GetRegister(i uint32) uint32 {
	return c.regs.Read(i)
}

// ReadWordFromMemory reads a word directly out of physical memory,
// bypassing the MMU — an introspection path for embedders and tests
// that want to inspect memory without reasoning about page tables.
func (c *CPU) ReadWordFromMemory(physicalAddr uint32) (uint32, error) {
	return c.memory.ReadWord(physicalAddr)
}

// LoadProgram reads the file at path as a flat binary instruction
// stream — consecutive little-endian words, no header — and writes it
// verbatim into physical memory starting at address 0, then sets PC
// to 0. It returns a non-nil error on I/O failure.
func (c *CPU) LoadProgram(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.LoadProgramFromReader(f)
}

// LoadProgramFromReader is LoadProgram's collaborator: it reads all of
// r and writes it verbatim into physical memory starting at address 0,
// then sets PC to 0. Exposed directly so embedders can load from
// something other than a filesystem path (an embedded asset, a
// network stream, a test fixture).
func (c *CPU) LoadProgramFromReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := c.memory.LoadBytes(0, data); err != nil {
		return err
	}
	c.regs.SetPC(0)
	return nil
}

// haltSentinelRd is the destination register of the canonical
// "jal x0, 0" halt sentinel: a JAL whose rd is x0 and whose branch
// target equals its own address.
const haltSentinelRd = uint32(0)

// Step executes exactly one pipeline cycle: fetch, decode, execute,
// memory access, writeback, then PC update. It returns (true, nil) if
// this cycle executed the halt sentinel and the caller should stop
// calling Step; (false, nil) if a normal instruction retired; or
// (false, err) if any stage faulted, in which case the cycle's
// already-visible register/memory effects (if any occurred before the
// fault) remain in place but PC was not advanced.
func (c *CPU) Step() (halted bool, err error) {
	pc := c.regs.GetPC()

	if err := c.fetch.Process(); err != nil {
		return false, err
	}
	c.decode.SetFetchedInstruction(c.fetch.GetFetchedInstruction())
	if err := c.decode.Process(); err != nil {
		return false, err
	}
	instr := c.decode.GetDecodedInstruction()

	c.exec.SetDecodedInstruction(instr)
	c.exec.SetPC(pc)
	if err := c.exec.Process(); err != nil {
		return false, err
	}
	result := c.exec.GetResult()

	c.mem.SetExecutionResult(result)
	c.mem.SetDecodedInstruction(instr)
	if err := c.mem.Process(); err != nil {
		return false, err
	}
	memResult := c.mem.GetResult()

	c.wb.SetDecodedInstruction(instr)
	c.wb.SetExecutionResult(result)
	c.wb.SetMemoryAccessResult(memResult)
	if err := c.wb.Process(); err != nil {
		return false, err
	}

	halted = isHaltSentinel(instr, result, pc)

	if result.BranchTaken {
		c.regs.SetPC(result.BranchTarget)
	} else {
		c.regs.SetPC(pc + 4)
	}
	c.cycles++

	return halted, nil
}

// isHaltSentinel reports whether instr/result is the canonical
// "jal x0, 0" self-branch: a JAL with rd=x0 whose branch target is its
// own address.
func isHaltSentinel(instr DecodedInstruction, result *ExecutionResult, pc uint32) bool {
	j, ok := instr.(*DecodedInstructionJType)
	if !ok || j.Opcode != OpcodeJAL {
		return false
	}
	return j.Rd == haltSentinelRd && result.BranchTaken && result.BranchTarget == pc
}

// Run executes cycles until the halt sentinel is reached or a stage
// faults: it either returns nil on halt or returns the single fault
// that stopped the loop.
func (c *CPU) Run() error {
	for {
		halted, err := c.Step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// RunFor runs at most maxCycles cycles, returning
// *CycleBudgetExhausted if the program neither halts nor faults within
// the budget.
func (c *CPU) RunFor(maxCycles uint64) error {
	for i := uint64(0); i < maxCycles; i++ {
		halted, err := c.Step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
	return &CycleBudgetExhausted{CyclesRun: maxCycles}
}

// Cycles returns the number of cycles successfully retired so far.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}
