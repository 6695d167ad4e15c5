package vm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func programBytes(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
	return buf
}

func TestCPUTwoAddisAndHalt(t *testing.T) {
	cpu := NewCPU(0x1000)
	prog := programBytes(0x02A00093, 0x03A08113, 0x0000006F)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	if err := cpu.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cpu.GetRegister(0) != 0 {
		t.Errorf("x0 = %d, want 0", cpu.GetRegister(0))
	}
	if cpu.GetRegister(1) != 42 {
		t.Errorf("x1 = %d, want 42", cpu.GetRegister(1))
	}
	if cpu.GetRegister(2) != 100 {
		t.Errorf("x2 = %d, want 100", cpu.GetRegister(2))
	}
}

func TestCPUInvalidInstructionFaults(t *testing.T) {
	cpu := NewCPU(0x1000)
	prog := programBytes(0x02A00093, 0xFFFFFFFF)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	err := cpu.Run()
	ill, ok := err.(*IllegalInstruction)
	if !ok {
		t.Fatalf("got %T, want *IllegalInstruction", err)
	}
	if ill.RawWord != 0xFFFFFFFF || ill.PC != 4 {
		t.Errorf("IllegalInstruction = %+v, want RawWord=0xFFFFFFFF PC=4", ill)
	}
	// Prior state must remain observable.
	if cpu.GetRegister(1) != 42 {
		t.Errorf("x1 = %d, want 42 (prior state must survive the fault)", cpu.GetRegister(1))
	}
}

func TestCPUPCAdvanceWithoutBranch(t *testing.T) {
	cpu := NewCPU(0x1000)
	prog := programBytes(0x00000013) // addi x0, x0, 0 (nop)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	pcBefore := cpu.RegisterBank().GetPC()
	if _, err := cpu.Step(); err != nil {
		t.Fatal(err)
	}
	pcAfter := cpu.RegisterBank().GetPC()
	if pcAfter != pcBefore+4 {
		t.Errorf("PC after = %#x, want %#x", pcAfter, pcBefore+4)
	}
}

func TestCPUBranchUpdatesPC(t *testing.T) {
	cpu := NewCPU(0x1000)
	// jal x1, 16: jump forward 16 bytes, link in x1.
	jal := uint32(0)
	{
		imm := uint32(16)
		jal = ((imm>>20)&0x1)<<31 | ((imm>>12)&0xFF)<<12 | ((imm>>11)&0x1)<<20 | ((imm>>1)&0x3FF)<<21 | (1 << 7) | OpcodeJAL
	}
	prog := programBytes(jal)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	if _, err := cpu.Step(); err != nil {
		t.Fatal(err)
	}
	if cpu.RegisterBank().GetPC() != 16 {
		t.Errorf("PC = %#x, want 16", cpu.RegisterBank().GetPC())
	}
	if cpu.GetRegister(1) != 4 {
		t.Errorf("link register x1 = %d, want 4", cpu.GetRegister(1))
	}
}

func TestCPURunForExhaustsBudget(t *testing.T) {
	cpu := NewCPU(0x1000)
	// An infinite loop that never hits the halt sentinel: jal x1, 0
	// (rd != x0, so isHaltSentinel is false even though it jumps to
	// itself).
	prog := programBytes((1 << 7) | OpcodeJAL)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	err := cpu.RunFor(10)
	budget, ok := err.(*CycleBudgetExhausted)
	if !ok {
		t.Fatalf("got %T, want *CycleBudgetExhausted", err)
	}
	if budget.CyclesRun != 10 {
		t.Errorf("CyclesRun = %d, want 10", budget.CyclesRun)
	}
}

func TestCPUZeroRegisterInvariant(t *testing.T) {
	cpu := NewCPU(0x1000)
	prog := programBytes(0x02A00093, 0x03A08113, 0x0000006F)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	for {
		halted, err := cpu.Step()
		if err != nil {
			t.Fatal(err)
		}
		if cpu.GetRegister(0) != 0 {
			t.Fatal("x0 must always read as zero")
		}
		if halted {
			break
		}
	}
}

func TestCPUReadWordFromMemory(t *testing.T) {
	cpu := NewCPU(0x1000)
	prog := programBytes(0x0000006F)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	word, err := cpu.ReadWordFromMemory(0)
	if err != nil {
		t.Fatal(err)
	}
	if word != 0x0000006F {
		t.Errorf("got %#x, want 0x6F", word)
	}
}

func TestCPULoadAndStoreRoundTrip(t *testing.T) {
	cpu := NewCPU(0x1000)
	// addi x1, x0, 0x100   -- base address
	// addi x2, x0, 99      -- value to store
	// sw   x2, 0(x1)
	// lw   x3, 0(x1)
	// jal  x0, 0           -- halt
	addi := func(rd, rs1 uint32, imm int32) uint32 {
		return (uint32(imm)&0xFFF)<<20 | rs1<<15 | rd<<7 | OpcodeOPIMM
	}
	sw := func(rs1, rs2 uint32, imm int32) uint32 {
		u := uint32(imm) & 0xFFF
		return (u>>5)<<25 | rs2<<20 | rs1<<15 | 0x2<<12 | (u&0x1F)<<7 | OpcodeSTORE
	}
	lw := func(rd, rs1 uint32, imm int32) uint32 {
		return (uint32(imm)&0xFFF)<<20 | rs1<<15 | 0x2<<12 | rd<<7 | OpcodeLOAD
	}
	prog := programBytes(
		addi(1, 0, 0x100),
		addi(2, 0, 99),
		sw(1, 2, 0),
		lw(3, 1, 0),
		0x0000006F,
	)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	if err := cpu.Run(); err != nil {
		t.Fatal(err)
	}
	if cpu.GetRegister(3) != 99 {
		t.Errorf("x3 = %d, want 99", cpu.GetRegister(3))
	}
}

func TestCPUDefaultIdentityMappingAllowsUnconfiguredPrograms(t *testing.T) {
	// A freshly constructed CPU must run a program with no page-table
	// setup at all.
	cpu := NewCPU(0x1000)
	prog := programBytes(0x0000006F)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	if err := cpu.Run(); err != nil {
		t.Fatalf("Run should succeed against the default identity mapping: %v", err)
	}
}

func TestCPUEmbedderCanReplaceDefaultMapping(t *testing.T) {
	cpu := NewCPU(0x3000)
	prog := programBytes(0x0000006F)
	if err := cpu.LoadProgramFromReader(bytes.NewReader(prog)); err != nil {
		t.Fatal(err)
	}
	// Revoke execute permission on page 0; fetch must now fault.
	cpu.PageTable().AddEntry(0, NewPageTableEntry(0, PTEValid|PTERead|PTEWrite))
	err := cpu.Run()
	if _, ok := err.(*AccessViolation); !ok {
		t.Fatalf("got %T, want *AccessViolation after revoking X", err)
	}
}
