package vm

import "testing"

func newMappedMMU(size int) *MMU {
	mem := NewPhysicalMemory(size)
	pt := NewPageTable()
	for base := uint32(0); int(base) < size; base += 4096 {
		pt.AddEntry(base, NewPageTableEntry(base, PTEValid|PTERead|PTEWrite|PTEExecute|PTEUserAccessible))
	}
	return NewMMU(mem, pt, PrivilegeMachine)
}

func TestMemoryAccessPassThroughWhenNoOp(t *testing.T) {
	res, err := memoryAccess(newMappedMMU(0x1000), NewRegisterBank(), &ExecutionResult{ALUResult: 42})
	if err != nil {
		t.Fatal(err)
	}
	if res.LoadData != nil || res.Stored {
		t.Errorf("expected empty result for a non-memory op, got %+v", res)
	}
}

func TestMemoryAccessLoadSignExtension(t *testing.T) {
	mmu := newMappedMMU(0x1000)
	if err := mmu.Write(0x100, 0xFF); err != nil { // -1 as signed byte
		t.Fatal(err)
	}
	lb := &ExecutionResult{ALUResult: 0x100, MemoryOp: &MemoryOperation{Kind: MemoryOpLoad, Width: WidthByte, Signed: true}}
	res, err := memoryAccess(mmu, NewRegisterBank(), lb)
	if err != nil {
		t.Fatal(err)
	}
	if int32(*res.LoadData) != -1 {
		t.Errorf("LB of 0xFF: got %d, want -1", int32(*res.LoadData))
	}

	lbu := &ExecutionResult{ALUResult: 0x100, MemoryOp: &MemoryOperation{Kind: MemoryOpLoad, Width: WidthByte, Signed: false}}
	res, err = memoryAccess(mmu, NewRegisterBank(), lbu)
	if err != nil {
		t.Fatal(err)
	}
	if *res.LoadData != 0xFF {
		t.Errorf("LBU of 0xFF: got %#x, want 0xFF", *res.LoadData)
	}
}

func TestMemoryAccessLoadWord(t *testing.T) {
	mmu := newMappedMMU(0x1000)
	if err := mmu.WriteWord(0x200, 0xCAFEBABE); err != nil {
		t.Fatal(err)
	}
	lw := &ExecutionResult{ALUResult: 0x200, MemoryOp: &MemoryOperation{Kind: MemoryOpLoad, Width: WidthWord}}
	res, err := memoryAccess(mmu, NewRegisterBank(), lw)
	if err != nil {
		t.Fatal(err)
	}
	if *res.LoadData != 0xCAFEBABE {
		t.Errorf("got %#x, want 0xCAFEBABE", *res.LoadData)
	}
}

func TestMemoryAccessStoreWritesLowBytes(t *testing.T) {
	mmu := newMappedMMU(0x1000)
	regs := regsWith(map[uint32]uint32{2: 0xAABBCCDD})
	sb := &ExecutionResult{ALUResult: 0x300, MemoryOp: &MemoryOperation{Kind: MemoryOpStore, Width: WidthByte, Rs2: 2}}
	res, err := memoryAccess(mmu, regs, sb)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stored {
		t.Error("expected Stored=true")
	}
	b, err := mmu.Read(0x300)
	if err != nil {
		t.Fatal(err)
	}
	if b != 0xDD {
		t.Errorf("SB wrote %#x, want 0xDD (low byte)", b)
	}
}

func TestMemoryAccessAlignmentErrorPropagates(t *testing.T) {
	mmu := newMappedMMU(0x1000)
	lh := &ExecutionResult{ALUResult: 0x101, MemoryOp: &MemoryOperation{Kind: MemoryOpLoad, Width: WidthHalf}}
	_, err := memoryAccess(mmu, NewRegisterBank(), lh)
	if _, ok := err.(*AlignmentError); !ok {
		t.Fatalf("got %T, want *AlignmentError", err)
	}
}

func TestMemoryAccessStageWrapsPureFunction(t *testing.T) {
	mmu := newMappedMMU(0x1000)
	regs := NewRegisterBank()
	stage := NewMemoryAccessStage(mmu, regs)
	stage.SetExecutionResult(&ExecutionResult{ALUResult: 42})
	if err := stage.Process(); err != nil {
		t.Fatal(err)
	}
	if stage.GetResult().Stored {
		t.Error("non-memory op should not report Stored")
	}
}
