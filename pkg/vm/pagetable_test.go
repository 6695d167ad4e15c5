package vm

import "testing"

func TestPageTableEntryBitLayout(t *testing.T) {
	e := NewPageTableEntry(0x00002000, PTEValid|PTERead|PTEWrite)
	if e.PhysicalFrameBase() != 0x00002000 {
		t.Errorf("PhysicalFrameBase = %#x, want 0x2000", e.PhysicalFrameBase())
	}
	if !e.Valid() || !e.Readable() || !e.Writable() {
		t.Error("expected V|R|W set")
	}
	if e.Executable() || e.UserAccessible() {
		t.Error("expected X and U clear")
	}
}

func TestPageTableEntryFrameBaseMasksLowBits(t *testing.T) {
	// Any low 12 bits passed as the frame base must be discarded.
	e := NewPageTableEntry(0x00001FFF, PTEValid)
	if e.PhysicalFrameBase() != 0x00001000 {
		t.Errorf("PhysicalFrameBase = %#x, want 0x1000", e.PhysicalFrameBase())
	}
}

func TestPageTableLookupAbsentKey(t *testing.T) {
	pt := NewPageTable()
	if _, ok := pt.Lookup(0x1000); ok {
		t.Error("expected absent mapping to report ok=false")
	}
}

func TestPageTableAddEntryUpserts(t *testing.T) {
	pt := NewPageTable()
	pt.AddEntry(0x1000, NewPageTableEntry(0x1000, PTEValid|PTERead))
	e, ok := pt.Lookup(0x1000)
	if !ok {
		t.Fatal("expected mapping to be present")
	}
	if !e.Readable() || e.Writable() {
		t.Error("unexpected initial permissions")
	}

	pt.AddEntry(0x1000, NewPageTableEntry(0x1000, PTEValid|PTERead|PTEWrite))
	e, ok = pt.Lookup(0x1000)
	if !ok || !e.Writable() {
		t.Error("AddEntry should upsert, not duplicate, an existing key")
	}
}

func TestPageTableNormalizesUnalignedKeys(t *testing.T) {
	pt := NewPageTable()
	entry := NewPageTableEntry(0x2000, PTEValid)
	pt.AddEntry(0x2ABC, entry) // any address within the page maps the same page
	got, ok := pt.Lookup(0x2000)
	if !ok || got != entry {
		t.Error("AddEntry should normalize the key to its containing page")
	}
	got, ok = pt.Lookup(0x2FFF)
	if !ok || got != entry {
		t.Error("Lookup should normalize the key to its containing page")
	}
}

func TestPageTableRemoveEntry(t *testing.T) {
	pt := NewPageTable()
	pt.AddEntry(0x3000, NewPageTableEntry(0x3000, PTEValid))
	pt.RemoveEntry(0x3000)
	if _, ok := pt.Lookup(0x3000); ok {
		t.Error("expected entry to be gone after RemoveEntry")
	}
}
