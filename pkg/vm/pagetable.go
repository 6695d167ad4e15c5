package vm

// The following constants define the bit layout of a PageTableEntry, a
// 32-bit value whose top 20 bits carry the physical frame number and
// whose low 5 bits carry permission/validity flags.
const (
	// PTEValid marks the entry as present. Any translation through an
	// entry with this bit clear is a page fault, regardless of the
	// other bits.
	PTEValid = uint32(1 << 0)

	// PTERead grants load access.
	PTERead = uint32(1 << 1)

	// PTEWrite grants store access.
	PTEWrite = uint32(1 << 2)

	// PTEExecute grants fetch access.
	PTEExecute = uint32(1 << 3)

	// PTEUserAccessible grants access from USER (and, per this
	// implementation's chosen semantics, SUPERVISOR) privilege mode.
	PTEUserAccessible = uint32(1 << 4)

	// pteFrameMask isolates the physical frame number in bits [31:12].
	pteFrameMask = uint32(0xFFFFF000)

	// pageSize is the page granularity: 4 KiB.
	pageSize = uint32(4096)

	// pageOffsetMask isolates the 12-bit in-page offset.
	pageOffsetMask = pageSize - 1
)

// PageTableEntry is a bit-packed 32-bit page table entry: PFN in bits
// [31:12], V/R/W/X/U flags in bits [4:0]. It is a newtype over uint32,
// not a struct of bools, so an entry can be built directly from an
// OR of flag constants and a frame base.
type PageTableEntry uint32

// NewPageTableEntry builds an entry from a physical frame base address
// (any bits below 12 are discarded) and a set of flag bits (PTEValid,
// PTERead, ...).
func NewPageTableEntry(physicalFrameBase uint32, flags uint32) PageTableEntry {
	return PageTableEntry((physicalFrameBase & pteFrameMask) | (flags &^ pteFrameMask))
}

// PhysicalFrameBase returns the physical base address the entry maps
// to, i.e. the PFN shifted back into address form.
func (e PageTableEntry) PhysicalFrameBase() uint32 {
	return uint32(e) & pteFrameMask
}

// Valid reports whether the V bit is set.
func (e PageTableEntry) Valid() bool { return uint32(e)&PTEValid != 0 }

// Readable reports whether the R bit is set.
func (e PageTableEntry) Readable() bool { return uint32(e)&PTERead != 0 }

// Writable reports whether the W bit is set.
func (e PageTableEntry) Writable() bool { return uint32(e)&PTEWrite != 0 }

// Executable reports whether the X bit is set.
func (e PageTableEntry) Executable() bool { return uint32(e)&PTEExecute != 0 }

// UserAccessible reports whether the U bit is set.
func (e PageTableEntry) UserAccessible() bool { return uint32(e)&PTEUserAccessible != 0 }

// permits reports whether the entry grants the given access kind.
func (e PageTableEntry) permits(kind AccessKind) bool {
	switch kind {
	case AccessRead:
		return e.Readable()
	case AccessWrite:
		return e.Writable()
	case AccessExecute:
		return e.Executable()
	default:
		return false
	}
}

// pageNumber masks an address down to its containing 4 KiB-aligned
// virtual page number.
func pageNumber(addr uint32) uint32 {
	return addr &^ pageOffsetMask
}

// pageOffset extracts the 12-bit in-page offset of an address.
func pageOffset(addr uint32) uint32 {
	return addr & pageOffsetMask
}

// PageTable maps 4 KiB-aligned virtual page numbers to PageTableEntry
// values. Absence of a key means "not mapped". It is mutated by
// configuration code (the loader / OS-emulation layer around the CPU)
// and only ever read by the MMU during instruction execution.
type PageTable struct {
	entries map[uint32]PageTableEntry
}

// NewPageTable returns an empty page table.
func NewPageTable() *PageTable {
	return &PageTable{entries: make(map[uint32]PageTableEntry)}
}

// AddEntry upserts the mapping for vpn. vpn is normalized to its
// containing page (low 12 bits masked off) before insertion, so
// callers may pass any address within the page.
func (t *PageTable) AddEntry(vpn uint32, entry PageTableEntry) {
	t.entries[pageNumber(vpn)] = entry
}

// Lookup returns the entry mapped for vpn (normalized the same way as
// AddEntry) and whether it was present.
func (t *PageTable) Lookup(vpn uint32) (PageTableEntry, bool) {
	e, ok := t.entries[pageNumber(vpn)]
	return e, ok
}

// RemoveEntry drops the mapping for vpn, if any; the counterpart to
// AddEntry for OS-emulation code that unmaps pages.
func (t *PageTable) RemoveEntry(vpn uint32) {
	delete(t.entries, pageNumber(vpn))
}
