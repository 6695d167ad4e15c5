package vm

import "encoding/binary"

// PhysicalMemory is a contiguous, bounds-checked byte array addressed
// from zero. Word accesses are little-endian and must be 4-byte
// aligned; byte accesses have no alignment requirement.
//
// PhysicalMemory has no notion of virtual addresses, permissions, or
// privilege: every such concern belongs to the MMU, which is the only
// architectural path into this type. Direct construction is reserved
// for the loader and for test/introspection code.
type PhysicalMemory struct {
	bytes []byte
}

// NewPhysicalMemory allocates a zeroed physical memory of the given
// size in bytes.
func NewPhysicalMemory(size int) *PhysicalMemory {
	return &PhysicalMemory{bytes: make([]byte, size)}
}

// Size returns the size of the backing array in bytes.
func (m *PhysicalMemory) Size() int {
	return len(m.bytes)
}

// ReadByte reads a single byte at physical address a.
func (m *PhysicalMemory) ReadByte(a uint32) (byte, error) {
	if err := m.checkBounds(a, 1); err != nil {
		return 0, err
	}
	return m.bytes[a], nil
}

// WriteByte writes a single byte at physical address a.
func (m *PhysicalMemory) WriteByte(a uint32, v byte) error {
	if err := m.checkBounds(a, 1); err != nil {
		return err
	}
	m.bytes[a] = v
	return nil
}

// ReadWord reads a little-endian 32-bit word at physical address a.
// a must be a multiple of 4.
func (m *PhysicalMemory) ReadWord(a uint32) (uint32, error) {
	if err := m.checkAlignment(a, 4); err != nil {
		return 0, err
	}
	if err := m.checkBounds(a, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.bytes[a : a+4]), nil
}

// WriteWord writes a little-endian 32-bit word at physical address a.
// a must be a multiple of 4.
func (m *PhysicalMemory) WriteWord(a uint32, v uint32) error {
	if err := m.checkAlignment(a, 4); err != nil {
		return err
	}
	if err := m.checkBounds(a, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.bytes[a:a+4], v)
	return nil
}

// ReadHalfword reads a little-endian 16-bit halfword at physical
// address a. a must be a multiple of 2.
func (m *PhysicalMemory) ReadHalfword(a uint32) (uint16, error) {
	if err := m.checkAlignment(a, 2); err != nil {
		return 0, err
	}
	if err := m.checkBounds(a, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.bytes[a : a+2]), nil
}

// WriteHalfword writes a little-endian 16-bit halfword at physical
// address a. a must be a multiple of 2.
func (m *PhysicalMemory) WriteHalfword(a uint32, v uint16) error {
	if err := m.checkAlignment(a, 2); err != nil {
		return err
	}
	if err := m.checkBounds(a, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.bytes[a:a+2], v)
	return nil
}

// LoadBytes copies src verbatim into memory starting at physical
// address base. It is used by the program loader to populate memory
// from a flat instruction stream; it bypasses the MMU entirely, as
// befits a configuration-time operation rather than an architectural
// access.
func (m *PhysicalMemory) LoadBytes(base uint32, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	if err := m.checkBounds(base, len(src)); err != nil {
		return err
	}
	copy(m.bytes[base:], src)
	return nil
}

func (m *PhysicalMemory) checkBounds(a uint32, width int) error {
	end := uint64(a) + uint64(width)
	if end > uint64(len(m.bytes)) {
		return &MemoryBoundsError{PhysicalAddress: a, Width: width}
	}
	return nil
}

func (m *PhysicalMemory) checkAlignment(a uint32, width uint32) error {
	if a%width != 0 {
		return &AlignmentError{VirtualAddress: a, Width: int(width)}
	}
	return nil
}
