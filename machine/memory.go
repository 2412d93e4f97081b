package machine

import "fmt"

// Memory is the LS-8's flat 256-byte address space. There is no alignment
// and no faults; every address wraps to 8 bits.
type Memory [256]byte

// Read returns the byte at addr, wrapping addr to 8 bits.
func (m *Memory) Read(addr byte) byte {
	return m[addr]
}

// Write stores value at addr, wrapping addr to 8 bits. value is always a
// full byte already, so no masking is needed on the write side beyond the
// addressing wrap.
func (m *Memory) Write(addr, value byte) {
	m[addr] = value
}

// Load copies image into memory starting at address 0x00. Images longer
// than 256 bytes are a load error: a single return address byte cannot
// address beyond the memory size, so oversized programs are unsupported by
// construction (see DESIGN.md Open Question decisions).
func (m *Memory) Load(image []byte) error {
	if len(image) > len(m) {
		return fmt.Errorf("program image of %d bytes exceeds %d-byte memory", len(image), len(m))
	}
	copy(m[:], image)
	return nil
}
