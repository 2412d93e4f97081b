package machine

// Flag bits set by CMP. Only the low three bits are defined; the rest are
// reserved zero.
const (
	FlagEqual   byte = 1 << 0
	FlagGreater byte = 1 << 1
	FlagLess    byte = 1 << 2
)

// Flags is the LS-8's flag register (FL).
type Flags byte

func (f Flags) has(bit byte) bool { return byte(f)&bit != 0 }

// Equal reports whether the last CMP found its operands equal.
func (f Flags) Equal() bool { return f.has(FlagEqual) }

// Greater reports whether the last CMP found the first operand greater.
func (f Flags) Greater() bool { return f.has(FlagGreater) }

// Less reports whether the last CMP found the first operand lesser.
func (f Flags) Less() bool { return f.has(FlagLess) }
