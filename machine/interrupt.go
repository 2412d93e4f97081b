package machine

// Interrupt sources, indexed by their bit position in IM/IS.
const (
	IntTimer    = 0
	IntKeyboard = 1
)

// Interrupt vector table base address. Byte at vectorTableBase+i is the PC
// to load when interrupt i is taken.
const vectorTableBase = 0xF8

// keyboardLastByte is the memory-mapped address holding the most recent
// keystroke delivered by the keyboard interrupt source.
const keyboardLastByte = 0xF4

// interruptController samples the timer and keyboard, computes masked
// interrupts, and performs the architectural save/transfer sequence. Only
// one interrupt may be in service at a time: entry clears enabled, and
// IRET is the only thing that sets it again.
type interruptController struct {
	enabled       bool
	lastTimerTick float64
}

func newInterruptController(now float64) *interruptController {
	return &interruptController{enabled: true, lastTimerTick: now}
}

// sampleTimer raises IS bit 0 once per elapsed second of monotonic time.
func (ic *interruptController) sampleTimer(regs *Registers, now float64) {
	if now-ic.lastTimerTick >= 1.0 {
		regs.Set(RegIS, regs.Get(RegIS)|(1<<IntTimer))
		ic.lastTimerTick = now
	}
}

// sampleKeyboard raises IS bit 1 and latches the byte into memory[0xF4]
// when the host reports a waiting keystroke.
func (ic *interruptController) sampleKeyboard(mem *Memory, regs *Registers, kbd KeyboardPoller, pc byte) error {
	if kbd == nil {
		return nil
	}
	b, ok, err := kbd.TryReadByte()
	if err != nil {
		return newExecError(pc, 0, errHostIO)
	}
	if !ok {
		return nil
	}
	mem.Write(keyboardLastByte, b)
	regs.Set(RegIS, regs.Get(RegIS)|(1<<IntKeyboard))
	return nil
}

// pending returns the lowest-set bit index in IM&IS, and whether any bit
// is set at all.
func pending(regs *Registers) (int, bool) {
	masked := regs.Get(RegIM) & regs.Get(RegIS)
	if masked == 0 {
		return 0, false
	}
	for i := 0; i < 8; i++ {
		if masked&(1<<i) != 0 {
			return i, true
		}
	}
	return 0, false
}

// service runs the interrupt entry sequence for source i: disable further
// servicing, clear IS bit i, push PC, FL, R0-R6 (in that order), and jump
// to the vector for i.
func (ic *interruptController) service(mem *Memory, regs *Registers, fl *Flags, pc *byte, i int) {
	ic.enabled = false
	regs.Set(RegIS, regs.Get(RegIS)&^(1<<i))

	st := &stack{mem: mem, regs: regs}
	st.push(*pc)
	st.push(byte(*fl))
	for r := byte(0); r <= 6; r++ {
		st.push(regs.Get(r))
	}

	*pc = mem.Read(vectorTableBase + byte(i))
}

// iret restores R0-R6 (reverse order), FL, and PC from the stack and
// re-enables interrupt servicing.
func (ic *interruptController) iret(mem *Memory, regs *Registers, fl *Flags, pc *byte) {
	st := &stack{mem: mem, regs: regs}
	for r := 6; r >= 0; r-- {
		regs.Set(byte(r), st.pop())
	}
	*fl = Flags(st.pop())
	*pc = st.pop()
	ic.enabled = true
}
