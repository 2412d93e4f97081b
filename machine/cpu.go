package machine

import (
	"fmt"
	"strconv"
)

// Tracer receives a structured record of every instruction the CPU
// dispatches, used by --trace/--debug (see internal/diag). A nil Tracer
// disables tracing entirely.
type Tracer interface {
	Trace(step uint64, pc byte, op Opcode, operands []byte, regs Registers, fl Flags)
}

// RunResult reports how a call to Run ended.
type RunResult struct {
	Steps  uint64
	Halted bool
	Err    error
}

// CPU is the LS-8 fetch/decode/dispatch core plus the architectural state
// it operates on: memory, registers, PC, flags, and the interrupt
// controller.
type CPU struct {
	Mem   Memory
	Regs  Registers
	PC    byte
	Flags Flags

	host   Host
	ic     *interruptController
	tracer Tracer
	steps  uint64
}

// New constructs a CPU with registers reset and interrupts enabled. host's
// fields may be nil; a nil Clock disables the timer source, a nil Keyboard
// disables the keyboard source, a nil Console drops PRN/PRA output.
func New(host Host) *CPU {
	c := &CPU{host: host}
	c.Regs.Reset()
	c.ic = newInterruptController(host.now())
	return c
}

// now reads the host clock, defaulting to 0 (timer interrupts never fire)
// when no clock is wired up.
func (h Host) now() float64 {
	if h.Clock == nil {
		return 0
	}
	return h.Clock.Seconds()
}

// SetTracer installs (or clears, with nil) a step tracer.
func (c *CPU) SetTracer(t Tracer) { c.tracer = t }

// LoadImage copies a program image into memory starting at address 0x00
// and resets PC to entry.
func (c *CPU) LoadImage(image []byte, entry byte) error {
	if err := c.Mem.Load(image); err != nil {
		return err
	}
	c.PC = entry
	return nil
}

// Steps returns the number of instructions fetched so far.
func (c *CPU) Steps() uint64 { return c.steps }

// Run executes instructions until HLT or an unrecoverable error.
// It returns a RunResult describing how execution ended; Err is nil for a
// normal HLT.
func (c *CPU) Run() RunResult {
	for {
		halted, err := c.Step()
		if err != nil {
			return RunResult{Steps: c.steps, Err: err}
		}
		if halted {
			return RunResult{Steps: c.steps, Halted: true}
		}
	}
}

// Step executes exactly one run-loop iteration: interrupt sampling and
// servicing, then fetch/decode/dispatch of one instruction. It returns
// (true, nil) when the instruction executed was HLT.
func (c *CPU) Step() (halted bool, err error) {
	if err := c.ic.sampleKeyboard(&c.Mem, &c.Regs, c.host.Keyboard, c.PC); err != nil {
		return false, err
	}
	c.ic.sampleTimer(&c.Regs, c.host.now())

	if c.ic.enabled {
		if i, ok := pending(&c.Regs); ok {
			c.ic.service(&c.Mem, &c.Regs, &c.Flags, &c.PC, i)
		}
	}

	opByte := c.Mem.Read(c.PC)
	op := Opcode(opByte)
	c.steps++

	if !op.Known() {
		return false, newExecError(c.PC, opByte, errInvalidOpcode)
	}

	n := op.OperandCount()
	operands := [2]byte{}
	for i := 0; i < n; i++ {
		operands[i] = c.Mem.Read(c.PC + 1 + byte(i))
	}

	if c.tracer != nil {
		c.tracer.Trace(c.steps, c.PC, op, operands[:n], c.Regs, c.Flags)
	}

	pcBefore := c.PC
	if err := c.dispatch(op, operands[:n]); err != nil {
		return false, newExecError(pcBefore, opByte, err)
	}

	if op == HLT {
		return true, nil
	}

	if !op.MutatesPC() {
		c.PC += byte(1 + n)
	}

	return false, nil
}

// dispatch executes a single decoded instruction. Operand count and
// PC-mutation semantics are handled by the caller; dispatch only performs
// the opcode's side effect and, for PC-mutating opcodes, writes c.PC.
func (c *CPU) dispatch(op Opcode, args []byte) error {
	if op.IsALUOp() {
		a := args[0]
		b := byte(0)
		if len(args) > 1 {
			b = args[1]
		}
		return alu(&c.Regs, &c.Flags, op.toALUOp(), a, b)
	}

	st := &stack{mem: &c.Mem, regs: &c.Regs}

	switch op {
	case NOP:
		// no-op
	case HLT:
		// handled by the caller
	case RET:
		c.PC = st.pop()
	case IRET:
		c.ic.iret(&c.Mem, &c.Regs, &c.Flags, &c.PC)
	case PUSH:
		st.push(c.Regs.Get(args[0]))
	case POP:
		c.Regs.Set(args[0], st.pop())
	case PRN:
		return c.writeConsole(strconv.Itoa(int(c.Regs.Get(args[0]))) + "\n")
	case PRA:
		return c.writeConsole(string(rune(c.Regs.Get(args[0]))))
	case CALL:
		st.push(c.PC + 2)
		c.PC = c.Regs.Get(args[0])
	case INT:
		// INT's encoding carries the PC-mutates bit even though it never
		// jumps, so unlike the other opcodes in its class it must advance
		// PC itself; the executor won't do it for an opcode marked
		// PC-mutating.
		bit := c.Regs.Get(args[0]) & 0x07
		c.Regs.Set(RegIS, c.Regs.Get(RegIS)|(1<<bit))
		c.PC += 2
	case JMP:
		c.PC = c.Regs.Get(args[0])
	case JEQ:
		c.branchIf(c.Flags.Equal(), args[0])
	case JNE:
		c.branchIf(!c.Flags.Equal(), args[0])
	case JGT:
		c.branchIf(c.Flags.Greater(), args[0])
	case JLT:
		c.branchIf(c.Flags.Less(), args[0])
	case JLE:
		c.branchIf(c.Flags.Less() || c.Flags.Equal(), args[0])
	case JGE:
		c.branchIf(c.Flags.Greater() || c.Flags.Equal(), args[0])
	case LDI:
		c.Regs.Set(args[0], args[1])
	case LD:
		c.Regs.Set(args[0], c.Mem.Read(c.Regs.Get(args[1])))
	case ST:
		c.Mem.Write(c.Regs.Get(args[0]), c.Regs.Get(args[1]))
	default:
		return fmt.Errorf("%w: unhandled opcode %s", errInvalidOpcode, op)
	}

	return nil
}

// branchIf is the shared implementation of the six conditional jumps: on
// a taken branch the handler owns PC entirely; on a fall-through it must
// still skip the operand byte itself, since JEQ/etc. set the PC-mutates
// bit and so the executor's default advance never runs.
func (c *CPU) branchIf(cond bool, target byte) {
	if cond {
		c.PC = target
	} else {
		c.PC += 2
	}
}

func (c *CPU) writeConsole(s string) error {
	if c.host.Console == nil {
		return nil
	}
	if err := c.host.Console.WriteString(s); err != nil {
		return errHostIO
	}
	return nil
}
