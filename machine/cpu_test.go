package machine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ls8/machine"
)

// fakeClock lets tests advance monotonic time deterministically instead of
// depending on wall-clock timing.
type fakeClock struct{ seconds float64 }

func (c *fakeClock) Seconds() float64 { return c.seconds }

// fakeKeyboard delivers a fixed queue of bytes, one per TryReadByte call
// that finds the queue non-empty.
type fakeKeyboard struct{ queue []byte }

func (k *fakeKeyboard) TryReadByte() (byte, bool, error) {
	if len(k.queue) == 0 {
		return 0, false, nil
	}
	b := k.queue[0]
	k.queue = k.queue[1:]
	return b, true, nil
}

// fakeConsole records every string PRN/PRA wrote.
type fakeConsole struct{ sb strings.Builder }

func (c *fakeConsole) WriteString(s string) error {
	c.sb.WriteString(s)
	return nil
}

func newTestCPU() (*machine.CPU, *fakeConsole, *fakeClock, *fakeKeyboard) {
	clock := &fakeClock{}
	kbd := &fakeKeyboard{}
	console := &fakeConsole{}
	cpu := machine.New(machine.Host{Clock: clock, Keyboard: kbd, Console: console})
	return cpu, console, clock, kbd
}

func assemble(bytes ...byte) []byte { return bytes }

func TestPrintImmediate(t *testing.T) {
	cpu, console, _, _ := newTestCPU()
	require.NoError(t, cpu.LoadImage(assemble(0x82, 0x00, 0x08, 0x47, 0x00, 0x01), 0))

	result := cpu.Run()
	require.NoError(t, result.Err)
	require.True(t, result.Halted)
	require.Equal(t, "8\n", console.sb.String())
}

func TestMultiplyAndPrint(t *testing.T) {
	cpu, console, _, _ := newTestCPU()
	require.NoError(t, cpu.LoadImage(assemble(
		0x82, 0x00, 0x08, // LDI R0,8
		0x82, 0x01, 0x09, // LDI R1,9
		0xA2, 0x00, 0x01, // MUL R0,R1
		0x47, 0x00, // PRN R0
		0x01, // HLT
	), 0))

	result := cpu.Run()
	require.NoError(t, result.Err)
	require.Equal(t, "72\n", console.sb.String())
}

func TestCallAndReturnLinkage(t *testing.T) {
	cpu, console, _, _ := newTestCPU()
	program := make([]byte, 0x16)
	copy(program, []byte{
		0x82, 0x00, 0x10, // 0x00 LDI R0, 0x10
		0x50, 0x00, // 0x03 CALL R0
		0x01, // 0x05 HLT
	})
	copy(program[0x10:], []byte{
		0x82, 0x01, 0x2A, // 0x10 LDI R1, 42
		0x47, 0x01, // 0x13 PRN R1
		0x11, // 0x15 RET
	})
	require.NoError(t, cpu.LoadImage(program, 0))

	result := cpu.Run()
	require.NoError(t, result.Err)
	require.Equal(t, "42\n", console.sb.String())
	require.Equal(t, byte(0xF4), cpu.Regs.Get(machine.RegSP))
}

func TestCompareAndBranchEqual(t *testing.T) {
	cpu, console, _, _ := newTestCPU()
	require.NoError(t, cpu.LoadImage(assemble(
		0x82, 0x00, 0x05, // LDI R0,5
		0x82, 0x01, 0x05, // LDI R1,5
		0xA7, 0x00, 0x01, // CMP R0,R1
		0x82, 0x02, 0x0F, // LDI R2,0x0F
		0x55, 0x02, // JEQ R2
		0x00, // 0x0E padding, unreached
		0x01, // 0x0F HLT
	), 0))

	result := cpu.Run()
	require.NoError(t, result.Err)
	require.True(t, result.Halted)
	require.Equal(t, "", console.sb.String())
}

func TestInvalidOpcodeIsFatal(t *testing.T) {
	cpu, _, _, _ := newTestCPU()
	require.NoError(t, cpu.LoadImage(assemble(0xFF), 0))

	result := cpu.Run()
	require.Error(t, result.Err)
	require.False(t, result.Halted)
}

func TestDivideByZeroIsFatal(t *testing.T) {
	cpu, _, _, _ := newTestCPU()
	require.NoError(t, cpu.LoadImage(assemble(
		0x82, 0x00, 0x05, // LDI R0,5
		0x82, 0x01, 0x00, // LDI R1,0
		0xA3, 0x00, 0x01, // DIV R0,R1
		0x01,
	), 0))

	result := cpu.Run()
	require.Error(t, result.Err)
}

func TestPushPopRoundTrips(t *testing.T) {
	cpu, _, _, _ := newTestCPU()
	require.NoError(t, cpu.LoadImage(assemble(
		0x82, 0x00, 0x01, // LDI R0,1
		0x82, 0x01, 0x02, // LDI R1,2
		0x82, 0x02, 0x03, // LDI R2,3
		0x45, 0x00, // PUSH R0
		0x45, 0x01, // PUSH R1
		0x45, 0x02, // PUSH R2
		0x46, 0x03, // POP R3  (expect 3)
		0x46, 0x04, // POP R4  (expect 2)
		0x46, 0x05, // POP R5  (expect 1)
		0x01,
	), 0))

	result := cpu.Run()
	require.NoError(t, result.Err)
	require.Equal(t, byte(3), cpu.Regs.Get(3))
	require.Equal(t, byte(2), cpu.Regs.Get(4))
	require.Equal(t, byte(1), cpu.Regs.Get(5))
	require.Equal(t, byte(0xF4), cpu.Regs.Get(machine.RegSP))
}

func TestTimerInterruptPreservesRegisterAcrossIRET(t *testing.T) {
	cpu, _, clock, _ := newTestCPU()

	program := make([]byte, 0x100)
	copy(program, []byte{
		0x82, 0x00, 0x07, // 0x00 LDI R0,7
		0x54, 0x01, // 0x03 JMP R1 (R1 preset below to spin on this address)
	})
	program[0xF8] = 0x20 // timer vector -> handler at 0x20
	copy(program[0x20:], []byte{
		0x82, 0x00, 0x63, // LDI R0, 99
		0x13, // IRET
	})
	require.NoError(t, cpu.LoadImage(program, 0))
	cpu.Regs.Set(1, 0x03) // R1 used by JMP R1 at 0x03, jumps to itself

	// Enable the timer interrupt.
	cpu.Regs.Set(machine.RegIM, 0x01)

	// Step through LDI R0,7.
	_, err := cpu.Step()
	require.NoError(t, err)
	require.Equal(t, byte(7), cpu.Regs.Get(0))

	// Advance the clock so the next Step's timer sample fires; that Step
	// services the interrupt and runs the handler's LDI R0,99.
	clock.seconds = 1.0
	_, err = cpu.Step()
	require.NoError(t, err)

	// Run the handler's IRET, then the resumed JMP R1 at 0x03.
	_, err = cpu.Step()
	require.NoError(t, err)
	_, err = cpu.Step()
	require.NoError(t, err)

	require.Equal(t, byte(7), cpu.Regs.Get(0), "handler's mutation of R0 must be undone by IRET")
	require.Equal(t, byte(0x03), cpu.PC, "IRET must resume exactly where the interrupt was taken")
}

func TestKeyboardInterruptDeliversByteToMemory(t *testing.T) {
	cpu, console, _, kbd := newTestCPU()
	kbd.queue = []byte{'A'}

	program := make([]byte, 0x100)
	program[0xF9] = 0x20 // keyboard vector -> handler at 0x20
	copy(program[0x20:], []byte{
		0x82, 0x00, 0xF4, // LDI R0, 0xF4 (address of last keyboard byte)
		0x83, 0x01, 0x00, // LD R1, [R0]
		0x48, 0x01, // PRA R1
		0x13, // IRET
	})
	// Main loop just spins on itself at 0x00.
	program[0x00] = 0x54 // JMP R2
	program[0x01] = 0x02
	require.NoError(t, cpu.LoadImage(program, 0))
	cpu.Regs.Set(2, 0x00)
	cpu.Regs.Set(machine.RegIM, 0x02) // enable keyboard interrupt only

	for i := 0; i < 6 && console.sb.Len() == 0; i++ {
		_, err := cpu.Step()
		require.NoError(t, err)
	}

	require.Equal(t, "A", console.sb.String())
}
