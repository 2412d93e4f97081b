// Command emulator runs LS-8 program images.
package main

import (
	"fmt"
	"os"

	"ls8/host"
	"ls8/internal/diag"
	"ls8/loader"
	"ls8/machine"

	cli "gopkg.in/urfave/cli.v2"
)

// traceAdapter satisfies machine.Tracer by forwarding step records to a
// diag.Logger, keeping the machine package free of any logging import.
type traceAdapter struct {
	log *diag.Logger
}

func (t traceAdapter) Trace(step uint64, pc byte, op machine.Opcode, operands []byte, regs machine.Registers, fl machine.Flags) {
	t.log.Step(step, pc, op.String(), operands, regs, byte(fl))
}

func run(c *cli.Context) error {
	path := c.Args().Get(0)
	if path == "" {
		return cli.Exit("usage: emulator run <program-file>", 1)
	}

	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("opening program: %v", err), 1)
	}
	defer f.Close()

	image, err := loader.Load(f)
	if err != nil {
		return cli.Exit(fmt.Sprintf("loading program: %v", err), 1)
	}

	kbd, err := host.NewKeyboard()
	if err != nil {
		return cli.Exit(fmt.Sprintf("opening keyboard: %v", err), 1)
	}
	defer kbd.Close()

	cpu := machine.New(machine.Host{
		Clock:    host.NewMonotonicClock(),
		Keyboard: kbd,
		Console:  host.NewConsole(os.Stdout),
	})

	if err := cpu.LoadImage(image, 0x00); err != nil {
		return cli.Exit(fmt.Sprintf("loading image into memory: %v", err), 1)
	}

	if c.Bool("debug") || c.Bool("trace") {
		level := "debug"
		cpu.SetTracer(traceAdapter{log: diag.New(level)})
	}

	result := cpu.Run()
	if result.Err != nil {
		return cli.Exit(result.Err.Error(), 1)
	}

	return nil
}

func main() {
	app := &cli.App{
		Name:  "emulator",
		Usage: "run LS-8 program images",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "load and execute a program file",
				ArgsUsage: "<program-file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "debug", Usage: "log a register/PC trace of every instruction (same as --trace)"},
					&cli.BoolFlag{Name: "trace", Usage: "log a structured trace of every instruction"},
				},
				Action: run,
			},
		},
		// Allow `emulator <file>` as shorthand for `emulator run <file>`.
		Action: func(c *cli.Context) error {
			if c.Args().Len() == 0 {
				return cli.ShowAppHelp(c)
			}
			return run(c)
		},
	}

	app.Run(os.Args)
}
