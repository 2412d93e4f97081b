// Package diag provides the structured trace/debug logging the CLI
// configures once at startup and hands down to the machine, generalizing
// gvm's ad hoc printCurrentState/printDebugOutput register dumps into
// log/slog fields.
package diag

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger wraps a *slog.Logger with the two log levels this project uses:
// Debug for per-step traces, Warn for recoverable host hiccups.
type Logger struct {
	l *slog.Logger
}

// New builds a text-handler logger writing to stderr at the given level
// ("debug", "warn", or "" for the default, info).
func New(level string) *Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	default:
		lvl = slog.LevelInfo
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return &Logger{l: slog.New(h)}
}

// Step logs one instruction trace record.
func (log *Logger) Step(n uint64, pc byte, mnemonic string, operands []byte, regs [8]byte, flags byte) {
	log.l.Debug("step",
		slog.Uint64("n", n),
		slog.String("pc", fmt.Sprintf("0x%02X", pc)),
		slog.String("op", mnemonic),
		slog.Any("operands", operands),
		slog.Any("regs", regs),
		slog.String("flags", fmt.Sprintf("0b%03b", flags&0x07)),
	)
}

// Warn logs a recoverable host-level condition (e.g. a dropped keystroke).
func (log *Logger) Warn(msg string, args ...any) {
	log.l.Warn(msg, args...)
}
