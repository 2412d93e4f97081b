package host

import (
	"bufio"
	"io"
)

// Console is a buffered console sink, flushed after every write so
// PRN/PRA output appears promptly — the same buffered-writer-with-flush
// shape gvm's consoleIO device uses for its console writes.
type Console struct {
	w *bufio.Writer
}

// NewConsole wraps w in a buffered writer.
func NewConsole(w io.Writer) *Console {
	return &Console{w: bufio.NewWriter(w)}
}

// WriteString implements machine.Console.
func (c *Console) WriteString(s string) error {
	if _, err := c.w.WriteString(s); err != nil {
		return err
	}
	return c.w.Flush()
}
