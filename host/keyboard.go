package host

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

// Keyboard is a non-blocking, single-byte keyboard poller. Like gvm's
// consoleIO device, a dedicated goroutine owns the input source and hands
// bytes across a buffered channel so TryReadByte never blocks the caller.
//
// When stdin is an interactive terminal it puts the terminal into raw mode
// via eiannone/keyboard, so keystrokes arrive unbuffered and unechoed.
// When stdin is not a terminal (piped input, as in tests) it falls back to
// a plain byte-at-a-time reader, since raw mode has no meaning there.
type Keyboard struct {
	bytes  chan byte
	errs   chan error
	closed chan struct{}
	raw    bool
}

// NewKeyboard starts the background reader and returns a ready poller.
func NewKeyboard() (*Keyboard, error) {
	k := &Keyboard{
		bytes:  make(chan byte, 32),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := keyboard.Open(); err != nil {
			return nil, err
		}
		k.raw = true
		go k.runRaw()
	} else {
		go k.runPiped()
	}

	return k, nil
}

func (k *Keyboard) runRaw() {
	for {
		r, _, err := keyboard.GetKey()
		select {
		case <-k.closed:
			return
		default:
		}
		if err != nil {
			select {
			case k.errs <- err:
			default:
			}
			return
		}
		select {
		case k.bytes <- byte(r):
		default:
			// Drop the keystroke rather than block; the caller polls
			// faster than a human can type.
		}
	}
}

func (k *Keyboard) runPiped() {
	reader := bufio.NewReader(os.Stdin)
	for {
		b, err := reader.ReadByte()
		select {
		case <-k.closed:
			return
		default:
		}
		if err != nil {
			select {
			case k.errs <- err:
			default:
			}
			return
		}
		select {
		case k.bytes <- b:
		default:
		}
	}
}

// TryReadByte implements machine.KeyboardPoller: it never blocks.
func (k *Keyboard) TryReadByte() (byte, bool, error) {
	select {
	case b := <-k.bytes:
		return b, true, nil
	case err := <-k.errs:
		if errors.Is(err, io.EOF) {
			return 0, false, nil
		}
		return 0, false, err
	default:
		return 0, false, nil
	}
}

// Close releases the terminal from raw mode, if it was put into one.
func (k *Keyboard) Close() error {
	close(k.closed)
	if k.raw {
		return keyboard.Close()
	}
	return nil
}
