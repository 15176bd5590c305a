// Package console defines the local-terminal collaborator a door
// session multiplexes against the remote Connection. The
// connection-layer core treats local console rendering as an external
// interface only; this package supplies the seam plus a minimal Local
// implementation and a Fake for tests: a canned, inspectable double
// sitting behind the same interface as the real thing.
package console

import (
	"bufio"
	"os"
	"time"

	"github.com/doorkit/doorcore/ansi"
)

// Console is the local-terminal collaborator: key input plus the cursor
// and attribute primitives DoorSession's status bar and banners use.
type Console interface {
	// KeyPressed reports whether a local key is waiting, without
	// consuming it.
	KeyPressed() bool

	// ReadKey consumes and returns the next local key. ok is false if
	// none is available.
	ReadKey() (byte, bool)

	// Write renders raw bytes (including ANSI escapes) to the local
	// screen.
	Write(b []byte) error

	// GotoXY moves the cursor to a 1-based column/row.
	GotoXY(col, row int)

	// SetAttribute applies a color/attribute SGR code for subsequent
	// writes.
	SetAttribute(attr int)
}

// Local drives the process's own stdin/stdout. Key input is polled via
// a small buffered reader; full raw-mode terminal control is outside
// this package's scope, so KeyPressed degrades to "has the scanner
// already buffered a byte", matching a door running under a host that
// has already put the console into character-at-a-time mode.
type Local struct {
	in  *bufio.Reader
	out *os.File
}

// NewLocal wires a Local console to the process's stdin/stdout.
func NewLocal() *Local {
	return &Local{in: bufio.NewReaderSize(os.Stdin, 256), out: os.Stdout}
}

func (l *Local) KeyPressed() bool {
	return l.in.Buffered() > 0
}

func (l *Local) ReadKey() (byte, bool) {
	b, err := l.in.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

func (l *Local) Write(b []byte) error {
	_, err := l.out.Write(b)
	return err
}

func (l *Local) GotoXY(col, row int) {
	_ = l.Write([]byte(ansi.CursorPosition(col, row)))
}

func (l *Local) SetAttribute(attr int) {
	_ = l.Write([]byte(ansi.SGR(attr)))
}

// Fake is an in-memory Console for tests: keys queued with PushKey
// become available to ReadKey, and every Write/GotoXY/SetAttribute call
// is recorded for assertions.
type Fake struct {
	keys     []byte
	Written  []byte
	Cursor   [2]int
	LastAttr int
}

// NewFake returns an empty Fake console.
func NewFake() *Fake { return &Fake{} }

// PushKey queues a key as if the local user had typed it.
func (f *Fake) PushKey(b byte) { f.keys = append(f.keys, b) }

func (f *Fake) KeyPressed() bool { return len(f.keys) > 0 }

func (f *Fake) ReadKey() (byte, bool) {
	if len(f.keys) == 0 {
		return 0, false
	}
	b := f.keys[0]
	f.keys = f.keys[1:]
	return b, true
}

func (f *Fake) Write(b []byte) error {
	f.Written = append(f.Written, b...)
	return nil
}

func (f *Fake) GotoXY(col, row int) { f.Cursor = [2]int{col, row} }

func (f *Fake) SetAttribute(attr int) { f.LastAttr = attr }

// pollInterval is a 1ms polling granularity for the local console.
// doorsession.Session.ReadKey does not use it: it waits on the remote
// Connection in 50ms ReadChar calls.
const pollInterval = time.Millisecond
