// Package doorsession implements the top-level state machine a door
// program drives: command-line parsing, dropfile-driven Framer
// selection, the once-per-second event tick, local/remote key
// multiplexing, and the pipe/backtick color grammars applied to
// outbound text. Session takes its Console and ConfigStore as
// collaborators rather than constructing them, the way a server takes
// its listener and config store at startup.
package doorsession

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/doorkit/doorcore/conn"
	"github.com/doorkit/doorcore/console"
	"github.com/doorkit/doorcore/control"
	"github.com/doorkit/doorcore/colorgrammar"
	"github.com/doorkit/doorcore/doorerr"
	"github.com/doorkit/doorcore/dropfile"
	"github.com/doorkit/doorcore/framer"
	"github.com/doorkit/doorcore/transport"
)

// ExitReason names the terminal condition a session ended on. Each
// reason has its own banner and implies a 2.5s pause before the
// caller should terminate the process.
type ExitReason int

const (
	ExitNone ExitReason = iota
	ExitCarrierDropped
	ExitIdleExceeded
	ExitTimeExpired
	ExitDropfileMissing
	ExitNoCarrierDetected
	ExitUsage
)

// Banner returns the user-visible message for a terminal ExitReason.
func (r ExitReason) Banner() string {
	switch r {
	case ExitCarrierDropped:
		return "*** Carrier Lost ***"
	case ExitIdleExceeded:
		return "*** Idle Timeout ***"
	case ExitTimeExpired:
		return "*** Time Expired ***"
	case ExitDropfileMissing:
		return "*** Dropfile Not Found ***"
	case ExitNoCarrierDetected:
		return "No Carrier Detected"
	case ExitUsage:
		return "Usage: door -L | -D<dropfile> | -H<handle> -N<node> [-C<comtype>]"
	default:
		return ""
	}
}

// ExitPause is the pause every terminal banner is held for before the
// process exits.
const ExitPause = 2500 * time.Millisecond

// Flags is the result of parsing the door's command line: -L (local),
// -D<path> (dropfile), -H<handle> (socket handle), -N<node>,
// -C<comtype> (ComType override). Both "-" and "/" prefixes are
// accepted and keys are case-insensitive.
type Flags struct {
	Local           bool
	DropfilePath    string
	Handle          int64
	Node            int
	ComTypeOverride int // -1 means "not set"
	ListenPort      int // -W<port>: run as a standalone WebSocket server instead of adopting a host-handed socket
	Unknown         []string
}

// ParseArgs parses a door's command-line arguments.
func ParseArgs(args []string) *Flags {
	f := &Flags{ComTypeOverride: -1}

	for _, a := range args {
		if len(a) < 2 || (a[0] != '-' && a[0] != '/') {
			f.Unknown = append(f.Unknown, a)
			continue
		}
		key := strings.ToUpper(a[1:2])
		rest := a[2:]

		switch key {
		case "L":
			f.Local = true
		case "D":
			f.DropfilePath = rest
		case "H":
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				f.Unknown = append(f.Unknown, a)
				continue
			}
			f.Handle = n
		case "N":
			n, err := strconv.Atoi(rest)
			if err != nil {
				f.Unknown = append(f.Unknown, a)
				continue
			}
			f.Node = n
		case "C":
			n, err := strconv.Atoi(rest)
			if err != nil {
				f.Unknown = append(f.Unknown, a)
				continue
			}
			f.ComTypeOverride = n
		case "W":
			n, err := strconv.Atoi(rest)
			if err != nil {
				f.Unknown = append(f.Unknown, a)
				continue
			}
			f.ListenPort = n
		default:
			f.Unknown = append(f.Unknown, a)
		}
	}
	return f
}

// KeySource identifies whether a key came from the local console or the
// remote Connection.
type KeySource int

const (
	SourceNone KeySource = iota
	SourceLocal
	SourceRemote
)

// Extended scan codes for the arrow keys, in the classic PC BIOS
// convention doors of this era use for non-printable remote input.
const (
	KeyUp    byte = 0x48
	KeyDown  byte = 0x50
	KeyLeft  byte = 0x4B
	KeyRight byte = 0x4D
)

// LastKey records the most recently read key, local or remote.
type LastKey struct {
	Char      byte
	Extended  bool
	Source    KeySource
	PressedAt time.Time
}

// Session is the door program's top-level state machine.
type Session struct {
	Conn     *conn.Connection
	DropInfo *dropfile.Info
	Console  console.Console
	Config   *control.ConfigStore
	Diag     *control.Diagnostics

	local       bool
	started     time.Time
	lastTick    time.Time
	lastKeyAt   time.Time
	lastKey     LastKey
	lastTickRes ExitReason
}

// NewSession wires a console and config store into an unopened Session.
func NewSession(c console.Console, cfg *control.ConfigStore) *Session {
	return &Session{
		Console: c,
		Config:  cfg,
		Diag:    control.NewDiagnostics(),
	}
}

// Open selects a Framer from the dropfile (or flags, for a local run)
// and adopts the inherited socket. It returns ExitUsage if nothing
// sufficient to start was given, ExitDropfileMissing if a named
// dropfile never appeared, or ExitNoCarrierDetected if the transport
// could not be opened.
func (s *Session) Open(flags *Flags) (ExitReason, error) {
	if flags.Local {
		s.local = true
		s.started = time.Now()
		return ExitNone, nil
	}

	if flags.ListenPort != 0 {
		return s.openListeningWebSocket(flags.ListenPort)
	}

	switch {
	case flags.DropfilePath != "":
		if !waitForDropfile(flags.DropfilePath, 5*time.Second) {
			return ExitDropfileMissing, doorerr.ErrDropfileMissing
		}
		info, err := loadDropfile(flags.DropfilePath)
		if err != nil {
			return ExitDropfileMissing, err
		}
		s.DropInfo = info

	case flags.Handle != 0 && flags.Node != 0:
		s.DropInfo = &dropfile.Info{
			ComType:      dropfile.ComTelnet,
			SocketHandle: flags.Handle,
			Node:         flags.Node,
		}

	default:
		return ExitUsage, nil
	}

	comType := s.DropInfo.ComType
	if flags.ComTypeOverride >= 0 {
		comType = dropfile.ComType(flags.ComTypeOverride)
	}

	var fr framer.Framer
	switch comType {
	case dropfile.ComTelnet:
		fr = framer.NewTelnet()
	case dropfile.ComRlogin:
		fr = framer.NewRlogin()
	case dropfile.ComWebSocket:
		fr = framer.NewWebSocketServer(false, 13) // host already upgraded
	default:
		fr = framer.NewRaw()
	}

	t, err := transport.Adopt(uintptr(s.DropInfo.SocketHandle))
	if err != nil {
		return ExitNoCarrierDetected, err
	}

	s.Conn = conn.New(t, fr)
	s.started = time.Now()
	s.lastKeyAt = s.started
	return ExitNone, nil
}

// openListeningWebSocket runs the door as its own WebSocket server
// rather than adopting a socket a host already upgraded: it listens,
// accepts one connection, and performs the HTTP upgrade handshake
// itself, so ShakeRequired is true and the handshake's header-read
// timeout is actually exercised. It returns once the handshake has
// completed or the connection has failed.
func (s *Session) openListeningWebSocket(port int) (ExitReason, error) {
	ln, err := transport.Listen("", port)
	if err != nil {
		return ExitNoCarrierDetected, err
	}
	defer ln.Close()

	t, err := ln.Accept()
	if err != nil {
		return ExitNoCarrierDetected, err
	}

	c := conn.New(t, framer.NewWebSocketServer(true, 13))
	for !c.HandshakeComplete() {
		c.Probe()
		if c.Disconnected() {
			_ = c.Close()
			return ExitNoCarrierDetected, c.LastError()
		}
	}

	s.DropInfo = &dropfile.Info{ComType: dropfile.ComWebSocket, Emulation: dropfile.EmuANSI}
	s.Conn = c
	s.started = time.Now()
	s.lastKeyAt = s.started
	return ExitNone, nil
}

// Close releases everything Open acquired: it closes the remote
// Connection, if one was opened, and resets the local console's
// attribute back to default. Safe to call more than once and safe to
// call on a Session that never opened a Connection (a local run, or
// one that exited before Open succeeded).
func (s *Session) Close() error {
	if s.Console != nil {
		s.Console.SetAttribute(0)
	}
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

// RunGuarded runs fn with a panic boundary that guarantees Close runs
// before the panic propagates, so a panic inside a door's run loop
// still closes the socket and restores the console rather than leaking
// them up an unwinding goroutine. The panic is re-raised after cleanup;
// RunGuarded does not swallow it.
func (s *Session) RunGuarded(fn func()) {
	defer func() {
		_ = s.Close()
		if r := recover(); r != nil {
			panic(r)
		}
	}()
	fn()
}

func waitForDropfile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func loadDropfile(path string) (*dropfile.Info, error) {
	if strings.Contains(strings.ToUpper(path), "DOOR32") {
		return dropfile.ParseDoor32(path)
	}
	return dropfile.ParseInfoStar(path)
}

// Tick runs the once-per-second event checks: carrier, time-up, idle,
// minute-boundary warnings, and a status-bar refresh. Calling it more
// than once within the same second is a no-op. Safe to call for a
// local session (always returns ExitNone).
func (s *Session) Tick() ExitReason {
	if s.local || s.Conn == nil {
		return ExitNone
	}

	now := time.Now()
	if now.Sub(s.lastTick) < time.Second {
		return ExitNone
	}
	s.lastTick = now

	cfg := s.Config.GetSnapshot()
	if !cfg.EventsEnabled {
		return ExitNone
	}

	s.Conn.Probe()
	if s.Conn.Disconnected() {
		s.Diag.Set("carrier_ok", false)
		return ExitCarrierDropped
	}
	s.Diag.Set("carrier_ok", true)

	idleSecs := int(now.Sub(s.lastKeyAt).Seconds())
	s.Diag.Set("idle_secs", idleSecs)
	if cfg.MaxIdleSecs > 0 {
		if idleSecs >= cfg.MaxIdleSecs {
			return ExitIdleExceeded
		}
		idleLeft := cfg.MaxIdleSecs - idleSecs
		if warnAtMinuteBoundary(idleLeft, cfg.WarnAtMinutes) {
			_ = s.Conn.WriteLine(fmt.Sprintf("*** %d minute(s) until idle timeout ***", idleLeft/60))
		}
	}

	if s.DropInfo != nil && s.DropInfo.MaxTimeSecs > 0 {
		secondsLeft := s.DropInfo.MaxTimeSecs - int(now.Sub(s.started).Seconds())
		s.Diag.Set("time_left_secs", secondsLeft)
		if secondsLeft < 1 {
			return ExitTimeExpired
		}
		if warnAtMinuteBoundary(secondsLeft, cfg.WarnAtMinutes) {
			_ = s.Conn.WriteLine(fmt.Sprintf("*** %d minute(s) remaining ***", secondsLeft/60))
		}
	}

	if cfg.StatusBarEnabled {
		s.refreshStatusBar(cfg)
	}
	return ExitNone
}

func warnAtMinuteBoundary(secondsLeft, warnAtMinutes int) bool {
	return secondsLeft > 0 && secondsLeft <= warnAtMinutes*60 && secondsLeft%60 == 0
}

func (s *Session) refreshStatusBar(cfg control.Config) {
	s.Console.GotoXY(1, 1)
	s.Console.SetAttribute(0)
	_ = s.Console.Write([]byte(fmt.Sprintf("idle:%ds", int(time.Since(s.lastKeyAt).Seconds()))))
}

// LastTickResult reports the ExitReason Tick() most recently produced,
// for callers whose main loop drives Tick via ReadKey rather than
// calling it directly.
func (s *Session) LastTickResult() ExitReason { return s.lastTickRes }

// ReadKey waits up to timeoutMs (0 = forever) for a key from either the
// local console or, when not running local, the remote Connection.
// Remote bytes that could begin an ANSI arrow escape (ESC [ A|B|C|D)
// are given a 100ms grace window to collect the rest of the sequence
// before being classified as plain ESC. When not local, Tick runs once
// per loop iteration; its result is available via LastTickResult.
func (s *Session) ReadKey(timeoutMs int) (LastKey, bool) {
	start := time.Now()
	for {
		if s.Console.KeyPressed() {
			if b, ok := s.Console.ReadKey(); ok {
				return s.recordKey(b, false, SourceLocal), true
			}
		}

		if !s.local {
			s.lastTickRes = s.Tick()
			if s.lastTickRes != ExitNone {
				return LastKey{}, false
			}

			if b, ok := s.Conn.ReadChar(50); ok {
				if b == 0x1B {
					return s.readArrowEscape(), true
				}
				return s.recordKey(b, false, SourceRemote), true
			}
			if s.Conn.Disconnected() {
				return LastKey{}, false
			}
		}

		if timeoutMs > 0 && time.Since(start) >= time.Duration(timeoutMs)*time.Millisecond {
			return LastKey{}, false
		}
	}
}

func (s *Session) readArrowEscape() LastKey {
	seq := []byte{0x1B}
	for len(seq) < 3 {
		b, ok := s.Conn.ReadChar(100)
		if !ok {
			break
		}
		seq = append(seq, b)
	}
	if len(seq) == 3 && seq[1] == '[' {
		switch seq[2] {
		case 'A':
			return s.recordKey(KeyUp, true, SourceRemote)
		case 'B':
			return s.recordKey(KeyDown, true, SourceRemote)
		case 'C':
			return s.recordKey(KeyRight, true, SourceRemote)
		case 'D':
			return s.recordKey(KeyLeft, true, SourceRemote)
		}
	}
	return s.recordKey(0x1B, false, SourceRemote)
}

func (s *Session) recordKey(b byte, extended bool, src KeySource) LastKey {
	lk := LastKey{Char: b, Extended: extended, Source: src, PressedAt: time.Now()}
	s.lastKey = lk
	s.lastKeyAt = lk.PressedAt
	return lk
}

// LastKey returns the most recently read key.
func (s *Session) LastKey() LastKey { return s.lastKey }

// WriteColored expands the pipe (|XX) and backtick (LORD) color
// grammars in s, then writes the result to the Connection.
func (s *Session) WriteColored(text string) error {
	expanded := colorgrammar.ExpandBacktick(colorgrammar.ExpandPipe(text))
	return s.Conn.Write([]byte(expanded))
}
