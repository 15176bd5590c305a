package doorsession

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/doorkit/doorcore/conn"
	"github.com/doorkit/doorcore/console"
	"github.com/doorkit/doorcore/control"
	"github.com/doorkit/doorcore/dropfile"
	"github.com/doorkit/doorcore/framer"
	"github.com/doorkit/doorcore/transport"
)

func TestParseArgsRecognizesAllFlags(t *testing.T) {
	f := ParseArgs([]string{"-L", "/D/tmp/door32.sys", "-H7", "-N2", "-C4"})
	if !f.Local {
		t.Fatal("Local = false, want true")
	}
	if f.DropfilePath != "/tmp/door32.sys" {
		t.Fatalf("DropfilePath = %q, want %q", f.DropfilePath, "/tmp/door32.sys")
	}
	if f.Handle != 7 {
		t.Fatalf("Handle = %d, want 7", f.Handle)
	}
	if f.Node != 2 {
		t.Fatalf("Node = %d, want 2", f.Node)
	}
	if f.ComTypeOverride != 4 {
		t.Fatalf("ComTypeOverride = %d, want 4", f.ComTypeOverride)
	}
	if len(f.Unknown) != 0 {
		t.Fatalf("Unknown = %v, want none", f.Unknown)
	}
}

func TestParseArgsCollectsUnknownFlags(t *testing.T) {
	f := ParseArgs([]string{"-Z", "notaflag"})
	if len(f.Unknown) != 2 {
		t.Fatalf("Unknown = %v, want 2 entries", f.Unknown)
	}
}

func TestOpenWithNoSufficientFlagsReturnsUsage(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	reason, err := s.Open(&Flags{ComTypeOverride: -1})
	if err != nil {
		t.Fatalf("Open() error = %v, want nil", err)
	}
	if reason != ExitUsage {
		t.Fatalf("Open() reason = %v, want ExitUsage", reason)
	}
}

func TestParseArgsRecognizesListenPort(t *testing.T) {
	f := ParseArgs([]string{"-W8023"})
	if f.ListenPort != 8023 {
		t.Fatalf("ListenPort = %d, want 8023", f.ListenPort)
	}
}

// TestOpenListeningWebSocketPerformsRealHandshake exercises the
// ShakeRequired=true path end to end over a real loopback socket: the
// session listens, a client dials in and sends a v13 upgrade request,
// and Open only returns once the handshake Framer has replied.
func TestOpenListeningWebSocketPerformsRealHandshake(t *testing.T) {
	probe, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	port := probe.Addr().(*net.TCPAddr).Port
	if err := probe.Close(); err != nil {
		t.Fatalf("probe.Close() error = %v", err)
	}

	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	done := make(chan struct{})
	var reason ExitReason
	var openErr error
	go func() {
		reason, openErr = s.Open(&Flags{ComTypeOverride: -1, ListenPort: port})
		close(done)
	}()

	var client net.Conn
	addr := "127.0.0.1:" + strconv.Itoa(port)
	for i := 0; i < 50; i++ {
		if client, err = net.Dial("tcp4", addr); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if client == nil {
		t.Fatalf("net.Dial() error = %v", err)
	}
	defer client.Close()

	req := "GET /d HTTP/1.1\r\nHost:x\r\nUpgrade:websocket\r\nConnection:Upgrade\r\n" +
		"Sec-WebSocket-Key:dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version:13\r\nOrigin:http://x\r\n\r\n"
	if _, err := client.Write([]byte(req)); err != nil {
		t.Fatalf("client.Write() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Open() never returned")
	}
	if openErr != nil || reason != ExitNone {
		t.Fatalf("Open() = (%v, %v), want (ExitNone, nil)", reason, openErr)
	}
	if s.DropInfo.ComType != dropfile.ComWebSocket {
		t.Fatalf("DropInfo.ComType = %v, want ComWebSocket", s.DropInfo.ComType)
	}
	if !s.Conn.HandshakeComplete() {
		t.Fatal("Conn.HandshakeComplete() = false after a full v13 upgrade request")
	}
}

func TestOpenLocalSkipsDropfile(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	reason, err := s.Open(&Flags{Local: true, ComTypeOverride: -1})
	if err != nil || reason != ExitNone {
		t.Fatalf("Open() = (%v, %v), want (ExitNone, nil)", reason, err)
	}
}

func TestCloseClosesConnectionAndResetsConsoleAttribute(t *testing.T) {
	fc := console.NewFake()
	s := NewSession(fc, control.NewConfigStore(control.DefaultConfig()))
	ft := transport.NewFake()
	s.Conn = conn.New(ft, framer.NewRaw())
	fc.SetAttribute(31)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if fc.LastAttr != 0 {
		t.Fatalf("LastAttr = %d, want 0 after Close", fc.LastAttr)
	}
	if err := ft.SendAll([]byte("x")); err == nil {
		t.Fatal("SendAll() after Close() error = nil, want ErrTransportClosed")
	}
}

func TestCloseWithoutConnectionIsNoop(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v, want nil", err)
	}
}

func TestRunGuardedClosesConnectionOnPanic(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	ft := transport.NewFake()
	s.Conn = conn.New(ft, framer.NewRaw())

	func() {
		defer func() { _ = recover() }()
		s.RunGuarded(func() { panic("boom") })
	}()

	if err := ft.SendAll([]byte("x")); err == nil {
		t.Fatal("SendAll() after RunGuarded panic error = nil, want ErrTransportClosed")
	}
}

func TestRunGuardedRepanics(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))

	defer func() {
		r := recover()
		if r != "boom" {
			t.Fatalf("recover() = %v, want %q", r, "boom")
		}
	}()
	s.RunGuarded(func() { panic("boom") })
	t.Fatal("RunGuarded() did not panic")
}

func TestTickDetectsCarrierDrop(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	ft := transport.NewFake()
	s.Conn = conn.New(ft, framer.NewRaw())
	_ = ft.Close()

	s.lastTick = s.lastTick.Add(-2_000_000_000) // force the once-per-second gate open
	if reason := s.Tick(); reason != ExitCarrierDropped {
		t.Fatalf("Tick() = %v, want ExitCarrierDropped", reason)
	}
}

func TestReadKeyPrefersLocalConsole(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	fc := s.Console.(*console.Fake)
	fc.PushKey('q')
	s.local = true

	lk, ok := s.ReadKey(100)
	if !ok {
		t.Fatal("ReadKey() ok = false, want true")
	}
	if lk.Char != 'q' || lk.Source != SourceLocal {
		t.Fatalf("ReadKey() = %+v, want local 'q'", lk)
	}
}

func TestReadKeyClassifiesRemoteArrowEscape(t *testing.T) {
	s := NewSession(console.NewFake(), control.NewConfigStore(control.DefaultConfig()))
	ft := transport.NewFake()
	ft.AddRecvData([]byte{0x1B, '[', 'A'})
	s.Conn = conn.New(ft, framer.NewRaw())
	s.Config.SetConfig(control.Config{EventsEnabled: false})

	lk, ok := s.ReadKey(500)
	if !ok {
		t.Fatal("ReadKey() ok = false, want true")
	}
	if !lk.Extended || lk.Char != KeyUp || lk.Source != SourceRemote {
		t.Fatalf("ReadKey() = %+v, want extended KeyUp from remote", lk)
	}
}
