package conn

import (
	"testing"

	"github.com/doorkit/doorcore/framer"
	"github.com/doorkit/doorcore/transport"
)

func TestReadLineWithBackspaceAndMask(t *testing.T) {
	ft := transport.NewFake()
	ft.AddRecvData([]byte{'a', 'b', 0x08, 'c', '\r', '\n'})

	c := New(ft, framer.NewRaw())
	line, ok := c.ReadLine("\r\n", true, '*', 1000)
	if !ok {
		t.Fatalf("ReadLine() ok = false, want true")
	}
	if line != "ac" {
		t.Fatalf("ReadLine() = %q, want %q", line, "ac")
	}

	wantEcho := "**\x08 \x08*\r\n"
	if got := string(ft.SentData()); got != wantEcho {
		t.Fatalf("echoed bytes = %q, want %q", got, wantEcho)
	}
}

func TestReadLineWithoutEchoHasNoSideEffects(t *testing.T) {
	ft := transport.NewFake()
	ft.AddRecvData([]byte("secret\r\n"))

	c := New(ft, framer.NewRaw())
	line, ok := c.ReadLine("\r\n", false, 0, 1000)
	if !ok {
		t.Fatalf("ReadLine() ok = false, want true")
	}
	if line != "secret" {
		t.Fatalf("ReadLine() = %q, want %q", line, "secret")
	}
	if len(ft.SentData()) != 0 {
		t.Fatalf("SentData() = %q, want empty (echo disabled)", ft.SentData())
	}
}

func TestReadLineTimeoutReturnsPartialAccumulation(t *testing.T) {
	ft := transport.NewFake()
	ft.AddRecvData([]byte("partial"))

	c := New(ft, framer.NewRaw())
	line, ok := c.ReadLine("\r\n", false, 0, 20)
	if ok {
		t.Fatal("ReadLine() ok = true, want false (no terminator ever arrives)")
	}
	if line != "partial" {
		t.Fatalf("ReadLine() = %q, want %q", line, "partial")
	}
	if !c.ReadTimedOut() {
		t.Fatal("ReadTimedOut() = false after a timeout-driven return")
	}
}

func TestStripCRLFSuppressesBareLF(t *testing.T) {
	ft := transport.NewFake()
	ft.AddRecvData([]byte{'X', 0x0D, 0x0A, 'Y'})

	c := New(ft, framer.NewRaw())
	c.StripLF = true
	var got []byte
	for i := 0; i < 3; i++ {
		b, ok := c.ReadChar(1000)
		if !ok {
			t.Fatalf("ReadChar() ok = false at iteration %d", i)
		}
		got = append(got, b)
	}
	want := []byte{'X', 0x0D, 'Y'}
	if string(got) != string(want) {
		t.Fatalf("bytes = % X, want % X (bare LF after CR dropped)", got, want)
	}
}

func TestReadCharOnDisconnectReturnsFalse(t *testing.T) {
	ft := transport.NewFake()
	_ = ft.Close()

	c := New(ft, framer.NewRaw())
	_, ok := c.ReadChar(1000)
	if ok {
		t.Fatal("ReadChar() ok = true on a closed transport, want false")
	}
	if !c.Disconnected() {
		t.Fatal("Disconnected() = false after transport closed")
	}
}

func TestWriteRoundTripsThroughFramer(t *testing.T) {
	ft := transport.NewFake()
	c := New(ft, framer.NewRaw())
	if err := c.WriteLine("hello"); err != nil {
		t.Fatalf("WriteLine() error = %v", err)
	}
	if got := string(ft.SentData()); got != "hello\r\n" {
		t.Fatalf("SentData() = %q, want %q", got, "hello\r\n")
	}
}
