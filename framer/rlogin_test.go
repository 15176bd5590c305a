package framer

import "testing"

func TestRloginHandshakeCompletesAndReplies(t *testing.T) {
	r := NewRlogin()
	hello := append([]byte{0x00}, []byte("alice\x00bob\x00vt100/38400\x00")...)

	var out []byte
	reply, err := r.NegotiateInbound(hello, &out)
	if err != nil {
		t.Fatalf("NegotiateInbound() error = %v", err)
	}
	if !r.HandshakeComplete() {
		t.Fatal("HandshakeComplete() = false after full hello")
	}
	if len(reply) != 1 || reply[0] != 0x00 {
		t.Fatalf("reply = % X, want single 0x00", reply)
	}
	if r.LocalUser != "alice" || r.RemoteUser != "bob" || r.TermBaud != "vt100/38400" {
		t.Fatalf("parsed fields = %q/%q/%q, want alice/bob/vt100-38400", r.LocalUser, r.RemoteUser, r.TermBaud)
	}
	if len(out) != 0 {
		t.Fatalf("application bytes = %q, want none (hello carried no trailing data)", out)
	}
}

func TestRloginTrailingBytesAfterHelloArePassedThrough(t *testing.T) {
	r := NewRlogin()
	hello := append([]byte{0x00}, []byte("a\x00b\x00vt100\x00")...)
	hello = append(hello, []byte("hello")...)

	var out []byte
	if _, err := r.NegotiateInbound(hello, &out); err != nil {
		t.Fatalf("NegotiateInbound() error = %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("application bytes = %q, want %q", out, "hello")
	}
}

func TestRloginHandshakeSpreadAcrossTwoReads(t *testing.T) {
	r := NewRlogin()
	first := []byte{0x00, 'a', 0x00, 'b'}
	second := []byte{0x00, 'v', 't', '1', '0', '0', 0x00, 'X'}

	var out []byte
	reply1, err := r.NegotiateInbound(first, &out)
	if err != nil {
		t.Fatalf("NegotiateInbound() first chunk error = %v", err)
	}
	if len(reply1) != 0 {
		t.Fatalf("reply after partial hello = % X, want none yet", reply1)
	}
	if r.HandshakeComplete() {
		t.Fatal("HandshakeComplete() = true before hello finished")
	}

	reply2, err := r.NegotiateInbound(second, &out)
	if err != nil {
		t.Fatalf("NegotiateInbound() second chunk error = %v", err)
	}
	if !r.HandshakeComplete() {
		t.Fatal("HandshakeComplete() = false after hello finished")
	}
	if len(reply2) != 1 || reply2[0] != 0x00 {
		t.Fatalf("reply = % X, want single 0x00", reply2)
	}
	if string(out) != "X" {
		t.Fatalf("application bytes = %q, want %q", out, "X")
	}
}

func TestRloginPassThroughAfterHandshake(t *testing.T) {
	r := NewRlogin()
	var out []byte
	_, _ = r.NegotiateInbound(append([]byte{0x00}, []byte("a\x00b\x00t\x00")...), &out)
	out = out[:0]

	if _, err := r.NegotiateInbound([]byte("more data"), &out); err != nil {
		t.Fatalf("NegotiateInbound() error = %v", err)
	}
	if string(out) != "more data" {
		t.Fatalf("application bytes = %q, want %q", out, "more data")
	}
}
