// Package framer implements the protocol state machines that sit between
// a Transport's raw byte stream and a Connection's application byte
// stream: Raw passthrough, Telnet option negotiation, rlogin's one-shot
// handshake, and WebSocket (both Hixie-76 draft-0 and RFC-6455).
//
// Grounded on MongooseMoo-barn/server/transport.go's telnetState machine
// (the strongest synchronous, strip-in-place precedent in the corpus)
// generalized to four variants behind one interface, per
// momentics-hioload-ws's api.Framer-shaped seam between transport and
// protocol packages.
package framer

// Framer transforms a raw inbound byte stream into application bytes and
// an application byte stream into raw outbound bytes. A Framer holds no
// socket reference; Connection is the only thing that calls Recv/Send
// around it.
type Framer interface {
	// NegotiateInbound consumes raw bytes just received from the
	// Transport, appending decoded application bytes to out, and
	// returns any raw reply bytes that must be sent back immediately
	// (telnet option replies, handshake responses). Framing bytes never
	// reach out; reply bytes never reach the application.
	NegotiateInbound(raw []byte, out *[]byte) (reply []byte, err error)

	// NegotiateOutbound encodes application bytes into wire bytes ready
	// for Transport.SendAll.
	NegotiateOutbound(app []byte) (wire []byte, err error)

	// HandshakeComplete reports whether the Framer's out-of-band setup
	// (telnet's initial option exchange aside, which is asynchronous;
	// rlogin's ident exchange; WebSocket's HTTP upgrade) has finished.
	// The Rlogin and WebSocket framers emit no application bytes until
	// this is true; Connection itself does not check it.
	HandshakeComplete() bool
}

// Raw is the null Framer: every inbound byte is an application byte and
// every application byte goes out unchanged. Used for ComType local and
// as the base case the other framers fall back to after their handshake
// completes.
type Raw struct{}

// NewRaw returns a Framer that performs no framing at all.
func NewRaw() *Raw { return &Raw{} }

func (r *Raw) NegotiateInbound(raw []byte, out *[]byte) ([]byte, error) {
	*out = append(*out, raw...)
	return nil, nil
}

func (r *Raw) NegotiateOutbound(app []byte) ([]byte, error) {
	return app, nil
}

func (r *Raw) HandshakeComplete() bool { return true }
