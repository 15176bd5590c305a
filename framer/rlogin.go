// Rlogin's server-side handshake: a single exchange immediately after
// connect, then raw pass-through. Grounded on the synchronous,
// single-exchange shape of MongooseMoo-barn's TCPTransport (no ongoing
// state machine once negotiation finishes) generalized to rlogin's
// fixed three-field client hello.
package framer

import "bytes"

// Rlogin implements the rlogin client-handshake Framer. The client sends
// a leading 0x00 followed by "<local-user>\0<remote-user>\0<terminal/baud>\0";
// the server answers with a single 0x00 and thereafter treats the stream
// as raw application bytes.
type Rlogin struct {
	complete   bool
	buf        []byte
	LocalUser  string
	RemoteUser string
	TermBaud   string
}

// NewRlogin returns a Framer awaiting the client's rlogin hello.
func NewRlogin() *Rlogin {
	return &Rlogin{}
}

func (r *Rlogin) NegotiateInbound(raw []byte, out *[]byte) ([]byte, error) {
	if r.complete {
		*out = append(*out, raw...)
		return nil, nil
	}

	r.buf = append(r.buf, raw...)
	if len(r.buf) < 1 || r.buf[0] != 0x00 {
		return nil, nil // leading 0x00 hasn't arrived yet
	}

	body := r.buf[1:]
	fields := bytes.SplitN(body, []byte{0x00}, 4)
	if len(fields) < 4 {
		// Haven't seen all three NUL-terminated fields yet.
		return nil, nil
	}

	r.LocalUser = string(fields[0])
	r.RemoteUser = string(fields[1])
	r.TermBaud = string(fields[2])
	r.complete = true

	// Anything after the third NUL is already application data.
	trailing := fields[3]
	*out = append(*out, trailing...)
	r.buf = nil

	return []byte{0x00}, nil
}

func (r *Rlogin) NegotiateOutbound(app []byte) ([]byte, error) {
	return app, nil
}

func (r *Rlogin) HandshakeComplete() bool { return r.complete }
