// Package conn implements Connection, which couples a Transport with a
// Framer and a ByteQueue to present the application with a buffered,
// line-oriented, blocking I/O surface: byte-level ReadChar/ReadLine/
// Write, plus the CR/LF and CR/NUL suppression and timeout semantics a
// BBS door's input layer needs on top of a raw socket.
package conn

import (
	"bytes"
	"time"

	"github.com/doorkit/doorcore/doorerr"
	"github.com/doorkit/doorcore/framer"
	"github.com/doorkit/doorcore/queue"
)

// Transport is the subset of transport.Transport Connection depends on;
// declared locally so tests can supply a minimal double without
// importing package transport.
type Transport interface {
	PollReadable(ms int) bool
	Recv(buf []byte) (int, error)
	SendAll(buf []byte) error
	Close() error
	RemoteAddr() string
}

const recvChunkSize = 64 * 1024

// Connection presents ReadChar/ReadLine/Write/Peek over a Transport and
// Framer pair. Not safe for concurrent use.
type Connection struct {
	transport Transport
	framer    framer.Framer

	inputQ *queue.ByteQueue

	lastByteIn    byte
	haveLastByte  bool
	StripLF       bool
	StripNull     bool
	readTimedOut  bool
	disconnected  bool
	lastErr       error
}

// New couples t and f into a Connection. StripNull defaults to true, so
// a client's CR/NUL line ending arrives as a bare CR. StripLF defaults
// to false, so a CR/LF line ending reaches ReadLine's default "\r\n"
// terminator intact; set it to drop the LF that follows a CR.
func New(t Transport, f framer.Framer) *Connection {
	return &Connection{
		transport: t,
		framer:    f,
		inputQ:    queue.New(),
		StripLF:   false,
		StripNull: true,
	}
}

// Disconnected reports whether the peer has closed, the framer has
// failed, or Close has been called.
func (c *Connection) Disconnected() bool { return c.disconnected }

// ReadTimedOut reports whether the most recently completed read ended
// because its deadline elapsed rather than because data arrived.
func (c *Connection) ReadTimedOut() bool { return c.readTimedOut }

// LastError returns the error that caused the most recent disconnect,
// if any.
func (c *Connection) LastError() error { return c.lastErr }

// RemoteAddr delegates to the underlying Transport.
func (c *Connection) RemoteAddr() string { return c.transport.RemoteAddr() }

// HandshakeComplete delegates to the underlying Framer.
func (c *Connection) HandshakeComplete() bool { return c.framer.HandshakeComplete() }

// Close tears down the Transport. Safe to call more than once.
func (c *Connection) Close() error {
	c.disconnected = true
	return c.transport.Close()
}

// Peek returns every unconsumed application byte without removing them.
func (c *Connection) Peek() []byte { return c.inputQ.PeekAll() }

// Probe runs one non-blocking poll/recv cycle so Disconnected reflects
// a peer close even when nothing has called ReadChar/ReadLine recently
// (used by the event tick's carrier check).
func (c *Connection) Probe() {
	if c.disconnected {
		return
	}
	c.pump()
}

// pump drains one poll/recv/decode cycle. It returns true if new
// application bytes became available.
func (c *Connection) pump() bool {
	if !c.transport.PollReadable(1) {
		return false
	}

	buf := make([]byte, recvChunkSize)
	n, err := c.transport.Recv(buf)
	if err != nil {
		c.disconnected = true
		c.lastErr = err
		return false
	}
	if n == 0 {
		return false
	}

	var decoded []byte
	reply, err := c.framer.NegotiateInbound(buf[:n], &decoded)
	if err != nil {
		c.disconnected = true
		c.lastErr = err
		return false
	}
	if len(reply) > 0 {
		if sendErr := c.transport.SendAll(reply); sendErr != nil {
			c.disconnected = true
			c.lastErr = sendErr
			return false
		}
	}

	c.enqueueFiltered(decoded)
	return len(decoded) > 0
}

// enqueueFiltered applies the CR/LF and CR/NUL suppression rule before
// adding decoded application bytes to the input queue as one chunk.
func (c *Connection) enqueueFiltered(decoded []byte) {
	kept := make([]byte, 0, len(decoded))
	for _, b := range decoded {
		drop := false
		if c.haveLastByte && c.lastByteIn == 0x0D {
			if (c.StripLF && b == 0x0A) || (c.StripNull && b == 0x00) {
				drop = true
			}
		}
		c.lastByteIn = b
		c.haveLastByte = true
		if !drop {
			kept = append(kept, b)
		}
	}
	c.inputQ.Enqueue(kept)
}

// ReadChar returns the next application byte, polling the transport
// while the input queue is empty. timeoutMs of 0 waits forever.
// ReadTimedOut reports which of the two failure modes ended the call.
func (c *Connection) ReadChar(timeoutMs int) (byte, bool) {
	c.readTimedOut = false

	if b, ok := c.inputQ.Dequeue(); ok {
		return b, true
	}

	start := time.Now()
	for {
		if c.disconnected {
			return 0, false
		}
		if b, ok := c.inputQ.Dequeue(); ok {
			return b, true
		}
		if timeoutMs > 0 && time.Since(start) >= time.Duration(timeoutMs)*time.Millisecond {
			c.readTimedOut = true
			return 0, false
		}
		c.pump()
	}
}

func isPrintable(b byte) bool { return b >= 0x20 }

// ReadLine accumulates characters until the buffer ends with terminator
// (default "\r\n" if empty), optionally echoing with backspace handling
// and mask substitution.
func (c *Connection) ReadLine(terminator string, echo bool, mask byte, timeoutMs int) (string, bool) {
	if terminator == "" {
		terminator = "\r\n"
	}

	var acc []byte
	start := time.Now()

	for {
		remaining := timeoutMs
		if timeoutMs > 0 {
			elapsed := int(time.Since(start) / time.Millisecond)
			remaining = timeoutMs - elapsed
			if remaining <= 0 {
				c.readTimedOut = true
				return string(acc), false
			}
		}

		b, ok := c.ReadChar(remaining)
		if !ok {
			return string(acc), false
		}

		switch {
		case b == 0x08 || b == 0x7F:
			if len(acc) > 0 {
				removed := acc[len(acc)-1]
				acc = acc[:len(acc)-1]
				if echo && isPrintable(removed) {
					c.echoRaw([]byte{0x08, ' ', 0x08})
				}
			}
		case isPrintable(b):
			acc = append(acc, b)
			if echo {
				out := b
				if mask != 0 {
					out = mask
				}
				c.echoRaw([]byte{out})
			}
		default:
			acc = append(acc, b)
		}

		if bytes.HasSuffix(acc, []byte(terminator)) {
			trimmed := acc[:len(acc)-len(terminator)]
			if echo {
				c.echoRaw([]byte("\r\n"))
			}
			c.readTimedOut = false
			return string(trimmed), true
		}
	}
}

// echoRaw writes bytes straight to the peer, bypassing the application
// write path; used only for read_line's live echo/backspace feedback.
func (c *Connection) echoRaw(b []byte) {
	wire, err := c.framer.NegotiateOutbound(b)
	if err != nil {
		c.disconnected = true
		c.lastErr = err
		return
	}
	if err := c.transport.SendAll(wire); err != nil {
		c.disconnected = true
		c.lastErr = err
	}
}

// Write encodes b through the Framer and sends it atomically.
func (c *Connection) Write(b []byte) error {
	if c.disconnected {
		return doorerr.ErrTransportClosed
	}
	wire, err := c.framer.NegotiateOutbound(b)
	if err != nil {
		return err
	}
	if err := c.transport.SendAll(wire); err != nil {
		c.disconnected = true
		c.lastErr = err
		return err
	}
	return nil
}

// WriteLine writes s followed by "\r\n".
func (c *Connection) WriteLine(s string) error {
	return c.Write(append([]byte(s), '\r', '\n'))
}
