// Package transport owns the OS socket. It performs blocking sends and
// polled, buffered receives, and conceals the three ways a door program's
// socket comes into being: an outbound dial, an inbound accept, and a
// handle inherited from the host process that launched the door.
//
// Transport never interprets the bytes it moves; framing lives one layer
// up in package framer. Grounded on MongooseMoo-barn/server/transport.go's
// TCPTransport (a bufio.Reader-backed, synchronous, blocking wrapper
// around net.Conn) generalized to the three-way open and the
// poll/recv/send-all surface spec'd for this library.
package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/doorkit/doorcore/doorerr"
)

// Transport is the interface the rest of the library programs against.
// Implementations are exclusive owners of one socket; Close() is
// terminal.
type Transport interface {
	// PollReadable reports whether at least one byte (or EOF) is
	// readable within ms milliseconds. ms<=0 polls with the shortest
	// wait the implementation supports (1ms for TCPTransport).
	PollReadable(ms int) bool

	// Recv performs a single receive into buf, returning the number of
	// bytes read. A return of (0, nil) never happens for a real socket:
	// 0 bytes always arrives bundled with doorerr.ErrTransportClosed.
	Recv(buf []byte) (int, error)

	// SendAll blocks until the entire slice has been written, or returns
	// the first error encountered. A peer reset is reported as
	// doorerr.ErrTransportClosed; anything else is a fatal I/O error.
	SendAll(buf []byte) error

	// Close tears down the transport. Safe to call more than once.
	Close() error

	// RemoteAddr reports the peer's address, or "local" / "fake" for
	// non-network transports.
	RemoteAddr() string
}

// TCPTransport wraps a net.Conn, whether it came from Dial, Accept, or
// Adopt.
type TCPTransport struct {
	conn   net.Conn
	reader *bufio.Reader

	mu     sync.Mutex
	closed bool
}

// Connect dials host:port and returns a Transport for the resulting
// stream.
func Connect(host string, port int) (*TCPTransport, error) {
	conn, err := net.Dial("tcp4", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeFatalIO, "transport: connect", err)
	}
	return wrap(conn), nil
}

// Listener accepts inbound connections, each yielding a new Transport.
type Listener struct {
	ln net.Listener
}

// Listen binds addr:port. The listen backlog is the Go runtime's
// default; it is not set to 5.
func Listen(addr string, port int) (*Listener, error) {
	ln, err := net.Listen("tcp4", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeFatalIO, "transport: listen", err)
	}
	if tl, ok := ln.(*net.TCPListener); ok {
		ln = tl // the backlog stays at the runtime default
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks for the next inbound connection.
func (l *Listener) Accept() (*TCPTransport, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeFatalIO, "transport: accept", err)
	}
	return wrap(conn), nil
}

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Addr returns the bound local address, e.g. for discovering the port
// after listening on port 0.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

func wrap(conn net.Conn) *TCPTransport {
	return &TCPTransport{conn: conn, reader: bufio.NewReaderSize(conn, 64*1024)}
}

// PollReadable implements Transport.PollReadable using a non-consuming
// Peek against a short read deadline; Peek(1) leaves the byte in the
// buffer for the subsequent Recv to return.
func (t *TCPTransport) PollReadable(ms int) bool {
	if ms <= 0 {
		ms = 1
	}
	_ = t.conn.SetReadDeadline(time.Now().Add(time.Duration(ms) * time.Millisecond))
	defer t.conn.SetReadDeadline(time.Time{})

	_, err := t.reader.Peek(1)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		return true // caller's Recv will observe the close
	}
	return false
}

// Recv reads whatever is immediately available (already-buffered bytes
// first) into buf.
func (t *TCPTransport) Recv(buf []byte) (int, error) {
	n, err := t.reader.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, doorerr.ErrTransportClosed
		}
		return n, doorerr.Wrap(doorerr.CodeFatalIO, "transport: recv", err)
	}
	if n == 0 {
		return 0, doorerr.ErrTransportClosed
	}
	return n, nil
}

// SendAll writes buf in full, looping over short writes.
func (t *TCPTransport) SendAll(buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := t.conn.Write(buf[written:])
		if err != nil {
			if isResetByPeer(err) {
				return doorerr.ErrTransportClosed
			}
			return doorerr.Wrap(doorerr.CodeFatalIO, "transport: send", err)
		}
		written += n
	}
	return nil
}

// Close closes the underlying socket. A half-close (write-then-read) is
// attempted first so in-flight data the peer hasn't acknowledged has a
// chance to drain; failures of the half-close are not fatal.
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if tc, ok := t.conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
	}
	return t.conn.Close()
}

// RemoteAddr returns the peer's address.
func (t *TCPTransport) RemoteAddr() string {
	if t.conn == nil {
		return "local"
	}
	return t.conn.RemoteAddr().String()
}

// isResetByPeer reports whether err represents the peer closing or
// resetting the connection (ECONNRESET, EPIPE), as opposed to some
// other fatal I/O error that should propagate as-is.
func isResetByPeer(err error) bool {
	if errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	return errors.Is(opErr.Err, syscall.ECONNRESET) || errors.Is(opErr.Err, syscall.EPIPE)
}
