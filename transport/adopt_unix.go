//go:build !windows

// Adopt wraps a socket handle the host process already owns (the common
// case for Unix BBS hosts that exec the door with stdin/stdout, or
// socket fd 0, already connected to the caller). Grounded on the
// fd-inheritance pattern in
// other_examples/Ankit-Kulkarni-go-experiments' SocketHandoff example
// (os.NewFile + net.FileListener/net.FileConn over an inherited fd).
package transport

import (
	"net"
	"os"

	"github.com/doorkit/doorcore/doorerr"
)

// Adopt takes ownership of an already-connected socket handle (a raw fd
// on Unix) and returns a Transport for it.
func Adopt(handle uintptr) (*TCPTransport, error) {
	f := os.NewFile(handle, "adopted-socket")
	if f == nil {
		return nil, doorerr.New(doorerr.CodeFatalIO, "transport: adopt: invalid handle")
	}
	conn, err := net.FileConn(f)
	_ = f.Close() // FileConn dup'd the descriptor; the os.File's copy is no longer needed
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeFatalIO, "transport: adopt", err)
	}
	return wrap(conn), nil
}
