//go:build windows

// Windows has no fd-table inheritance the way Unix does: a SOCKET handle
// minted in one process is only valid in another if it is explicitly
// duplicated into that process with DuplicateHandle.
package transport

import (
	"net"
	"os"

	"golang.org/x/sys/windows"

	"github.com/doorkit/doorcore/doorerr"
)

// Adopt duplicates handle into this process's handle table and returns
// a Transport for it. handle is expected to already be valid in the
// current process (the common case: the host wrote the numeric handle
// into a dropfile or passed it via the environment after duplicating it
// itself); the explicit DuplicateHandle call guards against the handle
// being closed out from under us by the original owner.
func Adopt(handle uintptr) (*TCPTransport, error) {
	proc := windows.CurrentProcess()
	var dup windows.Handle
	err := windows.DuplicateHandle(
		proc, windows.Handle(handle),
		proc, &dup,
		0, false, windows.DUPLICATE_SAME_ACCESS,
	)
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeFatalIO, "transport: adopt: DuplicateHandle", err)
	}

	f := os.NewFile(uintptr(dup), "adopted-socket")
	if f == nil {
		return nil, doorerr.New(doorerr.CodeFatalIO, "transport: adopt: invalid handle")
	}
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeFatalIO, "transport: adopt", err)
	}
	return wrap(conn), nil
}
