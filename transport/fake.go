// Fake is an in-memory Transport for tests: data queued with AddRecvData
// becomes readable, and everything written with SendAll lands in
// SentData. Injectable errors let tests simulate a failing peer without
// a real socket.
package transport

import (
	"sync"

	"github.com/doorkit/doorcore/doorerr"
)

// Fake is a Transport double. Not safe for concurrent use from more than
// one goroutine beyond the simple producer/consumer pattern tests use it
// for.
type Fake struct {
	mu     sync.Mutex
	inbox  []byte
	sent   []byte
	closed bool

	recvErr  error
	sendErr  error
	closeErr error
}

// NewFake returns an empty Fake transport.
func NewFake() *Fake {
	return &Fake{}
}

// AddRecvData appends bytes to the queue PollReadable/Recv will surface.
func (f *Fake) AddRecvData(b []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = append(f.inbox, b...)
}

// SentData returns everything written via SendAll so far.
func (f *Fake) SentData() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// ClearSentData discards recorded outbound bytes.
func (f *Fake) ClearSentData() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = f.sent[:0]
}

// SetRecvError makes every subsequent Recv fail with err.
func (f *Fake) SetRecvError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recvErr = err
}

// SetSendError makes every subsequent SendAll fail with err.
func (f *Fake) SetSendError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

// SetCloseError makes Close return err instead of nil.
func (f *Fake) SetCloseError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeErr = err
}

// PollReadable reports whether inbox has unread bytes, or the transport
// has been closed (so the caller's next Recv observes the close).
func (f *Fake) PollReadable(ms int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inbox) > 0 || f.closed
}

// Recv copies from the front of inbox into buf.
func (f *Fake) Recv(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.recvErr != nil {
		return 0, f.recvErr
	}
	if len(f.inbox) == 0 {
		if f.closed {
			return 0, doorerr.ErrTransportClosed
		}
		return 0, nil
	}
	n := copy(buf, f.inbox)
	f.inbox = f.inbox[n:]
	return n, nil
}

// SendAll appends buf to the recorded sent bytes.
func (f *Fake) SendAll(buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	if f.closed {
		return doorerr.ErrTransportClosed
	}
	f.sent = append(f.sent, buf...)
	return nil
}

// Close marks the fake closed.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

// RemoteAddr always returns "fake".
func (f *Fake) RemoteAddr() string { return "fake" }
