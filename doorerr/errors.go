// Package doorerr defines the error taxonomy shared by every layer of the
// connection core: transport, framer, connection, and dropfile loading.
package doorerr

import "fmt"

// Sentinel errors. Compare with errors.Is; wrap with fmt.Errorf("...: %w", ...)
// when additional context is useful.
var (
	// ErrTransportClosed means the peer closed or reset the connection.
	// Pending reads return a zero value, pending writes are no-ops.
	ErrTransportClosed = fmt.Errorf("door: transport closed")

	// ErrTimeout means a read deadline elapsed before data arrived.
	// Non-fatal; callers may retry.
	ErrTimeout = fmt.Errorf("door: read timed out")

	// ErrHandshakeFailed means a Framer's handshake could not complete
	// (missing header, unknown protocol version, malformed key).
	ErrHandshakeFailed = fmt.Errorf("door: handshake failed")

	// ErrMalformedFrame means a Framer saw a wire structure it cannot
	// parse (bad WebSocket length/mask state). Treated as ErrTransportClosed
	// by callers.
	ErrMalformedFrame = fmt.Errorf("door: malformed frame")

	// ErrDropfileMissing means the dropfile named on the command line never
	// appeared within the startup grace period.
	ErrDropfileMissing = fmt.Errorf("door: dropfile missing")

	// ErrDropfileMalformed means the dropfile exists but does not have the
	// expected number of lines or fields for its format.
	ErrDropfileMalformed = fmt.Errorf("door: dropfile malformed")
)

// Code classifies an Error for callers that want to switch on it without
// string matching.
type Code int

const (
	CodeUnknown Code = iota
	CodeTransportClosed
	CodeTimeout
	CodeHandshakeFailed
	CodeMalformedFrame
	CodeDropfileMissing
	CodeDropfileMalformed
	CodeFatalIO
)

// Error is a structured error carrying a Code and optional diagnostic
// Context, for sites that need more than a sentinel to compare against.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
	Wrapped error
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		if e.Wrapped != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
		}
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an Error around an underlying error, tagging it with code.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Wrapped: err}
}

// WithContext attaches a diagnostic key/value and returns the same Error
// for chaining at the call site.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
