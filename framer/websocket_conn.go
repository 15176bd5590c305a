// WebSocket ties the handshake (websocket.go) and frame codec
// (websocket_frame.go) together behind the Framer interface, buffering
// whatever a caller hands NegotiateInbound across calls so a header or
// a frame split across two Transport.Recv calls still parses correctly.
// One struct owns both the handshake state and the frame-loop state,
// driven synchronously one NegotiateInbound call at a time rather than
// from a background read loop.
package framer

import (
	"bufio"
	"bytes"
	"time"

	"github.com/doorkit/doorcore/doorerr"
)

type wsHandshakePhase int

const (
	wsAwaitingHeaders wsHandshakePhase = iota
	wsAwaitingDraft0Body
	wsDone
)

// websocketHandshakeTimeout bounds how long each line of the upgrade
// request (and the draft-0 body after it) may take to arrive before the
// handshake is abandoned. The bound is checked whenever more handshake
// bytes arrive.
const websocketHandshakeTimeout = 5 * time.Second

// WebSocket implements the Framer interface for draft-0 and RFC-6455
// (v7/8/13) connections.
type WebSocket struct {
	// ShakeRequired is false when the host already performed the HTTP
	// upgrade before handing the door the socket; in that case the
	// Framer starts in the frame-loop directly.
	ShakeRequired bool
	DefaultVersion int

	complete bool
	version  int
	headers  *wsHeaders

	hsBuf    bytes.Buffer
	hsPhase  wsHandshakePhase
	hsStart  time.Time

	leftover []byte
}

// NewWebSocketServer returns a WebSocket Framer. When shakeRequired is
// false the Framer is immediately ready for frame traffic at
// defaultVersion (13 unless the caller has reason to pick another).
func NewWebSocketServer(shakeRequired bool, defaultVersion int) *WebSocket {
	w := &WebSocket{ShakeRequired: shakeRequired, DefaultVersion: defaultVersion}
	if !shakeRequired {
		w.complete = true
		w.version = defaultVersion
	}
	return w
}

func (w *WebSocket) HandshakeComplete() bool { return w.complete }

// Version reports the negotiated protocol version (0 for Hixie-76, or
// 7/8/13), valid once HandshakeComplete is true.
func (w *WebSocket) Version() int { return w.version }

func (w *WebSocket) NegotiateInbound(raw []byte, out *[]byte) ([]byte, error) {
	if !w.complete {
		return w.negotiateHandshake(raw, out)
	}
	return w.negotiateFrames(raw, out)
}

func (w *WebSocket) negotiateHandshake(raw []byte, out *[]byte) ([]byte, error) {
	if w.hsStart.IsZero() {
		w.hsStart = time.Now()
	} else if time.Since(w.hsStart) > websocketHandshakeTimeout {
		return nil, doorerr.Wrap(doorerr.CodeTimeout, "websocket: handshake timed out waiting for headers", doorerr.ErrTimeout)
	}
	if bytes.IndexByte(raw, '\n') >= 0 {
		w.hsStart = time.Now() // a line completed; the next one gets a fresh timeout
	}

	w.hsBuf.Write(raw)

	if w.headers == nil {
		data := w.hsBuf.Bytes()
		idx := bytes.Index(data, []byte("\r\n\r\n"))
		if idx < 0 {
			return nil, nil // headers not fully buffered yet
		}
		headerBlock := append([]byte(nil), data[:idx+4]...)
		rest := append([]byte(nil), data[idx+4:]...)

		h, err := parseWebSocketUpgrade(bufio.NewReader(bytes.NewReader(headerBlock)))
		if err != nil {
			return nil, err
		}
		w.headers = h
		w.hsBuf.Reset()
		w.hsBuf.Write(rest)

		version, _ := parseVersion(h.Version)
		w.version = version
		if version == 0 && h.Key1 != "" && h.Key2 != "" {
			w.hsPhase = wsAwaitingDraft0Body
		} else {
			return w.finishV13Handshake(h, out)
		}
	}

	if w.hsPhase == wsAwaitingDraft0Body {
		if w.hsBuf.Len() < 8 {
			return nil, nil
		}
		body := w.hsBuf.Bytes()[:8]
		rest := append([]byte(nil), w.hsBuf.Bytes()[8:]...)

		digest, err := draft0Digest(w.headers.Key1, w.headers.Key2, body)
		if err != nil {
			return nil, err
		}
		reply := buildAcceptResponseDraft0(w.headers, digest)
		w.complete = true
		w.hsPhase = wsDone
		w.hsBuf.Reset()

		return w.negotiateFramesAfterReply(rest, out, reply)
	}

	return nil, nil
}

func (w *WebSocket) finishV13Handshake(h *wsHeaders, out *[]byte) ([]byte, error) {
	if h.Key == "" || h.Host == "" || h.Path == "" {
		return nil, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: missing required header for v7/8/13 handshake")
	}
	reply := buildAcceptResponseV13(h)
	w.complete = true
	w.hsPhase = wsDone

	rest := append([]byte(nil), w.hsBuf.Bytes()...)
	w.hsBuf.Reset()
	return w.negotiateFramesAfterReply(rest, out, reply)
}

func (w *WebSocket) negotiateFramesAfterReply(rest []byte, out *[]byte, reply []byte) ([]byte, error) {
	if len(rest) > 0 {
		frameReply, err := w.negotiateFrames(rest, out)
		if err != nil {
			return reply, err
		}
		reply = append(reply, frameReply...)
	}
	return reply, nil
}

func (w *WebSocket) negotiateFrames(raw []byte, out *[]byte) ([]byte, error) {
	w.leftover = append(w.leftover, raw...)
	var reply []byte

	for {
		if w.version == 0 {
			payload, consumed, ok := tryDecodeFrameDraft0(w.leftover)
			if !ok {
				break
			}
			*out = append(*out, payload...)
			w.leftover = w.leftover[consumed:]
			continue
		}

		payload, opcode, consumed, ok, err := tryDecodeFrameV13(w.leftover)
		if err != nil {
			return reply, err
		}
		if !ok {
			break
		}
		w.leftover = w.leftover[consumed:]

		switch opcode {
		case opText, opContinuation:
			*out = append(*out, decodeISO88591FromUTF8(payload)...)
		case opPing:
			reply = append(reply, encodeFrameV13(payload, opPong)...)
		case opPong:
			// no action required
		case opClose:
			return reply, doorerr.ErrTransportClosed
		}
	}

	return reply, nil
}

func (w *WebSocket) NegotiateOutbound(app []byte) ([]byte, error) {
	if !w.complete {
		return nil, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: write before handshake complete")
	}
	if w.version == 0 {
		return encodeFrameDraft0(app), nil
	}
	return encodeFrameV13(app, opText), nil
}
