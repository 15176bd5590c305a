// WebSocket server-side handshake: HTTP/1.1 upgrade parsing, the
// RFC-6455 (v7/8/13) Sec-WebSocket-Accept digest, and the Hixie-76
// draft-0 MD5 challenge-response. The v13 path hijacks the HTTP
// upgrade and computes SHA1+base64 over Key+GUID; the draft-0 path
// computes each key's number with big-integer division rather than
// int32 truncation, matching RFC 6455 §9's worked description.
package framer

import (
	"bufio"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/doorkit/doorcore/doorerr"
)

const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// wsHeaders holds the subset of the upgrade request the handshake needs.
type wsHeaders struct {
	Path        string
	Host        string
	Origin      string
	Key         string
	Key1        string
	Key2        string
	SubProtocol string
	Connection  string
	Upgrade     string
	Version     string
}

// parseWebSocketUpgrade reads an HTTP/1.1 upgrade request line-by-line
// from r and returns its recognized headers. It assumes whatever data
// it needs is already buffered; the per-line handshake deadline is
// enforced by WebSocket.negotiateHandshake across the calls that feed
// this buffer.
func parseWebSocketUpgrade(r *bufio.Reader) (*wsHeaders, error) {
	h := &wsHeaders{Version: "0"}

	requestLine, err := r.ReadString('\n')
	if err != nil {
		return nil, doorerr.Wrap(doorerr.CodeHandshakeFailed, "websocket: read request line", err)
	}
	requestLine = strings.TrimRight(requestLine, "\r\n")
	parts := strings.Fields(requestLine)
	if len(parts) < 2 || parts[0] != "GET" {
		return nil, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: expected GET request line").WithContext("line", requestLine)
	}
	h.Path = parts[1]

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, doorerr.Wrap(doorerr.CodeHandshakeFailed, "websocket: read header line", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		val := strings.TrimSpace(line[colon+1:])
		switch strings.ToLower(key) {
		case "host":
			h.Host = val
		case "origin", "sec-websocket-origin":
			h.Origin = val
		case "sec-websocket-key":
			h.Key = val
		case "sec-websocket-key1":
			h.Key1 = val
		case "sec-websocket-key2":
			h.Key2 = val
		case "sec-websocket-protocol":
			h.SubProtocol = val
		case "sec-websocket-version":
			h.Version = val
		case "sec-websocket-draft":
			if h.Version == "" || h.Version == "0" {
				h.Version = val
			}
		case "connection":
			h.Connection = val
		case "upgrade":
			h.Upgrade = val
		}
	}
	return h, nil
}

// acceptKeyV13 computes the Sec-WebSocket-Accept digest for RFC-6455
// versions 7, 8, and 13.
func acceptKeyV13(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// keyNumber extracts the digits from a Hixie-76 key field and divides
// by the count of spaces in the field, per RFC 6455 §9. Uses
// arbitrary-precision division rather than int32 arithmetic so a key
// whose digit run exceeds 2^32 still produces the value the RFC's
// reference algorithm intends.
func keyNumber(key string) (uint32, error) {
	var digits strings.Builder
	spaces := 0
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == ' ':
			spaces++
		}
	}
	if spaces == 0 || digits.Len() == 0 {
		return 0, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: malformed draft-0 key").WithContext("key", key)
	}

	n := new(big.Int)
	if _, ok := n.SetString(digits.String(), 10); !ok {
		return 0, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: non-numeric key digits").WithContext("key", key)
	}
	n.Div(n, big.NewInt(int64(spaces)))
	if !n.IsUint64() || n.Uint64() > 0xFFFFFFFF {
		return 0, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: key number overflows 32 bits").WithContext("key", key)
	}
	return uint32(n.Uint64()), nil
}

// draft0Digest computes the 16-byte Hixie-76 handshake response.
func draft0Digest(key1, key2 string, body8 []byte) ([]byte, error) {
	n1, err := keyNumber(key1)
	if err != nil {
		return nil, err
	}
	n2, err := keyNumber(key2)
	if err != nil {
		return nil, err
	}
	if len(body8) != 8 {
		return nil, doorerr.New(doorerr.CodeHandshakeFailed, "websocket: draft-0 body must be 8 bytes")
	}

	var buf [16]byte
	binary.BigEndian.PutUint32(buf[0:4], n1)
	binary.BigEndian.PutUint32(buf[4:8], n2)
	copy(buf[8:16], body8)

	sum := md5.Sum(buf[:])
	return sum[:], nil
}

// buildAcceptResponseV13 renders the RFC-6455 101 response.
func buildAcceptResponseV13(h *wsHeaders) []byte {
	digest := acceptKeyV13(h.Key)
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Accept: " + digest + "\r\n")
	if h.SubProtocol != "" {
		b.WriteString("Sec-WebSocket-Protocol: " + h.SubProtocol + "\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// buildAcceptResponseDraft0 renders the Hixie-76 101 response, header
// followed by the 16-byte MD5 digest (no trailing CRLF after it).
func buildAcceptResponseDraft0(h *wsHeaders, digest []byte) []byte {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 WebSocket Protocol Handshake\r\n")
	b.WriteString("Upgrade: WebSocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString(fmt.Sprintf("Sec-WebSocket-Location: ws://%s%s\r\n", h.Host, h.Path))
	if h.Origin != "" {
		b.WriteString("Sec-WebSocket-Origin: " + h.Origin + "\r\n")
	}
	b.WriteString("\r\n")
	out := []byte(b.String())
	out = append(out, digest...)
	return out
}

func parseVersion(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
