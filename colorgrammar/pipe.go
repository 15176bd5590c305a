// Package colorgrammar expands the two inline color grammars door
// output text uses in place of raw escape codes: the Renegade/pipe
// `|XX` form and the LORD backtick form. A pure string-transform
// library, same texture as package ansi.
package colorgrammar

import (
	"strings"

	"github.com/doorkit/doorcore/ansi"
)

// ExpandPipe replaces every `|XX` (two hex digits) substring of s with
// the SGR sequence for color attribute 0xXX. A `|` not followed by two
// hex digits is passed through unchanged.
func ExpandPipe(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '|' && i+2 < len(s) && isHexDigit(s[i+1]) && isHexDigit(s[i+2]) {
			code := hexVal(s[i+1])<<4 | hexVal(s[i+2])
			b.WriteString(ansi.ColorForANSIAttribute(byte(code)))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	default:
		return int(b-'A') + 10
	}
}
