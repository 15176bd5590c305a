// The LORD (Legend of the Red Dragon) backtick grammar: digit and
// letter codes for foreground color, `rN for background, `! to reset,
// and `` for a literal backtick. The exact code-to-color table below is
// this package's own documented choice — see DESIGN.md.
package colorgrammar

import (
	"strings"

	"github.com/doorkit/doorcore/ansi"
)

// foregroundCodes maps the digit codes '1'-'9','0' to a pipe-style
// attribute byte, reusing ansi.ColorForANSIAttribute's palette.
var foregroundCodes = map[byte]byte{
	'1': 0x01, '2': 0x02, '3': 0x03, '4': 0x04,
	'5': 0x05, '6': 0x06, '7': 0x07, '8': 0x08,
	'9': 0x09, '0': 0x0A,
}

// namedForeground maps the letter codes to a fixed foreground color.
var namedForeground = map[byte]byte{
	'k': 0x00, // black
	'b': 0x04, // blue
	'c': 0x06, // cyan
	'w': 0x0F, // bright white
	'l': 0x07, // light gray
	'd': 0x08, // dark gray
}

// backgroundSGR maps the digit of `r0-`r7 to a background SGR sequence.
func backgroundSGR(digit byte) (string, bool) {
	if digit < '0' || digit > '7' {
		return "", false
	}
	return "\x1b[4" + string(digit) + "m", true
}

// ExpandBacktick replaces LORD-style backtick escapes in s with their
// ANSI equivalents:
//
//	`1-`9,`0   foreground color
//	`k `b `c `w `l `d   named foreground color
//	`r0-`r7    background color
//	`!         clear/reset attributes
//	`*         one-line pause prompt marker, passed through literally
//	``         literal backtick
//
// Unrecognized escapes are passed through unchanged (backtick plus the
// following byte), matching the pipe grammar's tolerance of malformed
// input.
func ExpandBacktick(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '`' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		next := s[i+1]

		switch {
		case next == '`':
			b.WriteByte('`')
			i++
		case next == '!':
			b.WriteString(ansi.SGR(0))
			i++
		case next == 'r' && i+2 < len(s):
			if seq, ok := backgroundSGR(s[i+2]); ok {
				b.WriteString(seq)
				i += 2
			} else {
				b.WriteByte(s[i])
			}
		case foregroundCodes[next] != 0:
			b.WriteString(ansi.ColorForANSIAttribute(foregroundCodes[next]))
			i++
		case namedForeground[next] != 0 || next == 'k':
			b.WriteString(ansi.ColorForANSIAttribute(namedForeground[next]))
			i++
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
