// Package ansi is a pure helper library for the ANSI/VT100 cursor and
// SGR (Select Graphic Rendition) escape sequences the door layer's
// status bar, banners, and pipe/backtick color grammars emit. These
// are simple stateless string builders.
package ansi

import "strconv"

const esc = "\x1b["

// CursorPosition returns the CSI sequence moving the cursor to a
// 1-based column/row.
func CursorPosition(col, row int) string {
	return esc + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "H"
}

// SGR returns the CSI sequence applying a single Select Graphic
// Rendition code (e.g. 31 for red foreground, 0 to reset).
func SGR(attr int) string {
	return esc + strconv.Itoa(attr) + "m"
}

// ClearScreen returns the CSI sequence clearing the screen and homing
// the cursor.
func ClearScreen() string {
	return esc + "2J" + esc + "H"
}

// ClearLine returns the CSI sequence erasing the current line.
func ClearLine() string {
	return esc + "2K"
}

// CursorUp/Down/Forward/Back return the CSI sequence moving the cursor
// n cells in the given direction.
func CursorUp(n int) string      { return esc + strconv.Itoa(n) + "A" }
func CursorDown(n int) string    { return esc + strconv.Itoa(n) + "B" }
func CursorForward(n int) string { return esc + strconv.Itoa(n) + "C" }
func CursorBack(n int) string    { return esc + strconv.Itoa(n) + "D" }

// ColorForANSIAttribute maps a pipe-code attribute byte (0x00-0xFF, as
// used by the |XX color grammar) to the SGR sequence that renders it.
// Values 0-15 are treated as a foreground color in the standard 16-color
// palette (8-15 bold); anything else resets to SGR 0, matching the
// door convention that undefined pipe codes simply clear attributes.
func ColorForANSIAttribute(code byte) string {
	if code > 15 {
		return SGR(0)
	}
	fg := 30 + int(code&0x07)
	if code&0x08 != 0 {
		return esc + "1;" + strconv.Itoa(fg) + "m"
	}
	return esc + "0;" + strconv.Itoa(fg) + "m"
}
