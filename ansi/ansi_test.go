package ansi

import "testing"

func TestCursorPosition(t *testing.T) {
	if got := CursorPosition(5, 10); got != "\x1b[10;5H" {
		t.Fatalf("CursorPosition() = %q, want %q", got, "\x1b[10;5H")
	}
}

func TestSGR(t *testing.T) {
	if got := SGR(31); got != "\x1b[31m" {
		t.Fatalf("SGR() = %q, want %q", got, "\x1b[31m")
	}
}

func TestColorForANSIAttributeBoldAndPlain(t *testing.T) {
	if got := ColorForANSIAttribute(0x01); got != "\x1b[0;31m" {
		t.Fatalf("ColorForANSIAttribute(0x01) = %q, want %q", got, "\x1b[0;31m")
	}
	if got := ColorForANSIAttribute(0x09); got != "\x1b[1;31m" {
		t.Fatalf("ColorForANSIAttribute(0x09) = %q, want %q", got, "\x1b[1;31m")
	}
	if got := ColorForANSIAttribute(0xFF); got != SGR(0) {
		t.Fatalf("ColorForANSIAttribute(0xFF) = %q, want reset", got)
	}
}
