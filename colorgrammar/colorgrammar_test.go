package colorgrammar

import (
	"testing"

	"github.com/doorkit/doorcore/ansi"
)

func TestExpandPipeReplacesHexCode(t *testing.T) {
	got := ExpandPipe("hi |09there")
	want := "hi " + ansi.ColorForANSIAttribute(0x09) + "there"
	if got != want {
		t.Fatalf("ExpandPipe() = %q, want %q", got, want)
	}
}

func TestExpandPipeLeavesMalformedEscapeAlone(t *testing.T) {
	got := ExpandPipe("a|b")
	if got != "a|b" {
		t.Fatalf("ExpandPipe() = %q, want %q (not two hex digits)", got, "a|b")
	}
}

func TestExpandBacktickLiteral(t *testing.T) {
	if got := ExpandBacktick("a``b"); got != "a`b" {
		t.Fatalf("ExpandBacktick() = %q, want %q", got, "a`b")
	}
}

func TestExpandBacktickForegroundDigit(t *testing.T) {
	got := ExpandBacktick("x`1y")
	want := "x" + ansi.ColorForANSIAttribute(0x01) + "y"
	if got != want {
		t.Fatalf("ExpandBacktick() = %q, want %q", got, want)
	}
}

func TestExpandBacktickBackground(t *testing.T) {
	got := ExpandBacktick("`r3")
	if got != "\x1b[43m" {
		t.Fatalf("ExpandBacktick() = %q, want %q", got, "\x1b[43m")
	}
}

func TestExpandBacktickReset(t *testing.T) {
	got := ExpandBacktick("`!")
	if got != ansi.SGR(0) {
		t.Fatalf("ExpandBacktick() = %q, want reset", got)
	}
}
