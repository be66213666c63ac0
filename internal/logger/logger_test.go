package logger

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	t.Run("ShortStringUnchanged", func(t *testing.T) {
		if got := truncate("ne pas dépasser", 200); got != "ne pas dépasser" {
			t.Errorf("Short string altered: %q", got)
		}
	})

	t.Run("CutOnRuneBoundary", func(t *testing.T) {
		// "é" is two bytes; every cut point must still yield valid UTF-8.
		s := strings.Repeat("paracétamol ñetti bés ", 20)
		for n := 1; n < len(s); n++ {
			got := truncate(s, n)
			if len(got) > n {
				t.Fatalf("truncate(%d) returned %d bytes", n, len(got))
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncate(%d) split a rune: %q", n, got)
			}
			if !strings.HasPrefix(s, got) {
				t.Fatalf("truncate(%d) is not a prefix: %q", n, got)
			}
		}
	})

	t.Run("ExactBoundaryKept", func(t *testing.T) {
		if got := truncate("abcdef", 6); got != "abcdef" {
			t.Errorf("Exact-length string altered: %q", got)
		}
	})
}
