package whatsapp

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessageShort(t *testing.T) {
	parts := splitMessage("hello", 100)
	if len(parts) != 1 || parts[0] != "hello" {
		t.Errorf("parts = %q", parts)
	}
}

func TestSplitMessagePrefersBoundaries(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph\n\nthird paragraph"
	parts := splitMessage(text, 20)

	for i, p := range parts {
		if len(p) > 20 {
			t.Errorf("part %d is %d bytes, over the limit", i, len(p))
		}
		if strings.HasPrefix(p, " ") || strings.HasPrefix(p, "\n") {
			t.Errorf("part %d starts with whitespace: %q", i, p)
		}
	}

	joined := strings.Join(parts, " ")
	for _, word := range []string{"first", "second", "third", "paragraph"} {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q lost in splitting", word)
		}
	}
}

func TestSplitMessageHardCut(t *testing.T) {
	// A single unbroken run longer than the limit still gets split.
	text := strings.Repeat("x", 45)
	parts := splitMessage(text, 20)
	if len(parts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(parts))
	}
	total := 0
	for i, p := range parts {
		if len(p) > 20 {
			t.Errorf("part %d is %d bytes, over the limit", i, len(p))
		}
		total += len(p)
	}
	if total != 45 {
		t.Errorf("total bytes = %d, want 45", total)
	}
}

func TestSplitMessageHardCutRuneBoundary(t *testing.T) {
	// Arabic letters are two bytes each; an odd limit with no spaces
	// would otherwise slice through the middle of a rune.
	text := strings.Repeat("م", 30)
	parts := splitMessage(text, 21)
	if len(parts) < 2 {
		t.Fatalf("len(parts) = %d, want at least 2", len(parts))
	}
	for i, p := range parts {
		if len(p) > 21 {
			t.Errorf("part %d is %d bytes, over the limit", i, len(p))
		}
		if !utf8.ValidString(p) {
			t.Errorf("part %d is not valid UTF-8: %q", i, p)
		}
	}
	if joined := strings.Join(parts, ""); joined != text {
		t.Errorf("hard cut dropped bytes: got %d, want %d", len(joined), len(text))
	}
}
