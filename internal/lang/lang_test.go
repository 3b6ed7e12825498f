package lang

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"english", "hello, what are your opening hours?", Default},
		{"empty", "", Default},
		{"numbers and punctuation", "12:30 - 18:00!", Default},
		{"arabic greeting", "مرحبا", Arabic},
		{"arabic sentence", "ما هي ساعات العمل؟", Arabic},
		{"mixed scripts", "hello مرحبا", Arabic},
		{"single arabic rune", "x ع x", Arabic},
		{"presentation forms", "ﺍﺎ", Arabic},
		{"latin with diacritics", "café naïve", Default},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsGreeting(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"hi there", true},
		{"Hello!", true},
		{"good morning", true},
		{"مرحبا", true},
		{"السلام عليكم", true},
		{"can you send the price list", true},
		{"ممكن السعر", true},
		{"what time do you open", false},
		{"order #1234 status", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsGreeting(tt.text); got != tt.want {
				t.Errorf("IsGreeting(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatWhatsApp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold stars", "this is **bold** text", "this is *bold* text"},
		{"bold underscores", "this is __bold__ text", "this is *bold* text"},
		{"bold italic stars", "this is ***bold italic*** text", "this is *bold italic* text"},
		{"bold italic underscores", "this is ___bold italic___ text", "this is *bold italic* text"},
		{"bold italic next to bold", "***a*** and **b**", "*a* and *b*"},
		{"strikethrough", "~~gone~~", "~gone~"},
		{"header", "## Opening Hours\nMon-Fri 9-5", "*Opening Hours*\nMon-Fri 9-5"},
		{"link", "see [our menu](https://example.com/menu)", "see our menu (https://example.com/menu)"},
		{"image stripped", "![logo](https://example.com/logo.png)", "https://example.com/logo.png"},
		{"html stripped", "hello <b>world</b>", "hello world"},
		{"blank lines collapsed", "a\n\n\n\nb", "a\n\nb"},
		{"plain text untouched", "nothing special here", "nothing special here"},
		{"single star pair kept", "already *bold* here", "already *bold* here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in, DialectWhatsApp); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatStrayEmphasis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing stray after punctuation", "welcome!*", "welcome!"},
		{"stray against arabic", "مرحبا*", "مرحبا"},
		{"leading stray", "* welcome", " welcome"},
		{"paired markers kept", "*bold* and *more*", "*bold* and *more*"},
		{"stray inside prose kept", "3*4 is 12", "3*4 is 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.in, DialectWeb)
			// Web formatting only trims strays and outer space.
			if got != trimOuter(tt.want) {
				t.Errorf("Format(%q) = %q, want %q", tt.in, got, trimOuter(tt.want))
			}
		})
	}
}

func trimOuter(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\n') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\n') {
		s = s[:len(s)-1]
	}
	return s
}

func TestFormatIdempotent(t *testing.T) {
	inputs := []string{
		"this is **bold** text",
		"***bold italic***",
		"___bold italic___",
		"***a*** next to **b** and *c*",
		"## Header\nwith *emphasis* and a stray*",
		"مرحبا **أهلا** وسهلا*",
		"[link](https://example.com) and ~~strike~~",
		"plain",
		"",
		"a * b * c",
		"odd count here*",
	}

	for _, dialect := range []Dialect{DialectWhatsApp, DialectTelegram, DialectWeb} {
		for _, in := range inputs {
			once := Format(in, dialect)
			twice := Format(once, dialect)
			if once != twice {
				t.Errorf("Format not idempotent for %q (%s):\n once=%q\ntwice=%q",
					in, dialect, once, twice)
			}
		}
	}
}
