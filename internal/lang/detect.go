// Package lang provides language detection, instruction shaping, and
// channel-dialect output formatting.
package lang

import "strings"

// Language is the detected input language class.
type Language string

const (
	// Default is the system's default reply language (English).
	Default Language = "default"
	// Arabic is the alternate language, discriminated by script.
	Arabic Language = "arabic"
)

// Detect classifies text by a lightweight script-range heuristic: the
// presence of any Arabic-block rune implies Arabic, else Default.
func Detect(text string) Language {
	for _, r := range text {
		if isArabicRune(r) {
			return Arabic
		}
	}
	return Default
}

func isArabicRune(r rune) bool {
	return (r >= 0x0600 && r <= 0x06FF) || // Arabic
		(r >= 0x0750 && r <= 0x077F) || // Arabic Supplement
		(r >= 0xFE70 && r <= 0xFEFF) // Arabic Presentation Forms-B
}

// greetingTokens start a message that counts as a greeting.
var greetingTokens = []string{
	"hi", "hello", "hey", "good morning", "good afternoon", "good evening",
	"salam", "assalam", "مرحبا", "أهلا", "اهلا", "هلا", "السلام", "سلام",
	"صباح", "مساء",
}

// helpTokens anywhere in a message count as asking for help.
var helpTokens = []string{
	"help", "can you", "مساعدة", "ساعدني", "ممكن",
}

// IsGreeting reports whether the message begins with a greeting token or
// contains help-seeking vocabulary. Used to decide whether the model may
// greet back.
func IsGreeting(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	for _, tok := range greetingTokens {
		if strings.HasPrefix(lower, tok) {
			return true
		}
	}
	for _, tok := range helpTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
