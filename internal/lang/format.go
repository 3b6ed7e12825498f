package lang

import (
	"regexp"
	"strings"
)

// Dialect selects the target channel's markup rules.
type Dialect string

const (
	DialectWhatsApp Dialect = "whatsapp"
	DialectTelegram Dialect = "telegram"
	DialectWeb      Dialect = "web"
)

var (
	// Markdown bold+italic ***text*** / ___text___ -> single-asterisk bold
	boldItalicStarPattern  = regexp.MustCompile(`\*{3}(.+?)\*{3}`)
	boldItalicUnderPattern = regexp.MustCompile(`_{3}(.+?)_{3}`)

	// Markdown bold **text** / __text__ -> single-asterisk bold
	boldStarPattern  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	boldUnderPattern = regexp.MustCompile(`__(.+?)__`)

	// Markdown strikethrough ~~text~~ -> ~text~
	strikePattern = regexp.MustCompile("~~(.+?)~~")

	// Markdown headers ## text -> bold line
	headerPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)

	// Markdown links [text](url) -> text (url)
	linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	// Markdown image syntax ![alt](url) -> just the URL
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)

	// HTML tags (strip them)
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
)

// Format rewrites generic markdown emphasis into the target channel's own
// markup, trims stray markers, and collapses markup that failed to pair.
/// Idempotent: Format(Format(x, d), d) == Format(x, d).
func Format(raw string, dialect Dialect) string {
	if raw == "" {
		return ""
	}

	switch dialect {
	case DialectWhatsApp, DialectTelegram:
		return formatSingleStar(raw)
	default:
		// The widget renders markdown itself; only clean up broken pairs.
		return strings.TrimSpace(trimStrayEmphasis(raw))
	}
}

// formatSingleStar converts markdown to the single-asterisk markup family
// shared by WhatsApp and Telegram (legacy Markdown mode): *bold*, _italic_,
// ~strike~, `code` and ```blocks``` pass through natively.
func formatSingleStar(markdown string) string {
	text := markdown

	// Strip images first (before link processing)
	text = imagePattern.ReplaceAllString(text, "$2")

	// Convert markdown links [text](url) -> text (url)
	text = linkPattern.ReplaceAllString(text, "$1 ($2)")

	// Convert headers to bold (no header concept in chat markup)
	text = headerPattern.ReplaceAllString(text, "*$1*")

	// Convert ***bold italic*** before the ** pass: the lazy ** match
	// would otherwise consume one star per pass and change the text on
	// every re-format.
	text = boldItalicStarPattern.ReplaceAllString(text, "*$1*")
	text = boldItalicUnderPattern.ReplaceAllString(text, "*$1*")

	// Convert **bold** and __bold__ to *bold*
	text = boldStarPattern.ReplaceAllString(text, "*$1*")
	text = boldUnderPattern.ReplaceAllString(text, "*$1*")

	// Convert ~~strikethrough~~ to ~strikethrough~
	text = strikePattern.ReplaceAllString(text, "~$1~")

	// Strip any HTML tags
	text = htmlTagPattern.ReplaceAllString(text, "")

	text = trimStrayEmphasis(text)

	// Clean up excessive blank lines
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(text)
}

// trimStrayEmphasis removes, per line, an unpaired emphasis marker that sits
// against punctuation or Arabic script. A line with an even marker count is
// left alone, which is what makes the pass idempotent: once a stray is
// dropped the count is even and later passes skip the line.
func trimStrayEmphasis(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Count(line, "*")%2 == 0 {
			continue
		}
		if idx := strayMarkerIndex(line); idx >= 0 {
			lines[i] = line[:idx] + line[idx+1:]
		}
	}
	return strings.Join(lines, "\n")
}

// strayMarkerIndex finds the last '*' in line whose neighbour is punctuation,
// Arabic script, or a line edge. Returns -1 if every marker looks like it
// belongs to prose.
func strayMarkerIndex(line string) int {
	runes := []rune(line)
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] != '*' {
			continue
		}
		prevOK := i == 0 || isStrayNeighbor(runes[i-1])
		nextOK := i == len(runes)-1 || isStrayNeighbor(runes[i+1])
		if prevOK || nextOK {
			// Convert rune index back to byte index.
			return len(string(runes[:i]))
		}
	}
	return -1
}

func isStrayNeighbor(r rune) bool {
	if isArabicRune(r) {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ':', ';', '،', '؟', '۔', ' ':
		return true
	}
	return false
}
