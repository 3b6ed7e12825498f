package lang

import "strings"

// BuildInstruction shapes the system instruction for one exchange: the base
// persona plus a language directive matching the detected input language, a
// no-greeting directive unless the inbound message itself greeted, and an
// emphasis suppression directive for Arabic replies (the Arabic rendering
// path strips emphasis markup anyway).
func BuildInstruction(base string, detected Language, greeted bool) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))

	if detected == Arabic {
		b.WriteString("\n\nReply in Arabic: the customer wrote in Arabic.")
		b.WriteString("\nDo not use bold, italics, or other emphasis markup in Arabic replies.")
	} else {
		b.WriteString("\n\nReply in the same language the customer wrote in.")
	}

	if !greeted {
		b.WriteString("\nDo not greet the customer unless they greeted you first; answer directly.")
	}

	return b.String()
}
