package extract

import (
	"strings"
	"unicode"
)

// CleanText normalizes raw decoder output into the text handed to the
// analysis stage: LF line endings, single spaces inside lines, at most one
// blank line between paragraphs, no control characters besides newline and
// tab, no leading/trailing whitespace.
func CleanText(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	// Collapse runs of spaces and tabs without touching newlines.
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	s = strings.Join(lines, "\n")

	// 3+ consecutive newlines become exactly two, keeping paragraph breaks.
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(s)
}

// WordCount counts whitespace-delimited non-empty tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
