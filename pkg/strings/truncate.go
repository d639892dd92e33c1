package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the default maximum length for descriptions
// in formatted output. Shared so tables truncate consistently.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the smallest accepted maxLen. Anything shorter has no
// room for content plus "...".
const MinTruncateLen = 4

// TruncateDescription truncates a string to maxLen characters and ensures
// single-line output: newlines and repeated whitespace collapse to single
// spaces, and "..." marks the cut.
//
// Truncation counts runes, not bytes, so multi-byte characters are never
// split.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
