package text

import "strings"

// Normalize trims the input and collapses every whitespace run into one space.
// No other transformation is applied.
func Normalize(raw string) string {
	// strings.Fields splits on unicode.IsSpace runs and drops the edges.
	return strings.Join(strings.Fields(raw), " ")
}

// IsBlank reports whether s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
