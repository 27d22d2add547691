package validation

import (
	"strings"
	"unicode"
)

// SanitizeQuery strips control characters from a search query and caps it at
// maxLen runes. A non-positive maxLen disables the cap. Case and surrounding
// whitespace are left alone; normalization happens in the search layer.
func SanitizeQuery(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))
	n := 0
	for _, r := range input {
		if unicode.IsControl(r) {
			continue
		}
		if maxLen > 0 && n >= maxLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
