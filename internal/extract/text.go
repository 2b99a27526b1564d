package extract

import (
	"strings"
	"unicode"
)

var typographic = strings.NewReplacer(
	"–", "-", "—", "-",
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
	"…", "...",
)

// ASCII folds typographic punctuation to ASCII, drops any other non-ASCII
// rune and collapses whitespace. Search results are passed through it.
func ASCII(s string) string {
	s = typographic.Replace(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}
