package events

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var quoteReplacer = strings.NewReplacer("`", "'", "‘", "'", "’", "'", "´", "'")

// decoration matches punctuation and symbol runes: quotes, "!", and the
// ○ ◎ ☆ ♪ marks the game appends to titles and skill names.
var decoration = runes.Predicate(func(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
})

// Normalize turns an event title or skill name into its lookup key.
// Bracketed text stays in place; only the brackets themselves go.
func Normalize(s string) string {
	s = quoteReplacer.Replace(s)
	t := transform.Chain(norm.NFKC, runes.Map(bracketToSpace), runes.Remove(decoration), cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// bracketToSpace keeps "Summer(Year 2)" from gluing into one token.
func bracketToSpace(r rune) rune {
	switch r {
	case '(', ')', '[', ']', '{', '}', '「', '」', '【', '】':
		return ' '
	}
	return r
}
