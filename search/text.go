package search

import (
	"strings"
	"unicode"
)

// Keywords splits query text on whitespace and hyphens. Empty pieces are
// dropped, so "  foo--bar " yields ["foo", "bar"]. A plain split would keep
// them as empty keywords, which match every non-exact field and count toward
// the keyword total in greedy mode: "foo  bar" and "foo-" then behave
// differently, and "   " filters instead of passing items through. Here
// those queries are equivalent to "foo bar", "foo" and "".
func Keywords(text string) []string {
	return strings.FieldsFunc(strings.TrimSpace(text), func(r rune) bool {
		return r == '-' || unicode.IsSpace(r)
	})
}

// containsFold reports whether keyword occurs in text, ignoring case.
// Both arguments must already be lower-cased.
func containsFold(loweredText, loweredKeyword string) bool {
	return strings.Contains(loweredText, loweredKeyword)
}

// equalFold compares text and keyword ignoring case and surrounding whitespace.
func equalFold(text, keyword string) bool {
	return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(keyword))
}
