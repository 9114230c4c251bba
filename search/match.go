package search

import (
	"strings"

	"github.com/poiesic/sift/core"
)

// Hit records one keyword matching one field.
type Hit struct {
	Field        core.Field
	FieldIndex   int // Index into Match.Fields
	KeywordIndex int
	Keyword      string
	Exact        bool // Matched by whole-value equality on an Entirely field
}

// Match is the outcome of evaluating one item against a query.
type Match[T any] struct {
	Item    T
	Matched bool
	Fields  []core.Field // Every field the item was searched on
	Hits    []Hit        // Ordered by keyword, then field
}

// MatchItem evaluates keywords against the item's fields under mode.
// It returns nil when the item is rejected.
//
// Every keyword is tested against every field and all matching pairs are
// recorded. Eagle and greedy reject the item as soon as one keyword matches
// nothing; fuzzy only needs one pair. Greedy additionally rejects items
// whose matched fields, across all keywords, are fewer than the keywords.
// That check counts distinct fields rather than solving an assignment, so
// it can accept overlapping patterns that have no one-to-one pairing.
func MatchItem[T any](item T, keywords []string, fields []core.Field, mode core.Mode) *Match[T] {
	mode = mode.OrDefault()
	requireAll := mode == core.ModeEagle || mode == core.ModeGreedy

	if len(fields) == 0 || len(keywords) == 0 {
		return nil
	}
	m := &Match[T]{
		Item:   item,
		Fields: fields,
	}

	lowered := make([]string, len(fields))
	for i, f := range fields {
		if !f.Entirely {
			lowered[i] = strings.ToLower(f.Text)
		}
	}

	matchedFields := make(map[int]struct{}, len(fields))
	for k, keyword := range keywords {
		loweredKeyword := strings.ToLower(keyword)
		keywordMatched := false

		for i, f := range fields {
			var ok bool
			if f.Entirely {
				ok = equalFold(f.Text, keyword)
			} else {
				ok = containsFold(lowered[i], loweredKeyword)
			}
			if !ok {
				continue
			}

			keywordMatched = true
			matchedFields[i] = struct{}{}
			m.Matched = true
			m.Hits = append(m.Hits, Hit{
				Field:        f,
				FieldIndex:   i,
				KeywordIndex: k,
				Keyword:      keyword,
				Exact:        f.Entirely,
			})
		}

		if requireAll && !keywordMatched {
			return nil
		}
	}

	if !m.Matched {
		return nil
	}
	if mode == core.ModeGreedy && len(matchedFields) < len(keywords) {
		return nil
	}
	return m
}
