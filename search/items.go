package search

import (
	"math/big"
	"sort"

	"github.com/poiesic/sift/core"
)

// Options describes a single search over a collection.
type Options[T any] struct {
	// Text is the raw query. Empty text disables filtering.
	Text string
	// Mode selects keyword combination. Empty means greedy, or the
	// Searcher's configured default.
	Mode core.Mode
	// Fields declares the searchable parts of each item. When nil, fields
	// are derived with ResolveFields.
	Fields FieldsProvider[T]
}

// Result is a ranked item together with how it matched.
type Result[T any] struct {
	Item  T
	Index int      // Position in the input collection
	Score *big.Int // Signature from Score
	Hits  []Hit
	// Fields are the fields the item was searched on, in index order.
	Fields []core.Field
}

// Items filters and orders items against opts.Text. Items whose signatures
// tie keep their input order. When opts is nil or the query has no
// keywords, items is returned unchanged.
func Items[T any](items []T, opts *Options[T]) []T {
	keywords, active := queryKeywords(opts)
	if !active {
		return items
	}
	return unwrap(rankSequential(items, keywords, opts.Mode, opts.Fields))
}

// Rank is like Items but keeps match details. When the query is inactive
// every item is returned in input order with a zero score.
func Rank[T any](items []T, opts *Options[T]) []Result[T] {
	keywords, active := queryKeywords(opts)
	if !active {
		return passThrough(items)
	}
	return rankSequential(items, keywords, opts.Mode, opts.Fields)
}

func queryKeywords[T any](opts *Options[T]) ([]string, bool) {
	if opts == nil || opts.Text == "" {
		return nil, false
	}
	keywords := Keywords(opts.Text)
	return keywords, len(keywords) > 0
}

func rankSequential[T any](items []T, keywords []string, mode core.Mode, provider FieldsProvider[T]) []Result[T] {
	slots := make([]*Result[T], len(items))
	for i, item := range items {
		slots[i] = evaluate(i, item, keywords, mode, provider)
	}
	return collect(slots)
}

// evaluate is the per-item map step: resolve, match and score.
func evaluate[T any](index int, item T, keywords []string, mode core.Mode, provider FieldsProvider[T]) *Result[T] {
	fields := ResolveFields(item, provider)
	m := MatchItem(item, keywords, fields, mode)
	if m == nil || !m.Matched {
		return nil
	}
	return &Result[T]{
		Item:   item,
		Index:  index,
		Score:  Score(m),
		Hits:   m.Hits,
		Fields: m.Fields,
	}
}

// collect drops rejected slots and stable-sorts by descending score.
func collect[T any](slots []*Result[T]) []Result[T] {
	results := make([]Result[T], 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score.Cmp(results[j].Score) > 0
	})
	return results
}

func unwrap[T any](results []Result[T]) []T {
	out := make([]T, len(results))
	for i, r := range results {
		out[i] = r.Item
	}
	return out
}

func passThrough[T any](items []T) []Result[T] {
	results := make([]Result[T], len(items))
	for i, item := range items {
		results[i] = Result[T]{Item: item, Index: i, Score: new(big.Int)}
	}
	return results
}
