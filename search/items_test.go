package search

import (
	"testing"

	"github.com/poiesic/sift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItems_PassThrough(t *testing.T) {
	items := []string{"banana split", "apple pie", "apple tart"}

	tests := []struct {
		name string
		opts *Options[string]
	}{
		{name: "nil options", opts: nil},
		{name: "empty options", opts: &Options[string]{}},
		{name: "empty text", opts: &Options[string]{Text: "", Mode: core.ModeFuzzy}},
		{name: "separators only", opts: &Options[string]{Text: " - "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Items(items, tt.opts)
			assert.Equal(t, items, got)
			require.NotEmpty(t, got)
			assert.Same(t, &items[0], &got[0], "pass-through must return the input slice")
		})
	}
}

func TestItems_ScenarioStrings(t *testing.T) {
	items := []string{"apple pie", "banana split", "apple tart"}

	got := Items(items, &Options[string]{Text: "apple"})
	assert.Equal(t, []string{"apple pie", "apple tart"}, got)
}

func TestItems_ScenarioMapExcludesID(t *testing.T) {
	items := []map[string]any{
		{"name": "Alice", "id": "u1"},
		{"name": "Bob", "id": "alice"},
	}

	got := Items(items, &Options[map[string]any]{Text: "alice"})
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0]["name"])
}

func TestItems_ScenarioEagleVersusGreedy(t *testing.T) {
	items := []string{"foo baz"}
	provider := ComputedTexts(func(s string) []string { return []string{s} })

	eagle := Items(items, &Options[string]{Text: "foo baz", Mode: core.ModeEagle, Fields: provider})
	assert.Equal(t, items, eagle)

	greedy := Items(items, &Options[string]{Text: "foo baz", Mode: core.ModeGreedy, Fields: provider})
	assert.Empty(t, greedy)
}

func TestItems_OrdersByScore(t *testing.T) {
	type recipe struct {
		Title string
		Notes string
	}
	items := []recipe{
		{Title: "Tart", Notes: "uses apple"},
		{Title: "Apple pie", Notes: "classic"},
		{Title: "Apple", Notes: "fruit"},
	}

	provider := Computed(func(r recipe) []core.Field {
		return []core.Field{{Text: r.Title, Entirely: true}, {Text: r.Title}, {Text: r.Notes}}
	})
	got := Items(items, &Options[recipe]{Text: "apple", Fields: provider})

	require.Len(t, got, 3)
	assert.Equal(t, "Apple", got[0].Title, "exact title match first")
	assert.Equal(t, "Apple pie", got[1].Title, "partial title match before notes")
	assert.Equal(t, "Tart", got[2].Title)
}

func TestItems_StableForEqualScores(t *testing.T) {
	items := []string{"b apple", "a apple", "c apple", "apple d"}

	got := Items(items, &Options[string]{Text: "apple"})
	assert.Equal(t, items, got)
}

func TestItems_Deterministic(t *testing.T) {
	items := []map[string]any{
		{"title": "Foo Bar", "kind": "widget"},
		{"title": "Bar", "kind": "foo"},
		{"title": "baz", "kind": "qux"},
		{"title": "foo", "kind": "bar"},
	}
	opts := &Options[map[string]any]{Text: "foo bar", Mode: core.ModeFuzzy}

	first := Items(items, opts)
	second := Items(items, opts)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestItems_ProviderWithNoFieldsExcludesItem(t *testing.T) {
	items := []string{"apple", "apricot"}
	provider := ComputedTexts(func(s string) []string {
		if s == "apple" {
			return nil
		}
		return []string{s}
	})

	got := Items(items, &Options[string]{Text: "ap", Fields: provider})
	assert.Equal(t, []string{"apricot"}, got)
}

func TestItems_UnsupportedShapesNeverMatch(t *testing.T) {
	items := []any{true, []int{1}, "true"}

	got := Items(items, &Options[any]{Text: "true"})
	assert.Equal(t, []any{"true"}, got)
}

func TestRank(t *testing.T) {
	items := []string{"banana", "apple pie", "apple"}

	results := Rank(items, &Options[string]{
		Text:   "apple",
		Fields: Computed(func(s string) []core.Field { return []core.Field{{Text: s, Entirely: true}, {Text: s}} }),
	})
	require.Len(t, results, 2)

	assert.Equal(t, "apple", results[0].Item)
	assert.Equal(t, 2, results[0].Index)
	assert.Len(t, results[0].Hits, 2)
	assert.Equal(t, 1, results[0].Score.Cmp(results[1].Score))

	assert.Equal(t, "apple pie", results[1].Item)
	assert.Equal(t, 1, results[1].Index)
	require.Len(t, results[1].Hits, 1)
	assert.Equal(t, 1, results[1].Hits[0].FieldIndex)

	passed := Rank(items, nil)
	require.Len(t, passed, 3)
	for i, r := range passed {
		assert.Equal(t, items[i], r.Item)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, 0, r.Score.Sign())
	}
}
