package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/schema"
	"github.com/roach88/relfilter/internal/store"
)

// field is a Book property path with the literals drawn against it.
type field struct {
	path string
	pool []any
}

var (
	bookFields = []field{
		{path: "title", pool: []any{"Dune", "Emma", "Zed"}},
		{path: "price", pool: []any{7, 9.5, 10, 12.0}},
		{path: "publishedAt", pool: []any{"2019-12-31", "2020-01-01T00:00:00Z", "2020-06-15"}},
		{path: "author", pool: []any{1, 2, 3}},
		{path: "author->lastName", pool: []any{"Doe", "Smith"}},
	}
	tagField = field{path: "tags->name", pool: []any{"scifi", "drama", "poetry"}}
)

// drawFixtures draws a small library: authors and tags with optional
// names, books with optional scalars, an optional author and any tag set.
func drawFixtures(t *rapid.T) []Fixture {
	var fixtures []Fixture

	authors := rapid.IntRange(0, 3).Draw(t, "authors")
	for i := 1; i <= authors; i++ {
		values := map[string]any{"id": i}
		if rapid.Bool().Draw(t, fmt.Sprintf("author-%d-named", i)) {
			values["lastName"] = rapid.SampledFrom([]string{"Doe", "Smith"}).Draw(t, fmt.Sprintf("author-%d-name", i))
		}
		fixtures = append(fixtures, Fixture{Type: "Author", Values: values})
	}

	tags := rapid.IntRange(0, 3).Draw(t, "tags")
	for i := 1; i <= tags; i++ {
		values := map[string]any{"id": i}
		if rapid.Bool().Draw(t, fmt.Sprintf("tag-%d-named", i)) {
			values["name"] = rapid.SampledFrom([]string{"scifi", "drama"}).Draw(t, fmt.Sprintf("tag-%d-name", i))
		}
		fixtures = append(fixtures, Fixture{Type: "Tag", Values: values})
	}

	books := rapid.IntRange(1, 5).Draw(t, "books")
	for i := 1; i <= books; i++ {
		label := fmt.Sprintf("book-%d", i)
		values := map[string]any{"id": i}
		if rapid.Bool().Draw(t, label+"-titled") {
			values["title"] = rapid.SampledFrom([]string{"Dune", "Emma"}).Draw(t, label+"-title")
		}
		if rapid.Bool().Draw(t, label+"-priced") {
			values["price"] = rapid.SampledFrom([]float64{7, 9.5, 12}).Draw(t, label+"-price")
		}
		if rapid.Bool().Draw(t, label+"-published") {
			values["publishedAt"] = rapid.SampledFrom([]string{"2019-12-31", "2020-01-01T00:00:00Z", "2020-06-15"}).Draw(t, label+"-published-at")
		}
		if authors > 0 && rapid.Bool().Draw(t, label+"-has-author") {
			values["author"] = rapid.IntRange(1, authors).Draw(t, label+"-author")
		}
		var bookTags []any
		for j := 1; j <= tags; j++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("%s-tag-%d", label, j)) {
				bookTags = append(bookTags, j)
			}
		}
		if bookTags != nil {
			values["tags"] = bookTags
		}
		fixtures = append(fixtures, Fixture{Type: "Book", Values: values})
	}
	return fixtures
}

// drawLiteral draws a scalar from the pool, nil, or a list that may hold
// nil and may be empty.
func drawLiteral(t *rapid.T, f field, label string) any {
	member := rapid.SampledFrom(append([]any{nil}, f.pool...))
	switch rapid.IntRange(0, 2).Draw(t, label+"-kind") {
	case 0:
		return rapid.SampledFrom(f.pool).Draw(t, label+"-scalar")
	case 1:
		return nil
	}
	n := rapid.IntRange(0, 3).Draw(t, label+"-len")
	list := make([]any, n)
	for i := range list {
		list[i] = member.Draw(t, fmt.Sprintf("%s-%d", label, i))
	}
	return list
}

func drawCondition(t *rapid.T, f field, label string) (string, any) {
	op := rapid.SampledFrom(filter.Operators).Draw(t, label+"-op")
	key := f.path
	if op != filter.OpEqual {
		key += op
	}
	return key, drawLiteral(t, f, label)
}

// drawConditions draws a condition map over Book. Paths through tags
// appear in at most one top-level conjunct: separate conjuncts over the
// same to-many path share one join in SQL.
func drawConditions(t *rapid.T) map[string]any {
	conds := make(map[string]any)
	for i, f := range bookFields {
		if rapid.Bool().Draw(t, fmt.Sprintf("use-%d", i)) {
			key, v := drawCondition(t, f, f.path)
			conds[key] = v
		}
	}

	switch rapid.IntRange(0, 2).Draw(t, "tags-mode") {
	case 1:
		key, v := drawCondition(t, tagField, "tags")
		conds[key] = v
	case 2:
		all := append([]field{tagField}, bookFields...)
		branches := make([]any, 2)
		for i := range branches {
			f := rapid.SampledFrom(all).Draw(t, fmt.Sprintf("or-%d-field", i))
			key, v := drawCondition(t, f, fmt.Sprintf("or-%d", i))
			branches[i] = map[string]any{key: v}
		}
		conds["OR"] = branches
	}
	return conds
}

func newPropertyHarness(ctx context.Context, t require.TestingT, model *meta.Model, fixtures []Fixture) *Harness {
	graph, err := BuildGraph(model, fixtures)
	require.NoError(t, err)

	st, err := store.Open(ctx, ":memory:", model)
	require.NoError(t, err)
	require.NoError(t, st.Insert(ctx, graph.All()...))

	return &Harness{
		model:    model,
		graph:    graph,
		store:    st,
		registry: filter.NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestProperty_BackendsAgree(t *testing.T) {
	ctx := context.Background()
	model, err := schema.Load("../../testdata/models/library.yaml")
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		h := newPropertyHarness(ctx, rt, model, drawFixtures(rt))
		defer h.store.Close()

		for i := 0; i < 5; i++ {
			conds := drawConditions(rt)
			var call *filter.Call
			if len(conds) > 0 {
				c, err := filter.Conditions(conds)
				require.NoError(rt, err)
				call = &c
			}

			mem, err := h.memoryIDs("Book", call, nil)
			require.NoError(rt, err, "memory: %v", conds)
			sql, err := h.store.Find(ctx, "Book", h.registry, call, nil)
			require.NoError(rt, err, "sql: %v", conds)

			query, args, _ := h.compile("Book", call, nil)
			require.True(rt, sameIDs(mem, sql, false),
				"conditions %v: memory %v, sql %v\n%s %v", conds, mem, sql, query, args)
		}
	})
}
