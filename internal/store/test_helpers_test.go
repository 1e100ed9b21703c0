package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/schema"
)

func loadModel(t *testing.T) *meta.Model {
	t.Helper()
	model, err := schema.Load("../../testdata/models/library.yaml")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	return model
}

// createTestStore creates a file-backed store for the library model.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), path, loadModel(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newRecord creates a record of typ with plain values.
func newRecord(t *testing.T, model *meta.Model, typ string, values map[string]any) *entity.Record {
	t.Helper()
	em, err := model.Entity(typ)
	if err != nil {
		t.Fatalf("Entity(%s) failed: %v", typ, err)
	}
	return entity.New(em, values)
}

// seedLibrary inserts two authors, three books, two tags and three ratings:
//
//	book 1 "Dune"        author 1, tags scifi+classic, rated by alice and bob
//	book 2 "Neuromancer" author 2, tags scifi, rated by alice
//	book 3 "Untitled"    no author, no tags
func seedLibrary(t *testing.T, s *Store) {
	t.Helper()
	m := s.Model()

	doe := newRecord(t, m, "Author", map[string]any{"id": 1, "lastName": "Doe"})
	smith := newRecord(t, m, "Author", map[string]any{"id": 2, "lastName": "Smith"})
	scifi := newRecord(t, m, "Tag", map[string]any{"id": 1, "name": "scifi"})
	classic := newRecord(t, m, "Tag", map[string]any{"id": 2, "name": "classic"})

	dune := newRecord(t, m, "Book", map[string]any{"id": 1, "title": "Dune", "price": 9.5})
	dune.Set("author", doe)
	dune.Append("tags", scifi)
	dune.Append("tags", classic)

	neuromancer := newRecord(t, m, "Book", map[string]any{"id": 2, "title": "Neuromancer", "price": 12.0})
	neuromancer.Set("author", smith)
	neuromancer.Append("tags", scifi)

	untitled := newRecord(t, m, "Book", map[string]any{"id": 3})

	rating := func(book *entity.Record, reader string, score int) *entity.Record {
		r := newRecord(t, m, "Rating", map[string]any{"reader": reader, "score": score})
		r.Set("book", book)
		return r
	}

	// Ratings go first: rows reference books by key only.
	err := s.Insert(context.Background(),
		rating(dune, "alice", 5),
		rating(dune, "bob", 3),
		rating(neuromancer, "alice", 4),
		dune, neuromancer, untitled,
		doe, smith, scifi, classic,
	)
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
}
