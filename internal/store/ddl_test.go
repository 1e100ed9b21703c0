package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relfilter/internal/meta"
)

func TestCreateStatements_Library(t *testing.T) {
	stmts, err := CreateStatements(loadModel(t))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS author (first_name TEXT, id INTEGER, last_name TEXT, PRIMARY KEY (id))",
		"CREATE TABLE IF NOT EXISTS book (author_id INTEGER, id INTEGER, price REAL, published_at INTEGER, title TEXT, PRIMARY KEY (id))",
		"CREATE TABLE IF NOT EXISTS rating (book_id INTEGER, reader TEXT, score INTEGER, PRIMARY KEY (book_id, reader))",
		"CREATE TABLE IF NOT EXISTS tag (id INTEGER, name TEXT, PRIMARY KEY (id))",
		"CREATE TABLE IF NOT EXISTS book_tag (book_id INTEGER, tag_id INTEGER, PRIMARY KEY (book_id, tag_id))",
	}, stmts)
}

func TestCreateStatements_Overrides(t *testing.T) {
	model, err := meta.NewModel(map[string]meta.EntityDefinition{
		"Post": {
			Table: "posts",
			Properties: map[string]meta.PropertyDefinition{
				"id":    {Type: meta.TypeUUID, Primary: true},
				"title": {Type: meta.TypeString, Column: "headline"},
				"labels": {Relationship: &meta.RelationshipDefinition{
					Target:      "Label",
					Cardinality: meta.ManyHasMany,
					Main:        true,
					Junction:    &meta.Junction{Table: "post_labels", InColumn: "post", OutColumn: "label"},
				}},
			},
		},
		"Label": {
			Properties: map[string]meta.PropertyDefinition{
				"code":   {Type: meta.TypeString, Primary: true},
				"active": {Type: meta.TypeBool},
			},
		},
	})
	require.NoError(t, err)

	stmts, err := CreateStatements(model)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS label (active INTEGER, code TEXT, PRIMARY KEY (code))",
		"CREATE TABLE IF NOT EXISTS posts (id TEXT, headline TEXT, PRIMARY KEY (id))",
		"CREATE TABLE IF NOT EXISTS post_labels (post TEXT, label TEXT, PRIMARY KEY (post, label))",
	}, stmts)
}

func TestSqlType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{meta.TypeInt, "INTEGER"},
		{meta.TypeBool, "INTEGER"},
		{meta.TypeDateTime, "INTEGER"},
		{meta.TypeFloat, "REAL"},
		{meta.TypeString, "TEXT"},
		{meta.TypeUUID, "TEXT"},
		{"", "INTEGER"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlType(tt.in))
		})
	}
}
