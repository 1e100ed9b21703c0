package querysql

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relfilter/internal/filter"
)

func TestBuilder_Defaults(t *testing.T) {
	b := NewBuilder("book", "", "")
	assert.Equal(t, "book", b.FromAlias())
	assert.Equal(t, filter.DialectSQLite, b.Dialect())

	sql, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT book.* FROM book AS book", sql)
	assert.Empty(t, args)
}

func TestBuilder_LeftJoinDeduplicates(t *testing.T) {
	b := NewBuilder("book", "book", filter.DialectSQLite)

	first := b.LeftJoin("book", "author", "author", "book.author_id = author.id")
	second := b.LeftJoin("book", "author", "author", "book.author_id = author.id")
	assert.Equal(t, "author", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, b.Joins())
}

func TestBuilder_LeftJoinRenamesTakenAlias(t *testing.T) {
	b := NewBuilder("book", "book", filter.DialectSQLite)

	alias := b.LeftJoin("author", "book", "book", "author.id = book.author_id")
	assert.Equal(t, "book_1", alias)

	again := b.LeftJoin("author", "book", "book", "author.id = book.author_id")
	assert.Equal(t, "book_1", again, "repeated request maps to the renamed join")

	other := b.LeftJoin("tag", "book", "book", "tag.book_id = book.id")
	assert.Equal(t, "book_2", other)

	assert.Equal(t,
		"SELECT book.* FROM book AS book LEFT JOIN book AS book_1 ON author.id = book_1.author_id LEFT JOIN book AS book_2 ON tag.book_id = book_2.id",
		b.String())
}

func TestRenameTarget(t *testing.T) {
	tests := []struct {
		on   string
		want string
	}{
		{on: "book.id = book.author_id", want: "book.id = book_1.author_id"},
		{on: "tags.id = book.tag_id", want: "tags.id = book_1.tag_id"},
		{on: "ebook.id = book.id", want: "ebook.id = book_1.id"},
		{on: "x.id = ebook.id", want: "x.id = ebook.id"},
	}
	for _, tt := range tests {
		t.Run(tt.on, func(t *testing.T) {
			assert.Equal(t, tt.want, renameTarget(tt.on, "book", "book_1"))
		})
	}
}

func TestBuilder_Alias(t *testing.T) {
	b := NewBuilder("book", "book", filter.DialectSQLite)
	assert.Equal(t, "book_tag", b.Alias("book_tag"))
	assert.Equal(t, "book_tag", b.Alias("main.book_tag"))
	assert.Equal(t, "book_tag", b.Alias("db.main.book_tag"))
	assert.Equal(t, "_join1", b.Alias(`"book tag"`))
	assert.Equal(t, "_join2", b.Alias("book-tag"))
}

func TestBuilder_Clauses(t *testing.T) {
	b := NewBuilder("book", "b", filter.DialectSQLite)
	b.Columns("b.id")
	b.AndWhere(sq.Eq{"b.title": "Dune"})
	b.AndWhere(sq.Lt{"b.price": 10})
	assert.False(t, b.HasGroupBy())
	b.GroupBy("b.id")
	assert.True(t, b.HasGroupBy())
	b.OrderBy("b.title ASC", "b.id ASC")

	sql, args, err := b.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT b.id FROM book AS b WHERE b.title = ? AND b.price < ? GROUP BY b.id ORDER BY b.title ASC, b.id ASC", sql)
	assert.Equal(t, []any{"Dune", 10}, args)
}

func TestBuilder_Placeholders(t *testing.T) {
	tests := []struct {
		dialect filter.Dialect
		want    string
	}{
		{dialect: filter.DialectSQLite, want: "SELECT book.* FROM book AS book WHERE book.title = ? AND book.price < ?"},
		{dialect: filter.DialectMySQL, want: "SELECT book.* FROM book AS book WHERE book.title = ? AND book.price < ?"},
		{dialect: filter.DialectPostgres, want: "SELECT book.* FROM book AS book WHERE book.title = $1 AND book.price < $2"},
	}
	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			b := NewBuilder("book", "book", tt.dialect)
			b.AndWhere(sq.Eq{"book.title": "Dune"})
			b.AndWhere(sq.Lt{"book.price": 10})
			assert.Equal(t, tt.want, b.String())
		})
	}
}
