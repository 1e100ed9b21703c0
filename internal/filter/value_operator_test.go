package filter

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, s sq.Sqlizer) (string, []any) {
	t.Helper()
	sql, args, err := s.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestArrayEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		target any
		source any
		want   bool
	}{
		{name: "equal", op: OpEqual, target: "Dune", source: "Dune", want: true},
		{name: "equal numbers across kinds", op: OpEqual, target: int64(10), source: float64(10), want: true},
		{name: "equal null", op: OpEqual, target: nil, source: nil, want: true},
		{name: "equal value against null", op: OpEqual, target: "Dune", source: nil},
		{name: "in list", op: OpEqual, target: []any{"a", "b"}, source: "b", want: true},
		{name: "in empty list", op: OpEqual, target: []any{}, source: "a"},
		{name: "not equal", op: OpNotEqual, target: "Dune", source: "Emma", want: true},
		{name: "not equal null source", op: OpNotEqual, target: "Dune", source: nil, want: true},
		{name: "not in list", op: OpNotEqual, target: []any{"a"}, source: "b", want: true},
		{name: "not in empty list", op: OpNotEqual, target: []any{}, source: "a", want: true},
		{name: "greater", op: OpGreater, target: int64(5), source: int64(6), want: true},
		{name: "greater equal", op: OpGreaterOrEqual, target: int64(5), source: int64(5), want: true},
		{name: "less", op: OpLess, target: "b", source: "a", want: true},
		{name: "less equal", op: OpLessOrEqual, target: int64(5), source: int64(6)},
		{name: "ordering with null", op: OpGreater, target: nil, source: int64(6)},
		{name: "ordering null source", op: OpLess, target: int64(5), source: nil},
		{name: "ordering mixed kinds", op: OpLess, target: "5", source: int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := arrayEvaluate(tt.op, tt.target, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQbEqual(t *testing.T) {
	single := &ColumnReference{Column: "book.title"}
	composite := &ColumnReference{Columns: []string{"rating.book_id", "rating.reader"}}

	tests := []struct {
		name    string
		ref     *ColumnReference
		dialect Dialect
		v       any
		sql     string
		args    []any
	}{
		{name: "scalar", ref: single, v: "Dune", sql: "book.title = ?", args: []any{"Dune"}},
		{name: "null", ref: single, v: nil, sql: "book.title IS NULL"},
		{name: "list", ref: single, v: []any{"a", "b"}, sql: "book.title IN (?,?)", args: []any{"a", "b"}},
		{name: "empty list", ref: single, v: []any{}, sql: "1=0"},
		{name: "list with null", ref: single, v: []any{"a", nil}, sql: "(book.title IN (?) OR book.title IS NULL)", args: []any{"a"}},
		{name: "list of null", ref: single, v: []any{nil}, sql: "book.title IS NULL"},
		{
			name: "composite list with null", ref: composite, dialect: DialectSQLite,
			v:    []any{[]any{int64(1), "alice"}, nil},
			sql:  "((rating.book_id, rating.reader) IN (VALUES (?, ?)) OR (rating.book_id IS NULL AND rating.reader IS NULL))",
			args: []any{int64(1), "alice"},
		},
		{name: "composite partial tuple", ref: composite, dialect: DialectSQLite, v: []any{[]any{int64(1), nil}}, sql: "1=0"},
		{name: "composite null", ref: composite, v: nil, sql: "(rating.book_id IS NULL AND rating.reader IS NULL)"},
		{
			name: "composite sqlite", ref: composite, dialect: DialectSQLite,
			v:    []any{[]any{int64(1), "alice"}, []any{int64(2), "bob"}},
			sql:  "(rating.book_id, rating.reader) IN (VALUES (?, ?), (?, ?))",
			args: []any{int64(1), "alice", int64(2), "bob"},
		},
		{
			name: "composite mysql", ref: composite, dialect: DialectMySQL,
			v:    []any{[]any{int64(1), "alice"}},
			sql:  "(rating.book_id, rating.reader) IN ((?, ?))",
			args: []any{int64(1), "alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := qbEqual(tt.dialect, tt.ref, tt.v)
			require.NoError(t, err)
			sql, args := render(t, pred)
			assert.Equal(t, tt.sql, sql)
			if tt.args != nil {
				assert.Equal(t, tt.args, args)
			} else {
				assert.Empty(t, args)
			}
		})
	}
}

func TestQbEqual_CompositeErrors(t *testing.T) {
	composite := &ColumnReference{Columns: []string{"rating.book_id", "rating.reader"}}

	_, err := qbEqual(DialectSQLite, composite, "alice")
	assert.True(t, HasCode(err, ErrCodeInvalidArgument))

	_, err = qbEqual(DialectSQLite, composite, []any{[]any{int64(1)}})
	assert.True(t, HasCode(err, ErrCodeInvalidArgument))
}

func TestQbNotEqual(t *testing.T) {
	single := &ColumnReference{Column: "book.title"}
	composite := &ColumnReference{Columns: []string{"rating.book_id", "rating.reader"}}

	tests := []struct {
		name string
		ref  *ColumnReference
		v    any
		sql  string
	}{
		{name: "scalar keeps nulls", ref: single, v: "Dune", sql: "(book.title <> ? OR book.title IS NULL)"},
		{name: "null", ref: single, v: nil, sql: "book.title IS NOT NULL"},
		{name: "list keeps nulls", ref: single, v: []any{"a", "b"}, sql: "(book.title NOT IN (?,?) OR book.title IS NULL)"},
		{name: "empty list", ref: single, v: []any{}, sql: "1=1"},
		{name: "list with null drops nulls", ref: single, v: []any{"a", nil}, sql: "(book.title NOT IN (?) AND book.title IS NOT NULL)"},
		{name: "list of null", ref: single, v: []any{nil}, sql: "book.title IS NOT NULL"},
		{
			name: "composite list with null", ref: composite, v: []any{[]any{int64(1), "alice"}, nil},
			sql: "((rating.book_id, rating.reader) NOT IN (VALUES (?, ?)) AND (rating.book_id IS NOT NULL AND rating.reader IS NOT NULL))",
		},
		{name: "composite partial tuple", ref: composite, v: []any{[]any{int64(1), nil}}, sql: "1=1"},
		{name: "composite null", ref: composite, v: nil, sql: "(rating.book_id IS NOT NULL AND rating.reader IS NOT NULL)"},
		{
			name: "composite list", ref: composite, v: []any{[]any{int64(1), "alice"}},
			sql: "((rating.book_id, rating.reader) NOT IN (VALUES (?, ?)) OR rating.book_id IS NULL)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := qbNotEqual(DialectSQLite, tt.ref, tt.v)
			require.NoError(t, err)
			sql, _ := render(t, pred)
			assert.Equal(t, tt.sql, sql)
		})
	}
}

func TestQbOther(t *testing.T) {
	single := &ColumnReference{Column: "book.price"}

	tests := []struct {
		op  string
		v   any
		sql string
	}{
		{op: OpGreater, v: int64(10), sql: "book.price > ?"},
		{op: OpGreaterOrEqual, v: int64(10), sql: "book.price >= ?"},
		{op: OpLess, v: int64(10), sql: "book.price < ?"},
		{op: OpLessOrEqual, v: int64(10), sql: "book.price <= ?"},
		{op: OpLess, v: nil, sql: "1=0"},
		{op: OpLess, v: []any{int64(1)}, sql: "1=0"},
	}

	for _, tt := range tests {
		t.Run(tt.op+"_"+tt.sql, func(t *testing.T) {
			pred, err := qbOther(tt.op, single, tt.v)
			require.NoError(t, err)
			sql, _ := render(t, pred)
			assert.Equal(t, tt.sql, sql)
		})
	}

	composite := &ColumnReference{Columns: []string{"a.x", "a.y"}}
	pred, err := qbOther(OpGreater, composite, []any{int64(1), int64(2)})
	require.NoError(t, err)
	sql, _ := render(t, pred)
	assert.Equal(t, "1=0", sql)
}

func TestWrapTuple(t *testing.T) {
	assert.Equal(t, []any{[]any{int64(1), "a"}}, WrapTuple([]any{int64(1), "a"}))
	assert.Equal(t, []any{[]any{int64(1), "a"}}, WrapTuple([]any{[]any{int64(1), "a"}}))
	assert.Equal(t, []any{}, WrapTuple([]any{}))
	assert.Nil(t, WrapTuple(nil))
	assert.Equal(t, "a", WrapTuple("a"))
}

func TestColumnReference_Guarded(t *testing.T) {
	ref := &ColumnReference{Column: "tags.name"}
	pred := sq.Eq{"tags.name": "scifi"}
	assert.Equal(t, pred, ref.Guarded(pred))

	ref.Guards = []sq.Sqlizer{sq.NotEq{"tags.id": nil}}
	sql, args := render(t, ref.Guarded(pred))
	assert.Equal(t, "(tags.id IS NOT NULL AND tags.name = ?)", sql)
	assert.Equal(t, []any{"scifi"}, args)
}

func TestColumnReference_String(t *testing.T) {
	assert.Equal(t, "book.title", (&ColumnReference{Column: "book.title"}).String())
	assert.Equal(t, "(a.x, a.y)", (&ColumnReference{Columns: []string{"a.x", "a.y"}}).String())
}

func TestValueArgs(t *testing.T) {
	op, path, literal, err := valueArgs([]any{OpLess, "price", 10})
	require.NoError(t, err)
	assert.Equal(t, OpLess, op)
	assert.Equal(t, "price", path)
	assert.Equal(t, 10, literal)

	_, _, _, err = valueArgs([]any{OpLess, "price"})
	assert.True(t, HasCode(err, ErrCodeArity))

	_, _, _, err = valueArgs([]any{"~", "price", 1})
	assert.True(t, HasCode(err, ErrCodeInvalidArgument))

	_, _, _, err = valueArgs([]any{OpEqual, 3, 1})
	assert.True(t, HasCode(err, ErrCodeInvalidArgument))
}
