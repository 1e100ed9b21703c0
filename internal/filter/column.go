package filter

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/value"
)

// ColumnReference is a property path resolved to storage columns.
type ColumnReference struct {
	// Column is the qualified column ("alias.column"). Empty when Columns
	// is set.
	Column string

	// Columns holds the qualified columns of a composite primary key.
	Columns []string

	Property   *meta.Property
	Entity     *meta.Entity
	Reflection meta.StorageReflection

	// Guards exclude rows that LEFT JOIN null-extended for empty to-many
	// collections. Comparisons on the column must be ANDed with them.
	Guards []sq.Sqlizer
}

// IsComposite reports whether the reference spans several columns.
func (c *ColumnReference) IsComposite() bool {
	return len(c.Columns) > 0
}

// String renders the column expression.
func (c *ColumnReference) String() string {
	if c.IsComposite() {
		return "(" + strings.Join(c.Columns, ", ") + ")"
	}
	return c.Column
}

// NormalizeValue converts a filter literal to its stored form: sequences
// are materialized, entities become primary values, timestamps become Unix
// seconds and the storage reflection converts what remains. A single tuple
// against a composite key is wrapped into a list of tuples.
func (c *ColumnReference) NormalizeValue(raw any) (any, error) {
	v, err := value.Normalize(raw, c.Property)
	if err != nil {
		return nil, NewInvalidArgumentError("%s: %v", c.Property.Name, err)
	}

	converted := c.Reflection.ConvertEntityToStorage(map[string]any{c.Property.Name: v})
	for _, cv := range converted {
		v = cv
	}

	if c.IsComposite() {
		v = WrapTuple(v)
	}
	return v, nil
}

// Guarded ANDs pred with the reference's guards.
func (c *ColumnReference) Guarded(pred sq.Sqlizer) sq.Sqlizer {
	if len(c.Guards) == 0 {
		return pred
	}
	parts := make(sq.And, 0, len(c.Guards)+1)
	parts = append(parts, c.Guards...)
	return append(parts, pred)
}

// WrapTuple turns a single composite key value [a, b] into [[a, b]]. Lists
// of tuples and empty lists are returned unchanged.
func WrapTuple(v any) any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return v
	}
	if _, nested := list[0].([]any); nested {
		return v
	}
	return []any{list}
}

// tupleIn builds a row-value membership test. SQLite only accepts a
// subquery on the right of a row-value IN, so it gets a VALUES list.
func tupleIn(d Dialect, columns []string, tuples []any, negate bool) (sq.Sqlizer, error) {
	rows := make([]string, 0, len(tuples))
	args := make([]any, 0, len(tuples)*len(columns))
	for _, t := range tuples {
		tuple, ok := t.([]any)
		if !ok || len(tuple) != len(columns) {
			return nil, NewInvalidArgumentError("composite key value %v must have %d components", t, len(columns))
		}
		rows = append(rows, "("+strings.TrimSuffix(strings.Repeat("?, ", len(tuple)), ", ")+")")
		args = append(args, tuple...)
	}

	list := strings.Join(rows, ", ")
	if d == DialectSQLite {
		list = "VALUES " + list
	}
	op := "IN"
	if negate {
		op = "NOT IN"
	}
	return sq.Expr(fmt.Sprintf("(%s) %s (%s)", strings.Join(columns, ", "), op, list), args...), nil
}
