package filter

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/meta"
)

// Function is an operator function. It must implement at least one of
// ArrayFilterFunction, ArrayNestedFilterFunction, QueryFilterFunction and
// QueryNestedFilterFunction.
type Function any

// Predicate decides whether one entity matches.
type Predicate func(e entity.Entity) (bool, error)

// ArrayHelper is the in-memory backend as seen by operator functions.
type ArrayHelper interface {
	// Value resolves a property path against an entity.
	Value(e entity.Entity, pathExpr string) (*ValueReference, error)

	// NormalizeValue normalizes a literal against the terminal property.
	NormalizeValue(v any, prop *meta.Property) (any, error)

	// CreateNestedFilter compiles a nested call into a predicate.
	CreateNestedFilter(call Call) (Predicate, error)
}

// QueryBuilder is the query under construction. It is mutated by every
// processed path and must not be shared between compilations.
type QueryBuilder interface {
	FromAlias() string
	Dialect() Dialect

	// LeftJoin adds a join and returns the alias it was registered under,
	// which differs from alias when alias is taken by another join.
	LeftJoin(fromAlias, table, alias, on string) string

	// Alias derives a join alias from a table name.
	Alias(table string) string

	AndWhere(pred sq.Sqlizer)
	GroupBy(columns ...string)
	HasGroupBy() bool
	OrderBy(clauses ...string)
}

// QueryHelper is the SQL backend as seen by operator functions.
type QueryHelper interface {
	// ProcessPropertyExpr resolves a property path to a column, adding the
	// joins it needs to the builder.
	ProcessPropertyExpr(b QueryBuilder, pathExpr string) (*ColumnReference, error)

	// ProcessNestedCallExpr compiles a nested call into a WHERE fragment.
	ProcessNestedCallExpr(b QueryBuilder, call Call) (sq.Sqlizer, error)
}

// ArrayFilterFunction filters a whole collection at once.
type ArrayFilterFunction interface {
	ProcessArrayFilter(h ArrayHelper, entities []entity.Entity, args []any) ([]entity.Entity, error)
}

// ArrayNestedFilterFunction evaluates against a single entity and can be
// nested inside And/Or.
type ArrayNestedFilterFunction interface {
	ProcessArrayNestedFilter(h ArrayHelper, e entity.Entity, args []any) (bool, error)
}

// QueryFilterFunction applies itself to the builder directly.
type QueryFilterFunction interface {
	ProcessQueryFilter(h QueryHelper, b QueryBuilder, args []any) error
}

// QueryNestedFilterFunction returns a WHERE fragment and can be nested
// inside And/Or.
type QueryNestedFilterFunction interface {
	ProcessQueryNestedFilter(h QueryHelper, b QueryBuilder, args []any) (sq.Sqlizer, error)
}

// Capability interface names used in error messages.
const (
	ArrayFilterInterface       = "ArrayFilterFunction"
	ArrayNestedFilterInterface = "ArrayNestedFilterFunction"
	QueryFilterInterface       = "QueryFilterFunction"
	QueryNestedFilterInterface = "QueryNestedFilterFunction"
)

// Dialect selects dialect-specific SQL forms.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// ValueReference is a property path resolved against a loaded entity.
type ValueReference struct {
	// IsFromHasManyResult is true when the path crossed a to-many
	// relationship; Value is then a []any of the fanned-out values.
	IsFromHasManyResult bool

	Value any

	// Property and Entity describe the terminal property.
	Property *meta.Property
	Entity   *meta.Entity
}

// IsCompositeKey reports whether the terminal property proxies a composite
// primary key.
func (r *ValueReference) IsCompositeKey() bool {
	return r.Property.IsPrimary && r.Property.IsVirtual && r.Entity.IsCompositeKey()
}
