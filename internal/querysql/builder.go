package querysql

import (
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relfilter/internal/filter"
)

// Builder collects the parts of one SELECT: joins, WHERE predicates,
// GROUP BY and ORDER BY. It implements filter.QueryBuilder and renders
// through squirrel.
//
// A Builder belongs to one compilation and is not safe for concurrent use.
type Builder struct {
	table   string
	alias   string
	dialect filter.Dialect

	columns []string
	joins   []join
	where   []sq.Sqlizer
	groupBy []string
	orderBy []string

	counter int
}

type join struct {
	from  string
	table string
	alias string
	on    string

	// requested is the alias the caller asked for; alias differs when that
	// was already taken.
	requested   string
	requestedOn string
}

// NewBuilder creates a builder selecting from table under alias.
func NewBuilder(table, alias string, dialect filter.Dialect) *Builder {
	if alias == "" {
		alias = table
	}
	if dialect == "" {
		dialect = filter.DialectSQLite
	}
	return &Builder{table: table, alias: alias, dialect: dialect}
}

// FromAlias implements filter.QueryBuilder.
func (b *Builder) FromAlias() string { return b.alias }

// Dialect implements filter.QueryBuilder.
func (b *Builder) Dialect() filter.Dialect { return b.dialect }

// LeftJoin implements filter.QueryBuilder. Repeating a join is a no-op that
// returns the alias of the first one. When alias is taken by a different
// join it is suffixed with a counter and references to it in on are
// rewritten.
func (b *Builder) LeftJoin(fromAlias, table, alias, on string) string {
	for _, j := range b.joins {
		if j.from == fromAlias && j.table == table && j.requested == alias && j.requestedOn == on {
			return j.alias
		}
	}

	actual := alias
	actualOn := on
	if b.aliasTaken(alias) {
		b.counter++
		actual = fmt.Sprintf("%s_%d", alias, b.counter)
		actualOn = renameTarget(on, alias, actual)
	}

	b.joins = append(b.joins, join{
		from:        fromAlias,
		table:       table,
		alias:       actual,
		on:          actualOn,
		requested:   alias,
		requestedOn: on,
	})
	return actual
}

func (b *Builder) aliasTaken(alias string) bool {
	if alias == b.alias {
		return true
	}
	for _, j := range b.joins {
		if j.alias == alias {
			return true
		}
	}
	return false
}

// renameTarget rewrites references to alias on the right-hand side of a
// "left = right" join condition.
func renameTarget(on, alias, actual string) string {
	idx := strings.LastIndex(on, " = ")
	if idx < 0 {
		idx = 0
	}
	qualifier := regexp.MustCompile(`\b` + regexp.QuoteMeta(alias) + `\.`)
	return on[:idx] + qualifier.ReplaceAllString(on[idx:], actual+".")
}

var identifierTable = regexp.MustCompile(`(?i)^([a-z0-9_]+\.){0,2}([a-z0-9_]+?)$`)

// Alias implements filter.QueryBuilder. A plain or schema-qualified table
// name yields its bare name; anything else gets a generated "_join<N>".
func (b *Builder) Alias(table string) string {
	if m := identifierTable.FindStringSubmatch(table); m != nil {
		return m[2]
	}
	b.counter++
	return fmt.Sprintf("_join%d", b.counter)
}

// AndWhere implements filter.QueryBuilder.
func (b *Builder) AndWhere(pred sq.Sqlizer) {
	b.where = append(b.where, pred)
}

// GroupBy implements filter.QueryBuilder.
func (b *Builder) GroupBy(columns ...string) {
	b.groupBy = append(b.groupBy, columns...)
}

// HasGroupBy implements filter.QueryBuilder.
func (b *Builder) HasGroupBy() bool { return len(b.groupBy) > 0 }

// OrderBy implements filter.QueryBuilder.
func (b *Builder) OrderBy(clauses ...string) {
	b.orderBy = append(b.orderBy, clauses...)
}

// Columns sets the selected columns. Default: every column of the base
// table.
func (b *Builder) Columns(columns ...string) {
	b.columns = append(b.columns[:0], columns...)
}

// Joins returns the number of joins added so far.
func (b *Builder) Joins() int { return len(b.joins) }

// Select assembles the squirrel SELECT.
func (b *Builder) Select() sq.SelectBuilder {
	columns := b.columns
	if len(columns) == 0 {
		columns = []string{b.alias + ".*"}
	}

	sel := sq.Select(columns...).From(b.table + " AS " + b.alias)
	for _, j := range b.joins {
		sel = sel.LeftJoin(fmt.Sprintf("%s AS %s ON %s", j.table, j.alias, j.on))
	}
	for _, w := range b.where {
		sel = sel.Where(w)
	}
	if len(b.groupBy) > 0 {
		sel = sel.GroupBy(b.groupBy...)
	}
	if len(b.orderBy) > 0 {
		sel = sel.OrderBy(b.orderBy...)
	}
	return sel.PlaceholderFormat(placeholder(b.dialect))
}

// ToSql renders the query and its arguments.
func (b *Builder) ToSql() (string, []any, error) {
	return b.Select().ToSql()
}

// String renders the query for logs, without arguments.
func (b *Builder) String() string {
	query, _, err := b.ToSql()
	if err != nil {
		return "<invalid: " + err.Error() + ">"
	}
	return strings.TrimSpace(query)
}

func placeholder(d filter.Dialect) sq.PlaceholderFormat {
	if d == filter.DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}
