package querysql

import (
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/meta"
)

// Helper translates filter expressions over one entity type into SQL. It
// implements filter.QueryHelper.
type Helper struct {
	model    *meta.Model
	mapper   *meta.Mapper
	registry *filter.Registry
	logger   *slog.Logger
}

// HelperOption configures a Helper.
type HelperOption func(*Helper)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) HelperOption {
	return func(h *Helper) {
		h.logger = l
	}
}

// NewHelper creates a Helper for entityType. A nil registry knows only the
// built-in functions.
func NewHelper(model *meta.Model, entityType string, registry *filter.Registry, opts ...HelperOption) (*Helper, error) {
	mapper, err := model.Mapper(entityType)
	if err != nil {
		return nil, err
	}
	h := &Helper{
		model:    model,
		mapper:   mapper,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// NewBuilder returns an empty builder over the entity's table, aliased by
// the table name.
func (h *Helper) NewBuilder(dialect filter.Dialect) *Builder {
	return NewBuilder(h.mapper.Table, h.mapper.Table, dialect)
}

// Build compiles call and orders into a fresh builder. A nil call adds no
// WHERE predicate.
func (h *Helper) Build(dialect filter.Dialect, call *filter.Call, orders []filter.Order) (*Builder, error) {
	b := h.NewBuilder(dialect)
	if call != nil {
		if err := h.ProcessFilter(b, *call); err != nil {
			return nil, fmt.Errorf("compile filter %s: %w", call, err)
		}
	}
	if len(orders) > 0 {
		if err := h.ProcessOrderBy(b, orders); err != nil {
			return nil, fmt.Errorf("compile order: %w", err)
		}
	}
	return b, nil
}

// ProcessFilter applies call to the builder. A QueryNestedFilterFunction's
// fragment is ANDed into WHERE; a QueryFilterFunction mutates the builder
// itself.
func (h *Helper) ProcessFilter(b filter.QueryBuilder, call filter.Call) error {
	fn, err := h.registry.Function(call.Key())
	if err != nil {
		return err
	}

	switch f := fn.(type) {
	case filter.QueryNestedFilterFunction:
		pred, err := f.ProcessQueryNestedFilter(h, b, call.Args)
		if err != nil {
			return err
		}
		b.AndWhere(pred)
		return nil
	case filter.QueryFilterFunction:
		return f.ProcessQueryFilter(h, b, call.Args)
	}
	return filter.NewUnsupportedFunctionError(call.Key(), filter.QueryFilterInterface, filter.QueryNestedFilterInterface)
}

// ProcessNestedCallExpr implements filter.QueryHelper.
func (h *Helper) ProcessNestedCallExpr(b filter.QueryBuilder, call filter.Call) (sq.Sqlizer, error) {
	fn, err := h.registry.Function(call.Key())
	if err != nil {
		return nil, err
	}
	f, ok := fn.(filter.QueryNestedFilterFunction)
	if !ok {
		return nil, filter.NewUnsupportedFunctionError(call.Key(), filter.QueryNestedFilterInterface)
	}
	return f.ProcessQueryNestedFilter(h, b, call.Args)
}

// ProcessPropertyExpr implements filter.QueryHelper. Every hop but the last
// becomes a LEFT JOIN; the last token maps to a column of the final alias.
// A terminal relationship not stored on its own table is joined as well and
// compared through the target's primary key.
func (h *Helper) ProcessPropertyExpr(b filter.QueryBuilder, pathExpr string) (*filter.ColumnReference, error) {
	expr, err := filter.ParsePropertyExpr(pathExpr)
	if err != nil {
		return nil, err
	}

	chain := expr.Tokens[:len(expr.Tokens)-1]
	name := expr.Tokens[len(expr.Tokens)-1]

	hop, err := h.normalizeAndAddJoins(b, chain, expr.Source)
	if err != nil {
		return nil, err
	}
	prop, err := hop.entity.Property(name)
	if err != nil {
		return nil, err
	}

	if prop.Relationship != nil && !prop.HasForeignKey() {
		return h.relationshipColumn(b, expr, prop)
	}

	column, columns := toColumnExpr(hop.entity, prop, hop.mapper.Reflection, hop.alias)
	return &filter.ColumnReference{
		Column:     column,
		Columns:    columns,
		Property:   prop,
		Entity:     hop.entity,
		Reflection: hop.mapper.Reflection,
		Guards:     hop.guards,
	}, nil
}

func (h *Helper) relationshipColumn(b filter.QueryBuilder, expr filter.PropertyExpr, prop *meta.Property) (*filter.ColumnReference, error) {
	hop, err := h.normalizeAndAddJoins(b, expr.Tokens, expr.Source)
	if err != nil {
		return nil, err
	}
	pk := hop.mapper.Reflection.StoragePrimaryKey()
	if len(pk) != 1 {
		return nil, filter.NewInvalidArgumentError("relationship %s targets composite key entity %s", prop.Name, hop.entity.Type)
	}
	return &filter.ColumnReference{
		Column:     hop.alias + "." + pk[0],
		Property:   prop,
		Entity:     hop.entity,
		Reflection: hop.mapper.Reflection,
		Guards:     hop.guards,
	}, nil
}

// hopState is the position reached while walking a property chain.
type hopState struct {
	alias  string
	entity *meta.Entity
	mapper *meta.Mapper
	guards []sq.Sqlizer
}

func (h *Helper) normalizeAndAddJoins(b filter.QueryBuilder, levels []string, source string) (hopState, error) {
	state := hopState{alias: b.FromAlias(), entity: h.mapper.Entity(), mapper: h.mapper}
	if source != "" {
		m, err := h.model.Mapper(source)
		if err != nil {
			return hopState{}, err
		}
		if m.Table != h.mapper.Table {
			return hopState{}, filter.NewInvalidArgumentError("source %s is stored in %s, not %s", source, m.Table, h.mapper.Table)
		}
		state.entity, state.mapper = m.Entity(), m
	}

	for depth, level := range levels {
		prop, err := state.entity.Property(level)
		if err != nil {
			return hopState{}, err
		}
		rel := prop.Relationship
		if rel == nil {
			return hopState{}, filter.NewMissingRelationshipError(state.entity.Type, level)
		}
		target, err := h.model.Mapper(rel.Target)
		if err != nil {
			return hopState{}, err
		}

		startAlias := state.alias
		fromAlias := state.alias
		var sourceColumn, targetColumn string

		switch {
		case rel.Cardinality == meta.OneHasMany:
			targetColumn = target.Reflection.ConvertEntityToStorageKey(rel.Property)
			sourceColumn = primaryColumn(state.mapper)
			h.makeDistinct(b)

		case rel.Cardinality == meta.OneHasOne && !rel.IsMain:
			targetColumn = target.Reflection.ConvertEntityToStorageKey(rel.Property)
			sourceColumn = primaryColumn(state.mapper)

		case rel.Cardinality == meta.ManyHasMany:
			targetColumn = primaryColumn(target)
			sourceColumn = primaryColumn(state.mapper)
			h.makeDistinct(b)

			junction, err := h.junction(state.mapper, target, prop)
			if err != nil {
				return hopState{}, err
			}
			requested := b.Alias(junction.Table)
			junctionAlias := b.LeftJoin(
				fromAlias,
				junction.Table,
				requested,
				fmt.Sprintf("%s.%s = %s.%s", fromAlias, sourceColumn, requested, junction.InColumn),
			)
			h.logger.Debug("junction joined", "table", junction.Table, "alias", junctionAlias)

			fromAlias = junctionAlias
			sourceColumn = junction.OutColumn

		default:
			targetColumn = primaryColumn(target)
			sourceColumn = state.mapper.Reflection.ConvertEntityToStorageKey(level)
		}

		requested := level + strings.Repeat("_", depth)
		targetAlias := b.LeftJoin(
			fromAlias,
			target.Table,
			requested,
			fmt.Sprintf("%s.%s = %s.%s", fromAlias, sourceColumn, requested, targetColumn),
		)
		h.logger.Debug("relationship joined",
			"entity", state.entity.Type,
			"property", level,
			"cardinality", rel.Cardinality,
			"alias", targetAlias,
		)

		if rel.Cardinality.IsToMany() {
			state.guards = append(state.guards, h.nullGuard(b, startAlias, state.mapper, targetAlias, target))
		}

		state = hopState{alias: targetAlias, entity: rel.Entity, mapper: target, guards: state.guards}
	}

	return state, nil
}

// junction returns the linkage seen from source. The non-owning side reads
// it from the owning mapper and swaps in and out.
func (h *Helper) junction(source, target *meta.Mapper, prop *meta.Property) (meta.Junction, error) {
	rel := prop.Relationship
	if rel.IsMain {
		return source.ManyHasManyParameters(prop, target)
	}
	inverse, err := rel.Entity.Property(rel.Property)
	if err != nil {
		return meta.Junction{}, err
	}
	j, err := target.ManyHasManyParameters(inverse, source)
	if err != nil {
		return meta.Junction{}, err
	}
	j.InColumn, j.OutColumn = j.OutColumn, j.InColumn
	return j, nil
}

// nullGuard keeps rows where the to-many hop matched a member. A hop that
// starts from a null-extended to-one join passes, since the walk stopped
// there and the value is NULL on both backends.
func (h *Helper) nullGuard(b filter.QueryBuilder, startAlias string, start *meta.Mapper, targetAlias string, target *meta.Mapper) sq.Sqlizer {
	present := sq.NotEq{targetAlias + "." + primaryColumn(target): nil}
	if startAlias == b.FromAlias() {
		return present
	}
	return sq.Or{sq.Eq{startAlias + "." + primaryColumn(start): nil}, present}
}

// makeDistinct groups by the base table's primary key, once per builder.
func (h *Helper) makeDistinct(b filter.QueryBuilder) {
	if b.HasGroupBy() {
		return
	}
	from := b.FromAlias()
	columns := lo.Map(h.mapper.Reflection.StoragePrimaryKey(), func(col string, _ int) string {
		return from + "." + col
	})
	b.GroupBy(columns...)
	h.logger.Debug("query made distinct", "group_by", columns)
}

// ProcessOrderBy appends ORDER BY clauses for orders. NULLs sort first in
// ascending order and last in descending order on every dialect.
func (h *Helper) ProcessOrderBy(b filter.QueryBuilder, orders []filter.Order) error {
	for _, o := range orders {
		ref, err := h.ProcessPropertyExpr(b, o.Path)
		if err != nil {
			return err
		}
		columns := []string{ref.Column}
		if ref.IsComposite() {
			columns = ref.Columns
		}
		for _, col := range columns {
			if o.Direction == filter.Desc {
				b.OrderBy(fmt.Sprintf("(%s IS NULL) ASC", col), col+" DESC")
			} else {
				b.OrderBy(fmt.Sprintf("(%s IS NULL) DESC", col), col+" ASC")
			}
		}
	}
	return nil
}

// toColumnExpr maps a property to its qualified column. The virtual primary
// key proxy maps to the key columns: one column for a single key, the
// ordered list for a composite key.
func toColumnExpr(em *meta.Entity, prop *meta.Property, reflection meta.StorageReflection, alias string) (string, []string) {
	name := prop.Name
	if prop.IsPrimary && prop.IsVirtual {
		if em.IsCompositeKey() {
			return "", lo.Map(em.PrimaryKey, func(component string, _ int) string {
				return alias + "." + reflection.ConvertEntityToStorageKey(component)
			})
		}
		name = em.PrimaryKey[0]
	}
	return alias + "." + reflection.ConvertEntityToStorageKey(name), nil
}

func primaryColumn(m *meta.Mapper) string {
	pk := m.Reflection.StoragePrimaryKey()
	if len(pk) == 0 {
		return "id"
	}
	return pk[0]
}
