package memory

import (
	"slices"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/value"
)

// FilterFunc filters a collection, keeping the input order.
type FilterFunc func(entities []entity.Entity) ([]entity.Entity, error)

// Comparator orders two entities: negative when a sorts first, zero when
// they tie.
type Comparator func(a, b entity.Entity) (int, error)

// CreateFilter compiles call into a FilterFunc. The function behind the call
// key must implement ArrayNestedFilterFunction (applied per entity) or
// ArrayFilterFunction (applied to the collection).
func (h *Helper) CreateFilter(call filter.Call) (FilterFunc, error) {
	fn, err := h.registry.Function(call.Key())
	if err != nil {
		return nil, err
	}
	h.logger.Debug("compiling array filter", "entity", h.entity.Type, "call", call.String())

	switch f := fn.(type) {
	case filter.ArrayNestedFilterFunction:
		return func(entities []entity.Entity) ([]entity.Entity, error) {
			out := make([]entity.Entity, 0, len(entities))
			for _, e := range entities {
				ok, err := f.ProcessArrayNestedFilter(h, e, call.Args)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, e)
				}
			}
			return out, nil
		}, nil
	case filter.ArrayFilterFunction:
		return func(entities []entity.Entity) ([]entity.Entity, error) {
			return f.ProcessArrayFilter(h, entities, call.Args)
		}, nil
	}
	return nil, filter.NewUnsupportedFunctionError(call.Key(), filter.ArrayFilterInterface, filter.ArrayNestedFilterInterface)
}

// CreateNestedFilter implements filter.ArrayHelper. Only functions
// implementing ArrayNestedFilterFunction can be nested.
func (h *Helper) CreateNestedFilter(call filter.Call) (filter.Predicate, error) {
	fn, err := h.registry.Function(call.Key())
	if err != nil {
		return nil, err
	}
	f, ok := fn.(filter.ArrayNestedFilterFunction)
	if !ok {
		return nil, filter.NewUnsupportedFunctionError(call.Key(), filter.ArrayNestedFilterInterface)
	}
	return func(e entity.Entity) (bool, error) {
		return f.ProcessArrayNestedFilter(h, e, call.Args)
	}, nil
}

type sortColumn struct {
	expr      filter.PropertyExpr
	direction filter.Direction
}

// CreateSorter compiles orders into a Comparator. Pairs are compared in
// order; the first non-zero result wins. Nulls sort first, numbers compare
// numerically and other values by ordinal string comparison; a descending
// pair negates the result.
func (h *Helper) CreateSorter(orders []filter.Order) (Comparator, error) {
	columns := make([]sortColumn, 0, len(orders))
	for _, o := range orders {
		expr, err := filter.ParsePropertyExpr(o.Path)
		if err != nil {
			return nil, err
		}
		anchor, err := h.anchor(expr.Source)
		if err != nil {
			return nil, err
		}
		if _, _, err := resolveTerminal(anchor, expr.Tokens); err != nil {
			return nil, err
		}
		dir := o.Direction
		if dir == "" {
			dir = filter.Asc
		}
		columns = append(columns, sortColumn{expr: expr, direction: dir})
	}

	return func(a, b entity.Entity) (int, error) {
		for _, col := range columns {
			anchor, err := h.anchor(col.expr.Source)
			if err != nil {
				return 0, err
			}
			va, err := h.valueByTokens(a, col.expr.Tokens, anchor)
			if err != nil {
				return 0, err
			}
			vb, err := h.valueByTokens(b, col.expr.Tokens, anchor)
			if err != nil {
				return 0, err
			}
			if c := value.SortCompare(va.Value, vb.Value); c != 0 {
				return col.direction.Multiplier() * c, nil
			}
		}
		return 0, nil
	}, nil
}

// Apply filters entities with call and sorts the result by orders. A nil
// call keeps every entity; no orders keep the input order.
func (h *Helper) Apply(entities []entity.Entity, call *filter.Call, orders []filter.Order) ([]entity.Entity, error) {
	out := entities
	if call != nil {
		fn, err := h.CreateFilter(*call)
		if err != nil {
			return nil, err
		}
		if out, err = Filter(out, fn); err != nil {
			return nil, err
		}
	}
	if len(orders) == 0 {
		return out, nil
	}
	cmp, err := h.CreateSorter(orders)
	if err != nil {
		return nil, err
	}
	return Sort(out, cmp)
}

// Filter applies fn to entities.
func Filter(entities []entity.Entity, fn FilterFunc) ([]entity.Entity, error) {
	return fn(entities)
}

// Sort returns a stably sorted copy of entities. The first comparator error
// aborts the sort.
func Sort(entities []entity.Entity, cmp Comparator) ([]entity.Entity, error) {
	out := slices.Clone(entities)
	var firstErr error
	slices.SortStableFunc(out, func(a, b entity.Entity) int {
		if firstErr != nil {
			return 0
		}
		c, err := cmp(a, b)
		if err != nil {
			firstErr = err
			return 0
		}
		return c
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
