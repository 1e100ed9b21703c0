package filter

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relfilter/internal/entity"
)

// ConjunctionFunction is true when every nested call is true. With no
// arguments it is true.
type ConjunctionFunction struct{}

// ProcessArrayNestedFilter implements ArrayNestedFilterFunction.
func (ConjunctionFunction) ProcessArrayNestedFilter(h ArrayHelper, e entity.Entity, args []any) (bool, error) {
	for _, arg := range args {
		ok, err := evalNested(h, e, arg)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// ProcessQueryNestedFilter implements QueryNestedFilterFunction.
func (ConjunctionFunction) ProcessQueryNestedFilter(h QueryHelper, b QueryBuilder, args []any) (sq.Sqlizer, error) {
	parts, err := nestedFragments(h, b, args)
	if err != nil {
		return nil, err
	}
	return sq.And(parts), nil
}

// DisjunctionFunction is true when any nested call is true. With no
// arguments it is false.
type DisjunctionFunction struct{}

// ProcessArrayNestedFilter implements ArrayNestedFilterFunction.
func (DisjunctionFunction) ProcessArrayNestedFilter(h ArrayHelper, e entity.Entity, args []any) (bool, error) {
	for _, arg := range args {
		ok, err := evalNested(h, e, arg)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ProcessQueryNestedFilter implements QueryNestedFilterFunction.
func (DisjunctionFunction) ProcessQueryNestedFilter(h QueryHelper, b QueryBuilder, args []any) (sq.Sqlizer, error) {
	parts, err := nestedFragments(h, b, args)
	if err != nil {
		return nil, err
	}
	return sq.Or(parts), nil
}

func evalNested(h ArrayHelper, e entity.Entity, arg any) (bool, error) {
	call, err := AsCall(arg)
	if err != nil {
		return false, err
	}
	pred, err := h.CreateNestedFilter(call)
	if err != nil {
		return false, err
	}
	return pred(e)
}

func nestedFragments(h QueryHelper, b QueryBuilder, args []any) ([]sq.Sqlizer, error) {
	parts := make([]sq.Sqlizer, 0, len(args))
	for _, arg := range args {
		call, err := AsCall(arg)
		if err != nil {
			return nil, err
		}
		frag, err := h.ProcessNestedCallExpr(b, call)
		if err != nil {
			return nil, err
		}
		parts = append(parts, frag)
	}
	return parts, nil
}
