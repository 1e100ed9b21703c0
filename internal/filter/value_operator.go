package filter

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/value"
)

// ValueOperatorFunction compares a property path with a literal. Args are
// exactly (operator, path, literal).
type ValueOperatorFunction struct{}

// ProcessArrayNestedFilter implements ArrayNestedFilterFunction. Over a
// to-many path the result is true when any fanned-out value matches.
func (ValueOperatorFunction) ProcessArrayNestedFilter(h ArrayHelper, e entity.Entity, args []any) (bool, error) {
	op, path, literal, err := valueArgs(args)
	if err != nil {
		return false, err
	}

	ref, err := h.Value(e, path)
	if err != nil {
		return false, err
	}
	target, err := h.NormalizeValue(literal, ref.Property)
	if err != nil {
		return false, err
	}
	if ref.IsCompositeKey() {
		target = WrapTuple(target)
	}

	if ref.IsFromHasManyResult {
		values, _ := ref.Value.([]any)
		for _, sub := range values {
			ok, err := arrayEvaluate(op, target, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	return arrayEvaluate(op, target, ref.Value)
}

func arrayEvaluate(op string, target, source any) (bool, error) {
	switch op {
	case OpEqual:
		if list, ok := target.([]any); ok {
			return value.In(source, list), nil
		}
		return value.Equal(source, target), nil
	case OpNotEqual:
		if list, ok := target.([]any); ok {
			return !value.In(source, list), nil
		}
		return !value.Equal(source, target), nil
	}

	c, ok := value.Compare(source, target)
	if !ok {
		return false, nil
	}
	switch op {
	case OpGreater:
		return c > 0, nil
	case OpGreaterOrEqual:
		return c >= 0, nil
	case OpLess:
		return c < 0, nil
	case OpLessOrEqual:
		return c <= 0, nil
	}
	return false, NewInvalidArgumentError("unknown operator %q", op)
}

// ProcessQueryNestedFilter implements QueryNestedFilterFunction.
func (ValueOperatorFunction) ProcessQueryNestedFilter(h QueryHelper, b QueryBuilder, args []any) (sq.Sqlizer, error) {
	op, path, literal, err := valueArgs(args)
	if err != nil {
		return nil, err
	}

	ref, err := h.ProcessPropertyExpr(b, path)
	if err != nil {
		return nil, err
	}
	v, err := ref.NormalizeValue(literal)
	if err != nil {
		return nil, err
	}

	var pred sq.Sqlizer
	switch op {
	case OpEqual:
		pred, err = qbEqual(b.Dialect(), ref, v)
	case OpNotEqual:
		pred, err = qbNotEqual(b.Dialect(), ref, v)
	default:
		pred, err = qbOther(op, ref, v)
	}
	if err != nil {
		return nil, err
	}
	return ref.Guarded(pred), nil
}

func qbEqual(d Dialect, ref *ColumnReference, v any) (sq.Sqlizer, error) {
	if list, ok := v.([]any); ok {
		if ref.IsComposite() {
			return tupleEqual(d, ref.Columns, list)
		}
		values, hasNil := splitNil(list)
		var parts sq.Or
		if len(values) > 0 {
			parts = append(parts, sq.Eq{ref.Column: values})
		}
		if hasNil {
			parts = append(parts, sq.Eq{ref.Column: nil})
		}
		return anyOf(parts), nil
	}
	if v == nil {
		if ref.IsComposite() {
			return eachColumn(ref.Columns, func(col string) sq.Sqlizer { return sq.Eq{col: nil} }), nil
		}
		return sq.Eq{ref.Column: nil}, nil
	}
	if ref.IsComposite() {
		return nil, NewInvalidArgumentError("composite key %s compared with scalar %v", ref, v)
	}
	return sq.Eq{ref.Column: v}, nil
}

// qbNotEqual negates qbEqual. A NULL column counts as different from any
// non-null literal, matching the in-memory comparison. A nil list member
// excludes NULL columns instead.
func qbNotEqual(d Dialect, ref *ColumnReference, v any) (sq.Sqlizer, error) {
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return sq.Expr("1=1"), nil
		}
		if ref.IsComposite() {
			return tupleNotEqual(d, ref.Columns, list)
		}
		values, hasNil := splitNil(list)
		switch {
		case !hasNil:
			return sq.Or{sq.NotEq{ref.Column: values}, sq.Eq{ref.Column: nil}}, nil
		case len(values) == 0:
			return sq.NotEq{ref.Column: nil}, nil
		}
		return sq.And{sq.NotEq{ref.Column: values}, sq.NotEq{ref.Column: nil}}, nil
	}
	if v == nil {
		if ref.IsComposite() {
			return eachColumn(ref.Columns, func(col string) sq.Sqlizer { return sq.NotEq{col: nil} }), nil
		}
		return sq.NotEq{ref.Column: nil}, nil
	}
	if ref.IsComposite() {
		return nil, NewInvalidArgumentError("composite key %s compared with scalar %v", ref, v)
	}
	return sq.Or{sq.NotEq{ref.Column: v}, sq.Eq{ref.Column: nil}}, nil
}

// tupleEqual matches a composite key against a list of tuples. A nil member
// matches an all-NULL key; a tuple with a nil component cannot equal a
// stored key and is dropped.
func tupleEqual(d Dialect, columns []string, list []any) (sq.Sqlizer, error) {
	tuples, hasNil, err := completeTuples(columns, list)
	if err != nil {
		return nil, err
	}
	var parts sq.Or
	if len(tuples) > 0 {
		in, err := tupleIn(d, columns, tuples, false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, in)
	}
	if hasNil {
		parts = append(parts, eachColumn(columns, func(col string) sq.Sqlizer { return sq.Eq{col: nil} }))
	}
	return anyOf(parts), nil
}

func tupleNotEqual(d Dialect, columns []string, list []any) (sq.Sqlizer, error) {
	tuples, hasNil, err := completeTuples(columns, list)
	if err != nil {
		return nil, err
	}
	notNull := eachColumn(columns, func(col string) sq.Sqlizer { return sq.NotEq{col: nil} })
	if len(tuples) == 0 {
		if hasNil {
			return notNull, nil
		}
		return sq.Expr("1=1"), nil
	}
	notIn, err := tupleIn(d, columns, tuples, true)
	if err != nil {
		return nil, err
	}
	if hasNil {
		return sq.And{notIn, notNull}, nil
	}
	return sq.Or{notIn, sq.Eq{columns[0]: nil}}, nil
}

// completeTuples splits nil members off list and drops tuples that have a
// nil component. Malformed tuples are passed on for tupleIn to reject.
func completeTuples(columns []string, list []any) ([]any, bool, error) {
	members, hasNil := splitNil(list)
	out := make([]any, 0, len(members))
	for _, m := range members {
		tuple, ok := m.([]any)
		if !ok || len(tuple) != len(columns) {
			return nil, false, NewInvalidArgumentError("composite key value %v must have %d components", m, len(columns))
		}
		if _, partial := splitNil(tuple); partial {
			continue
		}
		out = append(out, tuple)
	}
	return out, hasNil, nil
}

// splitNil returns the non-nil members of list and whether any was nil.
func splitNil(list []any) ([]any, bool) {
	out := make([]any, 0, len(list))
	hasNil := false
	for _, item := range list {
		if item == nil {
			hasNil = true
			continue
		}
		out = append(out, item)
	}
	return out, hasNil
}

// anyOf collapses a disjunction: empty is false, one part is itself.
func anyOf(parts sq.Or) sq.Sqlizer {
	switch len(parts) {
	case 0:
		return sq.Expr("1=0")
	case 1:
		return parts[0]
	}
	return parts
}

// qbOther handles the ordering operators. Ordering against NULL or a list
// is never true.
func qbOther(op string, ref *ColumnReference, v any) (sq.Sqlizer, error) {
	if _, isList := v.([]any); isList || v == nil || ref.IsComposite() {
		return sq.Expr("1=0"), nil
	}
	switch op {
	case OpGreater:
		return sq.Gt{ref.Column: v}, nil
	case OpGreaterOrEqual:
		return sq.GtOrEq{ref.Column: v}, nil
	case OpLess:
		return sq.Lt{ref.Column: v}, nil
	case OpLessOrEqual:
		return sq.LtOrEq{ref.Column: v}, nil
	}
	return nil, NewInvalidArgumentError("unknown operator %q", op)
}

func eachColumn(columns []string, fn func(col string) sq.Sqlizer) sq.Sqlizer {
	parts := make(sq.And, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fn(col))
	}
	return parts
}

func valueArgs(args []any) (op, path string, literal any, err error) {
	if len(args) != 3 {
		return "", "", nil, NewArityError(ValueOperator, 3, len(args))
	}
	op, ok := args[0].(string)
	if !ok || !IsOperator(op) {
		return "", "", nil, NewInvalidArgumentError("invalid operator %v", args[0])
	}
	path, ok = args[1].(string)
	if !ok {
		return "", "", nil, NewInvalidArgumentError("property path must be a string, got %T", args[1])
	}
	return op, path, args[2], nil
}
