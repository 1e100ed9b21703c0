package filter

import (
	"fmt"
	"strings"
)

// Built-in function keys.
const (
	ValueOperator = "value"
	And           = "and"
	Or            = "or"
)

// Comparison operators accepted by the ValueOperator function.
const (
	OpEqual          = "="
	OpNotEqual       = "!="
	OpGreater        = ">"
	OpGreaterOrEqual = ">="
	OpLess           = "<"
	OpLessOrEqual    = "<="
)

// Operators lists every comparison operator, longest literal first so that
// suffix matching picks ">=" over "=".
var Operators = []string{OpNotEqual, OpGreaterOrEqual, OpLessOrEqual, OpEqual, OpGreater, OpLess}

// IsOperator reports whether op is a known comparison operator.
func IsOperator(op string) bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// Call is one node of a filter expression: a function key and its raw
// arguments. An empty Function means And.
type Call struct {
	Function string
	Args     []any
}

// Key returns the function key, defaulting to And.
func (c Call) Key() string {
	if c.Function == "" {
		return And
	}
	return c.Function
}

// String renders the call for logs and error messages.
func (c Call) String() string {
	parts := make([]string, 0, len(c.Args))
	for _, arg := range c.Args {
		parts = append(parts, fmt.Sprintf("%v", arg))
	}
	return fmt.Sprintf("%s(%s)", c.Key(), strings.Join(parts, ", "))
}

// Compare builds a ValueOperator call comparing a property path with a
// literal.
func Compare(path, op string, literal any) Call {
	return Call{Function: ValueOperator, Args: []any{op, path, literal}}
}

// NewAnd builds a conjunction of calls.
func NewAnd(calls ...Call) Call {
	return Call{Function: And, Args: callArgs(calls)}
}

// NewOr builds a disjunction of calls.
func NewOr(calls ...Call) Call {
	return Call{Function: Or, Args: callArgs(calls)}
}

func callArgs(calls []Call) []any {
	args := make([]any, len(calls))
	for i, c := range calls {
		args[i] = c
	}
	return args
}

// AsCall converts a nested argument to a Call. Condition maps are accepted
// and converted with Conditions.
func AsCall(arg any) (Call, error) {
	switch v := arg.(type) {
	case Call:
		return v, nil
	case *Call:
		if v == nil {
			return Call{}, NewInvalidArgumentError("nil nested expression")
		}
		return *v, nil
	case map[string]any:
		return Conditions(v)
	}
	return Call{}, NewInvalidArgumentError("nested expression must be a call, got %T", arg)
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Multiplier returns +1 for ascending and -1 for descending order.
func (d Direction) Multiplier() int {
	if d == Desc {
		return -1
	}
	return 1
}

// ParseDirection accepts ASC/DESC in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	}
	return "", NewInvalidArgumentError("unknown sort direction %q", s)
}

// Order is one (property path, direction) sort pair.
type Order struct {
	Path      string
	Direction Direction
}
