package filter

import (
	"fmt"
	"sort"
)

// Registry resolves function keys. Built-in keys always resolve to the
// built-in functions; other keys resolve to functions registered for the
// repository. Register everything at startup; lookups are read-only.
type Registry struct {
	custom map[string]Function
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{custom: make(map[string]Function)}
}

// Register adds a custom function. It fails for built-in keys, duplicate
// keys and functions implementing none of the capability interfaces.
func (r *Registry) Register(key string, fn Function) error {
	if key == "" || isBuiltin(key) {
		return fmt.Errorf("cannot register function under reserved key %q", key)
	}
	if _, exists := r.custom[key]; exists {
		return fmt.Errorf("function %q is already registered", key)
	}
	if !hasCapability(fn) {
		return NewUnsupportedFunctionError(key,
			ArrayFilterInterface, ArrayNestedFilterInterface, QueryFilterInterface, QueryNestedFilterInterface)
	}
	r.custom[key] = fn
	return nil
}

// Function returns the function for key. An empty key is And.
func (r *Registry) Function(key string) (Function, error) {
	switch key {
	case ValueOperator:
		return ValueOperatorFunction{}, nil
	case And, "":
		return ConjunctionFunction{}, nil
	case Or:
		return DisjunctionFunction{}, nil
	}
	if r != nil {
		if fn, ok := r.custom[key]; ok {
			return fn, nil
		}
	}
	return nil, &Error{
		Code:     ErrCodeUnknownFunction,
		Message:  fmt.Sprintf("function %q is not registered", key),
		Function: key,
	}
}

// Keys returns the custom function keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.custom))
	for k := range r.custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isBuiltin(key string) bool {
	return key == ValueOperator || key == And || key == Or
}

func hasCapability(fn Function) bool {
	switch fn.(type) {
	case ArrayFilterFunction, ArrayNestedFilterFunction, QueryFilterFunction, QueryNestedFilterFunction:
		return true
	}
	return false
}
