package filter

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes compilation errors.
type ErrorCode string

const (
	// ErrCodeMissingRelationship indicates a path hop over a property
	// without relationship metadata.
	ErrCodeMissingRelationship ErrorCode = "MISSING_RELATIONSHIP"

	// ErrCodeUnsupportedFunction indicates a function lacking the
	// capability the active backend needs.
	ErrCodeUnsupportedFunction ErrorCode = "UNSUPPORTED_FUNCTION"

	// ErrCodeUnknownFunction indicates a key no registry knows.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeArity indicates a function called with the wrong number of
	// arguments.
	ErrCodeArity ErrorCode = "ARITY"

	// ErrCodeInvalidArgument indicates a malformed argument.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error is a filter compilation error. Any Error aborts the compilation of
// the whole expression tree.
type Error struct {
	Code     ErrorCode
	Message  string
	Function string
	Entity   string
	Property string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Function != "":
		return fmt.Sprintf("%s: %s (function=%s)", e.Code, e.Message, e.Function)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s (entity=%s, property=%s)", e.Code, e.Message, e.Entity, e.Property)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is (or wraps) an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}

// IsMissingRelationship reports a path hop over a non-relationship property.
func IsMissingRelationship(err error) bool { return HasCode(err, ErrCodeMissingRelationship) }

// IsUnsupportedFunction reports a function lacking a backend capability.
func IsUnsupportedFunction(err error) bool { return HasCode(err, ErrCodeUnsupportedFunction) }

// NewMissingRelationshipError creates an Error for a hop over entity.property.
func NewMissingRelationshipError(entity, property string) *Error {
	return &Error{
		Code:     ErrCodeMissingRelationship,
		Message:  fmt.Sprintf("entity %s::%s does not contain a relationship", entity, property),
		Entity:   entity,
		Property: property,
	}
}

// NewUnsupportedFunctionError creates an Error naming the function key and
// the capability interface(s) it should implement.
func NewUnsupportedFunctionError(key string, interfaces ...string) *Error {
	return &Error{
		Code:     ErrCodeUnsupportedFunction,
		Message:  fmt.Sprintf("custom function %s has to implement %s", key, joinOr(interfaces)),
		Function: key,
	}
}

// NewArityError creates an Error for a call with the wrong argument count.
func NewArityError(key string, want, got int) *Error {
	return &Error{
		Code:     ErrCodeArity,
		Message:  fmt.Sprintf("expected %d arguments, got %d", want, got),
		Function: key,
	}
}

// NewInvalidArgumentError creates an Error for a malformed argument.
func NewInvalidArgumentError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return "a filter interface"
	case 1:
		return items[0] + " interface"
	}
	out := items[0]
	for _, item := range items[1 : len(items)-1] {
		out += ", " + item
	}
	return out + " or " + items[len(items)-1] + " interface"
}
