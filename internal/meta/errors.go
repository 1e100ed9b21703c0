package meta

import (
	"errors"
	"fmt"
)

// LookupErrorCode categorizes metadata lookup failures.
type LookupErrorCode string

const (
	// ErrCodeUnknownEntity indicates an entity type missing from the model.
	ErrCodeUnknownEntity LookupErrorCode = "UNKNOWN_ENTITY"

	// ErrCodeUnknownProperty indicates a property missing from an entity.
	ErrCodeUnknownProperty LookupErrorCode = "UNKNOWN_PROPERTY"
)

// LookupError is returned when the model has no entity or property of the
// requested name.
type LookupError struct {
	Code     LookupErrorCode
	Entity   string
	Property string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Code == ErrCodeUnknownProperty {
		return fmt.Sprintf("%s: entity %s has no property %q", e.Code, e.Entity, e.Property)
	}
	return fmt.Sprintf("%s: entity type %q is not defined", e.Code, e.Entity)
}

// IsUnknownProperty reports whether err is (or wraps) an unknown property error.
func IsUnknownProperty(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeUnknownProperty
	}
	return false
}

// IsUnknownEntity reports whether err is (or wraps) an unknown entity error.
func IsUnknownEntity(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeUnknownEntity
	}
	return false
}

// DefinitionError reports an invalid model definition.
type DefinitionError struct {
	Entity   string
	Property string
	Message  string
}

func (e *DefinitionError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("invalid definition %s.%s: %s", e.Entity, e.Property, e.Message)
	}
	return fmt.Sprintf("invalid definition %s: %s", e.Entity, e.Message)
}
