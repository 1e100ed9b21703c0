// Package entity defines the loaded object graph the in-memory backend
// evaluates filters against.
package entity

import (
	"github.com/roach88/relfilter/internal/meta"
)

// Entity is a loaded entity. Relationship properties hold an Entity (to-one,
// possibly nil) or a []Entity (to-many).
type Entity interface {
	EntityType() string
	HasValue(property string) bool
	Value(property string) any
}

// Identifiable is implemented by entities that know their primary value.
type Identifiable interface {
	PrimaryValue() (any, bool)
}

// PrimaryValue returns the primary value of e: the key itself for a single
// key, a []any of components for a composite key. The second result is
// false when the key is unset.
func PrimaryValue(e Entity) (any, bool) {
	if id, ok := e.(Identifiable); ok {
		return id.PrimaryValue()
	}
	if !e.HasValue("id") {
		return nil, false
	}
	return e.Value("id"), true
}

// Record is a map-backed Entity.
type Record struct {
	typ        string
	primaryKey []string
	values     map[string]any
}

// New creates a record of the given entity type. The values map is copied.
func New(em *meta.Entity, values map[string]any) *Record {
	r := &Record{
		typ:        em.Type,
		primaryKey: em.PrimaryKey,
		values:     make(map[string]any, len(values)),
	}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// EntityType implements Entity.
func (r *Record) EntityType() string { return r.typ }

// HasValue implements Entity. A nil value counts as unset.
func (r *Record) HasValue(property string) bool {
	v, ok := r.values[property]
	return ok && v != nil
}

// Value implements Entity.
func (r *Record) Value(property string) any {
	return r.values[property]
}

// Set assigns a property value. Used to wire relationships after creation.
func (r *Record) Set(property string, v any) {
	r.values[property] = v
}

// Append adds a member to a to-many property.
func (r *Record) Append(property string, member Entity) {
	list, _ := r.values[property].([]Entity)
	r.values[property] = append(list, member)
}

// PrimaryValue implements Identifiable. Related entities inside the key are
// replaced by their own primary values.
func (r *Record) PrimaryValue() (any, bool) {
	if len(r.primaryKey) == 1 {
		return r.component(r.primaryKey[0])
	}
	parts := make([]any, 0, len(r.primaryKey))
	for _, name := range r.primaryKey {
		v, ok := r.component(name)
		if !ok {
			return nil, false
		}
		parts = append(parts, v)
	}
	return parts, true
}

func (r *Record) component(name string) (any, bool) {
	v, ok := r.values[name]
	if !ok || v == nil {
		return nil, false
	}
	if e, isEntity := v.(Entity); isEntity {
		return PrimaryValue(e)
	}
	return v, true
}
