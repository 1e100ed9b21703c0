package meta

import (
	"time"

	"github.com/ettle/strcase"
	"github.com/google/uuid"
)

// StorageReflection maps entity property names and values to their storage
// representation.
type StorageReflection interface {
	// ConvertEntityToStorageKey returns the column name of a property.
	ConvertEntityToStorageKey(property string) string

	// StoragePrimaryKey returns the primary-key column names in key order.
	StoragePrimaryKey() []string

	// ConvertEntityToStorage renames property keys to columns and converts
	// values to their stored form.
	ConvertEntityToStorage(values map[string]any) map[string]any
}

// NamingReflection is the default StorageReflection: camelCase properties
// become snake_case columns, foreign keys get an "_id" suffix, timestamps are
// stored as Unix seconds.
type NamingReflection struct {
	entity *Entity
}

// NewNamingReflection returns the default reflection for an entity.
func NewNamingReflection(e *Entity) *NamingReflection {
	return &NamingReflection{entity: e}
}

// ConvertEntityToStorageKey implements StorageReflection.
func (r *NamingReflection) ConvertEntityToStorageKey(property string) string {
	p, ok := r.entity.properties[property]
	if !ok {
		return strcase.ToSnake(property)
	}
	if p.Column != "" {
		return p.Column
	}
	if p.HasForeignKey() {
		return strcase.ToSnake(property) + "_id"
	}
	return strcase.ToSnake(property)
}

// StoragePrimaryKey implements StorageReflection.
func (r *NamingReflection) StoragePrimaryKey() []string {
	cols := make([]string, 0, len(r.entity.PrimaryKey))
	for _, name := range r.entity.PrimaryKey {
		cols = append(cols, r.ConvertEntityToStorageKey(name))
	}
	return cols
}

// ConvertEntityToStorage implements StorageReflection. The virtual primary
// key proxy keeps its property name since it has no single column.
func (r *NamingReflection) ConvertEntityToStorage(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for property, v := range values {
		key := property
		if p, ok := r.entity.properties[property]; !ok || !(p.IsPrimary && p.IsVirtual) {
			key = r.ConvertEntityToStorageKey(property)
		}
		out[key] = storageValue(v)
	}
	return out
}

func storageValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.Unix()
	case *time.Time:
		if val == nil {
			return nil
		}
		return val.Unix()
	case uuid.UUID:
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = storageValue(item)
		}
		return out
	default:
		return v
	}
}
