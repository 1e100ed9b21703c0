package meta

import (
	"fmt"
)

// Mapper binds an entity type to its table.
type Mapper struct {
	Table      string
	Reflection StorageReflection

	entity *Entity
}

// Entity returns the metadata of the mapped entity.
func (m *Mapper) Entity() *Entity {
	return m.entity
}

// ManyHasManyParameters returns the junction linkage for an owning
// many-has-many property of this mapper's entity. InColumn points at this
// entity, OutColumn at target.
//
// Without an explicit junction the table is "<source>_<target>" and the
// columns are "<table>_<pk column>" for each side.
func (m *Mapper) ManyHasManyParameters(prop *Property, target *Mapper) (Junction, error) {
	rel := prop.Relationship
	if rel == nil || rel.Cardinality != ManyHasMany {
		return Junction{}, fmt.Errorf("property %s.%s is not a many-has-many relationship", m.entity.Type, prop.Name)
	}
	if !rel.IsMain {
		return Junction{}, fmt.Errorf("property %s.%s is not the owning side of its relationship", m.entity.Type, prop.Name)
	}

	j := Junction{
		Table:     m.Table + "_" + target.Table,
		InColumn:  m.Table + "_" + firstColumn(m.Reflection),
		OutColumn: target.Table + "_" + firstColumn(target.Reflection),
	}
	if rel.Junction != nil {
		if rel.Junction.Table != "" {
			j.Table = rel.Junction.Table
		}
		if rel.Junction.InColumn != "" {
			j.InColumn = rel.Junction.InColumn
		}
		if rel.Junction.OutColumn != "" {
			j.OutColumn = rel.Junction.OutColumn
		}
	}
	return j, nil
}

func firstColumn(r StorageReflection) string {
	pk := r.StoragePrimaryKey()
	if len(pk) == 0 {
		return "id"
	}
	return pk[0]
}
