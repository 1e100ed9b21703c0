package store

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/relfilter/internal/meta"
)

// CreateStatements returns the CREATE TABLE statements for model: entity
// tables in type order, then junction tables.
func CreateStatements(model *meta.Model) ([]string, error) {
	var tables, junctions []string
	seen := make(map[string]bool)

	for _, typ := range model.Types() {
		mapper, err := model.Mapper(typ)
		if err != nil {
			return nil, err
		}
		cols, err := columns(model, mapper)
		if err != nil {
			return nil, err
		}
		defs := lo.Map(cols, func(c column, _ int) string { return c.name + " " + c.sqlType })
		defs = append(defs, "PRIMARY KEY ("+strings.Join(mapper.Reflection.StoragePrimaryKey(), ", ")+")")
		tables = append(tables, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", mapper.Table, strings.Join(defs, ", ")))

		for _, p := range mapper.Entity().Properties() {
			rel := p.Relationship
			if rel == nil || rel.Cardinality != meta.ManyHasMany || !rel.IsMain {
				continue
			}
			target, err := model.Mapper(rel.Target)
			if err != nil {
				return nil, err
			}
			j, err := mapper.ManyHasManyParameters(p, target)
			if err != nil {
				return nil, err
			}
			if seen[j.Table] {
				continue
			}
			seen[j.Table] = true
			junctions = append(junctions, fmt.Sprintf(
				"CREATE TABLE IF NOT EXISTS %s (%s %s, %s %s, PRIMARY KEY (%s, %s))",
				j.Table,
				j.InColumn, keyType(model, mapper.Entity()),
				j.OutColumn, keyType(model, target.Entity()),
				j.InColumn, j.OutColumn,
			))
		}
	}
	return append(tables, junctions...), nil
}

type column struct {
	name     string
	sqlType  string
	property *meta.Property
}

// columns lists the stored columns of an entity: plain non-virtual
// properties and foreign keys of owning to-one relationships.
func columns(model *meta.Model, mapper *meta.Mapper) ([]column, error) {
	var out []column
	for _, p := range mapper.Entity().Properties() {
		if p.IsVirtual {
			continue
		}
		typ := sqlType(p.Type)
		if p.Relationship != nil {
			if !p.HasForeignKey() {
				continue
			}
			target, err := model.Entity(p.Relationship.Target)
			if err != nil {
				return nil, err
			}
			typ = keyType(model, target)
		}
		out = append(out, column{
			name:     mapper.Reflection.ConvertEntityToStorageKey(p.Name),
			sqlType:  typ,
			property: p,
		})
	}
	return out, nil
}

// keyType is the column type of the first primary key component of e.
func keyType(model *meta.Model, e *meta.Entity) string {
	p, err := e.Property(e.PrimaryKey[0])
	if err != nil {
		return "INTEGER"
	}
	if p.Relationship != nil {
		target, err := model.Entity(p.Relationship.Target)
		if err != nil {
			return "INTEGER"
		}
		return keyType(model, target)
	}
	return sqlType(p.Type)
}

func sqlType(t string) string {
	switch t {
	case meta.TypeFloat:
		return "REAL"
	case meta.TypeString, meta.TypeUUID:
		return "TEXT"
	}
	return "INTEGER"
}
