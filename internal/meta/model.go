package meta

import (
	"fmt"
	"sort"

	"github.com/ettle/strcase"
)

// EntityDefinition is the declarative form of an entity, as read from CUE or
// YAML model files.
type EntityDefinition struct {
	Table      string                        `json:"table,omitempty" yaml:"table,omitempty"`
	PrimaryKey []string                      `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Properties map[string]PropertyDefinition `json:"properties" yaml:"properties"`
}

// PropertyDefinition is the declarative form of a property.
type PropertyDefinition struct {
	Type         string                  `json:"type,omitempty" yaml:"type,omitempty"`
	Primary      bool                    `json:"primary,omitempty" yaml:"primary,omitempty"`
	Virtual      bool                    `json:"virtual,omitempty" yaml:"virtual,omitempty"`
	Column       string                  `json:"column,omitempty" yaml:"column,omitempty"`
	Relationship *RelationshipDefinition `json:"relationship,omitempty" yaml:"relationship,omitempty"`
}

// RelationshipDefinition is the declarative form of a relationship.
type RelationshipDefinition struct {
	Target      string      `json:"target" yaml:"target"`
	Cardinality Cardinality `json:"cardinality" yaml:"cardinality"`
	Main        bool        `json:"main,omitempty" yaml:"main,omitempty"`
	Property    string      `json:"property,omitempty" yaml:"property,omitempty"`
	Junction    *Junction   `json:"junction,omitempty" yaml:"junction,omitempty"`
}

// Model is the immutable set of entity metadata and mappers.
type Model struct {
	entities map[string]*Entity
	mappers  map[string]*Mapper
	types    []string
}

// NewModel builds and validates a model. Relationship targets are resolved
// and inverse properties are checked against the target entity.
func NewModel(defs map[string]EntityDefinition) (*Model, error) {
	m := &Model{
		entities: make(map[string]*Entity, len(defs)),
		mappers:  make(map[string]*Mapper, len(defs)),
	}

	for typ := range defs {
		m.types = append(m.types, typ)
	}
	sort.Strings(m.types)

	for _, typ := range m.types {
		e, err := buildEntity(typ, defs[typ])
		if err != nil {
			return nil, err
		}
		m.entities[typ] = e

		table := defs[typ].Table
		if table == "" {
			table = strcase.ToSnake(typ)
		}
		m.mappers[typ] = &Mapper{Table: table, Reflection: NewNamingReflection(e), entity: e}
	}

	for _, typ := range m.types {
		if err := m.linkRelationships(m.entities[typ]); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Entity returns the metadata of an entity type.
func (m *Model) Entity(typ string) (*Entity, error) {
	e, ok := m.entities[typ]
	if !ok {
		return nil, &LookupError{Code: ErrCodeUnknownEntity, Entity: typ}
	}
	return e, nil
}

// Mapper returns the mapper of an entity type.
func (m *Model) Mapper(typ string) (*Mapper, error) {
	mp, ok := m.mappers[typ]
	if !ok {
		return nil, &LookupError{Code: ErrCodeUnknownEntity, Entity: typ}
	}
	return mp, nil
}

// Types returns all entity type names, sorted.
func (m *Model) Types() []string {
	return append([]string(nil), m.types...)
}

func buildEntity(typ string, def EntityDefinition) (*Entity, error) {
	e := &Entity{
		Type:       typ,
		properties: make(map[string]*Property, len(def.Properties)),
	}

	for name := range def.Properties {
		e.names = append(e.names, name)
	}
	sort.Strings(e.names)

	var primaries []string
	for _, name := range e.names {
		pd := def.Properties[name]
		if !validType(pd.Type) {
			return nil, &DefinitionError{Entity: typ, Property: name, Message: fmt.Sprintf("unknown type %q", pd.Type)}
		}
		p := &Property{
			Name:      name,
			IsPrimary: pd.Primary,
			IsVirtual: pd.Virtual,
			Type:      pd.Type,
			Column:    pd.Column,
		}
		if rd := pd.Relationship; rd != nil {
			if rd.Target == "" {
				return nil, &DefinitionError{Entity: typ, Property: name, Message: "relationship target is required"}
			}
			if !rd.Cardinality.Valid() {
				return nil, &DefinitionError{Entity: typ, Property: name, Message: fmt.Sprintf("unknown cardinality %q", rd.Cardinality)}
			}
			p.Relationship = &Relationship{
				Target:      rd.Target,
				Cardinality: rd.Cardinality,
				IsMain:      rd.Main,
				Property:    rd.Property,
				Junction:    rd.Junction,
			}
		}
		if p.IsPrimary && !p.IsVirtual {
			primaries = append(primaries, name)
		}
		e.properties[name] = p
	}

	switch {
	case len(def.PrimaryKey) > 0:
		e.PrimaryKey = append([]string(nil), def.PrimaryKey...)
	case len(primaries) == 1:
		e.PrimaryKey = primaries
	case len(primaries) == 0:
		return nil, &DefinitionError{Entity: typ, Message: "no primary key property"}
	default:
		return nil, &DefinitionError{Entity: typ, Message: "composite primary key needs an explicit primaryKey order"}
	}

	for _, name := range e.PrimaryKey {
		p, ok := e.properties[name]
		if !ok {
			return nil, &DefinitionError{Entity: typ, Property: name, Message: "primary key names an unknown property"}
		}
		if p.IsVirtual {
			return nil, &DefinitionError{Entity: typ, Property: name, Message: "primary key component cannot be virtual"}
		}
		if p.Relationship != nil && !p.HasForeignKey() {
			return nil, &DefinitionError{Entity: typ, Property: name, Message: "primary key component must be stored on the entity"}
		}
		p.IsPrimary = true
	}

	return e, nil
}

func (m *Model) linkRelationships(e *Entity) error {
	for _, p := range e.Properties() {
		rel := p.Relationship
		if rel == nil {
			continue
		}
		target, ok := m.entities[rel.Target]
		if !ok {
			return &DefinitionError{Entity: e.Type, Property: p.Name, Message: fmt.Sprintf("unknown target entity %q", rel.Target)}
		}
		rel.Entity = target

		needsInverse := rel.Cardinality == OneHasMany ||
			(rel.Cardinality == OneHasOne && !rel.IsMain) ||
			(rel.Cardinality == ManyHasMany && !rel.IsMain)
		if needsInverse && rel.Property == "" {
			return &DefinitionError{Entity: e.Type, Property: p.Name, Message: "non-owning relationship needs the inverse property"}
		}
		if rel.Property == "" {
			continue
		}

		inverse, ok := target.properties[rel.Property]
		if !ok || inverse.Relationship == nil {
			return &DefinitionError{Entity: e.Type, Property: p.Name, Message: fmt.Sprintf("inverse property %s.%s is not a relationship", rel.Target, rel.Property)}
		}
		if needsInverse && !inverse.HasForeignKey() && !(inverse.Relationship.Cardinality == ManyHasMany && inverse.Relationship.IsMain) {
			return &DefinitionError{Entity: e.Type, Property: p.Name, Message: fmt.Sprintf("inverse property %s.%s does not own the relationship", rel.Target, rel.Property)}
		}
	}
	return nil
}

func validType(t string) bool {
	switch t {
	case "", TypeInt, TypeFloat, TypeString, TypeBool, TypeDateTime, TypeUUID:
		return true
	}
	return false
}
