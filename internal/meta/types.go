package meta

// Cardinality is the kind of a relationship, seen from the declaring side.
type Cardinality string

const (
	OneHasOne   Cardinality = "oneHasOne"
	OneHasMany  Cardinality = "oneHasMany"
	ManyHasOne  Cardinality = "manyHasOne"
	ManyHasMany Cardinality = "manyHasMany"
)

// IsToMany reports whether following the relationship can yield more than
// one target entity.
func (c Cardinality) IsToMany() bool {
	return c == OneHasMany || c == ManyHasMany
}

// Valid reports whether c is one of the known cardinalities.
func (c Cardinality) Valid() bool {
	switch c {
	case OneHasOne, OneHasMany, ManyHasOne, ManyHasMany:
		return true
	}
	return false
}

// Property type tags.
const (
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeString   = "string"
	TypeBool     = "bool"
	TypeDateTime = "datetime"
	TypeUUID     = "uuid"
)

// Property describes one property of an entity.
type Property struct {
	Name string

	// IsPrimary marks primary-key properties. A property that is both
	// primary and virtual is a proxy for the (possibly composite) key.
	IsPrimary bool
	IsVirtual bool

	// Type is one of the Type* tags; empty for relationship properties.
	Type string

	// Column overrides the storage column name.
	Column string

	// Relationship is nil for plain value properties.
	Relationship *Relationship
}

// IsDateTime reports whether values of the property are timestamps.
func (p *Property) IsDateTime() bool {
	return p.Type == TypeDateTime
}

// HasForeignKey reports whether the property is stored as a foreign-key
// column on its own table.
func (p *Property) HasForeignKey() bool {
	if p.Relationship == nil {
		return false
	}
	switch p.Relationship.Cardinality {
	case ManyHasOne:
		return true
	case OneHasOne:
		return p.Relationship.IsMain
	}
	return false
}

// Relationship describes how a property links to another entity.
type Relationship struct {
	// Target is the entity type name on the other side.
	Target string

	// Entity is the resolved target metadata; set when the model is built.
	Entity *Entity

	Cardinality Cardinality

	// IsMain marks the owning side, the one that stores the linkage.
	IsMain bool

	// Property is the inverse property on the target entity.
	Property string

	// Junction overrides the junction table of an owning many-has-many.
	Junction *Junction
}

// Junction is the linkage table of a many-has-many relationship. InColumn
// references the owning side, OutColumn the target side.
type Junction struct {
	Table     string `json:"table" yaml:"table"`
	InColumn  string `json:"in" yaml:"in"`
	OutColumn string `json:"out" yaml:"out"`
}

// Entity is the metadata of one entity type.
type Entity struct {
	Type string

	// PrimaryKey lists the primary-key property names in key order.
	PrimaryKey []string

	properties map[string]*Property
	names      []string
}

// Property returns the named property or a *LookupError.
func (e *Entity) Property(name string) (*Property, error) {
	p, ok := e.properties[name]
	if !ok {
		return nil, &LookupError{Code: ErrCodeUnknownProperty, Entity: e.Type, Property: name}
	}
	return p, nil
}

// HasProperty reports whether the entity declares the property.
func (e *Entity) HasProperty(name string) bool {
	_, ok := e.properties[name]
	return ok
}

// Properties returns all properties in declaration order.
func (e *Entity) Properties() []*Property {
	out := make([]*Property, 0, len(e.names))
	for _, name := range e.names {
		out = append(out, e.properties[name])
	}
	return out
}

// IsCompositeKey reports whether the primary key spans several properties.
func (e *Entity) IsCompositeKey() bool {
	return len(e.PrimaryKey) > 1
}
