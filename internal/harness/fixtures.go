package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/value"
)

// Graph is the loaded fixture graph, one record list per entity type in
// primary key order.
type Graph struct {
	byType map[string][]*entity.Record
	byKey  map[string]*entity.Record
}

// Entities returns the records of typ in primary key order.
func (g *Graph) Entities(typ string) []entity.Entity {
	records := g.byType[typ]
	out := make([]entity.Entity, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}

// All returns every record.
func (g *Graph) All() []entity.Entity {
	var out []entity.Entity
	for _, records := range g.byType {
		for _, r := range records {
			out = append(out, r)
		}
	}
	return out
}

// BuildGraph creates records from fixtures in two passes: plain values
// first, then relationships, so fixtures may reference entities declared
// later.
func BuildGraph(model *meta.Model, fixtures []Fixture) (*Graph, error) {
	g := &Graph{
		byType: make(map[string][]*entity.Record),
		byKey:  make(map[string]*entity.Record),
	}

	records := make([]*entity.Record, len(fixtures))
	for i, f := range fixtures {
		em, err := model.Entity(f.Type)
		if err != nil {
			return nil, fmt.Errorf("fixtures[%d]: %w", i, err)
		}
		plain := make(map[string]any)
		for name, raw := range f.Values {
			p, err := em.Property(name)
			if err != nil {
				return nil, fmt.Errorf("fixtures[%d]: %w", i, err)
			}
			if p.Relationship != nil {
				continue
			}
			v, err := value.Normalize(raw, p)
			if err != nil {
				return nil, fmt.Errorf("fixtures[%d].%s: %w", i, name, err)
			}
			plain[name] = v
		}
		records[i] = entity.New(em, plain)
	}

	// Keys that include a relationship are only complete once that
	// relationship is linked, so key relationships go first.
	if err := g.index(records, fixtures, true); err != nil {
		return nil, err
	}
	if err := g.linkAll(model, records, fixtures, true); err != nil {
		return nil, err
	}
	if err := g.index(records, fixtures, false); err != nil {
		return nil, err
	}
	if err := g.linkAll(model, records, fixtures, false); err != nil {
		return nil, err
	}

	for typ, list := range g.byType {
		slices.SortStableFunc(list, func(a, b *entity.Record) int {
			ka, _ := a.PrimaryValue()
			kb, _ := b.PrimaryValue()
			return value.SortCompare(value.Scalar(ka), value.Scalar(kb))
		})
		g.byType[typ] = list
	}
	return g, nil
}

func (g *Graph) linkAll(model *meta.Model, records []*entity.Record, fixtures []Fixture, keys bool) error {
	for i, f := range fixtures {
		em, err := model.Entity(f.Type)
		if err != nil {
			return err
		}
		for name, raw := range f.Values {
			p, err := em.Property(name)
			if err != nil {
				return err
			}
			if p.Relationship == nil || slices.Contains(em.PrimaryKey, name) != keys {
				continue
			}
			if err := g.link(records[i], p, raw); err != nil {
				return fmt.Errorf("fixtures[%d].%s: %w", i, name, err)
			}
		}
	}
	return nil
}

// index registers records by type and key. With partial set, records whose
// key is not complete yet are skipped.
func (g *Graph) index(records []*entity.Record, fixtures []Fixture, partial bool) error {
	g.byType = make(map[string][]*entity.Record)
	g.byKey = make(map[string]*entity.Record)
	for i, r := range records {
		id, ok := r.PrimaryValue()
		if !ok {
			if partial {
				continue
			}
			return fmt.Errorf("fixtures[%d]: %s has no primary value", i, fixtures[i].Type)
		}
		key := recordKey(r.EntityType(), id)
		if _, dup := g.byKey[key]; dup {
			return fmt.Errorf("fixtures[%d]: duplicate %s", i, key)
		}
		g.byKey[key] = r
		g.byType[r.EntityType()] = append(g.byType[r.EntityType()], r)
	}
	return nil
}

// link sets p on r to the referenced target(s) and fills the inverse
// property on each target.
func (g *Graph) link(r *entity.Record, p *meta.Property, raw any) error {
	rel := p.Relationship
	if raw == nil {
		return nil
	}

	var refs []any
	if rel.Cardinality.IsToMany() {
		list, ok := value.ToSlice(raw)
		if !ok {
			return fmt.Errorf("expected a list of %s keys, got %T", rel.Target, raw)
		}
		refs = list
	} else {
		refs = []any{raw}
	}

	var inverse *meta.Property
	if rel.Property != "" {
		inverse, _ = rel.Entity.Property(rel.Property)
	}

	for _, ref := range refs {
		target, ok := g.byKey[recordKey(rel.Target, value.Scalar(ref))]
		if !ok {
			return fmt.Errorf("unknown %s %v", rel.Target, ref)
		}
		if rel.Cardinality.IsToMany() {
			if !hasMember(r.Value(p.Name), target) {
				r.Append(p.Name, target)
			}
		} else {
			r.Set(p.Name, target)
		}

		if inverse == nil {
			continue
		}
		if inverse.Relationship.Cardinality.IsToMany() {
			if !hasMember(target.Value(inverse.Name), r) {
				target.Append(inverse.Name, r)
			}
		} else {
			target.Set(inverse.Name, r)
		}
	}
	return nil
}

func hasMember(v any, r entity.Entity) bool {
	list, _ := v.([]entity.Entity)
	return slices.Contains(list, r)
}

func recordKey(typ string, id any) string {
	return fmt.Sprintf("%s:%v", typ, value.Scalar(id))
}
