package memory

import (
	"fmt"
	"log/slog"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/value"
)

// Helper evaluates filter expressions against loaded entities of one
// entity type. It implements filter.ArrayHelper.
type Helper struct {
	model    *meta.Model
	entity   *meta.Entity
	registry *filter.Registry
	logger   *slog.Logger
}

// HelperOption configures a Helper.
type HelperOption func(*Helper)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) HelperOption {
	return func(h *Helper) {
		h.logger = l
	}
}

// NewHelper creates a Helper for entityType. A nil registry knows only the
// built-in functions.
func NewHelper(model *meta.Model, entityType string, registry *filter.Registry, opts ...HelperOption) (*Helper, error) {
	em, err := model.Entity(entityType)
	if err != nil {
		return nil, err
	}
	h := &Helper{
		model:    model,
		entity:   em,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Value implements filter.ArrayHelper.
func (h *Helper) Value(e entity.Entity, pathExpr string) (*filter.ValueReference, error) {
	expr, err := filter.ParsePropertyExpr(pathExpr)
	if err != nil {
		return nil, err
	}
	anchor, err := h.anchor(expr.Source)
	if err != nil {
		return nil, err
	}
	return h.valueByTokens(e, expr.Tokens, anchor)
}

// NormalizeValue implements filter.ArrayHelper.
func (h *Helper) NormalizeValue(v any, prop *meta.Property) (any, error) {
	out, err := value.Normalize(v, prop)
	if err != nil {
		return nil, filter.NewInvalidArgumentError("%s: %v", prop.Name, err)
	}
	return out, nil
}

func (h *Helper) anchor(source string) (*meta.Entity, error) {
	if source == "" {
		return h.entity, nil
	}
	em, err := h.model.Entity(source)
	if err != nil {
		return nil, err
	}
	// Overrides only re-read the same rows under other metadata.
	src, err := h.model.Mapper(source)
	if err != nil {
		return nil, err
	}
	own, err := h.model.Mapper(h.entity.Type)
	if err != nil {
		return nil, err
	}
	if src.Table != own.Table {
		return nil, filter.NewInvalidArgumentError("source %s is stored in %s, not %s", source, src.Table, own.Table)
	}
	return em, nil
}

// pending is one unit of resolver work: a value still to be walked with the
// remaining tokens, and the metadata of the entity it belongs to.
type pending struct {
	value  any
	tokens []string
	meta   *meta.Entity
}

// valueByTokens walks tokens from e. Crossing a to-many relationship queues
// every member for the rest of the path, so the result collects one value
// per reachable leaf.
func (h *Helper) valueByTokens(e entity.Entity, tokens []string, anchor *meta.Entity) (*filter.ValueReference, error) {
	terminal, owner, err := resolveTerminal(anchor, tokens)
	if err != nil {
		return nil, err
	}

	var (
		values []any
		fanOut bool
		queue  = []pending{{value: e, tokens: tokens, meta: anchor}}
	)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		cur, em, rest := item.value, item.meta, item.tokens
		expanded := false
		for len(rest) > 0 && cur != nil {
			name := rest[0]
			rest = rest[1:]

			src, ok := cur.(entity.Entity)
			if !ok {
				return nil, filter.NewInvalidArgumentError("cannot read %s.%s from %T", em.Type, name, cur)
			}
			prop, err := em.Property(name)
			if err != nil {
				return nil, err
			}
			cur = propertyValue(src, prop)

			rel := prop.Relationship
			if rel == nil {
				continue
			}
			em = rel.Entity
			if !rel.Cardinality.IsToMany() {
				continue
			}

			fanOut = true
			members, err := toEntities(cur)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", item.meta.Type, name, err)
			}
			for _, m := range members {
				queue = append(queue, pending{value: m, tokens: rest, meta: em})
			}
			expanded = true
			break
		}
		if expanded {
			continue
		}

		v, err := h.NormalizeValue(cur, terminal)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	ref := &filter.ValueReference{
		IsFromHasManyResult: fanOut,
		Property:            terminal,
		Entity:              owner,
	}
	if fanOut {
		if values == nil {
			values = []any{}
		}
		ref.Value = values
	} else {
		ref.Value = values[0]
	}
	return ref, nil
}

// resolveTerminal checks the path against the metadata and returns the
// terminal property and its entity.
func resolveTerminal(anchor *meta.Entity, tokens []string) (*meta.Property, *meta.Entity, error) {
	em := anchor
	var prop *meta.Property
	for i, name := range tokens {
		p, err := em.Property(name)
		if err != nil {
			return nil, nil, err
		}
		prop = p
		if i == len(tokens)-1 {
			break
		}
		if p.Relationship == nil {
			return nil, nil, filter.NewMissingRelationshipError(em.Type, name)
		}
		em = p.Relationship.Entity
	}
	return prop, em, nil
}

// propertyValue reads prop from e. A virtual primary key the entity does not
// store is assembled from the key components.
func propertyValue(e entity.Entity, prop *meta.Property) any {
	if e.HasValue(prop.Name) {
		return e.Value(prop.Name)
	}
	if prop.IsPrimary && prop.IsVirtual {
		if id, ok := entity.PrimaryValue(e); ok {
			return id
		}
	}
	return nil
}

func toEntities(v any) ([]entity.Entity, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []entity.Entity:
		return list, nil
	}
	items, ok := value.ToSlice(v)
	if !ok {
		return nil, filter.NewInvalidArgumentError("to-many relationship holds %T, not a collection", v)
	}
	out := make([]entity.Entity, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		e, ok := item.(entity.Entity)
		if !ok {
			return nil, filter.NewInvalidArgumentError("to-many relationship member is %T, not an entity", item)
		}
		out = append(out, e)
	}
	return out, nil
}
