package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/relfilter/internal/entity"
	"github.com/roach88/relfilter/internal/meta"
	"github.com/roach88/relfilter/internal/value"
)

// Insert writes entities and the junction rows of their owning
// many-has-many relationships in one transaction. Related entities are
// referenced by primary value and must be inserted as well; insertion order
// does not matter. Junction rows already present are skipped.
func (s *Store) Insert(ctx context.Context, entities ...entity.Entity) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entities {
		stmts, err := s.insertStatements(e)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			query, args, err := stmt.ToSql()
			if err != nil {
				return fmt.Errorf("build insert for %s: %w", e.EntityType(), err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert %s: %w", e.EntityType(), err)
			}
		}
	}
	return tx.Commit()
}

func (s *Store) insertStatements(e entity.Entity) ([]sq.InsertBuilder, error) {
	mapper, err := s.model.Mapper(e.EntityType())
	if err != nil {
		return nil, err
	}
	em := mapper.Entity()

	row := make(map[string]any)
	var junctions []sq.InsertBuilder
	for _, p := range em.Properties() {
		if p.IsVirtual || !e.HasValue(p.Name) {
			continue
		}
		raw := e.Value(p.Name)

		rel := p.Relationship
		switch {
		case rel == nil, p.HasForeignKey():
			v, err := value.Normalize(raw, p)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", em.Type, p.Name, err)
			}
			row[p.Name] = v
		case rel.Cardinality == meta.ManyHasMany && rel.IsMain:
			stmts, err := s.junctionRows(mapper, p, e, raw)
			if err != nil {
				return nil, err
			}
			junctions = append(junctions, stmts...)
		}
	}

	insert := sq.Insert(mapper.Table).SetMap(mapper.Reflection.ConvertEntityToStorage(row))
	return append([]sq.InsertBuilder{insert}, junctions...), nil
}

func (s *Store) junctionRows(mapper *meta.Mapper, p *meta.Property, e entity.Entity, raw any) ([]sq.InsertBuilder, error) {
	target, err := s.model.Mapper(p.Relationship.Target)
	if err != nil {
		return nil, err
	}
	j, err := mapper.ManyHasManyParameters(p, target)
	if err != nil {
		return nil, err
	}

	id, ok := entity.PrimaryValue(e)
	if !ok {
		return nil, fmt.Errorf("%s.%s: owner has no primary value", mapper.Entity().Type, p.Name)
	}
	members, ok := value.ToSlice(raw)
	if !ok {
		return nil, fmt.Errorf("%s.%s: expected a collection, got %T", mapper.Entity().Type, p.Name, raw)
	}

	stmts := make([]sq.InsertBuilder, 0, len(members))
	for _, m := range members {
		member, ok := m.(entity.Entity)
		if !ok {
			return nil, fmt.Errorf("%s.%s: member is %T, not an entity", mapper.Entity().Type, p.Name, m)
		}
		memberID, ok := entity.PrimaryValue(member)
		if !ok {
			return nil, fmt.Errorf("%s.%s: member has no primary value", mapper.Entity().Type, p.Name)
		}
		stmts = append(stmts, sq.Insert(j.Table).
			Options("OR IGNORE").
			Columns(j.InColumn, j.OutColumn).
			Values(value.Scalar(id), value.Scalar(memberID)))
	}
	return stmts, nil
}
