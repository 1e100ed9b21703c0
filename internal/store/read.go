package store

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/roach88/relfilter/internal/filter"
	"github.com/roach88/relfilter/internal/querysql"
	"github.com/roach88/relfilter/internal/value"
)

// Find runs call and orders against the tables of entityType and returns
// the primary values of the matching rows: scalars for a single-column
// key, []any tuples for a composite key. Rows tied on orders come back in
// primary key order. Returns an empty slice (not nil) when nothing matches.
func (s *Store) Find(ctx context.Context, entityType string, registry *filter.Registry, call *filter.Call, orders []filter.Order) ([]any, error) {
	h, err := querysql.NewHelper(s.model, entityType, registry)
	if err != nil {
		return nil, err
	}
	b, err := h.Build(filter.DialectSQLite, call, orders)
	if err != nil {
		return nil, err
	}

	mapper, err := s.model.Mapper(entityType)
	if err != nil {
		return nil, err
	}
	pk := lo.Map(mapper.Reflection.StoragePrimaryKey(), func(col string, _ int) string {
		return b.FromAlias() + "." + col
	})
	b.Columns(pk...)
	b.OrderBy(lo.Map(pk, func(col string, _ int) string { return col + " ASC" })...)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", entityType, err)
	}
	defer rows.Close()

	ids := []any{}
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", entityType, err)
		}
		cols = lo.Map(cols, func(v any, _ int) any { return scanned(v) })
		if len(cols) == 1 {
			ids = append(ids, cols[0])
		} else {
			ids = append(ids, cols)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", entityType, err)
	}
	return ids, nil
}

func scanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return value.Scalar(v)
}
