package engine

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/query"
	"github.com/Konsultn-Engineering/sqlfrag/schema"
)

func (g *Gateway) PrepareUpdate(ctx context.Context, set map[string]any, fragments ...any) (*Statement, error) {
	if len(set) == 0 {
		return nil, ErrNoValues
	}
	for c := range set {
		if _, ok := g.meta.ColumnMap[c]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", schema.ErrUnknownColumn, g.meta.Table, c)
		}
	}
	list, err := extend(g.writeScope(), append([]any{query.Set(set)}, fragments...))
	if err != nil {
		return nil, err
	}
	return g.engine.prepare(ctx, cache.OpUpdate, g.meta, list, g.builder(ast.KindUpdate, list))
}

// Update sets columns on every row matched by fragments and the gateway
// scope. It returns the number of updated rows.
func (g *Gateway) Update(ctx context.Context, set map[string]any, fragments ...any) (int64, error) {
	stmt, err := g.PrepareUpdate(ctx, set, fragments...)
	if err != nil {
		return 0, err
	}
	return g.engine.Exec(ctx, stmt)
}

// UpdateEntity writes columns of entity (all writable columns by default) to
// the row with its primary key.
func (g *Gateway) UpdateEntity(ctx context.Context, entity any, columns ...string) (int64, error) {
	set, err := g.meta.Values(entity, columns...)
	if err != nil {
		return 0, err
	}
	for _, pk := range g.meta.PrimaryKey {
		delete(set, pk)
	}
	where, err := g.primaryKey(entity)
	if err != nil {
		return 0, err
	}
	return g.Update(ctx, set, where)
}
