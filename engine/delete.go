package engine

import (
	"context"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
)

func (g *Gateway) PrepareDelete(ctx context.Context, fragments ...any) (*Statement, error) {
	list, err := extend(g.writeScope(), fragments)
	if err != nil {
		return nil, err
	}
	return g.engine.prepare(ctx, cache.OpDelete, g.meta, list, g.builder(ast.KindDelete, list))
}

// Delete removes every row matched by fragments and the gateway scope.
func (g *Gateway) Delete(ctx context.Context, fragments ...any) (int64, error) {
	stmt, err := g.PrepareDelete(ctx, fragments...)
	if err != nil {
		return 0, err
	}
	return g.engine.Exec(ctx, stmt)
}

// Remove deletes the row with the primary key of entity.
func (g *Gateway) Remove(ctx context.Context, entity any) (int64, error) {
	where, err := g.primaryKey(entity)
	if err != nil {
		return 0, err
	}
	return g.Delete(ctx, where)
}
