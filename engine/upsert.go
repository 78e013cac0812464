package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/query"
	"github.com/Konsultn-Engineering/sqlfrag/schema"
)

// PrepareUpsert inserts values, updating the other columns of a row that
// already holds the same primary key.
func (g *Gateway) PrepareUpsert(ctx context.Context, values map[string]any, fragments ...any) (*Statement, error) {
	if len(g.meta.PrimaryKey) == 0 {
		return nil, fmt.Errorf("%w: %s", schema.ErrNoPrimaryKey, g.meta.Table)
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}

	pk := make(map[string]bool, len(g.meta.PrimaryKey))
	for _, c := range g.meta.PrimaryKey {
		pk[c] = true
	}
	update := make([]string, 0, len(values))
	for c := range values {
		if !pk[c] {
			update = append(update, c)
		}
	}
	sort.Strings(update)

	rows, err := query.Values(values)
	if err != nil {
		return nil, err
	}
	list, err := extend(query.MustFragmentList(rows, query.OnConflict(g.meta.PrimaryKey, update)), fragments)
	if err != nil {
		return nil, err
	}
	return g.engine.prepare(ctx, cache.OpUpsert, g.meta, list, g.builder(ast.KindInsert, list))
}

func (g *Gateway) Upsert(ctx context.Context, values map[string]any, fragments ...any) (int64, error) {
	stmt, err := g.PrepareUpsert(ctx, values, fragments...)
	if err != nil {
		return 0, err
	}
	return g.engine.Exec(ctx, stmt)
}

// Save inserts entity or overwrites the row with its primary key.
func (g *Gateway) Save(ctx context.Context, entity any) error {
	if err := g.meta.Generate(entity); err != nil {
		return err
	}
	values, err := g.meta.Values(entity)
	if err != nil {
		return err
	}
	_, err = g.Upsert(ctx, values)
	return err
}
