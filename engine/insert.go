package engine

import (
	"context"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/query"
)

func (g *Gateway) PrepareInsert(ctx context.Context, values map[string]any, fragments ...any) (*Statement, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	rows, err := query.Values(values)
	if err != nil {
		return nil, err
	}
	list, err := extend(query.MustFragmentList(rows), fragments)
	if err != nil {
		return nil, err
	}
	return g.engine.prepare(ctx, cache.OpInsert, g.meta, list, g.builder(ast.KindInsert, list))
}

// Insert writes one row and returns the number of inserted rows.
func (g *Gateway) Insert(ctx context.Context, values map[string]any, fragments ...any) (int64, error) {
	stmt, err := g.PrepareInsert(ctx, values, fragments...)
	if err != nil {
		return 0, err
	}
	return g.engine.Exec(ctx, stmt)
}

// Create inserts entity. Generator fields are filled first; a single zero or
// read-only primary key is left to the database and read back into entity.
func (g *Gateway) Create(ctx context.Context, entity any) error {
	meta := g.meta
	if err := meta.Generate(entity); err != nil {
		return err
	}
	values, err := meta.Values(entity)
	if err != nil {
		return err
	}

	var generated string
	if len(meta.PrimaryKey) == 1 {
		pk := meta.PrimaryKey[0]
		if v, ok := values[pk]; !ok || isZero(v) {
			delete(values, pk)
			generated = pk
		}
	}
	if generated == "" {
		_, err := g.Insert(ctx, values)
		return err
	}

	if !g.engine.dialect.SupportsReturning() {
		stmt, err := g.PrepareInsert(ctx, values)
		if err != nil {
			return err
		}
		res, err := g.engine.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		return setColumn(meta, entity, generated, id)
	}

	stmt, err := g.PrepareInsert(ctx, values, query.Returning(generated))
	if err != nil {
		return err
	}
	rows, err := g.engine.Query(ctx, stmt)
	if err != nil {
		return err
	}
	defer rows.Close()
	return scanEntities(meta, rows, entity)
}
