package engine

import (
	"context"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/query"
)

// countAlias names the derived table DISTINCT and grouped selects are
// counted from.
const countAlias = "counted"

// TableSelect is a SELECT on a gateway's table. It owns a copy of the
// gateway's base list, so it can be reused and shared read-only.
type TableSelect struct {
	gateway *Gateway
	list    *query.FragmentList
}

func (g *Gateway) Select(fragments ...any) (*TableSelect, error) {
	list, err := extend(g.base, fragments)
	if err != nil {
		return nil, err
	}
	return &TableSelect{gateway: g, list: list}, nil
}

func (s *TableSelect) Fragments() *query.FragmentList { return s.list.Clone() }

func (s *TableSelect) Statement(ctx context.Context) (*Statement, error) {
	g := s.gateway
	return g.engine.prepare(ctx, cache.OpSelect, g.meta, s.list, g.builder(ast.KindSelect, s.list))
}

// CountStatement counts the rows the select would return, ignoring ORDER BY,
// LIMIT and OFFSET.
func (s *TableSelect) CountStatement(ctx context.Context) (*Statement, error) {
	g := s.gateway
	return g.engine.prepare(ctx, cache.OpCount, g.meta, s.list, func() (ast.Statement, error) {
		return s.buildCount()
	})
}

func (s *TableSelect) buildCount() (ast.Statement, error) {
	ref := s.gateway.meta.Ref()
	sel := ast.NewStatement(ast.KindSelect, ref).(*ast.SelectStmt)
	if err := s.list.Apply(sel, true); err != nil {
		return nil, err
	}
	if !sel.Distinct && len(sel.GroupBy) == 0 {
		sel.Columns = []ast.Expr{ast.CountAll()}
		return sel, nil
	}

	// the target list decides what DISTINCT and GROUP BY count
	inner := ast.NewStatement(ast.KindSelect, ref).(*ast.SelectStmt)
	if err := s.list.Apply(inner, false); err != nil {
		return nil, err
	}
	inner.OrderBy, inner.Limit, inner.Offset, inner.ForUpdate = nil, nil, nil, false

	outer := &ast.SelectStmt{
		With:    inner.With,
		Columns: []ast.Expr{ast.CountAll()},
		From:    []ast.FromItem{&ast.SubqueryFrom{Stmt: inner, Alias: countAlias}},
	}
	inner.With = nil
	return outer, nil
}

// Fetch scans every row into dest, a pointer to a slice of the entity (or
// of pointers to it), or a pointer to a single entity.
func (s *TableSelect) Fetch(ctx context.Context, dest any) error {
	stmt, err := s.Statement(ctx)
	if err != nil {
		return err
	}
	rows, err := s.gateway.engine.Query(ctx, stmt)
	if err != nil {
		return err
	}
	defer rows.Close()
	return scanEntities(s.gateway.meta, rows, dest)
}

// FetchMaps returns every row as a column name to value map.
func (s *TableSelect) FetchMaps(ctx context.Context) ([]map[string]any, error) {
	stmt, err := s.Statement(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.gateway.engine.Query(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMaps(rows)
}

func (s *TableSelect) Count(ctx context.Context) (int64, error) {
	stmt, err := s.CountStatement(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := s.gateway.engine.Query(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, ErrNotFound
	}
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, rows.Err()
}

// Exists reports whether the select matches at least one row. A LIMIT set
// by the caller is replaced by LIMIT 1; an OFFSET is kept.
func (s *TableSelect) Exists(ctx context.Context) (bool, error) {
	list := s.list.Filter(func(f query.Fragment) bool {
		key, _ := f.Key()
		return key != "limit"
	})
	if err := list.Add(query.Limit(1)); err != nil {
		return false, err
	}
	single := &TableSelect{gateway: s.gateway, list: list}
	stmt, err := single.Statement(ctx)
	if err != nil {
		return false, err
	}
	rows, err := s.gateway.engine.Query(ctx, stmt)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}
