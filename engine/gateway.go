package engine

import (
	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/query"
	"github.com/Konsultn-Engineering/sqlfrag/schema"
)

// Gateway runs statements against the table of one entity. A gateway may
// carry a scope: fragments every read, update and delete starts from.
type Gateway struct {
	engine *Engine
	meta   *schema.EntityMeta
	base   *query.FragmentList
}

func (g *Gateway) Meta() *schema.EntityMeta { return g.meta }

// Scope returns a gateway whose base list also holds fragments. The
// receiver is left unchanged.
func (g *Gateway) Scope(fragments ...any) (*Gateway, error) {
	list, err := extend(g.base, fragments)
	if err != nil {
		return nil, err
	}
	return &Gateway{engine: g.engine, meta: g.meta, base: list}, nil
}

// writeScope is the part of the scope that applies to UPDATE and DELETE.
func (g *Gateway) writeScope() *query.FragmentList {
	return g.base.Filter(func(f query.Fragment) bool {
		_, selectOnly := f.(query.SelectFragment)
		return !selectOnly
	})
}

// extend returns a copy of base with fragments added.
func extend(base *query.FragmentList, fragments []any) (*query.FragmentList, error) {
	list := base.Clone()
	extra, err := query.Normalize(fragments)
	if err != nil {
		return nil, err
	}
	if err := list.Add(extra); err != nil {
		return nil, err
	}
	return list, nil
}

func (g *Gateway) builder(kind ast.StatementKind, list *query.FragmentList) func() (ast.Statement, error) {
	return func() (ast.Statement, error) {
		stmt := ast.NewStatement(kind, g.meta.Ref())
		if err := list.Apply(stmt, false); err != nil {
			return nil, err
		}
		return stmt, nil
	}
}

func (g *Gateway) primaryKey(entity any) (query.Condition, error) {
	values, err := g.meta.PrimaryKeyValues(entity)
	if err != nil {
		return nil, err
	}
	return query.PrimaryKey(g.meta.PrimaryKey, values...)
}
