package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type SelectStmt struct {
	With      []*CTE
	Distinct  bool
	Columns   []Expr
	From      []FromItem
	Joins     []*JoinClause
	Where     Expr
	GroupBy   []Expr
	Having    Expr
	OrderBy   []*OrderByClause
	Limit     Expr
	Offset    Expr
	ForUpdate bool
}

func (s *SelectStmt) Type() NodeType         { return NodeSelect }
func (s *SelectStmt) Accept(v Visitor) error { return v.VisitSelect(s) }
func (s *SelectStmt) Kind() StatementKind    { return KindSelect }

func (s *SelectStmt) Fingerprint() uint64 {
	fp := mix("select:", fingerprintCTEs(s.With), fingerprintBool(s.Distinct), fingerprintExprs("columns", s.Columns))
	for _, f := range s.From {
		fp = utils.Mix64(fp, f.Fingerprint())
	}
	for _, j := range s.Joins {
		fp = utils.Mix64(fp, j.Fingerprint())
	}
	fp = utils.Mix64(fp, fingerprintOf(s.Where))
	fp = utils.Mix64(fp, fingerprintExprs("group", s.GroupBy))
	fp = utils.Mix64(fp, fingerprintOf(s.Having))
	for _, o := range s.OrderBy {
		fp = utils.Mix64(fp, o.Fingerprint())
	}
	fp = utils.Mix64(fp, fingerprintOf(s.Limit))
	fp = utils.Mix64(fp, fingerprintOf(s.Offset))
	if s.ForUpdate {
		fp = utils.Mix64(fp, utils.U64("for_update"))
	}
	return fp
}

func (s *SelectStmt) CloneStatement() Statement {
	c := &SelectStmt{
		With:      cloneCTEs(s.With),
		Distinct:  s.Distinct,
		Columns:   cloneExprs(s.Columns),
		From:      cloneFromItems(s.From),
		Where:     cloneExpr(s.Where),
		GroupBy:   cloneExprs(s.GroupBy),
		Having:    cloneExpr(s.Having),
		Limit:     cloneExpr(s.Limit),
		Offset:    cloneExpr(s.Offset),
		ForUpdate: s.ForUpdate,
	}
	if s.Joins != nil {
		c.Joins = make([]*JoinClause, len(s.Joins))
		for i, j := range s.Joins {
			c.Joins[i] = j.Clone()
		}
	}
	if s.OrderBy != nil {
		c.OrderBy = make([]*OrderByClause, len(s.OrderBy))
		for i, o := range s.OrderBy {
			c.OrderBy[i] = o.Clone()
		}
	}
	return c
}

// HasStarOnly reports whether the target list is a single, possibly qualified, wildcard.
func (s *SelectStmt) HasStarOnly() bool {
	if len(s.Columns) != 1 {
		return false
	}
	col, ok := s.Columns[0].(*Column)
	return ok && col.IsStar()
}
