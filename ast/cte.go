package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type CTE struct {
	Name string
	Stmt Statement
}

func (c *CTE) Type() NodeType         { return NodeCTE }
func (c *CTE) Accept(v Visitor) error { return v.VisitCTE(c) }
func (c *CTE) Fingerprint() uint64 {
	fp := mix("cte:" + c.Name)
	if c.Stmt != nil {
		fp = utils.Mix64(fp, c.Stmt.Fingerprint())
	}
	return fp
}

func (c *CTE) Clone() *CTE {
	out := &CTE{Name: c.Name}
	if c.Stmt != nil {
		out.Stmt = c.Stmt.CloneStatement()
	}
	return out
}

func cloneCTEs(ctes []*CTE) []*CTE {
	if ctes == nil {
		return nil
	}
	out := make([]*CTE, len(ctes))
	for i, c := range ctes {
		out[i] = c.Clone()
	}
	return out
}

func fingerprintCTEs(ctes []*CTE) uint64 {
	fp := mix("with")
	for _, c := range ctes {
		fp = utils.Mix64(fp, c.Fingerprint())
	}
	return fp
}

type Assignment struct {
	Column string
	Value  Expr
}

func (a *Assignment) Type() NodeType         { return NodeAssignment }
func (a *Assignment) Accept(v Visitor) error { return v.VisitAssignment(a) }
func (a *Assignment) Fingerprint() uint64    { return mix("set:"+a.Column, fingerprintOf(a.Value)) }
func (a *Assignment) Clone() *Assignment     { return &Assignment{Column: a.Column, Value: cloneExpr(a.Value)} }

func cloneAssignments(set []*Assignment) []*Assignment {
	if set == nil {
		return nil
	}
	out := make([]*Assignment, len(set))
	for i, a := range set {
		out[i] = a.Clone()
	}
	return out
}

func fingerprintAssignments(set []*Assignment) uint64 {
	fp := mix("assignments")
	for _, a := range set {
		fp = utils.Mix64(fp, a.Fingerprint())
	}
	return fp
}

// OnConflict renders ON CONFLICT (columns) DO NOTHING, or DO UPDATE SET when
// Set is non-empty.
type OnConflict struct {
	Columns []string
	Set     []*Assignment
}

func (o *OnConflict) Type() NodeType         { return NodeOnConflict }
func (o *OnConflict) Accept(v Visitor) error { return v.VisitOnConflict(o) }
func (o *OnConflict) Fingerprint() uint64 {
	fp := mix("conflict")
	for _, c := range o.Columns {
		fp = utils.Mix64(fp, utils.U64(c))
	}
	return utils.Mix64(fp, fingerprintAssignments(o.Set))
}

func (o *OnConflict) Clone() *OnConflict {
	if o == nil {
		return nil
	}
	return &OnConflict{Columns: append([]string(nil), o.Columns...), Set: cloneAssignments(o.Set)}
}
