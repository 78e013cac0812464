package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type DeleteStmt struct {
	With      []*CTE
	Table     *Table
	Where     Expr
	Returning []Expr
}

func (d *DeleteStmt) Type() NodeType         { return NodeDelete }
func (d *DeleteStmt) Accept(v Visitor) error { return v.VisitDelete(d) }
func (d *DeleteStmt) Kind() StatementKind    { return KindDelete }

func (d *DeleteStmt) Fingerprint() uint64 {
	fp := mix("delete:", fingerprintCTEs(d.With), fingerprintOf(d.Table), fingerprintOf(d.Where))
	return utils.Mix64(fp, fingerprintExprs("returning", d.Returning))
}

func (d *DeleteStmt) CloneStatement() Statement {
	return &DeleteStmt{
		With:      cloneCTEs(d.With),
		Table:     d.Table.CloneTable(),
		Where:     cloneExpr(d.Where),
		Returning: cloneExprs(d.Returning),
	}
}
