package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type UpdateStmt struct {
	With      []*CTE
	Table     *Table
	Set       []*Assignment
	From      []FromItem
	Where     Expr
	Returning []Expr
}

func (u *UpdateStmt) Type() NodeType         { return NodeUpdate }
func (u *UpdateStmt) Accept(v Visitor) error { return v.VisitUpdate(u) }
func (u *UpdateStmt) Kind() StatementKind    { return KindUpdate }

func (u *UpdateStmt) Fingerprint() uint64 {
	fp := mix("update:", fingerprintCTEs(u.With), fingerprintOf(u.Table), fingerprintAssignments(u.Set))
	for _, f := range u.From {
		fp = utils.Mix64(fp, f.Fingerprint())
	}
	fp = utils.Mix64(fp, fingerprintOf(u.Where))
	return utils.Mix64(fp, fingerprintExprs("returning", u.Returning))
}

func (u *UpdateStmt) CloneStatement() Statement {
	return &UpdateStmt{
		With:      cloneCTEs(u.With),
		Table:     u.Table.CloneTable(),
		Set:       cloneAssignments(u.Set),
		From:      cloneFromItems(u.From),
		Where:     cloneExpr(u.Where),
		Returning: cloneExprs(u.Returning),
	}
}
