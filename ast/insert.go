package ast

import (
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

type InsertStmt struct {
	With       []*CTE
	Table      *Table
	Columns    []string
	Rows       [][]Expr
	Select     *SelectStmt
	OnConflict *OnConflict
	Returning  []Expr
}

func (i *InsertStmt) Type() NodeType         { return NodeInsert }
func (i *InsertStmt) Accept(v Visitor) error { return v.VisitInsert(i) }
func (i *InsertStmt) Kind() StatementKind    { return KindInsert }

func (i *InsertStmt) Fingerprint() uint64 {
	fp := mix("insert:", fingerprintCTEs(i.With), fingerprintOf(i.Table))
	for _, c := range i.Columns {
		fp = utils.Mix64(fp, utils.U64(c))
	}
	for _, row := range i.Rows {
		fp = utils.Mix64(fp, fingerprintExprs("row", row))
	}
	fp = utils.Mix64(fp, fingerprintSelect(i.Select))
	if i.OnConflict != nil {
		fp = utils.Mix64(fp, i.OnConflict.Fingerprint())
	}
	return utils.Mix64(fp, fingerprintExprs("returning", i.Returning))
}

func (i *InsertStmt) CloneStatement() Statement {
	c := &InsertStmt{
		With:       cloneCTEs(i.With),
		Table:      i.Table.CloneTable(),
		Columns:    append([]string(nil), i.Columns...),
		Select:     cloneSelect(i.Select),
		OnConflict: i.OnConflict.Clone(),
		Returning:  cloneExprs(i.Returning),
	}
	if i.Rows != nil {
		c.Rows = make([][]Expr, len(i.Rows))
		for n, row := range i.Rows {
			c.Rows[n] = cloneExprs(row)
		}
	}
	return c
}
