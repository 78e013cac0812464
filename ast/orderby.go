package ast

type OrderByClause struct {
	Expr Expr
	Desc bool
}

func (o *OrderByClause) Type() NodeType         { return NodeOrderBy }
func (o *OrderByClause) Accept(v Visitor) error { return v.VisitOrderByClause(o) }
func (o *OrderByClause) Fingerprint() uint64 {
	return mix("order", fingerprintBool(o.Desc), fingerprintOf(o.Expr))
}

func (o *OrderByClause) Clone() *OrderByClause {
	return &OrderByClause{Expr: cloneExpr(o.Expr), Desc: o.Desc}
}
