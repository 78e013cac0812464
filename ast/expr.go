package ast

import (
	"fmt"
)

type Column struct {
	Table string
	Name  string
}

func (c *Column) Type() NodeType         { return NodeColumn }
func (c *Column) Accept(v Visitor) error { return v.VisitColumn(c) }
func (c *Column) Fingerprint() uint64    { return mix("col:" + c.Table + "." + c.Name) }
func (c *Column) Clone() Expr            { return &Column{Table: c.Table, Name: c.Name} }

// IsStar reports whether the column is a (possibly qualified) wildcard.
func (c *Column) IsStar() bool { return c.Name == "*" }

// Value is a literal rendered inline by the dialect.
type Value struct {
	Val any
}

func (v *Value) Type() NodeType           { return NodeValue }
func (v *Value) Accept(vis Visitor) error { return vis.VisitValue(v) }
func (v *Value) Fingerprint() uint64      { return mix(fmt.Sprintf("val:%T:%v", v.Val, v.Val)) }
func (v *Value) Clone() Expr              { return &Value{Val: v.Val} }

// Param is a named bind parameter. Its value is supplied at execution time.
type Param struct {
	Name string
	// TypeHint is an optional SQL type recorded in the compiled parameter type map.
	TypeHint string
}

func (p *Param) Type() NodeType         { return NodeParam }
func (p *Param) Accept(v Visitor) error { return v.VisitParam(p) }
func (p *Param) Fingerprint() uint64    { return mix("param:" + p.Name + ":" + p.TypeHint) }
func (p *Param) Clone() Expr            { return &Param{Name: p.Name, TypeHint: p.TypeHint} }

type Function struct {
	Name     string
	Args     []Expr
	Distinct bool
}

func (f *Function) Type() NodeType         { return NodeFunction }
func (f *Function) Accept(v Visitor) error { return v.VisitFunction(f) }
func (f *Function) Fingerprint() uint64 {
	return mix("func:"+f.Name, fingerprintBool(f.Distinct), fingerprintExprs("args", f.Args))
}
func (f *Function) Clone() Expr {
	return &Function{Name: f.Name, Args: cloneExprs(f.Args), Distinct: f.Distinct}
}

type AliasedExpr struct {
	Expr  Expr
	Alias string
}

func (a *AliasedExpr) Type() NodeType         { return NodeAliasedExpr }
func (a *AliasedExpr) Accept(v Visitor) error { return v.VisitAliasedExpr(a) }
func (a *AliasedExpr) Fingerprint() uint64 {
	return mix("as:"+a.Alias, fingerprintOf(a.Expr))
}
func (a *AliasedExpr) Clone() Expr { return &AliasedExpr{Expr: cloneExpr(a.Expr), Alias: a.Alias} }

type GroupedExpr struct {
	Expr Expr
}

func (g *GroupedExpr) Type() NodeType         { return NodeGroupedExpr }
func (g *GroupedExpr) Accept(v Visitor) error { return v.VisitGroupedExpr(g) }
func (g *GroupedExpr) Fingerprint() uint64    { return mix("group", fingerprintOf(g.Expr)) }
func (g *GroupedExpr) Clone() Expr            { return &GroupedExpr{Expr: cloneExpr(g.Expr)} }

type BinaryExpr struct {
	Left     Expr
	Operator string
	Right    Expr
}

func (b *BinaryExpr) Type() NodeType         { return NodeBinaryExpr }
func (b *BinaryExpr) Accept(v Visitor) error { return v.VisitBinaryExpr(b) }
func (b *BinaryExpr) Fingerprint() uint64 {
	return mix("bin:"+b.Operator, fingerprintOf(b.Left), fingerprintOf(b.Right))
}
func (b *BinaryExpr) Clone() Expr {
	return &BinaryExpr{Left: cloneExpr(b.Left), Operator: b.Operator, Right: cloneExpr(b.Right)}
}

// LogicalExpr joins its operands with AND or OR.
type LogicalExpr struct {
	Operator string
	Operands []Expr
}

func (l *LogicalExpr) Type() NodeType         { return NodeLogicalExpr }
func (l *LogicalExpr) Accept(v Visitor) error { return v.VisitLogicalExpr(l) }
func (l *LogicalExpr) Fingerprint() uint64    { return fingerprintExprs("logical:"+l.Operator, l.Operands) }
func (l *LogicalExpr) Clone() Expr {
	return &LogicalExpr{Operator: l.Operator, Operands: cloneExprs(l.Operands)}
}

// NotExpr is an explicit negation wrapper for expressions without a native NOT form.
type NotExpr struct {
	Expr Expr
}

func (n *NotExpr) Type() NodeType         { return NodeNotExpr }
func (n *NotExpr) Accept(v Visitor) error { return v.VisitNotExpr(n) }
func (n *NotExpr) Fingerprint() uint64    { return mix("not", fingerprintOf(n.Expr)) }
func (n *NotExpr) Clone() Expr            { return &NotExpr{Expr: cloneExpr(n.Expr)} }

// InExpr is "expr [NOT] IN (list)" or "expr [NOT] IN (subquery)".
type InExpr struct {
	Expr     Expr
	List     []Expr
	Subquery *SelectStmt
	Not      bool
}

func (i *InExpr) Type() NodeType         { return NodeInExpr }
func (i *InExpr) Accept(v Visitor) error { return v.VisitInExpr(i) }
func (i *InExpr) Fingerprint() uint64 {
	return mix("in", fingerprintBool(i.Not), fingerprintOf(i.Expr), fingerprintExprs("list", i.List), fingerprintSelect(i.Subquery))
}
func (i *InExpr) Clone() Expr {
	return &InExpr{Expr: cloneExpr(i.Expr), List: cloneExprs(i.List), Subquery: cloneSelect(i.Subquery), Not: i.Not}
}
func (i *InExpr) Negated() bool       { return i.Not }
func (i *InExpr) SetNegated(not bool) { i.Not = not }

type BetweenExpr struct {
	Expr Expr
	Low  Expr
	High Expr
	Not  bool
}

func (b *BetweenExpr) Type() NodeType         { return NodeBetweenExpr }
func (b *BetweenExpr) Accept(v Visitor) error { return v.VisitBetweenExpr(b) }
func (b *BetweenExpr) Fingerprint() uint64 {
	return mix("between", fingerprintBool(b.Not), fingerprintOf(b.Expr), fingerprintOf(b.Low), fingerprintOf(b.High))
}
func (b *BetweenExpr) Clone() Expr {
	return &BetweenExpr{Expr: cloneExpr(b.Expr), Low: cloneExpr(b.Low), High: cloneExpr(b.High), Not: b.Not}
}
func (b *BetweenExpr) Negated() bool       { return b.Not }
func (b *BetweenExpr) SetNegated(not bool) { b.Not = not }

type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (i *IsNullExpr) Type() NodeType         { return NodeIsNullExpr }
func (i *IsNullExpr) Accept(v Visitor) error { return v.VisitIsNullExpr(i) }
func (i *IsNullExpr) Fingerprint() uint64 {
	return mix("isnull", fingerprintBool(i.Not), fingerprintOf(i.Expr))
}
func (i *IsNullExpr) Clone() Expr         { return &IsNullExpr{Expr: cloneExpr(i.Expr), Not: i.Not} }
func (i *IsNullExpr) Negated() bool       { return i.Not }
func (i *IsNullExpr) SetNegated(not bool) { i.Not = not }

type ExistsExpr struct {
	Subquery *SelectStmt
	Not      bool
}

func (e *ExistsExpr) Type() NodeType         { return NodeExistsExpr }
func (e *ExistsExpr) Accept(v Visitor) error { return v.VisitExistsExpr(e) }
func (e *ExistsExpr) Fingerprint() uint64 {
	return mix("exists", fingerprintBool(e.Not), fingerprintSelect(e.Subquery))
}
func (e *ExistsExpr) Clone() Expr         { return &ExistsExpr{Subquery: cloneSelect(e.Subquery), Not: e.Not} }
func (e *ExistsExpr) Negated() bool       { return e.Not }
func (e *ExistsExpr) SetNegated(not bool) { e.Not = not }

type SubqueryExpr struct {
	Stmt *SelectStmt
}

func (s *SubqueryExpr) Type() NodeType         { return NodeSubqueryExpr }
func (s *SubqueryExpr) Accept(v Visitor) error { return v.VisitSubqueryExpr(s) }
func (s *SubqueryExpr) Fingerprint() uint64    { return mix("subquery", fingerprintSelect(s.Stmt)) }
func (s *SubqueryExpr) Clone() Expr            { return &SubqueryExpr{Stmt: cloneSelect(s.Stmt)} }
