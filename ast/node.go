package ast

type NodeType int

const (
	NodeSelect NodeType = iota
	NodeInsert
	NodeUpdate
	NodeDelete
	NodeColumn
	NodeTable
	NodeSubqueryFrom
	NodeValue
	NodeParam
	NodeFunction
	NodeAliasedExpr
	NodeGroupedExpr
	NodeBinaryExpr
	NodeLogicalExpr
	NodeNotExpr
	NodeInExpr
	NodeBetweenExpr
	NodeIsNullExpr
	NodeExistsExpr
	NodeSubqueryExpr
	NodeJoin
	NodeOrderBy
	NodeCTE
	NodeAssignment
	NodeOnConflict
)

type Node interface {
	Type() NodeType
	Accept(v Visitor) error
	Fingerprint() uint64
}

// Expr is a node usable in expression position. Clone returns a deep copy
// that shares no nodes with the receiver.
type Expr interface {
	Node
	Clone() Expr
}

// Negatable is implemented by predicates that carry their own NOT flag
// (NOT IN, NOT BETWEEN, IS NOT NULL, NOT EXISTS).
type Negatable interface {
	Expr
	Negated() bool
	SetNegated(not bool)
}

// FromItem is anything that can be listed in FROM or joined.
type FromItem interface {
	Node
	CloneFrom() FromItem
	// RefName is the name other expressions use to qualify columns of the item.
	RefName() string
}

type StatementKind int

const (
	KindSelect StatementKind = iota
	KindInsert
	KindUpdate
	KindDelete
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

type Statement interface {
	Node
	Kind() StatementKind
	CloneStatement() Statement
}
