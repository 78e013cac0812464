package ast

type Visitor interface {
	VisitSelect(*SelectStmt) error
	VisitInsert(*InsertStmt) error
	VisitUpdate(*UpdateStmt) error
	VisitDelete(*DeleteStmt) error

	VisitColumn(*Column) error
	VisitTable(*Table) error
	VisitSubqueryFrom(*SubqueryFrom) error
	VisitValue(*Value) error
	VisitParam(*Param) error
	VisitFunction(*Function) error
	VisitAliasedExpr(*AliasedExpr) error
	VisitGroupedExpr(*GroupedExpr) error
	VisitBinaryExpr(*BinaryExpr) error
	VisitLogicalExpr(*LogicalExpr) error
	VisitNotExpr(*NotExpr) error
	VisitInExpr(*InExpr) error
	VisitBetweenExpr(*BetweenExpr) error
	VisitIsNullExpr(*IsNullExpr) error
	VisitExistsExpr(*ExistsExpr) error
	VisitSubqueryExpr(*SubqueryExpr) error

	VisitJoinClause(*JoinClause) error
	VisitOrderByClause(*OrderByClause) error
	VisitCTE(*CTE) error
	VisitAssignment(*Assignment) error
	VisitOnConflict(*OnConflict) error
}
