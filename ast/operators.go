package ast

const (
	OpEqual              = "="
	OpNotEqual           = "<>"
	OpLessThan           = "<"
	OpLessThanOrEqual    = "<="
	OpGreaterThan        = ">"
	OpGreaterThanOrEqual = ">="
)

// Logical Operators
const (
	OpAnd = "AND"
	OpOr  = "OR"
	OpNot = "NOT"
)

// Pattern Matching
const (
	OpLike  = "LIKE"
	OpILike = "ILIKE"
)

// Arithmetic Operators
const (
	OpAdd      = "+"
	OpSubtract = "-"
	OpMultiply = "*"
	OpDivide   = "/"
)

// String Operations
const (
	OpConcat = "||"
)

// JSON Operators (PostgreSQL)
const (
	OpJsonExtract     = "->"
	OpJsonExtractText = "->>"
	OpJsonContains    = "@>"
)

// IsComparison reports whether op is a binary comparison operator.
func IsComparison(op string) bool {
	switch op {
	case OpEqual, OpNotEqual, OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual, OpLike, OpILike:
		return true
	}
	return false
}
