package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

// Condition is a fragment producing a boolean expression. Applied to a
// statement it is ANDed into the WHERE clause.
//
// Column references in conditions use ast.SelfAlias for the statement's own
// table.
type Condition interface {
	Fragment
	Parametrized
	Expression() (ast.Expr, error)
}

type condition struct {
	name   string
	key    string
	keyed  bool
	params *Parameters
	tmpl   *exprTemplate
}

func newCondition(name, key string, keyed bool, params map[string]any, build func() (ast.Expr, error)) *condition {
	owner := name
	if keyed {
		owner = name + " " + key
	}
	return &condition{
		name:   name,
		key:    key,
		keyed:  keyed,
		params: NewParameters(owner, params),
		tmpl:   newTemplate(build),
	}
}

func (c *condition) Priority() int                 { return PriorityDefault }
func (c *condition) Key() (string, bool)           { return c.key, c.keyed }
func (c *condition) Parameters() *Parameters       { return c.params }
func (c *condition) Expression() (ast.Expr, error) { return c.tmpl.generate() }
func (c *condition) String() string                { return c.name + "(" + c.key + ")" }

func (c *condition) ApplyTo(stmt ast.Statement, _ *BuildContext) error {
	e, err := c.Expression()
	if err != nil {
		return err
	}
	if !ast.AddWhere(stmt, e) {
		return mismatch(c.name, "SELECT, UPDATE or DELETE", stmt)
	}
	return nil
}

// qualify resolves "col" to self.col and keeps "t.col" as is.
func qualify(column string) *ast.Column {
	c := ast.Col(column)
	if c.Table == "" {
		c.Table = ast.SelfAlias
	}
	return c
}

var opNames = map[string]string{
	ast.OpEqual:              "eq",
	ast.OpNotEqual:           "ne",
	ast.OpLessThan:           "lt",
	ast.OpLessThanOrEqual:    "lte",
	ast.OpGreaterThan:        "gt",
	ast.OpGreaterThanOrEqual: "gte",
	ast.OpLike:               "like",
	ast.OpILike:              "ilike",
}

// paramName derives a parameter name from the qualified column and the
// operator, e.g. self_age_gte for Gte("age", ...).
func paramName(column, op string) string {
	col := qualify(column)
	suffix, ok := opNames[strings.ToUpper(op)]
	if !ok {
		suffix = strings.ToLower(strings.ReplaceAll(op, " ", "_"))
	}
	return col.Table + "_" + col.Name + "_" + suffix
}

// Compare builds "column op :param". Unqualified columns refer to self.
func Compare(column, op, param string, value any) (Condition, error) {
	if !ast.IsComparison(op) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
	}
	col := qualify(column)
	key := "cmp." + col.Table + "." + col.Name + " " + op + " :" + param
	return newCondition("compare", key, true, map[string]any{param: value}, func() (ast.Expr, error) {
		return &ast.BinaryExpr{Left: col.Clone(), Operator: op, Right: &ast.Param{Name: param}}, nil
	}), nil
}

func mustCompare(column, op string, value any) Condition {
	c, err := Compare(column, op, paramName(column, op), value)
	if err != nil {
		panic(err)
	}
	return c
}

func Eq(column string, value any) Condition    { return mustCompare(column, ast.OpEqual, value) }
func NotEq(column string, value any) Condition { return mustCompare(column, ast.OpNotEqual, value) }
func Lt(column string, value any) Condition    { return mustCompare(column, ast.OpLessThan, value) }
func Lte(column string, value any) Condition   { return mustCompare(column, ast.OpLessThanOrEqual, value) }
func Gt(column string, value any) Condition    { return mustCompare(column, ast.OpGreaterThan, value) }
func Gte(column string, value any) Condition   { return mustCompare(column, ast.OpGreaterThanOrEqual, value) }
func Like(column string, pattern string) Condition {
	return mustCompare(column, ast.OpLike, pattern)
}
func ILike(column string, pattern string) Condition {
	return mustCompare(column, ast.OpILike, pattern)
}

// In builds "column IN (:p_in_0, :p_in_1, ...)". An empty value list yields
// a condition that is always false.
func In(column string, values ...any) Condition {
	col := qualify(column)
	base := paramName(column, "in")
	params := make(map[string]any, len(values))
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = base + "_" + strconv.Itoa(i)
		params[names[i]] = v
	}
	key := "in." + col.Table + "." + col.Name + " :" + base + "/" + strconv.Itoa(len(values))
	return newCondition("in", key, true, params, func() (ast.Expr, error) {
		if len(names) == 0 {
			return &ast.Value{Val: false}, nil
		}
		list := make([]ast.Expr, len(names))
		for i, n := range names {
			list[i] = &ast.Param{Name: n}
		}
		return &ast.InExpr{Expr: col.Clone(), List: list}, nil
	})
}

// Between builds "column BETWEEN :p_between_from AND :p_between_to".
func Between(column string, low, high any) Condition {
	col := qualify(column)
	base := paramName(column, "between")
	from, to := base+"_from", base+"_to"
	key := "between." + col.Table + "." + col.Name + " :" + base
	return newCondition("between", key, true, map[string]any{from: low, to: high}, func() (ast.Expr, error) {
		return &ast.BetweenExpr{Expr: col.Clone(), Low: &ast.Param{Name: from}, High: &ast.Param{Name: to}}, nil
	})
}

func IsNull(column string) Condition {
	col := qualify(column)
	key := "null." + col.Table + "." + col.Name
	return newCondition("is null", key, true, nil, func() (ast.Expr, error) {
		return &ast.IsNullExpr{Expr: col.Clone()}, nil
	})
}

func IsNotNull(column string) Condition {
	return Not(IsNull(column))
}

// Expr wraps an arbitrary expression. Its key is derived from the
// expression's structural fingerprint. The expression is cloned.
func Expr(e ast.Expr, params map[string]any) Condition {
	tmpl := e.Clone()
	key := "expr." + utils.FingerprintHex(tmpl.Fingerprint())
	return newCondition("expression", key, true, params, func() (ast.Expr, error) {
		return tmpl, nil
	})
}

// Raw wraps an expression that cannot be identified structurally, such as
// one holding literal values. Statements using it are never cached.
func Raw(e ast.Expr, params map[string]any) Condition {
	tmpl := e.Clone()
	return newCondition("raw", "", false, params, func() (ast.Expr, error) {
		return tmpl, nil
	})
}

var _ Condition = (*condition)(nil)
