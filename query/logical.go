package query

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

// ParentAlias refers to the enclosing statement's table inside an EXISTS
// subquery condition.
const ParentAlias = "parent"

// And combines conditions with AND. Children are emitted sorted by key so
// And(a, b) and And(b, a) produce the same expression.
func And(conds ...Condition) (Condition, error) {
	return logical("and", ast.OpAnd, conds)
}

// Or combines conditions with OR.
func Or(conds ...Condition) (Condition, error) {
	return logical("or", ast.OpOr, conds)
}

func MustAnd(conds ...Condition) Condition {
	c, err := And(conds...)
	if err != nil {
		panic(err)
	}
	return c
}

func MustOr(conds ...Condition) Condition {
	c, err := Or(conds...)
	if err != nil {
		panic(err)
	}
	return c
}

func logical(name, op string, conds []Condition) (Condition, error) {
	conds = compactConditions(conds)
	if len(conds) == 0 {
		return nil, ErrNoConditions
	}
	if len(conds) == 1 {
		return conds[0], nil
	}

	sorted := disambiguate(sortConditions(conds))
	params, err := mergeConditionParameters(name, sorted)
	if err != nil {
		return nil, err
	}
	key, keyed := childKeys(name+".", sorted)

	return &condition{
		name:   name,
		key:    key,
		keyed:  keyed,
		params: params,
		tmpl: newTemplate(func() (ast.Expr, error) {
			operands := make([]ast.Expr, 0, len(sorted))
			for _, c := range sorted {
				e, err := c.Expression()
				if err != nil {
					return nil, err
				}
				operands = append(operands, e)
			}
			return &ast.LogicalExpr{Operator: op, Operands: operands}, nil
		}),
	}, nil
}

// Not negates a condition. Negating a negation returns the original
// expression; predicates with a native negated form are toggled in place.
func Not(cond Condition) Condition {
	key, keyed := cond.Key()
	if keyed {
		key = "not." + key
	}
	return &condition{
		name:   "not",
		key:    key,
		keyed:  keyed,
		params: cond.Parameters(),
		tmpl: newTemplate(func() (ast.Expr, error) {
			e, err := cond.Expression()
			if err != nil {
				return nil, err
			}
			return negate(e), nil
		}),
	}
}

func negate(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.NotExpr:
		return n.Expr
	case ast.Negatable:
		n.SetNegated(!n.Negated())
		return n
	default:
		return &ast.NotExpr{Expr: e}
	}
}

// Exists builds "EXISTS (SELECT 1 FROM table AS alias WHERE ...)". Inside the
// conditions self refers to the subquery's table and ParentAlias to the
// enclosing statement's table.
func Exists(table, alias string, conds ...Condition) (Condition, error) {
	conds = compactConditions(conds)
	sorted := disambiguate(sortConditions(conds))
	params, err := mergeConditionParameters("exists", sorted)
	if err != nil {
		return nil, err
	}
	key, keyed := childKeys("exists."+table+"."+alias+".", sorted)
	rename := map[string]string{ast.SelfAlias: alias, ParentAlias: ast.SelfAlias}

	return &condition{
		name:   "exists",
		key:    key,
		keyed:  keyed,
		params: params,
		tmpl: newTemplate(func() (ast.Expr, error) {
			sub := &ast.SelectStmt{
				Columns: []ast.Expr{&ast.Value{Val: 1}},
				From:    []ast.FromItem{&ast.Table{Name: table, Alias: alias}},
			}
			for _, c := range sorted {
				e, err := c.Expression()
				if err != nil {
					return nil, err
				}
				sub.Where = ast.Conjoin(sub.Where, ast.RenameTables(e, rename))
			}
			return &ast.ExistsExpr{Subquery: sub}, nil
		}),
	}, nil
}

// PrimaryKey matches a row by its primary key columns.
func PrimaryKey(columns []string, values ...any) (Condition, error) {
	if len(columns) == 0 || len(columns) != len(values) {
		return nil, fmt.Errorf("%w: %d columns, %d values", ErrPrimaryKeyMismatch, len(columns), len(values))
	}
	conds := make([]Condition, len(columns))
	for i, c := range columns {
		conds[i] = Eq(c, values[i])
	}
	return And(conds...)
}

func compactConditions(conds []Condition) []Condition {
	out := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// sortConditions orders conditions by key, unkeyed ones last in their
// original order.
func sortConditions(conds []Condition) []Condition {
	out := make([]Condition, len(conds))
	copy(out, conds)
	sort.SliceStable(out, func(i, j int) bool {
		ki, oki := out[i].Key()
		kj, okj := out[j].Key()
		if oki && okj {
			return ki < kj
		}
		return oki && !okj
	})
	return out
}

// disambiguate gives siblings that share a parameter name their own names
// by suffixing the sorted position, so Or(Eq("s", a), Eq("s", b)) binds both
// values. Only names are compared, so the result depends on the keys alone.
func disambiguate(conds []Condition) []Condition {
	seen := make(map[string]int)
	for _, c := range conds {
		for _, n := range c.Parameters().Names() {
			seen[n]++
		}
	}

	out := make([]Condition, len(conds))
	for i, c := range conds {
		out[i] = c
		for _, n := range c.Parameters().Names() {
			if seen[n] > 1 {
				out[i] = suffixParams(c, "_"+strconv.Itoa(i))
				break
			}
		}
	}
	return out
}

func suffixParams(cond Condition, suffix string) Condition {
	rename := func(name string) string { return name + suffix }
	key, keyed := cond.Key()
	if keyed {
		key += suffix
	}
	name := "renamed"
	if c, ok := cond.(*condition); ok {
		name = c.name
	}
	return &condition{
		name:   name,
		key:    key,
		keyed:  keyed,
		params: cond.Parameters().Rename(rename),
		tmpl: newTemplate(func() (ast.Expr, error) {
			e, err := cond.Expression()
			if err != nil {
				return nil, err
			}
			return ast.RenameParams(e, rename), nil
		}),
	}
}

func childKeys(prefix string, conds []Condition) (string, bool) {
	keys := make([]string, len(conds))
	for i, c := range conds {
		k, ok := c.Key()
		if !ok {
			return "", false
		}
		keys[i] = k
	}
	return prefix + utils.HashKey(keys...), true
}

func mergeConditionParameters(owner string, conds []Condition) (*Parameters, error) {
	params := NewParameters(owner, nil)
	for _, c := range conds {
		var err error
		if params, err = MergeParameters(params, c.Parameters()); err != nil {
			return nil, err
		}
	}
	return params, nil
}
