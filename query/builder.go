package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
)

// Operators accepted by Builder.Where besides the plain comparisons.
const (
	OpIn         = "IN"
	OpNotIn      = "NOT IN"
	OpIsNull     = "IS NULL"
	OpIsNotNull  = "IS NOT NULL"
	OpBetween    = "BETWEEN"
	OpNotBetween = "NOT BETWEEN"
)

// Builder assembles a FragmentList fluently. WHERE calls are collected as
// groups: Where extends the current group with AND, OrWhere starts a new
// group, and groups are combined with OR.
//
// Errors are accumulated and reported by BuildFragment.
type Builder struct {
	groups    [][]Condition
	fragments []Fragment
	params    map[string]any
	errors    []error
}

// NewBuilder creates a new Builder instance
func NewBuilder() *Builder {
	return &Builder{}
}

// AddError adds an error to the builder
func (b *Builder) AddError(err error) {
	if err != nil {
		b.errors = append(b.errors, err)
	}
}

// HasErrors returns true if there are any errors
func (b *Builder) HasErrors() bool {
	return len(b.errors) > 0
}

// Errors returns all accumulated errors
func (b *Builder) Errors() []error {
	return b.errors
}

func (b *Builder) whereWithOperator(column, op string, value any, or bool) *Builder {
	var cond Condition
	switch strings.ToUpper(op) {
	case OpIn, OpNotIn:
		values, ok := value.([]any)
		if !ok {
			values = []any{value}
		}
		cond = In(column, values...)
		if strings.EqualFold(op, OpNotIn) {
			cond = Not(cond)
		}
	case OpIsNull:
		cond = IsNull(column)
	case OpIsNotNull:
		cond = IsNotNull(column)
	case OpBetween, OpNotBetween:
		values, ok := value.([]any)
		if !ok || len(values) != 2 {
			b.AddError(fmt.Errorf("query: %s on %q needs two values", op, column))
			return b
		}
		cond = Between(column, values[0], values[1])
		if strings.EqualFold(op, OpNotBetween) {
			cond = Not(cond)
		}
	default:
		c, err := Compare(column, op, paramName(column, op), value)
		if err != nil {
			b.AddError(err)
			return b
		}
		cond = c
	}
	return b.addCondition(cond, or)
}

func (b *Builder) addCondition(cond Condition, or bool) *Builder {
	if cond == nil {
		return b
	}
	if or || len(b.groups) == 0 {
		b.groups = append(b.groups, []Condition{cond})
		return b
	}
	last := len(b.groups) - 1
	b.groups[last] = append(b.groups[last], cond)
	return b
}

// Generic WHERE methods
func (b *Builder) Where(column, operator string, value any) *Builder {
	return b.whereWithOperator(column, operator, value, false)
}

func (b *Builder) OrWhere(column, operator string, value any) *Builder {
	return b.whereWithOperator(column, operator, value, true)
}

func (b *Builder) WhereCondition(cond Condition) *Builder   { return b.addCondition(cond, false) }
func (b *Builder) OrWhereCondition(cond Condition) *Builder { return b.addCondition(cond, true) }

// AND WHERE methods
func (b *Builder) WhereEq(column string, value any) *Builder    { return b.addCondition(Eq(column, value), false) }
func (b *Builder) WhereNotEq(column string, value any) *Builder { return b.addCondition(NotEq(column, value), false) }
func (b *Builder) WhereLt(column string, value any) *Builder    { return b.addCondition(Lt(column, value), false) }
func (b *Builder) WhereLte(column string, value any) *Builder   { return b.addCondition(Lte(column, value), false) }
func (b *Builder) WhereGt(column string, value any) *Builder    { return b.addCondition(Gt(column, value), false) }
func (b *Builder) WhereGte(column string, value any) *Builder   { return b.addCondition(Gte(column, value), false) }
func (b *Builder) WhereLike(column, pattern string) *Builder    { return b.addCondition(Like(column, pattern), false) }
func (b *Builder) WhereIsNull(column string) *Builder           { return b.addCondition(IsNull(column), false) }
func (b *Builder) WhereIsNotNull(column string) *Builder        { return b.addCondition(IsNotNull(column), false) }

func (b *Builder) WhereIn(column string, values ...any) *Builder {
	return b.addCondition(In(column, values...), false)
}

func (b *Builder) WhereNotIn(column string, values ...any) *Builder {
	return b.addCondition(Not(In(column, values...)), false)
}

func (b *Builder) WhereBetween(column string, low, high any) *Builder {
	return b.addCondition(Between(column, low, high), false)
}

func (b *Builder) WhereNotBetween(column string, low, high any) *Builder {
	return b.addCondition(Not(Between(column, low, high)), false)
}

// OR WHERE methods
func (b *Builder) OrWhereEq(column string, value any) *Builder { return b.addCondition(Eq(column, value), true) }
func (b *Builder) OrWhereIsNull(column string) *Builder        { return b.addCondition(IsNull(column), true) }

func (b *Builder) OrWhereIn(column string, values ...any) *Builder {
	return b.addCondition(In(column, values...), true)
}

// WhereExists adds an EXISTS subquery on table. In conds, self refers to
// table and ParentAlias to the outer table.
func (b *Builder) WhereExists(table, alias string, conds ...Condition) *Builder {
	c, err := Exists(table, alias, conds...)
	if err != nil {
		b.AddError(err)
		return b
	}
	return b.addCondition(c, false)
}

func (b *Builder) WhereNotExists(table, alias string, conds ...Condition) *Builder {
	c, err := Exists(table, alias, conds...)
	if err != nil {
		b.AddError(err)
		return b
	}
	return b.addCondition(Not(c), false)
}

// Clause methods
func (b *Builder) Select(columns ...string) *Builder  { return b.Add(Columns(columns...)) }
func (b *Builder) GroupBy(columns ...string) *Builder { return b.Add(GroupBy(columns...)) }
func (b *Builder) Having(cond Condition) *Builder     { return b.Add(Having(cond)) }
func (b *Builder) Limit(n int) *Builder               { return b.Add(Limit(n)) }
func (b *Builder) Offset(n int) *Builder              { return b.Add(Offset(n)) }
func (b *Builder) Distinct() *Builder                 { return b.Add(Distinct()) }

func (b *Builder) LimitOffset(limit, offset int) *Builder {
	return b.Add(Limit(limit), Offset(offset))
}

func (b *Builder) OrderByAsc(columns ...string) *Builder {
	for _, c := range columns {
		b.Add(Asc(c))
	}
	return b
}

func (b *Builder) OrderByDesc(columns ...string) *Builder {
	for _, c := range columns {
		b.Add(Desc(c))
	}
	return b
}

// Join joins table, building the joined side with sub. In on, self refers
// to the base table and JoinedAlias to table; inside sub self is table.
func (b *Builder) Join(table *ast.Table, strategy JoinStrategy, on Condition, sub func(*Builder)) *Builder {
	inner := NewBuilder()
	if sub != nil {
		sub(inner)
	}
	list, err := inner.List()
	if err != nil {
		b.AddError(err)
		return b
	}
	j, err := Join(table, strategy, on, list)
	if err != nil {
		b.AddError(err)
		return b
	}
	return b.Add(j)
}

func (b *Builder) InnerJoin(table *ast.Table, on Condition, sub func(*Builder)) *Builder {
	return b.Join(table, ExplicitJoin(ast.JoinInner), on, sub)
}

func (b *Builder) LeftJoin(table *ast.Table, on Condition, sub func(*Builder)) *Builder {
	return b.Join(table, ExplicitJoin(ast.JoinLeft), on, sub)
}

// Add appends arbitrary fragments.
func (b *Builder) Add(fragments ...Fragment) *Builder {
	b.fragments = append(b.fragments, fragments...)
	return b
}

// Param binds a caller supplied parameter, for use with Expr conditions.
func (b *Builder) Param(name string, value any) *Builder {
	if b.params == nil {
		b.params = make(map[string]any)
	}
	b.params[name] = value
	return b
}

func (b *Builder) whereCondition() (Condition, error) {
	if len(b.groups) == 0 {
		return nil, nil
	}
	ors := make([]Condition, 0, len(b.groups))
	for _, g := range b.groups {
		c, err := And(g...)
		if err != nil {
			return nil, err
		}
		ors = append(ors, c)
	}
	return Or(ors...)
}

// List builds a new FragmentList from the builder's current state. The
// builder can keep being used; the list does not share state with it.
func (b *Builder) List() (*FragmentList, error) {
	if b.HasErrors() {
		return nil, errors.Join(b.errors...)
	}
	l := MustFragmentList()
	where, err := b.whereCondition()
	if err != nil {
		return nil, err
	}
	if where != nil {
		if err := l.Add(where); err != nil {
			return nil, err
		}
	}
	if err := l.Add(b.fragments...); err != nil {
		return nil, err
	}
	if len(b.params) > 0 {
		if err := l.MergeParameters(b.params); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (b *Builder) BuildFragment() (Fragment, error) {
	return b.List()
}

var _ FragmentBuilder = (*Builder)(nil)
