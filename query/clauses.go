package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
)

// clause is a fragment whose mutation is a closure over constructor inputs.
type clause struct {
	name     string
	key      string
	keyed    bool
	priority int
	params   *Parameters
	apply    func(stmt ast.Statement, bc *BuildContext) error
}

func (c *clause) Priority() int           { return c.priority }
func (c *clause) Key() (string, bool)     { return c.key, c.keyed }
func (c *clause) Parameters() *Parameters { return c.params }
func (c *clause) String() string          { return c.name + "(" + c.key + ")" }

func (c *clause) ApplyTo(stmt ast.Statement, bc *BuildContext) error {
	return c.apply(stmt, bc)
}

// selectClause only applies to SELECT statements.
type selectClause struct {
	clause
	forCount    bool
	applySelect func(sel *ast.SelectStmt, bc *BuildContext, count bool) error
}

func newSelectClause(name, key string, priority int, forCount bool, params map[string]any,
	apply func(sel *ast.SelectStmt, bc *BuildContext, count bool) error) *selectClause {
	c := &selectClause{
		clause: clause{
			name:     name,
			key:      key,
			keyed:    true,
			priority: priority,
			params:   NewParameters(name+" "+key, params),
		},
		forCount:    forCount,
		applySelect: apply,
	}
	c.apply = func(stmt ast.Statement, bc *BuildContext) error {
		sel, ok := stmt.(*ast.SelectStmt)
		if !ok {
			return mismatch(name, "SELECT", stmt)
		}
		return apply(sel, bc, false)
	}
	return c
}

func (c *selectClause) UsedForCount() bool { return c.forCount }

func (c *selectClause) ApplyToSelect(sel *ast.SelectStmt, bc *BuildContext, count bool) error {
	return c.applySelect(sel, bc, count)
}

// Columns replaces the default "self.*" target list, or extends an explicit
// one. It is ignored when counting.
func Columns(columns ...string) SelectFragment {
	key := "columns." + strings.Join(columns, ",")
	return newSelectClause("columns", key, PriorityDefault, false, nil, func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
		exprs := make([]ast.Expr, len(columns))
		for i, c := range columns {
			exprs[i] = qualify(c)
		}
		if sel.HasStarOnly() {
			sel.Columns = exprs
			return nil
		}
		sel.Columns = append(sel.Columns, exprs...)
		return nil
	})
}

func GroupBy(columns ...string) SelectFragment {
	key := "group." + strings.Join(columns, ",")
	return newSelectClause("group by", key, PriorityDefault, true, nil, func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
		for _, c := range columns {
			sel.GroupBy = append(sel.GroupBy, qualify(c))
		}
		return nil
	})
}

func Having(cond Condition) SelectFragment {
	key, keyed := cond.Key()
	c := newSelectClause("having", "having."+key, PriorityDefault, true, nil, func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
		e, err := cond.Expression()
		if err != nil {
			return err
		}
		sel.Having = ast.Conjoin(sel.Having, e)
		return nil
	})
	c.keyed = keyed
	c.params = cond.Parameters()
	return c
}

// OrderFragment adds one ORDER BY term.
type OrderFragment struct {
	*selectClause
	column string
	desc   bool
}

func OrderBy(column string, desc bool) *OrderFragment {
	return newOrder(column, desc, PriorityOrder)
}

func Asc(column string) *OrderFragment  { return OrderBy(column, false) }
func Desc(column string) *OrderFragment { return OrderBy(column, true) }

func newOrder(column string, desc bool, priority int) *OrderFragment {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	col := qualify(column)
	sc := newSelectClause("order by", "order."+col.Table+"."+col.Name+"."+dir, priority, false, nil,
		func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
			sel.OrderBy = append(sel.OrderBy, &ast.OrderByClause{Expr: col.Clone(), Desc: desc})
			return nil
		})
	return &OrderFragment{selectClause: sc, column: column, desc: desc}
}

// WithPriority returns a copy applied at the given priority. Terms with a
// higher priority sort first.
func (o *OrderFragment) WithPriority(priority int) *OrderFragment {
	return newOrder(o.column, o.desc, priority)
}

func Limit(n int) SelectFragment {
	return newSelectClause("limit", "limit", PriorityLimit, false, map[string]any{"limit": n},
		func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
			sel.Limit = &ast.Param{Name: "limit"}
			return nil
		})
}

func Offset(n int) SelectFragment {
	return newSelectClause("offset", "offset", PriorityLimit, false, map[string]any{"offset": n},
		func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
			sel.Offset = &ast.Param{Name: "offset"}
			return nil
		})
}

func ForUpdate() SelectFragment {
	return newSelectClause("for update", "for_update", PriorityLimit, false, nil,
		func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
			sel.ForUpdate = true
			return nil
		})
}

func Distinct() SelectFragment {
	return newSelectClause("distinct", "distinct", PriorityDefault, true, nil,
		func(sel *ast.SelectStmt, _ *BuildContext, _ bool) error {
			sel.Distinct = true
			return nil
		})
}

func sortedColumns(values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for c := range values {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Set assigns :set_<column> to every column of an UPDATE.
func Set(values map[string]any) Fragment {
	cols := sortedColumns(values)
	params := make(map[string]any, len(values))
	for _, c := range cols {
		params["set_"+c] = values[c]
	}
	key := "set." + strings.Join(cols, ",")
	return &clause{
		name:     "set",
		key:      key,
		keyed:    true,
		priority: PriorityDefault,
		params:   NewParameters("set "+key, params),
		apply: func(stmt ast.Statement, _ *BuildContext) error {
			upd, ok := stmt.(*ast.UpdateStmt)
			if !ok {
				return mismatch("set", "UPDATE", stmt)
			}
			for _, c := range cols {
				upd.Set = append(upd.Set, &ast.Assignment{Column: c, Value: &ast.Param{Name: "set_" + c}})
			}
			return nil
		},
	}
}

// Values supplies the rows of an INSERT. Every row must name the same
// columns. A single row binds :<column>; several rows bind :<column>_<row>.
func Values(rows ...map[string]any) (Fragment, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidValues)
	}
	cols := sortedColumns(rows[0])
	params := make(map[string]any, len(cols)*len(rows))
	names := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidValues, i, len(row), len(cols))
		}
		names[i] = make([]string, len(cols))
		for j, c := range cols {
			v, ok := row[c]
			if !ok {
				return nil, fmt.Errorf("%w: row %d lacks column %q", ErrInvalidValues, i, c)
			}
			name := c
			if len(rows) > 1 {
				name = c + "_" + strconv.Itoa(i)
			}
			names[i][j] = name
			params[name] = v
		}
	}

	key := "values." + strings.Join(cols, ",") + "/" + strconv.Itoa(len(rows))
	return &clause{
		name:     "values",
		key:      key,
		keyed:    true,
		priority: PriorityDefault,
		params:   NewParameters("values "+key, params),
		apply: func(stmt ast.Statement, _ *BuildContext) error {
			ins, ok := stmt.(*ast.InsertStmt)
			if !ok {
				return mismatch("values", "INSERT", stmt)
			}
			if len(ins.Columns) > 0 && strings.Join(ins.Columns, ",") != strings.Join(cols, ",") {
				return fmt.Errorf("%w: columns %v already set", ErrInvalidValues, ins.Columns)
			}
			ins.Columns = append([]string(nil), cols...)
			for _, row := range names {
				exprs := make([]ast.Expr, len(row))
				for j, n := range row {
					exprs[j] = &ast.Param{Name: n}
				}
				ins.Rows = append(ins.Rows, exprs)
			}
			return nil
		},
	}, nil
}

// OnConflict turns an INSERT into an upsert. Rows colliding on target are
// updated with the proposed values of the update columns; with no update
// columns they are left alone.
func OnConflict(target []string, update []string) Fragment {
	key := "conflict." + strings.Join(target, ",") + "." + strings.Join(update, ",")
	return &clause{
		name:     "on conflict",
		key:      key,
		keyed:    true,
		priority: PriorityDefault,
		apply: func(stmt ast.Statement, _ *BuildContext) error {
			ins, ok := stmt.(*ast.InsertStmt)
			if !ok {
				return mismatch("on conflict", "INSERT", stmt)
			}
			oc := &ast.OnConflict{Columns: append([]string(nil), target...)}
			for _, c := range update {
				oc.Set = append(oc.Set, &ast.Assignment{
					Column: c,
					Value:  &ast.Column{Table: ast.ExcludedAlias, Name: c},
				})
			}
			ins.OnConflict = oc
			return nil
		},
	}
}

// Returning adds columns to the RETURNING list of INSERT, UPDATE or DELETE.
func Returning(columns ...string) Fragment {
	key := "returning." + strings.Join(columns, ",")
	return &clause{
		name:     "returning",
		key:      key,
		keyed:    true,
		priority: PriorityDefault,
		apply: func(stmt ast.Statement, _ *BuildContext) error {
			if !ast.AddReturning(stmt, ast.Columns(columns...)...) {
				return mismatch("returning", "INSERT, UPDATE or DELETE", stmt)
			}
			return nil
		},
	}
}

// With attaches "name AS (SELECT ... FROM table AS self ...)" built from list.
func With(name string, table *ast.Table, list *FragmentList) Fragment {
	listKey, keyed := list.Key()
	ref := table.CloneTable()
	ref.Alias = ast.SelfAlias
	key := "with." + name + "." + ref.Schema + "." + ref.Name + "." + listKey
	rename := ast.PrefixParams(paramNamespace("with", name, key))
	return &clause{
		name:     "with",
		key:      key,
		keyed:    keyed,
		priority: PriorityCTE,
		params:   list.Parameters().Rename(rename),
		apply: func(stmt ast.Statement, bc *BuildContext) error {
			sub := ast.NewStatement(ast.KindSelect, ref)
			if err := list.apply(sub, bc, false); err != nil {
				return err
			}
			sub = ast.RenameStatementParams(sub, rename)
			ast.AddCTE(stmt, &ast.CTE{Name: name, Stmt: sub})
			return nil
		},
	}
}

// Func wraps an arbitrary mutation. It has no key, so statements using it
// are rebuilt on every call.
func Func(priority int, fn func(stmt ast.Statement, bc *BuildContext) error) Fragment {
	return &clause{name: "func", priority: priority, apply: fn}
}
