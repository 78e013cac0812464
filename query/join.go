package query

import (
	"fmt"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

// JoinedAlias refers to the joined table inside a join's ON condition; self
// refers to the base table.
const JoinedAlias = "joined"

// JoinStrategy merges a fully built joined SELECT into its base statement.
type JoinStrategy interface {
	Key() string
	Merge(base, joined *ast.SelectStmt, on ast.Expr, alias string, count bool) error
}

type inlineJoin struct{}

// InlineJoin adds the joined table to FROM and its conditions to WHERE.
func InlineJoin() JoinStrategy { return inlineJoin{} }

func (inlineJoin) Key() string { return "inline" }

func (inlineJoin) Merge(base, joined *ast.SelectStmt, on ast.Expr, _ string, count bool) error {
	if err := requireFlat(joined, "inline"); err != nil {
		return err
	}
	base.From = append(base.From, joined.From...)
	base.Joins = append(base.Joins, joined.Joins...)
	base.Where = ast.Conjoin(base.Where, on)
	base.Where = ast.Conjoin(base.Where, joined.Where)
	mergeProjection(base, joined, count)
	return nil
}

type explicitJoin struct{ kind ast.JoinType }

// ExplicitJoin adds "<kind> JOIN table ON ..." carrying the joined WHERE in
// the ON clause.
func ExplicitJoin(kind ast.JoinType) JoinStrategy { return explicitJoin{kind: kind} }

func (j explicitJoin) Key() string { return "explicit." + j.kind.String() }

func (j explicitJoin) Merge(base, joined *ast.SelectStmt, on ast.Expr, _ string, count bool) error {
	if err := requireFlat(joined, "explicit"); err != nil {
		return err
	}
	if len(joined.From) != 1 {
		return fmt.Errorf("%w: explicit join over %d FROM items", ErrJoinNotMergeable, len(joined.From))
	}
	cond := ast.Conjoin(on, joined.Where)
	base.Joins = append(base.Joins, &ast.JoinClause{JoinType: j.kind, Item: joined.From[0], On: cond})
	base.Joins = append(base.Joins, joined.Joins...)
	mergeProjection(base, joined, count)
	return nil
}

type lateralJoin struct {
	kind   ast.JoinType
	append bool
}

// LateralJoin joins the joined SELECT as a correlated LATERAL subquery.
func LateralJoin(kind ast.JoinType) JoinStrategy { return lateralJoin{kind: kind} }

// LateralAppend lists the LATERAL subquery in FROM instead of joining it.
func LateralAppend() JoinStrategy { return lateralJoin{append: true} }

func (j lateralJoin) Key() string {
	if j.append {
		return "lateral.append"
	}
	return "lateral." + j.kind.String()
}

func (j lateralJoin) Merge(base, joined *ast.SelectStmt, on ast.Expr, alias string, count bool) error {
	joined.Where = ast.Conjoin(joined.Where, on)
	item := &ast.SubqueryFrom{Stmt: joined, Alias: alias, Lateral: true}
	if j.append {
		base.From = append(base.From, item)
	} else {
		base.Joins = append(base.Joins, &ast.JoinClause{JoinType: j.kind, Item: item})
	}
	if !count && !joined.HasStarOnly() {
		base.Columns = append(base.Columns, ast.Star(alias))
	}
	return nil
}

// requireFlat rejects joined statements whose clauses cannot be lifted into
// the base statement.
func requireFlat(joined *ast.SelectStmt, strategy string) error {
	if joined.Limit != nil || joined.Offset != nil || len(joined.GroupBy) > 0 || joined.Having != nil || joined.Distinct {
		return fmt.Errorf("%w: %s join cannot carry LIMIT, OFFSET, GROUP BY, HAVING or DISTINCT", ErrJoinNotMergeable, strategy)
	}
	return nil
}

func mergeProjection(base, joined *ast.SelectStmt, count bool) {
	if count {
		return
	}
	if !joined.HasStarOnly() {
		base.Columns = append(base.Columns, joined.Columns...)
	}
	base.OrderBy = append(base.OrderBy, joined.OrderBy...)
	base.With = append(base.With, joined.With...)
}

// JoinFragment joins another table into a SELECT. The joined table is built
// from its own fragment list, in which self refers to the joined table. In
// the ON condition self refers to the base table and JoinedAlias to the
// joined one. Each application receives a fresh alias from the BuildContext.
type JoinFragment struct {
	table    *ast.Table
	strategy JoinStrategy
	on       Condition
	list     *FragmentList
	key      string
	keyed    bool
	params   *Parameters
	prefix   string
}

// paramNamespace returns the prefix given to the parameter names of a nested
// fragment list. It is derived from the owning fragment's key so the same
// join or CTE always binds under the same names.
func paramNamespace(kind, name, key string) string {
	return kind + "_" + name + "_" + utils.HashKey(key)[:8] + "_"
}

func Join(table *ast.Table, strategy JoinStrategy, on Condition, list *FragmentList) (*JoinFragment, error) {
	if list == nil {
		list = MustFragmentList()
	}
	ref := table.CloneTable()
	ref.Alias = ast.SelfAlias

	params := list.Parameters()
	keyed := true
	onKey := ""
	if on != nil {
		var err error
		if params, err = MergeParameters(on.Parameters(), params); err != nil {
			return nil, err
		}
		onKey, keyed = on.Key()
	}
	listKey, listKeyed := list.Key()
	key := "join." + ref.Schema + "." + ref.Name + "." + strategy.Key() + "." + onKey + "." + listKey
	prefix := paramNamespace("join", ref.Name, key)

	return &JoinFragment{
		table:    ref,
		strategy: strategy,
		on:       on,
		list:     list,
		key:      key,
		keyed:    keyed && listKeyed,
		params:   params.Rename(ast.PrefixParams(prefix)),
		prefix:   prefix,
	}, nil
}

// ForeignKeyJoin joins the table referenced by a foreign key of the base
// table, matching columns[i] to refColumns[i].
func ForeignKeyJoin(refTable *ast.Table, columns, refColumns []string, strategy JoinStrategy, list *FragmentList) (*JoinFragment, error) {
	if len(columns) == 0 || len(columns) != len(refColumns) {
		return nil, fmt.Errorf("%w: foreign key with %d columns referencing %d", ErrJoinNotMergeable, len(columns), len(refColumns))
	}
	var on ast.Expr
	for i := range columns {
		on = ast.Conjoin(on, &ast.BinaryExpr{
			Left:     &ast.Column{Table: JoinedAlias, Name: refColumns[i]},
			Operator: ast.OpEqual,
			Right:    &ast.Column{Table: ast.SelfAlias, Name: columns[i]},
		})
	}
	return Join(refTable, strategy, Expr(on, nil), list)
}

func (j *JoinFragment) Priority() int           { return PriorityJoin }
func (j *JoinFragment) Key() (string, bool)     { return j.key, j.keyed }
func (j *JoinFragment) Parameters() *Parameters { return j.params }
func (j *JoinFragment) UsedForCount() bool      { return true }

func (j *JoinFragment) ApplyTo(stmt ast.Statement, bc *BuildContext) error {
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return mismatch("join", "SELECT", stmt)
	}
	return j.ApplyToSelect(sel, bc, false)
}

func (j *JoinFragment) ApplyToSelect(sel *ast.SelectStmt, bc *BuildContext, count bool) error {
	if bc == nil {
		bc = NewBuildContext()
	}
	alias := bc.NextAlias()

	// The joined side is always built in full. Counting only changes how it
	// is merged, a LIMIT or ORDER BY inside a lateral join still filters rows.
	joined := ast.NewStatement(ast.KindSelect, j.table).(*ast.SelectStmt)
	if err := j.list.apply(joined, bc, false); err != nil {
		return err
	}
	joined = ast.RenameStatement(joined, map[string]string{ast.SelfAlias: alias}).(*ast.SelectStmt)
	joined = ast.RenameStatementParams(joined, ast.PrefixParams(j.prefix)).(*ast.SelectStmt)

	var on ast.Expr
	if j.on != nil {
		e, err := j.on.Expression()
		if err != nil {
			return err
		}
		on = ast.RenameTables(e, map[string]string{JoinedAlias: alias})
		on = ast.RenameParams(on, ast.PrefixParams(j.prefix))
	}
	return j.strategy.Merge(sel, joined, on, alias, count)
}

var _ SelectFragment = (*JoinFragment)(nil)
