package query

import (
	"strconv"
	"sync"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
)

// Default priorities. Higher priorities are applied first.
const (
	PriorityCTE     = 100
	PriorityJoin    = 50
	PriorityDefault = 0
	PriorityOrder   = -10
	PriorityLimit   = -20
)

// Fragment is a reusable, immutable unit of statement mutation.
//
// Key returns false when the fragment cannot be identified structurally; any
// statement containing such a fragment is never cached.
type Fragment interface {
	Priority() int
	Key() (string, bool)
	ApplyTo(stmt ast.Statement, bc *BuildContext) error
}

// SelectFragment is implemented by fragments that treat SELECT statements
// specially and may be skipped when building a row count.
type SelectFragment interface {
	Fragment
	ApplyToSelect(sel *ast.SelectStmt, bc *BuildContext, count bool) error
	UsedForCount() bool
}

// Parametrized is implemented by fragments carrying parameter values.
type Parametrized interface {
	Parameters() *Parameters
}

// FragmentBuilder produces a fragment on demand.
type FragmentBuilder interface {
	BuildFragment() (Fragment, error)
}

// BuildContext carries state shared by every fragment applied while building
// one statement.
type BuildContext struct {
	aliases int
}

func NewBuildContext() *BuildContext {
	return &BuildContext{}
}

// NextAlias returns a fresh table alias: gw_1, gw_2, ...
func (bc *BuildContext) NextAlias() string {
	bc.aliases++
	return "gw_" + strconv.Itoa(bc.aliases)
}

func parametersOf(f Fragment) *Parameters {
	if p, ok := f.(Parametrized); ok {
		return p.Parameters()
	}
	return nil
}

func isParametrized(f Fragment) bool {
	return parametersOf(f).Len() > 0
}

// exprTemplate builds an expression once and hands out clones of it.
type exprTemplate struct {
	once  sync.Once
	build func() (ast.Expr, error)
	expr  ast.Expr
	err   error
}

func newTemplate(build func() (ast.Expr, error)) *exprTemplate {
	return &exprTemplate{build: build}
}

func (t *exprTemplate) generate() (ast.Expr, error) {
	t.once.Do(func() {
		t.expr, t.err = t.build()
		t.build = nil
	})
	if t.err != nil {
		return nil, t.err
	}
	return t.expr.Clone(), nil
}
