package visitor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/dialect"
)

var (
	ErrUnsupported  = errors.New("visitor: unsupported by dialect")
	ErrEmptyList    = errors.New("visitor: empty expression list")
	ErrInvalidNode  = errors.New("visitor: invalid node")
	ErrNilStatement = errors.New("visitor: nil statement")
)

var visitorPool = sync.Pool{
	New: func() any {
		return &SQLVisitor{
			argsOrder: make([]string, 0, 8),
		}
	},
}

// SQLVisitor renders statement trees to SQL text for a dialect. Named
// parameters become positional placeholders recorded in ArgsOrder.
type SQLVisitor struct {
	sb         strings.Builder
	dialect    dialect.Dialect
	argsOrder  []string
	positions  map[string]int
	paramTypes map[string]string
	inConflict bool
}

func NewSQLVisitor(d dialect.Dialect) *SQLVisitor {
	v := visitorPool.Get().(*SQLVisitor)
	v.dialect = d
	v.Reset()
	return v
}

func (v *SQLVisitor) Release() {
	v.dialect = nil
	v.Reset()
	visitorPool.Put(v)
}

func (v *SQLVisitor) Reset() {
	v.sb.Reset()
	v.argsOrder = v.argsOrder[:0]
	v.positions = nil
	v.paramTypes = nil
	v.inConflict = false
}

// Compile renders stmt with a pooled visitor.
func Compile(d dialect.Dialect, stmt ast.Statement) (*cache.CachedQuery, error) {
	v := NewSQLVisitor(d)
	defer v.Release()
	return v.Build(stmt)
}

func (v *SQLVisitor) Build(stmt ast.Statement) (*cache.CachedQuery, error) {
	if stmt == nil {
		return nil, ErrNilStatement
	}
	v.Reset()

	if err := stmt.Accept(v); err != nil {
		return nil, err
	}

	q := &cache.CachedQuery{SQL: v.sb.String()}
	if len(v.argsOrder) > 0 {
		q.ArgsOrder = append([]string(nil), v.argsOrder...)
	}
	if len(v.paramTypes) > 0 {
		q.ParamTypes = make(map[string]string, len(v.paramTypes))
		for k, t := range v.paramTypes {
			q.ParamTypes[k] = t
		}
	}
	return q, nil
}

func (v *SQLVisitor) ident(name string) {
	v.sb.WriteString(v.dialect.QuoteIdentifier(name))
}

func (v *SQLVisitor) list(exprs []ast.Expr) error {
	for i, e := range exprs {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := e.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) with(ctes []*ast.CTE) error {
	if len(ctes) == 0 {
		return nil
	}
	v.sb.WriteString("WITH ")
	for i, c := range ctes {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := c.Accept(v); err != nil {
			return err
		}
	}
	v.sb.WriteByte(' ')
	return nil
}

func (v *SQLVisitor) returning(exprs []ast.Expr) error {
	if len(exprs) == 0 {
		return nil
	}
	if !v.dialect.SupportsReturning() {
		return fmt.Errorf("%w: RETURNING on %s", ErrUnsupported, v.dialect.Name())
	}
	v.sb.WriteString(" RETURNING ")
	return v.list(exprs)
}

func (v *SQLVisitor) where(e ast.Expr) error {
	if e == nil {
		return nil
	}
	v.sb.WriteString(" WHERE ")
	return e.Accept(v)
}

func (v *SQLVisitor) VisitSelect(s *ast.SelectStmt) error {
	if err := v.with(s.With); err != nil {
		return err
	}

	v.sb.WriteString("SELECT ")
	if s.Distinct {
		v.sb.WriteString("DISTINCT ")
	}
	if len(s.Columns) == 0 {
		v.sb.WriteByte('*')
	} else if err := v.list(s.Columns); err != nil {
		return err
	}

	for i, f := range s.From {
		if i == 0 {
			v.sb.WriteString(" FROM ")
		} else {
			v.sb.WriteString(", ")
		}
		if err := f.Accept(v); err != nil {
			return err
		}
	}

	for _, join := range s.Joins {
		if err := join.Accept(v); err != nil {
			return err
		}
	}

	if err := v.where(s.Where); err != nil {
		return err
	}

	if len(s.GroupBy) > 0 {
		v.sb.WriteString(" GROUP BY ")
		if err := v.list(s.GroupBy); err != nil {
			return err
		}
	}

	if s.Having != nil {
		v.sb.WriteString(" HAVING ")
		if err := s.Having.Accept(v); err != nil {
			return err
		}
	}

	for i, o := range s.OrderBy {
		if i == 0 {
			v.sb.WriteString(" ORDER BY ")
		} else {
			v.sb.WriteString(", ")
		}
		if err := o.Accept(v); err != nil {
			return err
		}
	}

	if s.Limit != nil {
		v.sb.WriteString(" LIMIT ")
		if err := s.Limit.Accept(v); err != nil {
			return err
		}
	}

	if s.Offset != nil {
		v.sb.WriteString(" OFFSET ")
		if err := s.Offset.Accept(v); err != nil {
			return err
		}
	}

	if s.ForUpdate {
		v.sb.WriteString(" FOR UPDATE")
	}
	return nil
}

func (v *SQLVisitor) VisitInsert(s *ast.InsertStmt) error {
	if s.Table == nil {
		return fmt.Errorf("%w: INSERT without target table", ErrInvalidNode)
	}
	if err := v.with(s.With); err != nil {
		return err
	}

	v.sb.WriteString("INSERT INTO ")
	if err := s.Table.Accept(v); err != nil {
		return err
	}

	if len(s.Columns) > 0 {
		v.sb.WriteString(" (")
		for i, c := range s.Columns {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			v.ident(c)
		}
		v.sb.WriteByte(')')
	}

	switch {
	case s.Select != nil:
		v.sb.WriteByte(' ')
		if err := s.Select.Accept(v); err != nil {
			return err
		}
	case len(s.Rows) > 0:
		v.sb.WriteString(" VALUES ")
		for i, row := range s.Rows {
			if len(row) != len(s.Columns) {
				return fmt.Errorf("%w: row %d has %d values for %d columns", ErrInvalidNode, i, len(row), len(s.Columns))
			}
			if i > 0 {
				v.sb.WriteString(", ")
			}
			v.sb.WriteByte('(')
			if err := v.list(row); err != nil {
				return err
			}
			v.sb.WriteByte(')')
		}
	default:
		v.sb.WriteString(" DEFAULT VALUES")
	}

	if s.OnConflict != nil {
		if err := s.OnConflict.Accept(v); err != nil {
			return err
		}
	}

	return v.returning(s.Returning)
}

func (v *SQLVisitor) VisitUpdate(s *ast.UpdateStmt) error {
	if s.Table == nil {
		return fmt.Errorf("%w: UPDATE without target table", ErrInvalidNode)
	}
	if len(s.Set) == 0 {
		return fmt.Errorf("%w: UPDATE without SET", ErrEmptyList)
	}
	if err := v.with(s.With); err != nil {
		return err
	}

	v.sb.WriteString("UPDATE ")
	if err := s.Table.Accept(v); err != nil {
		return err
	}

	v.sb.WriteString(" SET ")
	for i, a := range s.Set {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := a.Accept(v); err != nil {
			return err
		}
	}

	for i, f := range s.From {
		if i == 0 {
			v.sb.WriteString(" FROM ")
		} else {
			v.sb.WriteString(", ")
		}
		if err := f.Accept(v); err != nil {
			return err
		}
	}

	if err := v.where(s.Where); err != nil {
		return err
	}
	return v.returning(s.Returning)
}

func (v *SQLVisitor) VisitDelete(s *ast.DeleteStmt) error {
	if s.Table == nil {
		return fmt.Errorf("%w: DELETE without target table", ErrInvalidNode)
	}
	if err := v.with(s.With); err != nil {
		return err
	}

	v.sb.WriteString("DELETE FROM ")
	if err := s.Table.Accept(v); err != nil {
		return err
	}

	if err := v.where(s.Where); err != nil {
		return err
	}
	return v.returning(s.Returning)
}

func (v *SQLVisitor) VisitColumn(c *ast.Column) error {
	if v.inConflict && c.Table == ast.ExcludedAlias {
		if v.dialect.ConflictStyle() == dialect.ConflictDuplicateKey {
			v.sb.WriteString("VALUES(")
			v.ident(c.Name)
			v.sb.WriteByte(')')
			return nil
		}
		v.sb.WriteString("EXCLUDED.")
		v.ident(c.Name)
		return nil
	}

	if c.Table != "" {
		v.ident(c.Table)
		v.sb.WriteByte('.')
	}
	if c.IsStar() {
		v.sb.WriteByte('*')
		return nil
	}
	v.ident(c.Name)
	return nil
}

func (v *SQLVisitor) VisitTable(t *ast.Table) error {
	if t.Schema != "" {
		v.ident(t.Schema)
		v.sb.WriteByte('.')
	}
	v.ident(t.Name)

	if t.Alias != "" && t.Alias != t.Name {
		v.sb.WriteString(" AS ")
		v.ident(t.Alias)
	}
	return nil
}

func (v *SQLVisitor) VisitSubqueryFrom(s *ast.SubqueryFrom) error {
	if s.Stmt == nil || s.Alias == "" {
		return fmt.Errorf("%w: subquery in FROM needs a statement and an alias", ErrInvalidNode)
	}
	if s.Lateral {
		if !v.dialect.SupportsLateral() {
			return fmt.Errorf("%w: LATERAL on %s", ErrUnsupported, v.dialect.Name())
		}
		v.sb.WriteString("LATERAL ")
	}
	v.sb.WriteByte('(')
	if err := s.Stmt.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(") AS ")
	v.ident(s.Alias)
	return nil
}

func (v *SQLVisitor) VisitValue(val *ast.Value) error {
	v.sb.WriteString(v.dialect.RenderValue(val.Val))
	return nil
}

func (v *SQLVisitor) VisitParam(p *ast.Param) error {
	if p.Name == "" {
		return fmt.Errorf("%w: unnamed parameter", ErrInvalidNode)
	}
	if p.TypeHint != "" {
		if v.paramTypes == nil {
			v.paramTypes = make(map[string]string)
		}
		v.paramTypes[p.Name] = p.TypeHint
	}

	if v.dialect.NumberedPlaceholders() {
		if v.positions == nil {
			v.positions = make(map[string]int)
		}
		pos, ok := v.positions[p.Name]
		if !ok {
			v.argsOrder = append(v.argsOrder, p.Name)
			pos = len(v.argsOrder)
			v.positions[p.Name] = pos
		}
		v.sb.WriteString(v.dialect.Placeholder(pos))
		return nil
	}

	v.argsOrder = append(v.argsOrder, p.Name)
	v.sb.WriteString(v.dialect.Placeholder(len(v.argsOrder)))
	return nil
}

func (v *SQLVisitor) VisitFunction(f *ast.Function) error {
	v.sb.WriteString(f.Name)
	v.sb.WriteByte('(')
	if f.Distinct {
		v.sb.WriteString("DISTINCT ")
	}
	if err := v.list(f.Args); err != nil {
		return err
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitAliasedExpr(a *ast.AliasedExpr) error {
	if err := a.Expr.Accept(v); err != nil {
		return err
	}
	v.sb.WriteString(" AS ")
	v.ident(a.Alias)
	return nil
}

func (v *SQLVisitor) VisitGroupedExpr(g *ast.GroupedExpr) error {
	v.sb.WriteByte('(')
	err := g.Expr.Accept(v)
	v.sb.WriteByte(')')
	return err
}

// operand renders e, parenthesised when it is a compound boolean expression.
func (v *SQLVisitor) operand(e ast.Expr) error {
	switch e.(type) {
	case *ast.LogicalExpr, *ast.BinaryExpr, *ast.NotExpr:
		v.sb.WriteByte('(')
		err := e.Accept(v)
		v.sb.WriteByte(')')
		return err
	default:
		return e.Accept(v)
	}
}

func (v *SQLVisitor) VisitBinaryExpr(expr *ast.BinaryExpr) error {
	if err := v.operand(expr.Left); err != nil {
		return err
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(expr.Operator)
	v.sb.WriteByte(' ')

	return v.operand(expr.Right)
}

func (v *SQLVisitor) VisitLogicalExpr(expr *ast.LogicalExpr) error {
	switch len(expr.Operands) {
	case 0:
		return fmt.Errorf("%w: %s without operands", ErrEmptyList, expr.Operator)
	case 1:
		return expr.Operands[0].Accept(v)
	}

	for i, op := range expr.Operands {
		if i > 0 {
			v.sb.WriteByte(' ')
			v.sb.WriteString(expr.Operator)
			v.sb.WriteByte(' ')
		}
		if nested, ok := op.(*ast.LogicalExpr); ok && nested.Operator != expr.Operator && len(nested.Operands) > 1 {
			v.sb.WriteByte('(')
			if err := nested.Accept(v); err != nil {
				return err
			}
			v.sb.WriteByte(')')
			continue
		}
		if err := op.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

func (v *SQLVisitor) VisitNotExpr(n *ast.NotExpr) error {
	v.sb.WriteString("NOT (")
	err := n.Expr.Accept(v)
	v.sb.WriteByte(')')
	return err
}

func (v *SQLVisitor) VisitInExpr(in *ast.InExpr) error {
	if err := v.operand(in.Expr); err != nil {
		return err
	}
	if in.Not {
		v.sb.WriteString(" NOT")
	}
	v.sb.WriteString(" IN (")
	switch {
	case in.Subquery != nil:
		if err := in.Subquery.Accept(v); err != nil {
			return err
		}
	case len(in.List) > 0:
		if err := v.list(in.List); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: IN", ErrEmptyList)
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitBetweenExpr(b *ast.BetweenExpr) error {
	if err := v.operand(b.Expr); err != nil {
		return err
	}
	if b.Not {
		v.sb.WriteString(" NOT")
	}
	v.sb.WriteString(" BETWEEN ")
	if err := v.operand(b.Low); err != nil {
		return err
	}
	v.sb.WriteString(" AND ")
	return v.operand(b.High)
}

func (v *SQLVisitor) VisitIsNullExpr(i *ast.IsNullExpr) error {
	if err := v.operand(i.Expr); err != nil {
		return err
	}
	if i.Not {
		v.sb.WriteString(" IS NOT NULL")
	} else {
		v.sb.WriteString(" IS NULL")
	}
	return nil
}

func (v *SQLVisitor) VisitExistsExpr(e *ast.ExistsExpr) error {
	if e.Subquery == nil {
		return fmt.Errorf("%w: EXISTS without subquery", ErrInvalidNode)
	}
	if e.Not {
		v.sb.WriteString("NOT ")
	}
	v.sb.WriteString("EXISTS (")
	if err := e.Subquery.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitSubqueryExpr(s *ast.SubqueryExpr) error {
	v.sb.WriteByte('(')
	err := s.Stmt.Accept(v)
	v.sb.WriteByte(')')
	return err
}

func (v *SQLVisitor) VisitJoinClause(clause *ast.JoinClause) error {
	if clause == nil || clause.Item == nil {
		return nil
	}

	v.sb.WriteByte(' ')
	v.sb.WriteString(joinKeyword(clause.JoinType))
	v.sb.WriteByte(' ')
	if err := clause.Item.Accept(v); err != nil {
		return err
	}

	if clause.JoinType == ast.JoinCross {
		return nil
	}
	v.sb.WriteString(" ON ")
	if clause.On == nil {
		v.sb.WriteString(v.dialect.RenderValue(true))
		return nil
	}
	return clause.On.Accept(v)
}

func joinKeyword(t ast.JoinType) string {
	switch t {
	case ast.JoinInner:
		return "JOIN" // INNER JOIN → JOIN
	case ast.JoinLeft:
		return "LEFT JOIN"
	case ast.JoinRight:
		return "RIGHT JOIN"
	case ast.JoinFull:
		return "FULL JOIN"
	case ast.JoinCross:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

func (v *SQLVisitor) VisitOrderByClause(clause *ast.OrderByClause) error {
	if err := clause.Expr.Accept(v); err != nil {
		return err
	}
	if clause.Desc {
		v.sb.WriteString(" DESC")
	} else {
		v.sb.WriteString(" ASC")
	}
	return nil
}

func (v *SQLVisitor) VisitCTE(c *ast.CTE) error {
	if c.Stmt == nil {
		return fmt.Errorf("%w: CTE %q without statement", ErrInvalidNode, c.Name)
	}
	v.ident(c.Name)
	v.sb.WriteString(" AS (")
	if err := c.Stmt.Accept(v); err != nil {
		return err
	}
	v.sb.WriteByte(')')
	return nil
}

func (v *SQLVisitor) VisitAssignment(a *ast.Assignment) error {
	v.ident(a.Column)
	v.sb.WriteString(" = ")
	return a.Value.Accept(v)
}

func (v *SQLVisitor) VisitOnConflict(o *ast.OnConflict) error {
	v.inConflict = true
	defer func() { v.inConflict = false }()

	if v.dialect.ConflictStyle() == dialect.ConflictDuplicateKey {
		v.sb.WriteString(" ON DUPLICATE KEY UPDATE ")
		if len(o.Set) == 0 {
			if len(o.Columns) == 0 {
				return fmt.Errorf("%w: ON DUPLICATE KEY without columns", ErrEmptyList)
			}
			// MySQL has no DO NOTHING; a self assignment keeps the row unchanged.
			v.ident(o.Columns[0])
			v.sb.WriteString(" = ")
			v.ident(o.Columns[0])
			return nil
		}
		return v.assignments(o.Set)
	}

	v.sb.WriteString(" ON CONFLICT")
	if len(o.Columns) > 0 {
		v.sb.WriteString(" (")
		for i, c := range o.Columns {
			if i > 0 {
				v.sb.WriteString(", ")
			}
			v.ident(c)
		}
		v.sb.WriteByte(')')
	}
	if len(o.Set) == 0 {
		v.sb.WriteString(" DO NOTHING")
		return nil
	}
	v.sb.WriteString(" DO UPDATE SET ")
	return v.assignments(o.Set)
}

func (v *SQLVisitor) assignments(set []*ast.Assignment) error {
	for i, a := range set {
		if i > 0 {
			v.sb.WriteString(", ")
		}
		if err := a.Accept(v); err != nil {
			return err
		}
	}
	return nil
}

var _ ast.Visitor = (*SQLVisitor)(nil)
