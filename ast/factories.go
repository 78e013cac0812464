package ast

import (
	"strings"
)

// SelfAlias is the alias under which a statement's own table is visible.
const SelfAlias = "self"

// ExcludedAlias qualifies columns of the row proposed for insertion inside
// an ON CONFLICT assignment.
const ExcludedAlias = "excluded"

func NewTable(schema, name, alias string) *Table {
	return &Table{Schema: schema, Name: name, Alias: alias}
}

// Col parses "name" or "table.name" into a column reference.
func Col(ref string) *Column {
	if i := strings.LastIndexByte(ref, '.'); i > 0 {
		return &Column{Table: ref[:i], Name: ref[i+1:]}
	}
	return &Column{Name: ref}
}

func Columns(refs ...string) []Expr {
	out := make([]Expr, len(refs))
	for i, r := range refs {
		out[i] = Col(r)
	}
	return out
}

func Star(table string) *Column {
	return &Column{Table: table, Name: "*"}
}

func CountAll() *Function {
	return &Function{Name: "COUNT", Args: []Expr{&Column{Name: "*"}}}
}

// NewStatement returns an empty statement of the given kind targeting table.
// SELECT statements start with "table.*" as the target list; INSERT targets
// are never aliased.
func NewStatement(kind StatementKind, table *Table) Statement {
	switch kind {
	case KindSelect:
		return &SelectStmt{
			Columns: []Expr{Star(table.RefName())},
			From:    []FromItem{table.CloneTable()},
		}
	case KindInsert:
		t := table.CloneTable()
		t.Alias = ""
		return &InsertStmt{Table: t}
	case KindUpdate:
		return &UpdateStmt{Table: table.CloneTable()}
	case KindDelete:
		return &DeleteStmt{Table: table.CloneTable()}
	default:
		return nil
	}
}

// Conjoin returns existing AND cond, flattening into an existing AND list.
func Conjoin(existing, cond Expr) Expr {
	if existing == nil {
		return cond
	}
	if cond == nil {
		return existing
	}
	if l, ok := existing.(*LogicalExpr); ok && l.Operator == OpAnd {
		l.Operands = append(l.Operands, cond)
		return l
	}
	return &LogicalExpr{Operator: OpAnd, Operands: []Expr{existing, cond}}
}

// AddWhere ANDs cond into the WHERE clause of stmt. It reports false for
// statements without a WHERE clause.
func AddWhere(stmt Statement, cond Expr) bool {
	switch s := stmt.(type) {
	case *SelectStmt:
		s.Where = Conjoin(s.Where, cond)
	case *UpdateStmt:
		s.Where = Conjoin(s.Where, cond)
	case *DeleteStmt:
		s.Where = Conjoin(s.Where, cond)
	default:
		return false
	}
	return true
}

// AddReturning appends to the RETURNING list of a data-modifying statement.
func AddReturning(stmt Statement, exprs ...Expr) bool {
	switch s := stmt.(type) {
	case *InsertStmt:
		s.Returning = append(s.Returning, exprs...)
	case *UpdateStmt:
		s.Returning = append(s.Returning, exprs...)
	case *DeleteStmt:
		s.Returning = append(s.Returning, exprs...)
	default:
		return false
	}
	return true
}

func AddCTE(stmt Statement, cte *CTE) {
	switch s := stmt.(type) {
	case *SelectStmt:
		s.With = append(s.With, cte)
	case *InsertStmt:
		s.With = append(s.With, cte)
	case *UpdateStmt:
		s.With = append(s.With, cte)
	case *DeleteStmt:
		s.With = append(s.With, cte)
	}
}

// TargetTable returns the table a statement operates on.
func TargetTable(stmt Statement) *Table {
	switch s := stmt.(type) {
	case *SelectStmt:
		if len(s.From) > 0 {
			if t, ok := s.From[0].(*Table); ok {
				return t
			}
		}
	case *InsertStmt:
		return s.Table
	case *UpdateStmt:
		return s.Table
	case *DeleteStmt:
		return s.Table
	}
	return nil
}
