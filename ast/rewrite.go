package ast

// RenameTables returns a deep copy of e where every table qualifier present in
// mapping is replaced by its new name. e is left untouched.
func RenameTables(e Expr, mapping map[string]string) Expr {
	if e == nil {
		return nil
	}
	c := e.Clone()
	if len(mapping) > 0 {
		renameExpr(c, &renamer{tables: mapping})
	}
	return c
}

// RenameStatement is RenameTables for whole statements. FROM items whose
// reference name is mapped receive the new name as their alias.
func RenameStatement(s Statement, mapping map[string]string) Statement {
	if s == nil {
		return nil
	}
	c := s.CloneStatement()
	if len(mapping) > 0 {
		renameStatement(c, &renamer{tables: mapping})
	}
	return c
}

// RenameParams returns a deep copy of e where every parameter name is
// replaced by rename(name).
func RenameParams(e Expr, rename func(string) string) Expr {
	if e == nil {
		return nil
	}
	c := e.Clone()
	if rename != nil {
		renameExpr(c, &renamer{params: rename})
	}
	return c
}

// RenameStatementParams is RenameParams for whole statements.
func RenameStatementParams(s Statement, rename func(string) string) Statement {
	if s == nil {
		return nil
	}
	c := s.CloneStatement()
	if rename != nil {
		renameStatement(c, &renamer{params: rename})
	}
	return c
}

// PrefixParams returns a rename function for RenameParams that prepends
// prefix to every name.
func PrefixParams(prefix string) func(string) string {
	return func(name string) string { return prefix + name }
}

// renamer carries the table mapping and the parameter rename of one pass.
// Either may be empty.
type renamer struct {
	tables map[string]string
	params func(string) string
}

func (r *renamer) table(name string) (string, bool) {
	if r.tables == nil {
		return "", false
	}
	to, ok := r.tables[name]
	return to, ok
}

func renameExpr(e Expr, m *renamer) {
	switch n := e.(type) {
	case nil:
	case *Column:
		if to, ok := m.table(n.Table); ok && n.Table != "" {
			n.Table = to
		}
	case *Param:
		if m.params != nil {
			n.Name = m.params(n.Name)
		}
	case *Function:
		renameExprs(n.Args, m)
	case *AliasedExpr:
		renameExpr(n.Expr, m)
	case *GroupedExpr:
		renameExpr(n.Expr, m)
	case *BinaryExpr:
		renameExpr(n.Left, m)
		renameExpr(n.Right, m)
	case *LogicalExpr:
		renameExprs(n.Operands, m)
	case *NotExpr:
		renameExpr(n.Expr, m)
	case *InExpr:
		renameExpr(n.Expr, m)
		renameExprs(n.List, m)
		if n.Subquery != nil {
			renameStatement(n.Subquery, m)
		}
	case *BetweenExpr:
		renameExpr(n.Expr, m)
		renameExpr(n.Low, m)
		renameExpr(n.High, m)
	case *IsNullExpr:
		renameExpr(n.Expr, m)
	case *ExistsExpr:
		if n.Subquery != nil {
			renameStatement(n.Subquery, m)
		}
	case *SubqueryExpr:
		if n.Stmt != nil {
			renameStatement(n.Stmt, m)
		}
	}
}

func renameExprs(exprs []Expr, m *renamer) {
	for _, e := range exprs {
		renameExpr(e, m)
	}
}

func renameFrom(item FromItem, m *renamer) {
	switch f := item.(type) {
	case *Table:
		if to, ok := m.table(f.RefName()); ok {
			f.Alias = to
		}
	case *SubqueryFrom:
		if to, ok := m.table(f.Alias); ok {
			f.Alias = to
		}
		if f.Stmt != nil {
			renameStatement(f.Stmt, m)
		}
	}
}

func renameCTEs(ctes []*CTE, m *renamer) {
	for _, c := range ctes {
		if c.Stmt != nil {
			renameStatement(c.Stmt, m)
		}
	}
}

func renameStatement(s Statement, m *renamer) {
	switch st := s.(type) {
	case *SelectStmt:
		renameCTEs(st.With, m)
		renameExprs(st.Columns, m)
		for _, f := range st.From {
			renameFrom(f, m)
		}
		for _, j := range st.Joins {
			if j.Item != nil {
				renameFrom(j.Item, m)
			}
			renameExpr(j.On, m)
		}
		renameExpr(st.Where, m)
		renameExprs(st.GroupBy, m)
		renameExpr(st.Having, m)
		for _, o := range st.OrderBy {
			renameExpr(o.Expr, m)
		}
		renameExpr(st.Limit, m)
		renameExpr(st.Offset, m)
	case *InsertStmt:
		renameCTEs(st.With, m)
		for _, row := range st.Rows {
			renameExprs(row, m)
		}
		if st.Select != nil {
			renameStatement(st.Select, m)
		}
		renameExprs(st.Returning, m)
	case *UpdateStmt:
		renameCTEs(st.With, m)
		if st.Table != nil {
			renameFrom(st.Table, m)
		}
		for _, a := range st.Set {
			renameExpr(a.Value, m)
		}
		for _, f := range st.From {
			renameFrom(f, m)
		}
		renameExpr(st.Where, m)
		renameExprs(st.Returning, m)
	case *DeleteStmt:
		renameCTEs(st.With, m)
		if st.Table != nil {
			renameFrom(st.Table, m)
		}
		renameExpr(st.Where, m)
		renameExprs(st.Returning, m)
	}
}
