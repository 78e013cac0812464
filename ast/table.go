package ast

type Table struct {
	Schema string
	Name   string
	Alias  string
}

func (t *Table) Type() NodeType         { return NodeTable }
func (t *Table) Accept(v Visitor) error { return v.VisitTable(t) }
func (t *Table) Fingerprint() uint64 {
	if t == nil {
		return 0
	}
	return mix("table:" + t.Schema + "." + t.Name + "." + t.Alias)
}
func (t *Table) CloneFrom() FromItem { return t.CloneTable() }

func (t *Table) CloneTable() *Table {
	if t == nil {
		return nil
	}
	return &Table{Schema: t.Schema, Name: t.Name, Alias: t.Alias}
}

func (t *Table) RefName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// SubqueryFrom is a parenthesised SELECT used as a FROM item, optionally LATERAL.
type SubqueryFrom struct {
	Stmt    *SelectStmt
	Alias   string
	Lateral bool
}

func (s *SubqueryFrom) Type() NodeType         { return NodeSubqueryFrom }
func (s *SubqueryFrom) Accept(v Visitor) error { return v.VisitSubqueryFrom(s) }
func (s *SubqueryFrom) Fingerprint() uint64 {
	return mix("subfrom:"+s.Alias, fingerprintBool(s.Lateral), fingerprintSelect(s.Stmt))
}
func (s *SubqueryFrom) CloneFrom() FromItem {
	return &SubqueryFrom{Stmt: cloneSelect(s.Stmt), Alias: s.Alias, Lateral: s.Lateral}
}
func (s *SubqueryFrom) RefName() string { return s.Alias }

func cloneFromItems(items []FromItem) []FromItem {
	if items == nil {
		return nil
	}
	out := make([]FromItem, len(items))
	for i, item := range items {
		out[i] = item.CloneFrom()
	}
	return out
}
