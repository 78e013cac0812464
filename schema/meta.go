package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
)

var (
	ErrNotStruct      = errors.New("schema: model must be a struct")
	ErrNoPrimaryKey   = errors.New("schema: entity has no primary key")
	ErrUnknownColumn  = errors.New("schema: unknown column")
	ErrNoForeignKey   = errors.New("schema: no foreign key")
	ErrNotAddressable = errors.New("schema: destination must be a non-nil pointer to struct")
)

// TableNamer lets a model override its table name.
type TableNamer interface {
	TableName() string
}

// ForeignKey links columns of an entity to columns of another table.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// EntityMeta describes the table a model maps to.
type EntityMeta struct {
	Type        reflect.Type // nil for metadata built with NewEntityMeta
	Name        string
	Schema      string
	Table       string
	Fields      []*FieldMeta
	ColumnMap   map[string]*FieldMeta // Database column name -> FieldMeta
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

type FieldMeta struct {
	Name      string
	Column    string
	Type      reflect.Type
	Index     []int
	Primary   bool
	ReadOnly  bool
	Generator IDGenerator
}

// NewEntityMeta describes a table without a Go model.
func NewEntityMeta(schemaName, table string, columns, primaryKey []string, foreignKeys ...ForeignKey) *EntityMeta {
	m := &EntityMeta{
		Name:        table,
		Schema:      schemaName,
		Table:       table,
		ColumnMap:   make(map[string]*FieldMeta, len(columns)),
		PrimaryKey:  append([]string(nil), primaryKey...),
		ForeignKeys: append([]ForeignKey(nil), foreignKeys...),
	}
	pk := make(map[string]bool, len(primaryKey))
	for _, c := range primaryKey {
		pk[c] = true
	}
	for _, c := range columns {
		fm := &FieldMeta{Name: c, Column: c, Primary: pk[c]}
		m.Fields = append(m.Fields, fm)
		m.ColumnMap[c] = fm
	}
	return m
}

func buildMeta(t reflect.Type, parser *TagParser, naming NamingStrategy) (*EntityMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrNotStruct, t.Kind())
	}

	meta := &EntityMeta{
		Type:      t,
		Name:      t.Name(),
		ColumnMap: make(map[string]*FieldMeta, t.NumField()),
	}
	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		meta.Table = tn.TableName()
	} else {
		meta.Table = naming.TableName(t.Name())
	}
	if schemaName, table, ok := strings.Cut(meta.Table, "."); ok {
		meta.Schema, meta.Table = schemaName, table
	}

	fks := map[string]*ForeignKey{}
	var fkOrder []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		// Anonymous fields could be supported in future for composition
		if !f.IsExported() || f.Anonymous {
			continue
		}

		tag, err := parser.ParseTag(f.Name, f.Tag)
		if err != nil {
			return nil, err
		}
		if tag.Skip {
			continue
		}

		fm := &FieldMeta{
			Name:     f.Name,
			Column:   tag.ColumnName,
			Type:     f.Type,
			Index:    f.Index,
			Primary:  tag.Primary,
			ReadOnly: tag.ReadOnly,
		}
		if tag.Generator != "" {
			if fm.Generator, err = NewGenerator(tag.Generator); err != nil {
				return nil, err
			}
		}
		meta.Fields = append(meta.Fields, fm)
		meta.ColumnMap[fm.Column] = fm
		if fm.Primary {
			meta.PrimaryKey = append(meta.PrimaryKey, fm.Column)
		}

		if tag.ForeignKey != "" {
			refTable, refColumn, _ := strings.Cut(tag.ForeignKey, ".")
			fk, ok := fks[refTable]
			if !ok {
				fk = &ForeignKey{RefTable: refTable}
				fks[refTable] = fk
				fkOrder = append(fkOrder, refTable)
			}
			fk.Columns = append(fk.Columns, fm.Column)
			fk.RefColumns = append(fk.RefColumns, refColumn)
		}
	}

	// fall back to an "id" column when no field is tagged primary
	if len(meta.PrimaryKey) == 0 {
		if fm, ok := meta.ColumnMap["id"]; ok {
			fm.Primary = true
			meta.PrimaryKey = []string{"id"}
		}
	}
	for _, ref := range fkOrder {
		meta.ForeignKeys = append(meta.ForeignKeys, *fks[ref])
	}
	return meta, nil
}

// Identity distinguishes entities sharing a table name but differing in
// shape. It is part of every statement cache key.
func (m *EntityMeta) Identity() string {
	var sb strings.Builder
	sb.WriteString(m.Schema)
	sb.WriteByte('.')
	sb.WriteString(m.Table)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(m.Columns(), ","))
	sb.WriteString(")pk(")
	sb.WriteString(strings.Join(m.PrimaryKey, ","))
	sb.WriteByte(')')
	return sb.String()
}

// Ref returns the entity's table aliased as ast.SelfAlias.
func (m *EntityMeta) Ref() *ast.Table {
	return ast.NewTable(m.Schema, m.Table, ast.SelfAlias)
}

// Columns returns every column in field order.
func (m *EntityMeta) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Column
	}
	return cols
}

// WritableColumns returns the columns written by INSERT and UPDATE.
func (m *EntityMeta) WritableColumns() []string {
	cols := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		if !f.ReadOnly {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// ForeignKeyTo returns the foreign key referencing table.
func (m *EntityMeta) ForeignKeyTo(table string) (ForeignKey, error) {
	for _, fk := range m.ForeignKeys {
		if fk.RefTable == table {
			return fk, nil
		}
	}
	return ForeignKey{}, fmt.Errorf("%w: %s references %s", ErrNoForeignKey, m.Table, table)
}

func (m *EntityMeta) structValue(entity any) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, ErrNotAddressable
		}
		v = v.Elem()
	}
	if m.Type == nil || v.Type() != m.Type {
		return reflect.Value{}, fmt.Errorf("%w: %T does not match %s", ErrNotStruct, entity, m.Name)
	}
	return v, nil
}

// Values returns the column values of entity for the given columns. With no
// columns, every writable column is returned.
func (m *EntityMeta) Values(entity any, columns ...string) (map[string]any, error) {
	v, err := m.structValue(entity)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = m.WritableColumns()
	}
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		fm, ok := m.ColumnMap[c]
		if !ok || fm.Index == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, m.Table, c)
		}
		out[c] = v.FieldByIndex(fm.Index).Interface()
	}
	return out, nil
}

// PrimaryKeyValues returns the primary key of entity in key order.
func (m *EntityMeta) PrimaryKeyValues(entity any) ([]any, error) {
	if len(m.PrimaryKey) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, m.Table)
	}
	values, err := m.Values(entity, m.PrimaryKey...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(m.PrimaryKey))
	for i, c := range m.PrimaryKey {
		out[i] = values[c]
	}
	return out, nil
}

// Generate fills zero valued generator fields of entity.
func (m *EntityMeta) Generate(entity any) error {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrNotAddressable
	}
	sv, err := m.structValue(entity)
	if err != nil {
		return err
	}
	for _, fm := range m.Fields {
		if fm.Generator == nil {
			continue
		}
		field := sv.FieldByIndex(fm.Index)
		if !field.IsZero() {
			continue
		}
		id, err := fm.Generator.Generate()
		if err != nil {
			return err
		}
		idv := reflect.ValueOf(id)
		if !idv.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("schema: %s generator cannot fill %s.%s of type %s", fm.Generator.Type(), m.Name, fm.Name, field.Type())
		}
		field.Set(idv.Convert(field.Type()))
	}
	return nil
}

// ScanTargets returns pointers into dest for each of columns, for use with
// Rows.Scan. Unknown columns are scanned into a throwaway value.
func (m *EntityMeta) ScanTargets(dest any, columns []string) ([]any, error) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, ErrNotAddressable
	}
	sv, err := m.structValue(dest)
	if err != nil {
		return nil, err
	}
	targets := make([]any, len(columns))
	for i, c := range columns {
		fm, ok := m.ColumnMap[c]
		if !ok || fm.Index == nil {
			var discard any
			targets[i] = &discard
			continue
		}
		targets[i] = sv.FieldByIndex(fm.Index).Addr().Interface()
	}
	return targets, nil
}
