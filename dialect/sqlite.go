package dialect

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (s SQLite) Name() string { return "sqlite" }

func (s SQLite) QuoteIdentifier(name string) string {
	return quote(name, `"`)
}

func (s SQLite) Placeholder(n int) string {
	return "?"
}

func (s SQLite) NumberedPlaceholders() bool { return false }

func (s SQLite) RenderValue(v any) string {
	return renderLiteral(v, hexBytes)
}

// SupportsReturning is true from SQLite 3.35 on.
func (s SQLite) SupportsReturning() bool { return true }

func (s SQLite) SupportsLateral() bool { return false }

func (s SQLite) ConflictStyle() ConflictStyle { return ConflictOnConflict }
