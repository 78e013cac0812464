package dialect

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (m MySQL) Name() string { return "mysql" }

func (m MySQL) QuoteIdentifier(name string) string {
	return quote(name, "`")
}

func (m MySQL) Placeholder(n int) string {
	return "?"
}

func (m MySQL) NumberedPlaceholders() bool { return false }

func (m MySQL) RenderValue(v any) string {
	return renderLiteral(v, hexBytes)
}

func (m MySQL) SupportsReturning() bool { return false }

// SupportsLateral is true from MySQL 8.0.14 on.
func (m MySQL) SupportsLateral() bool { return true }

func (m MySQL) ConflictStyle() ConflictStyle { return ConflictDuplicateKey }
