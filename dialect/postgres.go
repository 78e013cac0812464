package dialect

import (
	"fmt"
	"strconv"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) Name() string { return "postgres" }

func (p Postgres) QuoteIdentifier(name string) string {
	return quote(name, `"`)
}

func (p Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p Postgres) NumberedPlaceholders() bool { return true }

func (Postgres) RenderValue(v any) string {
	return renderLiteral(v, func(b []byte) string {
		return fmt.Sprintf("'\\x%x'::bytea", b)
	})
}

func (p Postgres) SupportsReturning() bool { return true }

func (p Postgres) SupportsLateral() bool { return true }

func (p Postgres) ConflictStyle() ConflictStyle { return ConflictOnConflict }
