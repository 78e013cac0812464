package dialect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type ConflictStyle int

const (
	// ConflictOnConflict renders ON CONFLICT (cols) DO UPDATE SET c = EXCLUDED.c.
	ConflictOnConflict ConflictStyle = iota
	// ConflictDuplicateKey renders ON DUPLICATE KEY UPDATE c = VALUES(c).
	ConflictDuplicateKey
)

type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(n int) string
	// NumberedPlaceholders reports whether a placeholder can be referenced
	// more than once by position ($1) instead of once per occurrence (?).
	NumberedPlaceholders() bool
	RenderValue(v any) string
	SupportsReturning() bool
	SupportsLateral() bool
	ConflictStyle() ConflictStyle
}

// ByName returns the dialect registered under name.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	case "tidb":
		return NewTiDBDialect(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}

func quote(name string, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func renderLiteral(v any, bytesLiteral func([]byte) string) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return strconv.FormatFloat(reflect.ValueOf(val).Float(), 'f', -1, 64)
	case time.Time:
		return "'" + val.Format("2006-01-02 15:04:05.000000") + "'"
	case []byte:
		return bytesLiteral(val)
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(val), "'", "''") + "'"
	}
}

func hexBytes(b []byte) string {
	return fmt.Sprintf("X'%x'", b)
}
