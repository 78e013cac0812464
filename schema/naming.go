package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// NamingStrategy converts Go identifiers into database identifiers.
type NamingStrategy interface {
	// ColumnName converts a Go field name to a database column name.
	ColumnName(fieldName string) string
	// TableName converts a Go struct name to a database table name.
	TableName(structName string) string
}

// snakeCaseStrategy maps FirstName to first_name and BlogPost to blog_posts
// (or blog_post when plural is off).
type snakeCaseStrategy struct {
	plural bool
}

// NewSnakeCaseStrategy creates a snake_case naming strategy.
func NewSnakeCaseStrategy(pluralTables bool) NamingStrategy {
	return snakeCaseStrategy{plural: pluralTables}
}

// DefaultNamingStrategy returns the default snake_case strategy with plural tables.
func DefaultNamingStrategy() NamingStrategy {
	return NewSnakeCaseStrategy(true)
}

func (s snakeCaseStrategy) ColumnName(fieldName string) string {
	return toSnakeCase(fieldName)
}

func (s snakeCaseStrategy) TableName(structName string) string {
	name := toSnakeCase(structName)
	if !s.plural {
		return name
	}
	// only the last word is pluralized: blog_post -> blog_posts
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[:i+1] + pluralize(name[i+1:])
	}
	return pluralize(name)
}

// toSnakeCase converts any naming convention to snake_case.
// Handles acronyms and digits: HTTPServer -> http_server, OAuth2Token -> o_auth2_token.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	switch name {
	case "ID":
		return "id"
	case "UUID":
		return "uuid"
	case "URL":
		return "url"
	case "API":
		return "api"
	case "JSON":
		return "json"
	}

	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// pluralize converts singular nouns to their plural forms.
func pluralize(name string) string {
	if name == "" {
		return ""
	}

	switch strings.ToLower(name) {
	case "datum":
		return "data"
	case "medium":
		return "media"
	case "criterion":
		return "criteria"
	}

	return pluralizeClient.Pluralize(name, 2, false)
}
