package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ParsedTag is the parsed form of a `db` struct tag.
type ParsedTag struct {
	ColumnName string // Database column name (explicit or derived from field name)
	Skip       bool   // Skip this field entirely (db:"-")
	Primary    bool   // Part of the primary key
	ReadOnly   bool   // Filled by the database, never written
	ForeignKey string // Foreign key reference (table.column format)
	Generator  string // ID generator name (uuid, ulid)
}

// TagParser parses struct tags and caches the results.
type TagParser struct {
	tagName        string
	namingStrategy NamingStrategy
	cache          map[string]*ParsedTag
	cacheMu        sync.RWMutex
}

// NewTagParser creates a tag parser reading tagName tags.
func NewTagParser(tagName string, namingStrategy NamingStrategy) *TagParser {
	return &TagParser{
		tagName:        tagName,
		namingStrategy: namingStrategy,
		cache:          make(map[string]*ParsedTag, 64),
	}
}

// ParseTag parses the tag of one struct field.
//
// Supported tag syntax:
//
//	`db:"column_name"`                    // Basic column mapping
//	`db:"column:custom_name"`             // Explicit column name
//	`db:"id;primary;generator:uuid"`      // Primary key filled from a generator
//	`db:"account_id;fk:accounts.id"`      // Foreign key
//	`db:"created_at;readonly"`            // Database managed column
//	`db:"-"`                              // Skip field entirely
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue := tag.Get(p.tagName)
	if tagValue == "" {
		return &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}, nil
	}

	cacheKey := fieldName + ":" + tagValue
	p.cacheMu.RLock()
	cached, exists := p.cache[cacheKey]
	p.cacheMu.RUnlock()
	if exists {
		return cached, nil
	}

	parsed, err := p.parseTagValue(fieldName, tagValue)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = parsed
	p.cacheMu.Unlock()
	return parsed, nil
}

func (p *TagParser) parseTagValue(fieldName, tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}
	for i, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		key, value, hasValue := strings.Cut(option, ":")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch {
		case !hasValue && i == 0 && !isFlag(option):
			parsed.ColumnName = option
		case !hasValue:
			if err := parseFlag(parsed, key); err != nil {
				return nil, err
			}
		default:
			if err := parseKeyValue(parsed, key, value); err != nil {
				return nil, err
			}
		}
	}
	return parsed, nil
}

func isFlag(option string) bool {
	switch option {
	case "primary", "primary_key", "readonly", "auto":
		return true
	}
	return false
}

func parseFlag(tag *ParsedTag, flag string) error {
	switch flag {
	case "primary", "primary_key":
		tag.Primary = true
	case "readonly", "auto":
		tag.ReadOnly = true
	default:
		// Ignore unknown flags for forward compatibility
	}
	return nil
}

func parseKeyValue(tag *ParsedTag, key, value string) error {
	switch key {
	case "column", "name":
		tag.ColumnName = value
	case "fk", "foreign_key", "references":
		if !strings.Contains(value, ".") {
			return fmt.Errorf("foreign key %q must be table.column", value)
		}
		tag.ForeignKey = value
	case "generator", "gen":
		if _, err := NewGenerator(value); err != nil {
			return err
		}
		tag.Generator = value
	}
	return nil
}

// ClearCache drops every cached tag.
func (p *TagParser) ClearCache() {
	p.cacheMu.Lock()
	clear(p.cache)
	p.cacheMu.Unlock()
}
