package connector

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DSNBuilder provides a fluent interface for building database connection strings
type DSNBuilder struct {
	scheme   string
	username string
	password string
	host     string
	port     int
	database string
	params   map[string]string
}

// NewDSNBuilder creates a new DSN builder
func NewDSNBuilder(scheme string) *DSNBuilder {
	return &DSNBuilder{
		scheme: scheme,
		params: make(map[string]string),
	}
}

// Auth sets username and password
func (b *DSNBuilder) Auth(username, password string) *DSNBuilder {
	b.username = username
	b.password = password
	return b
}

// Host sets the host and port
func (b *DSNBuilder) Host(host string, port int) *DSNBuilder {
	b.host = host
	b.port = port
	return b
}

// Database sets the database name
func (b *DSNBuilder) Database(name string) *DSNBuilder {
	b.database = name
	return b
}

// Param adds a single parameter, ignoring empty values
func (b *DSNBuilder) Param(key, value string) *DSNBuilder {
	if value != "" {
		b.params[key] = value
	}
	return b
}

// Params adds multiple parameters
func (b *DSNBuilder) Params(params map[string]string) *DSNBuilder {
	for k, v := range params {
		b.Param(k, v)
	}
	return b
}

// WithPostgresDefaults sets sslmode and connect_timeout unless already set.
func (b *DSNBuilder) WithPostgresDefaults() *DSNBuilder {
	if _, ok := b.params["sslmode"]; !ok {
		b.Param("sslmode", "prefer")
	}
	if _, ok := b.params["connect_timeout"]; !ok {
		b.Param("connect_timeout", "10")
	}
	return b
}

func (b *DSNBuilder) Validate() error {
	if b.host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if b.port <= 0 || b.port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, b.port)
	}
	return nil
}

// Query returns the encoded parameters in key order.
func (b *DSNBuilder) Query() string {
	keys := make([]string, 0, len(b.params))
	for k := range b.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var q strings.Builder
	for i, key := range keys {
		if i > 0 {
			q.WriteString("&")
		}
		q.WriteString(url.QueryEscape(key))
		q.WriteString("=")
		q.WriteString(url.QueryEscape(b.params[key]))
	}
	return q.String()
}

// Build constructs the final DSN string
func (b *DSNBuilder) Build() string {
	var dsn strings.Builder

	dsn.WriteString(b.scheme)
	dsn.WriteString("://")

	if b.username != "" {
		dsn.WriteString(url.QueryEscape(b.username))
		if b.password != "" {
			dsn.WriteString(":")
			dsn.WriteString(url.QueryEscape(b.password))
		}
		dsn.WriteString("@")
	}

	dsn.WriteString(b.host)
	if b.port > 0 {
		dsn.WriteString(":")
		dsn.WriteString(strconv.Itoa(b.port))
	}

	if b.database != "" {
		dsn.WriteString("/")
		dsn.WriteString(url.PathEscape(b.database))
	}

	if len(b.params) > 0 {
		dsn.WriteString("?")
		dsn.WriteString(b.Query())
	}

	return dsn.String()
}
