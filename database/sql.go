package database

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

// SqlDatabase implements Database for *sql.DB. With a statement cache,
// statements are prepared once per distinct SQL text.
type SqlDatabase struct {
	db    *sql.DB
	stmts *cache.StatementCache
}

type SqlOption func(*SqlDatabase)

// WithStatementCache prepares statements through stmts.
func WithStatementCache(stmts *cache.StatementCache) SqlOption {
	return func(s *SqlDatabase) { s.stmts = stmts }
}

// NewSqlDatabase creates a new SqlDatabase.
func NewSqlDatabase(db *sql.DB, opts ...SqlOption) *SqlDatabase {
	s := &SqlDatabase{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying handle.
func (s *SqlDatabase) DB() *sql.DB { return s.db }

// PreparedStatements returns the number of cached prepared statements.
func (s *SqlDatabase) PreparedStatements() int {
	if s.stmts == nil {
		return 0
	}
	return s.stmts.Len()
}

func (s *SqlDatabase) prepared(ctx context.Context, query string) (*sql.Stmt, error) {
	if s.stmts == nil {
		return nil, nil
	}
	return s.stmts.GetOrPrepare(ctx, utils.FingerprintString(query), s.db, query)
}

// QueryContext executes a query with a context.
func (s *SqlDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	stmt, err := s.prepared(ctx, query)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if stmt != nil {
		rows, err = stmt.QueryContext(ctx, args...)
	} else {
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil // *sql.Rows implements Rows
}

// ExecContext executes a query without returning rows.
func (s *SqlDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	stmt, err := s.prepared(ctx, query)
	if err != nil {
		return nil, err
	}
	if stmt != nil {
		return stmt.ExecContext(ctx, args...)
	}
	return s.db.ExecContext(ctx, query, args...) // database/sql.Result implements Result
}

// PingContext verifies the connection to the database is alive.
func (s *SqlDatabase) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes cached statements and the database.
func (s *SqlDatabase) Close() error {
	if s.stmts != nil {
		_ = s.stmts.Close()
	}
	return s.db.Close()
}

// Assert that SqlDatabase implements the Database interface.
var _ Database = (*SqlDatabase)(nil)
