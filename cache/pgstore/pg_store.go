package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const DefaultTable = "sqlfrag_statement_cache"

// Store keeps compiled statements in a Postgres table.
type Store struct {
	querier Querier
	table   string

	getQuery string
	setQuery string
}

// New returns a store over table, which may be schema qualified.
func New(querier Querier, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return &Store{
		querier:  querier,
		table:    ident,
		getQuery: fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, ident),
		setQuery: fmt.Sprintf(`INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, ident),
	}
}

// EnsureTable creates the backing table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.querier.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table))
	if err != nil {
		return fmt.Errorf("creating statement cache table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	if err := s.querier.QueryRow(ctx, s.getQuery, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.querier.Exec(ctx, s.setQuery, key, value)
	return err
}

var _ cache.Store = (*Store)(nil)
