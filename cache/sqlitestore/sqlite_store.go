package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	_ "github.com/mattn/go-sqlite3"
)

const DefaultTable = "sqlfrag_statement_cache"

// Store keeps compiled statements in a SQLite table.
type Store struct {
	db    *sql.DB
	owned bool
	table string

	getQuery string
	setQuery string
}

// Open opens (or creates) the database file at path and prepares the cache
// table. The returned store owns the database handle.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if path == "" || path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := New(db, DefaultTable)
	s.owned = true
	if err := s.EnsureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New returns a store over an existing handle.
func New(db *sql.DB, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	ident := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	return &Store{
		db:       db,
		table:    ident,
		getQuery: fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, ident),
		setQuery: fmt.Sprintf(`INSERT INTO %s (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value`, ident),
	}
}

func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value BLOB NOT NULL)`, s.table))
	if err != nil {
		return fmt.Errorf("creating statement cache table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	if err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.setQuery, key, value)
	return err
}

// Close closes the handle if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

var _ cache.Store = (*Store)(nil)
