package cache

import (
	"context"
	"database/sql"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Preparer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// StatementCache keeps prepared statements keyed by SQL fingerprint and
// closes them on eviction.
type StatementCache struct {
	cache *lru.Cache[uint64, *sql.Stmt]
	mu    sync.RWMutex
}

func NewStatementCache(size int) (*StatementCache, error) {
	cache, err := lru.NewWithEvict(size, func(key uint64, stmt *sql.Stmt) {
		_ = stmt.Close()
	})
	if err != nil {
		return nil, err
	}

	return &StatementCache{
		cache: cache,
	}, nil
}

func (s *StatementCache) Get(key uint64) (*sql.Stmt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cache.Get(key)
}

func (s *StatementCache) GetOrPrepare(ctx context.Context, key uint64, db Preparer, query string) (*sql.Stmt, error) {
	s.mu.RLock()
	if stmt, ok := s.cache.Get(key); ok {
		s.mu.RUnlock()
		return stmt, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if stmt, ok := s.cache.Get(key); ok {
		return stmt, nil
	}

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, stmt)
	return stmt, nil
}

func (s *StatementCache) Len() int {
	return s.cache.Len()
}

func (s *StatementCache) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge() // closes every statement through the evict callback
	return nil
}
