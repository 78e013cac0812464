package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUStore is an in-process Store bounded by entry count.
type LRUStore struct {
	cache *lru.Cache[string, []byte]
}

func NewLRUStore(size int) (*LRUStore, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: c}, nil
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Add(key, append([]byte(nil), value...))
	return nil
}

func (s *LRUStore) Len() int {
	return s.cache.Len()
}

func (s *LRUStore) Purge() {
	s.cache.Purge()
}

var _ Store = (*LRUStore)(nil)
