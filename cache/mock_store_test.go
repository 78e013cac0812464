package cache

import (
	"context"
)

type mockStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, bool, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	getCalls int
	setCalls int
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.getCalls++
	if m.getFn == nil {
		return nil, false, nil
	}
	return m.getFn(ctx, key)
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	m.setCalls++
	if m.setFn == nil {
		return nil
	}
	return m.setFn(ctx, key, value)
}
