package cache

import (
	"context"

	json "github.com/bytedance/sonic"
)

// Store is the byte level contract of a statement cache backend. Errors are
// never fatal to callers of GetOrCompute.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(b []byte) (T, error)
}

type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec[T]) Decode(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

// GetOrCompute returns the value stored under key, or the result of factory
// on a miss. An empty key or a nil store bypasses the cache entirely. Read,
// decode, encode and write failures all degrade to a miss. The boolean result
// reports a cache hit.
func GetOrCompute[T any](ctx context.Context, store Store, codec Codec[T], key string, factory func() (T, error)) (T, bool, error) {
	if key == "" || store == nil {
		v, err := factory()
		return v, false, err
	}

	if b, ok, err := store.Get(ctx, key); err == nil && ok {
		if v, err := codec.Decode(b); err == nil {
			return v, true, nil
		}
	}

	v, err := factory()
	if err != nil {
		return v, false, err
	}

	if b, err := codec.Encode(v); err == nil {
		_ = store.Set(ctx, key, b)
	}
	return v, false, nil
}
