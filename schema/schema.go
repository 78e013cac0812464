package schema

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Registry builds and caches entity metadata for Go models.
type Registry struct {
	namingStrategy NamingStrategy
	tagName        string
	cacheSize      int
	onEvict        func(reflect.Type, *EntityMeta)

	parser      *TagParser
	entityCache *lru.Cache[reflect.Type, *EntityMeta]
}

type Option func(*Registry)

// WithNamingStrategy sets the naming strategy for database column mapping
func WithNamingStrategy(strategy NamingStrategy) Option {
	return func(r *Registry) { r.namingStrategy = strategy }
}

// WithTagName sets the struct tag name to use for database field mapping
func WithTagName(tagName string) Option {
	return func(r *Registry) { r.tagName = tagName }
}

// WithCacheSize sets the LRU cache size for struct metadata
func WithCacheSize(size int) Option {
	return func(r *Registry) { r.cacheSize = size }
}

// WithEvictionCallback sets a callback function for cache eviction events
func WithEvictionCallback(onEvict func(reflect.Type, *EntityMeta)) Option {
	return func(r *Registry) { r.onEvict = onEvict }
}

// New creates a registry with configuration
func New(options ...Option) (*Registry, error) {
	r := &Registry{
		namingStrategy: DefaultNamingStrategy(),
		tagName:        "db",
		cacheSize:      256,
	}
	for _, opt := range options {
		opt(r)
	}

	r.parser = NewTagParser(r.tagName, r.namingStrategy)
	cache, err := lru.NewWithEvict(r.cacheSize, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.entityCache = cache
	return r, nil
}

// Introspect returns the metadata of the struct type t, building it on
// first use.
func (r *Registry) Introspect(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if meta, ok := r.entityCache.Get(t); ok {
		return meta, nil
	}
	meta, err := buildMeta(t, r.parser, r.namingStrategy)
	if err != nil {
		return nil, err
	}
	r.entityCache.Add(t, meta)
	return meta, nil
}

// Len reports the number of cached entities.
func (r *Registry) Len() int {
	return r.entityCache.Len()
}
