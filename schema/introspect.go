package schema

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	entityCache   sync.Map // map[reflect.Type]*EntityMeta
	defaultParser = NewTagParser("db", DefaultNamingStrategy())
)

// Introspect returns the metadata of t using the default naming strategy.
// Results are cached for the lifetime of the process.
func Introspect(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrNotStruct, t.Kind())
	}
	if meta, ok := entityCache.Load(t); ok {
		return meta.(*EntityMeta), nil
	}
	meta, err := buildMeta(t, defaultParser, DefaultNamingStrategy())
	if err != nil {
		return nil, err
	}
	actual, _ := entityCache.LoadOrStore(t, meta)
	return actual.(*EntityMeta), nil
}

// Of returns the metadata of T.
func Of[T any]() (*EntityMeta, error) {
	return Introspect(reflect.TypeOf((*T)(nil)).Elem())
}
