package engine

import (
	"context"
	"errors"

	"github.com/Konsultn-Engineering/sqlfrag/query"
)

// FindBy returns every T matched by fragments.
func FindBy[T any](ctx context.Context, e *Engine, fragments ...any) ([]T, error) {
	sel, err := selectFor[T](e, fragments)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := sel.Fetch(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// First returns the first T matched by fragments, or ErrNotFound.
func First[T any](ctx context.Context, e *Engine, fragments ...any) (*T, error) {
	sel, err := selectFor[T](e, append(fragments, query.Limit(1)))
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := sel.Fetch(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the T with the given primary key values.
func FindByID[T any](ctx context.Context, e *Engine, id ...any) (*T, error) {
	g, err := For[T](e)
	if err != nil {
		return nil, err
	}
	where, err := query.PrimaryKey(g.meta.PrimaryKey, id...)
	if err != nil {
		return nil, err
	}
	return First[T](ctx, e, where)
}

func Exists[T any](ctx context.Context, e *Engine, fragments ...any) (bool, error) {
	sel, err := selectFor[T](e, fragments)
	if err != nil {
		return false, err
	}
	return sel.Exists(ctx)
}

func Count[T any](ctx context.Context, e *Engine, fragments ...any) (int64, error) {
	sel, err := selectFor[T](e, fragments)
	if err != nil {
		return 0, err
	}
	return sel.Count(ctx)
}

// FindWithPagination returns the 1-based page of T matched by fragments and
// the total number of matches.
func FindWithPagination[T any](ctx context.Context, e *Engine, page, size int, fragments ...any) ([]T, int64, error) {
	if page < 1 || size < 1 {
		return nil, 0, errors.New("engine: page and size must be positive")
	}
	sel, err := selectFor[T](e, fragments)
	if err != nil {
		return nil, 0, err
	}
	total, err := sel.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	pageSel, err := selectFor[T](e, append(fragments, query.Limit(size), query.Offset((page-1)*size)))
	if err != nil {
		return nil, 0, err
	}
	var items []T
	if err := pageSel.Fetch(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CreateMany inserts each entity in order and stops at the first error.
func CreateMany[T any](ctx context.Context, e *Engine, entities []*T) error {
	g, err := For[T](e)
	if err != nil {
		return err
	}
	for _, entity := range entities {
		if err := g.Create(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func UpdateWhere[T any](ctx context.Context, e *Engine, set map[string]any, fragments ...any) (int64, error) {
	g, err := For[T](e)
	if err != nil {
		return 0, err
	}
	return g.Update(ctx, set, fragments...)
}

func DeleteWhere[T any](ctx context.Context, e *Engine, fragments ...any) (int64, error) {
	g, err := For[T](e)
	if err != nil {
		return 0, err
	}
	return g.Delete(ctx, fragments...)
}

// Save upserts entity on its primary key.
func Save[T any](ctx context.Context, e *Engine, entity *T) error {
	g, err := For[T](e)
	if err != nil {
		return err
	}
	return g.Save(ctx, entity)
}

func selectFor[T any](e *Engine, fragments []any) (*TableSelect, error) {
	g, err := For[T](e)
	if err != nil {
		return nil, err
	}
	return g.Select(fragments...)
}
