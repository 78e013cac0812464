package engine

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/Konsultn-Engineering/sqlfrag/database"
	"github.com/Konsultn-Engineering/sqlfrag/schema"
)

type ScanBuffers struct {
	vals []any
	ptrs []any
}

// Prepare sizes the buffers for a row of size columns.
func (sb *ScanBuffers) Prepare(size int) {
	if cap(sb.vals) < size {
		sb.vals = make([]any, size)
		sb.ptrs = make([]any, size)
	}
	sb.vals = sb.vals[:size]
	sb.ptrs = sb.ptrs[:size]
	for i := range sb.vals {
		sb.vals[i] = nil
		sb.ptrs[i] = &sb.vals[i]
	}
}

var scanPool = sync.Pool{
	New: func() any {
		return &ScanBuffers{
			vals: make([]any, 0, 20),
			ptrs: make([]any, 0, 20),
		}
	},
}

func scanMaps(rows database.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	sb := scanPool.Get().(*ScanBuffers)
	defer scanPool.Put(sb)
	sb.Prepare(len(columns))

	var out []map[string]any
	for rows.Next() {
		if err := rows.Scan(sb.ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := sb.vals[i].([]byte); ok {
				sb.vals[i] = append([]byte(nil), b...)
			}
			row[c] = sb.vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// scanEntities fills dest, a *T, *[]T or *[]*T of the entity type.
func scanEntities(meta *schema.EntityMeta, rows database.Rows, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return ErrInvalidDest
	}
	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	target := dv.Elem()
	if target.Type() == meta.Type {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return err
			}
			return ErrNotFound
		}
		if err := scanEntity(meta, rows, columns, dest); err != nil {
			return err
		}
		return rows.Err()
	}

	if target.Kind() != reflect.Slice {
		return fmt.Errorf("%w: got %T", ErrInvalidDest, dest)
	}
	elemType := target.Type().Elem()
	byPointer := elemType.Kind() == reflect.Ptr
	if byPointer {
		elemType = elemType.Elem()
	}
	if elemType != meta.Type {
		return fmt.Errorf("%w: got %T for %s", ErrInvalidDest, dest, meta.Name)
	}

	slice := reflect.MakeSlice(target.Type(), 0, 10)
	for rows.Next() {
		elem := reflect.New(elemType)
		if err := scanEntity(meta, rows, columns, elem.Interface()); err != nil {
			return err
		}
		if byPointer {
			slice = reflect.Append(slice, elem)
		} else {
			slice = reflect.Append(slice, elem.Elem())
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	target.Set(slice)
	return nil
}

func scanEntity(meta *schema.EntityMeta, rows database.Rows, columns []string, ptr any) error {
	targets, err := meta.ScanTargets(ptr, columns)
	if err != nil {
		return err
	}
	return rows.Scan(targets...)
}

func isZero(v any) bool {
	rv := reflect.ValueOf(v)
	return !rv.IsValid() || rv.IsZero()
}

// setColumn assigns v to the field of entity mapped to column.
func setColumn(meta *schema.EntityMeta, entity any, column string, v any) error {
	targets, err := meta.ScanTargets(entity, []string{column})
	if err != nil {
		return err
	}
	field := reflect.ValueOf(targets[0]).Elem()
	val := reflect.ValueOf(v)
	if !val.Type().ConvertibleTo(field.Type()) {
		return fmt.Errorf("engine: cannot assign %T to %s.%s", v, meta.Name, column)
	}
	field.Set(val.Convert(field.Type()))
	return nil
}
