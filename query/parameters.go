package query

import (
	"bytes"
	"reflect"
	"sort"
	"time"
)

// Parameters is an immutable set of named parameter values. Each value
// remembers which owner contributed it so conflicts can name both sides.
type Parameters struct {
	owner  string
	values map[string]any
	owners map[string]string
}

func NewParameters(owner string, values map[string]any) *Parameters {
	p := &Parameters{
		owner:  owner,
		values: make(map[string]any, len(values)),
		owners: make(map[string]string, len(values)),
	}
	for k, v := range values {
		p.values[k] = v
		p.owners[k] = owner
	}
	return p
}

func (p *Parameters) Owner() string {
	if p == nil {
		return ""
	}
	return p.owner
}

func (p *Parameters) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

func (p *Parameters) Get(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Names returns the parameter names in ascending order.
func (p *Parameters) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.values))
	for k := range p.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the values.
func (p *Parameters) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Rename returns a copy of p with every name replaced by rename(name).
// Owners are kept.
func (p *Parameters) Rename(rename func(string) string) *Parameters {
	if p.Len() == 0 {
		return p
	}
	out := &Parameters{
		owner:  p.owner,
		values: make(map[string]any, len(p.values)),
		owners: make(map[string]string, len(p.values)),
	}
	for k, v := range p.values {
		to := rename(k)
		out.values[to] = v
		out.owners[to] = p.owners[k]
	}
	return out
}

// MergeParameters returns the union of a and b. A name present on both
// sides must carry loosely equal values, otherwise a *ParameterConflictError
// naming both owners is returned. An empty side returns the other unchanged.
func MergeParameters(a, b *Parameters) (*Parameters, error) {
	if b.Len() == 0 {
		return a, nil
	}
	if a.Len() == 0 {
		return b, nil
	}

	out := &Parameters{
		owner:  a.owner,
		values: make(map[string]any, len(a.values)+len(b.values)),
		owners: make(map[string]string, len(a.values)+len(b.values)),
	}
	for k, v := range a.values {
		out.values[k] = v
		out.owners[k] = a.owners[k]
	}
	for _, k := range b.Names() {
		v := b.values[k]
		if existing, ok := out.values[k]; ok {
			if !looseEqual(existing, v) {
				return nil, &ParameterConflictError{
					Name:       k,
					Owner:      out.owners[k],
					OtherOwner: b.owners[k],
					Value:      existing,
					OtherValue: v,
				}
			}
			continue
		}
		out.values[k] = v
		out.owners[k] = b.owners[k]
	}
	return out, nil
}

// looseEqual compares numbers by value across Go numeric types, times by
// instant and byte slices by content. Anything else uses reflect.DeepEqual.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if isNumber(va.Kind()) && isNumber(vb.Kind()) {
		return numbersEqual(va, vb)
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func numbersEqual(a, b reflect.Value) bool {
	ka, kb := numberClass(a.Kind()), numberClass(b.Kind())
	switch {
	case ka == 'f' || kb == 'f':
		return toFloat(a) == toFloat(b)
	case ka == 'i' && kb == 'i':
		return a.Int() == b.Int()
	case ka == 'u' && kb == 'u':
		return a.Uint() == b.Uint()
	case ka == 'i':
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	default:
		return b.Int() >= 0 && uint64(b.Int()) == a.Uint()
	}
}

func numberClass(k reflect.Kind) byte {
	switch k {
	case reflect.Float32, reflect.Float64:
		return 'f'
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 'i'
	default:
		return 'u'
	}
}

func toFloat(v reflect.Value) float64 {
	switch numberClass(v.Kind()) {
	case 'f':
		return v.Float()
	case 'i':
		return float64(v.Int())
	default:
		return float64(v.Uint())
	}
}
