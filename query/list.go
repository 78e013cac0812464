package query

import (
	"fmt"
	"sort"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/utils"
)

const (
	listOwner = "fragment list"
	emptyKey  = "empty"
)

// FragmentList is an ordered, de-duplicated collection of fragments.
// Nested lists are flattened on insertion. Two members with the same key are
// considered equal; only one survives.
//
// A list is mutable while being assembled. Once handed to a statement it must
// not be modified; use Clone or Filter to derive new lists.
type FragmentList struct {
	fragments []Fragment
	index     map[string]int
	own       *Parameters
	merged    *Parameters
}

func NewFragmentList(fragments ...Fragment) (*FragmentList, error) {
	l := &FragmentList{index: make(map[string]int)}
	if err := l.Add(fragments...); err != nil {
		return nil, err
	}
	return l, nil
}

// MustFragmentList is NewFragmentList that panics on error.
func MustFragmentList(fragments ...Fragment) *FragmentList {
	l, err := NewFragmentList(fragments...)
	if err != nil {
		panic(err)
	}
	return l
}

// Normalize turns nil, a fragment, a fragment builder, a list or a slice of
// those into a *FragmentList.
func Normalize(input any) (*FragmentList, error) {
	l := &FragmentList{index: make(map[string]int)}
	if err := l.addAny(input); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FragmentList) addAny(input any) error {
	switch v := input.(type) {
	case nil:
		return nil
	case *FragmentList:
		return l.Add(v)
	case Fragment:
		return l.Add(v)
	case FragmentBuilder:
		return l.AddBuilder(v)
	case []Fragment:
		return l.Add(v...)
	case []any:
		for _, item := range v {
			if err := l.addAny(item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedInput, input)
	}
}

// Add inserts fragments, flattening nested lists. When a fragment's key is
// already present:
//   - a parametrized fragment replaces an unparametrized one in place;
//   - a parametrized fragment otherwise only contributes its parameters to
//     the list and is discarded;
//   - an unparametrized fragment is discarded.
//
// Parameter conflicts are reported immediately and leave the list unchanged
// for the offending fragment.
func (l *FragmentList) Add(fragments ...Fragment) error {
	for _, f := range fragments {
		if err := l.add(f); err != nil {
			return err
		}
	}
	return nil
}

func (l *FragmentList) AddBuilder(b FragmentBuilder) error {
	f, err := b.BuildFragment()
	if err != nil {
		return err
	}
	return l.add(f)
}

func (l *FragmentList) add(f Fragment) error {
	if f == nil {
		return nil
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}

	if nested, ok := f.(*FragmentList); ok {
		if nested == nil || nested == l {
			return nil
		}
		if err := l.mergeOwn(nested.own); err != nil {
			return err
		}
		for _, member := range nested.fragments {
			if err := l.add(member); err != nil {
				return err
			}
		}
		return nil
	}

	key, keyed := f.Key()
	if !keyed {
		return l.appendFragment(f, "", false)
	}

	i, exists := l.index[key]
	if !exists {
		return l.appendFragment(f, key, true)
	}

	if !isParametrized(f) {
		return nil
	}
	if !isParametrized(l.fragments[i]) {
		merged, err := MergeParameters(l.merged, parametersOf(f))
		if err != nil {
			return err
		}
		l.fragments[i] = f
		l.merged = merged
		return nil
	}
	return l.mergeOwn(parametersOf(f))
}

func (l *FragmentList) appendFragment(f Fragment, key string, keyed bool) error {
	merged, err := MergeParameters(l.merged, parametersOf(f))
	if err != nil {
		return err
	}
	l.merged = merged
	if keyed {
		l.index[key] = len(l.fragments)
	}
	l.fragments = append(l.fragments, f)
	return nil
}

func (l *FragmentList) mergeOwn(p *Parameters) error {
	if p.Len() == 0 {
		return nil
	}
	own, err := MergeParameters(l.own, p)
	if err != nil {
		return err
	}
	merged, err := MergeParameters(l.merged, p)
	if err != nil {
		return err
	}
	l.own, l.merged = own, merged
	return nil
}

// MergeParameters adds caller supplied values to the list's own parameters.
func (l *FragmentList) MergeParameters(values map[string]any) error {
	return l.mergeOwn(NewParameters(listOwner, values))
}

// Parameters returns the union of the list's own parameters and those of
// every member.
func (l *FragmentList) Parameters() *Parameters {
	if l == nil || l.merged == nil {
		return NewParameters(listOwner, nil)
	}
	return l.merged
}

func (l *FragmentList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.fragments)
}

// Fragments returns the members in insertion order.
func (l *FragmentList) Fragments() []Fragment {
	out := make([]Fragment, len(l.fragments))
	copy(out, l.fragments)
	return out
}

// SortedFragments returns the members ordered by priority, highest first.
// Equal priorities are ordered by key; fragments without a key come last and
// keep their insertion order.
func (l *FragmentList) SortedFragments() []Fragment {
	out := l.Fragments()
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Priority(), out[j].Priority()
		if pi != pj {
			return pi > pj
		}
		ki, oki := out[i].Key()
		kj, okj := out[j].Key()
		switch {
		case oki && okj:
			return ki < kj
		case oki:
			return true
		default:
			return false
		}
	})
	return out
}

// Key identifies the list by the keys of its members, independent of
// insertion order. It reports false if any member has no key.
func (l *FragmentList) Key() (string, bool) {
	if len(l.fragments) == 0 {
		return emptyKey, true
	}
	sorted := l.SortedFragments()
	keys := make([]string, len(sorted))
	for i, f := range sorted {
		k, ok := f.Key()
		if !ok {
			return "", false
		}
		keys[i] = k
	}
	return "list." + utils.HashKey(keys...), true
}

// Priority panics: a list is flattened into its parent and never ordered.
func (l *FragmentList) Priority() int {
	panic(ErrListPriority)
}

// UsedForCount panics: the decision is made per member.
func (l *FragmentList) UsedForCount() bool {
	panic(ErrListUsedForCount)
}

func (l *FragmentList) ApplyTo(stmt ast.Statement, bc *BuildContext) error {
	return l.apply(stmt, bc, false)
}

func (l *FragmentList) ApplyToSelect(sel *ast.SelectStmt, bc *BuildContext, count bool) error {
	return l.apply(sel, bc, count)
}

// Apply applies every member to stmt in priority order using a fresh
// BuildContext. When count is set, select fragments not used for counting
// are skipped.
func (l *FragmentList) Apply(stmt ast.Statement, count bool) error {
	return l.apply(stmt, NewBuildContext(), count)
}

func (l *FragmentList) apply(stmt ast.Statement, bc *BuildContext, count bool) error {
	if bc == nil {
		bc = NewBuildContext()
	}
	sel, isSelect := stmt.(*ast.SelectStmt)
	for _, f := range l.SortedFragments() {
		sf, ok := f.(SelectFragment)
		if ok && isSelect {
			if count && !sf.UsedForCount() {
				continue
			}
			if err := sf.ApplyToSelect(sel, bc, count); err != nil {
				return err
			}
			continue
		}
		if err := f.ApplyTo(stmt, bc); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns a new list holding the members accepted by keep. The list's
// own parameters are carried over.
func (l *FragmentList) Filter(keep func(Fragment) bool) *FragmentList {
	out := &FragmentList{
		index:  make(map[string]int),
		own:    l.own,
		merged: l.own,
	}
	for _, f := range l.fragments {
		if !keep(f) {
			continue
		}
		key, keyed := f.Key()
		if err := out.appendFragment(f, key, keyed); err != nil {
			// members of a consistent list cannot conflict with each other
			panic(fmt.Sprintf("query: filtered list became inconsistent: %v", err))
		}
	}
	return out
}

func (l *FragmentList) Clone() *FragmentList {
	out := &FragmentList{
		fragments: l.Fragments(),
		index:     make(map[string]int, len(l.index)),
		own:       l.own,
		merged:    l.merged,
	}
	for k, v := range l.index {
		out.index[k] = v
	}
	return out
}

var _ SelectFragment = (*FragmentList)(nil)
var _ Parametrized = (*FragmentList)(nil)
