package query

import (
	"errors"
	"testing"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/dialect"
	"github.com/Konsultn-Engineering/sqlfrag/visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// stubFragment applies nothing and carries a fixed key and parameters.
type stubFragment struct {
	key      string
	keyed    bool
	priority int
	params   *Parameters
}

func stub(key string, params map[string]any) *stubFragment {
	return &stubFragment{key: key, keyed: true, params: NewParameters("stub "+key, params)}
}

func (s *stubFragment) Priority() int                              { return s.priority }
func (s *stubFragment) Key() (string, bool)                        { return s.key, s.keyed }
func (s *stubFragment) Parameters() *Parameters                    { return s.params }
func (s *stubFragment) ApplyTo(ast.Statement, *BuildContext) error { return nil }

func usersTable() *ast.Table {
	return ast.NewTable("", "users", ast.SelfAlias)
}

func selectUsers() *ast.SelectStmt {
	return ast.NewStatement(ast.KindSelect, usersTable()).(*ast.SelectStmt)
}

func compile(t *testing.T, stmt ast.Statement) (string, []string) {
	t.Helper()
	q, err := visitor.Compile(dialect.NewPostgresDialect(), stmt)
	require.NoError(t, err)
	return q.SQL, q.ArgsOrder
}

func TestFragmentListEmptyKey(t *testing.T) {
	l := MustFragmentList()
	key, ok := l.Key()
	assert.True(t, ok)
	assert.Equal(t, "empty", key)
	assert.Equal(t, 0, l.Parameters().Len())
}

func TestFragmentListKeyIsOrderIndependent(t *testing.T) {
	fragments := []Fragment{
		Eq("name", "bob"),
		IsNull("deleted_at"),
		Desc("id"),
		Limit(10),
		Gt("age", 18),
		Columns("id", "name"),
	}
	want, ok := MustFragmentList(fragments...).Key()
	require.True(t, ok)

	rapid.Check(t, func(t *rapid.T) {
		perm := rapid.Permutation(fragments).Draw(t, "fragments")
		l, err := NewFragmentList(perm...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, ok := l.Key()
		if !ok || got != want {
			t.Fatalf("key %q (%v), want %q", got, ok, want)
		}

		sel := selectUsers()
		if err := l.Apply(sel, false); err != nil {
			t.Fatalf("apply: %v", err)
		}
		q, err := visitor.Compile(dialect.NewPostgresDialect(), sel)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		if q.SQL != `SELECT "self"."id", "self"."name" FROM "users" AS "self" WHERE "self"."age" > $1 AND "self"."name" = $2 AND "self"."deleted_at" IS NULL ORDER BY "self"."id" DESC LIMIT $3` {
			t.Fatalf("unexpected SQL %s", q.SQL)
		}
	})
}

func TestFragmentListKeyWithoutKeyedMember(t *testing.T) {
	noop := Func(PriorityDefault, func(ast.Statement, *BuildContext) error { return nil })

	l := MustFragmentList(Eq("id", 1), noop)
	_, ok := l.Key()
	assert.False(t, ok)

	outer := MustFragmentList(IsNull("x"), l)
	_, ok = outer.Key()
	assert.False(t, ok)
}

func TestFragmentListDeduplication(t *testing.T) {
	t.Run("UnparametrizedDuplicateDropped", func(t *testing.T) {
		l := MustFragmentList(IsNull("a"), IsNull("a"))
		assert.Equal(t, 1, l.Len())
	})

	t.Run("ParametrizedReplacesUnparametrized", func(t *testing.T) {
		plain := stub("k", nil)
		withParams := stub("k", map[string]any{"x": 1})

		l := MustFragmentList(IsNull("a"), plain, withParams)
		require.Equal(t, 2, l.Len())
		assert.Same(t, withParams, l.Fragments()[1])
		v, ok := l.Parameters().Get("x")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("ParametrizedDuplicateKeepsFirst", func(t *testing.T) {
		first := stub("k", map[string]any{"a": 1})
		second := stub("k", map[string]any{"a": 1, "b": 2})

		l := MustFragmentList(first, second)
		require.Equal(t, 1, l.Len())
		assert.Same(t, first, l.Fragments()[0])
		assert.Equal(t, map[string]any{"a": 1, "b": 2}, l.Parameters().Map())
	})

	t.Run("EqualValuesAcrossNumericTypes", func(t *testing.T) {
		l, err := NewFragmentList(Eq("id", 1), Eq("id", int64(1)), Eq("id", 1.0))
		require.NoError(t, err)
		assert.Equal(t, 1, l.Len())
	})

	t.Run("ConflictingDuplicate", func(t *testing.T) {
		_, err := NewFragmentList(Eq("id", 1), Eq("id", 2))
		require.ErrorIs(t, err, ErrParameterConflict)

		var conflict *ParameterConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "self_id_eq", conflict.Name)
		assert.Equal(t, 1, conflict.Value)
		assert.Equal(t, 2, conflict.OtherValue)
	})
}

func TestFragmentListConflictNamesParameterAndOwners(t *testing.T) {
	_, err := NewFragmentList(stub("first", map[string]any{"foo": 1}), stub("second", map[string]any{"foo": 2}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foo")
	assert.Contains(t, err.Error(), "stub first")
	assert.Contains(t, err.Error(), "stub second")

	l := MustFragmentList(Eq("id", 1))
	err = l.MergeParameters(map[string]any{"self_id_eq": 2})
	assert.ErrorIs(t, err, ErrParameterConflict)
	assert.Equal(t, map[string]any{"self_id_eq": 1}, l.Parameters().Map())
}

func TestFragmentListPriorityOrdering(t *testing.T) {
	late := &stubFragment{priority: PriorityDefault}
	l := MustFragmentList(
		Limit(5),
		late,
		Eq("b", 1),
		Asc("a"),
		&stubFragment{key: "cte", keyed: true, priority: PriorityCTE},
		Eq("a", 1),
	)

	var keys []string
	for _, f := range l.SortedFragments() {
		k, _ := f.Key()
		keys = append(keys, k)
	}
	assert.Equal(t, []string{
		"cte",
		"cmp.self.a = :self_a_eq",
		"cmp.self.b = :self_b_eq",
		"",
		"order.self.a.asc",
		"limit",
	}, keys)
}

func TestFragmentListOrderPriority(t *testing.T) {
	sel := selectUsers()
	l := MustFragmentList(Asc("name"), Desc("created_at").WithPriority(PriorityOrder+1))
	require.NoError(t, l.Apply(sel, false))

	sql, _ := compile(t, sel)
	assert.Equal(t, `SELECT "self".* FROM "users" AS "self" ORDER BY "self"."created_at" DESC, "self"."name" ASC`, sql)
}

func TestFragmentListFlattensNestedLists(t *testing.T) {
	inner := MustFragmentList(Eq("a", 1), IsNull("b"))
	require.NoError(t, inner.MergeParameters(map[string]any{"tenant": 7}))

	outer := MustFragmentList(IsNull("b"), inner)
	assert.Equal(t, 2, outer.Len())
	assert.Equal(t, map[string]any{"self_a_eq": 1, "tenant": 7}, outer.Parameters().Map())

	for _, f := range outer.Fragments() {
		_, nested := f.(*FragmentList)
		assert.False(t, nested)
	}
}

func TestFragmentListFilterKeepsOwnParameters(t *testing.T) {
	l := MustFragmentList(Eq("name", "bob"), Asc("id"), Limit(3))
	require.NoError(t, l.MergeParameters(map[string]any{"tenant": 7}))

	filtered := l.Filter(func(f Fragment) bool {
		_, isOrder := f.(*OrderFragment)
		return !isOrder
	})
	assert.Equal(t, 2, filtered.Len())
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, map[string]any{"self_name_eq": "bob", "limit": 3, "tenant": 7}, filtered.Parameters().Map())

	onlyOrder := l.Filter(func(f Fragment) bool {
		_, isOrder := f.(*OrderFragment)
		return isOrder
	})
	assert.Equal(t, map[string]any{"tenant": 7}, onlyOrder.Parameters().Map())
}

func TestFragmentListNilNestedList(t *testing.T) {
	var nested *FragmentList

	tests := []struct {
		name  string
		build func() (*FragmentList, error)
	}{
		{"Add", func() (*FragmentList, error) {
			l := MustFragmentList(Eq("a", 1))
			return l, l.Add(nested)
		}},
		{"Constructor", func() (*FragmentList, error) { return NewFragmentList(Eq("a", 1), nested) }},
		{"Normalize", func() (*FragmentList, error) { return Normalize([]any{Eq("a", 1), nested}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l *FragmentList
			var err error
			require.NotPanics(t, func() { l, err = tt.build() })
			require.NoError(t, err)
			assert.Equal(t, 1, l.Len())
		})
	}

	assert.Equal(t, 0, nested.Len())
	assert.Equal(t, 0, nested.Parameters().Len())
}

func TestFragmentListCloneIsIndependent(t *testing.T) {
	l := MustFragmentList(Eq("a", 1))
	c := l.Clone()
	require.NoError(t, c.Add(IsNull("b")))

	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, c.Len())
}

func TestFragmentListPanicsOnListOnlyQuestions(t *testing.T) {
	l := MustFragmentList(Eq("a", 1))
	assert.PanicsWithValue(t, ErrListPriority, func() { l.Priority() })
	assert.PanicsWithValue(t, ErrListUsedForCount, func() { l.UsedForCount() })
}

func TestFragmentListCountPass(t *testing.T) {
	l := MustFragmentList(Eq("name", "bob"), Desc("id"), Limit(10), Columns("id", "name"))

	sel := selectUsers()
	require.NoError(t, l.Apply(sel, false))
	sql, args := compile(t, sel)
	assert.Equal(t, `SELECT "self"."id", "self"."name" FROM "users" AS "self" WHERE "self"."name" = $1 ORDER BY "self"."id" DESC LIMIT $2`, sql)
	assert.Equal(t, []string{"self_name_eq", "limit"}, args)

	count := selectUsers()
	require.NoError(t, l.Apply(count, true))
	sql, args = compile(t, count)
	assert.Equal(t, `SELECT "self".* FROM "users" AS "self" WHERE "self"."name" = $1`, sql)
	assert.Equal(t, []string{"self_name_eq"}, args)
}

func TestFragmentListApplyIsRepeatable(t *testing.T) {
	l := MustFragmentList(Eq("name", "bob"), IsNull("deleted_at"))

	first, second := selectUsers(), selectUsers()
	require.NoError(t, l.Apply(first, false))
	require.NoError(t, l.Apply(second, false))

	a, _ := compile(t, first)
	b, _ := compile(t, second)
	assert.Equal(t, a, b)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantLen int
		wantErr error
	}{
		{"Nil", nil, 0, nil},
		{"Fragment", Eq("a", 1), 1, nil},
		{"List", MustFragmentList(Eq("a", 1), IsNull("b")), 2, nil},
		{"Builder", NewBuilder().WhereEq("a", 1).Limit(2), 2, nil},
		{"Slice", []any{Eq("a", 1), []Fragment{IsNull("b")}, nil}, 2, nil},
		{"Unsupported", 42, 0, ErrUnsupportedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Normalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, l.Len())
		})
	}
}

func TestBuildContextAliases(t *testing.T) {
	bc := NewBuildContext()
	assert.Equal(t, "gw_1", bc.NextAlias())
	assert.Equal(t, "gw_2", bc.NextAlias())
	assert.Equal(t, "gw_1", NewBuildContext().NextAlias())
}
