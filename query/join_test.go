package query

import (
	"testing"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersTable() *ast.Table {
	return ast.NewTable("", "orders", "")
}

// ownedBy matches joined.user_id = self.id.
func ownedBy() Condition {
	return Expr(&ast.BinaryExpr{
		Left:     ast.Col(JoinedAlias + ".user_id"),
		Operator: ast.OpEqual,
		Right:    ast.Col("self.id"),
	}, nil)
}

func applyJoin(t *testing.T, strategy JoinStrategy, joined *FragmentList, count bool) (string, []string) {
	t.Helper()
	j, err := Join(ordersTable(), strategy, ownedBy(), joined)
	require.NoError(t, err)

	sel := selectUsers()
	require.NoError(t, MustFragmentList(j).Apply(sel, count))
	return compile(t, sel)
}

func TestJoinStrategies(t *testing.T) {
	joined := func() *FragmentList { return MustFragmentList(Eq("status", "paid"), Columns("total")) }

	tests := []struct {
		name     string
		strategy JoinStrategy
		count    bool
		want     string
	}{
		{
			name:     "Explicit",
			strategy: ExplicitJoin(ast.JoinLeft),
			want:     `SELECT "self".*, "gw_1"."total" FROM "users" AS "self" LEFT JOIN "orders" AS "gw_1" ON "gw_1"."user_id" = "self"."id" AND "gw_1"."status" = $1`,
		},
		{
			name:     "ExplicitCount",
			strategy: ExplicitJoin(ast.JoinLeft),
			count:    true,
			want:     `SELECT "self".* FROM "users" AS "self" LEFT JOIN "orders" AS "gw_1" ON "gw_1"."user_id" = "self"."id" AND "gw_1"."status" = $1`,
		},
		{
			name:     "Inline",
			strategy: InlineJoin(),
			want:     `SELECT "self".*, "gw_1"."total" FROM "users" AS "self", "orders" AS "gw_1" WHERE "gw_1"."user_id" = "self"."id" AND "gw_1"."status" = $1`,
		},
		{
			name:     "Lateral",
			strategy: LateralJoin(ast.JoinLeft),
			want:     `SELECT "self".*, "gw_1".* FROM "users" AS "self" LEFT JOIN LATERAL (SELECT "gw_1"."total" FROM "orders" AS "gw_1" WHERE "gw_1"."status" = $1 AND "gw_1"."user_id" = "self"."id") AS "gw_1" ON TRUE`,
		},
		{
			name:     "LateralAppend",
			strategy: LateralAppend(),
			want:     `SELECT "self".*, "gw_1".* FROM "users" AS "self", LATERAL (SELECT "gw_1"."total" FROM "orders" AS "gw_1" WHERE "gw_1"."status" = $1 AND "gw_1"."user_id" = "self"."id") AS "gw_1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := applyJoin(t, tt.strategy, joined(), tt.count)
			assert.Equal(t, tt.want, sql)
			require.Len(t, args, 1)
			assert.Regexp(t, `^join_orders_[0-9a-f]{8}_self_status_eq$`, args[0])
		})
	}
}

func TestJoinParametersAreNamespaced(t *testing.T) {
	strategies := []struct {
		name     string
		strategy JoinStrategy
	}{
		{"Inline", InlineJoin()},
		{"Explicit", ExplicitJoin(ast.JoinInner)},
		{"Lateral", LateralJoin(ast.JoinLeft)},
	}

	for _, st := range strategies {
		t.Run(st.name, func(t *testing.T) {
			j, err := Join(ordersTable(), st.strategy, ownedBy(), MustFragmentList(Eq("status", "paid")))
			require.NoError(t, err)

			l, err := NewFragmentList(Eq("status", "active"), j)
			require.NoError(t, err)

			sel := selectUsers()
			require.NoError(t, l.Apply(sel, false))
			_, args := compile(t, sel)
			require.Len(t, args, 2)

			got := map[any]bool{}
			for _, name := range args {
				v, ok := l.Parameters().Get(name)
				require.True(t, ok, name)
				got[v] = true
			}
			assert.Equal(t, map[any]bool{"active": true, "paid": true}, got)
		})
	}

	t.Run("LimitInsideLateral", func(t *testing.T) {
		j, err := Join(ordersTable(), LateralJoin(ast.JoinLeft), ownedBy(), MustFragmentList(Desc("created_at"), Limit(1)))
		require.NoError(t, err)

		l, err := NewFragmentList(Limit(10), j)
		require.NoError(t, err)

		sel := selectUsers()
		require.NoError(t, l.Apply(sel, false))
		sql, args := compile(t, sel)
		assert.Equal(t, `SELECT "self".* FROM "users" AS "self" LEFT JOIN LATERAL (SELECT "gw_1".* FROM "orders" AS "gw_1" WHERE "gw_1"."user_id" = "self"."id" ORDER BY "gw_1"."created_at" DESC LIMIT $1) AS "gw_1" ON TRUE LIMIT $2`, sql)
		require.Len(t, args, 2)
		inner, _ := l.Parameters().Get(args[0])
		outer, _ := l.Parameters().Get(args[1])
		assert.Equal(t, 1, inner)
		assert.Equal(t, 10, outer)
	})

	t.Run("SameJoinSameNames", func(t *testing.T) {
		a, err := Join(ordersTable(), InlineJoin(), ownedBy(), MustFragmentList(Eq("status", "paid")))
		require.NoError(t, err)
		b, err := Join(ordersTable(), InlineJoin(), ownedBy(), MustFragmentList(Eq("status", "open")))
		require.NoError(t, err)
		assert.Equal(t, a.Parameters().Names(), b.Parameters().Names())
	})
}

func TestJoinCountKeepsJoinedLimit(t *testing.T) {
	joined := func() *FragmentList { return MustFragmentList(Desc("created_at"), Limit(1)) }

	for _, strategy := range []JoinStrategy{LateralJoin(ast.JoinLeft), LateralAppend()} {
		t.Run(strategy.Key(), func(t *testing.T) {
			sql, args := applyJoin(t, strategy, joined(), false)
			countSQL, countArgs := applyJoin(t, strategy, joined(), true)

			assert.Equal(t, sql, countSQL)
			assert.Equal(t, args, countArgs)
			assert.Contains(t, countSQL, `ORDER BY "gw_1"."created_at" DESC LIMIT $1`)
		})
	}

	t.Run("InlineStillRejected", func(t *testing.T) {
		j, err := Join(ordersTable(), InlineJoin(), ownedBy(), joined())
		require.NoError(t, err)
		assert.ErrorIs(t, MustFragmentList(j).Apply(selectUsers(), true), ErrJoinNotMergeable)
	})
}

func TestJoinAliasesFollowSortedOrder(t *testing.T) {
	orders, err := Join(ordersTable(), ExplicitJoin(ast.JoinInner), ownedBy(), nil)
	require.NoError(t, err)
	profiles, err := Join(ast.NewTable("", "profiles", ""), ExplicitJoin(ast.JoinLeft), ownedBy(), nil)
	require.NoError(t, err)

	for _, l := range []*FragmentList{MustFragmentList(orders, profiles), MustFragmentList(profiles, orders)} {
		sel := selectUsers()
		require.NoError(t, l.Apply(sel, false))
		sql, _ := compile(t, sel)
		assert.Equal(t, `SELECT "self".* FROM "users" AS "self" JOIN "orders" AS "gw_1" ON "gw_1"."user_id" = "self"."id" LEFT JOIN "profiles" AS "gw_2" ON "gw_2"."user_id" = "self"."id"`, sql)
	}
}

func TestJoinWithLimitNeedsLateral(t *testing.T) {
	j, err := Join(ordersTable(), InlineJoin(), ownedBy(), MustFragmentList(Limit(1)))
	require.NoError(t, err)

	err = MustFragmentList(j).Apply(selectUsers(), false)
	assert.ErrorIs(t, err, ErrJoinNotMergeable)

	lateral, err := Join(ordersTable(), LateralJoin(ast.JoinLeft), ownedBy(), MustFragmentList(Limit(1)))
	require.NoError(t, err)
	assert.NoError(t, MustFragmentList(lateral).Apply(selectUsers(), false))
}

func TestJoinKeysAndParameters(t *testing.T) {
	a, err := Join(ordersTable(), InlineJoin(), ownedBy(), MustFragmentList(Eq("status", "paid")))
	require.NoError(t, err)
	b, err := Join(ordersTable(), ExplicitJoin(ast.JoinInner), ownedBy(), MustFragmentList(Eq("status", "paid")))
	require.NoError(t, err)

	ka, okA := a.Key()
	kb, okB := b.Key()
	assert.True(t, okA && okB)
	assert.NotEqual(t, ka, kb)
	require.Equal(t, 1, a.Parameters().Len())
	v, ok := a.Parameters().Get(a.Parameters().Names()[0])
	assert.True(t, ok)
	assert.Equal(t, "paid", v)
	assert.Regexp(t, `^join_orders_[0-9a-f]{8}_self_status_eq$`, a.Parameters().Names()[0])
	assert.NotEqual(t, a.Parameters().Names(), b.Parameters().Names())

	unkeyed, err := Join(ordersTable(), InlineJoin(), Raw(&ast.Value{Val: true}, nil), nil)
	require.NoError(t, err)
	_, ok = unkeyed.Key()
	assert.False(t, ok)
}

func TestJoinRejectsNonSelect(t *testing.T) {
	j, err := Join(ordersTable(), InlineJoin(), ownedBy(), nil)
	require.NoError(t, err)
	err = j.ApplyTo(ast.NewStatement(ast.KindDelete, usersTable()), NewBuildContext())
	assert.ErrorIs(t, err, ErrStatementMismatch)
}

func TestForeignKeyJoin(t *testing.T) {
	j, err := ForeignKeyJoin(ast.NewTable("", "accounts", ""), []string{"account_id"}, []string{"id"}, ExplicitJoin(ast.JoinInner), nil)
	require.NoError(t, err)

	sel := selectUsers()
	require.NoError(t, MustFragmentList(j).Apply(sel, false))
	sql, _ := compile(t, sel)
	assert.Equal(t, `SELECT "self".* FROM "users" AS "self" JOIN "accounts" AS "gw_1" ON "gw_1"."id" = "self"."account_id"`, sql)

	_, err = ForeignKeyJoin(ast.NewTable("", "accounts", ""), []string{"a", "b"}, []string{"id"}, InlineJoin(), nil)
	assert.ErrorIs(t, err, ErrJoinNotMergeable)
}
