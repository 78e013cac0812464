package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtSQL(t *testing.T, b *Builder) (string, []string) {
	t.Helper()
	l, err := b.List()
	require.NoError(t, err)
	sel := selectUsers()
	require.NoError(t, l.Apply(sel, false))
	return compile(t, sel)
}

func TestBuilderWhereGroups(t *testing.T) {
	b := NewBuilder().
		WhereEq("a", 1).
		WhereEq("b", 2).
		OrWhereEq("c", 3)

	sql, args := builtSQL(t, b)
	assert.Equal(t, `SELECT "self".* FROM "users" AS "self" WHERE ("self"."a" = $1 AND "self"."b" = $2) OR "self"."c" = $3`, sql)
	assert.Equal(t, []string{"self_a_eq", "self_b_eq", "self_c_eq"}, args)
}

func TestBuilderSameColumnInSeveralGroups(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
		sql   string
		args  []any
	}{
		{
			name: "OrWhere",
			build: func() *Builder {
				return NewBuilder().WhereEq("status", "new").OrWhere("status", "=", "open")
			},
			sql:  `SELECT "self".* FROM "users" AS "self" WHERE "self"."status" = $1 OR "self"."status" = $2`,
			args: []any{"new", "open"},
		},
		{
			name: "Range",
			build: func() *Builder {
				return NewBuilder().WhereGte("age", 18).WhereLt("age", 65)
			},
			sql:  `SELECT "self".* FROM "users" AS "self" WHERE "self"."age" < $1 AND "self"."age" >= $2`,
			args: []any{65, 18},
		},
		{
			name: "Groups",
			build: func() *Builder {
				return NewBuilder().
					WhereEq("team", "core").WhereGt("age", 30).
					OrWhereEq("team", "web").WhereGt("age", 40)
			},
			sql:  `SELECT "self".* FROM "users" AS "self" WHERE ("self"."age" > $1 AND "self"."team" = $2) OR ("self"."age" > $3 AND "self"."team" = $4)`,
			args: []any{30, "core", 40, "web"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := tt.build().List()
			require.NoError(t, err)

			sql, names := builtSQL(t, tt.build())
			assert.Equal(t, tt.sql, sql)

			params := l.Parameters()
			got := make([]any, len(names))
			for i, n := range names {
				v, ok := params.Get(n)
				require.True(t, ok, n)
				got[i] = v
			}
			assert.Equal(t, tt.args, got)
		})
	}
}

func TestBuilderOperators(t *testing.T) {
	tests := []struct {
		name  string
		op    string
		value any
		want  string
	}{
		{"Comparison", ">=", 3, `"self"."x" >= $1`},
		{"In", "in", []any{1, 2}, `"self"."x" IN ($1, $2)`},
		{"NotIn", "NOT IN", []any{1}, `"self"."x" NOT IN ($1)`},
		{"IsNull", "IS NULL", nil, `"self"."x" IS NULL`},
		{"IsNotNull", "IS NOT NULL", nil, `"self"."x" IS NOT NULL`},
		{"Between", "BETWEEN", []any{1, 2}, `"self"."x" BETWEEN $1 AND $2`},
		{"NotBetween", "NOT BETWEEN", []any{1, 2}, `"self"."x" NOT BETWEEN $1 AND $2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _ := builtSQL(t, NewBuilder().Where("x", tt.op, tt.value))
			assert.Equal(t, `SELECT "self".* FROM "users" AS "self" WHERE `+tt.want, sql)
		})
	}
}

func TestBuilderAccumulatesErrors(t *testing.T) {
	b := NewBuilder().
		Where("x", "~~", 1).
		Where("y", "BETWEEN", 1)

	assert.True(t, b.HasErrors())
	assert.Len(t, b.Errors(), 2)

	_, err := b.BuildFragment()
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestBuilderListIsSnapshot(t *testing.T) {
	b := NewBuilder().WhereEq("a", 1)
	first, err := b.List()
	require.NoError(t, err)

	b.WhereIsNull("b").Limit(5)
	second, err := b.List()
	require.NoError(t, err)

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 2, second.Len())
}

func TestBuilderFullQuery(t *testing.T) {
	b := NewBuilder().
		Select("id", "name").
		WhereIn("role", "admin", "owner").
		WhereIsNull("deleted_at").
		LeftJoin(ordersTable(), ownedBy(), func(o *Builder) {
			o.WhereGt("total", 100)
		}).
		OrderByDesc("created_at").
		LimitOffset(10, 20).
		Param("tenant", 4)

	sql, args := builtSQL(t, b)
	assert.Equal(t, `SELECT "self"."id", "self"."name" FROM "users" AS "self" LEFT JOIN "orders" AS "gw_1" ON "gw_1"."user_id" = "self"."id" AND "gw_1"."total" > $1 WHERE "self"."role" IN ($2, $3) AND "self"."deleted_at" IS NULL ORDER BY "self"."created_at" DESC LIMIT $4 OFFSET $5`, sql)
	require.Len(t, args, 5)
	assert.Regexp(t, `^join_orders_[0-9a-f]{8}_self_total_gt$`, args[0])
	assert.Equal(t, []string{"self_role_in_0", "self_role_in_1", "limit", "offset"}, args[1:])

	l, err := b.List()
	require.NoError(t, err)
	v, ok := l.Parameters().Get("tenant")
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestBuilderExists(t *testing.T) {
	b := NewBuilder().WhereNotExists("orders", "o", Eq("status", "open"))
	sql, _ := builtSQL(t, b)
	assert.Equal(t, `SELECT "self".* FROM "users" AS "self" WHERE NOT EXISTS (SELECT 1 FROM "orders" AS "o" WHERE "o"."status" = $1)`, sql)
}
