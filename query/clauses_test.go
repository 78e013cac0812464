package query

import (
	"testing"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFragments(t *testing.T) {
	upd := ast.NewStatement(ast.KindUpdate, usersTable())
	l := MustFragmentList(Set(map[string]any{"name": "bob", "age": 3}), Eq("id", 7), Returning("id"))
	require.NoError(t, l.Apply(upd, false))

	sql, args := compile(t, upd)
	assert.Equal(t, `UPDATE "users" AS "self" SET "age" = $1, "name" = $2 WHERE "self"."id" = $3 RETURNING "id"`, sql)
	assert.Equal(t, []string{"set_age", "set_name", "self_id_eq"}, args)
}

func TestInsertFragments(t *testing.T) {
	t.Run("Upsert", func(t *testing.T) {
		values, err := Values(map[string]any{"id": 1, "name": "bob"})
		require.NoError(t, err)

		ins := ast.NewStatement(ast.KindInsert, usersTable())
		l := MustFragmentList(values, OnConflict([]string{"id"}, []string{"name"}), Returning("id"))
		require.NoError(t, l.Apply(ins, false))

		sql, args := compile(t, ins)
		assert.Equal(t, `INSERT INTO "users" ("id", "name") VALUES ($1, $2) ON CONFLICT ("id") DO UPDATE SET "name" = EXCLUDED."name" RETURNING "id"`, sql)
		assert.Equal(t, []string{"id", "name"}, args)
	})

	t.Run("SeveralRows", func(t *testing.T) {
		values, err := Values(map[string]any{"a": 1}, map[string]any{"a": 2})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a_0": 1, "a_1": 2}, values.(Parametrized).Parameters().Map())

		ins := ast.NewStatement(ast.KindInsert, usersTable())
		require.NoError(t, values.ApplyTo(ins, NewBuildContext()))
		sql, _ := compile(t, ins)
		assert.Equal(t, `INSERT INTO "users" ("a") VALUES ($1), ($2)`, sql)
	})

	t.Run("InvalidRows", func(t *testing.T) {
		_, err := Values()
		assert.ErrorIs(t, err, ErrInvalidValues)
		_, err = Values(map[string]any{"a": 1}, map[string]any{"b": 1})
		assert.ErrorIs(t, err, ErrInvalidValues)
		_, err = Values(map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2})
		assert.ErrorIs(t, err, ErrInvalidValues)
	})
}

func TestClauseStatementMismatch(t *testing.T) {
	values, err := Values(map[string]any{"a": 1})
	require.NoError(t, err)

	tests := []struct {
		name     string
		fragment Fragment
		stmt     ast.Statement
	}{
		{"SetOnSelect", Set(map[string]any{"a": 1}), selectUsers()},
		{"ValuesOnUpdate", values, ast.NewStatement(ast.KindUpdate, usersTable())},
		{"LimitOnDelete", Limit(1), ast.NewStatement(ast.KindDelete, usersTable())},
		{"OrderOnUpdate", Asc("a"), ast.NewStatement(ast.KindUpdate, usersTable())},
		{"ReturningOnSelect", Returning("id"), selectUsers()},
		{"ConflictOnSelect", OnConflict([]string{"id"}, nil), selectUsers()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MustFragmentList(tt.fragment).Apply(tt.stmt, false)
			assert.ErrorIs(t, err, ErrStatementMismatch)
		})
	}
}

func TestSelectClauses(t *testing.T) {
	having := Expr(&ast.BinaryExpr{Left: ast.CountAll(), Operator: ast.OpGreaterThan, Right: &ast.Param{Name: "min"}}, map[string]any{"min": 2})

	sel := selectUsers()
	l := MustFragmentList(Columns("role"), GroupBy("role"), Having(having), Distinct())
	require.NoError(t, l.Apply(sel, false))

	sql, args := compile(t, sel)
	assert.Equal(t, `SELECT DISTINCT "self"."role" FROM "users" AS "self" GROUP BY "self"."role" HAVING COUNT(*) > $1`, sql)
	assert.Equal(t, []string{"min"}, args)
	assert.Equal(t, map[string]any{"min": 2}, l.Parameters().Map())
}

func TestLimitOffsetForUpdate(t *testing.T) {
	sel := selectUsers()
	require.NoError(t, MustFragmentList(Offset(20), Limit(10), ForUpdate()).Apply(sel, false))

	sql, args := compile(t, sel)
	assert.Equal(t, `SELECT "self".* FROM "users" AS "self" LIMIT $1 OFFSET $2 FOR UPDATE`, sql)
	assert.Equal(t, []string{"limit", "offset"}, args)

	_, err := NewFragmentList(Limit(10), Limit(20))
	assert.ErrorIs(t, err, ErrParameterConflict)
}

func TestWithCommonTableExpression(t *testing.T) {
	cte := With("big_orders", ast.NewTable("", "orders", ""), MustFragmentList(Gt("total", 100)))
	assert.Equal(t, PriorityCTE, cte.Priority())

	sel := selectUsers()
	require.NoError(t, MustFragmentList(Eq("id", 1), cte).Apply(sel, false))

	sql, args := compile(t, sel)
	assert.Equal(t, `WITH "big_orders" AS (SELECT "self".* FROM "orders" AS "self" WHERE "self"."total" > $1) SELECT "self".* FROM "users" AS "self" WHERE "self"."id" = $2`, sql)
	require.Len(t, args, 2)
	assert.Regexp(t, `^with_big_orders_[0-9a-f]{8}_self_total_gt$`, args[0])
	assert.Equal(t, "self_id_eq", args[1])
}

func TestWithSharingColumnNames(t *testing.T) {
	cte := With("paid", ast.NewTable("", "orders", ""), MustFragmentList(Eq("status", "paid"), Limit(5)))

	l, err := NewFragmentList(Eq("status", "active"), Limit(10), cte)
	require.NoError(t, err)

	sel := selectUsers()
	require.NoError(t, l.Apply(sel, false))
	sql, args := compile(t, sel)
	assert.Equal(t, `WITH "paid" AS (SELECT "self".* FROM "orders" AS "self" WHERE "self"."status" = $1 LIMIT $2) SELECT "self".* FROM "users" AS "self" WHERE "self"."status" = $3 LIMIT $4`, sql)

	got := make([]any, len(args))
	for i, name := range args {
		got[i], _ = l.Parameters().Get(name)
	}
	assert.Equal(t, []any{"paid", 5, "active", 10}, got)
}

func TestFuncFragment(t *testing.T) {
	f := Func(PriorityDefault, func(stmt ast.Statement, _ *BuildContext) error {
		stmt.(*ast.SelectStmt).Distinct = true
		return nil
	})
	_, ok := f.Key()
	assert.False(t, ok)

	sel := selectUsers()
	require.NoError(t, MustFragmentList(f).Apply(sel, true))
	assert.True(t, sel.Distinct)
}
