package pgstore

import (
	"context"
	"errors"
	"testing"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error { return m.scanFn(dest...) }

type mockQuerier struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFn(ctx, sql, args...)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFn(ctx, sql, args...)
}

// memQuerier emulates the cache table in a map.
func memQuerier(rows map[string][]byte) *mockQuerier {
	return &mockQuerier{
		execFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if len(args) == 2 {
				rows[args[0].(string)] = args[1].([]byte)
			}
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				v, ok := rows[args[0].(string)]
				if !ok {
					return pgx.ErrNoRows
				}
				*dest[0].(*[]byte) = v
				return nil
			}}
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		wantTable string
	}{
		{"Default", "", `"sqlfrag_statement_cache"`},
		{"Plain", "stmts", `"stmts"`},
		{"SchemaQualified", "app.stmts", `"app"."stmts"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, tt.table)
			assert.Equal(t, tt.wantTable, s.table)
			assert.Equal(t, `SELECT value FROM `+tt.wantTable+` WHERE key = $1`, s.getQuery)
		})
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	rows := map[string][]byte{}
	s := New(memQuerier(rows), "")

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	errConn := errors.New("connection reset")
	s := New(&mockQuerier{
		execFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errConn
		},
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return errConn }}
		},
	}, "")

	_, _, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, errConn)
	require.ErrorIs(t, s.Set(ctx, "k", nil), errConn)
	require.ErrorIs(t, s.EnsureTable(ctx), errConn)

	// GetOrCompute degrades to the factory when the table is unreachable.
	q, hit, err := cache.GetOrCompute(ctx, s, cache.JSONCodec[*cache.CachedQuery]{}, "k", func() (*cache.CachedQuery, error) {
		return &cache.CachedQuery{SQL: "SELECT 1"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "SELECT 1", q.SQL)
}

func TestEnsureTable(t *testing.T) {
	var got string
	s := New(&mockQuerier{
		execFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			got = sql
			return pgconn.NewCommandTag("CREATE TABLE"), nil
		},
	}, "app.stmts")

	require.NoError(t, s.EnsureTable(context.Background()))
	assert.Contains(t, got, `CREATE TABLE IF NOT EXISTS "app"."stmts"`)
}
