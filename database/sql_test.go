package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	return db
}

func TestSqlDatabase(t *testing.T) {
	ctx := context.Background()

	stmts, err := cache.NewStatementCache(8)
	require.NoError(t, err)

	tests := []struct {
		name       string
		opts       []SqlOption
		wantCached int
	}{
		{"Direct", nil, 0},
		{"Prepared", []SqlOption{WithStatementCache(stmts)}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := NewSqlDatabase(openSQLite(t), tt.opts...)
			defer db.Close()
			require.NoError(t, db.PingContext(ctx))

			_, err := db.ExecContext(ctx, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
			require.NoError(t, err)

			for _, name := range []string{"ada", "grace"} {
				res, err := db.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, name)
				require.NoError(t, err)
				n, err := res.RowsAffected()
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)
			}

			rows, err := db.QueryContext(ctx, `SELECT id, name FROM users ORDER BY id`)
			require.NoError(t, err)
			defer rows.Close()

			cols, err := rows.Columns()
			require.NoError(t, err)
			assert.Equal(t, []string{"id", "name"}, cols)

			var names []string
			for rows.Next() {
				var id int64
				var name string
				require.NoError(t, rows.Scan(&id, &name))
				names = append(names, name)
			}
			require.NoError(t, rows.Err())
			assert.Equal(t, []string{"ada", "grace"}, names)
			assert.Equal(t, tt.wantCached, stmts.Len())
		})
	}
}
