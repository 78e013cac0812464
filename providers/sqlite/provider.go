package sqlite

import (
	"context"
	"database/sql"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/connector"
	"github.com/Konsultn-Engineering/sqlfrag/database"
	"github.com/Konsultn-Engineering/sqlfrag/dialect"
	_ "github.com/mattn/go-sqlite3"
)

const (
	Name       = "sqlite"
	driverName = "sqlite3"
	memory     = ":memory:"
)

type Provider struct{}

func init() {
	connector.Register(Name, &Provider{})
}

// DSN returns cfg.DSN when set, otherwise a file: URI for cfg.Database.
// An empty database means a private in-memory database.
func DSN(cfg connector.Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	path := cfg.Database
	if path == "" {
		path = memory
	}
	q := connector.NewDSNBuilder("").Params(cfg.Params).Query()
	if path == memory && q == "" {
		return memory
	}
	dsn := "file:" + path
	if q != "" {
		dsn += "?" + q
	}
	return dsn
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	dsn := DSN(cfg)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	// every connection to :memory: opens a distinct database
	if dsn == memory || cfg.Pool.MaxOpen > 0 {
		maxOpen := cfg.Pool.MaxOpen
		if dsn == memory {
			maxOpen = 1
		}
		db.SetMaxOpenConns(maxOpen)
	}
	if cfg.Pool.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	}
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	var opts []database.SqlOption
	if cfg.Pool.StatementCache > 0 {
		stmts, err := cache.NewStatementCache(cfg.Pool.StatementCache)
		if err != nil {
			db.Close()
			return nil, err
		}
		opts = append(opts, database.WithStatementCache(stmts))
	}

	return &connection{
		id:      cfg.Identity(),
		sqlDB:   db,
		db:      database.NewSqlDatabase(db, opts...),
		dialect: dialect.NewSQLiteDialect(),
	}, nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewSQLiteDialect()
}

type connection struct {
	id      string
	sqlDB   *sql.DB
	db      *database.SqlDatabase
	dialect dialect.Dialect
}

func (c *connection) ID() string                  { return c.id }
func (c *connection) Database() database.Database { return c.db }
func (c *connection) Dialect() dialect.Dialect    { return c.dialect }

func (c *connection) Health(ctx context.Context) error {
	return c.sqlDB.PingContext(ctx)
}

func (c *connection) Stats() connector.ConnectionStats {
	s := c.sqlDB.Stats()
	return connector.ConnectionStats{
		MaxOpen:            s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
		PreparedStatements: c.db.PreparedStatements(),
	}
}

func (c *connection) Close() error {
	return c.db.Close()
}
