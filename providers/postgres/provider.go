package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Konsultn-Engineering/sqlfrag/connector"
	"github.com/Konsultn-Engineering/sqlfrag/database"
	"github.com/Konsultn-Engineering/sqlfrag/dialect"
	"github.com/jackc/pgx/v5/pgxpool"
)

const Name = "postgres"

type Provider struct{}

func init() {
	connector.Register(Name, &Provider{})
}

// DSN returns cfg.DSN when set, or a postgres:// URL built from the
// individual settings.
func DSN(cfg connector.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	b := connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params)
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b.WithPostgresDefaults().Build(), nil
}

// PoolConfig parses the DSN and applies pool defaults.
func PoolConfig(cfg connector.Config) (*pgxpool.Config, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Pool.MaxOpen <= 0 {
		cfg.Pool.MaxOpen = 10
	}
	if cfg.Pool.MaxLifetime == 0 {
		cfg.Pool.MaxLifetime = time.Hour
	}
	if cfg.Pool.MaxIdleTime == 0 {
		cfg.Pool.MaxIdleTime = 30 * time.Minute
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", connector.ErrInvalidConfig, err)
	}

	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	if cfg.Pool.HealthCheckFreq > 0 {
		poolCfg.HealthCheckPeriod = cfg.Pool.HealthCheckFreq
	}
	return poolCfg, nil
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (connector.Connection, error) {
	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &connection{
		id:      cfg.Identity(),
		pool:    pool,
		db:      database.NewPgxDatabase(pool),
		dialect: dialect.NewPostgresDialect(),
	}, nil
}

func (p *Provider) Dialect() dialect.Dialect {
	return dialect.NewPostgresDialect()
}

type connection struct {
	id      string
	pool    *pgxpool.Pool
	db      *database.PgxDatabase
	dialect dialect.Dialect
}

func (c *connection) ID() string                  { return c.id }
func (c *connection) Database() database.Database { return c.db }
func (c *connection) Dialect() dialect.Dialect    { return c.dialect }

func (c *connection) Health(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *connection) Stats() connector.ConnectionStats {
	s := c.pool.Stat()
	return connector.ConnectionStats{
		MaxOpen:         int(s.MaxConns()),
		OpenConnections: int(s.TotalConns()),
		InUse:           int(s.AcquiredConns()),
		Idle:            int(s.IdleConns()),
		WaitCount:       s.EmptyAcquireCount(),
		WaitDuration:    s.AcquireDuration(),
	}
}

func (c *connection) Close() error {
	c.pool.Close()
	return nil
}
