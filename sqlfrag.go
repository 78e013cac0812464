package sqlfrag

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/cache/instrumentation"
	"github.com/Konsultn-Engineering/sqlfrag/cache/pgstore"
	"github.com/Konsultn-Engineering/sqlfrag/cache/sqlitestore"
	"github.com/Konsultn-Engineering/sqlfrag/config"
	"github.com/Konsultn-Engineering/sqlfrag/connector"
	"github.com/Konsultn-Engineering/sqlfrag/database"
	"github.com/Konsultn-Engineering/sqlfrag/engine"
	loglib "github.com/Konsultn-Engineering/sqlfrag/log"
	"github.com/Konsultn-Engineering/sqlfrag/log/zerolog"
	_ "github.com/Konsultn-Engineering/sqlfrag/providers/postgres"
	_ "github.com/Konsultn-Engineering/sqlfrag/providers/sqlite"

	"go.opentelemetry.io/otel"
)

const instrumentationName = "github.com/Konsultn-Engineering/sqlfrag"

// DB is an engine bound to an open connection and its statement cache.
type DB struct {
	*engine.Engine
	conn   connector.Connection
	closer io.Closer
	logger loglib.Logger
}

type Option func(*options)

type options struct {
	logOutput io.Writer
	logger    loglib.Logger
}

// WithLogOutput sends the logs built from the log config to w.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithLogger replaces the logger built from the log config.
func WithLogger(l loglib.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open connects to the configured database and builds an engine whose
// compiled statements are kept in the configured cache.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = zerolog.NewLogger(zerolog.New(zerolog.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Out:    o.logOutput,
		}))
	}

	conn, err := connector.Open(ctx, cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Connection.Driver, err)
	}

	store, closer, err := openStore(ctx, cfg.Cache, conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening %s statement cache: %w", cfg.Cache.Type, err)
	}
	if store != nil && cfg.Cache.Tracing {
		if store, err = instrumentation.NewStore(store, &instrumentation.Instrumentation{
			Tracer: otel.Tracer(instrumentationName),
			Meter:  otel.Meter(instrumentationName),
		}); err != nil {
			conn.Close()
			return nil, err
		}
	}

	logger.Info("database opened", loglib.Fields{
		"driver":     cfg.Connection.Driver,
		"connection": conn.ID(),
		"cache":      cfg.Cache.Type,
	})

	e := engine.New(conn.Database(), conn.Dialect(),
		engine.WithStore(store),
		engine.WithLogger(logger),
		engine.WithConnectionID(conn.ID()),
		engine.WithQueryTimeout(cfg.Connection.QueryTimeout),
	)
	return &DB{Engine: e, conn: conn, closer: closer, logger: logger}, nil
}

func openStore(ctx context.Context, cfg config.CacheConfig, conn connector.Connection) (cache.Store, io.Closer, error) {
	switch cfg.Type {
	case config.CacheMemory:
		store, err := cache.NewLRUStore(cfg.Size)
		return store, nil, err
	case config.CacheSQLite:
		store, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.CachePostgres:
		pg, ok := conn.Database().(*database.PgxDatabase)
		if !ok {
			return nil, nil, fmt.Errorf("%w: postgres cache needs a pgx connection", config.ErrInvalidConfig)
		}
		store := pgstore.New(pg.Pool(), cfg.Table)
		if err := store.EnsureTable(ctx); err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, nil
	}
}

func (db *DB) Connection() connector.Connection { return db.conn }

func (db *DB) Close() error {
	var errs []error
	if db.closer != nil {
		errs = append(errs, db.closer.Close())
	}
	errs = append(errs, db.conn.Close())
	db.logger.Info("database closed", loglib.Fields{"connection": db.conn.ID()})
	return errors.Join(errs...)
}
