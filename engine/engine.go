package engine

import (
	"context"
	"errors"
	"time"

	"github.com/Konsultn-Engineering/sqlfrag/ast"
	"github.com/Konsultn-Engineering/sqlfrag/cache"
	"github.com/Konsultn-Engineering/sqlfrag/database"
	"github.com/Konsultn-Engineering/sqlfrag/dialect"
	loglib "github.com/Konsultn-Engineering/sqlfrag/log"
	"github.com/Konsultn-Engineering/sqlfrag/query"
	"github.com/Konsultn-Engineering/sqlfrag/schema"
	"github.com/Konsultn-Engineering/sqlfrag/visitor"
)

var (
	ErrNotFound    = errors.New("engine: no rows")
	ErrNoValues    = errors.New("engine: no values to write")
	ErrInvalidDest = errors.New("engine: destination must be a pointer to a struct or a slice of structs")
)

// Engine turns fragment lists into executed statements. Compiled SQL is
// shared through the store; parameter values always come from the call.
type Engine struct {
	db           database.Database
	dialect      dialect.Dialect
	store        cache.Store
	codec        cache.Codec[*cache.CachedQuery]
	connectionID string
	queryTimeout time.Duration
	logger       loglib.Logger
}

type Option func(*Engine)

// WithStore sets the statement cache. Without one every statement is
// compiled on each call.
func WithStore(store cache.Store) Option {
	return func(e *Engine) { e.store = store }
}

func WithLogger(l loglib.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithConnectionID scopes cache keys to a database. It defaults to the
// dialect name.
func WithConnectionID(id string) Option {
	return func(e *Engine) { e.connectionID = id }
}

// WithQueryTimeout bounds every statement execution.
func WithQueryTimeout(d time.Duration) Option {
	return func(e *Engine) { e.queryTimeout = d }
}

func New(db database.Database, d dialect.Dialect, opts ...Option) *Engine {
	e := &Engine{
		db:      db,
		dialect: d,
		codec:   cache.JSONCodec[*cache.CachedQuery]{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.connectionID == "" {
		e.connectionID = d.Name()
	}
	e.logger = loglib.NewLogger(e.logger).WithFields(loglib.Fields{loglib.ModuleField: "engine"})
	return e
}

func (e *Engine) DB() database.Database    { return e.db }
func (e *Engine) Dialect() dialect.Dialect { return e.dialect }

// Gateway returns the table gateway of meta.
func (e *Engine) Gateway(meta *schema.EntityMeta) *Gateway {
	return &Gateway{engine: e, meta: meta, base: query.MustFragmentList()}
}

// For returns the gateway of the table T maps to.
func For[T any](e *Engine) (*Gateway, error) {
	meta, err := schema.Of[T]()
	if err != nil {
		return nil, err
	}
	return e.Gateway(meta), nil
}

// prepare resolves the compiled form of the statement list shapes, through
// the store when the list is cacheable, and binds the list's parameters.
func (e *Engine) prepare(ctx context.Context, op cache.Operation, meta *schema.EntityMeta, list *query.FragmentList,
	build func() (ast.Statement, error)) (*Statement, error) {

	fragmentKey, cacheable := list.Key()
	key := cache.StatementKey(e.connectionID, op, meta.Identity(), fragmentKey, cacheable)

	compiled, hit, err := cache.GetOrCompute(ctx, e.store, e.codec, key, func() (*cache.CachedQuery, error) {
		stmt, err := build()
		if err != nil {
			return nil, err
		}
		return visitor.Compile(e.dialect, stmt)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("statement resolved", loglib.Fields{
		"operation": op.String(),
		"entity":    meta.Table,
		"cache_key": key,
		"cached":    hit,
	})

	args, err := compiled.Args(list.Parameters().Map())
	if err != nil {
		return nil, err
	}
	return &Statement{SQL: compiled.SQL, Args: args, Key: key, Cached: hit}, nil
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.queryTimeout)
}

// Exec runs a prepared statement and returns the number of affected rows.
func (e *Engine) Exec(ctx context.Context, stmt *Statement) (int64, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	res, err := e.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query runs a prepared statement. The query timeout, if any, lasts until
// the rows are closed.
func (e *Engine) Query(ctx context.Context, stmt *Statement) (database.Rows, error) {
	ctx, cancel := e.withTimeout(ctx)
	rows, err := e.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		cancel()
		return nil, err
	}
	return &cancelRows{Rows: rows, cancel: cancel}, nil
}

type cancelRows struct {
	database.Rows
	cancel context.CancelFunc
}

func (r *cancelRows) Close() error {
	defer r.cancel()
	return r.Rows.Close()
}
