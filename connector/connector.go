package connector

import (
	"context"
	"errors"

	"github.com/Konsultn-Engineering/sqlfrag/database"
	"github.com/Konsultn-Engineering/sqlfrag/dialect"
)

var (
	ErrInvalidConfig      = errors.New("connector: invalid config")
	ErrProviderNotFound   = errors.New("connector: provider not registered")
	ErrProviderRegistered = errors.New("connector: provider already registered")
)

type Connection interface {
	// ID is the stable identity statement cache keys are scoped to.
	ID() string
	Database() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

type Connector interface {
	Connect(ctx context.Context) (Connection, error)
	ConnectWithRetry(ctx context.Context) (Connection, error)
}
