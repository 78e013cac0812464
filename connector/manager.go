package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type standardConnector struct {
	provider Provider
	config   Config
}

var globalManager = &Manager{
	providers: make(map[string]Provider),
}

type Manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under name. Registering the same name
// twice panics.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	if _, ok := globalManager.providers[name]; ok {
		panic(fmt.Errorf("%w: %s", ErrProviderRegistered, name))
	}
	globalManager.providers[name] = provider
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	names := make([]string, 0, len(globalManager.providers))
	for name := range globalManager.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func New(name string, config Config) (Connector, error) {
	globalManager.mu.RLock()
	provider, ok := globalManager.providers[name]
	globalManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Driver == "" {
		config.Driver = name
	}
	return &standardConnector{provider: provider, config: config}, nil
}

// Open connects using the provider named by cfg.Driver, retrying when
// cfg.Retry is set.
func Open(ctx context.Context, cfg Config) (Connection, error) {
	c, err := New(cfg.Driver, cfg)
	if err != nil {
		return nil, err
	}
	return c.ConnectWithRetry(ctx)
}

func (c *standardConnector) Connect(ctx context.Context) (Connection, error) {
	if c.config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}
	return c.provider.Connect(ctx, c.config)
}

func (c *standardConnector) ConnectWithRetry(ctx context.Context) (Connection, error) {
	if c.config.Retry == nil {
		return c.Connect(ctx)
	}
	conn, err := retryConnect(ctx, c.config.Retry, c.Connect)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", c.config, err)
	}
	return conn, nil
}
