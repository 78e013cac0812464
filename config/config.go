package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Konsultn-Engineering/sqlfrag/connector"
	"github.com/spf13/viper"
)

const EnvPrefix = "SQLFRAG"

// Cache backends.
const (
	CacheNone     = "none"
	CacheMemory   = "memory"
	CacheSQLite   = "sqlite"
	CachePostgres = "postgres"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Connection connector.Config `mapstructure:"connection" yaml:"connection"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type CacheConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	// Size bounds the memory store.
	Size int `mapstructure:"size" yaml:"size"`
	// Path is the sqlite store file.
	Path string `mapstructure:"path" yaml:"path"`
	// Table is the postgres store table.
	Table string `mapstructure:"table" yaml:"table"`
	// Tracing wraps the store with OpenTelemetry spans.
	Tracing bool `mapstructure:"tracing" yaml:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

var defaults = map[string]any{
	"connection.driver":               "postgres",
	"connection.dsn":                  "",
	"connection.host":                 "localhost",
	"connection.port":                 0,
	"connection.database":             "",
	"connection.username":             "",
	"connection.password":             "",
	"connection.ssl_mode":             "",
	"connection.connect_timeout":      "0s",
	"connection.query_timeout":        "0s",
	"connection.pool.max_open":        0,
	"connection.pool.max_idle":        0,
	"connection.pool.max_lifetime":    "0s",
	"connection.pool.max_idle_time":   "0s",
	"connection.pool.statement_cache": 0,
	"cache.type":                      CacheMemory,
	"cache.size":                      1024,
	"cache.path":                      "",
	"cache.table":                     "",
	"cache.tracing":                   false,
	"log.level":                       "info",
	"log.format":                      "json",
}

// Load reads the YAML (or JSON/TOML) file at path, if any, and applies
// SQLFRAG_ environment overrides, e.g. SQLFRAG_CONNECTION_HOST.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Cache.Type {
	case CacheNone:
	case CacheMemory:
		if c.Cache.Size <= 0 {
			return fmt.Errorf("%w: cache.size must be positive, got %d", ErrInvalidConfig, c.Cache.Size)
		}
	case CacheSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("%w: cache.path is required for the sqlite cache", ErrInvalidConfig)
		}
	case CachePostgres:
		if c.Connection.Driver != "postgres" {
			return fmt.Errorf("%w: the postgres cache needs a postgres connection, got %q", ErrInvalidConfig, c.Connection.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown cache type %q", ErrInvalidConfig, c.Cache.Type)
	}
	return c.Connection.Validate()
}
