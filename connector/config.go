package connector

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config represents database connection configuration.
type Config struct {
	Driver         string            `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN            string            `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Host           string            `json:"host" yaml:"host" mapstructure:"host"`
	Port           int               `json:"port" yaml:"port" mapstructure:"port"`
	Database       string            `json:"database" yaml:"database" mapstructure:"database"`
	Username       string            `json:"username" yaml:"username" mapstructure:"username"`
	Password       string            `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params" mapstructure:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool" mapstructure:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout" mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration     `json:"query_timeout" yaml:"query_timeout" mapstructure:"query_timeout"`
	Retry          *RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty" mapstructure:"retry"`
}

// PoolConfig defines connection pool settings.
type PoolConfig struct {
	MaxOpen         int           `json:"max_open" yaml:"max_open" mapstructure:"max_open"`
	MaxIdle         int           `json:"max_idle" yaml:"max_idle" mapstructure:"max_idle"`
	MaxLifetime     time.Duration `json:"max_lifetime" yaml:"max_lifetime" mapstructure:"max_lifetime"`
	MaxIdleTime     time.Duration `json:"max_idle_time" yaml:"max_idle_time" mapstructure:"max_idle_time"`
	StatementCache  int           `json:"statement_cache" yaml:"statement_cache" mapstructure:"statement_cache"`
	HealthCheckFreq time.Duration `json:"health_check_freq" yaml:"health_check_freq" mapstructure:"health_check_freq"`
}

// RetryConfig defines connection retry behavior.
type RetryConfig struct {
	MaxRetries uint          `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay" yaml:"base_delay" mapstructure:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay" yaml:"max_delay" mapstructure:"max_delay"`
	Multiplier float64       `json:"multiplier" yaml:"multiplier" mapstructure:"multiplier"`
}

// Validate checks the settings every provider relies on.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Port)
	}
	if c.Pool.MaxOpen < 0 || c.Pool.MaxIdle < 0 {
		return fmt.Errorf("%w: negative pool size", ErrInvalidConfig)
	}
	if c.Pool.MaxOpen > 0 && c.Pool.MaxIdle > c.Pool.MaxOpen {
		return fmt.Errorf("%w: max_idle %d exceeds max_open %d", ErrInvalidConfig, c.Pool.MaxIdle, c.Pool.MaxOpen)
	}
	return nil
}

// Identity returns a name-based UUID for the database this config points
// at. Credentials other than the user name do not take part, so rotating a
// password keeps cached statements valid.
func (c Config) Identity() string {
	name := c.DSN
	if name == "" {
		name = NewDSNBuilder(c.Driver).
			Auth(c.Username, "").
			Host(c.Host, c.Port).
			Database(c.Database).
			Build()
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func (c Config) String() string {
	host := c.Host
	if c.Port > 0 {
		host += ":" + strconv.Itoa(c.Port)
	}
	return c.Driver + "://" + host + "/" + c.Database
}
