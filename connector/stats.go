package connector

import "time"

// ConnectionStats is a snapshot of a connection's pool.
type ConnectionStats struct {
	MaxOpen         int
	OpenConnections int
	InUse           int
	Idle            int
	WaitCount       int64
	WaitDuration    time.Duration

	// PreparedStatements counts statements held by the executor's
	// statement cache; zero when statements are not reused.
	PreparedStatements int
}
