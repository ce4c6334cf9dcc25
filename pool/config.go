// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"runtime"
	"time"

	"github.com/ik5/sonix/protocol"
	"github.com/ik5/sonix/session"
)

// Config controls a worker pool. Registry is the only required field.
type Config struct {
	// Registry provides decoder session factories. Each worker checks
	// it once at startup; a worker without usable decoders emits a
	// fatal initialization error and exits.
	Registry *session.Registry

	// PoolSize is the maximum number of workers. One worker spawns
	// eagerly; the rest spawn lazily under load. Defaults to NumCPU,
	// capped at 8.
	PoolSize int
	// MaxConcurrentOperations caps simultaneously running tasks.
	// Defaults to PoolSize.
	MaxConcurrentOperations int
	// MaxRetryAttempts bounds crash-driven retries per task.
	MaxRetryAttempts int

	HeartbeatInterval   time.Duration
	HeartbeatTimeout    time.Duration
	HealthCheckInterval time.Duration
	// SpawnTimeout bounds the wait for the first worker's readiness.
	SpawnTimeout time.Duration
	// DisposeTimeout bounds the graceful shutdown wait.
	DisposeTimeout time.Duration

	// Processing is the default per-job configuration, used when a
	// submitted task carries a zero config.
	Processing protocol.ProcessingConfig
}

// DefaultConfig returns the reference pool settings for reg.
func DefaultConfig(reg *session.Registry) Config {
	return Config{
		Registry:   reg,
		Processing: protocol.DefaultProcessingConfig(),
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.PoolSize <= 0 {
		c.PoolSize = runtime.NumCPU()
		if c.PoolSize > 8 {
			c.PoolSize = 8
		}
	}
	if c.MaxConcurrentOperations <= 0 {
		c.MaxConcurrentOperations = c.PoolSize
	}
	if c.MaxRetryAttempts <= 0 {
		c.MaxRetryAttempts = 3
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = time.Second
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = 5 * c.HeartbeatInterval
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = c.HeartbeatInterval
	}
	if c.SpawnTimeout <= 0 {
		c.SpawnTimeout = 5 * time.Second
	}
	if c.DisposeTimeout <= 0 {
		c.DisposeTimeout = 5 * time.Second
	}
	return c
}
