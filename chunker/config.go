// SPDX-License-Identifier: EPL-2.0

package chunker

import "time"

// Reference policy constants. Exposed through Config because they are
// empirical policy, not derived values.
const (
	// DefaultOverheadMultiplier estimates the decoded footprint of a
	// raw chunk (decoded samples plus bookkeeping).
	DefaultOverheadMultiplier = 2.0

	// DefaultMinChunkSize is the hard floor adaptive sizing never
	// shrinks below.
	DefaultMinChunkSize = 1024

	// shrinkFactor is applied to the recommended chunk size on every
	// pressure event.
	shrinkFactor = 0.5
)

// Config controls a Manager. Immutable once the manager is constructed.
type Config struct {
	// MaxMemoryUsage is the estimated in-flight memory budget in bytes.
	MaxMemoryUsage int64
	// MaxConcurrentChunks bounds how many chunks decode simultaneously.
	MaxConcurrentChunks int
	// MemoryPressureThreshold in (0, 1]: the usage/budget ratio above
	// which the manager reports pressure.
	MemoryPressureThreshold float64
	// MemoryCheckInterval is the period of the background usage check.
	MemoryCheckInterval time.Duration
	// OverheadMultiplier scales raw chunk bytes into an estimated
	// decoded footprint.
	OverheadMultiplier float64
	// MinChunkSize is the adaptive sizing floor in bytes.
	MinChunkSize int
	// EnableAdaptiveChunkSize shrinks the recommended chunk size
	// automatically on pressure.
	EnableAdaptiveChunkSize bool

	// OnMemoryPressure fires on every pressure observation with the
	// current estimated usage and the budget.
	OnMemoryPressure func(current, max int64)
	// OnProgress fires after each emitted chunk with the number of
	// chunks emitted so far.
	OnProgress func(processed int)
}

// DefaultConfig returns the reference chunk manager settings.
func DefaultConfig() Config {
	return Config{
		MaxMemoryUsage:          50 << 20,
		MaxConcurrentChunks:     4,
		MemoryPressureThreshold: 0.8,
		MemoryCheckInterval:     500 * time.Millisecond,
		OverheadMultiplier:      DefaultOverheadMultiplier,
		MinChunkSize:            DefaultMinChunkSize,
		EnableAdaptiveChunkSize: true,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxMemoryUsage <= 0 {
		c.MaxMemoryUsage = 50 << 20
	}
	if c.MaxConcurrentChunks <= 0 {
		c.MaxConcurrentChunks = 4
	}
	if c.MemoryPressureThreshold <= 0 || c.MemoryPressureThreshold > 1 {
		c.MemoryPressureThreshold = 0.8
	}
	if c.MemoryCheckInterval <= 0 {
		c.MemoryCheckInterval = 500 * time.Millisecond
	}
	if c.OverheadMultiplier <= 0 {
		c.OverheadMultiplier = DefaultOverheadMultiplier
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}
	return c
}
