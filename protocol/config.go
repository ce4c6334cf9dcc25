// SPDX-License-Identifier: EPL-2.0

package protocol

import (
	"time"

	"github.com/ik5/sonix/waveform"
)

// DefaultInMemoryThreshold is the file size below which a worker
// decodes the whole file in memory. Policy, not derived; override it
// per deployment.
const DefaultInMemoryThreshold = 5 << 20

// ProcessingConfig is the per-job configuration carried inside a
// Request envelope.
type ProcessingConfig struct {
	Waveform waveform.Config

	// FileChunkSize overrides the format's optimal chunk size when
	// positive.
	FileChunkSize int
	// MaxMemoryUsage is the chunked pipeline's estimated memory budget.
	MaxMemoryUsage int64
	// MaxConcurrentChunks bounds in-flight chunk decodes per job.
	MaxConcurrentChunks int
	// InMemoryThreshold is the full-decode cutoff in bytes.
	InMemoryThreshold int64

	EnableSeeking                 bool
	EnableProgressReporting       bool
	ProgressUpdateInterval        time.Duration
	EnableMemoryPressureDetection bool
	MemoryPressureThreshold       float64
	EnableAdaptiveChunkSize       bool
	MinChunkSize                  int
	MaxChunkSize                  int
}

// DefaultProcessingConfig mirrors the reference defaults.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		Waveform:                      waveform.DefaultConfig(),
		MaxMemoryUsage:                50 << 20,
		MaxConcurrentChunks:           4,
		InMemoryThreshold:             DefaultInMemoryThreshold,
		EnableSeeking:                 true,
		EnableProgressReporting:       true,
		ProgressUpdateInterval:        200 * time.Millisecond,
		EnableMemoryPressureDetection: true,
		MemoryPressureThreshold:       0.8,
		EnableAdaptiveChunkSize:       true,
		MinChunkSize:                  1024,
		MaxChunkSize:                  1 << 20,
	}
}

// Validate rejects malformed configuration before any job starts.
func (c ProcessingConfig) Validate() error {
	if err := c.Waveform.Validate(); err != nil {
		return err
	}
	if c.MemoryPressureThreshold < 0 || c.MemoryPressureThreshold > 1 {
		return ErrInvalidThreshold
	}
	if c.MaxMemoryUsage < 0 || c.InMemoryThreshold < 0 {
		return ErrInvalidMemoryLimit
	}
	if c.MinChunkSize < 0 || (c.MaxChunkSize > 0 && c.MaxChunkSize < c.MinChunkSize) {
		return ErrInvalidChunkBounds
	}
	return nil
}

func (c ProcessingConfig) withDefaults() ProcessingConfig {
	def := DefaultProcessingConfig()
	if c.Waveform.Resolution == 0 {
		c.Waveform = def.Waveform
	}
	if c.MaxMemoryUsage == 0 {
		c.MaxMemoryUsage = def.MaxMemoryUsage
	}
	if c.MaxConcurrentChunks == 0 {
		c.MaxConcurrentChunks = def.MaxConcurrentChunks
	}
	if c.InMemoryThreshold == 0 {
		c.InMemoryThreshold = def.InMemoryThreshold
	}
	if c.ProgressUpdateInterval == 0 {
		c.ProgressUpdateInterval = def.ProgressUpdateInterval
	}
	if c.MemoryPressureThreshold == 0 {
		c.MemoryPressureThreshold = def.MemoryPressureThreshold
	}
	if c.MinChunkSize == 0 {
		c.MinChunkSize = def.MinChunkSize
	}
	if c.MaxChunkSize == 0 {
		c.MaxChunkSize = def.MaxChunkSize
	}
	return c
}

// Normalized validates and fills defaults in one step.
func (c ProcessingConfig) Normalized() (ProcessingConfig, error) {
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
