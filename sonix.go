// SPDX-License-Identifier: EPL-2.0

package sonix

import (
	"context"

	"github.com/ik5/sonix/formats/aiff"
	"github.com/ik5/sonix/formats/mp3"
	"github.com/ik5/sonix/formats/vorbis"
	"github.com/ik5/sonix/formats/wav"
	"github.com/ik5/sonix/pool"
	"github.com/ik5/sonix/protocol"
	"github.com/ik5/sonix/session"
	"github.com/ik5/sonix/waveform"
)

// DefaultRegistry returns a session registry with every built-in
// format registered.
func DefaultRegistry() *session.Registry {
	reg := session.NewRegistry()
	reg.Register("wav", func() session.ChunkedDecoder { return wav.NewSession() })
	reg.Register("mp3", func() session.ChunkedDecoder { return mp3.NewSession() })
	reg.Register("ogg", func() session.ChunkedDecoder { return vorbis.NewSession() })
	reg.Register("oga", func() session.ChunkedDecoder { return vorbis.NewSession() })
	reg.Register("aiff", func() session.ChunkedDecoder { return aiff.NewSession() })
	reg.Register("aif", func() session.ChunkedDecoder { return aiff.NewSession() })
	return reg
}

// Generator turns audio files into amplitude waveforms using a shared
// worker pool. Create one per application and reuse it; Close releases
// the pool.
type Generator struct {
	pool *pool.Pool
}

// NewGenerator builds a generator from cfg. A zero-value Registry
// field is replaced with DefaultRegistry.
func NewGenerator(cfg pool.Config) (*Generator, error) {
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	p, err := pool.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{pool: p}, nil
}

// Generate processes one file synchronously and returns its waveform.
func (g *Generator) Generate(ctx context.Context, path string, cfg protocol.ProcessingConfig) (*waveform.Data, error) {
	handle, err := g.pool.Submit(&pool.Task{FilePath: path, Config: cfg})
	if err != nil {
		return nil, err
	}
	return handle.Wait(ctx)
}

// Submit enqueues a task for asynchronous processing.
func (g *Generator) Submit(task *pool.Task) (*pool.TaskHandle, error) {
	return g.pool.Submit(task)
}

// Cancel requests cancellation of a queued or running task.
func (g *Generator) Cancel(taskID string) error {
	return g.pool.Cancel(taskID)
}

// Statistics returns a snapshot of pool activity.
func (g *Generator) Statistics() pool.Statistics {
	return g.pool.Statistics()
}

// Close shuts the generator's pool down. Pending tasks fail.
func (g *Generator) Close() error {
	return g.pool.Dispose()
}

// Generate is the one-shot convenience entry point: it builds a
// short-lived generator with the default registry, processes path, and
// tears the pool down again.
func Generate(ctx context.Context, path string, cfg protocol.ProcessingConfig) (*waveform.Data, error) {
	g, err := NewGenerator(pool.Config{PoolSize: 1})
	if err != nil {
		return nil, err
	}
	defer g.Close()

	return g.Generate(ctx, path, cfg)
}
