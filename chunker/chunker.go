// SPDX-License-Identifier: EPL-2.0

package chunker

import (
	"context"
	"fmt"
	"sync"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/session"
)

// ProcessedChunk is the decode result for one FileChunk. Err and
// AudioChunks are mutually exclusive: a failed chunk carries no
// samples. A failed chunk does not terminate the stream.
type ProcessedChunk struct {
	FileChunk   audio.FileChunk
	AudioChunks []audio.Chunk
	Err         error
}

// HasError reports whether this chunk's decode failed.
func (p *ProcessedChunk) HasError() bool { return p.Err != nil }

// SampleCount returns the total decoded samples across sub-chunks.
func (p *ProcessedChunk) SampleCount() int {
	n := 0
	for _, c := range p.AudioChunks {
		n += len(c.Samples)
	}
	return n
}

// Manager streams FileChunks through a decoder session under a
// concurrency and memory budget. Emission order always matches input
// order; decode completion order may differ, and completed chunks wait
// in a reorder buffer until their predecessors have emitted. Sessions
// that report false from SupportsConcurrentChunks additionally get
// their ProcessFileChunk calls sequenced in input order, keeping each
// result paired with the chunk that produced it.
//
// The memory counters are mutated only by the manager itself, on chunk
// admission, completion and retirement, so accounting stays consistent
// under concurrent completions.
type Manager struct {
	cfg Config

	mtx          sync.Mutex
	currentUsage int64
	maxUsed      int64
	activeChunks int
	pending      map[uint64]int64 // completed but unretired footprints
	processed    int

	originalChunkSize int
	currentChunkSize  int
	pressureCount     int
	underPressure     bool

	disposed bool
}

// NewManager constructs a manager. The config is copied and must not
// change afterwards.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:     cfg.withDefaults(),
		pending: make(map[uint64]int64),
	}
}

type indexedResult struct {
	index uint64
	chunk ProcessedChunk
}

// Process turns a chunk stream and a decoder session into an ordered
// stream of ProcessedChunks. At most MaxConcurrentChunks decode at
// once. Per-chunk decode failures are wrapped into the emitted chunk;
// the pipeline continues. Returns ErrDisposed after Dispose.
//
// The output channel closes once the input closes and all in-flight
// chunks have emitted, or when ctx is cancelled.
func (m *Manager) Process(ctx context.Context, chunks <-chan audio.FileChunk, sess session.ChunkedDecoder) (<-chan ProcessedChunk, error) {
	m.mtx.Lock()
	if m.disposed {
		m.mtx.Unlock()
		return nil, ErrDisposed
	}
	m.mtx.Unlock()

	out := make(chan ProcessedChunk)
	go m.run(ctx, chunks, sess, out)
	return out, nil
}

func (m *Manager) run(ctx context.Context, chunks <-chan audio.FileChunk, sess session.ChunkedDecoder, out chan<- ProcessedChunk) {
	defer close(out)

	checkCtx, stopCheck := context.WithCancel(ctx)
	defer stopCheck()
	go m.memoryCheckLoop(checkCtx)

	sem := make(chan struct{}, m.cfg.MaxConcurrentChunks)
	results := make(chan indexedResult)

	// Stateful sessions treat each chunk as the next sequential decode
	// window, so the decode for chunk N must happen before the decode
	// for chunk N+1 or results get paired with the wrong chunk. A
	// turnstile chain sequences ProcessFileChunk calls in input order
	// for those sessions; concurrency-safe sessions skip it.
	serialized := !sess.SupportsConcurrentChunks()

	var wg sync.WaitGroup
	go func() {
		defer func() {
			wg.Wait()
			close(results)
		}()

		var index uint64
		var turn chan struct{}
		for chunk := range chunks {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			footprint := m.admit(&chunk)
			wg.Add(1)

			myTurn := turn
			var done chan struct{}
			if serialized {
				done = make(chan struct{})
				turn = done
			}

			go func(index uint64, chunk audio.FileChunk, myTurn, done chan struct{}) {
				defer wg.Done()
				defer func() { <-sem }()

				if myTurn != nil {
					select {
					case <-myTurn:
					case <-ctx.Done():
						close(done)
						m.complete(index, footprint)
						m.retire(index)
						return
					}
				}

				pc := m.decodeChunk(&chunk, sess)
				if done != nil {
					// Release the successor before queueing for
					// emission; ordering only binds the decode calls.
					close(done)
				}
				m.complete(index, footprint)

				select {
				case results <- indexedResult{index: index, chunk: pc}:
				case <-ctx.Done():
					m.retire(index)
				}
			}(index, chunk, myTurn, done)

			index++
		}
	}()

	// Reorder buffer: emit strictly in input order.
	var next uint64
	buffered := make(map[uint64]ProcessedChunk)

	for res := range results {
		buffered[res.index] = res.chunk

		for {
			pc, ok := buffered[next]
			if !ok {
				break
			}
			delete(buffered, next)

			select {
			case out <- pc:
			case <-ctx.Done():
				m.retire(next)
				return
			}
			m.retire(next)
			next++

			m.mtx.Lock()
			m.processed++
			processed := m.processed
			onProgress := m.cfg.OnProgress
			m.mtx.Unlock()
			if onProgress != nil {
				onProgress(processed)
			}
		}
	}
}

// decodeChunk runs one chunk through the session, isolating failures
// (including panics) into the result.
func (m *Manager) decodeChunk(chunk *audio.FileChunk, sess session.ChunkedDecoder) (pc ProcessedChunk) {
	pc.FileChunk = *chunk

	defer func() {
		if r := recover(); r != nil {
			pc.AudioChunks = nil
			pc.Err = fmt.Errorf("chunk decode panic: %v", r)
		}
	}()

	decoded, err := sess.ProcessFileChunk(chunk)
	if err != nil {
		pc.Err = fmt.Errorf("%w", err)
		return pc
	}
	pc.AudioChunks = decoded
	return pc
}

// ForceCleanup synchronously retires the memory of every chunk whose
// decode completed but has not emitted yet.
func (m *Manager) ForceCleanup() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	for index, footprint := range m.pending {
		m.currentUsage -= footprint
		delete(m.pending, index)
	}
	if m.currentUsage < 0 {
		m.currentUsage = 0
	}
}

// Dispose marks the manager unusable. In-flight work is not dropped;
// callers drain or cancel their Process stream before disposing.
// Idempotent.
func (m *Manager) Dispose() {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.disposed = true
}

// Disposed reports whether Dispose has been called.
func (m *Manager) Disposed() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.disposed
}
