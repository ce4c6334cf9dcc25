// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/session"
)

// MockSession is a configurable session.ChunkedDecoder for pipeline
// and pool tests. It synthesizes a constant-amplitude signal instead
// of decoding real bytes, and can inject latency, errors and panics at
// chosen points.
type MockSession struct {
	// SampleRate and Channels of the synthesized audio. Defaults:
	// 44100 / 2.
	SampleRate int
	Channels   int
	// Amplitude of every synthesized sample. Default 0.5.
	Amplitude float32
	// SamplesPerChunk synthesized per ProcessFileChunk call. Default
	// 1024.
	SamplesPerChunk int
	// Duration reported by EstimateDuration. Zero reports ok=false.
	Duration time.Duration

	// DecodeLatency is slept inside every ProcessFileChunk call.
	DecodeLatency time.Duration
	// Serialize guards ProcessFileChunk with a mutex, emulating
	// formats with internal decode state.
	Serialize bool
	// StampWindows makes every synthesized sample carry the 0-based
	// sequential decode-window number instead of Amplitude, so tests
	// can check which window a chunk's result came from. Window numbers
	// are claimed in decode order, like a stateful format's stream
	// position.
	StampWindows bool
	// FailChunks lists 0-based ProcessFileChunk call numbers that
	// return an error.
	FailChunks []int
	// PanicChunks lists 0-based ProcessFileChunk call numbers that
	// panic.
	PanicChunks []int
	// FailInit makes InitializeChunked fail.
	FailInit bool
	// FailSeek makes SeekToTime fail.
	FailSeek bool

	mtx         sync.Mutex
	initialized bool
	position    time.Duration
	seeks       []time.Duration
	chunkCalls  atomic.Int64
	windows     atomic.Int64
	cleanups    atomic.Int64
	concurrent  atomic.Int64
	maxParallel atomic.Int64
}

var _ session.ChunkedDecoder = (*MockSession)(nil)

var errMockFailure = errors.New("mock failure")

func (m *MockSession) withDefaults() {
	if m.SampleRate == 0 {
		m.SampleRate = 44100
	}
	if m.Channels == 0 {
		m.Channels = 2
	}
	if m.Amplitude == 0 {
		m.Amplitude = 0.5
	}
	if m.SamplesPerChunk == 0 {
		m.SamplesPerChunk = 1024
	}
}

func (m *MockSession) InitializeChunked(path string, chunkSize int, seekPosition time.Duration) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.FailInit {
		return errMockFailure
	}
	if m.initialized {
		return session.ErrAlreadyInitialized
	}
	m.withDefaults()
	m.initialized = true
	m.position = seekPosition
	return nil
}

func (m *MockSession) ProcessFileChunk(chunk *audio.FileChunk) ([]audio.Chunk, error) {
	call := int(m.chunkCalls.Add(1)) - 1

	if m.Serialize {
		m.mtx.Lock()
		defer m.mtx.Unlock()
	}

	// Track observed parallelism so tests can assert on it.
	cur := m.concurrent.Add(1)
	defer m.concurrent.Add(-1)
	for {
		old := m.maxParallel.Load()
		if cur <= old || m.maxParallel.CompareAndSwap(old, cur) {
			break
		}
	}

	if m.DecodeLatency > 0 {
		time.Sleep(m.DecodeLatency)
	}

	for _, n := range m.PanicChunks {
		if n == call {
			panic(fmt.Sprintf("mock panic on chunk %d", call))
		}
	}
	for _, n := range m.FailChunks {
		if n == call {
			return nil, fmt.Errorf("%w: chunk %d", errMockFailure, call)
		}
	}

	value := m.Amplitude
	if m.StampWindows {
		value = float32(m.windows.Add(1) - 1)
	}

	samples := make([]float32, m.SamplesPerChunk)
	for i := range samples {
		samples[i] = value
	}
	return []audio.Chunk{{
		Samples:    samples,
		SampleRate: m.SampleRate,
		Channels:   m.Channels,
		IsLast:     chunk.IsLast,
	}}, nil
}

func (m *MockSession) SeekToTime(position time.Duration) (session.SeekResult, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.FailSeek {
		return session.SeekResult{}, errMockFailure
	}
	m.position = position
	m.seeks = append(m.seeks, position)
	return session.SeekResult{ActualPosition: position, IsExact: true}, nil
}

func (m *MockSession) OptimalChunkSize(fileSize int64) session.ChunkSizeRecommendation {
	return session.RecommendChunkSize(64*1024, fileSize)
}

func (m *MockSession) ResetDecoderState() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.position = 0
	return nil
}

func (m *MockSession) EstimateDuration() (time.Duration, bool) {
	return m.Duration, m.Duration > 0
}

func (m *MockSession) Cleanup() error {
	m.cleanups.Add(1)
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.initialized = false
	return nil
}

func (m *MockSession) CurrentPosition() time.Duration {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.position
}

func (m *MockSession) SupportsEfficientSeeking() bool { return true }

func (m *MockSession) SupportsConcurrentChunks() bool { return !m.Serialize }

func (m *MockSession) IsInitialized() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.initialized
}

// ChunkCalls returns how many times ProcessFileChunk ran.
func (m *MockSession) ChunkCalls() int { return int(m.chunkCalls.Load()) }

// Cleanups returns how many times Cleanup ran.
func (m *MockSession) Cleanups() int { return int(m.cleanups.Load()) }

// MaxParallel returns the highest observed ProcessFileChunk
// concurrency.
func (m *MockSession) MaxParallel() int { return int(m.maxParallel.Load()) }

// SeekHistory returns every position passed to SeekToTime, in order.
func (m *MockSession) SeekHistory() []time.Duration {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

// Decode synthesizes the whole signal in one pass.
func (m *MockSession) Decode(ctx context.Context, path string) (*audio.Data, error) {
	m.mtx.Lock()
	m.withDefaults()
	m.mtx.Unlock()

	samples := make([]float32, m.SamplesPerChunk)
	for i := range samples {
		samples[i] = m.Amplitude
	}
	frames := len(samples) / m.Channels
	return &audio.Data{
		Samples:    samples,
		SampleRate: m.SampleRate,
		Channels:   m.Channels,
		Duration:   time.Duration(frames) * time.Second / time.Duration(m.SampleRate),
	}, nil
}

// DecodeStream emits the synthesized signal as a single chunk.
func (m *MockSession) DecodeStream(ctx context.Context, path string) (<-chan audio.Chunk, error) {
	m.mtx.Lock()
	m.withDefaults()
	m.mtx.Unlock()

	out := make(chan audio.Chunk, 1)
	samples := make([]float32, m.SamplesPerChunk)
	for i := range samples {
		samples[i] = m.Amplitude
	}
	out <- audio.Chunk{Samples: samples, SampleRate: m.SampleRate, Channels: m.Channels, IsLast: true}
	close(out)
	return out, nil
}

func (m *MockSession) Dispose() error { return m.Cleanup() }
