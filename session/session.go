// SPDX-License-Identifier: EPL-2.0

package session

import (
	"context"
	"time"

	"github.com/ik5/sonix/audio"
)

// Decoder is the minimal capability set for whole-file decoding.
type Decoder interface {
	// Decode reads and decodes the entire file into memory.
	Decode(ctx context.Context, path string) (*audio.Data, error)
	// DecodeStream decodes the file incrementally, sending chunks until
	// the last one (IsLast) or ctx is cancelled. The channel is closed
	// when decoding ends.
	DecodeStream(ctx context.Context, path string) (<-chan audio.Chunk, error)
	// Dispose releases decoder resources. Safe to call more than once.
	Dispose() error
}

// SeekResult reports where a seek actually landed.
type SeekResult struct {
	ActualPosition time.Duration
	IsExact        bool
}

// ChunkSizeRecommendation is a format-specific chunk sizing hint. The
// chunk manager treats Recommended as its starting size and stays
// inside [Min, Max].
type ChunkSizeRecommendation struct {
	Min         int
	Recommended int
	Max         int
}

// ChunkedDecoder extends Decoder with incremental, seekable decoding.
//
// Lifecycle: InitializeChunked exactly once, then any number of
// SeekToTime / ProcessFileChunk / ResetDecoderState calls, then Cleanup
// exactly once on every exit path. Cleanup is internally idempotent so
// a deferred call is always safe.
//
// ProcessFileChunk must tolerate repeated calls, including immediately
// after a call that returned no chunks.
//
// Implementations that keep internal decode state treat each chunk as
// the next sequential decode window, so the result of a call depends on
// every call before it. Such sessions report false from
// SupportsConcurrentChunks and callers must issue ProcessFileChunk
// calls in chunk order, one at a time. Stateless implementations (raw
// PCM) decode the chunk's own byte range and may be called
// concurrently.
type ChunkedDecoder interface {
	Decoder

	InitializeChunked(path string, chunkSize int, seekPosition time.Duration) error
	ProcessFileChunk(chunk *audio.FileChunk) ([]audio.Chunk, error)
	SeekToTime(position time.Duration) (SeekResult, error)
	OptimalChunkSize(fileSize int64) ChunkSizeRecommendation
	ResetDecoderState() error
	// EstimateDuration is best effort: ok is false when no codec-level
	// duration is known and the caller should fall back to a
	// size/bitrate estimate.
	EstimateDuration() (d time.Duration, ok bool)
	Cleanup() error
	CurrentPosition() time.Duration
	SupportsEfficientSeeking() bool
	// SupportsConcurrentChunks reports whether ProcessFileChunk decodes
	// a chunk's own byte range independently of call order. When false,
	// callers sequence calls in chunk order so each result stays paired
	// with its originating chunk.
	SupportsConcurrentChunks() bool
	IsInitialized() bool
}

// EstimateDurationBySize estimates a duration from file size and an
// assumed bitrate in bits per second. Used when codec metadata carries
// no duration.
func EstimateDurationBySize(fileSize int64, bitrate int) time.Duration {
	if fileSize <= 0 || bitrate <= 0 {
		return 0
	}
	seconds := float64(fileSize*8) / float64(bitrate)
	return time.Duration(seconds * float64(time.Second))
}
