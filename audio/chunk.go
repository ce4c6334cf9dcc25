// SPDX-License-Identifier: EPL-2.0

package audio

import "time"

// Data holds a fully decoded audio stream in memory.
// Samples are interleaved float32 in [-1, 1].
type Data struct {
	Samples    []float32
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// SampleCount returns the number of samples per channel.
func (d *Data) SampleCount() int {
	if d.Channels == 0 {
		return 0
	}
	return len(d.Samples) / d.Channels
}

// Chunk is a bounded slice of decoded audio produced by incremental
// decoding. A decoder may emit several chunks per file chunk; the final
// chunk of a stream carries IsLast.
type Chunk struct {
	Samples    []float32
	SampleRate int
	Channels   int
	IsLast     bool
}

// FileChunk is a bounded slice of a file's raw bytes. Chunks are
// immutable once produced and consumed exactly once.
//
// Data may be empty when the chunk acts as a marker: a chunked decoder
// that maintains its own read position decodes the next window of
// EndPosition-StartPosition bytes instead.
type FileChunk struct {
	Data          []byte
	StartPosition int64
	EndPosition   int64
	IsLast        bool
}

// Size returns the byte span covered by the chunk.
func (c *FileChunk) Size() int64 {
	if len(c.Data) > 0 {
		return int64(len(c.Data))
	}
	return c.EndPosition - c.StartPosition
}
