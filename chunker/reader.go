// SPDX-License-Identifier: EPL-2.0

package chunker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ik5/sonix/audio"
)

// Reader produces FileChunks from a file, consulting the manager's
// recommended chunk size before each read so adaptive sizing takes
// effect on the very next chunk.
type Reader struct {
	f             *os.File
	mgr           *Manager
	baseChunkSize int
	offset        int64
	size          int64
	done          bool
}

// NewReader wraps an open file. baseChunkSize is the unshrunken chunk
// size, typically the session's optimal recommendation.
func NewReader(f *os.File, mgr *Manager, baseChunkSize int) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if baseChunkSize <= 0 {
		baseChunkSize = 64 * 1024
	}

	return &Reader{
		f:             f,
		mgr:           mgr,
		baseChunkSize: baseChunkSize,
		size:          info.Size(),
	}, nil
}

// Next reads the next chunk. Returns io.EOF after the last chunk has
// been returned.
func (r *Reader) Next() (*audio.FileChunk, error) {
	if r.done {
		return nil, io.EOF
	}

	want := r.baseChunkSize
	if r.mgr != nil {
		want = r.mgr.RecommendedChunkSize(r.baseChunkSize)
	}

	remaining := r.size - r.offset
	if remaining <= 0 {
		r.done = true
		return nil, io.EOF
	}
	if int64(want) > remaining {
		want = int(remaining)
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(r.f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			r.done = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w", err)
	}

	chunk := &audio.FileChunk{
		Data:          buf[:n],
		StartPosition: r.offset,
		EndPosition:   r.offset + int64(n),
	}
	r.offset += int64(n)

	if r.offset >= r.size || err == io.ErrUnexpectedEOF {
		chunk.IsLast = true
		r.done = true
	}
	return chunk, nil
}

// Chunks drives Next in a goroutine, closing the channel after the
// last chunk or on cancellation.
func (r *Reader) Chunks(ctx context.Context) <-chan audio.FileChunk {
	out := make(chan audio.FileChunk)

	go func() {
		defer close(out)

		for {
			chunk, err := r.Next()
			if err != nil {
				return
			}

			select {
			case out <- *chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
