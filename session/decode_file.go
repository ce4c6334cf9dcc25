// SPDX-License-Identifier: EPL-2.0

package session

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ik5/sonix/audio"
)

// DecodeFile decodes an entire file through a stateless format decoder.
// Shared by the format sessions' Decode implementations.
func DecodeFile(ctx context.Context, path string, dec audio.Decoder) (*audio.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer src.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return audio.ReadAll(src, 4096)
}

// StreamFile decodes a file incrementally, emitting chunks of up to
// chunkSamples interleaved samples. The channel closes after the last
// chunk or when ctx is cancelled.
func StreamFile(ctx context.Context, path string, dec audio.Decoder, chunkSamples int) (<-chan audio.Chunk, error) {
	if chunkSamples <= 0 {
		chunkSamples = 32 * 1024
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	src, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w", err)
	}

	out := make(chan audio.Chunk)

	go func() {
		defer close(out)
		defer f.Close()
		defer src.Close()

		for {
			buf := make([]float32, chunkSamples)
			n, err := src.ReadSamples(buf)

			if n > 0 {
				chunk := audio.Chunk{
					Samples:    buf[:n],
					SampleRate: src.SampleRate(),
					Channels:   src.Channels(),
					IsLast:     err == io.EOF,
				}

				select {
				case out <- chunk:
				case <-ctx.Done():
					return
				}
			}

			if err != nil {
				return
			}
		}
	}()

	return out, nil
}
