// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/session"
)

const (
	vorbisChunkBase = 64 * 1024

	// Size-based duration fallback bitrate for streams without a
	// sample count.
	vorbisFallbackBitrate = 112_000
)

// Session is a chunked decoder session over an Ogg Vorbis file. The
// oggvorbis reader supports granule-position seeking, so seeks are
// exact. Decoding is stateful and serialized; chunks act as size
// markers.
type Session struct {
	mtx sync.Mutex

	f        *os.File
	dec      *oggvorbis.Reader
	path     string
	fileSize int64

	initialized bool
	closed      bool
	cleanup     sync.Once
}

func NewSession() *Session { return &Session{} }

func (s *Session) InitializeChunked(path string, chunkSize int, seekPosition time.Duration) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.initialized {
		return session.ErrAlreadyInitialized
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("%w", err)
	}

	s.f = f
	s.dec = dec
	s.path = path
	s.fileSize = info.Size()
	s.initialized = true

	if seekPosition > 0 {
		if _, err := s.seekLocked(seekPosition); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}

func (s *Session) ProcessFileChunk(chunk *audio.FileChunk) ([]audio.Chunk, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.initialized {
		return nil, session.ErrNotInitialized
	}
	if s.closed {
		return nil, session.ErrSessionClosed
	}

	// Translate the compressed window into a sample window assuming
	// the stream's own compression ratio (PCM bytes = 4 per value).
	want := chunk.Size() * 8
	if want <= 0 {
		want = vorbisChunkBase
	}
	channels := s.dec.Channels()
	values := int(want/4) / channels * channels
	if values == 0 {
		values = channels
	}

	buf := make([]float32, values)
	n, err := readFullSamples(s.dec, buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w", err)
	}

	if n == 0 {
		return []audio.Chunk{{SampleRate: s.dec.SampleRate(), Channels: channels, IsLast: true}}, nil
	}

	return []audio.Chunk{{
		Samples:    buf[:n],
		SampleRate: s.dec.SampleRate(),
		Channels:   channels,
		IsLast:     chunk.IsLast || err == io.EOF,
	}}, nil
}

// readFullSamples keeps reading until buf is full or the stream ends.
func readFullSamples(r *oggvorbis.Reader, buf []float32) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

func (s *Session) SeekToTime(position time.Duration) (session.SeekResult, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.seekLocked(position)
}

func (s *Session) seekLocked(position time.Duration) (session.SeekResult, error) {
	if !s.initialized {
		return session.SeekResult{}, session.ErrNotInitialized
	}
	if s.closed {
		return session.SeekResult{}, session.ErrSessionClosed
	}

	frame := int64(position.Seconds() * float64(s.dec.SampleRate()))
	if total := s.dec.Length(); total > 0 && frame > total {
		frame = total
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return session.SeekResult{}, fmt.Errorf("%w", err)
	}

	actual := time.Duration(frame) * time.Second / time.Duration(s.dec.SampleRate())
	return session.SeekResult{ActualPosition: actual, IsExact: true}, nil
}

func (s *Session) OptimalChunkSize(fileSize int64) session.ChunkSizeRecommendation {
	return session.RecommendChunkSize(vorbisChunkBase, fileSize)
}

func (s *Session) ResetDecoderState() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.initialized {
		return session.ErrNotInitialized
	}
	if s.closed {
		return session.ErrSessionClosed
	}

	if err := s.dec.SetPosition(0); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *Session) EstimateDuration() (time.Duration, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.initialized {
		return 0, false
	}

	total := s.dec.Length()
	if total <= 0 {
		return session.EstimateDurationBySize(s.fileSize, vorbisFallbackBitrate), false
	}
	return time.Duration(total) * time.Second / time.Duration(s.dec.SampleRate()), true
}

func (s *Session) CurrentPosition() time.Duration {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.dec == nil || s.dec.SampleRate() == 0 {
		return 0
	}
	return time.Duration(s.dec.Position()) * time.Second / time.Duration(s.dec.SampleRate())
}

func (s *Session) SupportsEfficientSeeking() bool { return true }

// SupportsConcurrentChunks is false: chunks are sequential decode
// windows over the oggvorbis reader's position.
func (s *Session) SupportsConcurrentChunks() bool { return false }

func (s *Session) IsInitialized() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.initialized
}

func (s *Session) Cleanup() error {
	var err error
	s.cleanup.Do(func() {
		s.mtx.Lock()
		defer s.mtx.Unlock()

		s.closed = true
		if s.f != nil {
			err = s.f.Close()
			s.f = nil
		}
		s.dec = nil
	})
	return err
}

func (s *Session) Dispose() error { return s.Cleanup() }

func (s *Session) Decode(ctx context.Context, path string) (*audio.Data, error) {
	return session.DecodeFile(ctx, path, Decoder{})
}

func (s *Session) DecodeStream(ctx context.Context, path string) (<-chan audio.Chunk, error) {
	return session.StreamFile(ctx, path, Decoder{}, 0)
}
