// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	goaiff "github.com/go-audio/aiff"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/session"
)

const aiffChunkBase = 128 * 1024

// Session is a chunked decoder session over an AIFF file. AIFF carries
// no seek index here, so seeking decodes forward from the nearest known
// position (reopening the file for backward seeks). Positions still
// land on the exact requested frame, just not efficiently.
type Session struct {
	mtx sync.Mutex

	f        *os.File
	src      audio.Source
	path     string
	fileSize int64
	frames   int64 // total sample frames, 0 when unknown
	framePos int64 // frames consumed so far

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

	if err := s.openLocked(path); err != nil {
		return err
	}

	info, err := s.f.Stat()
	if err != nil {
		s.f.Close()
		return fmt.Errorf("%w", err)
	}
	s.fileSize = info.Size()

	// A separate metadata pass for the frame count; the streaming
	// source does not expose it.
	if meta, err := os.Open(path); err == nil {
		dec := goaiff.NewDecoder(meta)
		if dec.IsValidFile() {
			dec.ReadInfo()
			s.frames = int64(dec.NumSampleFrames)
		}
		meta.Close()
	}

	s.path = path
	s.initialized = true

	if seekPosition > 0 {
		if _, err := s.seekLocked(seekPosition); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}

// openLocked (re)opens the file and the streaming decoder at frame 0.
func (s *Session) openLocked(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	src, err := Decoder{}.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("%w", err)
	}

	if s.f != nil {
		s.f.Close()
	}
	s.f = f
	s.src = src
	s.framePos = 0
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

	// Compressed size maps 1:1 for PCM AIFF (16-bit): bytes / 2 values.
	channels := s.src.Channels()
	want := int(chunk.Size() / 2)
	if want <= 0 {
		want = aiffChunkBase / 2
	}
	want = want / channels * channels
	if want == 0 {
		want = channels
	}

	buf := make([]float32, want)
	n, err := s.src.ReadSamples(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w", err)
	}
	s.framePos += int64(n / channels)

	if n == 0 {
		return []audio.Chunk{{SampleRate: s.src.SampleRate(), Channels: channels, IsLast: true}}, nil
	}

	return []audio.Chunk{{
		Samples:    buf[:n],
		SampleRate: s.src.SampleRate(),
		Channels:   channels,
		IsLast:     chunk.IsLast || err == io.EOF,
	}}, nil
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

	target := int64(position.Seconds() * float64(s.src.SampleRate()))
	if s.frames > 0 && target > s.frames {
		target = s.frames
	}

	// Backward seeks restart the decoder.
	if target < s.framePos {
		if err := s.openLocked(s.path); err != nil {
			return session.SeekResult{}, err
		}
	}

	// Decode forward until the target frame.
	channels := s.src.Channels()
	skip := make([]float32, 4096/channels*channels)
	for s.framePos < target {
		remaining := (target - s.framePos) * int64(channels)
		if remaining < int64(len(skip)) {
			skip = skip[:remaining]
		}
		n, err := s.src.ReadSamples(skip)
		if n > 0 {
			s.framePos += int64(n / channels)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return session.SeekResult{}, fmt.Errorf("%w", err)
		}
		if n == 0 {
			break
		}
	}

	actual := time.Duration(s.framePos) * time.Second / time.Duration(s.src.SampleRate())
	return session.SeekResult{ActualPosition: actual, IsExact: s.framePos == target}, nil
}

func (s *Session) OptimalChunkSize(fileSize int64) session.ChunkSizeRecommendation {
	return session.RecommendChunkSize(aiffChunkBase, fileSize)
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
	return s.openLocked(s.path)
}

func (s *Session) EstimateDuration() (time.Duration, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.initialized {
		return 0, false
	}
	if s.frames <= 0 {
		// Raw PCM estimate: 16-bit samples dominate the file.
		bitrate := s.src.SampleRate() * s.src.Channels() * 16
		return session.EstimateDurationBySize(s.fileSize, bitrate), false
	}
	return time.Duration(s.frames) * time.Second / time.Duration(s.src.SampleRate()), true
}

func (s *Session) CurrentPosition() time.Duration {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.src == nil || s.src.SampleRate() == 0 {
		return 0
	}
	return time.Duration(s.framePos) * time.Second / time.Duration(s.src.SampleRate())
}

func (s *Session) SupportsEfficientSeeking() bool { return false }

// SupportsConcurrentChunks is false: the decoder is forward-only and
// chunks are sequential decode windows.
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
		if s.src != nil {
			s.src.Close()
			s.src = nil
		}
		if s.f != nil {
			err = s.f.Close()
			s.f = nil
		}
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
