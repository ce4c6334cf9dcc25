// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/session"
)

const (
	mp3ChunkBase = 64 * 1024

	// Assumed bitrate for the size-based duration fallback when the
	// decoded length is unknown.
	mp3FallbackBitrate = 128_000

	// go-mp3 always emits 16-bit stereo PCM.
	mp3PCMFrameBytes = 4
)

// Session is a chunked decoder session over an MP3 file. go-mp3
// exposes the decoded stream as a seekable PCM view, so seeking is
// sample-indexed and exact. Decode state is internal to go-mp3, so
// chunk processing is serialized and chunks act as size markers.
type Session struct {
	mtx sync.Mutex

	f        *os.File
	dec      *gomp3.Decoder
	path     string
	fileSize int64
	pcmLen   int64 // total decoded bytes, -1 when unknown
	pcmRead  int64

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

	dec, err := gomp3.NewDecoder(f)
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
	s.pcmLen = dec.Length()
	s.initialized = true

	if seekPosition > 0 {
		if _, err := s.seekLocked(seekPosition); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}

// expansionRatio estimates how many PCM bytes one compressed byte
// becomes, used to translate file-chunk sizes into decode windows.
func (s *Session) expansionRatio() float64 {
	if s.pcmLen > 0 && s.fileSize > 0 {
		return float64(s.pcmLen) / float64(s.fileSize)
	}
	// 44.1kHz stereo PCM (176400 B/s) over 128kbps (16000 B/s).
	return 11.0
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

	want := int64(float64(chunk.Size()) * s.expansionRatio())
	if want <= 0 {
		want = mp3ChunkBase
	}
	want = want / mp3PCMFrameBytes * mp3PCMFrameBytes
	if want == 0 {
		want = mp3PCMFrameBytes
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(s.dec, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("%w", err)
	}
	s.pcmRead += int64(n)

	last := chunk.IsLast || err == io.EOF || err == io.ErrUnexpectedEOF
	frames := n / 2 // int16 values
	if frames == 0 {
		return []audio.Chunk{{SampleRate: s.dec.SampleRate(), Channels: 2, IsLast: true}}, nil
	}

	samples := make([]float32, frames)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(buf[2*i : 2*i+2]))
		samples[i] = float32(v) / 32768.0
	}

	return []audio.Chunk{{
		Samples:    samples,
		SampleRate: s.dec.SampleRate(),
		Channels:   2,
		IsLast:     last,
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

	frame := int64(position.Seconds() * float64(s.dec.SampleRate()))
	offset := frame * mp3PCMFrameBytes
	if s.pcmLen > 0 && offset > s.pcmLen {
		offset = s.pcmLen
	}

	got, err := s.dec.Seek(offset, io.SeekStart)
	if err != nil {
		return session.SeekResult{}, fmt.Errorf("%w", err)
	}
	s.pcmRead = got

	actual := time.Duration(got/mp3PCMFrameBytes) * time.Second / time.Duration(s.dec.SampleRate())
	return session.SeekResult{ActualPosition: actual, IsExact: got == offset}, nil
}

func (s *Session) OptimalChunkSize(fileSize int64) session.ChunkSizeRecommendation {
	return session.RecommendChunkSize(mp3ChunkBase, fileSize)
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

	if _, err := s.dec.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.pcmRead = 0
	return nil
}

func (s *Session) EstimateDuration() (time.Duration, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.initialized {
		return 0, false
	}
	if s.pcmLen <= 0 {
		// No decoded length; the caller falls back to a bitrate guess.
		return session.EstimateDurationBySize(s.fileSize, mp3FallbackBitrate), false
	}

	frames := s.pcmLen / mp3PCMFrameBytes
	return time.Duration(frames) * time.Second / time.Duration(s.dec.SampleRate()), true
}

func (s *Session) CurrentPosition() time.Duration {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.dec == nil || s.dec.SampleRate() == 0 {
		return 0
	}
	return time.Duration(s.pcmRead/mp3PCMFrameBytes) * time.Second / time.Duration(s.dec.SampleRate())
}

func (s *Session) SupportsEfficientSeeking() bool { return true }

// SupportsConcurrentChunks is false: chunks are sequential decode
// windows over go-mp3's internal stream position.
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
