// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/session"
)

// wavChunkBase is the base chunk size for WAV. Raw PCM decodes cheaply,
// so WAV takes the largest chunks of all formats.
const wavChunkBase = 256 * 1024

// Session is a chunked decoder session over a PCM 16-bit WAV file.
//
// Raw PCM is independently decodable at any aligned offset, so the
// session supports exact seeking and stateless chunk decoding: a chunk
// carrying data decodes without touching the session's read position.
type Session struct {
	mtx sync.Mutex

	f          *os.File
	path       string
	fileSize   int64
	dataStart  int64
	dataLen    int64
	sampleRate int
	channels   int
	blockAlign int64
	duration   time.Duration

	offset      int64 // current read offset relative to dataStart
	initialized bool
	closed      bool
	cleanup     sync.Once
}

// NewSession returns an uninitialized WAV session for registry use.
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

	// go-audio handles non-canonical chunk layouts the hand-rolled
	// streaming decoder rejects.
	dec := gowav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return fmt.Errorf("%w", err)
	}

	if dec.BitDepth != 16 || dec.WavAudioFormat != 1 {
		f.Close()
		return ErrOnlyPCM16bitSupported
	}

	dataStart, err := f.Seek(0, io.SeekCurrent)
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
	s.path = path
	s.fileSize = info.Size()
	s.dataStart = dataStart
	s.dataLen = dec.PCMLen()
	if s.dataLen <= 0 || s.dataStart+s.dataLen > s.fileSize {
		s.dataLen = s.fileSize - s.dataStart
	}
	s.sampleRate = int(dec.SampleRate)
	s.channels = int(dec.NumChans)
	s.blockAlign = int64(s.channels) * 2

	frames := s.dataLen / s.blockAlign
	s.duration = time.Duration(frames) * time.Second / time.Duration(s.sampleRate)
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
	if !s.initialized {
		s.mtx.Unlock()
		return nil, session.ErrNotInitialized
	}
	if s.closed {
		s.mtx.Unlock()
		return nil, session.ErrSessionClosed
	}
	s.mtx.Unlock()

	if len(chunk.Data) > 0 {
		return s.decodeRaw(chunk)
	}
	return s.decodeNextWindow(chunk)
}

// decodeRaw decodes a chunk of raw file bytes. Stateless: safe for
// concurrent chunks in flight.
func (s *Session) decodeRaw(chunk *audio.FileChunk) ([]audio.Chunk, error) {
	data := chunk.Data
	start := chunk.StartPosition

	// Bytes before the PCM data chunk are header, not samples.
	if start < s.dataStart {
		skip := s.dataStart - start
		if skip >= int64(len(data)) {
			return nil, nil
		}
		data = data[skip:]
		start = s.dataStart
	}

	// Align the window to whole frames.
	misalign := (start - s.dataStart) % s.blockAlign
	if misalign != 0 {
		pad := s.blockAlign - misalign
		if pad >= int64(len(data)) {
			return nil, nil
		}
		data = data[pad:]
	}
	data = data[:int64(len(data))/s.blockAlign*s.blockAlign]
	if len(data) == 0 {
		return nil, nil
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[2*i : 2*i+2]))
		samples[i] = float32(v) / 32768.0
	}

	return []audio.Chunk{{
		Samples:    samples,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
		IsLast:     chunk.IsLast,
	}}, nil
}

// decodeNextWindow reads the next chunk-sized window at the session's
// own read position. Used by selective decoding, where chunks are
// markers without data.
func (s *Session) decodeNextWindow(chunk *audio.FileChunk) ([]audio.Chunk, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	want := chunk.Size()
	if want <= 0 {
		want = wavChunkBase
	}
	remaining := s.dataLen - s.offset
	if remaining <= 0 {
		return []audio.Chunk{{SampleRate: s.sampleRate, Channels: s.channels, IsLast: true}}, nil
	}
	if want > remaining {
		want = remaining
	}
	want = want / s.blockAlign * s.blockAlign
	if want == 0 {
		want = s.blockAlign
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(s.f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return []audio.Chunk{{SampleRate: s.sampleRate, Channels: s.channels, IsLast: true}}, nil
		}
		return nil, fmt.Errorf("%w", err)
	}
	s.offset += int64(n)

	samples := make([]float32, n/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(buf[2*i : 2*i+2]))
		samples[i] = float32(v) / 32768.0
	}

	return []audio.Chunk{{
		Samples:    samples,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
		IsLast:     s.offset >= s.dataLen,
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

	frame := int64(position.Seconds() * float64(s.sampleRate))
	offset := frame * s.blockAlign
	if offset > s.dataLen {
		offset = s.dataLen
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.f.Seek(s.dataStart+offset, io.SeekStart); err != nil {
		return session.SeekResult{}, fmt.Errorf("%w", err)
	}
	s.offset = offset

	actual := time.Duration(offset/s.blockAlign) * time.Second / time.Duration(s.sampleRate)
	return session.SeekResult{ActualPosition: actual, IsExact: true}, nil
}

func (s *Session) OptimalChunkSize(fileSize int64) session.ChunkSizeRecommendation {
	return session.RecommendChunkSize(wavChunkBase, fileSize)
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

	if _, err := s.f.Seek(s.dataStart, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.offset = 0
	return nil
}

func (s *Session) EstimateDuration() (time.Duration, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.initialized {
		return 0, false
	}
	return s.duration, true
}

func (s *Session) CurrentPosition() time.Duration {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.blockAlign == 0 || s.sampleRate == 0 {
		return 0
	}
	return time.Duration(s.offset/s.blockAlign) * time.Second / time.Duration(s.sampleRate)
}

func (s *Session) SupportsEfficientSeeking() bool { return true }

// SupportsConcurrentChunks is true: data-carrying chunks decode their
// own byte range without touching the session's read position.
func (s *Session) SupportsConcurrentChunks() bool { return true }

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
