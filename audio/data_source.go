// SPDX-License-Identifier: EPL-2.0

package audio

import "io"

// DataSource adapts an in-memory Data value back into a Source so the
// standard pipeline stages (resample, mono downmix) can run over audio
// that was decoded in one pass.
type DataSource struct {
	data *Data
	pos  int
}

func NewDataSource(data *Data) *DataSource {
	return &DataSource{data: data}
}

func (s *DataSource) SampleRate() int { return s.data.SampleRate }
func (s *DataSource) Channels() int   { return s.data.Channels }
func (s *DataSource) BufSize() int    { return 4096 }
func (s *DataSource) Close() error    { return nil }

func (s *DataSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.data.Samples) {
		return 0, io.EOF
	}

	n := copy(dst, s.data.Samples[s.pos:])
	s.pos += n

	if s.pos >= len(s.data.Samples) {
		return n, io.EOF
	}
	return n, nil
}
