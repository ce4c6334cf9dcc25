// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Pipeline wraps src with the standard pre-reduction stages: an optional
// resample to downsampleRate (0 disables it) followed by a downmix to
// mono. The returned Source always reports one channel.
func Pipeline(src Source, downsampleRate int) Source {
	if downsampleRate > 0 && downsampleRate != src.SampleRate() {
		src = NewResampler(src, downsampleRate)
	}
	return NewMonoMixer(src)
}

// ReadAll drains src into a Data value. bufferSize controls the read
// granularity (4096 is a good default).
func ReadAll(src Source, bufferSize int) (*Data, error) {
	if bufferSize <= 0 {
		bufferSize = 4096
	}

	samples := make([]float32, 0, bufferSize)
	buf := make([]float32, bufferSize)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			samples = append(samples, buf[:n]...)
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	data := &Data{
		Samples:    samples,
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
	}

	if data.SampleRate > 0 && data.Channels > 0 {
		frames := len(samples) / data.Channels
		data.Duration = time.Duration(frames) * time.Second / time.Duration(data.SampleRate)
	}

	return data, nil
}
