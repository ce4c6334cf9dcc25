// SPDX-License-Identifier: EPL-2.0

package waveform

import "time"

// Algorithm selects how a window of samples is reduced to one amplitude.
type Algorithm int

const (
	// RMS reduces a window to its root mean square. Default.
	RMS Algorithm = iota
	// Peak reduces a window to its maximum absolute value.
	Peak
	// Average reduces a window to the mean of absolute values.
	Average
)

func (a Algorithm) String() string {
	switch a {
	case RMS:
		return "rms"
	case Peak:
		return "peak"
	case Average:
		return "average"
	}
	return "unknown"
}

// ParseAlgorithm maps a name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "rms", "":
		return RMS, nil
	case "peak":
		return Peak, nil
	case "average", "avg":
		return Average, nil
	}
	return RMS, ErrUnknownAlgorithm
}

// Config controls waveform extraction.
type Config struct {
	// Resolution is the number of amplitude points to produce.
	Resolution int
	// Algorithm reduces each window to a single amplitude.
	Algorithm Algorithm
	// Normalize scales the result so the loudest point is 1.0.
	Normalize bool
	// DownsampleRate, when non-zero, resamples the decoded audio to this
	// rate before reduction. Bounds CPU on very dense sources; the
	// amplitudes are rate-independent so the shape is preserved.
	DownsampleRate int
	// WindowDuration is the decode window used per point by selective
	// decoding. Zero means 100ms.
	WindowDuration time.Duration
}

// DefaultConfig returns the reference extraction settings.
func DefaultConfig() Config {
	return Config{
		Resolution:     1000,
		Algorithm:      RMS,
		Normalize:      true,
		WindowDuration: 100 * time.Millisecond,
	}
}

// Validate reports a configuration error before any job starts.
func (c Config) Validate() error {
	if c.Resolution <= 0 {
		return ErrInvalidResolution
	}
	if c.Algorithm < RMS || c.Algorithm > Average {
		return ErrUnknownAlgorithm
	}
	if c.DownsampleRate < 0 || c.WindowDuration < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Data is a reduced amplitude waveform ready for display.
type Data struct {
	Amplitudes []float64
	SampleRate int
	Channels   int
	Duration   time.Duration
	Algorithm  Algorithm
}

// Resolution returns the number of amplitude points.
func (d *Data) Resolution() int { return len(d.Amplitudes) }
