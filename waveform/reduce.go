// SPDX-License-Identifier: EPL-2.0

package waveform

import "math"

// ReducePoint collapses one window of samples into a single amplitude
// using alg. An empty window reduces to 0.
func ReducePoint(window []float32, alg Algorithm) float64 {
	if len(window) == 0 {
		return 0
	}

	switch alg {
	case Peak:
		peak := 0.0
		for _, s := range window {
			a := math.Abs(float64(s))
			if a > peak {
				peak = a
			}
		}
		return peak

	case Average:
		sum := 0.0
		for _, s := range window {
			sum += math.Abs(float64(s))
		}
		return sum / float64(len(window))

	default: // RMS
		sum := 0.0
		for _, s := range window {
			v := float64(s)
			sum += v * v
		}
		return math.Sqrt(sum / float64(len(window)))
	}
}

// Reduce splits samples into resolution evenly sized windows and reduces
// each to one amplitude. Trailing samples that do not fill a window are
// folded into the last one.
func Reduce(samples []float32, resolution int, alg Algorithm) []float64 {
	if resolution <= 0 {
		return nil
	}

	amplitudes := make([]float64, resolution)
	if len(samples) == 0 {
		return amplitudes
	}

	windowSize := len(samples) / resolution
	if windowSize == 0 {
		windowSize = 1
	}

	for i := 0; i < resolution; i++ {
		start := i * windowSize
		if start >= len(samples) {
			break
		}
		end := start + windowSize
		if i == resolution-1 || end > len(samples) {
			end = len(samples)
		}
		amplitudes[i] = ReducePoint(samples[start:end], alg)
	}

	return amplitudes
}

// Normalize scales amplitudes so the loudest point becomes 1.0.
// Silence is left untouched.
func Normalize(amplitudes []float64) {
	peak := 0.0
	for _, a := range amplitudes {
		if a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return
	}
	for i := range amplitudes {
		amplitudes[i] /= peak
	}
}

// FitResolution resamples an amplitude series to exactly resolution
// points. Used by the streaming path, where the number of per-chunk
// amplitudes depends on chunk sizing rather than the requested
// resolution.
func FitResolution(series []float64, resolution int) []float64 {
	if resolution <= 0 {
		return nil
	}

	out := make([]float64, resolution)
	if len(series) == 0 {
		return out
	}
	if len(series) == resolution {
		copy(out, series)
		return out
	}

	// Average the source points that fall into each output bucket.
	ratio := float64(len(series)) / float64(resolution)
	for i := 0; i < resolution; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end <= start {
			end = start + 1
		}
		if end > len(series) {
			end = len(series)
		}
		if start >= len(series) {
			start = len(series) - 1
			end = len(series)
		}

		sum := 0.0
		for _, v := range series[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}

	return out
}
