// SPDX-License-Identifier: EPL-2.0

// Package waveform reduces decoded audio to compact amplitude series
// for display.
//
// A waveform is a slice of float64 amplitudes, one per display point.
// Three reduction algorithms are supported:
//   - RMS: root mean square of the window (default, perceptually smooth)
//   - Peak: maximum absolute sample in the window
//   - Average: mean absolute sample in the window
//
// # Usage
//
//	cfg := waveform.DefaultConfig()
//	amps := waveform.Reduce(samples, cfg.Resolution, cfg.Algorithm)
//	if cfg.Normalize {
//	    waveform.Normalize(amps)
//	}
//
// With Normalize enabled every amplitude lands in [0, 1].
package waveform
