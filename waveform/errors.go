// SPDX-License-Identifier: EPL-2.0

package waveform

import "errors"

var (
	ErrUnknownAlgorithm  = errors.New("unknown waveform algorithm")
	ErrInvalidResolution = errors.New("resolution must be positive")
	ErrInvalidConfig     = errors.New("invalid waveform configuration")
)
