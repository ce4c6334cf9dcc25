// SPDX-License-Identifier: EPL-2.0

package protocol

import "errors"

var (
	ErrInvalidThreshold   = errors.New("memory pressure threshold must be in (0,1]")
	ErrInvalidMemoryLimit = errors.New("memory limits must not be negative")
	ErrInvalidChunkBounds = errors.New("invalid chunk size bounds")
)
