// SPDX-License-Identifier: EPL-2.0

package session

import "errors"

var (
	ErrUnsupportedFormat  = errors.New("no decoder session registered for format")
	ErrNotInitialized     = errors.New("chunked decoding not initialized")
	ErrAlreadyInitialized = errors.New("chunked decoding already initialized")
	ErrSessionClosed      = errors.New("decoder session closed")
	ErrSeekUnsupported    = errors.New("seeking not supported by this format")
)
