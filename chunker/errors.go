// SPDX-License-Identifier: EPL-2.0

package chunker

import "errors"

var (
	ErrDisposed = errors.New("chunk manager disposed")
)
