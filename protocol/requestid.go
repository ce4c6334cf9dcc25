// SPDX-License-Identifier: EPL-2.0

package protocol

import (
	"strconv"
	"strings"
)

// Retry attempts reuse the base task id with a retry marker appended,
// so statistics always resolve to the same base task.
const retryMarker = "#retry-"

// RetryRequestID derives the request id for a retry attempt.
func RetryRequestID(baseID string, attempt int) string {
	if attempt <= 0 {
		return baseID
	}
	return baseID + retryMarker + strconv.Itoa(attempt)
}

// BaseRequestID strips any retry marker from a request id.
func BaseRequestID(id string) string {
	if i := strings.Index(id, retryMarker); i >= 0 {
		return id[:i]
	}
	return id
}
