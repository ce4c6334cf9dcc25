// SPDX-License-Identifier: EPL-2.0

package protocol

import (
	"context"
	"errors"
	"io/fs"
)

// ErrorType classifies a failure for callers and retry policy.
type ErrorType int

const (
	// ErrorUnknown is the zero value; treated as a decoding failure.
	ErrorUnknown ErrorType = iota
	// ErrorInitialization: the worker could not start. Fatal for that
	// worker, never retried in place.
	ErrorInitialization
	// ErrorDecoding: a job or chunk failed to decode. Recoverable by
	// retry or neutral-sample substitution.
	ErrorDecoding
	// ErrorMemory: the job aborted despite adaptive shrinking.
	ErrorMemory
	// ErrorFileAccess: the input file cannot be read. Job-fatal.
	ErrorFileAccess
	// ErrorStreaming: one streamed operation failed.
	ErrorStreaming
	// ErrorConfiguration: rejected before the job started.
	ErrorConfiguration
	// ErrorCancelled: the job observed a cancellation checkpoint.
	ErrorCancelled
)

func (t ErrorType) String() string {
	switch t {
	case ErrorInitialization:
		return "initialization"
	case ErrorDecoding:
		return "decoding"
	case ErrorMemory:
		return "memory"
	case ErrorFileAccess:
		return "file_access"
	case ErrorStreaming:
		return "streaming"
	case ErrorConfiguration:
		return "configuration"
	case ErrorCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ClassifyError maps an error chain onto an ErrorType. Errors without
// a recognizable cause classify as decoding failures.
func ClassifyError(err error) ErrorType {
	switch {
	case err == nil:
		return ErrorUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorCancelled
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return ErrorFileAccess
	default:
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return ErrorFileAccess
		}
		return ErrorDecoding
	}
}
