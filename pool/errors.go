// SPDX-License-Identifier: EPL-2.0

package pool

import "errors"

var (
	ErrDisposed       = errors.New("worker pool disposed")
	ErrNoRegistry     = errors.New("decoder registry is required")
	ErrSpawnFailed    = errors.New("no worker could be spawned")
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskCancelled  = errors.New("task cancelled")
	ErrWorkerCrashed  = errors.New("worker crashed")
	ErrRetryExhausted = errors.New("retry attempts exhausted")
	ErrDuplicateTask  = errors.New("task id already submitted")
)
