// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"context"
	"sync"
	"time"

	"github.com/ik5/sonix/protocol"
	"github.com/ik5/sonix/waveform"
)

// TaskState is the lifecycle stage of a processing task. Cancelled,
// Completed and Failed are terminal.
type TaskState int

const (
	TaskQueued TaskState = iota
	TaskRunning
	TaskCancelled
	TaskCompleted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	case TaskCancelled:
		return "cancelled"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	}
	return "unknown"
}

// Task describes one decode job. The pool owns the task from Submit
// until it reaches a terminal state.
type Task struct {
	ID            string
	FilePath      string
	Config        protocol.ProcessingConfig
	StreamResults bool

	// OnProgress, when set, receives relayed progress updates. Called
	// from a pool goroutine; keep it fast.
	OnProgress func(progress float64, partial []float64)

	state       TaskState
	retryCount  int
	lastErr     error
	workerID    int
	submittedAt time.Time
	startedAt   time.Time
	handle      *TaskHandle
}

// State returns the task's current lifecycle stage.
func (t *Task) State() TaskState { return t.state }

// RetryCount returns how many times the task was requeued after a
// worker crash.
func (t *Task) RetryCount() int { return t.retryCount }

// TaskHandle is the caller's view of an asynchronous task.
type TaskHandle struct {
	taskID string

	once   sync.Once
	done   chan struct{}
	result *waveform.Data
	err    error
}

func newTaskHandle(taskID string) *TaskHandle {
	return &TaskHandle{
		taskID: taskID,
		done:   make(chan struct{}),
	}
}

// TaskID returns the id of the underlying task.
func (h *TaskHandle) TaskID() string { return h.taskID }

// Done closes once the task reaches a terminal state.
func (h *TaskHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task is terminal or ctx expires.
func (h *TaskHandle) Wait(ctx context.Context) (*waveform.Data, error) {
	select {
	case <-h.done:
		return h.result, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// complete resolves the handle exactly once; later calls are no-ops.
func (h *TaskHandle) complete(result *waveform.Data, err error) {
	h.once.Do(func() {
		h.result = result
		h.err = err
		close(h.done)
	})
}
