// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/ik5/sonix/protocol"
	"github.com/ik5/sonix/waveform"
)

// Health classifies a worker's observed liveness.
type Health int

const (
	Healthy Health = iota
	Unresponsive
	Crashed
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Unresponsive:
		return "unresponsive"
	case Crashed:
		return "crashed"
	}
	return "unknown"
}

// workerHandle is the pool's bookkeeping for one worker. The worker
// itself runs isolated: the only shared state is the message channels.
type workerHandle struct {
	id   int
	in   chan protocol.Message
	out  chan protocol.Message
	done chan struct{} // closed when the pump observes worker exit

	health        Health
	lastHeartbeat time.Time
	completed     int
	failed        int
	current       *Task
	exited        bool
}

// Pool owns a set of isolated workers, admits and schedules decode
// jobs, and recovers from worker failure with bounded retries.
type Pool struct {
	cfg Config

	mu           sync.Mutex
	workers      map[int]*workerHandle
	nextWorkerID int
	queue        []*Task
	tasks        map[string]*Task
	disposed     bool

	completedCount  int
	failedCount     int
	cancelledCount  int
	retryCount      int
	totalProcessing time.Duration

	stopHealth chan struct{}
	healthDone chan struct{}
}

// New builds a pool and spawns its first worker eagerly. It fails when
// that worker cannot start.
func New(cfg Config) (*Pool, error) {
	cfg = cfg.withDefaults()
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}

	p := &Pool{
		cfg:        cfg,
		workers:    make(map[int]*workerHandle),
		tasks:      make(map[string]*Task),
		stopHealth: make(chan struct{}),
		healthDone: make(chan struct{}),
	}

	p.mu.Lock()
	w, ready := p.spawnWorkerLocked()
	p.mu.Unlock()

	select {
	case err := <-ready:
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
		}
	case <-time.After(cfg.SpawnTimeout):
		p.mu.Lock()
		p.abandonWorkerLocked(w)
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: startup timeout", ErrSpawnFailed)
	}

	go p.healthLoop()
	return p, nil
}

// spawnWorkerLocked starts a worker goroutine plus its message pump.
// The returned channel reports startup success or failure once.
// Caller holds p.mu.
func (p *Pool) spawnWorkerLocked() (*workerHandle, <-chan error) {
	id := p.nextWorkerID
	p.nextWorkerID++

	w := &workerHandle{
		id:            id,
		in:            make(chan protocol.Message, 16),
		out:           make(chan protocol.Message, 16),
		done:          make(chan struct{}),
		health:        Healthy,
		lastHeartbeat: time.Now(),
	}
	p.workers[id] = w

	go runWorker(workerConfig{
		id:                id,
		registry:          p.cfg.Registry,
		heartbeatInterval: p.cfg.HeartbeatInterval,
	}, w.in, w.out)

	ready := make(chan error, 1)
	go p.pump(w, ready)
	return w, ready
}

// pump relays one worker's outbound messages into the pool and
// detects abrupt termination when the channel closes.
func (p *Pool) pump(w *workerHandle, ready chan<- error) {
	first := true
	for msg := range w.out {
		if first {
			first = false
			if em, ok := msg.(protocol.ErrorMessage); ok && em.ErrorType == protocol.ErrorInitialization {
				ready <- fmt.Errorf("worker %d: %s", w.id, em.ErrorMessage)
				p.handleMessage(w, msg)
				continue
			}
			ready <- nil
		}
		p.handleMessage(w, msg)
	}

	if first {
		ready <- fmt.Errorf("worker %d exited before startup", w.id)
	}
	p.handleWorkerExit(w)
	close(w.done)
}

// Submit enqueues a task and returns its handle. The task config is
// validated up front; configuration errors reject the task before any
// worker sees it.
func (p *Pool) Submit(task *Task) (*TaskHandle, error) {
	if task.ID == "" {
		task.ID = protocol.NewEnvelope().ID
	}
	if task.Config.Waveform.Resolution == 0 && task.Config.MaxMemoryUsage == 0 {
		task.Config = p.cfg.Processing
	}

	cfg, err := task.Config.Normalized()
	if err != nil {
		return nil, err
	}
	task.Config = cfg

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return nil, ErrDisposed
	}
	if _, exists := p.tasks[task.ID]; exists {
		return nil, ErrDuplicateTask
	}

	task.state = TaskQueued
	task.workerID = -1
	task.submittedAt = time.Now()
	task.handle = newTaskHandle(task.ID)

	p.tasks[task.ID] = task
	p.queue = append(p.queue, task)
	p.dispatchLocked()

	return task.handle, nil
}

// Cancel stops a task: queued tasks are removed immediately, running
// tasks receive an advisory cancellation envelope.
func (p *Pool) Cancel(taskID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}

	switch task.state {
	case TaskQueued:
		for i, queued := range p.queue {
			if queued == task {
				p.queue = append(p.queue[:i], p.queue[i+1:]...)
				break
			}
		}
		p.finishTaskLocked(task, TaskCancelled, nil, ErrTaskCancelled)

	case TaskRunning:
		w, ok := p.workers[task.workerID]
		if !ok || w.exited {
			return nil
		}
		cancel := protocol.Cancellation{
			Envelope:  protocol.NewEnvelope(),
			RequestID: protocol.RetryRequestID(task.ID, task.retryCount),
		}
		select {
		case w.in <- cancel:
		default:
		}
	}

	return nil
}

// dispatchLocked assigns queued tasks to idle workers, spawning lazily
// up to PoolSize, while the running count stays under the concurrency
// cap. Caller holds p.mu.
func (p *Pool) dispatchLocked() {
	for len(p.queue) > 0 {
		if p.runningLocked() >= p.cfg.MaxConcurrentOperations {
			return
		}

		w := p.idleWorkerLocked()
		if w == nil {
			if len(p.workers) < p.cfg.PoolSize {
				// Lazy spawn: the handle is idle immediately and its
				// inbox is buffered, so the next loop pass assigns to
				// it even before the worker finishes starting.
				p.spawnWorkerLocked()
				continue
			}
			return
		}

		task := p.queue[0]
		p.queue = p.queue[1:]

		task.state = TaskRunning
		task.workerID = w.id
		task.startedAt = time.Now()
		w.current = task

		req := protocol.Request{
			Envelope:      protocol.NewEnvelope(),
			RequestID:     protocol.RetryRequestID(task.ID, task.retryCount),
			FilePath:      task.FilePath,
			Config:        task.Config,
			StreamResults: task.StreamResults,
		}
		select {
		case w.in <- req:
		default:
			// Inbox full: the worker is wedged. Put the task back and
			// let health monitoring reclaim the worker.
			w.current = nil
			task.state = TaskQueued
			task.workerID = -1
			p.queue = append([]*Task{task}, p.queue...)
			return
		}
	}
}

func (p *Pool) runningLocked() int {
	n := 0
	for _, w := range p.workers {
		if w.current != nil {
			n++
		}
	}
	return n
}

func (p *Pool) idleWorkerLocked() *workerHandle {
	for _, w := range p.workers {
		if !w.exited && w.health != Crashed && w.current == nil {
			return w
		}
	}
	return nil
}

// handleMessage processes one envelope from a worker.
func (p *Pool) handleMessage(w *workerHandle, msg protocol.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch m := msg.(type) {
	case protocol.Heartbeat:
		w.lastHeartbeat = time.Now()
		if w.health == Unresponsive {
			w.health = Healthy
		}
		p.dispatchLocked()

	case protocol.Progress:
		task, ok := p.tasks[protocol.BaseRequestID(m.RequestID)]
		if ok && task.OnProgress != nil {
			onProgress := task.OnProgress
			p.mu.Unlock()
			onProgress(m.Progress, m.PartialData)
			p.mu.Lock()
		}

	case protocol.Response:
		task := w.current
		if task == nil || task.ID != protocol.BaseRequestID(m.RequestID) {
			return
		}
		w.current = nil
		p.totalProcessing += time.Since(task.startedAt)

		switch {
		case m.Cancelled:
			w.completed++
			p.finishTaskLocked(task, TaskCancelled, nil, ErrTaskCancelled)
		case m.Error != "":
			w.failed++
			err := fmt.Errorf("%s: %s", m.ErrorType, m.Error)
			p.finishTaskLocked(task, TaskFailed, nil, err)
		default:
			w.completed++
			p.finishTaskLocked(task, TaskCompleted, m.Waveform, nil)
		}
		p.dispatchLocked()

	case protocol.ErrorMessage:
		// Fatal worker-level failure: the worker exits on its own;
		// requeue its task if one was in flight.
		w.health = Crashed
		if task := w.current; task != nil {
			w.current = nil
			p.requeueLocked(task, fmt.Errorf("worker %d: %s", w.id, m.ErrorMessage))
		}
	}
}

// handleWorkerExit converts an abrupt channel termination into a
// crash: the in-flight task is requeued and a replacement worker
// spawns when work remains.
func (p *Pool) handleWorkerExit(w *workerHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	alreadyGone := w.exited
	w.exited = true
	w.health = Crashed
	delete(p.workers, w.id)

	if task := w.current; task != nil && !alreadyGone {
		w.current = nil
		p.requeueLocked(task, fmt.Errorf("%w: worker %d", ErrWorkerCrashed, w.id))
	}

	if !p.disposed && len(p.queue) > 0 && len(p.workers) < p.cfg.PoolSize {
		p.spawnWorkerLocked()
		p.dispatchLocked()
	}
}

// requeueLocked applies the bounded retry policy after a crash.
// Caller holds p.mu.
func (p *Pool) requeueLocked(task *Task, cause error) {
	task.retryCount++
	task.lastErr = cause
	p.retryCount++

	if task.retryCount > p.cfg.MaxRetryAttempts {
		err := fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, task.retryCount, cause)
		p.finishTaskLocked(task, TaskFailed, nil, err)
		return
	}

	task.state = TaskQueued
	task.workerID = -1
	p.queue = append(p.queue, task)
	p.dispatchLocked()
}

// finishTaskLocked moves a task to a terminal state and resolves its
// handle. Caller holds p.mu.
func (p *Pool) finishTaskLocked(task *Task, state TaskState, result *waveform.Data, err error) {
	task.state = state
	delete(p.tasks, task.ID)

	switch state {
	case TaskCompleted:
		p.completedCount++
	case TaskFailed:
		p.failedCount++
	case TaskCancelled:
		p.cancelledCount++
	}

	task.handle.complete(result, err)
}

// healthLoop periodically reclassifies silent workers and reclaims
// their tasks.
func (p *Pool) healthLoop() {
	defer close(p.healthDone)

	ticker := time.NewTicker(p.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopHealth:
			return
		case <-ticker.C:
			p.checkWorkerHealth()
		}
	}
}

func (p *Pool) checkWorkerHealth() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, w := range p.workers {
		if w.exited {
			continue
		}
		if time.Since(w.lastHeartbeat) > p.cfg.HeartbeatTimeout {
			w.health = Unresponsive
			p.abandonWorkerLocked(w)
		}
	}
	p.dispatchLocked()
}

// abandonWorkerLocked removes an unresponsive worker from scheduling.
// Its task is requeued; the worker goroutine is signalled to exit and
// otherwise left to finish its blocked call. Caller holds p.mu.
func (p *Pool) abandonWorkerLocked(w *workerHandle) {
	if w.exited {
		return
	}
	w.exited = true
	delete(p.workers, w.id)
	close(w.in)

	if task := w.current; task != nil {
		w.current = nil
		p.requeueLocked(task, fmt.Errorf("%w: worker %d unresponsive", ErrWorkerCrashed, w.id))
	}
}

// Dispose shuts the pool down: workers get a shutdown signal, the
// graceful wait is bounded, and every pending task fails with
// ErrDisposed. Idempotent.
func (p *Pool) Dispose() error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return nil
	}
	p.disposed = true

	workers := make([]*workerHandle, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
		if !w.exited {
			w.exited = true
			select {
			case w.in <- protocol.Shutdown{Envelope: protocol.NewEnvelope()}:
			default:
			}
			close(w.in)
		}
	}
	p.mu.Unlock()

	close(p.stopHealth)
	<-p.healthDone

	deadline := time.After(p.cfg.DisposeTimeout)
	for _, w := range workers {
		select {
		case <-w.done:
		case <-deadline:
		}
	}

	// Fail everything that never reached a terminal state.
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = nil
	for _, task := range p.tasks {
		p.finishTaskLocked(task, TaskFailed, nil, ErrDisposed)
	}
	return nil
}
