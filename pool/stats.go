// SPDX-License-Identifier: EPL-2.0

package pool

import "time"

// Statistics is a point-in-time snapshot of pool activity.
type Statistics struct {
	ActiveWorkers int
	IdleWorkers   int
	QueuedTasks   int
	RunningTasks  int

	CompletedTasks int
	FailedTasks    int
	CancelledTasks int
	TotalRetries   int

	AverageProcessingTime time.Duration
}

// WorkerHealth describes one worker at snapshot time.
type WorkerHealth struct {
	WorkerID       int
	Health         Health
	LastHeartbeat  time.Time
	CompletedTasks int
	FailedTasks    int
	Busy           bool
}

// Statistics returns a consistent snapshot of the pool counters.
func (p *Pool) Statistics() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Statistics{
		QueuedTasks:    len(p.queue),
		CompletedTasks: p.completedCount,
		FailedTasks:    p.failedCount,
		CancelledTasks: p.cancelledCount,
		TotalRetries:   p.retryCount,
	}

	for _, w := range p.workers {
		if w.exited {
			continue
		}
		if w.current != nil {
			s.ActiveWorkers++
			s.RunningTasks++
		} else {
			s.IdleWorkers++
		}
	}

	finished := p.completedCount + p.failedCount + p.cancelledCount
	if finished > 0 {
		s.AverageProcessingTime = p.totalProcessing / time.Duration(finished)
	}
	return s
}

// HealthStatistics returns the per-worker health view used by
// monitoring and tests.
func (p *Pool) HealthStatistics() []WorkerHealth {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]WorkerHealth, 0, len(p.workers))
	for _, w := range p.workers {
		out = append(out, WorkerHealth{
			WorkerID:       w.id,
			Health:         w.health,
			LastHeartbeat:  w.lastHeartbeat,
			CompletedTasks: w.completed,
			FailedTasks:    w.failed,
			Busy:           w.current != nil,
		})
	}
	return out
}
