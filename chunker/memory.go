// SPDX-License-Identifier: EPL-2.0

package chunker

import (
	"context"
	"time"

	"github.com/ik5/sonix/audio"
)

// MemoryStats is an advisory snapshot of the manager's estimated
// memory accounting. Estimates come from raw chunk sizes times the
// overhead multiplier; nothing here is OS-enforced.
type MemoryStats struct {
	CurrentUsage    int64
	MaxUsage        int64
	ActiveChunks    int
	PendingCleanup  int
	IsUnderPressure bool
}

// PressureState describes the adaptive chunk sizing state.
type PressureState struct {
	OriginalChunkSize int
	CurrentChunkSize  int
	PressureCount     int
	IsUnderPressure   bool
}

// admit accounts a chunk entering the pipeline and returns its
// estimated footprint. Pressure is checked inline so a single
// oversized chunk is observed immediately, not only on the next tick.
func (m *Manager) admit(chunk *audio.FileChunk) int64 {
	footprint := int64(float64(chunk.Size()) * m.cfg.OverheadMultiplier)

	m.mtx.Lock()
	m.currentUsage += footprint
	if m.currentUsage > m.maxUsed {
		m.maxUsed = m.currentUsage
	}
	m.activeChunks++
	m.mtx.Unlock()

	m.checkPressure()
	return footprint
}

// complete moves a chunk from active decoding to pending cleanup.
func (m *Manager) complete(index uint64, footprint int64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.activeChunks--
	m.pending[index] = footprint
}

// retire releases a chunk's footprint after emission. A chunk already
// reclaimed by ForceCleanup is a no-op.
func (m *Manager) retire(index uint64) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	footprint, ok := m.pending[index]
	if !ok {
		return
	}
	m.currentUsage -= footprint
	if m.currentUsage < 0 {
		m.currentUsage = 0
	}
	delete(m.pending, index)
}

// Stats returns the current memory accounting snapshot.
func (m *Manager) Stats() MemoryStats {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return MemoryStats{
		CurrentUsage:    m.currentUsage,
		MaxUsage:        m.cfg.MaxMemoryUsage,
		ActiveChunks:    m.activeChunks,
		PendingCleanup:  len(m.pending),
		IsUnderPressure: m.underPressure,
	}
}

// Pressure returns the adaptive sizing snapshot.
func (m *Manager) Pressure() PressureState {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return PressureState{
		OriginalChunkSize: m.originalChunkSize,
		CurrentChunkSize:  m.currentChunkSize,
		PressureCount:     m.pressureCount,
		IsUnderPressure:   m.underPressure,
	}
}

// RecommendedChunkSize returns the size the reader should use for its
// next chunk, given the size it would use without pressure. The result
// stays within [MinChunkSize, originalSize].
func (m *Manager) RecommendedChunkSize(originalSize int) int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if originalSize <= 0 {
		return m.cfg.MinChunkSize
	}

	if m.originalChunkSize != originalSize {
		// New base size: re-derive the shrunken size from the
		// accumulated pressure count.
		m.originalChunkSize = originalSize
		m.currentChunkSize = m.shrunkenSize(originalSize)
	}
	return m.currentChunkSize
}

func (m *Manager) shrunkenSize(original int) int {
	size := float64(original)
	for i := 0; i < m.pressureCount; i++ {
		size *= shrinkFactor
	}
	if size < float64(m.cfg.MinChunkSize) {
		return m.cfg.MinChunkSize
	}
	return int(size)
}

// HandleMemoryPressure shrinks the recommended chunk size
// multiplicatively, never below the floor, and never grows it.
func (m *Manager) HandleMemoryPressure() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.pressureCount++
	m.underPressure = true

	if m.originalChunkSize > 0 {
		shrunk := int(float64(m.currentChunkSize) * shrinkFactor)
		if shrunk < m.cfg.MinChunkSize {
			shrunk = m.cfg.MinChunkSize
		}
		if shrunk < m.currentChunkSize {
			m.currentChunkSize = shrunk
		}
	}
}

// ResetMemoryPressure restores the original chunk size and zeroes the
// pressure counter once usage has fallen back under the threshold.
func (m *Manager) ResetMemoryPressure() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.pressureCount = 0
	m.underPressure = false
	m.currentChunkSize = m.originalChunkSize
}

// checkPressure compares usage against the configured threshold,
// firing the callback and adaptive shrinking when crossed.
func (m *Manager) checkPressure() {
	m.mtx.Lock()
	current := m.currentUsage
	max := m.cfg.MaxMemoryUsage
	threshold := m.cfg.MemoryPressureThreshold
	wasUnder := m.underPressure
	adaptive := m.cfg.EnableAdaptiveChunkSize
	onPressure := m.cfg.OnMemoryPressure
	m.mtx.Unlock()

	ratio := float64(current) / float64(max)

	if ratio >= threshold {
		if adaptive {
			m.HandleMemoryPressure()
		} else {
			m.mtx.Lock()
			m.pressureCount++
			m.underPressure = true
			m.mtx.Unlock()
		}
		if onPressure != nil {
			onPressure(current, max)
		}
		return
	}

	if wasUnder {
		m.ResetMemoryPressure()
	}
}

// memoryCheckLoop re-evaluates pressure periodically while a Process
// run is active.
func (m *Manager) memoryCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.MemoryCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkPressure()
		}
	}
}
