// SPDX-License-Identifier: EPL-2.0

// Package pool runs waveform extraction jobs on a set of isolated
// workers.
//
// Each worker is a goroutine that communicates with the pool only
// through message channels; a panic inside a worker is converted into
// a crash signal rather than shared-state corruption. Crashed workers
// are replaced and their in-flight task is retried a bounded number of
// times. Workers report liveness through periodic heartbeats, and a
// health monitor reclaims workers that fall silent.
//
// Submit returns a TaskHandle immediately; results are delivered
// asynchronously through it. Cancellation is cooperative: a running
// job stops at its next checkpoint and still produces a terminal
// response.
package pool
