// SPDX-License-Identifier: EPL-2.0

// Package protocol defines the typed envelopes exchanged between the
// worker pool and its workers.
//
// The envelopes form an explicit tagged union (the Message interface)
// rather than ad hoc maps: Request, Response, Progress, ErrorMessage,
// Cancellation, Heartbeat and Shutdown. Every envelope carries a
// process-unique id and a timestamp; responses, progress updates and
// cancellations also carry the request id they answer.
//
// A request receives exactly one terminal Response, optionally
// preceded by Progress updates. ErrorMessage is reserved for fatal
// worker-level failures such as initialization.
package protocol
