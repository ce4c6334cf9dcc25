// SPDX-License-Identifier: EPL-2.0

// Package chunker streams file chunks through a decoder session inside
// a bounded-memory, bounded-concurrency pipeline.
//
// # Pipeline
//
// A Manager pulls FileChunks from an input channel, decodes up to
// MaxConcurrentChunks of them at once through a session.ChunkedDecoder,
// and emits ProcessedChunks in input order. Decode completions that
// arrive out of order wait in a reorder buffer until their
// predecessors have emitted. Sessions with internal decode state
// (SupportsConcurrentChunks false) get their decode calls sequenced in
// input order as well, so a chunk's result is always the decode of
// that chunk.
//
//	mgr := chunker.NewManager(chunker.DefaultConfig())
//	out, err := mgr.Process(ctx, reader.Chunks(ctx), sess)
//	for pc := range out {
//	    if pc.HasError() {
//	        continue // isolated: the stream keeps going
//	    }
//	    // consume pc.AudioChunks
//	}
//
// # Memory accounting
//
// Each admitted chunk contributes an estimated footprint (raw bytes
// times an overhead multiplier) to the usage counter; emission retires
// it. A periodic check compares usage against the configured budget
// and, past the pressure threshold, shrinks the recommended chunk size
// multiplicatively down to a hard floor. The Reader consults
// RecommendedChunkSize before producing each chunk, so backpressure
// reaches the producer within one chunk.
//
// The accounting is advisory: it estimates, it does not enforce.
package chunker
