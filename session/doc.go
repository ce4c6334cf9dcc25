// SPDX-License-Identifier: EPL-2.0

// Package session defines the decoder session protocol that formats
// implement to take part in chunked processing.
//
// A session owns per-file decode state: it is initialized once for a
// path, driven through seeks and incremental decode calls, and cleaned
// up exactly once on every exit path. The concurrency core (chunker and
// pool packages) only ever talks to the ChunkedDecoder interface, so
// formats are swappable.
//
// # Opening a session
//
//	reg := session.NewRegistry()
//	reg.Register("wav", func() session.ChunkedDecoder { return wav.NewSession() })
//
//	sess, err := reg.Open("speech.wav", 0, 0)
//	if err != nil {
//	    return err
//	}
//	defer sess.Cleanup()
//
// # Seeking
//
// SeekToTime is best effort. The result reports where the decoder
// actually landed and whether the position is exact; formats without
// efficient seeking decode forward instead. A failed seek leaves the
// session usable, so callers substitute silence and continue rather
// than aborting the job.
//
// # Duration
//
// EstimateDuration returns codec-level duration when the container
// carries it. When it does not (ok == false), callers fall back to
// EstimateDurationBySize with an assumed bitrate.
package session
