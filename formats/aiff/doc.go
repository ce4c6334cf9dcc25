// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF audio decoding and chunked decoder
// sessions, built on github.com/go-audio/aiff.
//
// # Decoding
//
// Decoder reads a whole PCM 16-bit AIFF file as float32 samples in
// [-1.0, 1.0]:
//
//	decoder := aiff.Decoder{}
//	file, _ := os.Open("audio.aif")
//	source, err := decoder.Decode(file)
//
// # Chunked Sessions
//
// Session implements session.ChunkedDecoder. The underlying decoder
// is forward-only, so seeking is decode-and-skip: backward seeks
// reopen the file and decode from the start. SupportsEfficientSeeking
// reports false accordingly, and callers that can choose prefer
// sequential access patterns for AIFF.
//
// AIFF writing is not supported.
package aiff
