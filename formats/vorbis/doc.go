// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio decoding and chunked
// decoder sessions, built on github.com/jfreymuth/oggvorbis.
//
// # Decoding
//
// Decoder reads a whole file as float32 samples in [-1.0, 1.0].
// Vorbis decodes natively to float, so no integer conversion is
// involved:
//
//	decoder := vorbis.Decoder{}
//	file, _ := os.Open("audio.ogg")
//	source, err := decoder.Decode(file)
//
// # Chunked Sessions
//
// Session implements session.ChunkedDecoder. oggvorbis supports
// sample-exact positioning through SetPosition, so seeking is
// efficient. Packet decode state is internal to the reader, which
// serializes chunk processing; file chunks act as size markers.
//
// Vorbis writing is not supported.
package vorbis
