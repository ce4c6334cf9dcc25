// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio decoding and chunked decoder
// sessions, built on github.com/hajimehoshi/go-mp3.
//
// # Decoding
//
// Decoder reads a whole file as float32 samples in [-1.0, 1.0]. go-mp3
// always emits 16-bit stereo PCM, so the output is two channels at the
// file's native rate:
//
//	decoder := mp3.Decoder{}
//	file, _ := os.Open("audio.mp3")
//	source, err := decoder.Decode(file)
//
// # Chunked Sessions
//
// Session implements session.ChunkedDecoder. go-mp3 exposes the
// decoded stream as a seekable PCM view, so seeking is sample-indexed
// and exact. Decode state lives inside go-mp3, which means chunk
// processing is serialized and file chunks act as size markers rather
// than independently decodable byte ranges.
//
// To downmix or resample the output, compose with the audio package:
//
//	resampled := audio.NewResampler(source, 8000)
//	mono := audio.NewMonoMixer(resampled)
//
// MP3 writing is not supported.
package mp3
