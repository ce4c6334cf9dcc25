// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio decoding, encoding, and chunked
// decoder sessions.
//
// The package supports PCM 16-bit WAV files, mono or stereo, at any
// sample rate. Header parsing is handled by github.com/go-audio/wav,
// which tolerates non-canonical chunk layouts.
//
// # Decoding
//
// Decoder reads a whole file as a stream of float32 samples in
// [-1.0, 1.0]:
//
//	decoder := wav.Decoder{}
//	file, _ := os.Open("audio.wav")
//	source, err := decoder.Decode(file)
//
//	buf := make([]float32, 4096)
//	n, err := source.ReadSamples(buf)
//
// # Chunked Sessions
//
// Session implements session.ChunkedDecoder for incremental
// processing of large files. Raw PCM is independently decodable at any
// frame-aligned offset, so the session offers exact seeking and
// stateless chunk decoding:
//
//	s := wav.NewSession()
//	if err := s.InitializeChunked("audio.wav", 0, 0); err != nil {
//	    // Handle error
//	}
//	defer s.Cleanup()
//
//	chunks, err := s.ProcessFileChunk(fileChunk)
//
// # Writing WAV Files
//
// WriteWAV16 creates mono 16-bit PCM files:
//
//	samples := []int16{100, -100, 200, -200}
//	file, _ := os.Create("output.wav")
//	err := wav.WriteWAV16(file, 8000, samples)
package wav
