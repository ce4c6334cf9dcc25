// SPDX-License-Identifier: EPL-2.0

// Package sonix reduces audio files to amplitude waveforms suitable
// for visual display.
//
// # Supported Formats
//
// The default registry decodes the following audio formats:
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//   - AIFF (PCM 16-bit) via formats/aiff
//
// # Quick Start
//
// The simplest entry point is the one-shot Generate:
//
//	wf, err := sonix.Generate(ctx, "track.mp3", protocol.DefaultProcessingConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// wf.Amplitudes holds 1000 normalized points by default
//
// Applications processing many files keep a Generator, which owns a
// worker pool:
//
//	gen, _ := sonix.NewGenerator(pool.DefaultConfig(sonix.DefaultRegistry()))
//	defer gen.Close()
//
//	handle, _ := gen.Submit(&pool.Task{FilePath: "track.wav"})
//	wf, err := handle.Wait(ctx)
//
// # Decoding Strategies
//
// Workers pick a strategy per file: small files decode fully in
// memory, large files are sampled selectively at evenly spaced seek
// points, and StreamResults jobs flow through the adaptive chunked
// pipeline in the chunker package, which bounds memory and shrinks
// chunk sizes under pressure.
//
// # Audio Processing Pipeline
//
// The audio subpackage holds the sample-level building blocks: the
// Source interface, a cubic-interpolation resampler, and a mono
// downmixer. They compose freely:
//
//	src := audio.Pipeline(audio.NewDataSource(data), 16000)
//	mono, err := audio.ReadAll(src, 4096)
//
// See the individual subpackages for detailed documentation.
package sonix
