// SPDX-License-Identifier: EPL-2.0

package mp3_test

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/formats/mp3"
)

// Example demonstrates basic MP3 decoding.
func Example() {
	// Open MP3 file
	f, err := os.Open("testdata/sample.mp3")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	// Decode MP3 to audio source
	decoder := mp3.Decoder{}
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	// Display audio properties
	fmt.Printf("Sample Rate: %d Hz\n", src.SampleRate())
	fmt.Printf("Channels: %d\n", src.Channels())

	// Read some samples
	buf := make([]float32, 4096)
	n, _ := src.ReadSamples(buf)
	fmt.Printf("Read %d samples\n", n)
}

// ExampleDecoder_Decode shows how to decode an MP3 file.
func ExampleDecoder_Decode() {
	// Create MP3 decoder
	decoder := mp3.Decoder{}

	// Open MP3 file
	f, err := os.Open("input.mp3")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	// Decode MP3 to audio source
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Decoded MP3: %d Hz, %d channels\n",
		src.SampleRate(), src.Channels())
}

// ExampleDecoder_Decode_errorHandling shows error handling for invalid MP3 files.
func ExampleDecoder_Decode_errorHandling() {
	decoder := mp3.Decoder{}

	// Try to decode invalid MP3 data
	invalidData := bytes.NewReader([]byte("not an mp3 file"))
	_, err := decoder.Decode(invalidData)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("MP3 decoded successfully")
}

// ExampleNewSession demonstrates chunked decoding for incremental
// processing of a large MP3 file.
func ExampleNewSession() {
	s := mp3.NewSession()
	if err := s.InitializeChunked("input.mp3", 0, 0); err != nil {
		log.Fatal(err)
	}
	defer s.Cleanup()

	if d, ok := s.EstimateDuration(); ok {
		fmt.Printf("Duration: %v\n", d)
	}

	// Each chunk decodes the next window of the stream.
	chunk := &audio.FileChunk{StartPosition: 0, EndPosition: 64 * 1024}
	decoded, err := s.ProcessFileChunk(chunk)
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range decoded {
		fmt.Printf("Decoded %d samples at %d Hz\n", len(c.Samples), c.SampleRate)
	}
}
