// SPDX-License-Identifier: EPL-2.0

package vorbis_test

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/formats/vorbis"
)

// Example demonstrates basic Ogg Vorbis decoding.
func Example() {
	// Open Ogg Vorbis file
	f, err := os.Open("testdata/sample.ogg")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	// Decode Ogg Vorbis to audio source
	decoder := vorbis.Decoder{}
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

// ExampleDecoder_Decode shows how to decode an Ogg Vorbis file.
func ExampleDecoder_Decode() {
	// Create Vorbis decoder
	decoder := vorbis.Decoder{}

	// Open Ogg Vorbis file
	f, err := os.Open("input.ogg")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	// Decode Ogg Vorbis to audio source
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Decoded Vorbis: %d Hz, %d channels\n",
		src.SampleRate(), src.Channels())
}

// ExampleDecoder_Decode_errorHandling shows error handling for invalid files.
func ExampleDecoder_Decode_errorHandling() {
	decoder := vorbis.Decoder{}

	// Try to decode invalid Vorbis data
	invalidData := bytes.NewReader([]byte("not an ogg file"))
	_, err := decoder.Decode(invalidData)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Println("Vorbis decoded successfully")
}

// ExampleNewSession demonstrates chunked decoding with sample-exact
// seeking.
func ExampleNewSession() {
	s := vorbis.NewSession()
	if err := s.InitializeChunked("input.ogg", 0, 0); err != nil {
		log.Fatal(err)
	}
	defer s.Cleanup()

	// Vorbis seeks are sample-exact.
	res, err := s.SeekToTime(30 * time.Second)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Landed at %v (exact: %v)\n", res.ActualPosition, res.IsExact)

	chunk := &audio.FileChunk{StartPosition: 0, EndPosition: 64 * 1024}
	decoded, err := s.ProcessFileChunk(chunk)
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range decoded {
		fmt.Printf("Decoded %d samples at %d Hz\n", len(c.Samples), c.SampleRate)
	}
}
