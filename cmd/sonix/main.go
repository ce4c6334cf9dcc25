// SPDX-License-Identifier: EPL-2.0

// Command sonix extracts amplitude waveforms from audio files and
// prints them as text or JSON. It can also export the decoded audio as
// a mono 16-bit WAV file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/ik5/sonix"
	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/formats/aiff"
	"github.com/ik5/sonix/formats/mp3"
	"github.com/ik5/sonix/formats/vorbis"
	"github.com/ik5/sonix/formats/wav"
	"github.com/ik5/sonix/pool"
	"github.com/ik5/sonix/protocol"
	"github.com/ik5/sonix/waveform"
)

type options struct {
	resolution int
	algorithm  string
	normalize  bool
	workers    int
	stream     bool
	jsonOut    bool
	exportPath string
	exportRate int
	quiet      bool
	jobTimeout time.Duration
}

func main() {
	var opts options
	flag.IntVar(&opts.resolution, "resolution", 1000, "number of amplitude points")
	flag.StringVar(&opts.algorithm, "algorithm", "rms", "reduction algorithm: rms, peak or average")
	flag.BoolVar(&opts.normalize, "normalize", true, "scale the loudest point to 1.0")
	flag.IntVar(&opts.workers, "workers", 0, "worker pool size (0 = number of CPUs)")
	flag.BoolVar(&opts.stream, "stream", false, "use the streaming chunked pipeline")
	flag.BoolVar(&opts.jsonOut, "json", false, "print the waveform as JSON")
	flag.StringVar(&opts.exportPath, "export", "", "also write the decoded audio as mono 16-bit WAV to this path (single input only)")
	flag.IntVar(&opts.exportRate, "export-rate", 8000, "sample rate for -export")
	flag.BoolVar(&opts.quiet, "quiet", false, "suppress the progress bar")
	flag.DurationVar(&opts.jobTimeout, "timeout", 10*time.Minute, "per-file processing timeout")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sonix [flags] <input.{wav|mp3|ogg|aiff}>...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if opts.exportPath != "" && len(files) != 1 {
		fmt.Fprintln(os.Stderr, "sonix: -export takes exactly one input file")
		os.Exit(2)
	}

	if err := run(files, opts); err != nil {
		fmt.Fprintln(os.Stderr, "sonix:", err)
		os.Exit(1)
	}
}

func run(files []string, opts options) error {
	alg, err := waveform.ParseAlgorithm(opts.algorithm)
	if err != nil {
		return fmt.Errorf("%w: %q", err, opts.algorithm)
	}

	cfg := protocol.DefaultProcessingConfig()
	cfg.Waveform.Resolution = opts.resolution
	cfg.Waveform.Algorithm = alg
	cfg.Waveform.Normalize = opts.normalize

	gen, err := sonix.NewGenerator(pool.Config{
		Registry:   sonix.DefaultRegistry(),
		PoolSize:   opts.workers,
		Processing: cfg,
	})
	if err != nil {
		return err
	}
	defer gen.Close()

	for _, path := range files {
		if err := processFile(gen, path, cfg, opts); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if opts.exportPath != "" {
		return exportWAV(files[0], opts.exportPath, opts.exportRate)
	}
	return nil
}

func processFile(gen *sonix.Generator, path string, cfg protocol.ProcessingConfig, opts options) error {
	var bar *progressbar.ProgressBar
	if !opts.quiet && !opts.jsonOut {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(filepath.Base(path)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionShowCount(),
		)
	}

	task := &pool.Task{
		FilePath:      path,
		Config:        cfg,
		StreamResults: opts.stream,
	}
	if bar != nil {
		task.OnProgress = func(progress float64, _ []float64) {
			bar.Set(int(progress * 100))
		}
	}

	handle, err := gen.Submit(task)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.jobTimeout)
	defer cancel()

	wf, err := handle.Wait(ctx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	if opts.jsonOut {
		return printJSON(path, wf)
	}
	printText(path, wf)
	return nil
}

func printJSON(path string, wf *waveform.Data) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(struct {
		File       string    `json:"file"`
		Algorithm  string    `json:"algorithm"`
		SampleRate int       `json:"sample_rate"`
		Channels   int       `json:"channels"`
		DurationMS int64     `json:"duration_ms"`
		Amplitudes []float64 `json:"amplitudes"`
	}{
		File:       path,
		Algorithm:  wf.Algorithm.String(),
		SampleRate: wf.SampleRate,
		Channels:   wf.Channels,
		DurationMS: wf.Duration.Milliseconds(),
		Amplitudes: wf.Amplitudes,
	})
}

func printText(path string, wf *waveform.Data) {
	fmt.Printf("%s: %d points, %s, %d Hz, %d channel(s), %s\n",
		path, wf.Resolution(), wf.Duration.Round(10*time.Millisecond),
		wf.SampleRate, wf.Channels, wf.Algorithm)

	var line strings.Builder
	levels := []rune(" ▁▂▃▄▅▆▇█")
	step := len(wf.Amplitudes) / 72
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(wf.Amplitudes); i += step {
		a := wf.Amplitudes[i]
		idx := int(a * float64(len(levels)-1))
		if idx >= len(levels) {
			idx = len(levels) - 1
		}
		line.WriteRune(levels[idx])
	}
	fmt.Println(line.String())
}

// exportWAV decodes the input with the plain whole-file decoders and
// writes it back out as mono 16-bit PCM.
func exportWAV(inPath, outPath string, rate int) error {
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{})
	reg.Register("mp3", mp3.Decoder{})
	reg.Register("ogg", vorbis.Decoder{})
	reg.Register("oga", vorbis.Decoder{})
	reg.Register("aiff", aiff.Decoder{})
	reg.Register("aif", aiff.Decoder{})

	ext := strings.TrimPrefix(filepath.Ext(inPath), ".")
	dec, ok := reg.Get(strings.ToLower(ext))
	if !ok {
		return fmt.Errorf("unsupported format %q", ext)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := dec.Decode(in)
	if err != nil {
		return err
	}
	defer src.Close()

	pcm16, outRate, err := audio.ResampleToMono16(src, rate, 4096)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	return wav.WriteWAV16(out, outRate, pcm16)
}
