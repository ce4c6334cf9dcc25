// SPDX-License-Identifier: EPL-2.0

package pool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ik5/sonix/audio"
	"github.com/ik5/sonix/chunker"
	"github.com/ik5/sonix/protocol"
	"github.com/ik5/sonix/session"
	"github.com/ik5/sonix/waveform"
)

// genericFallbackBitrate covers duration estimation when the codec
// reports none and the worker has no format knowledge of its own.
const genericFallbackBitrate = 128_000

type workerConfig struct {
	id                int
	registry          *session.Registry
	heartbeatInterval time.Duration
}

// worker is the pool-facing decode executor. It shares no memory with
// the pool: everything crosses the in/out channels.
type worker struct {
	cfg workerConfig
	in  <-chan protocol.Message
	out chan<- protocol.Message

	// shutdown latches once a Shutdown envelope or a closed inbox is
	// observed; the current job finishes (or cancels) and the worker
	// exits.
	shutdown bool
}

// runWorker is the worker goroutine body. Closing out is the exit
// signal; closing it without a terminal Response for the current
// request is what the pool reads as a crash, which is exactly what a
// panic here produces.
func runWorker(cfg workerConfig, in <-chan protocol.Message, out chan<- protocol.Message) {
	w := &worker{cfg: cfg, in: in, out: out}

	stopBeat := make(chan struct{})
	var beatWG sync.WaitGroup

	defer func() {
		recover()
		close(stopBeat)
		beatWG.Wait()
		close(out)
	}()

	if cfg.registry == nil || len(cfg.registry.Formats()) == 0 {
		out <- protocol.ErrorMessage{
			Envelope:     protocol.NewEnvelope(),
			ErrorMessage: "no decoder formats registered",
			ErrorType:    protocol.ErrorInitialization,
		}
		return
	}

	beatWG.Add(1)
	go func() {
		defer beatWG.Done()
		w.heartbeatLoop(stopBeat)
	}()

	for msg := range in {
		switch m := msg.(type) {
		case protocol.Request:
			w.execute(m)
			if w.shutdown {
				return
			}
		case protocol.Shutdown:
			return
		case protocol.Cancellation:
			// No job in flight: the request already finished. Stale
			// cancellations are ignored.
		}
	}
}

// heartbeatLoop emits liveness signals. The first one is sent
// immediately and doubles as the startup-ready signal.
func (w *worker) heartbeatLoop(stop <-chan struct{}) {
	beat := protocol.Heartbeat{Envelope: protocol.NewEnvelope(), WorkerID: w.cfg.id}
	select {
	case w.out <- beat:
	case <-stop:
		return
	}

	ticker := time.NewTicker(w.cfg.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case w.out <- protocol.Heartbeat{Envelope: protocol.NewEnvelope(), WorkerID: w.cfg.id}:
			case <-stop:
				return
			}
		}
	}
}

// drainControl consumes any control envelopes waiting in the inbox
// without blocking. It reports whether the named request should stop.
// A closed inbox means the pool abandoned this worker; that cancels
// the job and latches shutdown.
func (w *worker) drainControl(requestID string) (cancelled bool) {
	base := protocol.BaseRequestID(requestID)
	for {
		select {
		case msg, ok := <-w.in:
			if !ok {
				w.shutdown = true
				return true
			}
			switch m := msg.(type) {
			case protocol.Cancellation:
				if protocol.BaseRequestID(m.RequestID) == base {
					cancelled = true
				}
			case protocol.Shutdown:
				w.shutdown = true
			}
		default:
			return cancelled
		}
	}
}

// jobResult is what one strategy hands back to execute.
type jobResult struct {
	waveform  *waveform.Data
	cancelled bool
	err       error
}

// execute runs one request end to end and sends exactly one terminal
// Response for it.
func (w *worker) execute(req protocol.Request) {
	res := w.runJob(req)

	resp := protocol.Response{
		Envelope:   protocol.NewEnvelope(),
		RequestID:  req.RequestID,
		IsComplete: true,
	}
	switch {
	case res.cancelled:
		resp.Cancelled = true
	case res.err != nil:
		resp.Error = res.err.Error()
		resp.ErrorType = protocol.ClassifyError(res.err)
	default:
		resp.Waveform = res.waveform
	}
	w.out <- resp
}

func (w *worker) runJob(req protocol.Request) jobResult {
	if w.drainControl(req.RequestID) {
		return jobResult{cancelled: true}
	}

	info, err := os.Stat(req.FilePath)
	if err != nil {
		return jobResult{err: fmt.Errorf("%w", err)}
	}
	fileSize := info.Size()

	sess, err := w.cfg.registry.Open(req.FilePath, req.Config.FileChunkSize, 0)
	if err != nil {
		return jobResult{err: err}
	}
	defer sess.Cleanup()

	switch {
	case req.StreamResults:
		return w.runStreamed(req, sess, fileSize)
	case fileSize <= req.Config.InMemoryThreshold:
		return w.runFullDecode(req, sess)
	default:
		return w.runSelective(req, sess, fileSize)
	}
}

// runFullDecode handles files under the in-memory threshold: decode
// everything, push it through the standard pipeline, reduce once.
func (w *worker) runFullDecode(req protocol.Request, sess session.ChunkedDecoder) jobResult {
	cfg := req.Config.Waveform

	data, err := sess.Decode(context.Background(), req.FilePath)
	if err != nil {
		return jobResult{err: err}
	}
	if w.drainControl(req.RequestID) {
		return jobResult{cancelled: true}
	}
	w.sendProgress(req, 0.5, "decoded", nil)

	src := audio.Pipeline(audio.NewDataSource(data), cfg.DownsampleRate)
	mono, err := audio.ReadAll(src, 0)
	if err != nil {
		return jobResult{err: err}
	}
	if w.drainControl(req.RequestID) {
		return jobResult{cancelled: true}
	}

	amplitudes := waveform.Reduce(mono.Samples, cfg.Resolution, cfg.Algorithm)
	if cfg.Normalize {
		waveform.Normalize(amplitudes)
	}

	return jobResult{waveform: &waveform.Data{
		Amplitudes: amplitudes,
		SampleRate: data.SampleRate,
		Channels:   data.Channels,
		Duration:   data.Duration,
		Algorithm:  cfg.Algorithm,
	}}
}

// runSelective handles large files without streaming: seek to evenly
// spaced positions and decode one short window per amplitude point.
// Failed seeks or windows contribute a neutral amplitude instead of
// failing the job.
func (w *worker) runSelective(req protocol.Request, sess session.ChunkedDecoder, fileSize int64) jobResult {
	cfg := req.Config.Waveform

	duration, ok := sess.EstimateDuration()
	if !ok || duration <= 0 {
		duration = session.EstimateDurationBySize(fileSize, genericFallbackBitrate)
	}
	if duration <= 0 {
		return jobResult{err: errors.New("cannot estimate duration for selective decoding")}
	}

	window := cfg.WindowDuration
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	windowBytes := int64(float64(fileSize) * window.Seconds() / duration.Seconds())
	if windowBytes < 1024 {
		windowBytes = 1024
	}

	amplitudes := make([]float64, cfg.Resolution)
	sampleRate, channels := 0, 0
	lastProgress := time.Now()

	for i := 0; i < cfg.Resolution; i++ {
		if w.drainControl(req.RequestID) {
			return jobResult{cancelled: true}
		}

		var target time.Duration
		if cfg.Resolution > 1 {
			target = duration * time.Duration(i) / time.Duration(cfg.Resolution-1)
		}

		if _, err := sess.SeekToTime(target); err != nil {
			continue
		}

		offset := int64(float64(fileSize) * target.Seconds() / duration.Seconds())
		end := offset + windowBytes
		if end > fileSize {
			end = fileSize
		}
		marker := &audio.FileChunk{
			StartPosition: offset,
			EndPosition:   end,
			IsLast:        i == cfg.Resolution-1,
		}

		chunks, err := sess.ProcessFileChunk(marker)
		if err != nil {
			continue
		}

		var samples []float32
		for _, c := range chunks {
			samples = append(samples, c.Samples...)
			if sampleRate == 0 {
				sampleRate = c.SampleRate
				channels = c.Channels
			}
		}
		amplitudes[i] = waveform.ReducePoint(samples, cfg.Algorithm)

		if req.Config.EnableProgressReporting && time.Since(lastProgress) >= req.Config.ProgressUpdateInterval {
			lastProgress = time.Now()
			w.sendProgress(req, float64(i+1)/float64(cfg.Resolution), "sampling", nil)
		}
	}

	if cfg.Normalize {
		waveform.Normalize(amplitudes)
	}

	return jobResult{waveform: &waveform.Data{
		Amplitudes: amplitudes,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   duration,
		Algorithm:  cfg.Algorithm,
	}}
}

// runStreamed handles StreamResults jobs: the whole file flows through
// the chunk manager, each decoded chunk reduces to one provisional
// amplitude, and the series is fitted to the requested resolution at
// the end. Per-chunk failures contribute a neutral amplitude.
func (w *worker) runStreamed(req protocol.Request, sess session.ChunkedDecoder, fileSize int64) jobResult {
	cfg := req.Config.Waveform

	f, err := os.Open(req.FilePath)
	if err != nil {
		return jobResult{err: fmt.Errorf("%w", err)}
	}
	defer f.Close()

	mgr := chunker.NewManager(chunker.Config{
		MaxMemoryUsage:          req.Config.MaxMemoryUsage,
		MaxConcurrentChunks:     req.Config.MaxConcurrentChunks,
		MemoryPressureThreshold: req.Config.MemoryPressureThreshold,
		MinChunkSize:            req.Config.MinChunkSize,
		EnableAdaptiveChunkSize: req.Config.EnableAdaptiveChunkSize,
	})
	defer mgr.Dispose()

	baseChunkSize := req.Config.FileChunkSize
	if baseChunkSize <= 0 {
		baseChunkSize = sess.OptimalChunkSize(fileSize).Recommended
	}

	reader, err := chunker.NewReader(f, mgr, baseChunkSize)
	if err != nil {
		return jobResult{err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processed, err := mgr.Process(ctx, reader.Chunks(ctx), sess)
	if err != nil {
		return jobResult{err: err}
	}

	var series []float64
	var bytesDone int64
	var totalSamples int64
	sampleRate, channels := 0, 0
	lastProgress := time.Now()

	for pc := range processed {
		if w.drainControl(req.RequestID) {
			cancel()
			for range processed {
				// Drain so the manager's goroutines finish.
			}
			return jobResult{cancelled: true}
		}

		bytesDone += pc.FileChunk.Size()

		if pc.HasError() {
			series = append(series, 0)
		} else {
			var samples []float32
			for _, c := range pc.AudioChunks {
				samples = append(samples, c.Samples...)
				if sampleRate == 0 {
					sampleRate = c.SampleRate
					channels = c.Channels
				}
			}
			totalSamples += int64(len(samples))
			series = append(series, waveform.ReducePoint(samples, cfg.Algorithm))
		}

		if req.Config.EnableProgressReporting && time.Since(lastProgress) >= req.Config.ProgressUpdateInterval {
			lastProgress = time.Now()
			fraction := 0.0
			if fileSize > 0 {
				fraction = float64(bytesDone) / float64(fileSize)
			}
			partial := make([]float64, len(series))
			copy(partial, series)
			w.sendProgress(req, fraction, "streaming", partial)
		}
	}

	amplitudes := waveform.FitResolution(series, cfg.Resolution)
	if cfg.Normalize {
		waveform.Normalize(amplitudes)
	}

	var duration time.Duration
	if sampleRate > 0 && channels > 0 {
		frames := totalSamples / int64(channels)
		duration = time.Duration(frames) * time.Second / time.Duration(sampleRate)
	}

	return jobResult{waveform: &waveform.Data{
		Amplitudes: amplitudes,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   duration,
		Algorithm:  cfg.Algorithm,
	}}
}

func (w *worker) sendProgress(req protocol.Request, fraction float64, status string, partial []float64) {
	if !req.Config.EnableProgressReporting {
		return
	}
	if fraction > 1 {
		fraction = 1
	}
	w.out <- protocol.Progress{
		Envelope:      protocol.NewEnvelope(),
		RequestID:     req.RequestID,
		Progress:      fraction,
		StatusMessage: status,
		PartialData:   partial,
	}
}
