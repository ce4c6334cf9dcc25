// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"testing"
	"time"
)

func TestPipeline_MonoDownmixOnly(t *testing.T) {
	t.Parallel()

	src := newConstantSource(8000, 2, 100, 0.5)
	out := Pipeline(src, 0)

	if out.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", out.Channels())
	}
	if out.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want unchanged 8000", out.SampleRate())
	}
}

func TestPipeline_WithResample(t *testing.T) {
	t.Parallel()

	src := newConstantSource(44100, 2, 1000, 0.5)
	out := Pipeline(src, 8000)

	if out.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", out.SampleRate())
	}
	if out.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", out.Channels())
	}
}

func TestPipeline_SkipsNoopResample(t *testing.T) {
	t.Parallel()

	src := newConstantSource(8000, 1, 100, 0.5)
	out := Pipeline(src, 8000)

	if out.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", out.SampleRate())
	}
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	src := newConstantSource(8000, 1, 4000, 0.25)
	data, err := ReadAll(src, 512)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if len(data.Samples) != 4000 {
		t.Errorf("samples = %d, want 4000", len(data.Samples))
	}
	if data.SampleRate != 8000 || data.Channels != 1 {
		t.Errorf("metadata = %d Hz / %d ch, want 8000 / 1", data.SampleRate, data.Channels)
	}
	if data.Duration != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", data.Duration)
	}
	for i, s := range data.Samples {
		if s != 0.25 {
			t.Fatalf("sample[%d] = %v, want 0.25", i, s)
		}
	}
}

func TestReadAll_DefaultBufferSize(t *testing.T) {
	t.Parallel()

	src := newConstantSource(8000, 1, 100, 0.5)
	data, err := ReadAll(src, 0)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(data.Samples) != 100 {
		t.Errorf("samples = %d, want 100", len(data.Samples))
	}
}

func TestDataSource_RoundTrip(t *testing.T) {
	t.Parallel()

	orig := &Data{
		Samples:    []float32{0.1, 0.2, 0.3, 0.4},
		SampleRate: 8000,
		Channels:   2,
	}

	back, err := ReadAll(NewDataSource(orig), 2)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if len(back.Samples) != len(orig.Samples) {
		t.Fatalf("samples = %d, want %d", len(back.Samples), len(orig.Samples))
	}
	for i := range orig.Samples {
		if back.Samples[i] != orig.Samples[i] {
			t.Errorf("sample[%d] = %v, want %v", i, back.Samples[i], orig.Samples[i])
		}
	}
	if back.SampleRate != 8000 || back.Channels != 2 {
		t.Errorf("metadata = %d Hz / %d ch, want 8000 / 2", back.SampleRate, back.Channels)
	}
}
