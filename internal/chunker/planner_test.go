package chunker

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	apperrors "github.com/emmett/voxnote/internal/errors"
	"github.com/emmett/voxnote/internal/wav"
)

const mib = 1024 * 1024

func newTestPlanner(t *testing.T, opts Options) *Planner {
	t.Helper()
	p, err := NewPlanner(opts, nil)
	if err != nil {
		t.Fatalf("NewPlanner: %v", err)
	}
	return p
}

func mustPlanFormat(t *testing.T, p *Planner, format *wav.Format, path string) []Window {
	t.Helper()
	plan, err := p.PlanFormat(format, path)
	if err != nil {
		t.Fatalf("PlanFormat: %v", err)
	}
	return plan
}

func monoFormat(dataSize uint32) *wav.Format {
	return &wav.Format{Channels: 1, SampleRate: 16000, BitsPerSample: 16, DataSize: dataSize}
}

func TestPlanTwentyThreeMiB(t *testing.T) {
	p := newTestPlanner(t, DefaultOptions())
	plan := mustPlanFormat(t, p, monoFormat(23*mib), "rec.wav")

	want := []struct {
		start, end int64
		first      bool
		last       bool
	}{
		{44, 44 + 10*mib, true, false},
		{44 + 9*mib, 44 + 19*mib, false, false},
		{44 + 18*mib, 44 + 23*mib, false, true},
	}

	if len(plan) != len(want) {
		t.Fatalf("len(plan) = %d, want %d: %v", len(plan), len(want), plan)
	}
	for i, w := range want {
		got := plan[i]
		if got.Index != i {
			t.Errorf("chunk %d: Index = %d", i, got.Index)
		}
		if got.StartOffset != w.start || got.EndOffset != w.end {
			t.Errorf("chunk %d: [%d, %d), want [%d, %d)", i, got.StartOffset, got.EndOffset, w.start, w.end)
		}
		if got.IsFirst != w.first || got.IsLast != w.last {
			t.Errorf("chunk %d: first=%v last=%v, want first=%v last=%v", i, got.IsFirst, got.IsLast, w.first, w.last)
		}
		if got.Path != "rec.wav" {
			t.Errorf("chunk %d: Path = %q", i, got.Path)
		}
	}
}

// With a 20 MiB region the stride walk would visit offsets 0, 9 and 18 MiB.
// The third window would hold only 2 MiB, so planning stops after the second.
func TestPlanTailShortCircuit(t *testing.T) {
	p := newTestPlanner(t, DefaultOptions())
	format := monoFormat(20 * mib)
	plan := mustPlanFormat(t, p, format, "rec.wav")

	stride := DefaultOptions().Stride()
	naive := (int64(format.DataSize) + stride - 1) / stride
	if int64(len(plan)) != naive-1 {
		t.Fatalf("len(plan) = %d, want %d", len(plan), naive-1)
	}

	last := plan[len(plan)-1]
	if !last.IsLast {
		t.Error("final window should be marked IsLast")
	}
	if last.EndOffset != 44+19*mib {
		t.Errorf("last EndOffset = %d, want %d", last.EndOffset, 44+19*mib)
	}
	if _, end := Coverage(plan); end > format.DataEnd() {
		t.Errorf("coverage end %d past data end %d", end, format.DataEnd())
	}
}

func TestPlanInvariants(t *testing.T) {
	opts := DefaultOptions()
	p := newTestPlanner(t, opts)

	for _, size := range []uint32{1, 4 * mib, 10 * mib, 11 * mib, 14 * mib, 15 * mib, 23 * mib, 57*mib + 12345, 100 * mib} {
		format := monoFormat(size)
		plan := mustPlanFormat(t, p, format, "x.wav")
		if len(plan) == 0 {
			t.Fatalf("size %d: empty plan", size)
		}
		if !plan[0].IsFirst || plan[0].StartOffset != wav.HeaderSize {
			t.Errorf("size %d: first window = %v", size, plan[0])
		}
		for i, w := range plan {
			if w.StartOffset < wav.HeaderSize || w.EndOffset > format.DataEnd() {
				t.Errorf("size %d: window %d out of data region: %v", size, i, w)
			}
			if w.IsLast != (i == len(plan)-1) {
				t.Errorf("size %d: window %d IsLast = %v", size, i, w.IsLast)
			}
			if i == 0 {
				continue
			}
			prev := plan[i-1]
			if w.StartOffset != prev.EndOffset-opts.OverlapSize {
				t.Errorf("size %d: window %d start %d, want prev end - overlap = %d",
					size, i, w.StartOffset, prev.EndOffset-opts.OverlapSize)
			}
			if w.StartOffset < prev.StartOffset {
				t.Errorf("size %d: window %d starts before its predecessor", size, i)
			}
			if prev.SizeBytes() < opts.MinChunkSize {
				t.Errorf("size %d: non-final window %d is %d bytes", size, i-1, prev.SizeBytes())
			}
		}
	}
}

func TestPlanEmptyDataRegion(t *testing.T) {
	p := newTestPlanner(t, DefaultOptions())
	plan := mustPlanFormat(t, p, monoFormat(0), "empty.wav")
	if len(plan) != 1 {
		t.Fatalf("len(plan) = %d, want 1", len(plan))
	}
	w := plan[0]
	if w.SizeBytes() != 0 || !w.IsFirst || !w.IsLast {
		t.Errorf("window = %+v, want zero-length first+last", w)
	}
	if w.StartOffset != wav.HeaderSize {
		t.Errorf("StartOffset = %d, want %d", w.StartOffset, wav.HeaderSize)
	}
}

func TestPlanSmallerThanOneChunk(t *testing.T) {
	p := newTestPlanner(t, DefaultOptions())
	plan := mustPlanFormat(t, p, monoFormat(3*mib), "short.wav")
	if len(plan) != 1 {
		t.Fatalf("len(plan) = %d, want 1", len(plan))
	}
	if plan[0].EndOffset != 44+3*mib || !plan[0].IsLast {
		t.Errorf("window = %v", plan[0])
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"defaults", DefaultOptions(), true},
		{"no overlap", Options{ChunkSize: 100, OverlapSize: 0, MinChunkSize: 0}, true},
		{"zero chunk", Options{ChunkSize: 0}, false},
		{"overlap equals chunk", Options{ChunkSize: 100, OverlapSize: 100}, false},
		{"negative overlap", Options{ChunkSize: 100, OverlapSize: -1}, false},
		{"min above chunk", Options{ChunkSize: 100, OverlapSize: 10, MinChunkSize: 101}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, apperrors.ErrInvalidArgument) {
				t.Errorf("err = %v, want invalid argument", err)
			}
		})
	}
}

func TestPlanRejectsInvalidContainer(t *testing.T) {
	p := newTestPlanner(t, DefaultOptions())
	_, err := p.PlanReader(bytes.NewReader(make([]byte, 64)), "junk.wav")
	if !errors.Is(err, apperrors.ErrFormat) {
		t.Fatalf("err = %v, want format error", err)
	}
}

func TestPlanRejectsUnsupportedLayout(t *testing.T) {
	p := newTestPlanner(t, DefaultOptions())
	h := wav.EncodeHeader(wav.Format{Channels: 1, SampleRate: 16000, BitsPerSample: 8, DataSize: 100})
	_, err := p.PlanReader(bytes.NewReader(h), "8bit.wav")
	if !errors.Is(err, apperrors.ErrFormat) {
		t.Fatalf("err = %v, want format error", err)
	}
}

func TestPlanRejectsFrameSplittingOptions(t *testing.T) {
	stereo := &wav.Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16, DataSize: 4000}

	tests := []struct {
		name string
		opts Options
		ok   bool
	}{
		{"aligned", Options{ChunkSize: 800, OverlapSize: 100}, true},
		{"odd chunk", Options{ChunkSize: 801, OverlapSize: 100}, false},
		{"half frame overlap", Options{ChunkSize: 800, OverlapSize: 102}, false},
		{"mono aligned only", Options{ChunkSize: 802, OverlapSize: 102}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPlanner(t, tt.opts)
			plan, err := p.PlanFormat(stereo, "stereo.wav")
			if !tt.ok {
				if !errors.Is(err, apperrors.ErrInvalidArgument) {
					t.Fatalf("err = %v, want invalid argument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlanFormat: %v", err)
			}
			for _, w := range plan {
				if (w.StartOffset-wav.HeaderSize)%4 != 0 {
					t.Errorf("window %d starts mid-frame at %d", w.Index, w.StartOffset)
				}
			}
		})
	}
}

func TestPlanFileRejectsFrameSplittingOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	w, err := wav.Create(path, wav.Format{Channels: 2, SampleRate: 16000, BitsPerSample: 16})
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]int16, 2000)
	for i := range samples {
		samples[i] = 1000
	}
	if err := w.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	_, err = Plan(path, Options{ChunkSize: 801, OverlapSize: 100})
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("err = %v, want invalid argument", err)
	}

	plan, err := Plan(path, Options{ChunkSize: 800, OverlapSize: 100})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	r := NewReader(DefaultReaderOptions())
	want := float32(1000) / pcm16Max
	for _, win := range plan {
		chunk, err := r.Read(win)
		if err != nil {
			t.Fatalf("Read(%d): %v", win.Index, err)
		}
		if len(chunk.Samples) == 0 || chunk.Samples[0] != want {
			t.Errorf("window %d first sample = %v, want %v", win.Index, chunk.Samples, want)
		}
	}
}

func TestPlanMissingFile(t *testing.T) {
	_, err := Plan(filepath.Join(t.TempDir(), "nope.wav"), DefaultOptions())
	if !errors.Is(err, apperrors.ErrIO) {
		t.Fatalf("err = %v, want io error", err)
	}
}

func TestPlanFromFile(t *testing.T) {
	path := writeMonoFixture(t, make([]int16, 500))
	plan, err := Plan(path, Options{ChunkSize: 400, OverlapSize: 100, MinChunkSize: 200})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// 1000 data bytes: [44,444) [344,744) [644,1044)
	if len(plan) != 3 {
		t.Fatalf("len(plan) = %d, want 3: %v", len(plan), plan)
	}
	if plan[2].EndOffset != 1044 || !plan[2].IsLast {
		t.Errorf("last window = %v", plan[2])
	}
}

func TestWindowTiming(t *testing.T) {
	format := monoFormat(10 * 32000)
	w := Window{StartOffset: 44 + 32000, EndOffset: 44 + 96000, Format: format}
	if got := w.DurationSeconds(); got != 2 {
		t.Errorf("DurationSeconds = %v, want 2", got)
	}
	if got := w.StartTime().Seconds(); got != 1 {
		t.Errorf("StartTime = %v, want 1s", got)
	}
	if got := w.EndTime().Seconds(); got != 3 {
		t.Errorf("EndTime = %v, want 3s", got)
	}
}
