package transcribe

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emmett/voxnote/internal/audio/vad"
	"github.com/emmett/voxnote/internal/chunker"
	apperrors "github.com/emmett/voxnote/internal/errors"
	"github.com/emmett/voxnote/internal/resilience"
	"github.com/emmett/voxnote/internal/stt"
)

// Progress is reported after each window is handled.
type Progress struct {
	Window  chunker.Window
	Total   int
	Skipped bool
}

// ProgressFunc receives per-window progress. It runs on the pipeline goroutine.
type ProgressFunc func(Progress)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRetry sets the retry policy for chunk reads.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(p *Pipeline) { p.retry = cfg }
}

// WithVAD skips windows the detector considers silent.
func WithVAD(d *vad.Detector) Option {
	return func(p *Pipeline) { p.vad = d }
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithModel records the model identifier in produced transcripts.
func WithModel(identifier string) Option {
	return func(p *Pipeline) { p.model = identifier }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// Pipeline plans a recording, reads each window and feeds it to the engine.
// Calls to TranscribeFile are serialized because the Reader's scratch is
// shared.
type Pipeline struct {
	engine   stt.Engine
	planner  *chunker.Planner
	reader   *chunker.Reader
	retry    resilience.RetryConfig
	vad      *vad.Detector
	progress ProgressFunc
	model    string
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates a pipeline. The engine must already be initialized.
func New(engine stt.Engine, planner *chunker.Planner, reader *chunker.Reader, opts ...Option) *Pipeline {
	p := &Pipeline{
		engine:  engine,
		planner: planner,
		reader:  reader,
		retry:   resilience.DefaultRetryConfig(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.retry.Logger == nil {
		p.retry.Logger = p.logger
	}
	return p
}

// TranscribeFile transcribes the WAV file at path. Scratch buffers are
// released before returning.
func (p *Pipeline) TranscribeFile(ctx context.Context, path string) (*Transcript, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.engine.IsInitialized() {
		return nil, apperrors.New(apperrors.CodeEngine, "speech engine not initialized")
	}

	started := time.Now()

	windows, err := p.planner.Plan(path)
	if err != nil {
		return nil, err
	}
	format := windows[0].Format

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeIO, "failed to open %s", path)
	}
	defer f.Close()
	defer p.reader.Release()

	p.logger.Info("transcribing",
		"path", path,
		"chunks", len(windows),
		"duration", format.Duration(int64(format.DataSize)))

	var agg Aggregator
	t := &Transcript{
		ID:        uuid.NewString(),
		Source:    path,
		Model:     p.model,
		Audio:     audioInfo(format),
		Chunks:    make([]ChunkSummary, 0, len(windows)),
		CreatedAt: started.UTC(),
	}

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.transcribeWindow(ctx, f, w)
		if err != nil {
			return nil, err
		}

		agg.Add(result)
		t.Chunks = append(t.Chunks, summarize(result))

		if p.progress != nil {
			p.progress(Progress{Window: w, Total: len(windows), Skipped: result.Skipped})
		}
	}

	t.Segments = agg.Segments()
	t.Text = agg.Text()
	t.Elapsed = time.Since(started)

	p.logger.Info("transcription complete",
		"path", path,
		"id", t.ID,
		"segments", len(t.Segments),
		"skipped", t.SkippedChunks(),
		"elapsed", t.Elapsed)
	return t, nil
}

func (p *Pipeline) transcribeWindow(ctx context.Context, f *os.File, w chunker.Window) (ChunkResult, error) {
	var chunk *chunker.DecodedChunk
	err := resilience.Retry(ctx, p.retry, func() error {
		var err error
		chunk, err = p.reader.ReadFrom(f, w)
		return err
	})
	if err != nil {
		return ChunkResult{}, err
	}

	if p.vad.Enabled() && p.vad.IsSilent(chunk.Samples) {
		p.logger.Debug("skipping silent chunk", "index", w.Index)
		return ChunkResult{Window: w, Skipped: true}, nil
	}
	if len(chunk.Samples) == 0 {
		return ChunkResult{Window: w}, nil
	}

	res, err := p.engine.Transcribe(ctx, chunk.Samples, int(w.Format.SampleRate))
	if err != nil {
		if ctx.Err() != nil {
			return ChunkResult{}, ctx.Err()
		}
		return ChunkResult{}, apperrors.Wrap(err, apperrors.CodeEngine, "transcription failed").
			WithMetadata("chunk", strconv.Itoa(w.Index))
	}

	p.logger.Debug("chunk transcribed",
		"index", w.Index,
		"segments", len(res.Segments),
		"confidence", res.Confidence)
	return ChunkResult{Window: w, Text: res.Text, Segments: res.Segments}, nil
}
