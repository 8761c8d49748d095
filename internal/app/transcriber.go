package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emmett/voxnote/internal/audio/vad"
	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/config"
	"github.com/emmett/voxnote/internal/output"
	"github.com/emmett/voxnote/internal/stt"
	"github.com/emmett/voxnote/internal/transcribe"
)

// EngineFactory creates an uninitialized speech engine
type EngineFactory func() stt.Engine

// TranscriberConfig holds configuration for file transcription
type TranscriberConfig struct {
	Config *config.Config

	// EnginePath overrides the model file resolved from the catalog
	EnginePath string

	NewEngine EngineFactory
	Models    *ModelManager
	Console   *output.ConsoleOutput
	Logger    *slog.Logger
}

// Transcriber plans and transcribes recorded WAV files
type Transcriber struct {
	config TranscriberConfig
	logger *slog.Logger
}

// NewTranscriber creates a new Transcriber instance
func NewTranscriber(config TranscriberConfig) *Transcriber {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Console == nil {
		config.Console = output.NewConsoleOutput(output.ConsoleConfig{})
	}
	return &Transcriber{config: config, logger: logger}
}

// Plan writes the chunk plan for path without reading any samples
func (t *Transcriber) Plan(path string, out io.Writer) error {
	planner, err := chunker.NewPlanner(t.config.Config.ChunkerOptions(), t.logger)
	if err != nil {
		return err
	}
	plan, err := planner.Plan(path)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(t.config.Config.Output.Format, out)
	if err != nil {
		return err
	}
	return formatter.WritePlan(path, plan)
}

// NewPipeline initializes the engine and builds a pipeline around it. The
// returned close function releases the engine.
func (t *Transcriber) NewPipeline(ctx context.Context, progress transcribe.ProgressFunc) (*transcribe.Pipeline, func() error, error) {
	if t.config.NewEngine == nil {
		return nil, nil, fmt.Errorf("no speech engine available")
	}

	engine := t.config.NewEngine()
	if err := t.checkCatalogModel(ctx, engine); err != nil {
		return nil, nil, err
	}

	modelPath, descriptor, err := t.config.Models.ResolveModelPath(ctx, t.config.EnginePath)
	if err != nil {
		return nil, nil, err
	}

	cfg := t.config.Config
	sttCfg := stt.DefaultConfig(modelPath)
	sttCfg.Language = cfg.Model.Language
	if err := engine.Initialize(sttCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize STT engine: %w", err)
	}

	planner, err := chunker.NewPlanner(cfg.ChunkerOptions(), t.logger)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}

	readerOpts := cfg.ReaderOptions()
	readerOpts.Logger = t.logger

	retry := cfg.RetryConfig()
	retry.Logger = t.logger

	opts := []transcribe.Option{
		transcribe.WithRetry(retry),
		transcribe.WithVAD(vad.New(cfg.VADConfig())),
		transcribe.WithModel(descriptor.Identifier),
		transcribe.WithLogger(t.logger),
	}
	if progress != nil {
		opts = append(opts, transcribe.WithProgress(progress))
	}

	pipeline := transcribe.New(engine, planner, chunker.NewReader(readerOpts), opts...)
	return pipeline, engine.Close, nil
}

// checkCatalogModel fails early when no engine path is configured and the
// engine cannot load the catalog's model file.
func (t *Transcriber) checkCatalogModel(ctx context.Context, engine stt.Engine) error {
	checker, ok := engine.(stt.ModelChecker)
	if !ok || t.config.EnginePath != "" {
		return nil
	}
	path, d := t.config.Models.CatalogPath(ctx)
	if err := checker.CheckModel(path); err != nil {
		return fmt.Errorf("the speech engine cannot load catalog model %s: %w\n"+
			"An engine model path is required: set model.engine_path, VOXNOTE_ENGINE_PATH or -engine-model",
			d.Identifier, err)
	}
	return nil
}

// TranscribeFile transcribes path and writes the result to the configured
// output file, or to out when none is set.
func (t *Transcriber) TranscribeFile(ctx context.Context, path string, out io.Writer) error {
	cfg := t.config.Config

	formatter, closeOut, err := t.openOutput(out)
	if err != nil {
		return err
	}
	defer closeOut()

	pipeline, closeEngine, err := t.NewPipeline(ctx, t.config.Console.Progress)
	if err != nil {
		return err
	}
	defer closeEngine()

	t.config.Console.Info(fmt.Sprintf("Transcribing %s", path))
	transcript, err := pipeline.TranscribeFile(ctx, path)
	if err != nil {
		return err
	}

	if err := formatter.WriteTranscript(transcript); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	if covered := transcript.Covered(); transcript.Audio.DurationMS > covered.Milliseconds() {
		t.config.Console.Info(fmt.Sprintf("Chunk plan stopped at %s of %dms", covered, transcript.Audio.DurationMS))
	}
	if cfg.Output.File != "" {
		t.config.Console.Info(fmt.Sprintf("Transcript saved to %s", cfg.Output.File))
	}
	return nil
}

func (t *Transcriber) openOutput(out io.Writer) (output.Formatter, func(), error) {
	cfg := t.config.Config
	closeFn := func() {}

	writer := out
	if cfg.Output.File != "" {
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output file: %w", err)
		}
		writer = f
		closeFn = func() { f.Close() }
	}

	formatter, err := output.NewFormatter(cfg.Output.Format, writer)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return formatter, closeFn, nil
}
