package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/voxnote/internal/app"
	"github.com/emmett/voxnote/internal/audio"
	"github.com/emmett/voxnote/internal/config"
	"github.com/emmett/voxnote/internal/output"
	"github.com/emmett/voxnote/internal/stt"
	"github.com/emmett/voxnote/internal/stt/vosk"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.voxnoterc or /etc/voxnote/config.yaml)")
	outputFormat = flag.String("format", "", "Output format: text, json")
	outputFile   = flag.String("output", "", "Output file (default: stdout)")
	engineModel  = flag.String("engine-model", "", "Model path handed to the speech engine (overrides the catalog selection)")
	language     = flag.String("language", "", "Transcription language for this run (overrides the stored preference)")
	chunkSize    = flag.Int64("chunk-size", 0, "Chunk size in bytes")
	overlapSize  = flag.Int64("overlap", 0, "Overlap between chunks in bytes")
	minChunkSize = flag.Int64("min-chunk", 0, "Tail size in bytes below which planning stops")
	enableVAD    = flag.Bool("vad", true, "Skip silent chunks")
	vadThreshold = flag.Float64("vad-threshold", 0, "VAD energy threshold (0.001-0.1, lower=more sensitive)")
	audioDevice  = flag.String("device", "", "Audio input device ID or name for record")
	duration     = flag.Duration("duration", 0, "Maximum recording length (default: until Ctrl+C)")
	quiet        = flag.Bool("quiet", false, "Suppress progress output")
	verbose      = flag.Bool("verbose", false, "Enable debug logging")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: voxnote [flags] <command> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  plan <file.wav>          Show the chunk plan for a recording\n")
	fmt.Fprintf(os.Stderr, "  transcribe <file.wav>    Transcribe a recording\n")
	fmt.Fprintf(os.Stderr, "  models                   List models and the current selection\n")
	fmt.Fprintf(os.Stderr, "  model                    Show the model selected for the stored language\n")
	fmt.Fprintf(os.Stderr, "  set-language <code>      Store the transcription language\n")
	fmt.Fprintf(os.Stderr, "  record <file.wav>        Record a note from the microphone\n")
	fmt.Fprintf(os.Stderr, "  devices                  List audio input devices\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("Voxnote CLI v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logger := app.NewLogger(os.Stderr, *verbose)

	cfg, err := app.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Debug("command failed", "command", flag.Arg(0), "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// applyFlags overrides configuration with explicitly set flags.
func applyFlags(cfg *config.Config) {
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	if flagsSet["format"] {
		cfg.Output.Format = *outputFormat
	}
	if flagsSet["output"] {
		cfg.Output.File = *outputFile
	}
	if flagsSet["engine-model"] {
		cfg.Model.EnginePath = *engineModel
	}
	if flagsSet["language"] {
		cfg.Model.Language = *language
	}
	if flagsSet["chunk-size"] {
		cfg.Chunking.ChunkSize = *chunkSize
	}
	if flagsSet["overlap"] {
		cfg.Chunking.OverlapSize = *overlapSize
	}
	if flagsSet["min-chunk"] {
		cfg.Chunking.MinChunkSize = *minChunkSize
	}
	if flagsSet["vad"] {
		cfg.VAD.Enabled = *enableVAD
	}
	if flagsSet["vad-threshold"] {
		cfg.VAD.Threshold = *vadThreshold
	}
	if flagsSet["device"] {
		cfg.Audio.Device = *audioDevice
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string, args []string) error {
	mgr, err := app.NewModelManager(cfg, os.Stdout, logger)
	if err != nil {
		return err
	}

	transcriber := app.NewTranscriber(app.TranscriberConfig{
		Config:     cfg,
		EnginePath: cfg.Model.EnginePath,
		NewEngine:  func() stt.Engine { return vosk.New() },
		Models:     mgr,
		Console:    output.NewConsoleOutput(output.ConsoleConfig{Quiet: *quiet}),
		Logger:     logger,
	})

	switch command {
	case "plan":
		path, err := oneArg(command, args)
		if err != nil {
			return err
		}
		return transcriber.Plan(path, os.Stdout)

	case "transcribe":
		path, err := oneArg(command, args)
		if err != nil {
			return err
		}
		return transcriber.TranscribeFile(ctx, path, os.Stdout)

	case "models":
		formatter, err := output.NewFormatter(cfg.Output.Format, os.Stdout)
		if err != nil {
			return err
		}
		return mgr.ListModels(ctx, formatter)

	case "model":
		return mgr.ShowSelected(ctx)

	case "set-language":
		lang, err := oneArg(command, args)
		if err != nil {
			return err
		}
		return mgr.SetLanguage(ctx, lang)

	case "record":
		path, err := oneArg(command, args)
		if err != nil {
			return err
		}
		capture := audio.DefaultConfig()
		capture.DeviceID = cfg.Audio.Device
		capture.SampleRate = cfg.Audio.SampleRate
		capture.Channels = cfg.Audio.Channels

		fmt.Fprintln(os.Stderr, "Recording... press Ctrl+C to stop.")
		dm := app.NewDeviceManager(os.Stdout, logger)
		return dm.Record(ctx, path, capture, *duration)

	case "devices":
		return app.NewDeviceManager(os.Stdout, logger).ListDevices()

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func oneArg(command string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s takes exactly one argument", command)
	}
	return args[0], nil
}
