package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/voxnote/internal/app"
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
	configFile   = flag.String("config", "", "Path to configuration file")
	engineModel  = flag.String("engine-model", "", "Model path handed to the speech engine")
	enableVAD    = flag.Bool("vad", true, "Skip silent chunks")
	vadThreshold = flag.Float64("vad-threshold", 0, "VAD energy threshold (0.001-0.1, lower=more sensitive)")
	verbose      = flag.Bool("verbose", false, "Enable debug logging")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Voxnote MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	// stdout carries the protocol, everything else goes to stderr.
	logger := app.NewLogger(os.Stderr, *verbose)

	cfg, err := app.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *engineModel != "" {
		cfg.Model.EnginePath = *engineModel
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "vad":
			cfg.VAD.Enabled = *enableVAD
		case "vad-threshold":
			cfg.VAD.Threshold = *vadThreshold
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mgr, err := app.NewModelManager(cfg, os.Stderr, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	transcriber := app.NewTranscriber(app.TranscriberConfig{
		Config:     cfg,
		EnginePath: cfg.Model.EnginePath,
		NewEngine:  func() stt.Engine { return vosk.New() },
		Models:     mgr,
		Console:    output.NewConsoleOutput(output.ConsoleConfig{Quiet: true}),
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := app.NewMCPHandler(transcriber, mgr, Version, os.Stderr, logger)
	if err := handler.Run(ctx, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
