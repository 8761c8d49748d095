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
	configFile  = flag.String("config", "", "Path to configuration file")
	port        = flag.Int("port", 0, "gRPC server port (default: from config, 50051)")
	host        = flag.String("host", "", "gRPC listen host (default: from config, localhost)")
	engineModel = flag.String("engine-model", "", "Model path handed to the speech engine")
	verbose     = flag.Bool("verbose", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Voxnote gRPC Server v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	logger := app.NewLogger(os.Stderr, *verbose)
	logger.Info("starting voxnote gRPC server", "version", Version, "commit", GitCommit)

	cfg, err := app.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *engineModel != "" {
		cfg.Model.EnginePath = *engineModel
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

	if err := app.NewGRPCHandler(transcriber, mgr, logger).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
