// Package mcp exposes chunk planning, model selection and file
// transcription as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"log/slog"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/transcribe"
)

type Config struct {
	ServerName    string
	ServerVersion string

	// Options are the default chunking options for plan_chunks
	Options chunker.Options

	// ModelsDir is where downloaded models are looked up
	ModelsDir string

	Selector *models.Selector
	Store    models.PreferenceStore

	// Pipeline is optional. Without it transcribe_file is not registered.
	Pipeline *transcribe.Pipeline

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *sdk.Server
	logger    *slog.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Selector == nil {
		cfg.Selector = models.NewSelector(cfg.Store, models.WithLogger(logger))
	}

	s := &Server{
		config: cfg,
		logger: logger,
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()

	return s
}

// Run serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server starting", "name", s.config.ServerName, "version", s.config.ServerVersion)
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "plan_chunks",
		Description: "Plan overlapping byte windows over a 16-bit PCM WAV file",
	}, s.handlePlanChunks)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "select_model",
		Description: "Show which transcription model the stored language preference selects",
	}, s.handleSelectModel)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "list_models",
		Description: "List catalog models and whether they are downloaded",
	}, s.handleListModels)

	if s.config.Store != nil {
		sdk.AddTool(s.mcpServer, &sdk.Tool{
			Name:        "set_language",
			Description: "Store the transcription language preference",
		}, s.handleSetLanguage)
	}

	if s.config.Pipeline != nil {
		sdk.AddTool(s.mcpServer, &sdk.Tool{
			Name:        "transcribe_file",
			Description: "Transcribe a WAV file in overlapping chunks",
		}, s.handleTranscribeFile)
	}
}
