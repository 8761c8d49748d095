package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emmett/voxnote/internal/server/mcp"
	"github.com/emmett/voxnote/internal/transcribe"
)

// MCPHandler handles MCP server operations
type MCPHandler struct {
	transcriber *Transcriber
	models      *ModelManager
	version     string
	stderr      io.Writer
	logger      *slog.Logger
}

// NewMCPHandler creates a new MCP handler
func NewMCPHandler(transcriber *Transcriber, models *ModelManager, version string, stderr io.Writer, logger *slog.Logger) *MCPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPHandler{
		transcriber: transcriber,
		models:      models,
		version:     version,
		stderr:      stderr,
		logger:      logger,
	}
}

// Run serves MCP over stdio until ctx is cancelled. Without a usable
// engine the transcribe_file tool is left out.
func (h *MCPHandler) Run(ctx context.Context, configPath string) error {
	pipeline, closeEngine := optionalPipeline(ctx, h.transcriber, h.logger)
	defer closeEngine()

	h.printClientConfig(configPath)

	cfg := h.transcriber.config.Config
	server := mcp.NewServer(mcp.Config{
		ServerName:    "voxnote-mcp",
		ServerVersion: h.version,
		Options:       cfg.ChunkerOptions(),
		ModelsDir:     h.models.Dir(),
		Selector:      h.models.Selector(),
		Store:         h.models.Store(),
		Pipeline:      pipeline,
		Logger:        h.logger,
	})

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (h *MCPHandler) printClientConfig(configPath string) {
	execPath, err := os.Executable()
	if err != nil {
		execPath = "voxnote-mcp"
	}

	type MCPServerConfig struct {
		Command string   `json:"command"`
		Args    []string `json:"args,omitempty"`
	}
	type MCPClientConfig struct {
		MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	}

	var args []string
	if configPath != "" {
		args = []string{"-config", configPath}
	}
	clientConfig := MCPClientConfig{
		MCPServers: map[string]MCPServerConfig{
			"voxnote": {Command: execPath, Args: args},
		},
	}

	configJSON, err := json.MarshalIndent(clientConfig, "", "  ")
	if err == nil {
		fmt.Fprintf(h.stderr, "MCP Client Configuration:\n%s\n\n", string(configJSON))
	}
}

// optionalPipeline builds a pipeline when an engine and model are available
// and logs why not otherwise. The close function is always safe to call.
func optionalPipeline(ctx context.Context, t *Transcriber, logger *slog.Logger) (*transcribe.Pipeline, func()) {
	pipeline, closeEngine, err := t.NewPipeline(ctx, nil)
	if err != nil {
		logger.Warn("transcription disabled", "error", err)
		return nil, func() {}
	}
	return pipeline, func() { _ = closeEngine() }
}
