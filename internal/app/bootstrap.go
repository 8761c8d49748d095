package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/emmett/voxnote/internal/config"
)

// NewLogger returns a text logger on w and installs it as the default.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration with fallback, applies VOXNOTE_*
// overrides and validates the result.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
