package app

import (
	"context"
	"log/slog"

	grpcserver "github.com/emmett/voxnote/internal/server/grpc"
)

// GRPCHandler runs the gRPC chunk service
type GRPCHandler struct {
	transcriber *Transcriber
	models      *ModelManager
	logger      *slog.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(transcriber *Transcriber, models *ModelManager, logger *slog.Logger) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{transcriber: transcriber, models: models, logger: logger}
}

// Run serves until ctx is cancelled, then stops gracefully
func (h *GRPCHandler) Run(ctx context.Context) error {
	pipeline, closeEngine := optionalPipeline(ctx, h.transcriber, h.logger)
	defer closeEngine()

	cfg := h.transcriber.config.Config
	svc := grpcserver.NewChunkService(cfg.ChunkerOptions(), h.models.Selector(), pipeline, h.logger)
	server := grpcserver.NewServer(grpcserver.Config{Addr: cfg.Addr(), Logger: h.logger}, svc)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case <-ctx.Done():
		h.logger.Info("shutting down gRPC server")
		server.Stop()
		<-errChan
		return nil
	case err := <-errChan:
		return err
	}
}
