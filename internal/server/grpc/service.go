package grpc

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"os"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/emmett/voxnote/internal/chunker"
	apperrors "github.com/emmett/voxnote/internal/errors"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/output"
	"github.com/emmett/voxnote/internal/transcribe"
)

// ChunkService answers planning, model selection and transcription calls.
type ChunkService struct {
	options  chunker.Options
	selector *models.Selector
	pipeline *transcribe.Pipeline
	logger   *slog.Logger
}

var _ ChunkServiceServer = (*ChunkService)(nil)

// NewChunkService creates the service. pipeline may be nil, in which case
// TranscribeFile reports Unimplemented.
func NewChunkService(options chunker.Options, selector *models.Selector, pipeline *transcribe.Pipeline, logger *slog.Logger) *ChunkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkService{
		options:  options,
		selector: selector,
		pipeline: pipeline,
		logger:   logger,
	}
}

// PlanChunks plans the file at "path". Optional numeric fields
// "chunk_size", "overlap_size" and "min_chunk_size" override the defaults.
func (s *ChunkService) PlanChunks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path, err := stringField(req, "path")
	if err != nil {
		return nil, err
	}

	opts := s.options
	overrideInt(req, "chunk_size", &opts.ChunkSize)
	overrideInt(req, "overlap_size", &opts.OverlapSize)
	overrideInt(req, "min_chunk_size", &opts.MinChunkSize)

	planner, err := chunker.NewPlanner(opts, s.logger)
	if err != nil {
		return nil, toStatus(err)
	}
	plan, err := planner.Plan(path)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(map[string]any{
		"path":   path,
		"chunks": output.NewPlanEntries(plan),
	})
}

// SelectModel returns the selected and default model descriptors.
func (s *ChunkService) SelectModel(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string]any{
		"selected": s.selector.SelectedModel(ctx),
		"default":  s.selector.DefaultModel(),
	})
}

// TranscribeFile transcribes the WAV file at "path".
func (s *ChunkService) TranscribeFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.pipeline == nil {
		return nil, status.Error(codes.Unimplemented, "no speech engine configured")
	}
	path, err := stringField(req, "path")
	if err != nil {
		return nil, err
	}

	t, err := s.pipeline.TranscribeFile(ctx, path)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(t)
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok || v.GetStringValue() == "" {
		return "", status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	return v.GetStringValue(), nil
}

func overrideInt(req *structpb.Struct, name string, dst *int64) {
	if v, ok := req.GetFields()[name]; ok {
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); isNum {
			*dst = int64(v.GetNumberValue())
		}
	}
}

// toStruct converts v to a Struct through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// toStatus maps an application error to a gRPC status.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case stderrors.Is(err, context.Canceled):
		code = codes.Canceled
	case stderrors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case stderrors.Is(err, os.ErrNotExist):
		code = codes.NotFound
	default:
		switch apperrors.CodeOf(err) {
		case apperrors.CodeFormat, apperrors.CodeInvalidArgument:
			code = codes.InvalidArgument
		case apperrors.CodeIO, apperrors.CodePreferenceUnavailable:
			code = codes.Unavailable
		default:
			code = codes.Internal
		}
	}
	return status.Error(code, err.Error())
}
