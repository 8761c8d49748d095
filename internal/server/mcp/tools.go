package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/output"
)

// PlanChunksArgs leaves sizes nil when the caller omits them, so an explicit
// zero overlap or tail size can be told apart from the default.
type PlanChunksArgs struct {
	Path         string `json:"path" jsonschema:"Path to a 16-bit PCM WAV file"`
	ChunkSize    *int64 `json:"chunk_size,omitempty" jsonschema:"Window size in bytes (default 10 MiB)"`
	OverlapSize  *int64 `json:"overlap_size,omitempty" jsonschema:"Bytes shared by consecutive windows (default 1 MiB)"`
	MinChunkSize *int64 `json:"min_chunk_size,omitempty" jsonschema:"Tail size below which planning stops (default 5 MiB)"`
}

type SelectModelArgs struct{}

type ListModelsArgs struct{}

type SetLanguageArgs struct {
	Language string `json:"language" jsonschema:"Language code, en selects the English model"`
}

type TranscribeFileArgs struct {
	Path string `json:"path" jsonschema:"Path to a 16-bit PCM WAV file"`
}

func (s *Server) handlePlanChunks(ctx context.Context, req *sdk.CallToolRequest, args PlanChunksArgs) (*sdk.CallToolResult, any, error) {
	if args.Path == "" {
		return nil, nil, fmt.Errorf("path is required")
	}

	opts := s.config.Options
	if args.ChunkSize != nil {
		opts.ChunkSize = *args.ChunkSize
	}
	if args.OverlapSize != nil {
		opts.OverlapSize = *args.OverlapSize
	}
	if args.MinChunkSize != nil {
		opts.MinChunkSize = *args.MinChunkSize
	}

	plan, err := chunker.Plan(args.Path, opts)
	if err != nil {
		return nil, nil, err
	}

	start, end := chunker.Coverage(plan)
	summary := fmt.Sprintf("%d chunk(s) covering bytes %d-%d", len(plan), start, end)
	return jsonResult(summary, map[string]any{
		"path":   args.Path,
		"chunks": output.NewPlanEntries(plan),
	})
}

func (s *Server) handleSelectModel(ctx context.Context, req *sdk.CallToolRequest, args SelectModelArgs) (*sdk.CallToolResult, any, error) {
	selected := s.config.Selector.SelectedModel(ctx)
	return jsonResult(fmt.Sprintf("Selected model: %s", selected.Identifier), map[string]any{
		"selected": selected,
		"default":  s.config.Selector.DefaultModel(),
	})
}

func (s *Server) handleListModels(ctx context.Context, req *sdk.CallToolRequest, args ListModelsArgs) (*sdk.CallToolResult, any, error) {
	selected := s.config.Selector.SelectedModel(ctx)

	entries := make([]output.ModelEntry, 0, 2)
	for _, d := range models.Catalog() {
		downloaded := false
		if s.config.ModelsDir != "" {
			var err error
			downloaded, err = models.IsDownloaded(s.config.ModelsDir, d)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to check %s: %w", d.Identifier, err)
			}
		}
		entries = append(entries, output.ModelEntry{
			Descriptor: d,
			Selected:   d.Kind == selected.Kind,
			Downloaded: downloaded,
		})
	}

	return jsonResult(fmt.Sprintf("Models (%d):", len(entries)), entries)
}

func (s *Server) handleSetLanguage(ctx context.Context, req *sdk.CallToolRequest, args SetLanguageArgs) (*sdk.CallToolResult, any, error) {
	lang := strings.TrimSpace(args.Language)
	if err := s.config.Store.SetTranscriptionLanguage(ctx, lang); err != nil {
		return nil, nil, fmt.Errorf("failed to store language: %w", err)
	}
	d := models.Lookup(models.KindForLanguage(lang))
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: fmt.Sprintf("Language set to %q, model %s", lang, d.Identifier)},
		},
	}, nil, nil
}

func (s *Server) handleTranscribeFile(ctx context.Context, req *sdk.CallToolRequest, args TranscribeFileArgs) (*sdk.CallToolResult, any, error) {
	if args.Path == "" {
		return nil, nil, fmt.Errorf("path is required")
	}

	t, err := s.config.Pipeline.TranscribeFile(ctx, args.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("transcription failed: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: t.Text},
			&sdk.TextContent{Text: fmt.Sprintf("Chunks: %d (skipped %d), Duration: %dms, ID: %s",
				len(t.Chunks), t.SkippedChunks(), t.Audio.DurationMS, t.ID)},
		},
	}, nil, nil
}

// jsonResult returns a summary line followed by v encoded as JSON.
func jsonResult(summary string, v any) (*sdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: summary},
			&sdk.TextContent{Text: string(data)},
		},
	}, nil, nil
}
