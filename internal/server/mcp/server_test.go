package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/output"
	"github.com/emmett/voxnote/internal/stt"
	"github.com/emmett/voxnote/internal/transcribe"
	"github.com/emmett/voxnote/internal/wav"
)

var testOptions = chunker.Options{ChunkSize: 3200, OverlapSize: 640, MinChunkSize: 640}

type wordEngine struct{}

func (wordEngine) Initialize(stt.Config) error { return nil }
func (wordEngine) Close() error                { return nil }
func (wordEngine) IsInitialized() bool         { return true }
func (wordEngine) Transcribe(context.Context, []float32, int) (*stt.Result, error) {
	return &stt.Result{Text: "word", Segments: []stt.Segment{{StartMS: 40, EndMS: 50, Text: "word"}}}, nil
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.wav")
	w, err := wav.Create(path, wav.Format{Channels: 1, SampleRate: 16000, BitsPerSample: 16})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteSamples(make([]int16, 4000)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func connect(t *testing.T, cfg Config) *sdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	cfg.ServerName = "voxnote-test"
	cfg.ServerVersion = "test"
	cfg.Options = testOptions
	s := NewServer(cfg)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callText(t *testing.T, cs *sdk.ClientSession, name string, args map[string]any) ([]string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return []string{err.Error()}, true
	}
	var texts []string
	for _, c := range res.Content {
		if tc, ok := c.(*sdk.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	return texts, res.IsError
}

func TestToolsRegistered(t *testing.T) {
	store := models.StaticStore("en")
	cs := connect(t, Config{Store: store})

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"plan_chunks", "select_model", "list_models", "set_language"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
	if names["transcribe_file"] {
		t.Error("transcribe_file registered without a pipeline")
	}
}

func TestPlanChunksTool(t *testing.T) {
	cs := connect(t, Config{})

	texts, isErr := callText(t, cs, "plan_chunks", map[string]any{"path": writeFixture(t)})
	if isErr || len(texts) != 2 {
		t.Fatalf("plan_chunks failed: %v", texts)
	}
	if !strings.HasPrefix(texts[0], "3 chunk(s)") {
		t.Errorf("summary = %q", texts[0])
	}

	var got struct {
		Chunks []output.PlanEntry `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(texts[1]), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Chunks) != 3 || !got.Chunks[2].IsLast {
		t.Errorf("chunks = %+v", got.Chunks)
	}

	if _, isErr := callText(t, cs, "plan_chunks", map[string]any{"path": filepath.Join(t.TempDir(), "missing.wav")}); !isErr {
		t.Error("expected error for missing file")
	}
}

func TestPlanChunksToolExplicitZeroOverlap(t *testing.T) {
	cs := connect(t, Config{})
	path := writeFixture(t)

	texts, isErr := callText(t, cs, "plan_chunks", map[string]any{"path": path, "overlap_size": 0})
	if isErr || len(texts) != 2 {
		t.Fatalf("plan_chunks failed: %v", texts)
	}
	var got struct {
		Chunks []output.PlanEntry `json:"chunks"`
	}
	if err := json.Unmarshal([]byte(texts[1]), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	// 8000 data bytes in back-to-back 3200-byte windows.
	if len(got.Chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(got.Chunks))
	}
	for i := 1; i < len(got.Chunks); i++ {
		if got.Chunks[i].StartOffset != got.Chunks[i-1].EndOffset {
			t.Errorf("chunk %d starts at %d, want %d", i, got.Chunks[i].StartOffset, got.Chunks[i-1].EndOffset)
		}
	}

	if _, isErr := callText(t, cs, "plan_chunks", map[string]any{"path": path, "chunk_size": 3201}); !isErr {
		t.Error("expected error for a chunk size that splits frames")
	}
}

func TestSelectModelTool(t *testing.T) {
	cs := connect(t, Config{Store: models.StaticStore("fr")})

	texts, isErr := callText(t, cs, "select_model", map[string]any{})
	if isErr || len(texts) == 0 {
		t.Fatalf("select_model failed: %v", texts)
	}
	if !strings.Contains(texts[0], "ggml-base-hi.bin") {
		t.Errorf("summary = %q", texts[0])
	}
}

func TestSetLanguageTool(t *testing.T) {
	store := models.NewFileStore(t.TempDir())
	cs := connect(t, Config{Store: store})

	if texts, isErr := callText(t, cs, "set_language", map[string]any{"language": "en"}); isErr {
		t.Fatalf("set_language failed: %v", texts)
	}
	texts, _ := callText(t, cs, "select_model", map[string]any{})
	if len(texts) == 0 || !strings.Contains(texts[0], "ggml-base-en.bin") {
		t.Errorf("select_model after set_language = %v", texts)
	}
}

func TestListModelsTool(t *testing.T) {
	cs := connect(t, Config{ModelsDir: t.TempDir()})

	texts, isErr := callText(t, cs, "list_models", map[string]any{})
	if isErr || len(texts) != 2 {
		t.Fatalf("list_models failed: %v", texts)
	}
	var entries []output.ModelEntry
	if err := json.Unmarshal([]byte(texts[1]), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(entries) != 2 || entries[0].Downloaded {
		t.Errorf("entries = %+v", entries)
	}
	// No preference: the multilingual model is selected.
	if entries[0].Selected || !entries[1].Selected {
		t.Errorf("selection flags = %v/%v", entries[0].Selected, entries[1].Selected)
	}
}

func TestTranscribeFileTool(t *testing.T) {
	planner, err := chunker.NewPlanner(testOptions, nil)
	if err != nil {
		t.Fatal(err)
	}
	pipeline := transcribe.New(wordEngine{}, planner, chunker.NewReader(chunker.DefaultReaderOptions()))
	cs := connect(t, Config{Pipeline: pipeline})

	texts, isErr := callText(t, cs, "transcribe_file", map[string]any{"path": writeFixture(t)})
	if isErr || len(texts) != 2 {
		t.Fatalf("transcribe_file failed: %v", texts)
	}
	if texts[0] != "word word word" {
		t.Errorf("text = %q", texts[0])
	}
}
