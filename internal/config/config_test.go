package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/emmett/voxnote/internal/chunker"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ChunkerOptions() != chunker.DefaultOptions() {
		t.Errorf("ChunkerOptions() = %+v, want defaults", cfg.ChunkerOptions())
	}
	if !cfg.ReaderOptions().WipeScratch {
		t.Error("WipeScratch should default to true")
	}
	if cfg.Model.PreferenceTimeout != 2*time.Second {
		t.Errorf("PreferenceTimeout = %v, want 2s", cfg.Model.PreferenceTimeout)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
model:
  language: en
  preference_timeout: 500ms
chunking:
  chunk_size: 4096
  overlap_size: 512
  min_chunk_size: 1024
output:
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model.Language != "en" || cfg.Model.PreferenceTimeout != 500*time.Millisecond {
		t.Errorf("model = %+v", cfg.Model)
	}
	want := chunker.Options{ChunkSize: 4096, OverlapSize: 512, MinChunkSize: 1024}
	if cfg.ChunkerOptions() != want {
		t.Errorf("ChunkerOptions() = %+v, want %+v", cfg.ChunkerOptions(), want)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 50051 || !cfg.Chunking.WipeScratch {
		t.Errorf("defaults lost: port=%d wipe=%v", cfg.Server.Port, cfg.Chunking.WipeScratch)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Model.Language = "hi"
	cfg.Retry.BaseDelay = 50 * time.Millisecond

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Model.Language != "hi" || got.Retry.BaseDelay != 50*time.Millisecond {
		t.Errorf("got %+v", got)
	}
}

func TestLoadWithFallbackExplicit(t *testing.T) {
	if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestLoadWithFallbackHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.WriteFile(filepath.Join(home, ".voxnoterc"), []byte("model:\n  language: en\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithFallback("")
	if err != nil {
		t.Fatalf("LoadWithFallback() error = %v", err)
	}
	if cfg.Model.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Model.Language)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VOXNOTE_LANGUAGE", "en")
	t.Setenv("VOXNOTE_CHUNK_SIZE", "2048")
	t.Setenv("VOXNOTE_VAD", "false")
	t.Setenv("VOXNOTE_PREFERENCE_TIMEOUT", "750ms")
	t.Setenv("VOXNOTE_PORT", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Model.Language != "en" {
		t.Errorf("Language = %q", cfg.Model.Language)
	}
	if cfg.Chunking.ChunkSize != 2048 {
		t.Errorf("ChunkSize = %d", cfg.Chunking.ChunkSize)
	}
	if cfg.VAD.Enabled {
		t.Error("VAD should be disabled")
	}
	if cfg.Model.PreferenceTimeout != 750*time.Millisecond {
		t.Errorf("PreferenceTimeout = %v", cfg.Model.PreferenceTimeout)
	}
	if cfg.Server.Port != 50051 {
		t.Errorf("Port = %d, unparseable value should be ignored", cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"overlap too large", func(c *Config) { c.Chunking.OverlapSize = c.Chunking.ChunkSize }},
		{"zero chunk", func(c *Config) { c.Chunking.ChunkSize = 0 }},
		{"bad threshold", func(c *Config) { c.VAD.Threshold = 2 }},
		{"bad channels", func(c *Config) { c.Audio.Channels = 6 }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
