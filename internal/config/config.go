package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/emmett/voxnote/internal/audio/vad"
	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/output"
	"github.com/emmett/voxnote/internal/resilience"
)

// Config represents the application configuration
type Config struct {
	// Model settings
	Model struct {
		Language          string        `yaml:"language"`
		ModelsDir         string        `yaml:"models_dir"`
		EnginePath        string        `yaml:"engine_path"`
		PreferenceTimeout time.Duration `yaml:"preference_timeout"`
	} `yaml:"model"`

	// Chunking settings, sizes in bytes
	Chunking struct {
		ChunkSize    int64 `yaml:"chunk_size"`
		OverlapSize  int64 `yaml:"overlap_size"`
		MinChunkSize int64 `yaml:"min_chunk_size"`
		WipeScratch  bool  `yaml:"wipe_scratch"`
	} `yaml:"chunking"`

	// VAD settings
	VAD struct {
		Enabled   bool    `yaml:"enabled"`
		Threshold float64 `yaml:"threshold"`
	} `yaml:"vad"`

	// Output settings
	Output struct {
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"output"`

	// Audio settings
	Audio struct {
		Device     string `yaml:"device"`
		SampleRate uint32 `yaml:"sample_rate"`
		Channels   uint32 `yaml:"channels"`
	} `yaml:"audio"`

	// Server settings
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	// Retry settings for chunk reads
	Retry struct {
		MaxRetries int           `yaml:"max_retries"`
		BaseDelay  time.Duration `yaml:"base_delay"`
	} `yaml:"retry"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Model defaults
	cfg.Model.Language = ""
	cfg.Model.ModelsDir = ""
	cfg.Model.PreferenceTimeout = models.DefaultPreferenceTimeout

	// Chunking defaults
	opts := chunker.DefaultOptions()
	cfg.Chunking.ChunkSize = opts.ChunkSize
	cfg.Chunking.OverlapSize = opts.OverlapSize
	cfg.Chunking.MinChunkSize = opts.MinChunkSize
	cfg.Chunking.WipeScratch = true

	// VAD defaults
	cfg.VAD.Enabled = true
	cfg.VAD.Threshold = vad.DefaultConfig().EnergyThreshold

	// Output defaults
	cfg.Output.Format = output.FormatText
	cfg.Output.File = ""

	// Audio defaults
	cfg.Audio.Device = ""
	cfg.Audio.SampleRate = 16000
	cfg.Audio.Channels = 1

	// Server defaults
	cfg.Server.Port = 50051
	cfg.Server.Host = "localhost"

	// Retry defaults
	cfg.Retry.MaxRetries = resilience.DefaultMaxRetries
	cfg.Retry.BaseDelay = resilience.DefaultBaseDelay

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.voxnoterc > /etc/voxnote/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".voxnoterc")
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	systemConfigPath := "/etc/voxnote/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from VOXNOTE_* environment variables.
// Unparseable values are ignored.
func (c *Config) ApplyEnv() {
	c.Model.Language = getEnv("VOXNOTE_LANGUAGE", c.Model.Language)
	c.Model.ModelsDir = getEnv("VOXNOTE_MODELS_DIR", c.Model.ModelsDir)
	c.Model.EnginePath = getEnv("VOXNOTE_ENGINE_PATH", c.Model.EnginePath)
	c.Model.PreferenceTimeout = getEnvDuration("VOXNOTE_PREFERENCE_TIMEOUT", c.Model.PreferenceTimeout)

	c.Chunking.ChunkSize = getEnvInt64("VOXNOTE_CHUNK_SIZE", c.Chunking.ChunkSize)
	c.Chunking.OverlapSize = getEnvInt64("VOXNOTE_OVERLAP_SIZE", c.Chunking.OverlapSize)
	c.Chunking.MinChunkSize = getEnvInt64("VOXNOTE_MIN_CHUNK_SIZE", c.Chunking.MinChunkSize)
	c.Chunking.WipeScratch = getEnvBool("VOXNOTE_WIPE_SCRATCH", c.Chunking.WipeScratch)

	c.VAD.Enabled = getEnvBool("VOXNOTE_VAD", c.VAD.Enabled)
	c.VAD.Threshold = getEnvFloat("VOXNOTE_VAD_THRESHOLD", c.VAD.Threshold)

	c.Output.Format = getEnv("VOXNOTE_OUTPUT_FORMAT", c.Output.Format)
	c.Audio.Device = getEnv("VOXNOTE_AUDIO_DEVICE", c.Audio.Device)

	c.Server.Host = getEnv("VOXNOTE_HOST", c.Server.Host)
	c.Server.Port = int(getEnvInt64("VOXNOTE_PORT", int64(c.Server.Port)))
}

// Validate checks values that would otherwise fail deep inside a component
func (c *Config) Validate() error {
	if err := c.ChunkerOptions().Validate(); err != nil {
		return err
	}
	if c.Model.PreferenceTimeout < 0 {
		return fmt.Errorf("model.preference_timeout must not be negative")
	}
	if c.VAD.Threshold < 0 || c.VAD.Threshold > 1 {
		return fmt.Errorf("vad.threshold must be in [0, 1], got %v", c.VAD.Threshold)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if _, err := output.NewFormatter(c.Output.Format, nil); err != nil {
		return err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// ChunkerOptions returns the planner options
func (c *Config) ChunkerOptions() chunker.Options {
	return chunker.Options{
		ChunkSize:    c.Chunking.ChunkSize,
		OverlapSize:  c.Chunking.OverlapSize,
		MinChunkSize: c.Chunking.MinChunkSize,
	}
}

// ReaderOptions returns the chunk reader options
func (c *Config) ReaderOptions() chunker.ReaderOptions {
	return chunker.ReaderOptions{WipeScratch: c.Chunking.WipeScratch}
}

// VADConfig returns the silence detector configuration
func (c *Config) VADConfig() vad.Config {
	cfg := vad.DefaultConfig()
	cfg.Enabled = c.VAD.Enabled
	cfg.EnergyThreshold = c.VAD.Threshold
	return cfg
}

// RetryConfig returns the retry policy for chunk reads
func (c *Config) RetryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxRetries = c.Retry.MaxRetries
	cfg.BaseDelay = c.Retry.BaseDelay
	return cfg
}

// Addr returns host:port for the gRPC listener
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
