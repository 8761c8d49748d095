// Package stt defines the contract between the chunk pipeline and an
// offline speech recognition engine.
package stt

import (
	"context"
	"fmt"
	"math"
	"os"
)

// Segment is a timed piece of recognized text. Times are relative to the
// start of the samples passed to Transcribe.
type Segment struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// Result represents a speech recognition result for one buffer
type Result struct {
	// Text is the recognized text
	Text string

	// Segments are the timed pieces of Text, in order
	Segments []Segment

	// Confidence is the recognition confidence (0.0 to 1.0)
	Confidence float64
}

// Config holds configuration for the STT engine
type Config struct {
	// ModelPath is the path to the STT model
	ModelPath string

	// Language is the requested transcription language, empty for auto
	Language string

	// SampleRate is the expected audio sample rate in Hz
	SampleRate int
}

// Engine is the interface for speech-to-text engines
type Engine interface {
	// Initialize loads the model described by config
	Initialize(config Config) error

	// Transcribe recognizes a mono float32 buffer at sampleRate. The engine
	// must not retain samples after returning.
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (*Result, error)

	// Close releases resources
	Close() error

	// IsInitialized returns true if the engine is initialized
	IsInitialized() bool
}

// ModelChecker is implemented by engines that can tell whether a model path
// is loadable before Initialize.
type ModelChecker interface {
	CheckModel(path string) error
}

// RequireModelDir reports an error unless path is an existing directory.
// Engines whose models are unpacked directories use it to reject single
// model files.
func RequireModelDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is a file, the engine expects a model directory", path)
	}
	return nil
}

// DefaultConfig returns a default STT configuration
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:  modelPath,
		SampleRate: 16000,
	}
}

// FloatToPCM16 converts normalized samples back to little-endian 16-bit PCM
// for engines that only accept integer input. dst is reused when large enough.
func FloatToPCM16(dst []byte, samples []float32) []byte {
	n := len(samples) * 2
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, s := range samples {
		v := int16(math.Round(float64(max(-1, min(1, s))) * 32767))
		dst[i*2] = byte(v)
		dst[i*2+1] = byte(uint16(v) >> 8)
	}
	return dst
}
