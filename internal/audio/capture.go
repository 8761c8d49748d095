// Package audio captures microphone input and records it to canonical WAV
// files that the chunk planner can read back.
package audio

import (
	"context"
	"time"

	"github.com/emmett/voxnote/internal/wav"
)

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// SampleRate is the number of samples per second (Hz)
	// Common values: 16000 (recommended for STT), 44100, 48000
	SampleRate uint32

	// Channels is the number of audio channels
	// 1 = mono (recommended for STT), 2 = stereo
	Channels uint32

	// BufferFrames is the number of frames per buffer
	// Smaller = lower latency, higher CPU usage
	BufferFrames uint32

	// SampleBufferSize is the size of the channel buffer for audio samples
	SampleBufferSize int

	// DeviceID is the audio device identifier
	// Empty string = use default device
	DeviceID string
}

// DefaultConfig returns a 16 kHz mono configuration
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:       16000, // 16kHz is optimal for most STT engines
		Channels:         1,     // Mono
		BufferFrames:     480,   // 30ms at 16kHz
		SampleBufferSize: 50,    // ~1.5 seconds of callbacks
		DeviceID:         "",    // Default device
	}
}

// WavFormat returns the WAV format captured samples are recorded in.
// Capture is always signed 16-bit.
func (c CaptureConfig) WavFormat() wav.Format {
	return wav.Format{
		Channels:      uint16(c.Channels),
		SampleRate:    c.SampleRate,
		BitsPerSample: 16,
	}
}

// AudioSample represents a chunk of captured audio data
type AudioSample struct {
	Data      []byte    // Raw little-endian S16 frames
	Timestamp time.Time // When the sample was captured
	Frames    uint32    // Number of audio frames in this sample
}

// Capturer is the interface for audio capture implementations
type Capturer interface {
	// Start begins audio capture
	Start(ctx context.Context) error

	// Stop stops audio capture
	Stop() error

	// Samples returns a channel that receives audio samples
	Samples() <-chan AudioSample

	// Errors returns a channel that receives capture errors
	Errors() <-chan error

	// IsRunning returns true if capture is currently active
	IsRunning() bool
}

// NewCapturer creates a new audio capturer with the given configuration
func NewCapturer(config CaptureConfig) (Capturer, error) {
	return NewMalgoCapturer(config)
}
