// Package vad provides an energy-based silence check for decoded chunks.
package vad

import "math"

// Config holds configuration for Voice Activity Detection
type Config struct {
	// Enabled turns silence skipping on
	Enabled bool

	// EnergyThreshold is the minimum RMS level to consider as speech
	// Typical values: 0.001 to 0.1 (lower = more sensitive)
	EnergyThreshold float64

	// FrameSamples is the analysis window. A chunk counts as speech as soon
	// as one frame exceeds the threshold.
	FrameSamples int
}

// DefaultConfig returns a default VAD configuration
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		EnergyThreshold: 0.01, // Moderate sensitivity
		FrameSamples:    480,  // 30ms at 16kHz
	}
}

// Detector decides whether a buffer of mono samples contains speech.
type Detector struct {
	config Config
}

// New creates a new detector
func New(config Config) *Detector {
	if config.FrameSamples <= 0 {
		config.FrameSamples = DefaultConfig().FrameSamples
	}
	return &Detector{config: config}
}

// Enabled reports whether silence skipping is on.
func (d *Detector) Enabled() bool {
	return d != nil && d.config.Enabled
}

// IsSilent returns true when no frame of samples exceeds the energy threshold.
func (d *Detector) IsSilent(samples []float32) bool {
	for start := 0; start < len(samples); start += d.config.FrameSamples {
		end := min(start+d.config.FrameSamples, len(samples))
		if RMS(samples[start:end]) > d.config.EnergyThreshold {
			return false
		}
	}
	return true
}

// RMS calculates the root mean square energy of samples
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
