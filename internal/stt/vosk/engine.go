// Package vosk adapts the Vosk offline recognizer to stt.Engine.
package vosk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	voskapi "github.com/alphacep/vosk-api/go"

	"github.com/emmett/voxnote/internal/stt"
)

// feedSamples is the number of samples handed to the recognizer per call
// (half a second at 16 kHz).
const feedSamples = 8000

var (
	_ stt.Engine       = (*Engine)(nil)
	_ stt.ModelChecker = (*Engine)(nil)
)

// Engine implements stt.Engine using Vosk
type Engine struct {
	model       *voskapi.VoskModel
	config      stt.Config
	mu          sync.Mutex
	initialized bool
	pcm         []byte
}

// voskResult represents the JSON result from Vosk
type voskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Conf  float64 `json:"conf"`
		End   float64 `json:"end"`
		Start float64 `json:"start"`
		Word  string  `json:"word"`
	} `json:"result,omitempty"`
}

// New creates a new Vosk STT engine
func New() *Engine {
	return &Engine{}
}

// CheckModel accepts only unpacked Vosk model directories.
func (v *Engine) CheckModel(path string) error {
	return stt.RequireModelDir(path)
}

// Initialize loads the Vosk model
func (v *Engine) Initialize(config stt.Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.initialized {
		return fmt.Errorf("engine already initialized")
	}

	voskapi.SetLogLevel(-1) // Suppress logs

	model, err := voskapi.NewModel(config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", config.ModelPath, err)
	}
	if model == nil {
		return fmt.Errorf("failed to load model from %s: model returned nil", config.ModelPath)
	}

	v.model = model
	v.config = config
	v.initialized = true
	return nil
}

// Transcribe feeds samples through a fresh recognizer and collects one
// segment per utterance Vosk finalizes.
func (v *Engine) Transcribe(ctx context.Context, samples []float32, sampleRate int) (*stt.Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil, fmt.Errorf("engine not initialized")
	}

	recognizer, err := voskapi.NewRecognizer(v.model, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	defer recognizer.Free()
	// Always enable word results to get timings and confidence scores
	recognizer.SetWords(1)

	var (
		result stt.Result
		confs  []float64
	)
	collect := func(raw string) error {
		var vr voskResult
		if err := json.Unmarshal([]byte(raw), &vr); err != nil {
			return fmt.Errorf("failed to parse result: %w", err)
		}
		if vr.Text == "" {
			return nil
		}
		seg := stt.Segment{Text: vr.Text}
		if len(vr.Result) > 0 {
			seg.StartMS = int64(vr.Result[0].Start * 1000)
			seg.EndMS = int64(vr.Result[len(vr.Result)-1].End * 1000)
		}
		for _, w := range vr.Result {
			confs = append(confs, w.Conf)
		}
		result.Segments = append(result.Segments, seg)
		return nil
	}

	for start := 0; start < len(samples); start += feedSamples {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := min(start+feedSamples, len(samples))
		v.pcm = stt.FloatToPCM16(v.pcm, samples[start:end])
		if recognizer.AcceptWaveform(v.pcm) > 0 {
			if err := collect(recognizer.Result()); err != nil {
				return nil, err
			}
		}
	}
	if err := collect(recognizer.FinalResult()); err != nil {
		return nil, err
	}
	clear(v.pcm)

	texts := make([]string, 0, len(result.Segments))
	for _, s := range result.Segments {
		texts = append(texts, s.Text)
	}
	result.Text = strings.Join(texts, " ")
	result.Confidence = average(confs)
	return &result, nil
}

// Close releases resources
func (v *Engine) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil
	}

	if v.model != nil {
		v.model.Free()
		v.model = nil
	}
	v.pcm = nil
	v.initialized = false
	return nil
}

// IsInitialized returns true if the engine is initialized
func (v *Engine) IsInitialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, c := range values {
		sum += c
	}
	return sum / float64(len(values))
}
