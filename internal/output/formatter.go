// Package output renders plans, model listings and transcripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/transcribe"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// PlanEntry is the serialized form of a chunker.Window
type PlanEntry struct {
	Index       int     `json:"index"`
	StartOffset int64   `json:"start_offset"`
	EndOffset   int64   `json:"end_offset"`
	Bytes       int64   `json:"bytes"`
	StartMS     int64   `json:"start_ms"`
	Seconds     float64 `json:"seconds"`
	IsFirst     bool    `json:"is_first"`
	IsLast      bool    `json:"is_last"`
}

// NewPlanEntries converts windows for serialization
func NewPlanEntries(plan []chunker.Window) []PlanEntry {
	entries := make([]PlanEntry, 0, len(plan))
	for _, w := range plan {
		entries = append(entries, PlanEntry{
			Index:       w.Index,
			StartOffset: w.StartOffset,
			EndOffset:   w.EndOffset,
			Bytes:       w.SizeBytes(),
			StartMS:     w.StartTime().Milliseconds(),
			Seconds:     w.DurationSeconds(),
			IsFirst:     w.IsFirst,
			IsLast:      w.IsLast,
		})
	}
	return entries
}

// ModelEntry is one catalog row with local availability
type ModelEntry struct {
	models.Descriptor
	Selected   bool `json:"selected"`
	Downloaded bool `json:"downloaded"`
}

// Formatter is the interface for output formatters
type Formatter interface {
	// WriteTranscript writes a finished transcript
	WriteTranscript(t *transcribe.Transcript) error

	// WritePlan writes a chunk plan
	WritePlan(path string, plan []chunker.Window) error

	// WriteModels writes the model catalog
	WriteModels(entries []ModelEntry) error
}

// NewFormatter returns the formatter registered for format
func NewFormatter(format string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewPlainTextFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

// JSONFormatter outputs indented JSON documents
type JSONFormatter struct {
	encoder *json.Encoder
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return &JSONFormatter{encoder: encoder}
}

// WriteTranscript writes the transcript as one JSON object
func (j *JSONFormatter) WriteTranscript(t *transcribe.Transcript) error {
	return j.encoder.Encode(t)
}

// WritePlan writes the plan as one JSON object
func (j *JSONFormatter) WritePlan(path string, plan []chunker.Window) error {
	return j.encoder.Encode(struct {
		Path   string      `json:"path"`
		Chunks []PlanEntry `json:"chunks"`
	}{Path: path, Chunks: NewPlanEntries(plan)})
}

// WriteModels writes the catalog as a JSON array
func (j *JSONFormatter) WriteModels(entries []ModelEntry) error {
	return j.encoder.Encode(entries)
}

// PlainTextFormatter outputs human-readable text
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{writer: writer}
}

// WriteTranscript writes one timestamped line per segment
func (p *PlainTextFormatter) WriteTranscript(t *transcribe.Transcript) error {
	var b strings.Builder
	for _, s := range t.Segments {
		fmt.Fprintf(&b, "[%s] %s\n", clock(s.StartMS), s.Text)
	}
	if len(t.Segments) == 0 {
		b.WriteString("(no speech detected)\n")
	}
	_, err := io.WriteString(p.writer, b.String())
	return err
}

// WritePlan writes one line per window
func (p *PlainTextFormatter) WritePlan(path string, plan []chunker.Window) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d chunk(s)\n", path, len(plan))
	for _, w := range plan {
		fmt.Fprintf(&b, "  %s\n", w)
	}
	_, err := io.WriteString(p.writer, b.String())
	return err
}

// WriteModels writes one line per catalog entry
func (p *PlainTextFormatter) WriteModels(entries []ModelEntry) error {
	var b strings.Builder
	for _, e := range entries {
		marker := " "
		if e.Selected {
			marker = "*"
		}
		status := "not downloaded"
		if e.Downloaded {
			status = "downloaded"
		}
		fmt.Fprintf(&b, "%s %-18s %-7s %s (%s)\n", marker, e.Identifier, e.ApproximateSize, e.Description, status)
	}
	_, err := io.WriteString(p.writer, b.String())
	return err
}

func clock(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
