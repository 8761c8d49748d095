// Package transcribe runs planned chunks through a speech engine and
// stitches the per-chunk results into one transcript.
package transcribe

import (
	"strings"

	"github.com/emmett/voxnote/internal/chunker"
	"github.com/emmett/voxnote/internal/stt"
)

// Segment is a span of recognized text with times relative to the start of
// the recording's data region.
type Segment struct {
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// ChunkResult is the engine output for one window. Segment times are
// relative to the window start.
type ChunkResult struct {
	Window   chunker.Window
	Text     string
	Segments []stt.Segment
	Skipped  bool
}

// Aggregator stitches chunk results in window order. Consecutive windows
// share OverlapSize bytes, so a segment recognized in the shared region shows
// up twice. The later copy is dropped when its midpoint falls before the end
// of the previous window.
type Aggregator struct {
	segments []Segment
	prevEnd  int64
	seen     bool
}

// Add appends the segments of r. Results must be added in window order.
func (a *Aggregator) Add(r ChunkResult) {
	start := r.Window.StartTime().Milliseconds()
	end := r.Window.EndTime().Milliseconds()

	if !r.Skipped {
		segs := r.Segments
		if len(segs) == 0 && strings.TrimSpace(r.Text) != "" {
			// Engine without timings
			segs = []stt.Segment{{StartMS: 0, EndMS: end - start, Text: r.Text}}
		}

		for _, s := range segs {
			abs := Segment{
				StartMS: start + s.StartMS,
				EndMS:   start + s.EndMS,
				Text:    strings.TrimSpace(s.Text),
			}
			if abs.Text == "" {
				continue
			}
			if a.seen && (abs.StartMS+abs.EndMS)/2 < a.prevEnd {
				continue
			}
			a.segments = append(a.segments, abs)
		}
	}

	a.prevEnd = end
	a.seen = true
}

// Segments returns the stitched segments.
func (a *Aggregator) Segments() []Segment {
	return a.segments
}

// Text joins the stitched segment texts with single spaces.
func (a *Aggregator) Text() string {
	texts := make([]string, 0, len(a.segments))
	for _, s := range a.segments {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}
