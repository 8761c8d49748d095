package transcribe

import (
	"time"

	"github.com/emmett/voxnote/internal/wav"
)

// AudioInfo summarizes the source recording.
type AudioInfo struct {
	Channels      uint16 `json:"channels"`
	SampleRate    uint32 `json:"sample_rate"`
	BitsPerSample uint16 `json:"bits_per_sample"`
	DataBytes     uint32 `json:"data_bytes"`
	DurationMS    int64  `json:"duration_ms"`
}

func audioInfo(f *wav.Format) AudioInfo {
	return AudioInfo{
		Channels:      f.Channels,
		SampleRate:    f.SampleRate,
		BitsPerSample: f.BitsPerSample,
		DataBytes:     f.DataSize,
		DurationMS:    f.Duration(int64(f.DataSize)).Milliseconds(),
	}
}

// ChunkSummary records what happened to one window.
type ChunkSummary struct {
	Index   int    `json:"index"`
	StartMS int64  `json:"start_ms"`
	EndMS   int64  `json:"end_ms"`
	Skipped bool   `json:"skipped,omitempty"`
	Text    string `json:"text,omitempty"`
}

func summarize(r ChunkResult) ChunkSummary {
	return ChunkSummary{
		Index:   r.Window.Index,
		StartMS: r.Window.StartTime().Milliseconds(),
		EndMS:   r.Window.EndTime().Milliseconds(),
		Skipped: r.Skipped,
		Text:    r.Text,
	}
}

// Transcript is the stitched result of transcribing one recording.
type Transcript struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Model     string         `json:"model,omitempty"`
	Audio     AudioInfo      `json:"audio"`
	Chunks    []ChunkSummary `json:"chunks"`
	Segments  []Segment      `json:"segments"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
}

// Covered returns the audio span the plan reached, which may stop short of
// the recording's end.
func (t *Transcript) Covered() time.Duration {
	if len(t.Chunks) == 0 {
		return 0
	}
	return time.Duration(t.Chunks[len(t.Chunks)-1].EndMS) * time.Millisecond
}

// SkippedChunks returns the number of windows not sent to the engine.
func (t *Transcript) SkippedChunks() int {
	n := 0
	for _, c := range t.Chunks {
		if c.Skipped {
			n++
		}
	}
	return n
}
