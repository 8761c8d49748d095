package chunker

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	apperrors "github.com/emmett/voxnote/internal/errors"
	"github.com/emmett/voxnote/internal/wav"
)

// Options controls window size, overlap and the tail cutoff.
type Options struct {
	// ChunkSize is the maximum window size in bytes.
	ChunkSize int64
	// OverlapSize is the number of bytes each window shares with its predecessor.
	OverlapSize int64
	// MinChunkSize stops planning once fewer bytes than this remain past
	// the next stride.
	MinChunkSize int64
}

// DefaultOptions returns 10 MiB windows with 1 MiB overlap and a 5 MiB tail cutoff.
func DefaultOptions() Options {
	return Options{
		ChunkSize:    DefaultChunkSize,
		OverlapSize:  DefaultOverlapSize,
		MinChunkSize: DefaultMinChunkSize,
	}
}

// Validate checks the option invariants.
func (o Options) Validate() error {
	switch {
	case o.ChunkSize <= 0:
		return apperrors.Newf(apperrors.CodeInvalidArgument, "chunk size must be positive, got %d", o.ChunkSize)
	case o.OverlapSize < 0 || o.OverlapSize >= o.ChunkSize:
		return apperrors.Newf(apperrors.CodeInvalidArgument, "overlap %d must be in [0, %d)", o.OverlapSize, o.ChunkSize)
	case o.MinChunkSize < 0 || o.MinChunkSize > o.ChunkSize:
		return apperrors.Newf(apperrors.CodeInvalidArgument, "min chunk size %d must be in [0, %d]", o.MinChunkSize, o.ChunkSize)
	}
	return nil
}

// ValidateFor checks that windows planned with o start and end on frame
// boundaries of format. A misaligned stride would split frames and decode
// bytes from neighbouring samples together.
func (o Options) ValidateFor(format *wav.Format) error {
	align := int64(format.BlockAlign())
	if align <= 0 {
		return apperrors.Newf(apperrors.CodeFormat, "invalid block align %d", align)
	}
	if o.ChunkSize%align != 0 || o.OverlapSize%align != 0 {
		return apperrors.Newf(apperrors.CodeInvalidArgument,
			"chunk size %d and overlap %d must be multiples of the %d-byte frame size",
			o.ChunkSize, o.OverlapSize, align).
			WithMetadata("block_align", strconv.FormatInt(align, 10))
	}
	return nil
}

// Stride is the distance between the start offsets of consecutive windows.
func (o Options) Stride() int64 { return o.ChunkSize - o.OverlapSize }

// Window is one planned byte range of a WAV file. Offsets are absolute file
// offsets and EndOffset is exclusive.
type Window struct {
	Index       int
	Path        string
	StartOffset int64
	EndOffset   int64
	Format      *wav.Format
	IsFirst     bool
	IsLast      bool
}

// SizeBytes returns the number of bytes covered by the window.
func (w Window) SizeBytes() int64 { return w.EndOffset - w.StartOffset }

// DurationSeconds returns the audio length of the window.
func (w Window) DurationSeconds() float64 {
	rate := w.Format.ByteRate()
	if rate == 0 {
		return 0
	}
	return float64(w.SizeBytes()) / float64(rate)
}

// Duration returns the audio length of the window.
func (w Window) Duration() time.Duration {
	return w.Format.Duration(w.SizeBytes())
}

// StartTime returns the position of the window's first byte in the audio timeline.
func (w Window) StartTime() time.Duration {
	return w.Format.Duration(w.StartOffset - w.Format.DataStart())
}

// EndTime returns the position just past the window's last byte.
func (w Window) EndTime() time.Duration {
	return w.Format.Duration(w.EndOffset - w.Format.DataStart())
}

func (w Window) String() string {
	return fmt.Sprintf("chunk %d: %d-%d (%d bytes, ~%.1fs)",
		w.Index, w.StartOffset, w.EndOffset, w.SizeBytes(), w.DurationSeconds())
}

// Planner computes chunk plans.
type Planner struct {
	opts   Options
	logger *slog.Logger
}

// NewPlanner creates a planner. A nil logger uses slog.Default().
func NewPlanner(opts Options, logger *slog.Logger) (*Planner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{opts: opts, logger: logger}, nil
}

// Plan is a convenience wrapper for NewPlanner(opts, nil).Plan(path).
func Plan(path string, opts Options) ([]Window, error) {
	p, err := NewPlanner(opts, nil)
	if err != nil {
		return nil, err
	}
	return p.Plan(path)
}

// Plan opens path, parses its header once and returns the ordered windows.
func (p *Planner) Plan(path string) ([]Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeIO, "failed to open %s", path)
	}
	defer f.Close()

	return p.PlanReader(f, path)
}

// PlanReader parses the header from r and plans windows tagged with path.
func (p *Planner) PlanReader(r io.Reader, path string) ([]Window, error) {
	format, err := wav.ParseHeader(r)
	if err != nil {
		return nil, err
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return p.PlanFormat(format, path)
}

// PlanFormat walks the data region of format in strides of
// ChunkSize-OverlapSize. Planning stops early, marking the last emitted
// window IsLast, once the bytes remaining past the next stride drop below
// MinChunkSize, so the tail of the data region may be left uncovered.
// An empty data region yields a single zero-length window. Options that
// would split frames of format are rejected.
func (p *Planner) PlanFormat(format *wav.Format, path string) ([]Window, error) {
	if err := p.opts.ValidateFor(format); err != nil {
		return nil, err
	}

	dataStart := format.DataStart()
	dataEnd := format.DataEnd()
	stride := p.opts.Stride()

	if dataEnd == dataStart {
		return []Window{{
			Path:        path,
			StartOffset: dataStart,
			EndOffset:   dataStart,
			Format:      format,
			IsFirst:     true,
			IsLast:      true,
		}}, nil
	}

	p.logger.Debug("planning chunks",
		"path", path,
		"data_bytes", format.DataSize,
		"chunk_bytes", p.opts.ChunkSize,
		"overlap_bytes", p.opts.OverlapSize)

	var windows []Window
	for offset := dataStart; offset < dataEnd; offset += stride {
		remaining := dataEnd - offset
		w := Window{
			Index:       len(windows),
			Path:        path,
			StartOffset: offset,
			EndOffset:   offset + min(p.opts.ChunkSize, remaining),
			Format:      format,
			IsFirst:     len(windows) == 0,
		}
		w.IsLast = w.EndOffset >= dataEnd || remaining-stride < p.opts.MinChunkSize
		windows = append(windows, w)

		p.logger.Debug("planned chunk",
			"index", w.Index,
			"start", w.StartOffset,
			"end", w.EndOffset,
			"bytes", w.SizeBytes(),
			"seconds", w.DurationSeconds())

		if w.IsLast {
			break
		}
	}

	p.logger.Debug("plan complete", "path", path, "chunks", len(windows))
	return windows, nil
}

// Coverage returns the region [start, end) spanned by plan.
func Coverage(plan []Window) (start, end int64) {
	if len(plan) == 0 {
		return 0, 0
	}
	return plan[0].StartOffset, plan[len(plan)-1].EndOffset
}
