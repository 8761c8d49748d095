package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emmett/voxnote/internal/wav"
)

// SampleSink receives raw S16 frames. *wav.Writer satisfies it.
type SampleSink interface {
	Write(p []byte) (int, error)
}

var _ SampleSink = (*wav.Writer)(nil)

// Recorder drains a Capturer into a sink until the context ends, the
// duration limit passes or capture stops.
type Recorder struct {
	capturer Capturer
	sink     SampleSink
	logger   *slog.Logger

	frames  uint64
	dropped int
}

// NewRecorder creates a recorder. A nil logger uses slog.Default.
func NewRecorder(capturer Capturer, sink SampleSink, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{capturer: capturer, sink: sink, logger: logger}
}

// Run starts capture and blocks until recording ends. A zero maxDuration
// records until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, maxDuration time.Duration) error {
	if maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxDuration)
		defer cancel()
	}

	if err := r.capturer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	defer func() { _ = r.capturer.Stop() }()

	samples := r.capturer.Samples()
	errs := r.capturer.Errors()
	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				return nil
			}
			if err := r.write(sample); err != nil {
				return err
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			r.dropped++
			r.logger.Warn("capture error", "error", err)

		case <-ctx.Done():
			err := r.drain(samples)
			r.logger.Debug("recording finished", "frames", r.frames, "errors", r.dropped)
			return err
		}
	}
}

// drain writes samples already buffered by the capturer without waiting
// for more.
func (r *Recorder) drain(samples <-chan AudioSample) error {
	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				return nil
			}
			if err := r.write(sample); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *Recorder) write(sample AudioSample) error {
	if _, err := r.sink.Write(sample.Data); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	r.frames += uint64(sample.Frames)
	return nil
}

// Frames returns the number of frames written so far
func (r *Recorder) Frames() uint64 {
	return r.frames
}

// Dropped returns the number of capture errors observed
func (r *Recorder) Dropped() int {
	return r.dropped
}
