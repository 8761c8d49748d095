package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/emmett/voxnote/internal/audio"
	"github.com/emmett/voxnote/internal/wav"
)

// DeviceManager lists capture devices and records notes to WAV files
type DeviceManager struct {
	out    io.Writer
	logger *slog.Logger
}

// NewDeviceManager creates a new DeviceManager instance
func NewDeviceManager(out io.Writer, logger *slog.Logger) *DeviceManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeviceManager{out: out, logger: logger}
}

// ListDevices lists all available audio input devices
func (dm *DeviceManager) ListDevices() error {
	devices, err := audio.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if len(devices) == 0 {
		fmt.Fprintln(dm.out, "No audio capture devices found.")
		return fmt.Errorf("no devices found")
	}

	fmt.Fprintf(dm.out, "Found %d capture device(s):\n\n", len(devices))
	for i, device := range devices {
		marker := ""
		if device.IsDefault {
			marker = " [DEFAULT]"
		}
		fmt.Fprintf(dm.out, "%d. %s%s\n", i+1, device.Name, marker)
		fmt.Fprintf(dm.out, "   ID: %s\n", device.ID)
	}
	fmt.Fprintln(dm.out)
	fmt.Fprintln(dm.out, "To record from a specific device, run:")
	fmt.Fprintf(dm.out, "  voxnote record -device \"%s\" note.wav\n", devices[0].Name)
	return nil
}

// Record captures audio into a canonical WAV file at path until ctx is
// cancelled or maxDuration passes.
func (dm *DeviceManager) Record(ctx context.Context, path string, capture audio.CaptureConfig, maxDuration time.Duration) error {
	capturer, err := audio.NewCapturer(capture)
	if err != nil {
		return fmt.Errorf("failed to create capturer: %w", err)
	}

	format := capture.WavFormat()
	w, err := wav.Create(path, format)
	if err != nil {
		return err
	}

	rec := audio.NewRecorder(capturer, w, dm.logger)
	runErr := rec.Run(ctx, maxDuration)
	closeErr := w.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, closeErr)
	}

	seconds := format.Duration(w.Size()).Seconds()
	fmt.Fprintf(dm.out, "✓ Recorded %.1fs to %s\n", seconds, path)
	if rec.Dropped() > 0 {
		fmt.Fprintf(dm.out, "  %d capture error(s), see log for details\n", rec.Dropped())
	}
	return nil
}
