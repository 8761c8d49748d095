package wav

import (
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// Writer streams PCM data into a canonical WAV file. The header is written
// up front with a zero data size and patched on Close.
type Writer struct {
	mu     sync.Mutex
	w      io.WriteSeeker
	closer io.Closer
	format Format
	size   int64
	closed bool
}

// NewWriter writes a placeholder header to w. DataSize in format is ignored.
func NewWriter(w io.WriteSeeker, format Format) (*Writer, error) {
	format.DataSize = 0
	if _, err := w.Write(EncodeHeader(format)); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return &Writer{w: w, format: format}, nil
}

// Create creates the file at path and returns a Writer that closes it.
func Create(path string, format Format) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	wr, err := NewWriter(f, format)
	if err != nil {
		f.Close()
		return nil, err
	}
	wr.closer = f
	return wr, nil
}

// Write appends raw little-endian PCM bytes.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, fmt.Errorf("write to closed WAV writer")
	}
	if w.size+int64(len(p)) > math.MaxUint32 {
		return 0, fmt.Errorf("WAV data exceeds 4 GiB limit")
	}
	n, err := w.w.Write(p)
	w.size += int64(n)
	return n, err
}

// WriteSamples appends int16 samples (interleaved when stereo).
func (w *Writer) WriteSamples(samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(uint16(s) >> 8)
	}
	_, err := w.Write(buf)
	return err
}

// Size returns the number of PCM bytes written so far.
func (w *Writer) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Close patches the RIFF and data sizes and closes the underlying file if
// the Writer owns it.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.format.DataSize = uint32(w.size)
	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to WAV header: %w", err)
	}
	if _, err := w.w.Write(EncodeHeader(w.format)); err != nil {
		return fmt.Errorf("failed to patch WAV header: %w", err)
	}
	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to WAV end: %w", err)
	}

	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
