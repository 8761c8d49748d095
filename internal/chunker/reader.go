package chunker

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"

	apperrors "github.com/emmett/voxnote/internal/errors"
)

// DecodedChunk is the mono float32 rendition of one window.
type DecodedChunk struct {
	Index       int
	StartOffset int64
	EndOffset   int64
	// Samples aliases the Reader's scratch buffer and is only valid until
	// the next Read or Release on that Reader. Use Clone to keep it.
	Samples []float32
}

// Clone returns a copy whose samples are independent of the Reader.
func (c *DecodedChunk) Clone() *DecodedChunk {
	out := *c
	out.Samples = append([]float32(nil), c.Samples...)
	return &out
}

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// WipeScratch zeroes the raw PCM scratch after every decode so that
	// audio bytes do not linger in memory.
	WipeScratch bool
	Logger      *slog.Logger
}

// DefaultReaderOptions returns options with WipeScratch enabled.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{WipeScratch: true}
}

// Reader reads planned windows and decodes them. Its scratch buffers grow
// to the largest window seen and are reused across calls, so peak memory is
// bounded by the largest window rather than the file size.
//
// A Reader is not safe for concurrent use. Use one Reader per worker.
type Reader struct {
	opts    ReaderOptions
	logger  *slog.Logger
	raw     scratch[byte]
	samples scratch[float32]
}

// NewReader creates a Reader.
func NewReader(opts ReaderOptions) *Reader {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{opts: opts, logger: logger}
}

// Read opens the window's file and decodes the window.
func (r *Reader) Read(w Window) (*DecodedChunk, error) {
	if err := w.Format.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(w.Path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeIO, "failed to open %s", w.Path).
			WithMetadata("chunk", strconv.Itoa(w.Index))
	}
	defer f.Close()

	return r.ReadFrom(f, w)
}

// ReadFrom decodes the window from an already open handle. A read that ends
// early at EOF is not an error and yields correspondingly fewer samples.
func (r *Reader) ReadFrom(src io.ReaderAt, w Window) (*DecodedChunk, error) {
	if err := w.Format.Validate(); err != nil {
		return nil, err
	}

	size := int(w.SizeBytes())
	if size < 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument,
			"window %d ends before it starts (%d > %d)", w.Index, w.StartOffset, w.EndOffset)
	}

	if (w.StartOffset-w.Format.DataStart())%int64(w.Format.BlockAlign()) != 0 {
		return nil, apperrors.Newf(apperrors.CodeInvalidArgument,
			"window %d starts mid-frame at offset %d", w.Index, w.StartOffset)
	}

	raw := r.raw.get(size)
	n, err := src.ReadAt(raw, w.StartOffset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.Wrapf(err, apperrors.CodeIO, "failed to read chunk %d at offset %d", w.Index, w.StartOffset).
			WithMetadata("path", w.Path)
	}
	if n < size {
		r.logger.Debug("short chunk read", "index", w.Index, "want", size, "got", n)
	}

	frames := n / (int(w.Format.Channels) * bytesPerS16)
	samples := r.samples.get(frames)
	decoded, err := Decode(samples, raw[:n], w.Format.Channels)
	if r.opts.WipeScratch {
		clear(raw[:n])
	}
	if err != nil {
		return nil, err
	}

	return &DecodedChunk{
		Index:       w.Index,
		StartOffset: w.StartOffset,
		EndOffset:   w.EndOffset,
		Samples:     samples[:decoded],
	}, nil
}

// Release drops both scratch buffers.
func (r *Reader) Release() {
	r.raw.release()
	r.samples.release()
}

// Capacity returns the current raw byte and sample scratch capacities.
func (r *Reader) Capacity() (raw, samples int) {
	return r.raw.capacity(), r.samples.capacity()
}

// Decode converts little-endian signed 16-bit PCM frames in src into mono
// samples in dst and returns the number of samples written. Stereo frames
// are averaged. A trailing partial frame is ignored.
func Decode(dst []float32, src []byte, channels uint16) (int, error) {
	le := binary.LittleEndian
	switch channels {
	case 1:
		n := min(len(dst), len(src)/bytesPerS16)
		for i := 0; i < n; i++ {
			s := int16(le.Uint16(src[i*2:]))
			dst[i] = clamp(float32(s) / pcm16Max)
		}
		return n, nil
	case 2:
		n := min(len(dst), len(src)/(2*bytesPerS16))
		for i := 0; i < n; i++ {
			left := int16(le.Uint16(src[i*4:]))
			right := int16(le.Uint16(src[i*4+2:]))
			dst[i] = clamp((float32(left) + float32(right)) / (pcm16Max * 2))
		}
		return n, nil
	default:
		return 0, apperrors.Newf(apperrors.CodeFormat, "unsupported channel count: %d", channels)
	}
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
