// Package wav reads and writes canonical 44-byte PCM WAV headers.
//
// Only the canonical layout is understood: "RIFF", "WAVE", a 16-byte "fmt "
// chunk and the "data" chunk starting at byte 36. Files that carry extra
// chunks (LIST, fact, ...) before "data" are not detected and yield wrong
// offsets.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	apperrors "github.com/emmett/voxnote/internal/errors"
)

// HeaderSize is the size of a canonical WAV header in bytes.
const HeaderSize = 44

// Fixed header offsets.
const (
	offRIFF          = 0
	offRIFFSize      = 4
	offWAVE          = 8
	offFmt           = 12
	offFmtSize       = 16
	offAudioFormat   = 20
	offChannels      = 22
	offSampleRate    = 24
	offByteRate      = 28
	offBlockAlign    = 32
	offBitsPerSample = 34
	offData          = 36
	offDataSize      = 40
)

// Format is the metadata of a WAV file, produced once per file.
type Format struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataSize      uint32
}

// BlockAlign returns the size of one frame in bytes.
func (f Format) BlockAlign() int {
	return int(f.Channels) * int(f.BitsPerSample) / 8
}

// ByteRate returns the number of PCM bytes per second of audio.
func (f Format) ByteRate() int64 {
	return int64(f.SampleRate) * int64(f.BlockAlign())
}

// DataStart returns the file offset of the first PCM byte.
func (f Format) DataStart() int64 { return HeaderSize }

// DataEnd returns the exclusive file offset of the PCM data region.
func (f Format) DataEnd() int64 { return HeaderSize + int64(f.DataSize) }

// Duration returns the playback duration of n PCM bytes.
func (f Format) Duration(n int64) time.Duration {
	rate := f.ByteRate()
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(rate) * float64(time.Second))
}

// Validate reports whether the PCM layout is one the decoder supports:
// 16-bit samples, mono or stereo.
func (f Format) Validate() error {
	if f.Channels != 1 && f.Channels != 2 {
		return apperrors.Newf(apperrors.CodeFormat, "unsupported channel count: %d", f.Channels).
			WithMetadata("channels", fmt.Sprint(f.Channels))
	}
	if f.BitsPerSample != 16 {
		return apperrors.Newf(apperrors.CodeFormat, "unsupported bit depth: %d", f.BitsPerSample).
			WithMetadata("bits_per_sample", fmt.Sprint(f.BitsPerSample))
	}
	if f.SampleRate == 0 {
		return apperrors.New(apperrors.CodeFormat, "sample rate is zero")
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d bit, %d data bytes",
		f.SampleRate, f.Channels, f.BitsPerSample, f.DataSize)
}

// ParseHeader reads exactly HeaderSize bytes from r and extracts the format.
// The magic bytes are checked before any field is decoded.
func ParseHeader(r io.Reader) (*Format, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, apperrors.Wrap(err, apperrors.CodeFormat, "not a valid WAV container: shorter than header")
		}
		return nil, apperrors.Wrap(err, apperrors.CodeIO, "failed to read WAV header")
	}

	if string(header[offRIFF:offRIFF+4]) != "RIFF" || string(header[offWAVE:offWAVE+4]) != "WAVE" {
		return nil, apperrors.New(apperrors.CodeFormat, "not a valid WAV container")
	}

	le := binary.LittleEndian
	return &Format{
		Channels:      le.Uint16(header[offChannels:]),
		SampleRate:    le.Uint32(header[offSampleRate:]),
		BitsPerSample: le.Uint16(header[offBitsPerSample:]),
		DataSize:      le.Uint32(header[offDataSize:]),
	}, nil
}

// ReadHeader opens path and parses its header.
func ReadHeader(path string) (*Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeIO, "failed to open %s", path)
	}
	defer f.Close()

	return ParseHeader(f)
}

// EncodeHeader returns the canonical header for f.
func EncodeHeader(f Format) []byte {
	header := make([]byte, HeaderSize)
	le := binary.LittleEndian

	copy(header[offRIFF:], "RIFF")
	le.PutUint32(header[offRIFFSize:], 36+f.DataSize)
	copy(header[offWAVE:], "WAVE")

	copy(header[offFmt:], "fmt ")
	le.PutUint32(header[offFmtSize:], 16)
	le.PutUint16(header[offAudioFormat:], 1) // PCM
	le.PutUint16(header[offChannels:], f.Channels)
	le.PutUint32(header[offSampleRate:], f.SampleRate)
	le.PutUint32(header[offByteRate:], uint32(f.ByteRate()))
	le.PutUint16(header[offBlockAlign:], uint16(f.BlockAlign()))
	le.PutUint16(header[offBitsPerSample:], f.BitsPerSample)

	copy(header[offData:], "data")
	le.PutUint32(header[offDataSize:], f.DataSize)

	return header
}
