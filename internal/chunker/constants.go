// Package chunker plans overlapping byte windows over a WAV file's PCM
// region and decodes them one at a time into mono float32 samples.
package chunker

// Planning defaults. 10 MiB is roughly five minutes of 16 kHz stereo or ten
// minutes of 16 kHz mono audio.
const (
	DefaultChunkSize    = 10 * 1024 * 1024
	DefaultOverlapSize  = 1 * 1024 * 1024
	DefaultMinChunkSize = 5 * 1024 * 1024
)

// PCM normalization.
const (
	pcm16Max    = 32767.0
	bytesPerS16 = 2
)
