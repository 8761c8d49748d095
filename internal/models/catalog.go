// Package models holds the transcription model catalog and resolves which
// model to use from the stored language preference.
package models

import "fmt"

// Kind identifies one of the two catalog entries.
type Kind int

const (
	// Compact is the English-only model.
	Compact Kind = iota
	// Multilingual covers every other language.
	Multilingual
)

func (k Kind) String() string {
	switch k {
	case Compact:
		return "compact"
	case Multilingual:
		return "multilingual"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "compact":
		*k = Compact
	case "multilingual":
		*k = Multilingual
	default:
		return fmt.Errorf("unknown model kind %q", b)
	}
	return nil
}

// Descriptor describes one transcription model.
type Descriptor struct {
	Kind            Kind   `json:"kind" yaml:"kind"`
	Identifier      string `json:"identifier" yaml:"identifier"`
	ApproximateSize string `json:"approximate_size" yaml:"approximate_size"`
	Description     string `json:"description" yaml:"description"`
	DownloadURL     string `json:"download_url" yaml:"download_url"`
}

// DownloadMessage returns the prompt shown before fetching the model.
func (d Descriptor) DownloadMessage() string {
	return fmt.Sprintf("File size: approximately %s\n%s", d.ApproximateSize, d.Description)
}

var catalog = map[Kind]Descriptor{
	Compact: {
		Kind:            Compact,
		Identifier:      "ggml-base-en.bin",
		ApproximateSize: "139 MB",
		Description:     "English-optimized model (faster, smaller)",
		DownloadURL:     "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
	},
	Multilingual: {
		Kind:            Multilingual,
		Identifier:      "ggml-base-hi.bin",
		ApproximateSize: "140 MB",
		Description:     "Multilingual model (supports 50+ languages)",
		DownloadURL:     "https://huggingface.co/khidrew/whisper-base-hindi-ggml/resolve/main/ggml-base-hi.bin",
	},
}

// EnglishLanguage is the only preference value that selects the Compact model.
const EnglishLanguage = "en"

// Lookup returns the descriptor for kind. Unknown kinds fall back to Multilingual.
func Lookup(kind Kind) Descriptor {
	if d, ok := catalog[kind]; ok {
		return d
	}
	return catalog[Multilingual]
}

// Catalog returns all descriptors in Kind order.
func Catalog() []Descriptor {
	return []Descriptor{catalog[Compact], catalog[Multilingual]}
}

// FindByIdentifier finds a descriptor by its identifier.
func FindByIdentifier(id string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Identifier == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// KindForLanguage maps a language preference to a model kind. This is a
// fixed two-way split, not locale matching: "en" is Compact and every other
// value, including "", is Multilingual.
func KindForLanguage(lang string) Kind {
	if lang == EnglishLanguage {
		return Compact
	}
	return Multilingual
}
