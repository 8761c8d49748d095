package models

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const languageFile = ".transcription_language"

// ModelsDir returns the directory where model files and preferences live.
// An empty override resolves to ./models in the working directory.
func ModelsDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, "models"), nil
}

// FileStore keeps the transcription language in a small file inside the
// models directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the preference file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, languageFile)
}

// TranscriptionLanguage returns the stored code or ErrPreferenceUnset.
func (s *FileStore) TranscriptionLanguage(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrPreferenceUnset
		}
		return "", fmt.Errorf("failed to read language preference: %w", err)
	}

	lang := strings.TrimSpace(string(data))
	if lang == "" {
		return "", ErrPreferenceUnset
	}
	return lang, nil
}

// SetTranscriptionLanguage stores lang, creating the directory if needed.
func (s *FileStore) SetTranscriptionLanguage(ctx context.Context, lang string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}

	if err := os.WriteFile(s.Path(), []byte(strings.TrimSpace(lang)), 0644); err != nil {
		return fmt.Errorf("failed to save language preference: %w", err)
	}
	return nil
}

// StaticStore is a read-only store holding a fixed value, used when the
// language comes from configuration rather than a persisted preference.
type StaticStore string

// TranscriptionLanguage returns the configured value or ErrPreferenceUnset.
func (s StaticStore) TranscriptionLanguage(context.Context) (string, error) {
	if s == "" {
		return "", ErrPreferenceUnset
	}
	return string(s), nil
}

// SetTranscriptionLanguage always fails for a StaticStore.
func (s StaticStore) SetTranscriptionLanguage(context.Context, string) error {
	return fmt.Errorf("language preference is fixed by configuration")
}

// ModelPath returns where the model file for d is expected on disk.
func ModelPath(dir string, d Descriptor) string {
	return filepath.Join(dir, d.Identifier)
}

// IsDownloaded reports whether the model file for d exists in dir.
func IsDownloaded(dir string, d Descriptor) (bool, error) {
	info, err := os.Stat(ModelPath(dir, d))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// ListDownloaded returns the catalog entries whose files exist in dir.
func ListDownloaded(dir string) ([]Descriptor, error) {
	var out []Descriptor
	for _, d := range Catalog() {
		ok, err := IsDownloaded(dir, d)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", d.Identifier, err)
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}
