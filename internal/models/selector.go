package models

import (
	"context"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/emmett/voxnote/internal/errors"
)

// DefaultPreferenceTimeout bounds the preference read in SelectedModel.
const DefaultPreferenceTimeout = 2 * time.Second

// ErrPreferenceUnset is returned by a PreferenceStore that holds no value.
var ErrPreferenceUnset = errors.New("transcription language not set")

// PreferenceStore reads and writes the user's transcription language.
type PreferenceStore interface {
	// TranscriptionLanguage returns the latest stored language code.
	TranscriptionLanguage(ctx context.Context) (string, error)
	// SetTranscriptionLanguage stores a language code.
	SetTranscriptionLanguage(ctx context.Context, lang string) error
}

// Selector resolves the active model from a PreferenceStore.
type Selector struct {
	store   PreferenceStore
	timeout time.Duration
	logger  *slog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithTimeout sets the preference read timeout.
func WithTimeout(d time.Duration) SelectorOption {
	return func(s *Selector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *slog.Logger) SelectorOption {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSelector creates a Selector over store. A nil store always resolves
// to the Multilingual model.
func NewSelector(store PreferenceStore, opts ...SelectorOption) *Selector {
	s := &Selector{
		store:   store,
		timeout: DefaultPreferenceTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectedModel reads the language preference once and maps it to a model.
// An unset, failed or timed-out read resolves to the Multilingual model.
func (s *Selector) SelectedModel(ctx context.Context) Descriptor {
	lang, err := s.language(ctx)
	if err != nil {
		if !errors.Is(err, ErrPreferenceUnset) {
			s.logger.Warn("preference unavailable, using multilingual model", "error", err)
		}
		return Lookup(Multilingual)
	}
	return Lookup(KindForLanguage(lang))
}

// DefaultModel returns the Compact model without consulting the store.
func (s *Selector) DefaultModel() Descriptor {
	return Lookup(Compact)
}

func (s *Selector) language(ctx context.Context) (string, error) {
	if s.store == nil {
		return "", ErrPreferenceUnset
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		lang string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		lang, err := s.store.TranscriptionLanguage(ctx)
		done <- result{lang, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && !errors.Is(r.err, ErrPreferenceUnset) {
			return "", apperrors.Wrap(r.err, apperrors.CodePreferenceUnavailable, "failed to read transcription language")
		}
		return r.lang, r.err
	case <-ctx.Done():
		return "", apperrors.Wrap(ctx.Err(), apperrors.CodePreferenceUnavailable, "transcription language read timed out")
	}
}
