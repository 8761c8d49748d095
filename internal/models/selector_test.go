package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeStore struct {
	lang  string
	err   error
	block bool
	calls int
}

func (f *fakeStore) TranscriptionLanguage(ctx context.Context) (string, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.lang, f.err
}

func (f *fakeStore) SetTranscriptionLanguage(_ context.Context, lang string) error {
	f.lang = lang
	return nil
}

func TestSelectedModelByLanguage(t *testing.T) {
	tests := []struct {
		name string
		lang string
		err  error
		want Kind
	}{
		{"english", "en", nil, Compact},
		{"hindi", "hi", nil, Multilingual},
		{"empty", "", nil, Multilingual},
		{"unset", "", ErrPreferenceUnset, Multilingual},
		{"regional english", "en-US", nil, Multilingual},
		{"store failure", "en", errors.New("disk gone"), Multilingual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{lang: tt.lang, err: tt.err}
			got := NewSelector(store).SelectedModel(context.Background())
			if got.Kind != tt.want {
				t.Errorf("SelectedModel() = %s, want %s", got.Kind, tt.want)
			}
			if store.calls != 1 {
				t.Errorf("store read %d times, want 1", store.calls)
			}
		})
	}
}

func TestSelectedModelTimeout(t *testing.T) {
	store := &fakeStore{block: true}
	s := NewSelector(store, WithTimeout(20*time.Millisecond))

	start := time.Now()
	got := s.SelectedModel(context.Background())
	if got.Kind != Multilingual {
		t.Errorf("SelectedModel() = %s, want multilingual", got.Kind)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("SelectedModel blocked for %v", elapsed)
	}
}

func TestSelectedModelNilStore(t *testing.T) {
	if got := NewSelector(nil).SelectedModel(context.Background()); got.Kind != Multilingual {
		t.Errorf("SelectedModel() = %s, want multilingual", got.Kind)
	}
}

func TestDefaultModelIsCompact(t *testing.T) {
	store := &fakeStore{lang: "hi"}
	s := NewSelector(store)
	got := s.DefaultModel()
	if got.Kind != Compact || got.Identifier != "ggml-base-en.bin" {
		t.Errorf("DefaultModel() = %+v", got)
	}
	if store.calls != 0 {
		t.Error("DefaultModel must not read the store")
	}
}

func TestCatalogDescriptors(t *testing.T) {
	all := Catalog()
	if len(all) != 2 {
		t.Fatalf("len(Catalog()) = %d, want 2", len(all))
	}
	if all[0].Kind != Compact || all[1].Kind != Multilingual {
		t.Errorf("catalog order = %s, %s", all[0].Kind, all[1].Kind)
	}
	if all[0].ApproximateSize != "139 MB" || all[1].ApproximateSize != "140 MB" {
		t.Errorf("sizes = %q, %q", all[0].ApproximateSize, all[1].ApproximateSize)
	}

	// Strings are stable across calls.
	if Lookup(Compact) != Lookup(Compact) {
		t.Error("Lookup(Compact) not stable")
	}

	msg := Lookup(Multilingual).DownloadMessage()
	if !strings.HasPrefix(msg, "File size: approximately 140 MB\n") {
		t.Errorf("DownloadMessage() = %q", msg)
	}

	d, ok := FindByIdentifier("ggml-base-hi.bin")
	if !ok || d.Kind != Multilingual {
		t.Errorf("FindByIdentifier = %+v, %v", d, ok)
	}
	if _, ok := FindByIdentifier("ggml-large.bin"); ok {
		t.Error("unknown identifier should not be found")
	}
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	store := NewFileStore(dir)
	ctx := context.Background()

	if _, err := store.TranscriptionLanguage(ctx); !errors.Is(err, ErrPreferenceUnset) {
		t.Fatalf("err = %v, want ErrPreferenceUnset", err)
	}

	if err := store.SetTranscriptionLanguage(ctx, " en\n"); err != nil {
		t.Fatalf("SetTranscriptionLanguage: %v", err)
	}
	lang, err := store.TranscriptionLanguage(ctx)
	if err != nil || lang != "en" {
		t.Fatalf("TranscriptionLanguage() = %q, %v", lang, err)
	}

	if got := NewSelector(store).SelectedModel(ctx); got.Kind != Compact {
		t.Errorf("SelectedModel() = %s, want compact", got.Kind)
	}
}

func TestStaticStore(t *testing.T) {
	ctx := context.Background()
	if got := NewSelector(StaticStore("en")).SelectedModel(ctx); got.Kind != Compact {
		t.Errorf("SelectedModel() = %s, want compact", got.Kind)
	}
	if got := NewSelector(StaticStore("")).SelectedModel(ctx); got.Kind != Multilingual {
		t.Errorf("SelectedModel() = %s, want multilingual", got.Kind)
	}
	if err := StaticStore("en").SetTranscriptionLanguage(ctx, "hi"); err == nil {
		t.Error("StaticStore should reject writes")
	}
}

func TestIsDownloaded(t *testing.T) {
	dir := t.TempDir()
	d := Lookup(Compact)

	ok, err := IsDownloaded(dir, d)
	if err != nil || ok {
		t.Fatalf("IsDownloaded() = %v, %v before file exists", ok, err)
	}

	if err := NewFileStore(dir).SetTranscriptionLanguage(context.Background(), "en"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ModelPath(dir, d), []byte("ggml"), 0644); err != nil {
		t.Fatal(err)
	}
	downloaded, err := ListDownloaded(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(downloaded) != 1 || downloaded[0].Kind != Compact {
		t.Errorf("ListDownloaded() = %+v", downloaded)
	}
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{Compact, Multilingual} {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil || got != k {
			t.Errorf("round trip of %v = %v, %v", k, got, err)
		}
	}
	var k Kind
	if err := k.UnmarshalText([]byte("large")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
