package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emmett/voxnote/internal/config"
	"github.com/emmett/voxnote/internal/models"
	"github.com/emmett/voxnote/internal/output"
)

// ModelManager lists the catalog, stores the language preference and
// resolves the model file the engine should load.
type ModelManager struct {
	dir      string
	store    models.PreferenceStore
	selector *models.Selector
	out      io.Writer
}

// NewModelManager builds a manager from configuration. A configured
// language takes precedence over the persisted preference.
func NewModelManager(cfg *config.Config, out io.Writer, logger *slog.Logger) (*ModelManager, error) {
	dir, err := models.ModelsDir(cfg.Model.ModelsDir)
	if err != nil {
		return nil, err
	}

	var store models.PreferenceStore = models.NewFileStore(dir)
	if cfg.Model.Language != "" {
		store = models.StaticStore(cfg.Model.Language)
	}

	return &ModelManager{
		dir:   dir,
		store: store,
		selector: models.NewSelector(store,
			models.WithTimeout(cfg.Model.PreferenceTimeout),
			models.WithLogger(logger)),
		out: out,
	}, nil
}

// Dir returns the models directory
func (m *ModelManager) Dir() string {
	return m.dir
}

// Store returns the preference store in use
func (m *ModelManager) Store() models.PreferenceStore {
	return m.store
}

// Selector returns the model selector
func (m *ModelManager) Selector() *models.Selector {
	return m.selector
}

// Entries returns the catalog with selection and download state
func (m *ModelManager) Entries(ctx context.Context) ([]output.ModelEntry, error) {
	selected := m.selector.SelectedModel(ctx)

	catalog := models.Catalog()
	entries := make([]output.ModelEntry, 0, len(catalog))
	for _, d := range catalog {
		downloaded, err := models.IsDownloaded(m.dir, d)
		if err != nil {
			return nil, fmt.Errorf("error checking model: %w", err)
		}
		entries = append(entries, output.ModelEntry{
			Descriptor: d,
			Selected:   d.Kind == selected.Kind,
			Downloaded: downloaded,
		})
	}
	return entries, nil
}

// ListModels writes the catalog using formatter
func (m *ModelManager) ListModels(ctx context.Context, formatter output.Formatter) error {
	entries, err := m.Entries(ctx)
	if err != nil {
		return err
	}
	return formatter.WriteModels(entries)
}

// SetLanguage stores lang and reports the model it selects
func (m *ModelManager) SetLanguage(ctx context.Context, lang string) error {
	if err := m.store.SetTranscriptionLanguage(ctx, lang); err != nil {
		return fmt.Errorf("error setting language: %w", err)
	}

	d := m.selector.SelectedModel(ctx)
	fmt.Fprintf(m.out, "✓ Transcription language set to: %q\n", lang)
	fmt.Fprintf(m.out, "  Model: %s (%s)\n", d.Identifier, d.ApproximateSize)
	m.printDownloadHint(d)
	return nil
}

// ShowSelected prints the model the current preference selects
func (m *ModelManager) ShowSelected(ctx context.Context) error {
	d := m.selector.SelectedModel(ctx)
	fmt.Fprintf(m.out, "Selected model: %s (%s)\n", d.Identifier, d.Kind)
	fmt.Fprintf(m.out, "  %s\n", d.Description)
	fmt.Fprintf(m.out, "  Path: %s\n", models.ModelPath(m.dir, d))
	m.printDownloadHint(d)
	return nil
}

// CatalogPath returns where the selected catalog model is expected on disk,
// whether or not it exists.
func (m *ModelManager) CatalogPath(ctx context.Context) (string, models.Descriptor) {
	d := m.selector.SelectedModel(ctx)
	return models.ModelPath(m.dir, d), d
}

// ResolveModelPath returns the model file the engine should load. A
// non-empty override is used as is.
func (m *ModelManager) ResolveModelPath(ctx context.Context, override string) (string, models.Descriptor, error) {
	d := m.selector.SelectedModel(ctx)
	if override != "" {
		return override, d, nil
	}

	downloaded, err := models.IsDownloaded(m.dir, d)
	if err != nil {
		return "", d, fmt.Errorf("failed to check for model: %w", err)
	}
	if !downloaded {
		return "", d, fmt.Errorf("model '%s' not found in %s\n%s\nDownload it from %s",
			d.Identifier, m.dir, d.DownloadMessage(), d.DownloadURL)
	}
	return models.ModelPath(m.dir, d), d, nil
}

func (m *ModelManager) printDownloadHint(d models.Descriptor) {
	downloaded, _ := models.IsDownloaded(m.dir, d)
	if downloaded {
		return
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "Note: This model is not yet downloaded.")
	fmt.Fprintln(m.out, d.DownloadMessage())
	fmt.Fprintf(m.out, "Save it as %s from:\n  %s\n", models.ModelPath(m.dir, d), d.DownloadURL)
}
