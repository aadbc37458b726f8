package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/callingest/internal/config"
	"github.com/JonMunkholm/callingest/internal/store"
)

// LocatedFile is a call record file that is both tracked in the store and
// present on disk, ready for ingestion.
type LocatedFile struct {
	Path    string
	Tracker *store.SourceFile
}

// SourceFileStore is the slice of the store the locator needs.
type SourceFileStore interface {
	LatestSourceFile(ctx context.Context) (*store.SourceFile, error)
	FindSourceFileByURI(ctx context.Context, uri string) (*store.SourceFile, error)
	CreateSourceFile(ctx context.Context, uri string) (*store.SourceFile, error)
}

// FileLocator resolves which call record file this run should process.
//
// In normal mode it requires the download step to have recorded a source
// file already; it never fabricates a tracking entry for a file it has not
// been told about. In sample mode it targets the fixed sample file and
// creates the tracking entry on first sight.
type FileLocator struct {
	files SourceFileStore
	cfg   config.IngestConfig
	log   *slog.Logger
}

// NewFileLocator creates a FileLocator.
func NewFileLocator(files SourceFileStore, cfg config.IngestConfig, log *slog.Logger) *FileLocator {
	if log == nil {
		log = slog.Default()
	}
	return &FileLocator{files: files, cfg: cfg, log: log}
}

// Locate returns the file to process, or found=false when no file is
// available this run. Not-found is an expected operational state (the
// download step has not run yet, or the tracked file vanished from disk)
// and is logged, not returned as an error.
func (l *FileLocator) Locate(ctx context.Context) (located *LocatedFile, found bool, err error) {
	if l.cfg.SampleMode {
		return l.locateSample(ctx)
	}

	sf, err := l.files.LatestSourceFile(ctx)
	if errors.Is(err, store.ErrNoSourceFile) {
		l.log.Info("no call record file tracked yet; waiting on download step")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("look up latest source file: %w", err)
	}

	if _, statErr := os.Stat(sf.URI); statErr != nil {
		l.log.Warn("tracked call record file missing from disk",
			"uri", sf.URI,
			"error", statErr,
		)
		return nil, false, nil
	}

	return &LocatedFile{Path: sf.URI, Tracker: sf}, true, nil
}

func (l *FileLocator) locateSample(ctx context.Context) (*LocatedFile, bool, error) {
	path := filepath.Join(l.cfg.DataDir, l.cfg.SampleFile)

	if _, statErr := os.Stat(path); statErr != nil {
		l.log.Warn("sample call record file missing", "path", path, "error", statErr)
		return nil, false, nil
	}

	sf, err := l.files.FindSourceFileByURI(ctx, path)
	if errors.Is(err, store.ErrNoSourceFile) {
		sf, err = l.files.CreateSourceFile(ctx, path)
	}
	if err != nil {
		return nil, false, fmt.Errorf("track sample file %s: %w", path, err)
	}

	return &LocatedFile{Path: path, Tracker: sf}, true, nil
}
