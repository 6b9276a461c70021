// Package publish writes generated SDK files to disk, substitutes deployed
// URLs for the base URL sentinel and commits the result.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/QTest-hq/sdkgen/internal/emitter"
	"github.com/QTest-hq/sdkgen/internal/generator"
)

// DefaultWorkers bounds concurrent file writes when Writer.Workers is unset.
const DefaultWorkers = 8

// ErrInvalidPath is returned for absolute paths and paths leaving the root.
var ErrInvalidPath = errors.New("invalid output path")

// Writer writes file records below Root. Records are independent and never
// share a path, so they are written in parallel.
type Writer struct {
	Root    string
	Workers int
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string, workers int) *Writer {
	return &Writer{Root: dir, Workers: workers}
}

// Run describes the generation run being written.
type Run struct {
	Language emitter.Language
	Package  string
	Version  string
}

// Write writes every file and then the output manifest. It returns the
// manifest it wrote.
func (w *Writer) Write(ctx context.Context, run Run, files []emitter.File) (*Manifest, error) {
	for _, f := range files {
		if err := ValidatePath(f.Path); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(w.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	workers := w.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, f := range files {
		g.Go(func() error {
			return w.writeFile(gctx, f.Path, []byte(f.Content))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Manifest{
		RunID:     uuid.NewString(),
		Language:  run.Language,
		Package:   run.Package,
		Version:   run.Version,
		Generated: time.Now().UTC(),
		Files:     make(map[string]string),
	}
	for _, f := range files {
		if f.Class != "" {
			m.Files[f.Path] = f.Class
		}
	}
	if err := writeManifest(w.Root, m); err != nil {
		return nil, err
	}

	log.Info().
		Str("dir", w.Root).
		Int("files", len(files)).
		Str("run", m.RunID).
		Msg("wrote sdk")

	return m, nil
}

// ValidatePath rejects paths that are absolute or leave the output root.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	if path.IsAbs(p) || filepath.IsAbs(p) || strings.Contains(p, `\`) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == ".." || strings.HasPrefix(clean, "../") || clean == "." {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return nil
}

// writeFile writes through a temp file and a rename so readers never see a
// partial file.
func (w *Writer) writeFile(ctx context.Context, rel string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(w.Root, filepath.FromSlash(rel))
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sdkgen-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Chmod(tmpPath, 0644)
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", rel, writeErr)
	}

	if err := os.Rename(tmpPath, full); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	log.Debug().Str("path", rel).Int("bytes", len(content)).Msg("wrote file")
	return nil
}

// ManifestPath returns the manifest location inside dir.
func ManifestPath(dir string) string {
	return filepath.Join(dir, generator.ManifestFile)
}
