// Package loader reads IR programs from disk and pairs them with their class
// configuration.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/QTest-hq/sdkgen/internal/generator"
	"github.com/QTest-hq/sdkgen/pkg/ir"
)

// Files returns the IR files below dir, relative to it and sorted.
func Files(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		name := info.Name()
		if info.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// Load decodes every IR file below dir. configs is keyed by class name; a
// class with no entry gets a nil config.
func Load(ctx context.Context, dir string, configs map[string]*ir.ClassConfig) ([]generator.Unit, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	units := make([]generator.Unit, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := LoadFile(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("%s: %w", rel, err)
			}
			units[i] = generator.Unit{Program: p, SourceFile: rel}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range units {
		c := units[i].Program.Class()
		if c == nil {
			continue
		}
		if cfg, ok := configs[c.Name]; ok {
			units[i].Config = cfg
		}
	}

	log.Debug().Str("dir", dir).Int("units", len(units)).Msg("loaded ir")
	return units, nil
}

// LoadFile decodes a single IR program.
func LoadFile(path string) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ir: %w", err)
	}
	return ir.DecodeProgram(data)
}
