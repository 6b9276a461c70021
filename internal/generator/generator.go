// Package generator turns the IR of a whole project into the files of one
// client SDK.
package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/sdkgen/internal/emitter"
	"github.com/QTest-hq/sdkgen/internal/packaging"
	"github.com/QTest-hq/sdkgen/pkg/ir"
)

var (
	// ErrNoClasses means no unit produced a class file.
	ErrNoClasses = errors.New("no class in the project exposes jsonrpc methods")

	// ErrUnknownLanguage means no emitter is registered for the language.
	ErrUnknownLanguage = errors.New("unknown target language")
)

// Unit is one source file of the backend: its IR and the configuration of
// the class it declares.
type Unit struct {
	Program    *ir.Program
	Config     *ir.ClassConfig
	SourceFile string
}

// Input is everything one generation run needs.
type Input struct {
	Units          []Unit
	Language       emitter.Language
	PackageName    string
	PackageVersion string
}

// Skip records a unit that produced no class file.
type Skip struct {
	SourceFile string
	Class      string
	Reason     string
}

// Output is the result of a generation run. Files are ordered: class files
// in unit order, then the models file, the runtime files and the package
// manifest.
type Output struct {
	Files      []emitter.File
	Skipped    []Skip
	Unresolved []string
	Duplicates []string
}

// Generator renders SDKs with a registry of emitters
type Generator struct {
	emitters *emitter.Registry
}

// NewGenerator creates a generator with all built-in emitters
func NewGenerator() *Generator {
	return &Generator{emitters: emitter.NewRegistry()}
}

// Languages returns the supported target languages
func (g *Generator) Languages() []emitter.Language {
	return g.emitters.List()
}

// Generate runs both phases: the project-wide type registry is built from
// every unit first, then each unit's class is emitted against it.
func (g *Generator) Generate(ctx context.Context, in Input) (*Output, error) {
	e, err := g.emitters.Get(in.Language)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, in.Language)
	}

	programs := make([]*ir.Program, 0, len(in.Units))
	for _, u := range in.Units {
		programs = append(programs, u.Program)
	}
	types := emitter.CollectTypes(programs)
	for _, name := range types.Duplicates() {
		log.Debug().Str("type", name).Msg("duplicate type declaration ignored")
	}

	opts := emitter.Options{PackageName: in.PackageName, Types: types}
	out := &Output{Duplicates: types.Duplicates()}

	paths := newPathSet()
	for _, f := range e.Runtime(opts) {
		paths.reserve(f.Path)
	}
	if e.Static() {
		paths.reserve(e.ModelsFileName())
	}
	manifestPath := packaging.FileName(in.Language)
	paths.reserve(manifestPath)
	paths.reserve(ManifestFile)

	unresolved := make(map[string]bool)
	for _, u := range in.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, r, err := emitter.Class(e, u.Program, u.Config, opts)
		switch {
		case errors.Is(err, emitter.ErrNoClass), errors.Is(err, emitter.ErrNoExposedMethods):
			skip := Skip{SourceFile: u.SourceFile, Reason: err.Error()}
			if c := u.Program.Class(); c != nil {
				skip.Class = c.Name
			}
			log.Warn().Str("file", u.SourceFile).Str("class", skip.Class).Msg(skip.Reason)
			out.Skipped = append(out.Skipped, skip)
			continue
		case err != nil:
			return nil, err
		}

		for _, name := range r.Unresolved {
			if !unresolved[name] {
				unresolved[name] = true
				out.Unresolved = append(out.Unresolved, name)
				log.Warn().Str("class", f.Class).Str("type", name).Msg("unresolved type, using dynamic type")
			}
		}

		f.Path = paths.claim(f.Path)
		log.Debug().Str("class", f.Class).Str("path", f.Path).Msg("rendered class")
		out.Files = append(out.Files, *f)
	}

	if len(out.Files) == 0 {
		return nil, ErrNoClasses
	}

	if e.Static() && types.Len() > 0 {
		models, err := e.EmitModels(types.Decls(), opts)
		if err != nil {
			return nil, fmt.Errorf("emit models: %w", err)
		}
		out.Files = append(out.Files, emitter.File{Path: e.ModelsFileName(), Content: models.Content})
	}

	out.Files = append(out.Files, e.Runtime(opts)...)

	manifest, err := packaging.Manifest(packaging.Package{
		Name:     in.PackageName,
		Version:  in.PackageVersion,
		Language: in.Language,
	})
	if err != nil {
		return nil, err
	}
	out.Files = append(out.Files, *manifest)

	log.Info().
		Str("language", string(in.Language)).
		Int("files", len(out.Files)).
		Int("skipped", len(out.Skipped)).
		Msg("generated sdk")

	return out, nil
}

// Classes returns the class files of the output.
func (o *Output) Classes() []emitter.File {
	var files []emitter.File
	for _, f := range o.Files {
		if f.Class != "" {
			files = append(files, f)
		}
	}
	return files
}
