// Package emitter renders client SDK source files from the IR
package emitter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/QTest-hq/sdkgen/internal/trigger"
	"github.com/QTest-hq/sdkgen/pkg/ir"
)

// BaseURLSentinel stands in for the backend URL until deployment knows it.
// Every class file carries it exactly once, inside a string literal.
const BaseURLSentinel = "%%%SDKGEN_BASE_URL%%%"

// Skip reasons returned by Class.
var (
	ErrNoClass          = errors.New("program has no class definition")
	ErrNoExposedMethods = errors.New("class has no jsonrpc methods")
)

// Language identifies a target language.
type Language string

const (
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	Python     Language = "python"
	Go         Language = "go"
	Kotlin     Language = "kotlin"
	Dart       Language = "dart"
)

// Options carries the project-wide settings every emitter needs.
type Options struct {
	// PackageName is the SDK package: a Go module path, a Kotlin package,
	// or the npm/PyPI/pub name.
	PackageName string

	// Types is the project-wide registry built before any class is emitted.
	Types *TypeRegistry
}

// File is one generated output file.
type File struct {
	Path    string
	Content string
	Class   string
}

// Rendered is a rendered class or models file plus what projecting its
// types observed.
type Rendered struct {
	Content    string
	Referenced []string
	Unresolved []string
}

// Emitter renders SDK files for one target language
type Emitter interface {
	// Language returns the target language
	Language() Language

	// Static reports whether named types are hoisted into a shared models
	// file instead of being declared in every class file
	Static() bool

	// FileName returns the class file path for a class name
	FileName(className string) string

	// ModelsFileName returns the shared models file path, or "" when the
	// language inlines its types
	ModelsFileName() string

	// EmitClass renders the client for class limited to the given methods
	EmitClass(class *ir.Class, methods []*ir.Method, opts Options) (*Rendered, error)

	// EmitModels renders the shared models file for the given declarations
	EmitModels(decls []ir.Node, opts Options) (*Rendered, error)

	// Runtime returns the hand-written runtime files shipped with the SDK
	Runtime(opts Options) []File
}

// Class renders the client file of the single class in p. It returns
// ErrNoClass or ErrNoExposedMethods when there is nothing to emit; callers
// treat both as a skip.
func Class(e Emitter, p *ir.Program, cfg *ir.ClassConfig, opts Options) (*File, *Rendered, error) {
	class := p.Class()
	if class == nil {
		return nil, nil, ErrNoClass
	}

	methods := trigger.ExposedMethods(class, cfg)
	if len(methods) == 0 {
		return nil, nil, ErrNoExposedMethods
	}

	r, err := e.EmitClass(class, methods, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("emit %s: %w", class.Name, err)
	}

	return &File{Path: e.FileName(class.Name), Content: r.Content, Class: class.Name}, r, nil
}

// Registry holds all available emitters
type Registry struct {
	emitters map[Language]Emitter
}

// NewRegistry creates a new emitter registry with all built-in emitters
func NewRegistry() *Registry {
	r := &Registry{
		emitters: make(map[Language]Emitter),
	}

	// Inline-type targets
	r.Register(&TypeScriptEmitter{})
	r.Register(&JavaScriptEmitter{})
	r.Register(&PythonEmitter{})

	// Static targets with a models file
	r.Register(&GoEmitter{})
	r.Register(&KotlinEmitter{})
	r.Register(&DartEmitter{})

	return r
}

// Register adds an emitter to the registry
func (r *Registry) Register(e Emitter) {
	r.emitters[e.Language()] = e
}

// Get returns the emitter for a language
func (r *Registry) Get(lang Language) (Emitter, error) {
	e, ok := r.emitters[lang]
	if !ok {
		return nil, fmt.Errorf("no emitter for language: %s", lang)
	}
	return e, nil
}

// List returns all registered languages, sorted
func (r *Registry) List() []Language {
	langs := make([]Language, 0, len(r.emitters))
	for lang := range r.emitters {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}
