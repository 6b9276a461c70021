// Package packaging renders the package manifest that makes a generated SDK
// directory installable with the target language's package manager.
package packaging

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/QTest-hq/sdkgen/internal/emitter"
)

// DefaultVersion is used when no version is configured or recorded.
const DefaultVersion = "0.1.0"

// DefaultName is the package name used when none is configured.
const DefaultName = "sdk"

// ErrUnsupportedLanguage is returned for a language without a manifest.
var ErrUnsupportedLanguage = errors.New("no package manifest for language")

// Package describes the SDK being packaged.
type Package struct {
	Name     string
	Version  string
	Language emitter.Language
}

// FileName returns the manifest path for a language, relative to the SDK
// root.
func FileName(lang emitter.Language) string {
	switch lang {
	case emitter.TypeScript, emitter.JavaScript:
		return "package.json"
	case emitter.Python:
		return "pyproject.toml"
	case emitter.Go:
		return "go.mod"
	case emitter.Kotlin:
		return "build.gradle.kts"
	case emitter.Dart:
		return "pubspec.yaml"
	}
	return ""
}

// Manifest renders the package manifest of p.
func Manifest(p Package) (*emitter.File, error) {
	version := p.Version
	if version == "" {
		version = DefaultVersion
	}
	normalized, err := Normalize(version)
	if err != nil {
		return nil, err
	}
	p.Version = normalized

	var content []byte
	switch p.Language {
	case emitter.TypeScript, emitter.JavaScript:
		content, err = npmManifest(p)
	case emitter.Python:
		content, err = pyprojectManifest(p)
	case emitter.Go:
		content = goManifest(p)
	case emitter.Kotlin:
		content = gradleManifest(p)
	case emitter.Dart:
		content, err = pubspecManifest(p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, p.Language)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", FileName(p.Language), err)
	}

	return &emitter.File{Path: FileName(p.Language), Content: string(content)}, nil
}

type npmPackage struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Type        string            `json:"type"`
	Main        string            `json:"main,omitempty"`
	Types       string            `json:"types,omitempty"`
	Files       []string          `json:"files"`
	DevDeps     map[string]string `json:"devDependencies,omitempty"`
}

func npmManifest(p Package) ([]byte, error) {
	pkg := npmPackage{
		Name:        npmName(p.Name),
		Version:     p.Version,
		Description: "Generated JSON-RPC client",
		Type:        "module",
	}
	if p.Language == emitter.TypeScript {
		pkg.Files = []string{"*.ts"}
		pkg.Types = "remote.ts"
		pkg.DevDeps = map[string]string{"typescript": "^5.4.0"}
	} else {
		pkg.Files = []string{"*.js"}
		pkg.Main = "remote.js"
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// npmName lowercases a package name and keeps an "@scope/" prefix.
func npmName(name string) string {
	if name == "" {
		return DefaultName
	}
	scope := ""
	if strings.HasPrefix(name, "@") {
		if i := strings.Index(name, "/"); i > 0 {
			scope, name = strings.ToLower(name[:i+1]), name[i+1:]
		}
	}
	return scope + cleanName(strings.ToLower(name), "-")
}

type pyproject struct {
	BuildSystem struct {
		Requires     []string `toml:"requires"`
		BuildBackend string   `toml:"build-backend"`
	} `toml:"build-system"`
	Project struct {
		Name           string `toml:"name"`
		Version        string `toml:"version"`
		Description    string `toml:"description"`
		RequiresPython string `toml:"requires-python"`
	} `toml:"project"`
}

func pyprojectManifest(p Package) ([]byte, error) {
	var doc pyproject
	doc.BuildSystem.Requires = []string{"setuptools>=68"}
	doc.BuildSystem.BuildBackend = "setuptools.build_meta"
	doc.Project.Name = cleanName(strings.ToLower(orDefault(p.Name)), "-")
	doc.Project.Version = p.Version
	doc.Project.Description = "Generated JSON-RPC client"
	doc.Project.RequiresPython = ">=3.10"

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// goManifest renders a go.mod. The runtime needs nothing outside the
// standard library.
func goManifest(p Package) []byte {
	module := p.Name
	if module == "" {
		module = emitter.DefaultGoModule
	}
	return []byte(fmt.Sprintf("module %s\n\ngo 1.22\n", module))
}

func gradleManifest(p Package) []byte {
	var sb strings.Builder
	sb.WriteString("plugins {\n")
	sb.WriteString("    kotlin(\"jvm\") version \"1.9.24\"\n")
	sb.WriteString("}\n\n")
	sb.WriteString(fmt.Sprintf("group = %q\n", orDefault(p.Name)))
	sb.WriteString(fmt.Sprintf("version = %q\n\n", p.Version))
	sb.WriteString("repositories {\n    mavenCentral()\n}\n\n")
	sb.WriteString("dependencies {\n")
	sb.WriteString("    implementation(\"org.jetbrains.kotlinx:kotlinx-serialization-json:1.6.3\")\n")
	sb.WriteString("    implementation(\"org.jetbrains.kotlinx:kotlinx-coroutines-core:1.8.1\")\n")
	sb.WriteString("}\n")
	return []byte(sb.String())
}

type pubspec struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Version     string            `yaml:"version"`
	Environment map[string]string `yaml:"environment"`
}

// pubspecManifest renders a pubspec.yaml. Pub names are lower snake case.
func pubspecManifest(p Package) ([]byte, error) {
	return yaml.Marshal(pubspec{
		Name:        cleanName(strings.ToLower(orDefault(p.Name)), "_"),
		Description: "Generated JSON-RPC client",
		Version:     p.Version,
		Environment: map[string]string{"sdk": ">=3.0.0 <4.0.0"},
	})
}

func orDefault(name string) string {
	if name == "" {
		return DefaultName
	}
	return name
}

// cleanName keeps letters, digits and separators, replacing everything else
// with sep.
func cleanName(name, sep string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == '/' || r == ' ':
			sb.WriteString(sep)
		}
	}
	out := strings.Trim(sb.String(), sep)
	if out == "" {
		return DefaultName
	}
	if sep == "_" && unicode.IsDigit(rune(out[0])) {
		out = "sdk_" + out
	}
	return out
}
