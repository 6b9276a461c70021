package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/QTest-hq/sdkgen/pkg/ir"
)

// ProjectFile is the project configuration file name.
const ProjectFile = "sdkgen.yaml"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
		_, err := semver.StrictNewVersion(strings.TrimPrefix(fl.Field().String(), "v"))
		return err == nil
	})
	_ = v.RegisterValidation("trigger", func(fl validator.FieldLevel) bool {
		return ir.TriggerKind(fl.Field().String()).Valid()
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProjectConfig represents an sdkgen.yaml file
type ProjectConfig struct {
	// Package name of the generated SDK
	Name string `yaml:"name,omitempty"`

	// Target language
	Language string `yaml:"language,omitempty" validate:"omitempty,oneof=typescript javascript python go kotlin dart"`

	// Go module path or Kotlin package; the language default when empty
	Package string `yaml:"package,omitempty"`

	// Package version written into the manifest
	Version string `yaml:"version,omitempty" validate:"omitempty,semver"`

	// Directory holding IR JSON files
	IRDir string `yaml:"ir_dir,omitempty"`

	// Output directory
	Output string `yaml:"output,omitempty"`

	// Base URL used for classes without their own
	BaseURL string `yaml:"base_url,omitempty" validate:"omitempty,url"`

	// Deployment configuration per class
	Classes []ClassEntry `yaml:"classes,omitempty" validate:"dive"`
}

// ClassEntry configures one deployed class
type ClassEntry struct {
	Name    string        `yaml:"name" validate:"required"`
	Path    string        `yaml:"path,omitempty"`
	Type    string        `yaml:"type,omitempty" validate:"omitempty,trigger"`
	URL     string        `yaml:"url,omitempty" validate:"omitempty,url"`
	Methods []MethodEntry `yaml:"methods,omitempty" validate:"dive"`
}

// MethodEntry overrides the trigger of one method
type MethodEntry struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type,omitempty" validate:"omitempty,trigger"`
	Auth bool   `yaml:"auth,omitempty"`
	Cron string `yaml:"cron,omitempty" validate:"required_if=Type cron"`
}

// DefaultProjectConfig returns sensible defaults
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Name:     "sdk",
		Language: "typescript",
		Version:  "0.1.0",
		IRDir:    "ir",
		Output:   "sdk",
	}
}

// LoadProjectConfig loads sdkgen.yaml (or sdkgen.yml) from the given
// directory. Defaults are returned when neither exists.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	configPath := filepath.Join(dir, ProjectFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join(dir, "sdkgen.yml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return DefaultProjectConfig(), nil
		}
	}
	return LoadProjectFile(configPath)
}

// LoadProjectFile loads and validates a project file at path
func LoadProjectFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := DefaultProjectConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// SaveProjectConfig saves the config to sdkgen.yaml in dir
func SaveProjectConfig(dir string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, ProjectFile), data, 0644)
}

// Validate checks field constraints and reports every violation.
func (c *ProjectConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	msgs := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		msgs = append(msgs, fieldPath(ve)+": "+formatValidationError(ve))
	}
	return fmt.Errorf("invalid project config: %s", strings.Join(msgs, "; "))
}

// Merge applies overrides from another config (e.g., CLI flags)
func (c *ProjectConfig) Merge(other *ProjectConfig) {
	if other == nil {
		return
	}

	if other.Name != "" {
		c.Name = other.Name
	}

	if other.Language != "" {
		c.Language = other.Language
	}

	if other.Package != "" {
		c.Package = other.Package
	}

	if other.Version != "" {
		c.Version = other.Version
	}

	if other.IRDir != "" {
		c.IRDir = other.IRDir
	}

	if other.Output != "" {
		c.Output = other.Output
	}

	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}

	if len(other.Classes) > 0 {
		c.Classes = other.Classes
	}
}

// ClassConfigs converts the class entries to IR class configurations keyed
// by class name.
func (c *ProjectConfig) ClassConfigs() map[string]*ir.ClassConfig {
	out := make(map[string]*ir.ClassConfig, len(c.Classes))
	for _, e := range c.Classes {
		cc := &ir.ClassConfig{
			Name: e.Name,
			Path: e.Path,
			Type: ir.TriggerKind(e.Type),
		}
		for _, m := range e.Methods {
			cc.Methods = append(cc.Methods, ir.MethodConfig{
				Name:       m.Name,
				Type:       ir.TriggerKind(m.Type),
				Auth:       m.Auth,
				CronString: m.Cron,
			})
		}
		out[e.Name] = cc
	}
	return out
}

// URLs returns the configured base URL per class.
func (c *ProjectConfig) URLs() map[string]string {
	out := make(map[string]string)
	for _, e := range c.Classes {
		if e.URL != "" {
			out[e.Name] = e.URL
		}
	}
	return out
}

func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "required_if":
		return fmt.Sprintf("required when %s", ve.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "semver":
		return "must be a semantic version"
	case "trigger":
		return "must be one of: jsonrpc http cron"
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
