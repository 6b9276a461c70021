package publish

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/QTest-hq/sdkgen/internal/emitter"
)

// Manifest records what a run wrote. Files maps each class file still
// carrying the base URL sentinel to the class it was generated from; Link
// moves entries to Linked, keyed by path with the URL as value. Runtime,
// models and package files are not listed.
type Manifest struct {
	RunID     string            `json:"run_id"`
	Language  emitter.Language  `json:"language"`
	Package   string            `json:"package,omitempty"`
	Version   string            `json:"version,omitempty"`
	Generated time.Time         `json:"generated"`
	Files     map[string]string `json:"files"`
	Linked    map[string]string `json:"linked,omitempty"`
}

// Paths returns the class file paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for p := range m.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ReadManifest loads the manifest written into dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = make(map[string]string)
	}
	return &m, nil
}

func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(ManifestPath(dir), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
