package publish

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/QTest-hq/sdkgen/internal/emitter"
)

var (
	// ErrNoURL means a class has neither its own URL nor a default.
	ErrNoURL = errors.New("no url for class")

	// ErrSentinel means a class file no longer carries exactly one sentinel.
	ErrSentinel = errors.New("class file does not contain the base url sentinel exactly once")
)

// URLs maps class names to their deployed base URLs. Default is used for
// classes not listed.
type URLs struct {
	Classes map[string]string
	Default string
}

func (u URLs) forClass(class string) (string, bool) {
	if v, ok := u.Classes[class]; ok && v != "" {
		return v, true
	}
	return u.Default, u.Default != ""
}

// Link replaces the base URL sentinel in every class file recorded in the
// manifest of dir. Files the manifest does not list are never touched.
// Linked files move from the manifest's Files to Linked, so a later pass
// skips them. It returns the paths it rewrote.
func Link(dir string, urls URLs) ([]string, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	// Every file is read and checked before the first write so a bad URL or
	// a damaged class file leaves the directory unchanged.
	paths := m.Paths()
	planned := make(map[string]string, len(paths))
	contents := make(map[string]string, len(paths))
	for _, p := range paths {
		class := m.Files[p]
		u, ok := urls.forClass(class)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoURL, class)
		}
		if err := ValidateURL(u); err != nil {
			return nil, fmt.Errorf("class %s: %w", class, err)
		}

		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		content := string(data)
		if strings.Count(content, emitter.BaseURLSentinel) != 1 {
			return nil, fmt.Errorf("%w: %s", ErrSentinel, p)
		}

		planned[p] = u
		contents[p] = strings.Replace(content, emitter.BaseURLSentinel, u, 1)
	}

	w := &Writer{Root: dir}
	linked := make([]string, 0, len(paths))
	for _, p := range paths {
		if err := w.writeFile(context.Background(), p, []byte(contents[p])); err != nil {
			return linked, err
		}
		log.Debug().Str("path", p).Str("url", planned[p]).Msg("linked class file")
		linked = append(linked, p)
	}

	if m.Linked == nil {
		m.Linked = make(map[string]string)
	}
	for p, u := range planned {
		m.Linked[p] = u
		delete(m.Files, p)
	}
	if err := writeManifest(dir, m); err != nil {
		return linked, err
	}

	return linked, nil
}

// ValidateURL accepts absolute http(s) URLs that can sit inside a string
// literal of every target language unescaped.
func ValidateURL(raw string) error {
	if strings.ContainsAny(raw, "\"'\\$`\n\r\t ") {
		return fmt.Errorf("url %q contains characters that cannot appear in a string literal", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http or https url", raw)
	}
	return nil
}
