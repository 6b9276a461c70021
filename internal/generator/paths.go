package generator

import (
	"fmt"
	"path"
	"strings"
)

// ManifestFile is the output manifest the publisher writes next to the SDK.
// It maps every class file to its class for the URL substitution pass.
const ManifestFile = ".sdkgen-manifest.json"

// pathSet hands out unique output paths. A taken path gets a "_2", "_3", ...
// suffix on its first name segment, so "cart.sdk.ts" becomes
// "cart_2.sdk.ts".
type pathSet struct {
	taken map[string]bool
}

func newPathSet() *pathSet {
	return &pathSet{taken: make(map[string]bool)}
}

func (s *pathSet) reserve(p string) {
	if p != "" {
		s.taken[strings.ToLower(p)] = true
	}
}

// claim returns p, or the first free suffixed variant of it, and marks the
// result taken. Paths compare case-insensitively so output is safe on
// case-insensitive file systems.
func (s *pathSet) claim(p string) string {
	if !s.taken[strings.ToLower(p)] {
		s.reserve(p)
		return p
	}

	dir, file := path.Split(p)
	stem, ext := file, ""
	if i := strings.Index(file, "."); i > 0 {
		stem, ext = file[:i], file[i:]
	}
	for n := 2; ; n++ {
		candidate := dir + fmt.Sprintf("%s_%d%s", stem, n, ext)
		if !s.taken[strings.ToLower(candidate)] {
			s.reserve(candidate)
			return candidate
		}
	}
}
