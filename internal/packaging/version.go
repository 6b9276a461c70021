package packaging

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Bump parts accepted by Bump.
const (
	BumpPatch = "patch"
	BumpMinor = "minor"
	BumpMajor = "major"
)

// Normalize parses a semantic version and returns its canonical form
// ("v1.2" becomes "1.2.0").
func Normalize(version string) (string, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", version, err)
	}
	return v.String(), nil
}

// Bump increments one part of version. An empty version counts as 0.0.0.
func Bump(version, part string) (string, error) {
	if version == "" {
		version = "0.0.0"
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("invalid version %q: %w", version, err)
	}

	var next semver.Version
	switch part {
	case BumpPatch, "":
		next = v.IncPatch()
	case BumpMinor:
		next = v.IncMinor()
	case BumpMajor:
		next = v.IncMajor()
	default:
		return "", fmt.Errorf("unknown version part %q (want patch, minor or major)", part)
	}
	return next.String(), nil
}

// Newer reports whether a is a higher version than b. Invalid versions
// compare as lower than any valid one.
func Newer(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	return va.GreaterThan(vb)
}
