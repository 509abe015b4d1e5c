// Package version orders firmware versions and build numbers.
// Versions are compared as semantic versions where they parse; build strings
// and anything that does not parse fall back to a numeric-aware comparison.
package version

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// Custom error types for better error handling and comparison
var (
	ErrInvalidVersion     = errors.New("invalid version format")
	ErrNoVersionsProvided = errors.New("no versions provided")
)

// ErrVersionParseFailed represents a version parsing error
type ErrVersionParseFailed struct {
	Version string
	Cause   error
}

func (e ErrVersionParseFailed) Error() string {
	return fmt.Sprintf("failed to parse version %q: %v", e.Version, e.Cause)
}

func (e ErrVersionParseFailed) Unwrap() error {
	return e.Cause
}

func (e ErrVersionParseFailed) Is(target error) bool {
	return target == ErrInvalidVersion
}

// Parse converts a catalog version label such as "17.4", "17.4 beta 2" or
// "16.0 RC" into a semantic version. Suffix words become the prerelease part,
// so "17.4 beta 2" parses as 17.4.0-beta.2.
func Parse(label string) (*semver.Version, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrVersionParseFailed{Version: label, Cause: ErrInvalidVersion}
	}

	core, suffix, _ := strings.Cut(label, " ")
	normalized := core
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		normalized = core + "-" + strings.Join(strings.Fields(strings.ToLower(suffix)), ".")
	}

	sv, err := semver.NewVersion(normalized)
	if err != nil {
		return nil, ErrVersionParseFailed{Version: label, Cause: err}
	}
	return sv, nil
}

// Compare orders two version labels (-1 if a < b, 0 if equal, 1 if a > b).
// A label that parses sorts above one that does not; two unparseable labels
// are compared with CompareBuilds.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return 1
	case errB == nil:
		return -1
	default:
		return CompareBuilds(a, b)
	}
}

// CompareBuilds compares build identifiers such as "21E236" and "21E5" with
// digit runs compared by numeric value, so "21E236" > "21E5".
func CompareBuilds(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			if c := compareDigits(string(ra[si:i]), string(rb[sj:j])); c != 0 {
				return c
			}
			continue
		}
		if ra[i] != rb[j] {
			if ra[i] < rb[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	default:
		return 0
	}
}

// compareDigits compares two runs of decimal digits by value without overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Latest returns the highest version label from the list.
func Latest(versions []string) (string, error) {
	if len(versions) == 0 {
		return "", ErrNoVersionsProvided
	}

	latest := versions[0]
	for _, v := range versions[1:] {
		if Compare(v, latest) > 0 {
			latest = v
		}
	}
	return latest, nil
}
