package version

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bral/git-bump-go/internal/types"
)

var (
	majorHint = regexp.MustCompile(`(?i)break|major`)
	minorHint = regexp.MustCompile(`(?i)feat|minor`)
)

// ParseBumpType parses a --version-type value. An empty string means "infer" and
// returns nil.
func ParseBumpType(s string) (*types.BumpType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "major":
		b := types.BumpMajor
		return &b, nil
	case "minor":
		b := types.BumpMinor
		return &b, nil
	case "patch":
		b := types.BumpPatch
		return &b, nil
	default:
		return nil, fmt.Errorf("invalid version type %q: must be major, minor or patch", s)
	}
}

// Infer picks the bump implied by a commit message.
func Infer(intentHint string) types.BumpType {
	switch {
	case majorHint.MatchString(intentHint):
		return types.BumpMajor
	case minorHint.MatchString(intentHint):
		return types.BumpMinor
	default:
		return types.BumpPatch
	}
}

// Next returns the version after current. An explicit bump wins over the one inferred
// from intentHint, normally the newest commit message.
func Next(current types.SemVer, intentHint string, explicit *types.BumpType) types.SemVer {
	bump := Infer(intentHint)
	if explicit != nil {
		bump = *explicit
	}
	return Apply(current, bump)
}

// Apply applies bump to v, resetting lower components.
func Apply(v types.SemVer, bump types.BumpType) types.SemVer {
	switch bump {
	case types.BumpMajor:
		return types.SemVer{Major: v.Major + 1}
	case types.BumpMinor:
		return types.SemVer{Major: v.Major, Minor: v.Minor + 1}
	default:
		return types.SemVer{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	}
}
