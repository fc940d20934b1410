package types

import "fmt"

// SemVer is a three-component semantic version.
type SemVer struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// InitialVersion is used when no valid version has been persisted yet.
var InitialVersion = SemVer{Major: 1}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// BumpType names which component of a SemVer is incremented.
type BumpType string

const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
)
