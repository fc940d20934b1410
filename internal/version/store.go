// Package version reads and writes the persisted semantic version and decides the next one.
package version

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/fsutil"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/types"
)

var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Parse parses a strict MAJOR.MINOR.PATCH string. Surrounding whitespace is ignored.
func Parse(raw string) (types.SemVer, error) {
	m := semverPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return types.SemVer{}, fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", raw)
	}
	var parts [3]uint64
	for i := range parts {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return types.SemVer{}, fmt.Errorf("invalid version %q: %w", raw, err)
		}
		parts[i] = n
	}
	return types.SemVer{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// Store persists the version in a one-line text file.
type Store struct {
	path     string
	backup   bool
	reporter report.Reporter
}

// NewStore returns a Store for path. With backup set, Write keeps a .bak copy of the
// previous content.
func NewStore(path string, backup bool, r report.Reporter) *Store {
	return &Store{path: path, backup: backup, reporter: r}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

// Read returns the persisted version. A missing or malformed file is reset to
// types.InitialVersion, which is persisted and returned; only that write can fail.
func (s *Store) Read() (types.SemVer, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		report.Infof(s.reporter, report.IconVersion, "No version file found, starting at %s", types.InitialVersion)
		return types.InitialVersion, s.Write(types.InitialVersion)
	case err != nil:
		report.Warnf(s.reporter, report.IconWarning, "Could not read %s (%v), resetting to %s", s.path, err, types.InitialVersion)
		return types.InitialVersion, s.Write(types.InitialVersion)
	}

	v, err := Parse(string(data))
	if err != nil {
		report.Warnf(s.reporter, report.IconWarning, "Invalid version format in %s, resetting to %s", s.path, types.InitialVersion)
		return types.InitialVersion, s.Write(types.InitialVersion)
	}
	return v, nil
}

// Peek returns the persisted version without repairing the file. The boolean is false
// when the file is missing or malformed, in which case InitialVersion is returned.
func (s *Store) Peek() (types.SemVer, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return types.InitialVersion, false
	}
	v, err := Parse(string(data))
	if err != nil {
		return types.InitialVersion, false
	}
	return v, true
}

// Write persists v, optionally backing up the previous file first.
func (s *Store) Write(v types.SemVer) error {
	if s.backup {
		if backupPath, err := fsutil.Backup(s.path); err != nil {
			return apperr.Persistence(s.path, err)
		} else if backupPath != "" {
			report.Infof(s.reporter, report.IconBackup, "Backed up %s to %s", s.path, backupPath)
		}
	}
	if err := fsutil.AtomicWrite(s.path, []byte(v.String()+"\n")); err != nil {
		return apperr.Persistence(s.path, err)
	}
	return nil
}

// Set validates an explicitly requested version. A value lower than current is accepted
// with a warning.
func (s *Store) Set(raw string, current types.SemVer) (types.SemVer, error) {
	v, err := Parse(raw)
	if err != nil {
		return types.SemVer{}, err
	}
	requested, err := goversion.NewVersion(v.String())
	if err != nil {
		return types.SemVer{}, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	existing, err := goversion.NewVersion(current.String())
	if err == nil && requested.LessThan(existing) {
		report.Warnf(s.reporter, report.IconWarning, "Requested version %s is lower than current version %s", v, current)
	}
	return v, nil
}
