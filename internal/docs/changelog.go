// Package docs renders the changelog and readme and writes them to disk.
package docs

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/types"
)

const changelogPreamble = "# 📝 Changelog\n" +
	"All notable changes to this project are documented in this file.\n" +
	"The format is based on [Keep a Changelog](https://keepachangelog.com/)\n" +
	"and this project adheres to [Semantic Versioning](https://semver.org/).\n\n"

// RepoPath identifies a hosted repository parsed from a remote URL.
type RepoPath struct {
	Host  string
	Owner string
	Name  string
}

// URL returns the repository's web address.
func (r RepoPath) URL() string {
	return fmt.Sprintf("https://%s/%s/%s", r.Host, r.Owner, r.Name)
}

// Matches scp-style (git@host:owner/repo.git) and URL-style (https://host/owner/repo,
// ssh://git@host:22/owner/repo.git) remotes. Subgroup paths are not supported.
var remotePattern = regexp.MustCompile(`^(?:[a-z][a-z0-9+.-]*://)?(?:[^@/]+@)?([^:/]+)(?::\d+)?[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// ParseRemoteURL extracts host, owner and name from a remote URL.
func ParseRemoteURL(url string) (RepoPath, bool) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return RepoPath{}, false
	}
	return RepoPath{Host: m[1], Owner: m[2], Name: m[3]}, true
}

// ChangelogData is everything RenderChangelog needs.
type ChangelogData struct {
	Version  types.SemVer
	Date     time.Time
	Sections []classify.Section
	// Repo enables compare and release links when set.
	Repo   *RepoPath
	Branch string
}

// RenderChangelog renders the full changelog document for one release.
func RenderChangelog(d ChangelogData) string {
	var b strings.Builder
	b.WriteString(changelogPreamble)
	fmt.Fprintf(&b, "## [%s] - %s\n\n", d.Version, d.Date.Format("2006-01-02"))

	if len(d.Sections) == 0 {
		b.WriteString("No notable changes in this version.\n\n")
	}
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "### %s %s\n", s.Glyph, s.Category)
		for _, e := range s.Entries {
			fmt.Fprintf(&b, "- [%s] %s - %s\n", e.Commit.ShortHash(), e.Commit.Date.Format("2006-01-02"), e.Residual)
		}
		b.WriteString("\n")
	}

	if d.Repo != nil {
		branch := d.Branch
		if branch == "" {
			branch = "main"
		}
		fmt.Fprintf(&b, "[Unreleased]: %s/compare/v%s...%s\n", d.Repo.URL(), d.Version, branch)
		fmt.Fprintf(&b, "[%s]: %s/releases/tag/v%s\n", d.Version, d.Repo.URL(), d.Version)
	}
	return b.String()
}
