package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/types"
)

const (
	// Fields: hash, author date (strict ISO 8601), author name, author email, subject.
	// The unit separator (\x1f) cannot appear in any of them.
	commitLogFormat = "--pretty=format:%H%x1f%aI%x1f%an%x1f%ae%x1f%s"
	fieldSeparator  = "\x1f"

	// Fields: upstream short name, tracking summary such as "[ahead 2, behind 1]".
	trackFormat = "--format=%(upstream:short)%00%(upstream:track)"
)

var aheadPattern = regexp.MustCompile(`ahead (\d+)`)

// Available returns git's version string.
func (c *CLI) Available(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "--version")
	if err != nil {
		if errors.Is(err, repo.ErrGitMissing) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", repo.ErrGitMissing, err)
	}
	return out, nil
}

// IsRepository checks if the working directory is within a git working tree.
func (c *CLI) IsRepository(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if errors.Is(err, repo.ErrGitMissing) {
			return false, err
		}
		// Any other failure means we are not inside a work tree.
		return false, nil
	}
	return out == "true", nil
}

// Init creates a new repository in the working directory.
func (c *CLI) Init(ctx context.Context) error {
	if _, err := c.run(ctx, "init"); err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	return nil
}

// Identity reads user.name and user.email. Unset keys come back empty.
func (c *CLI) Identity(ctx context.Context) (repo.Identity, error) {
	var id repo.Identity
	for _, field := range []struct {
		key string
		dst *string
	}{{"user.name", &id.Name}, {"user.email", &id.Email}} {
		out, err := c.run(ctx, "config", "--get", field.key)
		if err != nil {
			if errors.Is(err, repo.ErrGitMissing) || errors.Is(err, repo.ErrNotRepository) {
				return repo.Identity{}, err
			}
			// git config exits 1 for a missing key.
			continue
		}
		*field.dst = out
	}
	return id, nil
}

// SetIdentity stores the identity in the repository's local config.
func (c *CLI) SetIdentity(ctx context.Context, id repo.Identity) error {
	if _, err := c.run(ctx, "config", "user.name", id.Name); err != nil {
		return fmt.Errorf("failed to set user.name: %w", err)
	}
	if _, err := c.run(ctx, "config", "user.email", id.Email); err != nil {
		return fmt.Errorf("failed to set user.email: %w", err)
	}
	return nil
}

// HasRemote reports whether the configured remote exists.
func (c *CLI) HasRemote(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "remote")
	if err != nil {
		return false, fmt.Errorf("failed to list remotes: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == c.remote {
			return true, nil
		}
	}
	return false, nil
}

// RemoteURL returns the configured remote's URL or repo.ErrNoRemote.
func (c *CLI) RemoteURL(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "remote", "get-url", c.remote)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", repo.ErrNoRemote, c.remote, err)
	}
	return out, nil
}

// AddRemote registers url under the configured remote name.
func (c *CLI) AddRemote(ctx context.Context, url string) error {
	if url == "" {
		return fmt.Errorf("remote url cannot be empty")
	}
	if _, err := c.run(ctx, "remote", "add", c.remote, url); err != nil {
		return fmt.Errorf("failed to add remote %q: %w", c.remote, err)
	}
	return nil
}

// CurrentBranch returns the checked-out branch name. It works on an unborn branch.
func (c *CLI) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("failed to get current branch: %w", err)
	}
	if out == "" {
		return "", fmt.Errorf("HEAD is detached")
	}
	return out, nil
}

// Head returns the commit hash at HEAD.
func (c *CLI) Head(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return out, nil
}

// RemoteHead returns the remote-tracking head of branch.
func (c *CLI) RemoteHead(ctx context.Context, branch string) (string, error) {
	ref := "refs/remotes/" + c.remote + "/" + branch
	out, err := c.run(ctx, "rev-parse", "--verify", "--quiet", ref)
	if err == nil && out != "" {
		return out, nil
	}
	// --quiet makes a missing ref a silent exit 1; anything else is a real failure.
	var cmdErr *CommandError
	if err == nil || (errors.As(err, &cmdErr) && cmdErr.ExitCode == 1 && cmdErr.Stderr == "") {
		return "", fmt.Errorf("%w: %s", repo.ErrRemoteBranchNotFound, ref)
	}
	return "", fmt.Errorf("failed to resolve %s: %w", ref, err)
}

// MergeBase returns the best common ancestor of a and b.
func (c *CLI) MergeBase(ctx context.Context, a, b string) (string, error) {
	if a == "" || b == "" {
		return "", fmt.Errorf("merge-base needs two commits")
	}
	out, err := c.run(ctx, "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base of %s and %s: %w", a, b, err)
	}
	return out, nil
}

// BranchAhead reads branch tracking metadata and returns how many commits the branch
// has that its upstream lacks. A missing or gone upstream yields repo.ErrNoUpstream.
func (c *CLI) BranchAhead(ctx context.Context, branch string) (int, error) {
	out, err := c.run(ctx, "for-each-ref", trackFormat, "refs/heads/"+branch)
	if err != nil {
		return 0, fmt.Errorf("failed to read tracking info for %q: %w", branch, err)
	}
	upstream, track, _ := strings.Cut(out, "\x00")
	if upstream == "" || strings.Contains(track, "gone") {
		return 0, fmt.Errorf("%w: %s", repo.ErrNoUpstream, branch)
	}
	m := aheadPattern.FindStringSubmatch(track)
	if m == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("unexpected tracking summary %q: %w", track, err)
	}
	return n, nil
}

// CommitLog returns up to count commits from HEAD, newest first.
func (c *CLI) CommitLog(ctx context.Context, count int) ([]types.CommitRecord, error) {
	if count <= 0 {
		return nil, fmt.Errorf("commit count must be positive, got %d", count)
	}
	out, err := c.run(ctx, "log", "-n", strconv.Itoa(count), commitLogFormat)
	if err != nil {
		if isEmptyHistory(err) {
			return []types.CommitRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read commit log: %w", err)
	}
	if out == "" {
		return []types.CommitRecord{}, nil
	}

	records := make([]types.CommitRecord, 0, count)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.SplitN(line, fieldSeparator, 5)
		if len(fields) != 5 {
			c.logger.Warn("skipping malformed log record")
			continue
		}
		date, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, fmt.Errorf("unexpected date %q in commit %s: %w", fields[1], fields[0], err)
		}
		records = append(records, types.CommitRecord{
			Hash:    fields[0],
			Date:    date,
			Author:  fields[2],
			Email:   fields[3],
			Message: fields[4],
		})
	}
	return records, nil
}

// HasChanges reports whether the working tree has staged, unstaged or untracked changes.
func (c *CLI) HasChanges(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	return out != "", nil
}

func isEmptyHistory(err error) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	s := cmdErr.Stderr
	return strings.Contains(s, "does not have any commits") || strings.Contains(s, "bad default revision 'HEAD'")
}
