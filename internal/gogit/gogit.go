// Package gogit implements the repository backend in-process with go-git, for
// machines where the git binary is unavailable or slow to spawn.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/types"
)

// Version is reported by Available.
const Version = "go-git v5"

// Backend is a repo.Backend backed by a go-git repository opened on demand.
type Backend struct {
	dir    string
	remote string
	auth   transport.AuthMethod
	logger *zap.Logger
	now    func() time.Time
}

var _ repo.Backend = (*Backend)(nil)

// New returns a backend for the repository containing dir.
func New(dir, remote string, logger *zap.Logger) *Backend {
	if dir == "" {
		dir = "."
	}
	if remote == "" {
		remote = "origin"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{dir: dir, remote: remote, logger: logger, now: time.Now}
}

func (b *Backend) open() (*git.Repository, error) {
	r, err := git.PlainOpenWithOptions(b.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, translate(err)
	}
	return r, nil
}

// translate maps go-git errors onto the backend sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, git.ErrRepositoryNotExists):
		return fmt.Errorf("%w: %w", repo.ErrNotRepository, err)
	case errors.Is(err, git.ErrRemoteNotFound):
		return fmt.Errorf("%w: %w", repo.ErrNoRemote, err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod):
		return fmt.Errorf("%w: %w", repo.ErrAuth, err)
	case errors.Is(err, git.ErrNonFastForwardUpdate):
		return fmt.Errorf("%w: %w", repo.ErrConflict, err)
	}
	return err
}

// Available always succeeds: go-git needs no external binary.
func (b *Backend) Available(context.Context) (string, error) {
	return Version, nil
}

func (b *Backend) IsRepository(context.Context) (bool, error) {
	if _, err := b.open(); err != nil {
		if errors.Is(err, repo.ErrNotRepository) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) Init(context.Context) error {
	if _, err := git.PlainInit(b.dir, false); err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	return nil
}

// Identity reads user.name and user.email with local values taking precedence over global ones.
func (b *Backend) Identity(context.Context) (repo.Identity, error) {
	r, err := b.open()
	if err != nil {
		return repo.Identity{}, err
	}
	cfg, err := r.ConfigScoped(config.GlobalScope)
	if err != nil {
		return repo.Identity{}, fmt.Errorf("failed to read config: %w", err)
	}
	return repo.Identity{Name: cfg.User.Name, Email: cfg.User.Email}, nil
}

// SetIdentity stores the identity in the repository-local config.
func (b *Backend) SetIdentity(_ context.Context, id repo.Identity) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	cfg, err := r.Config()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg.User.Name = id.Name
	cfg.User.Email = id.Email
	if err := r.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write identity: %w", err)
	}
	return nil
}

func (b *Backend) CurrentBranch(context.Context) (string, error) {
	r, err := b.open()
	if err != nil {
		return "", err
	}
	// HEAD is read unresolved so an unborn branch still has a name.
	head, err := r.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", errors.New("HEAD is detached")
	}
	return head.Target().Short(), nil
}

func (b *Backend) Head(context.Context) (string, error) {
	r, err := b.open()
	if err != nil {
		return "", err
	}
	ref, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

func (b *Backend) RemoteHead(_ context.Context, branch string) (string, error) {
	r, err := b.open()
	if err != nil {
		return "", err
	}
	ref, err := r.Reference(plumbing.NewRemoteReferenceName(b.remote, branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("%w: %s/%s", repo.ErrRemoteBranchNotFound, b.remote, branch)
		}
		return "", fmt.Errorf("failed to resolve %s/%s: %w", b.remote, branch, err)
	}
	return ref.Hash().String(), nil
}

func (b *Backend) MergeBase(_ context.Context, x, y string) (string, error) {
	r, err := b.open()
	if err != nil {
		return "", err
	}
	cx, err := r.CommitObject(plumbing.NewHash(x))
	if err != nil {
		return "", fmt.Errorf("failed to load commit %s: %w", x, err)
	}
	cy, err := r.CommitObject(plumbing.NewHash(y))
	if err != nil {
		return "", fmt.Errorf("failed to load commit %s: %w", y, err)
	}
	bases, err := cx.MergeBase(cy)
	if err != nil {
		return "", fmt.Errorf("failed to compute merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("no common ancestor between %s and %s", x, y)
	}
	return bases[0].Hash.String(), nil
}

// upstream returns the remote-tracking reference configured for branch.
func (b *Backend) upstream(r *git.Repository, branch string) (*config.Branch, plumbing.ReferenceName, error) {
	cfg, err := r.Config()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}
	bc, ok := cfg.Branches[branch]
	if !ok || bc.Remote == "" || bc.Merge == "" {
		return nil, "", fmt.Errorf("%w: %s", repo.ErrNoUpstream, branch)
	}
	return bc, plumbing.NewRemoteReferenceName(bc.Remote, bc.Merge.Short()), nil
}

// BranchAhead counts commits reachable from branch but not from its upstream.
func (b *Backend) BranchAhead(_ context.Context, branch string) (int, error) {
	r, err := b.open()
	if err != nil {
		return 0, err
	}
	_, upName, err := b.upstream(r, branch)
	if err != nil {
		return 0, err
	}
	upRef, err := r.Reference(upName, true)
	if err != nil {
		// The upstream branch is gone from the remote.
		return 0, fmt.Errorf("%w: %s", repo.ErrNoUpstream, upName.Short())
	}
	localRef, err := r.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s: %w", branch, err)
	}

	seen := make(map[plumbing.Hash]bool)
	upIter, err := r.Log(&git.LogOptions{From: upRef.Hash()})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", upName.Short(), err)
	}
	if err := upIter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", upName.Short(), err)
	}

	ahead := 0
	localIter, err := r.Log(&git.LogOptions{From: localRef.Hash()})
	if err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", branch, err)
	}
	if err := localIter.ForEach(func(c *object.Commit) error {
		if !seen[c.Hash] {
			ahead++
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to walk %s: %w", branch, err)
	}
	return ahead, nil
}

// CommitLog returns up to count commits from HEAD, newest first, with subjects only.
func (b *Backend) CommitLog(_ context.Context, count int) ([]types.CommitRecord, error) {
	r, err := b.open()
	if err != nil {
		return nil, err
	}
	head, err := r.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []types.CommitRecord{}, nil
		}
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	iter, err := r.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	commits := make([]types.CommitRecord, 0, count)
	err = iter.ForEach(func(c *object.Commit) error {
		if len(commits) >= count {
			return storer.ErrStop
		}
		subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
		commits = append(commits, types.CommitRecord{
			Hash:    c.Hash.String(),
			Date:    c.Author.When,
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			Message: strings.TrimSpace(subject),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	return commits, nil
}

func (b *Backend) HasChanges(context.Context) (bool, error) {
	r, err := b.open()
	if err != nil {
		return false, err
	}
	wt, err := r.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	return !status.IsClean(), nil
}

func (b *Backend) StageAll(context.Context) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// Commit records the staged changes using the configured identity.
func (b *Backend) Commit(ctx context.Context, message string) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	id, err := b.Identity(ctx)
	if err != nil {
		return err
	}
	if !id.Complete() {
		return errors.New("failed to commit: user.name and user.email must be set")
	}
	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	sig := &object.Signature{Name: id.Name, Email: id.Email, When: b.now()}
	hash, err := wt.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	b.logger.Debug("committed", zap.String("hash", hash.String()))
	return nil
}

// authFor converts credentials into a go-git auth method. SSH returns nil so go-git
// falls back to the user's agent.
func authFor(creds repo.Credentials) transport.AuthMethod {
	switch creds.Method {
	case repo.AuthHTTPS, repo.AuthToken:
		user := creds.Username
		if user == "" {
			user = "x-access-token"
		}
		return &http.BasicAuth{Username: user, Password: creds.Secret}
	}
	return nil
}
