package gogit

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/repo"
)

func (b *Backend) HasRemote(context.Context) (bool, error) {
	r, err := b.open()
	if err != nil {
		return false, err
	}
	if _, err := r.Remote(b.remote); err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read remote %s: %w", b.remote, err)
	}
	return true, nil
}

func (b *Backend) RemoteURL(context.Context) (string, error) {
	r, err := b.open()
	if err != nil {
		return "", err
	}
	rem, err := r.Remote(b.remote)
	if err != nil {
		return "", translate(err)
	}
	urls := rem.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: %s has no URL", repo.ErrNoRemote, b.remote)
	}
	return urls[0], nil
}

func (b *Backend) AddRemote(_ context.Context, url string) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	if _, err := r.CreateRemote(&config.RemoteConfig{Name: b.remote, URLs: []string{url}}); err != nil {
		return fmt.Errorf("failed to add remote %s: %w", b.remote, err)
	}
	return nil
}

// UseCredentials applies credentials to every later network operation.
func (b *Backend) UseCredentials(creds repo.Credentials) {
	b.auth = authFor(creds)
}

// Probe lists the remote's references without transferring objects.
func (b *Backend) Probe(ctx context.Context) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	rem, err := r.Remote(b.remote)
	if err != nil {
		return translate(err)
	}
	if _, err := rem.ListContext(ctx, &git.ListOptions{Auth: b.auth}); err != nil {
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil
		}
		return fmt.Errorf("cannot reach %s: %w", b.remote, translate(err))
	}
	return nil
}

func (b *Backend) Fetch(ctx context.Context) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	err = r.FetchContext(ctx, &git.FetchOptions{RemoteName: b.remote, Auth: b.auth})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) && !errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return fmt.Errorf("failed to fetch from %s: %w", b.remote, translate(err))
	}
	return nil
}

// Pull fast-forwards the current branch from the remote. go-git cannot merge, so a
// diverged branch surfaces as repo.ErrConflict.
func (b *Backend) Pull(ctx context.Context) (string, error) {
	r, err := b.open()
	if err != nil {
		return "", err
	}
	branch, err := b.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	wt, err := r.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{
		RemoteName:    b.remote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          b.auth,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return "Already up to date.", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to pull %s: %w", branch, translate(err))
	}
	return fmt.Sprintf("Fast-forwarded %s from %s.", branch, b.remote), nil
}

// Push pushes the current branch to its configured upstream.
func (b *Backend) Push(ctx context.Context) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	branch, err := b.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	bc, _, err := b.upstream(r, branch)
	if err != nil {
		return err
	}
	spec := config.RefSpec(fmt.Sprintf("%s:%s", plumbing.NewBranchReferenceName(branch), bc.Merge))
	return b.push(ctx, r, bc.Remote, spec)
}

// PushSetUpstream pushes branch to the same name on the remote and records it as upstream.
func (b *Backend) PushSetUpstream(ctx context.Context, branch string) error {
	r, err := b.open()
	if err != nil {
		return err
	}
	ref := plumbing.NewBranchReferenceName(branch)
	if err := b.push(ctx, r, b.remote, config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))); err != nil {
		return err
	}

	cfg, err := r.Config()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg.Branches[branch] = &config.Branch{Name: branch, Remote: b.remote, Merge: ref}
	if err := r.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to set upstream for %s: %w", branch, err)
	}
	b.logger.Debug("upstream set", zap.String("branch", branch), zap.String("remote", b.remote))
	return nil
}

func (b *Backend) push(ctx context.Context, r *git.Repository, remote string, spec config.RefSpec) error {
	err := r.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       b.auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push to %s: %w", remote, translate(err))
	}
	return nil
}
