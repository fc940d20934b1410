// Package syncstate decides how the local branch relates to its remote counterpart and
// whether publishing is safe.
package syncstate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/types"
)

// Source is the subset of repo.Backend the checker uses.
type Source interface {
	HasRemote(ctx context.Context) (bool, error)
	Fetch(ctx context.Context) error
	CurrentBranch(ctx context.Context) (string, error)
	Head(ctx context.Context) (string, error)
	RemoteHead(ctx context.Context, branch string) (string, error)
	MergeBase(ctx context.Context, a, b string) (string, error)
	BranchAhead(ctx context.Context, branch string) (int, error)
}

// Checker computes sync state through a Source.
type Checker struct {
	source Source
	logger *zap.Logger
}

// NewChecker returns a Checker. A nil logger is replaced with a no-op logger.
func NewChecker(source Source, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{source: source, logger: logger}
}

// Check fetches the remote and compares the local head with the remote-tracking head.
// Every failure is folded into SyncUnknown with the cause attached.
func (c *Checker) Check(ctx context.Context) types.SyncStatus {
	status := c.check(ctx)
	c.logger.Debug("sync state",
		zap.String("state", string(status.State)),
		zap.String("branch", status.Branch),
		zap.String("local", status.Local),
		zap.String("remote", status.Remote),
		zap.String("base", status.Base),
		zap.Error(status.Err))
	return status
}

func (c *Checker) check(ctx context.Context) types.SyncStatus {
	hasRemote, err := c.source.HasRemote(ctx)
	if err != nil {
		return unknown(types.SyncStatus{}, err)
	}
	if !hasRemote {
		return types.SyncStatus{State: types.SyncNoRemote}
	}
	if err := c.source.Fetch(ctx); err != nil {
		return unknown(types.SyncStatus{}, err)
	}

	branch, err := c.source.CurrentBranch(ctx)
	if err != nil {
		return unknown(types.SyncStatus{}, err)
	}
	status := types.SyncStatus{Branch: branch}

	if status.Local, err = c.source.Head(ctx); err != nil {
		return unknown(status, err)
	}
	status.Remote, err = c.source.RemoteHead(ctx, branch)
	if errors.Is(err, repo.ErrRemoteBranchNotFound) {
		// Never published: nothing on the remote can conflict.
		status.State = types.SyncAheadOfRemote
		return status
	}
	if err != nil {
		return unknown(status, err)
	}

	if status.Local == status.Remote {
		status.State = types.SyncUpToDate
		return status
	}
	if status.Base, err = c.source.MergeBase(ctx, status.Local, status.Remote); err != nil {
		return unknown(status, err)
	}
	switch status.Base {
	case status.Local:
		status.State = types.SyncBehindRemote
	case status.Remote:
		status.State = types.SyncAheadOfRemote
	default:
		status.State = types.SyncDiverged
	}
	return status
}

func unknown(status types.SyncStatus, err error) types.SyncStatus {
	status.State = types.SyncUnknown
	status.Err = err
	return status
}

// PendingPush reports whether the current branch has commits its upstream lacks. A branch
// without an upstream is reported with HasUpstream false and no error.
func (c *Checker) PendingPush(ctx context.Context) (types.PushStatus, error) {
	branch, err := c.source.CurrentBranch(ctx)
	if err != nil {
		return types.PushStatus{}, err
	}
	ahead, err := c.source.BranchAhead(ctx, branch)
	if errors.Is(err, repo.ErrNoUpstream) {
		return types.PushStatus{}, nil
	}
	if err != nil {
		return types.PushStatus{}, err
	}
	return types.PushStatus{Pending: ahead > 0, Ahead: ahead, HasUpstream: true}, nil
}

// CanPush is the gate before publishing. Pushing onto a remote that has commits the
// local branch lacks is refused.
func CanPush(status types.SyncStatus) error {
	switch status.State {
	case types.SyncBehindRemote:
		return apperr.SyncConflict("push", fmt.Errorf("branch %q is behind %s", status.Branch, short(status.Remote)))
	case types.SyncDiverged:
		return apperr.SyncConflict("push", fmt.Errorf("branch %q has diverged from the remote (merge base %s)", status.Branch, short(status.Base)))
	case types.SyncUnknown:
		if status.Err == nil {
			return fmt.Errorf("sync state unknown")
		}
		return fmt.Errorf("sync state unknown: %w", status.Err)
	default:
		return nil
	}
}

func short(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
