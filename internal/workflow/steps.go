package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/docs"
	"github.com/bral/git-bump-go/internal/history"
	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/syncstate"
	"github.com/bral/git-bump-go/internal/types"
)

func (r *Runner) ensureEnvironment(ctx context.Context) error {
	ver, err := r.Backend.Available(ctx)
	if err != nil {
		return apperr.Environment("check git", err)
	}
	r.Logger.Info("backend available", zap.String("version", ver))

	ok, err := r.Backend.IsRepository(ctx)
	if err != nil {
		return apperr.Environment("check repository", err)
	}
	if ok {
		return nil
	}
	report.Warnf(r.Reporter, report.IconWarning, "Not a git repository, initializing one")
	if err := r.Backend.Init(ctx); err != nil {
		return apperr.Environment("initialize repository", err)
	}
	report.Successf(r.Reporter, report.IconSuccess, "Repository initialized")
	return nil
}

// ensureIdentity asks for a missing user.name or user.email and stores it repository-local.
func (r *Runner) ensureIdentity(ctx context.Context) error {
	id, err := r.Backend.Identity(ctx)
	if err != nil {
		return apperr.Environment("read identity", err)
	}
	if id.Complete() {
		return nil
	}

	report.Warnf(r.Reporter, report.IconConfig, "Git identity is incomplete")
	if id.Name == "" {
		if id.Name, err = r.Prompter.Ask(QuestionIdentityName, ""); err != nil {
			return apperr.Environment("read identity", err)
		}
	}
	if id.Email == "" {
		if id.Email, err = r.Prompter.Ask(QuestionIdentityEmail, ""); err != nil {
			return apperr.Environment("read identity", err)
		}
	}
	id.Name = strings.TrimSpace(id.Name)
	id.Email = strings.TrimSpace(id.Email)
	if !id.Complete() {
		return apperr.Environment("configure identity", errors.New("identity incomplete: user.name and user.email are required"))
	}
	if err := r.Backend.SetIdentity(ctx, id); err != nil {
		return apperr.Environment("configure identity", err)
	}
	report.Successf(r.Reporter, report.IconConfig, "Identity set to %s <%s>", id.Name, id.Email)
	return nil
}

// ensureRemote makes sure the remote is reachable. It returns false when the run should
// continue locally.
func (r *Runner) ensureRemote(ctx context.Context) (bool, error) {
	has, err := r.Backend.HasRemote(ctx)
	if err != nil {
		return false, apperr.Environment("check remote", err)
	}
	if !has {
		url, err := r.Prompter.Ask(QuestionRemoteURL, "")
		url = strings.TrimSpace(url)
		if err != nil || url == "" {
			report.Infof(r.Reporter, report.IconInfo, "No remote configured, working locally")
			return false, nil
		}
		if err := r.Backend.AddRemote(ctx, url); err != nil {
			return false, apperr.Environment("add remote", err)
		}
		report.Successf(r.Reporter, report.IconSuccess, "Remote added: %s", url)
	}

	report.Infof(r.Reporter, report.IconSearch, "Checking remote access")
	err = r.Backend.Probe(ctx)
	if err == nil {
		return true, nil
	}
	if isCancelled(err) {
		return false, err
	}

	authErr := apperr.Auth("access remote", err)
	report.Warnf(r.Reporter, report.IconWarning, "Cannot access the remote: %v", err)
	r.Logger.Warn("remote probe failed", zap.Error(err))

	creds, credErr := r.Prompter.ResolveCredentials()
	if credErr == nil && creds.Method != repo.AuthSkip {
		r.Backend.UseCredentials(creds)
		if err = r.Backend.Probe(ctx); err == nil {
			report.Successf(r.Reporter, report.IconSuccess, "Remote access confirmed")
			return true, nil
		}
		authErr = apperr.Auth("access remote", err)
		report.Errorf(r.Reporter, report.IconError, "Remote still unreachable: %v", err)
	}

	if r.Prompter.Confirm(QuestionContinueOffline) {
		report.Warnf(r.Reporter, report.IconWarning, "Continuing without remote access; nothing will be pushed")
		return false, nil
	}
	return false, authErr
}

// syncBeforeRun reports the sync state and pulls when the branch is only behind.
// Diverged and unknown states are reported and left for the push gate.
func (r *Runner) syncBeforeRun(ctx context.Context, online bool) (types.SyncStatus, error) {
	if !online {
		return types.SyncStatus{State: types.SyncNoRemote}, nil
	}
	checker := syncstate.NewChecker(r.Backend, r.Logger)

	report.Infof(r.Reporter, report.IconFetch, "Checking for remote changes")
	status := checker.Check(ctx)
	if status.State == types.SyncBehindRemote && r.Config.PullBeforeRun {
		report.Infof(r.Reporter, report.IconSync, "Branch is behind the remote, pulling")
		out, err := r.Backend.Pull(ctx)
		if err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return status, apperr.SyncConflict("pull", err)
			}
			if errors.Is(err, repo.ErrAuth) {
				return status, apperr.Auth("pull", err)
			}
			report.Warnf(r.Reporter, report.IconWarning, "Pull failed: %v", err)
		} else {
			r.Logger.Info("pulled", zap.String("output", out))
			status = checker.Check(ctx)
		}
	}
	r.reportSync(status)
	return status, nil
}

func (r *Runner) reportSync(status types.SyncStatus) {
	switch status.State {
	case types.SyncUpToDate:
		report.Successf(r.Reporter, report.IconSync, "Branch %s is up to date", status.Branch)
	case types.SyncAheadOfRemote:
		report.Infof(r.Reporter, report.IconSync, "Branch %s is ahead of the remote", status.Branch)
	case types.SyncNoRemote:
		report.Infof(r.Reporter, report.IconInfo, "No remote configured")
	case types.SyncBehindRemote:
		report.Warnf(r.Reporter, report.IconWarning, "Branch %s is behind the remote; pushing will be refused", status.Branch)
	case types.SyncDiverged:
		report.Warnf(r.Reporter, report.IconWarning, "Branch %s has diverged from the remote; pushing will be refused", status.Branch)
	case types.SyncUnknown:
		report.Warnf(r.Reporter, report.IconWarning, "Could not determine sync state: %v", status.Err)
	}
}

// loadHistory fetches commits and offers to bootstrap an empty repository.
func (r *Runner) loadHistory(ctx context.Context, provider *history.Provider, allowCache bool) ([]types.CommitRecord, error) {
	report.Infof(r.Reporter, report.IconSearch, "Loading commits")
	useCache := allowCache && r.Config.UseCache
	commits, err := provider.Fetch(ctx, r.Config.CommitCount, useCache, r.Config.CacheTTL())
	if err != nil {
		return nil, err
	}
	if len(commits) > 0 {
		report.Infof(r.Reporter, report.IconNumber, "Loaded %d commits", len(commits))
		return commits, nil
	}

	if !r.Prompter.Confirm(QuestionBootstrap) {
		return nil, apperr.HistoryUnavailable("read history", errors.New("repository has no commits"))
	}
	if err := r.bootstrap(ctx); err != nil {
		return nil, err
	}
	commits, err = provider.Fetch(ctx, r.Config.CommitCount, false, r.Config.CacheTTL())
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, apperr.HistoryUnavailable("read history", errors.New("still no commits after the initial commit"))
	}
	return commits, nil
}

// bootstrap creates the first commit, adding a placeholder readme when none exists.
func (r *Runner) bootstrap(ctx context.Context) error {
	path := r.path(r.Config.ReadmeFile)
	written, err := docs.NewWriter(false, r.Reporter, r.Logger).WriteIfMissing(path, docs.PlaceholderReadme(r.projectInfo().Name))
	if err != nil {
		return err
	}
	if written {
		report.Infof(r.Reporter, report.IconReadme, "Created placeholder %s", path)
	}
	if err := r.Backend.StageAll(ctx); err != nil {
		return apperr.HistoryUnavailable("create initial commit", err)
	}
	if err := r.Backend.Commit(ctx, bootstrapMessage); err != nil {
		return apperr.HistoryUnavailable("create initial commit", err)
	}
	report.Successf(r.Reporter, report.IconCommit, "Initial commit created")
	return nil
}
