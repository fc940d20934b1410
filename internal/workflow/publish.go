package workflow

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/syncstate"
	"github.com/bral/git-bump-go/internal/tui"
	"github.com/bral/git-bump-go/internal/types"
)

// publishStep asks for approval, through the review screen or a plain question, and
// publishes the release.
func (r *Runner) publishStep(ctx context.Context, opts Options, current, next types.SemVer, status types.SyncStatus, cl classify.Classification, push bool) error {
	if opts.Review {
		return r.review(ctx, current, next, status, cl, push)
	}

	if !r.Prompter.Confirm(QuestionCommit) {
		report.Infof(r.Reporter, report.IconInfo, "Changes were not committed")
		return nil
	}
	result := r.Publish(ctx, next, push, r.Reporter, r.Prompter.Confirm)
	return r.finish(result)
}

func (r *Runner) review(ctx context.Context, current, next types.SemVer, status types.SyncStatus, cl classify.Classification, push bool) error {
	plan := tui.Plan{
		Current:  current,
		Next:     next,
		Sync:     status,
		Sections: cl.Sections(),
		Files: []string{
			filepath.Base(r.Config.ChangelogFile),
			filepath.Base(r.Config.ReadmeFile),
			filepath.Base(r.Config.VersionFile),
		},
		CanPush: push,
	}
	if push {
		plan.PushBlocked = syncstate.CanPush(status)
	}

	// The screen owns the terminal while it runs, so progress is replayed afterwards.
	rec := &report.Recorder{}
	publish := func(ctx context.Context, push bool) types.PublishResult {
		// Choosing push on the screen already approves setting the upstream.
		return r.Publish(ctx, next, push, rec, func(string) bool { return true })
	}

	result, cancelled, err := r.Review(ctx, plan, publish)
	for _, e := range rec.Entries {
		r.Reporter.Report(e.Level, e.Icon, e.Message)
	}
	if err != nil {
		return err
	}
	if cancelled {
		report.Infof(r.Reporter, report.IconInfo, "Review cancelled; changes were not committed")
		return nil
	}
	return r.finish(result)
}

func (r *Runner) finish(result types.PublishResult) error {
	if result.Err != nil {
		return result.Err
	}
	if result.Message != "" {
		report.Infof(r.Reporter, report.IconInfo, "%s", result.Message)
	}
	return nil
}

// Publish stages and commits every change, then pushes when push is set and the sync
// gate allows it. confirm decides whether to set a missing upstream.
func (r *Runner) Publish(ctx context.Context, next types.SemVer, push bool, rep report.Reporter, confirm func(string) bool) types.PublishResult {
	var result types.PublishResult

	dirty, err := r.Backend.HasChanges(ctx)
	if err != nil {
		result.Err = apperr.Environment("check working tree", err)
		return result
	}
	if !dirty {
		report.Warnf(rep, report.IconWarning, "No changes to commit")
		result.Message = "No changes to commit."
		return result
	}

	report.Infof(rep, report.IconSync, "Staging changes")
	if err := r.Backend.StageAll(ctx); err != nil {
		result.Err = apperr.Environment("stage release", err)
		return result
	}
	message := r.Config.ReleaseCommitMessage(next.String())
	report.Infof(rep, report.IconCommit, "Committing: %s", message)
	if err := r.Backend.Commit(ctx, message); err != nil {
		result.Err = apperr.Environment("commit release", err)
		return result
	}
	result.Committed = true
	r.Logger.Info("release committed", zap.String("version", next.String()))

	if !push {
		result.Message = "Committed locally; nothing was pushed."
		return result
	}

	status := syncstate.NewChecker(r.Backend, r.Logger).Check(ctx)
	if err := syncstate.CanPush(status); err != nil {
		report.Errorf(rep, report.IconError, "Push refused: %v", err)
		result.Err = err
		return result
	}

	report.Infof(rep, report.IconPush, "Pushing to the remote")
	err = r.Backend.Push(ctx)
	if errors.Is(err, repo.ErrNoUpstream) {
		if !confirm(QuestionSetUpstream) {
			result.Message = "Committed locally; push skipped because the branch has no upstream."
			return result
		}
		branch := status.Branch
		if branch == "" {
			if branch, err = r.Backend.CurrentBranch(ctx); err != nil {
				result.Err = err
				return result
			}
		}
		err = r.Backend.PushSetUpstream(ctx, branch)
	}
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrAuth):
		result.Err = apperr.Auth("push", err)
		return result
	case errors.Is(err, repo.ErrConflict):
		result.Err = apperr.SyncConflict("push", err)
		return result
	default:
		result.Err = err
		return result
	}

	result.Pushed = true
	result.Message = "Committed and pushed " + next.String() + "."
	report.Successf(rep, report.IconPush, "Pushed %s", next)
	return result
}
