// Package workflow runs a release end to end: environment checks, remote access, sync,
// history, document regeneration, version bump and publishing.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/config"
	"github.com/bral/git-bump-go/internal/docs"
	"github.com/bral/git-bump-go/internal/history"
	"github.com/bral/git-bump-go/internal/prompt"
	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/tui"
	"github.com/bral/git-bump-go/internal/types"
	"github.com/bral/git-bump-go/internal/version"
)

// Questions asked through the Prompter. Scripted prompters key their answers on these.
const (
	QuestionIdentityName    = "Git user.name"
	QuestionIdentityEmail   = "Git user.email"
	QuestionRemoteURL       = "Remote repository URL (leave blank to work locally)"
	QuestionContinueOffline = "Continue without remote access?"
	QuestionBootstrap       = "No commits found. Create an initial commit?"
	QuestionContinueAfter   = "Continue despite the failed %s update?"
	QuestionCommit          = "Commit the changes?"
	QuestionSetUpstream     = "The branch has no upstream. Push and set upstream?"

	bootstrapMessage = "feat: initial commit"
)

// Options are the per-run choices taken from the command line.
type Options struct {
	// VersionType forces major, minor or patch; empty infers it from history.
	VersionType string
	// SetVersion replaces the computed version when non-empty.
	SetVersion  string
	SkipCleanup bool
	NoCache     bool
	NoPush      bool
	// Review shows the interactive review screen instead of a plain confirmation.
	Review bool
}

// ReviewFunc shows a release plan and publishes it on approval.
type ReviewFunc func(ctx context.Context, plan tui.Plan, publish tui.PublishFunc) (types.PublishResult, bool, error)

// Runner wires the core components to a backend and a user.
type Runner struct {
	Config   config.Config
	Dir      string
	Backend  repo.Backend
	Prompter prompt.Prompter
	Reporter report.Reporter
	Logger   *zap.Logger
	Review   ReviewFunc
	Now      func() time.Time
}

// New returns a Runner with defaults for the optional fields.
func New(cfg config.Config, dir string, backend repo.Backend, p prompt.Prompter, r report.Reporter, logger *zap.Logger) *Runner {
	if dir == "" {
		dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Config:   cfg,
		Dir:      dir,
		Backend:  backend,
		Prompter: p,
		Reporter: r,
		Logger:   logger,
		Review:   tui.Run,
		Now:      time.Now,
	}
}

// path resolves a configured file name against the working directory.
func (r *Runner) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.Dir, name)
}

func (r *Runner) provider() *history.Provider {
	return history.NewProvider(r.Backend, r.path(r.Config.HistoryFile), r.Reporter, r.Logger)
}

// Run performs one release. The history cache is removed before publishing and on
// failure unless opts.SkipCleanup is set.
func (r *Runner) Run(ctx context.Context, opts Options) (err error) {
	explicit, err := version.ParseBumpType(opts.VersionType)
	if err != nil {
		return err
	}

	provider := r.provider()
	cleaned := false
	cleanup := func() {
		if !opts.SkipCleanup && !cleaned {
			provider.Cleanup()
			cleaned = true
		}
	}
	defer func() {
		if err != nil {
			r.Logger.Error("run failed", zap.String("kind", apperr.KindOf(err).String()), zap.Error(err))
			cleanup()
		}
	}()

	// 1-3: environment, identity, remote access.
	if err := r.ensureEnvironment(ctx); err != nil {
		return err
	}
	if err := r.ensureIdentity(ctx); err != nil {
		return err
	}
	online, err := r.ensureRemote(ctx)
	if err != nil {
		return err
	}

	// 4: sync.
	status, err := r.syncBeforeRun(ctx, online)
	if err != nil {
		return err
	}

	// 5: history.
	commits, err := r.loadHistory(ctx, provider, !opts.NoCache)
	if err != nil {
		return err
	}

	// 6-8: classify, version, documents.
	store := version.NewStore(r.path(r.Config.VersionFile), r.Config.CreateBackups, r.Reporter)
	current, err := store.Read()
	if err != nil {
		return err
	}
	next, err := r.nextVersion(store, current, commits, explicit, opts.SetVersion)
	if err != nil {
		return err
	}

	classification := classify.New().Classify(commits)
	if err := r.writeChangelog(ctx, classification, next, online); err != nil {
		return err
	}
	if err := r.writeReadme(classification, next); err != nil {
		return err
	}
	if err := store.Write(next); err != nil {
		return err
	}
	report.Successf(r.Reporter, report.IconVersion, "Version updated: %s → %s", current, next)

	// The cache must not end up in the release commit.
	cleanup()

	// 9: publish.
	push := online && r.Config.Push && !opts.NoPush
	if err := r.publishStep(ctx, opts, current, next, status, classification, push); err != nil {
		return err
	}

	report.Successf(r.Reporter, report.IconCelebration, "Release %s complete", next)
	return nil
}

func (r *Runner) nextVersion(store *version.Store, current types.SemVer, commits []types.CommitRecord, explicit *types.BumpType, setVersion string) (types.SemVer, error) {
	if setVersion != "" {
		v, err := store.Set(setVersion, current)
		if err != nil {
			return types.SemVer{}, err
		}
		report.Infof(r.Reporter, report.IconNumber, "Using requested version %s", v)
		return v, nil
	}

	hint := ""
	if len(commits) > 0 {
		hint = commits[0].Message
	}
	bump := version.Infer(hint)
	if explicit != nil {
		bump = *explicit
	}
	next := version.Next(current, hint, explicit)
	report.Infof(r.Reporter, report.IconNumber, "Next version: %s (%s)", next, bump)
	return next, nil
}

// continueAfter turns a persistence failure into a decision to go on or abort.
func (r *Runner) continueAfter(artifact string, err error) error {
	report.Errorf(r.Reporter, report.IconError, "Failed to update %s: %v", artifact, err)
	if r.Prompter.Confirm(fmt.Sprintf(QuestionContinueAfter, artifact)) {
		return nil
	}
	return err
}

func (r *Runner) writeChangelog(ctx context.Context, cl classify.Classification, next types.SemVer, online bool) error {
	data := docs.ChangelogData{
		Version:  next,
		Date:     r.Now(),
		Sections: cl.Sections(),
	}
	if online {
		if url, err := r.Backend.RemoteURL(ctx); err == nil {
			if rp, ok := docs.ParseRemoteURL(url); ok {
				data.Repo = &rp
			}
		}
		if branch, err := r.Backend.CurrentBranch(ctx); err == nil {
			data.Branch = branch
		}
	}

	path := r.path(r.Config.ChangelogFile)
	if err := docs.NewWriter(r.Config.CreateBackups, r.Reporter, r.Logger).Write(path, docs.RenderChangelog(data)); err != nil {
		return r.continueAfter("changelog", err)
	}
	report.Successf(r.Reporter, report.IconChangelog, "Changelog updated: %s", path)
	return nil
}

func (r *Runner) projectInfo() docs.ProjectInfo {
	info := docs.DetectProject(r.Dir)
	if r.Config.ProjectName != "" {
		info.Name = r.Config.ProjectName
	}
	if r.Config.Description != "" {
		info.Description = r.Config.Description
	}
	return info
}

func (r *Runner) writeReadme(cl classify.Classification, next types.SemVer) error {
	data := docs.ReadmeData{
		Project:       r.projectInfo(),
		Version:       next,
		Features:      cl.Features(),
		ChangelogFile: r.Config.ChangelogFile,
	}
	path := r.path(r.Config.ReadmeFile)
	if err := docs.NewWriter(r.Config.CreateBackups, r.Reporter, r.Logger).Write(path, docs.RenderReadme(data)); err != nil {
		return r.continueAfter("readme", err)
	}
	report.Successf(r.Reporter, report.IconReadme, "Readme updated: %s", path)
	return nil
}

// isCancelled reports whether err came from the run's context ending.
func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
