package workflow

import (
	"context"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/syncstate"
	"github.com/bral/git-bump-go/internal/types"
	"github.com/bral/git-bump-go/internal/version"
)

// PreviewEntry is one classified commit in a Preview.
type PreviewEntry struct {
	Hash    string `json:"hash" yaml:"hash"`
	Date    string `json:"date" yaml:"date"`
	Message string `json:"message" yaml:"message"`
}

// PreviewSection is one non-empty category in a Preview.
type PreviewSection struct {
	Category string         `json:"category" yaml:"category"`
	Entries  []PreviewEntry `json:"entries" yaml:"entries"`
}

// Preview is what a run would produce, computed without writing anything.
type Preview struct {
	Current   string           `json:"current" yaml:"current"`
	Next      string           `json:"next" yaml:"next"`
	Bump      string           `json:"bump" yaml:"bump"`
	Commits   int              `json:"commits" yaml:"commits"`
	Sections  []PreviewSection `json:"sections" yaml:"sections"`
	Features  []string         `json:"features" yaml:"features"`
	Truncated bool             `json:"features_truncated" yaml:"features_truncated"`
}

// Preview classifies recent history and computes the next version. It reads the backend
// directly so no cache or version file is created.
func (r *Runner) Preview(ctx context.Context, opts Options) (Preview, error) {
	explicit, err := version.ParseBumpType(opts.VersionType)
	if err != nil {
		return Preview{}, err
	}
	if err := r.requireRepository(ctx); err != nil {
		return Preview{}, err
	}

	commits, err := r.Backend.CommitLog(ctx, r.Config.CommitCount)
	if err != nil {
		return Preview{}, apperr.HistoryUnavailable("read history", err)
	}

	store := version.NewStore(r.path(r.Config.VersionFile), false, r.Reporter)
	current, ok := store.Peek()
	if !ok {
		report.Infof(r.Reporter, report.IconVersion, "No valid version file, assuming %s", current)
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
	if opts.SetVersion != "" {
		if next, err = store.Set(opts.SetVersion, current); err != nil {
			return Preview{}, err
		}
	}

	cl := classify.New().Classify(commits)
	p := Preview{
		Current:  current.String(),
		Next:     next.String(),
		Bump:     string(bump),
		Commits:  len(commits),
		Sections: []PreviewSection{},
		Features: []string{},
	}
	for _, s := range cl.Sections() {
		ps := PreviewSection{Category: string(s.Category)}
		for _, e := range s.Entries {
			ps.Entries = append(ps.Entries, PreviewEntry{
				Hash:    e.Commit.ShortHash(),
				Date:    e.Commit.Date.Format("2006-01-02"),
				Message: e.Residual,
			})
		}
		p.Sections = append(p.Sections, ps)
	}
	features := cl.Features()
	p.Features = append(p.Features, features.Items...)
	p.Truncated = features.Truncated
	return p, nil
}

// Status reports the sync state and whether local commits are waiting to be pushed.
func (r *Runner) Status(ctx context.Context) (types.SyncStatus, types.PushStatus, error) {
	if err := r.requireRepository(ctx); err != nil {
		return types.SyncStatus{}, types.PushStatus{}, err
	}
	checker := syncstate.NewChecker(r.Backend, r.Logger)
	status := checker.Check(ctx)
	if status.State == types.SyncNoRemote {
		return status, types.PushStatus{}, nil
	}
	pending, err := checker.PendingPush(ctx)
	if err != nil {
		return status, types.PushStatus{}, err
	}
	return status, pending, nil
}

// requireRepository fails unless git is available and the directory is a repository.
func (r *Runner) requireRepository(ctx context.Context) error {
	if _, err := r.Backend.Available(ctx); err != nil {
		return apperr.Environment("check git", err)
	}
	ok, err := r.Backend.IsRepository(ctx)
	if err != nil {
		return apperr.Environment("check repository", err)
	}
	if !ok {
		return apperr.Environment("check repository", repo.ErrNotRepository)
	}
	return nil
}
