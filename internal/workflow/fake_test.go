package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/types"
)

// fakeBackend is an in-memory repo.Backend. Commits move head forward while the remote
// head stays put until a push.
type fakeBackend struct {
	availableErr error
	isRepo       bool
	identity     repo.Identity
	hasRemote    bool
	url          string
	probeErrs    []error
	branch       string
	head         string
	remoteHead   string
	mergeBase    string // empty means the remote head, i.e. local is ahead
	fetchErr     error
	pullErr      error
	log          []types.CommitRecord
	clean        bool
	changesErr   error
	stageErr     error
	commitErr    error
	pushErrs     []error
	ahead        int
	aheadErr     error

	inits       int
	setIdentity []repo.Identity
	addedRemote string
	creds       []repo.Credentials
	pulls       int
	staged      int
	committed   []string
	pushes      int
	setUpstream []string
}

var _ repo.Backend = (*fakeBackend)(nil)

func newFakeBackend(messages ...string) *fakeBackend {
	f := &fakeBackend{
		isRepo:     true,
		identity:   repo.Identity{Name: "Ada", Email: "ada@example.com"},
		hasRemote:  true,
		url:        "git@github.com:acme/widget.git",
		branch:     "main",
		head:       "1111111111",
		remoteHead: "1111111111",
	}
	date := time.Date(2025, 5, 20, 0, 0, 0, 0, time.Local)
	for i, m := range messages {
		f.log = append(f.log, types.CommitRecord{
			Hash:    fmt.Sprintf("%040d", len(messages)-i),
			Date:    date,
			Author:  "Ada",
			Email:   "ada@example.com",
			Message: m,
		})
	}
	return f
}

func (f *fakeBackend) Available(context.Context) (string, error) {
	return "git version 2.45.0", f.availableErr
}

func (f *fakeBackend) IsRepository(context.Context) (bool, error) { return f.isRepo, nil }

func (f *fakeBackend) Init(context.Context) error {
	f.inits++
	f.isRepo = true
	return nil
}

func (f *fakeBackend) Identity(context.Context) (repo.Identity, error) { return f.identity, nil }

func (f *fakeBackend) SetIdentity(_ context.Context, id repo.Identity) error {
	f.setIdentity = append(f.setIdentity, id)
	f.identity = id
	return nil
}

func (f *fakeBackend) HasRemote(context.Context) (bool, error) { return f.hasRemote, nil }

func (f *fakeBackend) RemoteURL(context.Context) (string, error) {
	if !f.hasRemote {
		return "", repo.ErrNoRemote
	}
	return f.url, nil
}

func (f *fakeBackend) AddRemote(_ context.Context, url string) error {
	f.addedRemote = url
	f.url = url
	f.hasRemote = true
	return nil
}

func (f *fakeBackend) UseCredentials(creds repo.Credentials) { f.creds = append(f.creds, creds) }

func (f *fakeBackend) Probe(context.Context) error {
	if len(f.probeErrs) == 0 {
		return nil
	}
	err := f.probeErrs[0]
	f.probeErrs = f.probeErrs[1:]
	return err
}

func (f *fakeBackend) Fetch(context.Context) error { return f.fetchErr }

func (f *fakeBackend) Pull(context.Context) (string, error) {
	f.pulls++
	if f.pullErr != nil {
		return "", f.pullErr
	}
	f.head = f.remoteHead
	f.mergeBase = ""
	return "Fast-forward", nil
}

func (f *fakeBackend) CurrentBranch(context.Context) (string, error) { return f.branch, nil }

func (f *fakeBackend) Head(context.Context) (string, error) { return f.head, nil }

func (f *fakeBackend) RemoteHead(_ context.Context, branch string) (string, error) {
	if f.remoteHead == "" {
		return "", fmt.Errorf("%w: origin/%s", repo.ErrRemoteBranchNotFound, branch)
	}
	return f.remoteHead, nil
}

func (f *fakeBackend) MergeBase(context.Context, string, string) (string, error) {
	if f.mergeBase == "" {
		return f.remoteHead, nil
	}
	return f.mergeBase, nil
}

func (f *fakeBackend) BranchAhead(context.Context, string) (int, error) { return f.ahead, f.aheadErr }

func (f *fakeBackend) CommitLog(_ context.Context, count int) ([]types.CommitRecord, error) {
	if len(f.log) > count {
		return append([]types.CommitRecord(nil), f.log[:count]...), nil
	}
	return append([]types.CommitRecord{}, f.log...), nil
}

func (f *fakeBackend) HasChanges(context.Context) (bool, error) {
	if f.changesErr != nil {
		return false, f.changesErr
	}
	return !f.clean, nil
}

func (f *fakeBackend) StageAll(context.Context) error {
	if f.stageErr != nil {
		return f.stageErr
	}
	f.staged++
	return nil
}

func (f *fakeBackend) Commit(_ context.Context, message string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, message)
	f.head = fmt.Sprintf("c%09d", len(f.committed))
	f.log = append([]types.CommitRecord{{
		Hash:    fmt.Sprintf("%040d", 100+len(f.committed)),
		Date:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local),
		Author:  f.identity.Name,
		Email:   f.identity.Email,
		Message: message,
	}}, f.log...)
	return nil
}

func (f *fakeBackend) Push(context.Context) error {
	if len(f.pushErrs) > 0 {
		err := f.pushErrs[0]
		f.pushErrs = f.pushErrs[1:]
		if err != nil {
			return err
		}
	}
	f.pushes++
	f.remoteHead = f.head
	return nil
}

func (f *fakeBackend) PushSetUpstream(_ context.Context, branch string) error {
	f.setUpstream = append(f.setUpstream, branch)
	f.remoteHead = f.head
	return nil
}

func messagesOf(entries []string, substr string) bool {
	for _, e := range entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
