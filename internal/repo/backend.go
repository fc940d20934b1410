// Package repo defines the version-control backend the rest of git-bump talks to.
// Implementations live in gitcmd (the git binary) and gogit (in-process).
package repo

import (
	"context"
	"errors"

	"github.com/bral/git-bump-go/internal/types"
)

// Sentinel errors returned by backends so callers can classify failures with errors.Is.
var (
	// ErrGitMissing indicates the git binary could not be found or executed.
	ErrGitMissing = errors.New("git is not installed or not in PATH")
	// ErrNotRepository indicates the working directory is not inside a repository.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoRemote indicates the configured remote does not exist.
	ErrNoRemote = errors.New("remote not configured")
	// ErrNoUpstream indicates the current branch has no upstream tracking branch.
	ErrNoUpstream = errors.New("current branch has no upstream branch")
	// ErrRemoteBranchNotFound indicates the remote has no branch matching the local one.
	ErrRemoteBranchNotFound = errors.New("branch not found on remote")
	// ErrAuth indicates the remote rejected the credentials in use.
	ErrAuth = errors.New("authentication with remote failed")
	// ErrConflict indicates a merge produced conflicts.
	ErrConflict = errors.New("merge conflict")
)

// Identity is the committer identity configured for the repository.
type Identity struct {
	Name  string
	Email string
}

// Complete reports whether both name and email are set.
func (i Identity) Complete() bool {
	return i.Name != "" && i.Email != ""
}

// AuthMethod selects how credentials are presented to the remote.
type AuthMethod string

const (
	AuthSSH   AuthMethod = "ssh"
	AuthHTTPS AuthMethod = "https"
	AuthToken AuthMethod = "token"
	AuthSkip  AuthMethod = "skip"
)

// Credentials are kept in memory for the duration of a run and never written to
// the repository configuration.
type Credentials struct {
	Method   AuthMethod
	Username string
	Secret   string // password or personal access token
}

// Backend is the full set of repository operations used by a run.
type Backend interface {
	// Available returns the backend's version string or ErrGitMissing.
	Available(ctx context.Context) (string, error)
	IsRepository(ctx context.Context) (bool, error)
	Init(ctx context.Context) error

	Identity(ctx context.Context) (Identity, error)
	SetIdentity(ctx context.Context, id Identity) error

	HasRemote(ctx context.Context) (bool, error)
	RemoteURL(ctx context.Context) (string, error)
	AddRemote(ctx context.Context, url string) error
	UseCredentials(creds Credentials)
	// Probe checks that the remote is reachable with the current credentials.
	Probe(ctx context.Context) error

	Fetch(ctx context.Context) error
	Pull(ctx context.Context) (string, error)

	CurrentBranch(ctx context.Context) (string, error)
	Head(ctx context.Context) (string, error)
	// RemoteHead returns the remote-tracking head for branch or ErrRemoteBranchNotFound.
	RemoteHead(ctx context.Context, branch string) (string, error)
	MergeBase(ctx context.Context, a, b string) (string, error)
	// BranchAhead returns how many commits branch has that its upstream lacks,
	// or ErrNoUpstream.
	BranchAhead(ctx context.Context, branch string) (int, error)

	// CommitLog returns up to count commits, newest first. An empty repository
	// yields an empty slice and no error.
	CommitLog(ctx context.Context, count int) ([]types.CommitRecord, error)

	HasChanges(ctx context.Context) (bool, error)
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	// Push pushes the current branch to its upstream, or returns ErrNoUpstream.
	Push(ctx context.Context) error
	PushSetUpstream(ctx context.Context, branch string) error
}
