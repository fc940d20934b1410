// Package apperr classifies failures into the categories a run can end with and maps
// them to process exit codes and remediation hints.
package apperr

import (
	"fmt"
	"strings"

	cerr "github.com/cockroachdb/errors"
)

// Kind classifies an error for reporting and exit status.
type Kind int

const (
	// KindUnknown is any error that was not classified.
	KindUnknown Kind = iota
	// KindEnvironment - git missing or the directory cannot be used as a repository.
	KindEnvironment
	// KindHistoryUnavailable - no commits from the backend or the cache.
	KindHistoryUnavailable
	// KindSyncConflict - local branch is behind or diverged; push refused.
	KindSyncConflict
	// KindPersistence - a changelog, readme or version write failed.
	KindPersistence
	// KindAuth - the remote rejected fetch or push.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindEnvironment:
		return "EnvironmentError"
	case KindHistoryUnavailable:
		return "HistoryUnavailable"
	case KindSyncConflict:
		return "SyncConflict"
	case KindPersistence:
		return "PersistenceError"
	case KindAuth:
		return "AuthFailure"
	default:
		return "Error"
	}
}

// ExitCode returns the process exit status for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindEnvironment:
		return 2
	case KindHistoryUnavailable:
		return 3
	case KindSyncConflict:
		return 4
	case KindPersistence:
		return 5
	case KindAuth:
		return 6
	default:
		return 1
	}
}

// Error is a classified failure. Op names the operation that failed, e.g. "write changelog".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error, hints ...string) error {
	if err == nil {
		err = cerr.New(op)
	}
	wrapped := cerr.WithStack(err)
	for _, h := range hints {
		wrapped = cerr.WithHint(wrapped, h)
	}
	return &Error{Kind: kind, Op: op, Err: wrapped}
}

// Environment wraps err as an EnvironmentError.
func Environment(op string, err error) error {
	return newError(KindEnvironment, op, err,
		"Install git and make sure it is on PATH.",
		"Run git-bump from inside a git working tree, or let it run 'git init'.")
}

// HistoryUnavailable wraps err as a HistoryUnavailable error.
func HistoryUnavailable(op string, err error) error {
	return newError(KindHistoryUnavailable, op, err,
		"Create an initial commit (git commit --allow-empty -m 'feat: initial commit') and run again.")
}

// SyncConflict wraps err as a SyncConflict error.
func SyncConflict(op string, err error) error {
	return newError(KindSyncConflict, op, err,
		"Integrate the remote changes first: git pull (or git pull --rebase), resolve conflicts, then run again.")
}

// Persistence wraps err as a PersistenceError for the named file.
func Persistence(file string, err error) error {
	return newError(KindPersistence, "write "+file, err,
		fmt.Sprintf("Check that %s and its directory are writable.", file))
}

// Auth wraps err as an AuthFailure.
func Auth(op string, err error) error {
	return newError(KindAuth, op, err,
		"SSH: make sure your public key is registered with the git host (ssh -T git@<host>).",
		"HTTPS: configure a credential helper (git config credential.helper store) or use a personal access token.")
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if cerr.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCode returns the exit status for err; 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// Hints returns the remediation hints attached anywhere in err's chain.
func Hints(err error) []string {
	return cerr.GetAllHints(err)
}

// FormatHints renders hints as a numbered "How to fix" block, or "" when there are none.
func FormatHints(err error) string {
	hints := Hints(err)
	if len(hints) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("How to fix:")
	for i, h := range hints {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, h))
	}
	return sb.String()
}
