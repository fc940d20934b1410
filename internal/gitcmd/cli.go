// Package gitcmd implements the repository backend on top of the git command-line tool.
package gitcmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/repo"
)

// CLI is a repo.Backend that shells out to git through the package Runner.
type CLI struct {
	dir     string
	remote  string
	timeout time.Duration
	header  string // http.extraHeader value when HTTPS credentials are in use
	logger  *zap.Logger
}

var _ repo.Backend = (*CLI)(nil)

// Option configures a CLI backend.
type Option func(*CLI)

// WithDir runs every command against the repository at dir (git -C).
func WithDir(dir string) Option {
	return func(c *CLI) { c.dir = dir }
}

// WithTimeout sets the per-command timeout. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a logger that records each git invocation at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *CLI) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a CLI backend for the named remote.
func New(remote string, opts ...Option) *CLI {
	if remote == "" {
		remote = "origin"
	}
	c := &CLI{remote: remote, timeout: DefaultTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseCredentials applies credentials to every later network command. SSH relies on the
// user's agent and keys, so only HTTPS and token credentials change the invocation.
func (c *CLI) UseCredentials(creds repo.Credentials) {
	switch creds.Method {
	case repo.AuthHTTPS, repo.AuthToken:
		user := creds.Username
		if user == "" {
			user = "x-access-token"
		}
		token := base64.StdEncoding.EncodeToString([]byte(user + ":" + creds.Secret))
		c.header = "Authorization: Basic " + token
	default:
		c.header = ""
	}
}

// run executes git with the backend's directory and timeout applied.
func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.dir != "" {
		args = append([]string{"-C", c.dir}, args...)
	}
	c.logger.Debug("git", zap.Strings("args", redactArgs(args)))
	out, err := RunGitCommand(ctx, args...)
	if err != nil {
		return out, classify(err)
	}
	return out, nil
}

// runRemote is run for commands that talk to the remote and need credentials.
func (c *CLI) runRemote(ctx context.Context, args ...string) (string, error) {
	if c.header != "" {
		args = append([]string{"-c", "http.extraHeader=" + c.header}, args...)
	}
	return c.run(ctx, args...)
}

var stderrSentinels = []struct {
	sentinel error
	markers  []string
}{
	{repo.ErrNotRepository, []string{"not a git repository"}},
	{repo.ErrAuth, []string{
		"authentication failed",
		"could not read username",
		"could not read password",
		"permission denied (publickey",
		"terminal prompts disabled",
		"invalid username or password",
		"the requested url returned error: 401",
		"the requested url returned error: 403",
	}},
	{repo.ErrNoUpstream, []string{"has no upstream branch", "no upstream configured"}},
	{repo.ErrConflict, []string{"conflict", "automatic merge failed", "non-fast-forward", "[rejected]"}},
}

// classify attaches the matching backend sentinel to a git failure.
func classify(err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %w", repo.ErrGitMissing, err)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	stderr := strings.ToLower(cmdErr.Stderr)
	for _, s := range stderrSentinels {
		for _, m := range s.markers {
			if strings.Contains(stderr, m) {
				return fmt.Errorf("%w: %w", s.sentinel, err)
			}
		}
	}
	return err
}
