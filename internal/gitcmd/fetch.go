package gitcmd

import (
	"context"
	"fmt"
)

// Probe checks the remote is reachable with the current credentials by running a
// fetch that transfers nothing.
func (c *CLI) Probe(ctx context.Context) error {
	if _, err := c.runRemote(ctx, "fetch", "--dry-run", c.remote); err != nil {
		return fmt.Errorf("remote %q is not reachable: %w", c.remote, err)
	}
	return nil
}

// Fetch updates the remote-tracking refs of the configured remote.
func (c *CLI) Fetch(ctx context.Context) error {
	if _, err := c.runRemote(ctx, "fetch", c.remote); err != nil {
		return fmt.Errorf("failed to fetch remote %q: %w", c.remote, err)
	}
	return nil
}

// Pull merges the remote's copy of the current branch and returns git's summary.
func (c *CLI) Pull(ctx context.Context) (string, error) {
	branch, err := c.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	out, err := c.runRemote(ctx, "pull", "--no-rebase", "--no-edit", c.remote, branch)
	if err != nil {
		return out, fmt.Errorf("failed to pull %s/%s: %w", c.remote, branch, err)
	}
	return out, nil
}
