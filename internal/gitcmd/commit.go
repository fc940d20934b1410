package gitcmd

import (
	"context"
	"fmt"
)

// StageAll stages every change in the working tree, including deletions and new files.
func (c *CLI) StageAll(ctx context.Context) error {
	if _, err := c.run(ctx, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// Commit records the staged changes with message.
func (c *CLI) Commit(ctx context.Context, message string) error {
	if message == "" {
		return fmt.Errorf("commit message cannot be empty")
	}
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Push pushes the current branch to its upstream. Without one git refuses and the error
// wraps repo.ErrNoUpstream.
func (c *CLI) Push(ctx context.Context) error {
	if _, err := c.runRemote(ctx, "push"); err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// PushSetUpstream pushes branch to the configured remote and records it as upstream.
func (c *CLI) PushSetUpstream(ctx context.Context, branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if _, err := c.runRemote(ctx, "push", "--set-upstream", c.remote, branch); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", branch, c.remote, err)
	}
	return nil
}
