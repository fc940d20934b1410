package gitcmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/syncstate"
	"github.com/bral/git-bump-go/internal/types"
)

func TestCommitLog(t *testing.T) {
	ctx := context.Background()
	logArgs := []string{"log", "-n", "3", commitLogFormat}

	t.Run("Successful Parsing", func(t *testing.T) {
		sample := "aaaaaaaaa1\x1f2025-03-27T20:00:00-04:00\x1fAda\x1fada@example.com\x1ffeat: add login | logout\n" +
			"bbbbbbbbb2\x1f2025-03-26T10:00:00-04:00\x1fBob\x1fbob@example.com\x1ffix: crash"
		setupExpectations(t, []commandExpectation{{args: logArgs, output: sample}})

		got, err := New("origin").CommitLog(ctx, 3)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		d1, _ := time.Parse(time.RFC3339, "2025-03-27T20:00:00-04:00")
		d2, _ := time.Parse(time.RFC3339, "2025-03-26T10:00:00-04:00")
		want := []types.CommitRecord{
			{Hash: "aaaaaaaaa1", Date: d1, Author: "Ada", Email: "ada@example.com", Message: "feat: add login | logout"},
			{Hash: "bbbbbbbbb2", Date: d2, Author: "Bob", Email: "bob@example.com", Message: "fix: crash"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("CommitLog mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Empty Repository", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{
			args: logArgs,
			err:  gitFailure("fatal: your current branch 'main' does not have any commits yet"),
		}})

		got, err := New("origin").CommitLog(ctx, 3)
		if err != nil {
			t.Fatalf("Expected no error for empty history, got %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("Git Failure", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{args: logArgs, err: gitFailure("fatal: something broke")}})

		if _, err := New("origin").CommitLog(ctx, 3); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})

	t.Run("Rejects Non-Positive Count", func(t *testing.T) {
		setupExpectations(t, nil)
		if _, err := New("origin").CommitLog(ctx, 0); err == nil {
			t.Fatal("Expected an error for count 0")
		}
	})
}

func TestBranchAhead(t *testing.T) {
	ctx := context.Background()
	args := []string{"for-each-ref", trackFormat, "refs/heads/main"}

	testCases := []struct {
		name      string
		output    string
		wantAhead int
		wantErr   error
	}{
		{name: "ahead only", output: "origin/main\x00[ahead 2]", wantAhead: 2},
		{name: "ahead and behind", output: "origin/main\x00[ahead 3, behind 1]", wantAhead: 3},
		{name: "behind only", output: "origin/main\x00[behind 4]", wantAhead: 0},
		{name: "in sync", output: "origin/main\x00", wantAhead: 0},
		{name: "no upstream", output: "\x00", wantErr: repo.ErrNoUpstream},
		{name: "upstream gone", output: "origin/main\x00[gone]", wantErr: repo.ErrNoUpstream},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setupExpectations(t, []commandExpectation{{args: args, output: tc.output}})

			ahead, err := New("origin").BranchAhead(ctx, "main")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ahead != tc.wantAhead {
				t.Errorf("Expected ahead=%d, got %d", tc.wantAhead, ahead)
			}
		})
	}
}

func TestRemoteHead(t *testing.T) {
	ctx := context.Background()
	args := []string{"rev-parse", "--verify", "--quiet", "refs/remotes/upstream/dev"}

	t.Run("Found", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{args: args, output: "abc123"}})
		got, err := New("upstream").RemoteHead(ctx, "dev")
		if err != nil || got != "abc123" {
			t.Fatalf("Expected abc123, got %q (err %v)", got, err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{args: args, err: gitFailure("")}})
		_, err := New("upstream").RemoteHead(ctx, "dev")
		if !errors.Is(err, repo.ErrRemoteBranchNotFound) {
			t.Fatalf("Expected ErrRemoteBranchNotFound, got %v", err)
		}
	})

	t.Run("Lookup Failure", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{
			args: args,
			err:  &CommandError{Args: args, Stderr: "fatal: bad object refs/remotes/upstream/dev", ExitCode: -1, Err: context.DeadlineExceeded},
		}})
		_, err := New("upstream").RemoteHead(ctx, "dev")
		if errors.Is(err, repo.ErrRemoteBranchNotFound) {
			t.Fatalf("Expected a failed lookup not to read as a missing branch, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("Expected the underlying error to be kept, got %v", err)
		}
	})

	t.Run("Exit 1 With Stderr", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{args: args, err: gitFailure("fatal: corrupt ref")}})
		_, err := New("upstream").RemoteHead(ctx, "dev")
		if err == nil || errors.Is(err, repo.ErrRemoteBranchNotFound) {
			t.Fatalf("Expected a lookup error, got %v", err)
		}
	})
}

func TestSyncCheckUnknownWhenRemoteHeadFails(t *testing.T) {
	remoteHead := []string{"rev-parse", "--verify", "--quiet", "refs/remotes/origin/main"}
	setupExpectations(t, []commandExpectation{
		{args: []string{"remote"}, output: "origin"},
		{args: []string{"fetch", "origin"}},
		{args: []string{"branch", "--show-current"}, output: "main"},
		{args: []string{"rev-parse", "HEAD"}, output: "aaaaaaaa"},
		{args: remoteHead, err: &CommandError{Args: remoteHead, Stderr: "fatal: bad object", ExitCode: -1, Err: context.DeadlineExceeded}},
	})

	status := syncstate.NewChecker(New("origin"), nil).Check(context.Background())
	if status.State != types.SyncUnknown {
		t.Fatalf("Expected state %s, got %s", types.SyncUnknown, status.State)
	}
	if err := syncstate.CanPush(status); err == nil {
		t.Fatal("Expected the push gate to refuse an unknown sync state")
	}
}

func TestHasRemote(t *testing.T) {
	ctx := context.Background()
	setupExpectations(t, []commandExpectation{
		{args: []string{"remote"}, output: "origin\nupstream"},
		{args: []string{"remote"}, output: "upstream"},
	})

	cli := New("origin")
	if ok, err := cli.HasRemote(ctx); err != nil || !ok {
		t.Errorf("Expected origin to be found, got %v (err %v)", ok, err)
	}
	if ok, err := cli.HasRemote(ctx); err != nil || ok {
		t.Errorf("Expected origin to be missing, got %v (err %v)", ok, err)
	}
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()
	setupExpectations(t, []commandExpectation{
		{args: []string{"config", "--get", "user.name"}, output: "Ada Lovelace"},
		{args: []string{"config", "--get", "user.email"}, err: gitFailure("")},
	})

	id, err := New("origin").Identity(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(repo.Identity{Name: "Ada Lovelace"}, id); diff != "" {
		t.Errorf("Identity mismatch (-want +got):\n%s", diff)
	}
	if id.Complete() {
		t.Error("Identity without email should not be complete")
	}
}

func TestCurrentBranchDetached(t *testing.T) {
	setupExpectations(t, []commandExpectation{{args: []string{"branch", "--show-current"}, output: ""}})
	if _, err := New("origin").CurrentBranch(context.Background()); err == nil {
		t.Fatal("Expected an error for detached HEAD")
	}
}

func TestIsRepository(t *testing.T) {
	ctx := context.Background()
	args := []string{"rev-parse", "--is-inside-work-tree"}

	t.Run("Inside", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{args: args, output: "true"}})
		ok, err := New("origin").IsRepository(ctx)
		if err != nil || !ok {
			t.Fatalf("Expected true, got %v (err %v)", ok, err)
		}
	})

	t.Run("Outside", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{
			args: args,
			err:  gitFailure("fatal: not a git repository (or any of the parent directories): .git"),
		}})
		ok, err := New("origin").IsRepository(ctx)
		if err != nil || ok {
			t.Fatalf("Expected false without error, got %v (err %v)", ok, err)
		}
	})

	t.Run("Git Missing", func(t *testing.T) {
		setupExpectations(t, []commandExpectation{{
			args: args,
			err:  &CommandError{Args: args, Err: &exec.Error{Name: "git", Err: exec.ErrNotFound}},
		}})
		_, err := New("origin").IsRepository(ctx)
		if !errors.Is(err, repo.ErrGitMissing) {
			t.Fatalf("Expected ErrGitMissing, got %v", err)
		}
	})
}

func TestWithDirPrefixesArgs(t *testing.T) {
	setupExpectations(t, []commandExpectation{{args: []string{"-C", "/tmp/project", "rev-parse", "HEAD"}, output: "abc"}})

	got, err := New("origin", WithDir("/tmp/project")).Head(context.Background())
	if err != nil || got != "abc" {
		t.Fatalf("Expected abc, got %q (err %v)", got, err)
	}
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		stderr string
		want   error
	}{
		{"fatal: Authentication failed for 'https://example.com/x.git/'", repo.ErrAuth},
		{"git@github.com: Permission denied (publickey).", repo.ErrAuth},
		{"fatal: could not read Username for 'https://github.com': terminal prompts disabled", repo.ErrAuth},
		{"fatal: The current branch feature has no upstream branch.", repo.ErrNoUpstream},
		{"CONFLICT (content): Merge conflict in README.md", repo.ErrConflict},
		{"fatal: not a git repository", repo.ErrNotRepository},
	}
	for _, tc := range testCases {
		t.Run(tc.stderr, func(t *testing.T) {
			err := classify(gitFailure(tc.stderr))
			if !errors.Is(err, tc.want) {
				t.Errorf("classify(%q) = %v, want %v", tc.stderr, err, tc.want)
			}
		})
	}

	plain := fmt.Errorf("something else")
	if got := classify(plain); got != plain {
		t.Errorf("Expected unclassified error to pass through, got %v", got)
	}
}
