package gitcmd

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// commandExpectation defines an expected git command call and its result.
type commandExpectation struct {
	args   []string // Expected arguments
	output string   // Output to return
	err    error    // Error to return
}

// setupExpectations sets the package Runner to a mock that verifies calls against a sequence of expectations.
// The original runner is restored and unmet expectations are reported when the test ends.
func setupExpectations(t *testing.T, expectations []commandExpectation) {
	t.Helper()

	originalRunner := Runner
	current := 0
	var mu sync.Mutex

	Runner = func(_ context.Context, args ...string) (string, error) {
		mu.Lock()
		defer mu.Unlock()

		if current >= len(expectations) {
			t.Fatalf("Unexpected git command call: %v. No more expectations.", args)
			return "", errors.New("unexpected call")
		}
		expected := expectations[current]
		if diff := cmp.Diff(expected.args, args); diff != "" {
			t.Fatalf("Unexpected git command arguments (-want +got):\n%s", diff)
			return "", errors.New("unexpected arguments")
		}
		current++
		return expected.output, expected.err
	}

	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		if current < len(expectations) {
			t.Errorf("Not all expected git commands were called. Expected %d more.", len(expectations)-current)
			for i := current; i < len(expectations); i++ {
				t.Logf("Remaining expectation %d: args=%v, output=%q, err=%v",
					i, expectations[i].args, expectations[i].output, expectations[i].err)
			}
		}
		Runner = originalRunner
	})
}

// gitFailure builds the error the real runner returns for a failed command.
func gitFailure(stderr string) error {
	return &CommandError{Args: []string{"mock"}, Stderr: stderr, ExitCode: 1, Err: errors.New("exit status 1")}
}
