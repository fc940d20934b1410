package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/types"
)

// Helper to create a sample plan with two sections
func createSamplePlan() Plan {
	date := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	commits := []types.CommitRecord{
		{Hash: "aaaaaaa111", Date: date, Message: "feat: export to csv"},
		{Hash: "bbbbbbb222", Date: date, Message: "fix: crash on empty input"},
	}
	return Plan{
		Current:  types.SemVer{Major: 1, Minor: 2},
		Next:     types.SemVer{Major: 1, Minor: 3},
		Sync:     types.SyncStatus{State: types.SyncUpToDate, Branch: "main"},
		Sections: classify.New().Classify(commits).Sections(),
		Files:    []string{"CHANGELOG.md", "README.md", "version.txt"},
		CanPush:  true,
	}
}

// Helper to create a basic model for testing
func createTestModel(plan Plan) Model {
	publish := func(context.Context, bool) types.PublishResult {
		return types.PublishResult{Committed: true}
	}
	model := InitialModel(context.Background(), plan, publish)
	model.Init()
	return model
}

// Helper to simulate key presses
func simulateKeyPress(m tea.Model, key string) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

// Helper to simulate special key presses
func simulateSpecialKeyPress(m tea.Model, keyType tea.KeyType) (tea.Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: keyType})
}

type cmdType int

const (
	cmdTypeNil cmdType = iota
	cmdTypeQuit
	cmdTypeBatch // tea.Batch containing publishCmd and spinner.Tick
)

// Helper to check command type
func checkCmdType(cmd tea.Cmd) cmdType {
	if cmd == nil {
		return cmdTypeNil
	}
	if reflect.ValueOf(cmd).Pointer() == reflect.ValueOf(tea.Quit).Pointer() {
		return cmdTypeQuit
	}
	if _, ok := cmd().(tea.BatchMsg); ok {
		return cmdTypeBatch
	}
	return cmdTypeNil
}

func TestTuiNavigation(t *testing.T) {
	m := createTestModel(createSamplePlan())
	total := len(m.Plan.Sections)
	if total != 2 {
		t.Fatalf("Expected 2 sections, got %d", total)
	}

	var tm tea.Model = m
	tm, _ = simulateSpecialKeyPress(tm, tea.KeyUp)
	if got := tm.(Model).Cursor; got != 0 {
		t.Errorf("Cursor should stay at 0 when moving up from the top, got %d", got)
	}

	tm, _ = simulateKeyPress(tm, "j")
	tm, _ = simulateSpecialKeyPress(tm, tea.KeyDown)
	if got := tm.(Model).Cursor; got != total-1 {
		t.Errorf("Cursor should stop at the last section (%d), got %d", total-1, got)
	}

	tm, _ = simulateKeyPress(tm, "k")
	if got := tm.(Model).Cursor; got != 0 {
		t.Errorf("Expected cursor 0 after moving up, got %d", got)
	}
}

func TestTuiExpandSection(t *testing.T) {
	var tm tea.Model = createTestModel(createSamplePlan())

	if strings.Contains(tm.View(), "export to csv") {
		t.Fatal("Entries should be hidden before expanding")
	}
	tm, _ = simulateKeyPress(tm, " ")
	if !tm.(Model).Expanded[0] {
		t.Fatal("Expected section 0 to be expanded")
	}
	if !strings.Contains(tm.View(), "[aaaaaaa] export to csv") {
		t.Errorf("Expanded view should list the entry, got:\n%s", tm.View())
	}
	tm, _ = simulateKeyPress(tm, " ")
	if tm.(Model).Expanded[0] {
		t.Error("Expected section 0 to collapse on second toggle")
	}
}

func TestTuiPushToggle(t *testing.T) {
	t.Run("toggle when allowed", func(t *testing.T) {
		var tm tea.Model = createTestModel(createSamplePlan())
		if !tm.(Model).Push {
			t.Fatal("Push should be preselected when allowed")
		}
		tm, _ = simulateSpecialKeyPress(tm, tea.KeyTab)
		if tm.(Model).Push {
			t.Error("Tab should turn push off")
		}
		tm, _ = simulateKeyPress(tm, "p")
		if !tm.(Model).Push {
			t.Error("p should turn push back on")
		}
	})

	t.Run("blocked by sync gate", func(t *testing.T) {
		plan := createSamplePlan()
		plan.Sync = types.SyncStatus{State: types.SyncDiverged, Branch: "main"}
		plan.PushBlocked = errors.New("branch has diverged")
		var tm tea.Model = createTestModel(plan)

		if tm.(Model).Push {
			t.Fatal("Push must not be preselected when blocked")
		}
		tm, _ = simulateKeyPress(tm, "p")
		if tm.(Model).Push {
			t.Error("Push must not be enabled when blocked")
		}
		if !strings.Contains(tm.View(), "Push blocked: branch has diverged") {
			t.Errorf("View should explain the block, got:\n%s", tm.View())
		}
	})

	t.Run("no remote", func(t *testing.T) {
		plan := createSamplePlan()
		plan.CanPush = false
		m := createTestModel(plan)
		if m.Push {
			t.Fatal("Push must be off without a remote")
		}
		if !strings.Contains(m.View(), "Push: unavailable") {
			t.Errorf("View should show push unavailable, got:\n%s", m.View())
		}
	})
}

func TestTuiStateTransitions(t *testing.T) {
	result := types.PublishResult{Committed: true, Pushed: true}

	testCases := []struct {
		name          string
		initialState  ViewState
		inputMsg      tea.Msg
		expectedState ViewState
		expectedCmd   cmdType
		cancelled     bool
	}{
		{
			name:          "Reviewing: Enter -> Confirming",
			initialState:  StateReviewing,
			inputMsg:      tea.KeyMsg{Type: tea.KeyEnter},
			expectedState: StateConfirming,
			expectedCmd:   cmdTypeNil,
		},
		{
			name:          "Confirming: n -> Reviewing",
			initialState:  StateConfirming,
			inputMsg:      tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")},
			expectedState: StateReviewing,
			expectedCmd:   cmdTypeNil,
		},
		{
			name:          "Confirming: Esc -> Reviewing",
			initialState:  StateConfirming,
			inputMsg:      tea.KeyMsg{Type: tea.KeyEsc},
			expectedState: StateReviewing,
			expectedCmd:   cmdTypeNil,
		},
		{
			name:          "Confirming: y -> Publishing",
			initialState:  StateConfirming,
			inputMsg:      tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")},
			expectedState: StatePublishing,
			expectedCmd:   cmdTypeBatch,
		},
		{
			name:          "Publishing: publishedMsg -> Results",
			initialState:  StatePublishing,
			inputMsg:      publishedMsg{result: result},
			expectedState: StateResults,
			expectedCmd:   cmdTypeNil,
		},
		{
			name:          "Publishing: Any Key -> No Change",
			initialState:  StatePublishing,
			inputMsg:      tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")},
			expectedState: StatePublishing,
			expectedCmd:   cmdTypeNil,
		},
		{
			name:          "Results: Any Key -> Quit",
			initialState:  StateResults,
			inputMsg:      tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")},
			expectedState: StateResults,
			expectedCmd:   cmdTypeQuit,
		},
		{
			name:          "Reviewing: q -> Quit",
			initialState:  StateReviewing,
			inputMsg:      tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")},
			expectedState: StateReviewing,
			expectedCmd:   cmdTypeQuit,
			cancelled:     true,
		},
		{
			name:          "Reviewing: Ctrl+C -> Quit",
			initialState:  StateReviewing,
			inputMsg:      tea.KeyMsg{Type: tea.KeyCtrlC},
			expectedState: StateReviewing,
			expectedCmd:   cmdTypeQuit,
			cancelled:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := createTestModel(createSamplePlan())
			m.ViewState = tc.initialState

			mUpdated, cmd := m.Update(tc.inputMsg)
			mAsserted, ok := mUpdated.(Model)
			if !ok {
				t.Fatalf("Update did not return a Model")
			}

			if mAsserted.ViewState != tc.expectedState {
				t.Errorf("Expected state %v, got %v", tc.expectedState, mAsserted.ViewState)
			}
			if actual := checkCmdType(cmd); actual != tc.expectedCmd {
				t.Errorf("Expected command type %v, got %v", tc.expectedCmd, actual)
			}
			if mAsserted.Cancelled != tc.cancelled {
				t.Errorf("Expected Cancelled=%v, got %v", tc.cancelled, mAsserted.Cancelled)
			}
			if _, ok := tc.inputMsg.(publishedMsg); ok && mAsserted.Result != result {
				t.Errorf("Result not stored correctly after publishedMsg. Got: %+v", mAsserted.Result)
			}
		})
	}
}

func TestPublishCmdPassesPushChoice(t *testing.T) {
	var gotPush bool
	publish := func(_ context.Context, push bool) types.PublishResult {
		gotPush = push
		return types.PublishResult{Committed: true, Pushed: push}
	}

	msg := publishCmd(context.Background(), publish, true)()
	published, ok := msg.(publishedMsg)
	if !ok {
		t.Fatalf("Expected publishedMsg, got %T", msg)
	}
	if !gotPush || !published.result.Pushed {
		t.Errorf("Expected push to be requested and reported, got %+v", published.result)
	}
}

func TestTuiResultsView(t *testing.T) {
	testCases := []struct {
		name   string
		result types.PublishResult
		want   string
	}{
		{"pushed", types.PublishResult{Committed: true, Pushed: true}, "committed and pushed"},
		{"committed", types.PublishResult{Committed: true}, "Version 1.3.0 committed"},
		{"nothing", types.PublishResult{Message: "No changes to commit"}, "Nothing was committed."},
		{"failed", types.PublishResult{Committed: true, Err: errors.New("remote rejected")}, "Failed: remote rejected"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := createTestModel(createSamplePlan())
			m.ViewState = StateResults
			m.Result = tc.result
			if view := m.View(); !strings.Contains(view, tc.want) {
				t.Errorf("Expected view to contain %q, got:\n%s", tc.want, view)
			}
		})
	}
}

func TestTuiEmptyPlan(t *testing.T) {
	m := createTestModel(Plan{Next: types.InitialVersion})

	if m.ViewState != StateReviewing {
		t.Fatalf("Initial state not reviewing")
	}
	var tm tea.Model = m
	tm, _ = simulateSpecialKeyPress(tm, tea.KeyDown)
	tm, _ = simulateKeyPress(tm, " ")
	if tm.(Model).Cursor != 0 {
		t.Errorf("Cursor should stay at 0 on an empty plan")
	}
	if !strings.Contains(tm.View(), "No categorized commits.") {
		t.Errorf("Expected empty-plan message, got:\n%s", tm.View())
	}
}
