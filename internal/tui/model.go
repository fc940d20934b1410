// Package tui implements the interactive review-and-publish screen using Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bral/git-bump-go/internal/classify"
	"github.com/bral/git-bump-go/internal/types"
)

// --- Styles ---
var (
	docStyle           = lipgloss.NewStyle().Margin(1, 2)
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	cursorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	helpStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headingStyle       = lipgloss.NewStyle().Bold(true).Underline(true).MarginBottom(1)
	confirmPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	warningStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("202"))
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	versionStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	entryStyle         = helpStyle.Faint(true)

	syncStyleMap = map[types.SyncState]lipgloss.Style{
		types.SyncUpToDate:      successStyle,
		types.SyncAheadOfRemote: successStyle,
		types.SyncNoRemote:      helpStyle,
		types.SyncBehindRemote:  warningStyle,
		types.SyncDiverged:      errorStyle,
		types.SyncUnknown:       warningStyle,
	}
)

// ViewState represents the different views the TUI can be in.
type ViewState int

const (
	// StateReviewing is the initial state: the planned release is shown and sections can be expanded.
	StateReviewing ViewState = iota
	// StateConfirming asks for a final yes/no before committing.
	StateConfirming
	// StatePublishing is shown while the commit (and push) runs.
	StatePublishing
	// StateResults shows the outcome of publishing.
	StateResults
)

// Plan is the release the user is asked to approve.
type Plan struct {
	Current  types.SemVer
	Next     types.SemVer
	Sync     types.SyncStatus
	Sections []classify.Section
	Files    []string
	// CanPush is false when there is no remote or pushing was disabled.
	CanPush bool
	// PushBlocked explains why pushing would be refused by the sync gate.
	PushBlocked error
}

// PublishFunc commits the release and pushes it when push is true.
type PublishFunc func(ctx context.Context, push bool) types.PublishResult

// --- Messages ---

// publishedMsg carries the publish result back to the TUI after execution.
type publishedMsg struct {
	result types.PublishResult
}

// --- Model ---

// Model represents the state of the TUI application.
type Model struct {
	Ctx       context.Context
	Plan      Plan
	Publish   PublishFunc
	Cursor    int
	Expanded  map[int]bool
	Push      bool
	ViewState ViewState
	Result    types.PublishResult
	Cancelled bool
	Spinner   spinner.Model
	Width     int
	Height    int
}

// InitialModel creates the starting model. Pushing is preselected when the plan allows it.
func InitialModel(ctx context.Context, plan Plan, publish PublishFunc) Model {
	s := spinner.New()
	s.Style = spinnerStyle
	s.Spinner = spinner.Dot

	return Model{
		Ctx:       ctx,
		Plan:      plan,
		Publish:   publish,
		Expanded:  make(map[int]bool),
		Push:      plan.CanPush && plan.PushBlocked == nil,
		ViewState: StateReviewing,
		Spinner:   s,
	}
}

// Init is the first command that runs when the Bubble Tea program starts.
func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// publishCmd is a tea.Cmd that runs the publish step off the UI loop.
func publishCmd(ctx context.Context, publish PublishFunc, push bool) tea.Cmd {
	return func() tea.Msg {
		return publishedMsg{result: publish(ctx, push)}
	}
}

// --- Update Logic ---

// Update handles messages and updates the model accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case publishedMsg:
		m.Result = msg.result
		m.ViewState = StateResults
		return m, nil

	case spinner.TickMsg:
		if m.ViewState == StatePublishing {
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.ViewState != StatePublishing && m.ViewState != StateResults {
				m.Cancelled = true
			}
			return m, tea.Quit
		}

		switch m.ViewState {
		case StateReviewing:
			return m.updateReviewing(msg)
		case StateConfirming:
			return m.updateConfirming(msg)
		case StatePublishing:
			return m, nil
		case StateResults:
			return m, tea.Quit
		}
	}

	return m, nil
}

// updateReviewing handles key presses when in the reviewing state.
func (m Model) updateReviewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := len(m.Plan.Sections)

	switch msg.String() {
	case "q", "esc":
		m.Cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < total-1 {
			m.Cursor++
		}
	case " ":
		if m.Cursor < total {
			m.Expanded[m.Cursor] = !m.Expanded[m.Cursor]
		}
	case "tab", "p":
		if m.Plan.CanPush && m.Plan.PushBlocked == nil {
			m.Push = !m.Push
		}
	case "enter":
		m.ViewState = StateConfirming
	}
	return m, nil
}

// updateConfirming handles key presses when in the confirming state.
func (m Model) updateConfirming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "n", "N", "esc":
		m.ViewState = StateReviewing
		return m, nil
	case "y", "Y":
		m.ViewState = StatePublishing
		return m, tea.Batch(
			publishCmd(m.Ctx, m.Publish, m.Push),
			m.Spinner.Tick,
		)
	}
	return m, nil
}

// --- View ---

func (m Model) renderHeader(b *strings.Builder) {
	fmt.Fprintf(b, "Release %s → %s\n",
		helpStyle.Render(m.Plan.Current.String()), versionStyle.Render(m.Plan.Next.String()))

	sync := m.Plan.Sync
	style := syncStyleMap[sync.State]
	line := string(sync.State)
	if sync.Branch != "" {
		line = fmt.Sprintf("%s (%s)", line, sync.Branch)
	}
	if sync.Err != nil {
		line += ": " + sync.Err.Error()
	}
	b.WriteString("Sync: " + style.Render(line) + "\n\n")
}

func (m Model) renderReviewingState(b *strings.Builder) {
	m.renderHeader(b)
	b.WriteString(headingStyle.Render("Changes (Space: expand):") + "\n")

	if len(m.Plan.Sections) == 0 {
		b.WriteString(helpStyle.Render("No categorized commits.") + "\n")
	}
	for i, s := range m.Plan.Sections {
		cursor := " "
		line := fmt.Sprintf("%s %s (%d)", s.Glyph, s.Category, len(s.Entries))
		if m.Cursor == i {
			cursor = cursorStyle.Render(">")
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + " " + line + "\n")
		if m.Expanded[i] {
			for _, e := range s.Entries {
				b.WriteString("    " + entryStyle.Render(fmt.Sprintf("[%s] %s", e.Commit.ShortHash(), e.Residual)) + "\n")
			}
		}
	}

	if len(m.Plan.Files) > 0 {
		b.WriteString("\nFiles to commit: " + strings.Join(m.Plan.Files, ", ") + "\n")
	}

	push := "[ ]"
	if m.Push {
		push = selectedStyle.Render("[x]")
	}
	switch {
	case !m.Plan.CanPush:
		b.WriteString("\n" + helpStyle.Render("Push: unavailable (no remote or disabled)") + "\n")
	case m.Plan.PushBlocked != nil:
		b.WriteString("\n" + warningStyle.Render("Push blocked: "+m.Plan.PushBlocked.Error()) + "\n")
	default:
		b.WriteString("\nPush after commit: " + push + "\n")
	}

	b.WriteString(helpStyle.Render("\n↑/↓: move | Space: expand | Tab/p: toggle push | Enter: continue | q: quit\n"))
}

func (m Model) renderConfirmingState(b *strings.Builder) {
	m.renderHeader(b)
	action := "Commit"
	if m.Push {
		action = "Commit and push"
	}
	b.WriteString(confirmPromptStyle.Render(fmt.Sprintf("%s version %s? (y/N) ", action, m.Plan.Next)))
}

func (m Model) renderPublishingState(b *strings.Builder) {
	b.WriteString(m.Spinner.View())
	if m.Push {
		b.WriteString(" Committing and pushing...")
	} else {
		b.WriteString(" Committing...")
	}
}

func (m Model) renderResultsState(b *strings.Builder) {
	r := m.Result
	switch {
	case r.Err != nil:
		b.WriteString(errorStyle.Render("❌ Failed: "+r.Err.Error()) + "\n")
	case r.Pushed:
		b.WriteString(successStyle.Render(fmt.Sprintf("✅ Version %s committed and pushed", m.Plan.Next)) + "\n")
	case r.Committed:
		b.WriteString(successStyle.Render(fmt.Sprintf("✅ Version %s committed", m.Plan.Next)) + "\n")
	default:
		b.WriteString(helpStyle.Render("Nothing was committed.") + "\n")
	}
	if r.Message != "" {
		b.WriteString(helpStyle.Render(r.Message) + "\n")
	}
	b.WriteString(helpStyle.Render("\nPress any key to exit."))
}

// View renders the UI based on the model's state.
func (m Model) View() string {
	var b strings.Builder

	switch m.ViewState {
	case StateReviewing:
		m.renderReviewingState(&b)
	case StateConfirming:
		m.renderConfirmingState(&b)
	case StatePublishing:
		m.renderPublishingState(&b)
	case StateResults:
		m.renderResultsState(&b)
	}

	return docStyle.Render(b.String())
}

// Run shows the review screen and blocks until the user quits. It returns the publish
// result and whether the user cancelled before publishing.
func Run(ctx context.Context, plan Plan, publish PublishFunc) (types.PublishResult, bool, error) {
	final, err := tea.NewProgram(InitialModel(ctx, plan, publish), tea.WithContext(ctx)).Run()
	if err != nil {
		return types.PublishResult{}, false, fmt.Errorf("error running review screen: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return types.PublishResult{}, false, fmt.Errorf("unexpected model type %T", final)
	}
	return m.Result, m.Cancelled, nil
}
