// Package report carries user-facing progress messages out of the core. The core only
// sees the Reporter interface; styling and log files are decided here.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Level is the severity of a reported message.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Icon is a glyph prefixed to a reported message.
type Icon string

const (
	IconNone        Icon = ""
	IconChangelog   Icon = "📝"
	IconReadme      Icon = "📘"
	IconVersion     Icon = "🏷️"
	IconCommit      Icon = "✅"
	IconSuccess     Icon = "✓"
	IconWarning     Icon = "⚠️"
	IconError       Icon = "❌"
	IconInfo        Icon = "ℹ️"
	IconBackup      Icon = "💾"
	IconCleanup     Icon = "🧹"
	IconCelebration Icon = "🎉"
	IconSync        Icon = "🔄"
	IconFetch       Icon = "⬇️"
	IconPush        Icon = "☁️"
	IconSearch      Icon = "🔍"
	IconConfig      Icon = "⚙️"
	IconNumber      Icon = "🔢"
)

// Reporter receives progress messages from the core.
type Reporter interface {
	Report(level Level, icon Icon, message string)
}

// Infof reports a formatted informational message.
func Infof(r Reporter, icon Icon, format string, args ...any) {
	r.Report(LevelInfo, icon, fmt.Sprintf(format, args...))
}

// Successf reports a formatted success message.
func Successf(r Reporter, icon Icon, format string, args ...any) {
	r.Report(LevelSuccess, icon, fmt.Sprintf(format, args...))
}

// Warnf reports a formatted warning.
func Warnf(r Reporter, icon Icon, format string, args ...any) {
	r.Report(LevelWarning, icon, fmt.Sprintf(format, args...))
}

// Errorf reports a formatted error.
func Errorf(r Reporter, icon Icon, format string, args ...any) {
	r.Report(LevelError, icon, fmt.Sprintf(format, args...))
}

var levelStyles = map[Level]lipgloss.Style{
	LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),  // Cyan
	LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // Green
	LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // Yellow
	LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // Red
}

// Console writes styled messages to a terminal and mirrors every message into a zap
// logger, so the log file keeps a full record even when Quiet is set.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	logger *zap.Logger
	quiet  bool
}

// NewConsole creates a Console. A nil logger is replaced with a no-op logger.
func NewConsole(out io.Writer, logger *zap.Logger, quiet bool) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{out: out, logger: logger, quiet: quiet}
}

// Report implements Reporter.
func (c *Console) Report(level Level, icon Icon, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fields := []zap.Field{zap.String("level", level.String())}
	if icon != IconNone {
		fields = append(fields, zap.String("icon", string(icon)))
	}
	switch level {
	case LevelWarning:
		c.logger.Warn(message, fields...)
	case LevelError:
		c.logger.Error(message, fields...)
	default:
		c.logger.Info(message, fields...)
	}

	if c.quiet {
		return
	}
	styled := levelStyles[level].Render(message)
	if icon != IconNone {
		_, _ = fmt.Fprintf(c.out, "%s %s\n", icon, styled)
		return
	}
	_, _ = fmt.Fprintln(c.out, styled)
}

// Entry is one message captured by a Recorder.
type Entry struct {
	Level   Level
	Icon    Icon
	Message string
}

// Recorder keeps reported messages in memory. It is used by tests and by the TUI,
// which cannot share the terminal with direct writes.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

// Report implements Reporter.
func (r *Recorder) Report(level Level, icon Icon, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Level: level, Icon: icon, Message: message})
}

// Count returns how many messages were recorded at level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}
