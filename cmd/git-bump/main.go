package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bral/git-bump-go/internal/apperr"
	"github.com/bral/git-bump-go/internal/config"
	"github.com/bral/git-bump-go/internal/gitcmd"
	"github.com/bral/git-bump-go/internal/gogit"
	"github.com/bral/git-bump-go/internal/prompt"
	"github.com/bral/git-bump-go/internal/repo"
	"github.com/bral/git-bump-go/internal/report"
	"github.com/bral/git-bump-go/internal/workflow"
)

// Global state shared by the commands, filled in by PersistentPreRunE.
var (
	appConfig config.Config
	isDebug   bool
	isQuiet   bool
	logger    = zap.NewNop()
	runOpts   workflow.Options
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var rootCmd = &cobra.Command{
	Use:     "git-bump",
	Version: "0.1.0",
	Short:   "git-bump regenerates the changelog and readme and bumps the project version",
	Long: `git-bump reads your recent commits, sorts them into changelog categories
(Added, Fixed, Changed, ...), rewrites CHANGELOG.md and README.md, and bumps
the semantic version in version.txt. The bump is inferred from the newest
commit unless you choose one. It can then commit the result and push it,
refusing to push when the branch is behind or has diverged from the remote.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// loadConfig reads the configuration, applies flag overrides and builds the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	isDebug, _ = cmd.Flags().GetBool("debug")
	isQuiet, _ = cmd.Flags().GetBool("quiet")

	customConfigPath, _ := cmd.Flags().GetString("config")
	var err error
	appConfig, err = config.LoadConfig(customConfigPath)
	configFound := true
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		// No file anywhere: defaults apply. `git-bump init` writes one.
		configFound = false
	}

	applyOverrides(cmd)
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err = report.NewLogger(appConfig.LogFile, isDebug)
	if err != nil {
		return apperr.Persistence(appConfig.LogFile, err)
	}
	logger.Debug("configuration loaded",
		zap.Bool("found", configFound),
		zap.String("path", customConfigPath),
		zap.Int("commit_count", appConfig.CommitCount),
		zap.String("backend", appConfig.Backend),
		zap.String("remote", appConfig.Remote))
	return nil
}

// applyOverrides copies explicitly set flags over the loaded configuration.
func applyOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if v, _ := flags.GetInt("count"); v > 0 {
		appConfig.CommitCount = v
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{"remote", &appConfig.Remote},
		{"backend", &appConfig.Backend},
		{"changelog", &appConfig.ChangelogFile},
		{"readme", &appConfig.ReadmeFile},
		{"version-file", &appConfig.VersionFile},
		{"history-file", &appConfig.HistoryFile},
		{"log-file", &appConfig.LogFile},
	} {
		if v, _ := flags.GetString(o.flag); v != "" {
			*o.dst = v
		}
	}
	if v, _ := flags.GetBool("no-backup"); v {
		appConfig.CreateBackups = false
	}
	if v, _ := flags.GetBool("no-cache"); v {
		appConfig.UseCache = false
	}
	if v, _ := flags.GetBool("no-pull"); v {
		appConfig.PullBeforeRun = false
	}
}

// newBackend returns the repository backend selected by the configuration.
func newBackend() repo.Backend {
	if appConfig.Backend == config.BackendGoGit {
		return gogit.New(".", appConfig.Remote, logger)
	}
	return gitcmd.New(appConfig.Remote,
		gitcmd.WithTimeout(appConfig.GitTimeout()),
		gitcmd.WithLogger(logger))
}

func newRunner() *workflow.Runner {
	yes, _ := rootCmd.Flags().GetBool("yes")
	console := report.NewConsole(os.Stdout, logger, isQuiet)
	terminal := prompt.NewTerminal(os.Stdin, os.Stdout, yes)
	return workflow.New(appConfig, ".", newBackend(), terminal, console, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		if hints := apperr.FormatHints(err); hints != "" {
			fmt.Fprintln(os.Stderr, hintStyle.Render(hints))
		}
		os.Exit(apperr.ExitCode(err))
	}
}

func init() {
	// Assigned here rather than in the literal to break the
	// rootCmd -> newRunner -> rootCmd initialization cycle.
	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return newRunner().Run(cmd.Context(), runOpts)
	}

	pf := rootCmd.PersistentFlags()
	pf.Bool("debug", false, "Enable debug logging to stderr.")
	pf.BoolP("quiet", "q", false, "Suppress console output (the log file is still written).")
	pf.String("config", "", "Path to a configuration file (default: ./.git-bump.toml, then the user config dir).")
	pf.StringP("remote", "r", "", "Override config: remote name.")
	pf.String("backend", "", "Override config: repository backend, git or go-git.")
	pf.Int("count", 0, "Override config: number of recent commits to read (0 uses config).")
	pf.String("version-file", "", "Override config: version file.")
	pf.String("log-file", "", "Override config: log file.")
	pf.StringVarP(&runOpts.VersionType, "version-type", "t", "", "Force the bump: major, minor or patch (default: inferred from the newest commit).")
	pf.StringVarP(&runOpts.SetVersion, "set-version", "c", "", "Use this exact version instead of bumping (MAJOR.MINOR.PATCH).")
	pf.BoolVar(&runOpts.NoCache, "no-cache", false, "Ignore the commit history cache.")

	f := rootCmd.Flags()
	f.BoolVarP(&runOpts.SkipCleanup, "skip-cleanup", "s", false, "Keep the commit history cache after the run.")
	f.BoolVar(&runOpts.NoPush, "no-push", false, "Commit but never push.")
	f.BoolVar(&runOpts.Review, "review", false, "Review the release in an interactive screen before committing.")
	f.BoolP("yes", "y", false, "Answer yes to every confirmation.")
	f.BoolP("no-backup", "n", false, "Do not keep .bak copies of overwritten files.")
	f.Bool("no-pull", false, "Do not pull when the branch is behind the remote.")
	f.String("changelog", "", "Override config: changelog file.")
	f.String("readme", "", "Override config: readme file.")
	f.String("history-file", "", "Override config: commit history cache file.")

	rootCmd.AddCommand(statusCmd, previewCmd, initCmd)
}
