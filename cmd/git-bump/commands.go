package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bral/git-bump-go/internal/config"
	"github.com/bral/git-bump-go/internal/fsutil"
	"github.com/bral/git-bump-go/internal/types"
	"github.com/bral/git-bump-go/internal/workflow"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how the current branch relates to the remote",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sync, push, err := newRunner().Status(cmd.Context())
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), sync, push)
		return nil
	},
}

func printStatus(w io.Writer, sync types.SyncStatus, push types.PushStatus) {
	if sync.Branch != "" {
		_, _ = fmt.Fprintf(w, "Branch:  %s\n", sync.Branch)
	}
	_, _ = fmt.Fprintf(w, "Sync:    %s\n", sync.State)
	if sync.Err != nil {
		_, _ = fmt.Fprintf(w, "Reason:  %v\n", sync.Err)
	}
	if sync.Local != "" {
		_, _ = fmt.Fprintf(w, "Local:   %s\n", shortHash(sync.Local))
	}
	if sync.Remote != "" {
		_, _ = fmt.Fprintf(w, "Remote:  %s\n", shortHash(sync.Remote))
	}
	switch {
	case sync.State == types.SyncNoRemote:
	case !push.HasUpstream:
		_, _ = fmt.Fprintln(w, "Push:    no upstream configured")
	case push.Pending:
		_, _ = fmt.Fprintf(w, "Push:    %d commit(s) waiting\n", push.Ahead)
	default:
		_, _ = fmt.Fprintln(w, "Push:    nothing to push")
	}
}

func shortHash(h string) string {
	return types.CommitRecord{Hash: h}.ShortHash()
}

var previewFormat string

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the next version and classified commits without changing anything",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newRunner().Preview(cmd.Context(), runOpts)
		if err != nil {
			return err
		}
		return writePreview(cmd.OutOrStdout(), p, previewFormat)
	},
}

func writePreview(w io.Writer, p workflow.Preview, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		_, _ = fmt.Fprintf(w, "Version: %s → %s (%s)\n", p.Current, p.Next, p.Bump)
		_, _ = fmt.Fprintf(w, "Commits: %d\n", p.Commits)
		for _, s := range p.Sections {
			_, _ = fmt.Fprintf(w, "\n%s\n", s.Category)
			for _, e := range s.Entries {
				_, _ = fmt.Fprintf(w, "  - [%s] %s - %s\n", e.Hash, e.Date, e.Message)
			}
		}
		if len(p.Features) > 0 {
			_, _ = fmt.Fprintln(w, "\nFeatures:")
			for _, f := range p.Features {
				_, _ = fmt.Fprintf(w, "  - %s\n", f)
			}
			if p.Truncated {
				_, _ = fmt.Fprintln(w, "  ...")
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q: must be text, json or yaml", format)
	}
}

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	// Setup must work even when the existing file is broken.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.ProjectConfigFile
		}
		if fsutil.Exists(path) && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg, err := config.FirstRunSetup(bufio.NewReader(os.Stdin), cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("failed during setup: %w", err)
		}
		savedPath, err := config.SaveConfig(cfg, path)
		if err != nil {
			return fmt.Errorf("failed to save configuration to %q: %w", savedPath, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %q\n", savedPath)
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVarP(&previewFormat, "format", "f", "text", "Output format: text, json or yaml.")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file.")
}
