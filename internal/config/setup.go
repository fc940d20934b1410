package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FirstRunSetup prompts for the values most projects change and returns a Config with
// either the answers or the defaults. Invalid or empty answers keep the default.
// The returned Config should be persisted by the caller.
func FirstRunSetup(reader *bufio.Reader, writer io.Writer) (Config, error) {
	_, _ = fmt.Fprintln(writer, "Let's set up git-bump for this project.")
	cfg := DefaultConfig()

	ask := func(prompt, def string) string {
		_, _ = fmt.Fprintf(writer, "%s [%s]: ", prompt, def)
		input, _ := reader.ReadString('\n')
		return strings.TrimSpace(input)
	}

	if input := ask("Number of recent commits to include", strconv.Itoa(defaultCommitCount)); input != "" {
		n, err := strconv.Atoi(input)
		if err != nil || n <= 0 {
			_, _ = fmt.Fprintf(writer, "Invalid input. Using default: %d commits.\n", defaultCommitCount)
		} else {
			cfg.CommitCount = n
		}
	}

	if input := ask("Remote name", defaultRemote); input != "" {
		cfg.Remote = input
	}

	if input := ask("Backend (git or go-git)", BackendGit); input != "" {
		switch input {
		case BackendGit, BackendGoGit:
			cfg.Backend = input
		default:
			_, _ = fmt.Fprintf(writer, "Unknown backend. Using default: %s.\n", BackendGit)
		}
	}

	if input := ask("Push after committing a release? (y/n)", "y"); input != "" {
		cfg.Push = strings.EqualFold(input, "y") || strings.EqualFold(input, "yes")
	}

	if input := ask("Project name (blank uses the directory name)", ""); input != "" {
		cfg.ProjectName = input
	}
	if input := ask("Project description (blank detects it)", ""); input != "" {
		cfg.Description = input
	}

	_, _ = fmt.Fprintln(writer, "\nConfiguration setup complete.")
	return cfg, nil
}
