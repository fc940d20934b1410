// Package config handles loading, saving, and defining the application's configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrConfigNotFound is returned by LoadConfig when no config file is found.
var ErrConfigNotFound = errors.New("configuration file not found")

const (
	// ProjectConfigFile is looked up in the working directory.
	ProjectConfigFile = ".git-bump.toml"

	defaultConfigDir      = "git-bump"
	defaultConfigFile     = "config.toml"
	defaultCommitCount    = 10
	defaultCacheTTL       = 3600
	defaultHistoryFile    = "commits.log"
	defaultChangelogFile  = "CHANGELOG.md"
	defaultReadmeFile     = "README.md"
	defaultVersionFile    = "version.txt"
	defaultLogFile        = "version_update.log"
	defaultRemote         = "origin"
	defaultGitTimeout     = 60
	defaultReleaseMessage = "chore: release version %s"

	// BackendGit shells out to the git binary.
	BackendGit = "git"
	// BackendGoGit runs repository operations in-process.
	BackendGoGit = "go-git"
)

// Config holds the application configuration settings.
// Tags correspond to the keys in the TOML configuration file.
type Config struct {
	CommitCount       int    `toml:"commit_count" json:"commit_count" yaml:"commit_count"`
	CacheTTLSeconds   int    `toml:"cache_ttl_seconds" json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	UseCache          bool   `toml:"use_cache" json:"use_cache" yaml:"use_cache"`
	HistoryFile       string `toml:"history_file" json:"history_file" yaml:"history_file"`
	ChangelogFile     string `toml:"changelog_file" json:"changelog_file" yaml:"changelog_file"`
	ReadmeFile        string `toml:"readme_file" json:"readme_file" yaml:"readme_file"`
	VersionFile       string `toml:"version_file" json:"version_file" yaml:"version_file"`
	LogFile           string `toml:"log_file" json:"log_file" yaml:"log_file"`
	CreateBackups     bool   `toml:"create_backups" json:"create_backups" yaml:"create_backups"`
	Remote            string `toml:"remote" json:"remote" yaml:"remote"`
	Backend           string `toml:"backend" json:"backend" yaml:"backend"`
	GitTimeoutSeconds int    `toml:"git_timeout_seconds" json:"git_timeout_seconds" yaml:"git_timeout_seconds"`
	PullBeforeRun     bool   `toml:"pull_before_run" json:"pull_before_run" yaml:"pull_before_run"`
	Push              bool   `toml:"push" json:"push" yaml:"push"`
	ProjectName       string `toml:"project_name" json:"project_name,omitempty" yaml:"project_name,omitempty"`
	Description       string `toml:"description" json:"description,omitempty" yaml:"description,omitempty"`
	ReleaseMessage    string `toml:"release_message" json:"release_message" yaml:"release_message"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		CommitCount:       defaultCommitCount,
		CacheTTLSeconds:   defaultCacheTTL,
		UseCache:          true,
		HistoryFile:       defaultHistoryFile,
		ChangelogFile:     defaultChangelogFile,
		ReadmeFile:        defaultReadmeFile,
		VersionFile:       defaultVersionFile,
		LogFile:           defaultLogFile,
		CreateBackups:     true,
		Remote:            defaultRemote,
		Backend:           BackendGit,
		GitTimeoutSeconds: defaultGitTimeout,
		PullBeforeRun:     true,
		Push:              true,
		ReleaseMessage:    defaultReleaseMessage,
	}
}

// CacheTTL returns the history cache lifetime.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// GitTimeout returns the per-command timeout for the git backend.
func (c Config) GitTimeout() time.Duration {
	return time.Duration(c.GitTimeoutSeconds) * time.Second
}

// ReleaseCommitMessage formats the release commit message for version.
func (c Config) ReleaseCommitMessage(version string) string {
	if strings.Contains(c.ReleaseMessage, "%s") {
		return fmt.Sprintf(c.ReleaseMessage, version)
	}
	return c.ReleaseMessage + " " + version
}

// Validate checks values that cannot be repaired with a default.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGit, BackendGoGit:
	default:
		return fmt.Errorf("unknown backend %q: must be %q or %q", c.Backend, BackendGit, BackendGoGit)
	}
	if c.CommitCount <= 0 {
		return fmt.Errorf("commit count must be positive, got %d", c.CommitCount)
	}
	return nil
}

// applyDefaults repairs zero or invalid values left by a partial config file.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.CommitCount <= 0 {
		c.CommitCount = d.CommitCount
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = d.CacheTTLSeconds
	}
	if c.GitTimeoutSeconds <= 0 {
		c.GitTimeoutSeconds = d.GitTimeoutSeconds
	}
	for _, f := range []struct {
		dst *string
		def string
	}{
		{&c.HistoryFile, d.HistoryFile},
		{&c.ChangelogFile, d.ChangelogFile},
		{&c.ReadmeFile, d.ReadmeFile},
		{&c.VersionFile, d.VersionFile},
		{&c.Remote, d.Remote},
		{&c.Backend, d.Backend},
		{&c.ReleaseMessage, d.ReleaseMessage},
	} {
		if strings.TrimSpace(*f.dst) == "" {
			*f.dst = f.def
		}
	}
}

// DefaultPaths returns the locations LoadConfig searches when no custom path is given:
// the project file in the working directory, then the user config directory.
func DefaultPaths() []string {
	paths := []string{ProjectConfigFile}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(userConfigDir, defaultConfigDir, defaultConfigFile))
	}
	return paths
}

// LoadConfig loads configuration from the specified path or the default locations.
// If a custom path is provided it is used exclusively. If no file exists, it returns
// default settings and ErrConfigNotFound. Keys missing from the file keep their defaults.
func LoadConfig(customPath string) (Config, error) {
	cfg := DefaultConfig()

	candidates := DefaultPaths()
	if customPath != "" {
		candidates = []string{customPath}
	}

	configPath := ""
	for _, p := range candidates {
		_, err := os.Stat(p)
		if err == nil {
			configPath = p
			break
		}
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("error checking config path %q: %w", p, err)
		}
	}
	if configPath == "" {
		return cfg, ErrConfigNotFound
	}

	// Decoding onto the defaults keeps every key the file omits.
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("error decoding config file %q: %w", configPath, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// SaveConfig saves the provided configuration to the specified path or, when empty, to
// the project file in the working directory. It returns the path written.
func SaveConfig(cfg Config, customPath string) (string, error) {
	savePath := customPath
	if savePath == "" {
		savePath = ProjectConfigFile
	}

	if dir := filepath.Dir(savePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return savePath, fmt.Errorf("could not create config directory %q: %w", dir, err)
		}
	}

	file, err := os.Create(savePath)
	if err != nil {
		return savePath, fmt.Errorf("could not create config file %q: %w", savePath, err)
	}
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		_ = file.Close()
		return savePath, fmt.Errorf("could not encode config to TOML file %q: %w", savePath, err)
	}
	if err := file.Close(); err != nil {
		return savePath, fmt.Errorf("failed to close config file %q: %w", savePath, err)
	}
	return savePath, nil
}
