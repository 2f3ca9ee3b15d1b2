// Package config builds the process configuration once at startup.
// Values come from an optional TOML file overridden by environment
// variables; required fields are validated eagerly so a misconfigured
// run fails before any network call, with every violation reported in
// a single aggregated error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Environment variable names. TARGET_REPO falls back to
// GITHUB_REPOSITORY so the tool picks up the hosting repository when
// run inside a workflow.
const (
	EnvToken       = "GITHUB_TOKEN"
	EnvRepo        = "TARGET_REPO"
	EnvRepoDefault = "GITHUB_REPOSITORY"
	EnvProductURL  = "PRODUCT_URL"
	EnvPlatform    = "TARGET_PLATFORM"
	EnvStateFile   = "SYNCED_DATA_FILE"
	EnvRetryCount  = "RETRY_COUNT"
	EnvRetryDelay  = "RETRY_DELAY"
	EnvGitPush     = "GIT_PUSH"
	EnvConfigFile  = "JBSYNC_CONFIG"
)

// Defaults for optional settings.
const (
	DefaultPlatform   = "linux"
	DefaultStateFile  = "synced_data.json"
	DefaultRetryCount = 3
	DefaultRetryDelay = 10 * time.Second
)

// Config holds everything a sync run needs. It is constructed once and
// passed by value into each component.
type Config struct {
	// Token authenticates against the hosting platform.
	Token string

	// RepoOwner and RepoName identify the target repository.
	RepoOwner string
	RepoName  string

	// ProductURL is the vendor download page to parse.
	ProductURL string

	// Platform filters download links, e.g. "linux".
	Platform string

	// StateFile is the path of the persisted sync state document.
	StateFile string

	// RetryCount and RetryDelay govern asset publishing.
	RetryCount int
	RetryDelay time.Duration

	// GitPush controls whether the state commit is pushed.
	GitPush bool
}

// fileConfig mirrors the optional TOML file. Every field is optional;
// environment variables win over file values.
type fileConfig struct {
	Token      string `toml:"github_token"`
	Repo       string `toml:"target_repo"`
	ProductURL string `toml:"product_url"`
	Platform   string `toml:"target_platform"`
	StateFile  string `toml:"synced_data_file"`
	RetryCount int    `toml:"retry_count"`
	RetryDelay int    `toml:"retry_delay"`
	GitPush    *bool  `toml:"git_push"`
}

// Load builds a Config from the optional config file and the
// environment, then validates it. All validation failures are joined
// into one error.
func Load() (*Config, error) {
	cfg := &Config{
		Platform:   DefaultPlatform,
		StateFile:  DefaultStateFile,
		RetryCount: DefaultRetryCount,
		RetryDelay: DefaultRetryDelay,
		GitPush:    true,
	}

	if err := applyFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile merges the TOML config file into cfg when one exists.
// A missing file is not an error; an unreadable one is.
func applyFile(cfg *Config) error {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".jbsync", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Token != "" {
		cfg.Token = fc.Token
	}
	if fc.Repo != "" {
		cfg.RepoOwner, cfg.RepoName = splitRepo(fc.Repo)
	}
	if fc.ProductURL != "" {
		cfg.ProductURL = fc.ProductURL
	}
	if fc.Platform != "" {
		cfg.Platform = fc.Platform
	}
	if fc.StateFile != "" {
		cfg.StateFile = fc.StateFile
	}
	if fc.RetryCount > 0 {
		cfg.RetryCount = fc.RetryCount
	}
	if fc.RetryDelay > 0 {
		cfg.RetryDelay = time.Duration(fc.RetryDelay) * time.Second
	}
	if fc.GitPush != nil {
		cfg.GitPush = *fc.GitPush
	}
	return nil
}

// applyEnv merges environment variables into cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	repo := os.Getenv(EnvRepo)
	if repo == "" {
		repo = os.Getenv(EnvRepoDefault)
	}
	if repo != "" {
		cfg.RepoOwner, cfg.RepoName = splitRepo(repo)
	}
	if v := os.Getenv(EnvProductURL); v != "" {
		cfg.ProductURL = v
	}
	if v := os.Getenv(EnvPlatform); v != "" {
		cfg.Platform = strings.ToLower(v)
	}
	if v := os.Getenv(EnvStateFile); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv(EnvRetryCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRetryCount, err)
		}
		cfg.RetryCount = n
	}
	if v := os.Getenv(EnvRetryDelay); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRetryDelay, err)
		}
		cfg.RetryDelay = time.Duration(n) * time.Second
	}
	if v := os.Getenv(EnvGitPush); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvGitPush, err)
		}
		cfg.GitPush = b
	}
	return nil
}

// Validate checks required fields and value ranges, returning every
// violation in one joined error.
func (c *Config) Validate() error {
	var errs []error
	if c.Token == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvToken))
	}
	if c.RepoOwner == "" || c.RepoName == "" {
		errs = append(errs, fmt.Errorf("%s is required in owner/name form", EnvRepo))
	}
	if c.ProductURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvProductURL))
	}
	if c.RetryCount < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", EnvRetryCount))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", EnvRetryDelay))
	}
	return errors.Join(errs...)
}

// Repo returns the target repository in owner/name form.
func (c *Config) Repo() string {
	return c.RepoOwner + "/" + c.RepoName
}

func splitRepo(repo string) (owner, name string) {
	owner, name, _ = strings.Cut(repo, "/")
	return owner, name
}
