// Package config loads citecheck settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"citecheck/internal/behavior"
	"citecheck/internal/cache"
	"citecheck/internal/gitsource"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".citecheck.yaml"

// EnvDir overrides CiteDir when set.
const EnvDir = "CITECHECK_DIR"

// HTTP holds fetch settings for web citations.
type HTTP struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// Config is the on-disk configuration.
type Config struct {
	CiteDir     string            `yaml:"cite_dir"`
	CacheSubdir string            `yaml:"cache_subdir"`
	ReposSubdir string            `yaml:"repos_subdir"`
	HTTP        HTTP              `yaml:"http"`
	Behavior    behavior.Behavior `yaml:"behavior"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		CiteDir:     ".cite",
		CacheSubdir: cache.DefaultSubdir,
		ReposSubdir: gitsource.DefaultReposSubdir,
		HTTP: HTTP{
			Timeout:   30 * time.Second,
			UserAgent: "citecheck/1.0",
		},
		Behavior: behavior.Default(),
	}
}

// Load reads path on top of the defaults. A missing file is not an error
// unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !required:
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if dir := os.Getenv(EnvDir); dir != "" {
		cfg.CiteDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.CiteDir == "" {
		return fmt.Errorf("cite_dir must not be empty")
	}
	if c.CacheSubdir == "" || c.ReposSubdir == "" {
		return fmt.Errorf("cache_subdir and repos_subdir must not be empty")
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	return nil
}

// ReposDir is where git clones are kept.
func (c *Config) ReposDir() string {
	return filepath.Join(c.CiteDir, c.ReposSubdir)
}

// HistoryPath is the check history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.CiteDir, "history.db")
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
