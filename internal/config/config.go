// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config loads a project's .codegraph/project.yaml: the project
// id, repo root, ignored-path globs, per-language enable/disable, the
// ingestor connection, and the incremental debouncer's timing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	cgerrors "github.com/vitali87/codegraph/internal/errors"
	"github.com/vitali87/codegraph/pkg/langregistry"
)

// Dir is the directory name a project's configuration lives under,
// relative to the repo root.
const Dir = ".codegraph"

// FileName is the configuration file's name inside Dir.
const FileName = "project.yaml"

// Config is the parsed contents of a project's project.yaml.
type Config struct {
	ProjectID string   `yaml:"project_id"`
	RepoRoot  string   `yaml:"repo_root"`
	Exclude   []string `yaml:"exclude"`

	// Languages maps a langregistry language name to whether it is
	// enabled for this project. A name absent from the map is enabled
	// by default; an explicit false disables it.
	Languages map[string]bool `yaml:"languages"`

	Store    StoreConfig    `yaml:"store"`
	Debounce DebounceConfig `yaml:"debounce"`
}

// StoreConfig describes where the graph ingestor writes.
type StoreConfig struct {
	// Engine is "embedded" (local CozoDB file) or "remote" (host/port).
	Engine  string `yaml:"engine"`
	DataDir string `yaml:"data_dir"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// DebounceConfig holds the C11 Incremental Debouncer's timing.
type DebounceConfig struct {
	QuietPeriod time.Duration `yaml:"quiet_period"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// DefaultConfig returns a Config with the documented defaults for a new
// project rooted at repoRoot.
func DefaultConfig(projectID, repoRoot string) *Config {
	return &Config{
		ProjectID: projectID,
		RepoRoot:  repoRoot,
		Store: StoreConfig{
			Engine:  "embedded",
			DataDir: filepath.Join(repoRoot, Dir, "data"),
		},
		Debounce: DebounceConfig{
			QuietPeriod: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
		},
	}
}

// Path returns the project.yaml path for a repo rooted at root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// Load reads and parses the project.yaml at path, applying defaults for
// any zero-valued field and validating every language name against
// registry. It fails fast with a ConfigError on a missing file,
// unparseable yaml, or an unknown language name, per spec §7.
func Load(path string, registry *langregistry.Registry) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path built from repo root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cgerrors.NewConfigError(
				"Project configuration not found",
				fmt.Sprintf("%s does not exist", path),
				"Run 'codegraph init' to create one",
				err,
			)
		}
		return nil, cgerrors.NewConfigError(
			"Cannot read project configuration",
			err.Error(),
			"Check file permissions on "+path,
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, cgerrors.NewConfigError(
			"Project configuration is not valid YAML",
			err.Error(),
			"Fix the syntax error in "+path,
			err,
		)
	}

	if cfg.ProjectID == "" {
		return nil, cgerrors.NewConfigError(
			"Project configuration is missing project_id",
			path+" has no project_id set",
			"Add a project_id field or re-run 'codegraph init'",
			nil,
		)
	}

	if cfg.Store.Engine == "" {
		cfg.Store.Engine = "embedded"
	}
	if cfg.Store.DataDir == "" && cfg.Store.Engine == "embedded" {
		cfg.Store.DataDir = filepath.Join(cfg.RepoRoot, Dir, "data")
	}
	if cfg.Debounce.QuietPeriod == 0 {
		cfg.Debounce.QuietPeriod = 500 * time.Millisecond
	}
	if cfg.Debounce.MaxWait == 0 {
		cfg.Debounce.MaxWait = 5 * time.Second
	}

	for name := range cfg.Languages {
		if registry != nil && registry.ForName(name) == nil {
			return nil, cgerrors.NewConfigError(
				"Project configuration references an unknown language",
				fmt.Sprintf("%q is not a registered language", name),
				"Remove it from the languages section, or check for a typo",
				nil,
			)
		}
	}

	return &cfg, nil
}

// Save writes cfg as YAML to path, creating the parent directory if
// needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return cgerrors.NewConfigError(
			"Cannot create project configuration directory",
			err.Error(),
			"Check write permissions on "+filepath.Dir(path),
			err,
		)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return cgerrors.NewConfigError(
			"Cannot serialize project configuration",
			err.Error(),
			"",
			err,
		)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return cgerrors.NewConfigError(
			"Cannot write project configuration",
			err.Error(),
			"Check write permissions on "+path,
			err,
		)
	}
	return nil
}

// LanguageEnabled reports whether name is enabled for cfg. Absent from
// the Languages map means enabled.
func (c *Config) LanguageEnabled(name string) bool {
	if c.Languages == nil {
		return true
	}
	enabled, ok := c.Languages[name]
	if !ok {
		return true
	}
	return enabled
}
