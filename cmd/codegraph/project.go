// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"path/filepath"

	"github.com/vitali87/codegraph/internal/bootstrap"
	"github.com/vitali87/codegraph/internal/config"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/storage"
)

// resolveConfigPath returns the project.yaml path a command should load:
// globals.ConfigPath if set, otherwise .codegraph/project.yaml under the
// current directory.
func resolveConfigPath(globals GlobalFlags) (string, error) {
	if globals.ConfigPath != "" {
		return globals.ConfigPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return config.Path(cwd), nil
}

// loadProjectConfig resolves and loads the project configuration for a
// command, validating language names against registry.
func loadProjectConfig(globals GlobalFlags, registry *langregistry.Registry) (*config.Config, error) {
	path, err := resolveConfigPath(globals)
	if err != nil {
		return nil, err
	}
	return config.Load(path, registry)
}

// openProjectBackend opens (creating on first use) the embedded CozoDB
// backend a project's configuration points at, via internal/bootstrap.
func openProjectBackend(cfg *config.Config) (*storage.EmbeddedBackend, error) {
	dataDir := cfg.Store.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(cfg.RepoRoot, config.Dir, "data")
	}
	if _, err := bootstrap.InitProject(bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
		DataDir:   dataDir,
	}, nil); err != nil {
		return nil, err
	}
	return bootstrap.OpenProject(bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
		DataDir:   dataDir,
	}, nil)
}

// projectDataExists reports whether a project's data directory has
// already been created.
func projectDataExists(cfg *config.Config) bool {
	dataDir := cfg.Store.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(cfg.RepoRoot, config.Dir, "data")
	}
	_, err := os.Stat(dataDir)
	return err == nil
}
