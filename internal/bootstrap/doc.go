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

// Package bootstrap creates and opens a codegraph project's local CozoDB
// database.
//
// Unlike the hub-based architecture this was originally written for,
// codegraph has no shared multi-project home directory: every project's
// DataDir and ProjectID come from its .codegraph/project.yaml
// (internal/config), and bootstrap just does the idempotent
// create-or-open-plus-schema work cmd/codegraph needs around that.
//
// # Workflow
//
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    ProjectID: cfg.ProjectID,
//	    DataDir:   cfg.Store.DataDir,
//	}, logger)
//
//	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
//	    ProjectID: cfg.ProjectID,
//	    DataDir:   cfg.Store.DataDir,
//	}, logger)
//	defer backend.Close()
//
// # Idempotency
//
// InitProject is idempotent: calling it multiple times on the same
// DataDir is safe and never corrupts existing data.
//
// # Storage Engines
//
// ProjectConfig.Engine selects CozoDB's storage engine: "rocksdb"
// (default, persistent), "sqlite" (lightweight persistent), or "mem"
// (in-memory, tests only).
package bootstrap
