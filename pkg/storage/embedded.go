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

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	cozo "github.com/vitali87/codegraph/pkg/cozodb"
)

// EmbeddedBackend implements Backend using a local CozoDB instance.
// This is the only backend codegraph ships: everything runs against a
// project-local database directory, no remote hub.
type EmbeddedBackend struct {
	db     *cozo.CozoDB
	mu     sync.RWMutex
	closed bool
}

// EmbeddedConfig configures the embedded backend.
type EmbeddedConfig struct {
	// DataDir is the directory where CozoDB stores its data.
	// Defaults to ~/.codegraph/data/<project_id>
	DataDir string

	// Engine is the CozoDB storage engine: "rocksdb", "sqlite", or "mem".
	// Defaults to "rocksdb" for persistence.
	Engine string

	// ProjectID is used to namespace the data directory.
	ProjectID string
}

// NewEmbeddedBackend creates a new embedded CozoDB backend.
func NewEmbeddedBackend(config EmbeddedConfig) (*EmbeddedBackend, error) {
	// Set defaults
	if config.Engine == "" {
		config.Engine = "rocksdb"
	}
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".codegraph", "data")
		if config.ProjectID != "" {
			config.DataDir = filepath.Join(config.DataDir, config.ProjectID)
		}
	}

	// Ensure data directory exists
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// Open CozoDB
	db, err := cozo.New(config.Engine, config.DataDir, nil)
	if err != nil {
		return nil, fmt.Errorf("open cozodb: %w", err)
	}

	return &EmbeddedBackend{
		db: &db,
	}, nil
}

// Query executes a read-only Datalog query.
func (b *EmbeddedBackend) Query(ctx context.Context, datalog string) (*QueryResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	// Check context cancellation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	result, err := b.db.RunReadOnly(datalog, nil)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return FromNamedRows(result), nil
}

// Execute runs a Datalog mutation.
func (b *EmbeddedBackend) Execute(ctx context.Context, datalog string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("backend is closed")
	}

	// Check context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := b.db.Run(datalog, nil)
	if err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	b.db.Close()
	return nil
}

// DB returns the underlying CozoDB instance for advanced operations.
// Use with caution - prefer the Backend interface methods.
func (b *EmbeddedBackend) DB() *cozo.CozoDB {
	return b.db
}

// EnsureSchema creates the codegraph relations if they don't exist.
// This is idempotent and safe to call multiple times.
//
// codegraph stores its property graph in two generic relations instead
// of one per node label, since the set of languages indexed (and
// therefore the set of definition kinds) is open-ended: a fixed schema
// per label would need a migration for every new language.
func (b *EmbeddedBackend) EnsureSchema() error {
	relations := []string{
		// cg_node: one row per Project/Folder/Module/Package/Class/
		// Struct/Function/Method/ExternalPackage node. key is the
		// value of the label's key attribute (graph.Label.KeyAttr:
		// path for Folder/Package/Module, name for Project, key for
		// ExternalPackage, qualified_name otherwise); props is a JSON-encoded property bag so that
		// per-label fields (span, signature, ...) don't need their
		// own columns.
		// module_path carries the owning file's repo-relative path for
		// any node scoped to one file (Module, Class, Struct, Function,
		// Method); it is "" for Project/Folder/Package/ExternalPackage
		// nodes, which span or sit outside any single file. Breaking it
		// out of props avoids a JSON-field scan when an incremental
		// re-ingest needs every node under one path.
		`:create cg_node { label: String, key: String => props: String, module_path: String default '' }`,

		// cg_edge: one row per CONTAINS_*/DEFINES/DEFINES_METHOD/
		// INHERITS/IMPORTS/CALLS edge between two cg_node rows.
		`:create cg_edge { from_label: String, from_key: String, edge_type: String, to_label: String, to_key: String }`,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, relation := range relations {
		if _, err := b.db.Run(relation, nil); err != nil {
			// Ignore "already exists" errors; CozoDB has no
			// "create if not exists" variant of :create.
			continue
		}
	}

	return nil
}
