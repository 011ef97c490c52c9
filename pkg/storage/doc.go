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

// Package storage provides the Backend abstraction the code graph is
// read and written through.
//
// codegraph ships one implementation, EmbeddedBackend, backed by a
// project-local CozoDB instance — there is no remote/hub backend.
//
// # Quick Start
//
// Create an embedded backend and execute queries:
//
//	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",
//	    Engine:    "rocksdb",
//	    ProjectID: "myproject",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	// Initialize schema (idempotent)
//	if err := backend.EnsureSchema(); err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := backend.Query(ctx, `
//	    ?[key] := *cg_node{label: "Function", key}
//	    :limit 10
//	`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, row := range result.Rows {
//	    fmt.Println(row[0])
//	}
//
// # Schema
//
// EnsureSchema creates two generic relations the rest of the graph is
// built from, rather than one table per node label: cg_node (label, key
// => props, module_path) and cg_edge (from_label, from_key, edge_type,
// to_label, to_key). See pkg/storage/embedded.go's EnsureSchema for why.
//
// # Query vs Execute
//
// Use Query for read operations and Execute for mutations:
//
//	result, err := backend.Query(ctx, `?[count(key)] := *cg_node{label: "Function", key}`)
//
//	err := backend.Execute(ctx, `:rm cg_node { label: "Function", key: "pkg.Foo" }`)
//
// # Configuration
//
// EmbeddedConfig controls the backend behavior:
//
//	config := storage.EmbeddedConfig{
//	    DataDir:   "/path/to/data",  // Where to store CozoDB data
//	    Engine:    "rocksdb",        // Storage engine: mem, sqlite, rocksdb
//	    ProjectID: "myproject",      // Namespaces data directory
//	}
//
// Default values if not specified:
//   - DataDir: ~/.codegraph/data/<project_id>
//   - Engine: "rocksdb" (recommended for production)
//
// # Thread Safety
//
// EmbeddedBackend is safe for concurrent use. Read operations use a read
// lock while write operations use an exclusive lock, allowing concurrent
// reads but exclusive writes.
//
// # Direct Database Access
//
// For advanced operations, access the underlying CozoDB instance:
//
//	db := backend.DB()
//	result, err := db.Run(`::relations`, nil)  // List all relations
//
// Use with caution - prefer the Backend interface methods for normal operations.
package storage
