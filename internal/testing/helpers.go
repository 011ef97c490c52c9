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

package testing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vitali87/codegraph/pkg/storage"
)

// SetupTestBackend creates an in-memory codegraph backend for testing.
// The backend is automatically closed when the test finishes.
func SetupTestBackend(t *testing.T) *storage.EmbeddedBackend {
	t.Helper()

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		Engine:  "mem",
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to create test backend: %v", err)
	}

	if err := backend.EnsureSchema(); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	t.Cleanup(func() {
		backend.Close()
	})

	return backend
}

// InsertTestNode seeds a single cg_node row.
func InsertTestNode(t *testing.T, backend *storage.EmbeddedBackend, label, key, modulePath string, props map[string]any) {
	t.Helper()

	propsJSON, err := json.Marshal(props)
	if err != nil {
		t.Fatalf("failed to marshal node props: %v", err)
	}

	query := `?[label, key, props, module_path] <- $rows
:put cg_node {label, key => props, module_path}`

	db := backend.DB()
	if _, err := db.Run(query, map[string]any{
		"rows": [][]any{{label, key, string(propsJSON), modulePath}},
	}); err != nil {
		t.Fatalf("failed to insert test node: %v", err)
	}
}

// InsertTestEdge seeds a single cg_edge row.
func InsertTestEdge(t *testing.T, backend *storage.EmbeddedBackend, fromLabel, fromKey, edgeType, toLabel, toKey string) {
	t.Helper()

	query := `?[from_label, from_key, edge_type, to_label, to_key] <- $rows
:put cg_edge {from_label, from_key, edge_type, to_label, to_key}`

	db := backend.DB()
	if _, err := db.Run(query, map[string]any{
		"rows": [][]any{{fromLabel, fromKey, edgeType, toLabel, toKey}},
	}); err != nil {
		t.Fatalf("failed to insert test edge: %v", err)
	}
}

// QueryNodes returns every cg_node row for label, as [key, props, module_path] rows.
//
// Backend.Query takes a bare Datalog string with no parameter channel,
// so label can't be bound as a $-parameter here; scan every node and
// filter client-side instead.
func QueryNodes(t *testing.T, backend *storage.EmbeddedBackend, label string) *storage.QueryResult {
	t.Helper()

	ctx := context.Background()
	result, err := backend.Query(ctx, `?[key, props, module_path, label] := *cg_node{label, key, props, module_path}`)
	if err != nil {
		t.Fatalf("failed to query nodes: %v", err)
	}
	filtered := &storage.QueryResult{Headers: []string{"key", "props", "module_path"}}
	for _, row := range result.Rows {
		if row[3] == label {
			filtered.Rows = append(filtered.Rows, row[:3])
		}
	}
	return filtered
}

// QueryEdges returns every cg_edge row of edgeType.
func QueryEdges(t *testing.T, backend *storage.EmbeddedBackend, edgeType string) *storage.QueryResult {
	t.Helper()

	ctx := context.Background()
	result, err := backend.Query(ctx, `?[from_label, from_key, to_label, to_key, edge_type] := *cg_edge{from_label, from_key, edge_type, to_label, to_key}`)
	if err != nil {
		t.Fatalf("failed to query edges: %v", err)
	}
	filtered := &storage.QueryResult{Headers: []string{"from_label", "from_key", "to_label", "to_key"}}
	for _, row := range result.Rows {
		if row[4] == edgeType {
			filtered.Rows = append(filtered.Rows, row[:4])
		}
	}
	return filtered
}
