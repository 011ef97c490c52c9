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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/ingest"
)

func TestSetupTestBackend(t *testing.T) {
	backend := SetupTestBackend(t)
	require.NotNil(t, backend)

	result := QueryNodes(t, backend, "Function")
	require.NotNil(t, result)
	assert.Empty(t, result.Rows, "should start with no nodes")
}

func TestInsertTestNode(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestNode(t, backend, "Function", "proj.main.HandleAuth", "main.go", map[string]any{"name": "HandleAuth"})

	result := QueryNodes(t, backend, "Function")
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "proj.main.HandleAuth", result.Rows[0][0])
}

func TestInsertTestEdge(t *testing.T) {
	backend := SetupTestBackend(t)

	InsertTestNode(t, backend, "Module", "main.go", "main.go", map[string]any{"path": "main.go"})
	InsertTestNode(t, backend, "Function", "proj.main.main", "main.go", map[string]any{"name": "main"})
	InsertTestEdge(t, backend, "Module", "main.go", "DEFINES", "Function", "proj.main.main")

	result := QueryEdges(t, backend, "DEFINES")
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "proj.main.main", result.Rows[0][3])
}

func TestBackendIsolation(t *testing.T) {
	backend1 := SetupTestBackend(t)
	InsertTestNode(t, backend1, "Function", "proj.a", "a.go", map[string]any{"name": "a"})

	backend2 := SetupTestBackend(t)
	result := QueryNodes(t, backend2, "Function")
	assert.Empty(t, result.Rows, "second backend should be isolated from first")

	result1 := QueryNodes(t, backend1, "Function")
	assert.Len(t, result1.Rows, 1)
}

func TestRecordingIngestorRecordsBatches(t *testing.T) {
	rec := NewRecordingIngestor()
	ctx := context.Background()

	node := graph.Node{Label: graph.LabelFunction, Props: map[string]any{
		"qualified_name": "proj.main.Foo", "name": "Foo", "module_path": "main.go",
	}}
	require.NoError(t, rec.EnsureNodeBatch(ctx, graph.LabelFunction, []graph.Node{node}))

	edge := graph.Edge{
		From: graph.NewRef(graph.LabelModule, "main.go"),
		Type: graph.EdgeDefines,
		To:   graph.NewRef(graph.LabelFunction, "proj.main.Foo"),
	}
	require.NoError(t, rec.EnsureRelationshipBatch(ctx, []graph.Edge{edge}))
	require.NoError(t, rec.FlushAll(ctx))

	assert.Equal(t, []graph.Node{node}, rec.Nodes)
	assert.Equal(t, []graph.Edge{edge}, rec.Edges)
	assert.Equal(t, 1, rec.FlushCount)
}

func TestRecordingIngestorDeletePrunesModuleSubtree(t *testing.T) {
	rec := NewRecordingIngestor()
	ctx := context.Background()

	kept := graph.Node{Label: graph.LabelFunction, Props: map[string]any{
		"qualified_name": "proj.other.Bar", "name": "Bar", "module_path": "other.go",
	}}
	removed := graph.Node{Label: graph.LabelFunction, Props: map[string]any{
		"qualified_name": "proj.main.Foo", "name": "Foo", "module_path": "main.go",
	}}
	require.NoError(t, rec.EnsureNodeBatch(ctx, graph.LabelFunction, []graph.Node{kept, removed}))

	edge := graph.Edge{
		From: graph.NewRef(graph.LabelModule, "main.go"),
		Type: graph.EdgeDefines,
		To:   graph.NewRef(graph.LabelFunction, "proj.main.Foo"),
	}
	require.NoError(t, rec.EnsureRelationshipBatch(ctx, []graph.Edge{edge}))

	require.NoError(t, rec.ExecuteWrite(ctx, ingest.DeleteModuleSubtreeQuery, map[string]any{"path": "main.go"}))

	assert.Equal(t, []graph.Node{kept}, rec.Nodes)
	assert.Empty(t, rec.Edges)
}
