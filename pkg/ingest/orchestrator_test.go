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

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/langregistry"
	itesting "github.com/vitali87/codegraph/internal/testing"
)

const samplePy = `def helper():
    return 1

def main():
    return helper()
`

func newTestOrchestrator(t *testing.T, root string) (*Orchestrator, *itesting.RecordingIngestor) {
	t.Helper()
	registry := langregistry.NewDefaultRegistry()
	walker := NewWalker(registry)
	rec := itesting.NewRecordingIngestor()
	o := NewOrchestrator("proj", root, registry, walker, rec, nil)
	return o, rec
}

func nodeQNs(nodes []graph.Node, label graph.Label) []string {
	var out []string
	for _, n := range nodes {
		if n.Label != label {
			continue
		}
		if qn, ok := n.Props[n.Label.KeyAttr()].(string); ok {
			out = append(out, qn)
		}
	}
	return out
}

func TestFullScanEmitsStructureDefinitionsAndCalls(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte(samplePy), 0o644))

	o, rec := newTestOrchestrator(t, root)
	require.NoError(t, o.FullScan(context.Background()))

	assert.Contains(t, nodeQNs(rec.Nodes, graph.LabelModule), "main.py")
	assert.Contains(t, nodeQNs(rec.Nodes, graph.LabelFunction), "proj.main.helper")
	assert.Contains(t, nodeQNs(rec.Nodes, graph.LabelFunction), "proj.main.main")

	var sawCall bool
	for _, e := range rec.Edges {
		if e.Type == graph.EdgeCalls && e.From.Value == "proj.main.main" && e.To.Value == "proj.main.helper" {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected main -> helper CALLS edge, got %+v", rec.Edges)
	assert.GreaterOrEqual(t, rec.FlushCount, 2, "full scan flushes once per pass")
}

func TestFullScanIsIdempotent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte(samplePy), 0o644))

	o1, rec1 := newTestOrchestrator(t, root)
	require.NoError(t, o1.FullScan(context.Background()))

	o2, rec2 := newTestOrchestrator(t, root)
	require.NoError(t, o2.FullScan(context.Background()))

	assert.ElementsMatch(t, rec1.Nodes, rec2.Nodes)
	assert.ElementsMatch(t, rec1.Edges, rec2.Edges)
}

func TestUpdateFileReplacesModuleSubtree(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(mainPath, []byte(samplePy), 0o644))

	o, rec := newTestOrchestrator(t, root)
	require.NoError(t, o.FullScan(context.Background()))
	require.Contains(t, nodeQNs(rec.Nodes, graph.LabelFunction), "proj.main.helper")

	updated := "def renamed():\n    return 2\n"
	require.NoError(t, os.WriteFile(mainPath, []byte(updated), 0o644))

	require.NoError(t, o.UpdateFile(context.Background(), "main.py"))

	qns := nodeQNs(rec.Nodes, graph.LabelFunction)
	assert.NotContains(t, qns, "proj.main.helper")
	assert.NotContains(t, qns, "proj.main.main")
	assert.Contains(t, qns, "proj.main.renamed")
}

func TestUpdateFileHandlesDeletion(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.py")
	require.NoError(t, os.WriteFile(mainPath, []byte(samplePy), 0o644))

	o, rec := newTestOrchestrator(t, root)
	require.NoError(t, o.FullScan(context.Background()))
	require.NotEmpty(t, nodeQNs(rec.Nodes, graph.LabelModule))

	require.NoError(t, os.Remove(mainPath))
	require.NoError(t, o.UpdateFile(context.Background(), "main.py"))

	assert.Empty(t, nodeQNs(rec.Nodes, graph.LabelModule))
	assert.Empty(t, nodeQNs(rec.Nodes, graph.LabelFunction))
}
