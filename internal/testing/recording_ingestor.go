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
	"sync"

	"github.com/vitali87/codegraph/pkg/graph"
)

// DeleteCall records one ExecuteWrite invocation.
type DeleteCall struct {
	Query  string
	Params map[string]any
}

// RecordingIngestor is an in-memory ingest.Ingestor that records every
// call instead of writing to a store. Tests assert against Nodes/Edges/
// Deletes/FlushCount rather than standing up a CozoDB backend.
type RecordingIngestor struct {
	mu         sync.Mutex
	Nodes      []graph.Node
	Edges      []graph.Edge
	Deletes    []DeleteCall
	FlushCount int
}

// NewRecordingIngestor returns an empty RecordingIngestor.
func NewRecordingIngestor() *RecordingIngestor {
	return &RecordingIngestor{}
}

// EnsureNodeBatch records nodes in call order.
func (r *RecordingIngestor) EnsureNodeBatch(ctx context.Context, label graph.Label, nodes []graph.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Nodes = append(r.Nodes, nodes...)
	return nil
}

// EnsureRelationshipBatch records edges in call order.
func (r *RecordingIngestor) EnsureRelationshipBatch(ctx context.Context, edges []graph.Edge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Edges = append(r.Edges, edges...)
	return nil
}

// ExecuteWrite records the escape-hatch write and, whenever
// params["path"] is a non-empty string (as it is for
// ingest.DeleteModuleSubtreeQuery), also removes every previously
// recorded node/edge scoped to that path so a test can exercise
// an incremental delete-then-reingest sequence end to end.
func (r *RecordingIngestor) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deletes = append(r.Deletes, DeleteCall{Query: query, Params: params})

	path, _ := params["path"].(string)
	if path == "" {
		return nil
	}

	keep := r.Nodes[:0]
	removedKeys := make(map[string]bool)
	for _, n := range r.Nodes {
		if modulePath, _ := n.Props["module_path"].(string); modulePath == path {
			if qn, ok := n.Props[n.Label.KeyAttr()].(string); ok {
				removedKeys[string(n.Label)+"|"+qn] = true
			}
			continue
		}
		keep = append(keep, n)
	}
	r.Nodes = keep

	keepEdges := r.Edges[:0]
	for _, e := range r.Edges {
		if removedKeys[string(e.From.Label)+"|"+e.From.Value] || removedKeys[string(e.To.Label)+"|"+e.To.Value] {
			continue
		}
		keepEdges = append(keepEdges, e)
	}
	r.Edges = keepEdges

	return nil
}

// FlushAll records a flush barrier; it never errors.
func (r *RecordingIngestor) FlushAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FlushCount++
	return nil
}
