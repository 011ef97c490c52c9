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

// Package store provides DatalogIngestor, the CozoDB-backed
// implementation of the ingest.Ingestor contract.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vitali87/codegraph/internal/contract"
	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/ingest"
	"github.com/vitali87/codegraph/pkg/ingestion"
	"github.com/vitali87/codegraph/pkg/storage"
)

// DatalogIngestor batches node/edge mutations into CozoDB-flavored
// Datalog scripts and runs them against a storage.Backend. It buffers
// put statements per call and relies on FlushAll as the durability
// barrier, mirroring the teacher's local_pipeline batching shape.
type DatalogIngestor struct {
	backend storage.Backend
	batcher *ingestion.Batcher
	pending []string
}

// NewDatalogIngestor returns an Ingestor writing through backend.
// targetMutations/maxScriptSize tune the Batcher the way the teacher's
// local pipeline does.
func NewDatalogIngestor(backend storage.Backend, targetMutations, maxScriptSize int) *DatalogIngestor {
	if targetMutations <= 0 {
		targetMutations = 500
	}
	if maxScriptSize <= 0 {
		maxScriptSize = 2 << 20 // 2MB soft limit, matching the teacher's Batcher default.
	}
	return &DatalogIngestor{
		backend: backend,
		batcher: ingestion.NewBatcher(targetMutations, maxScriptSize),
	}
}

// EnsureNodeBatch upserts nodes sharing label via one :put cg_node
// statement per call; props, including the key attribute, are
// flattened to a JSON string so the relation stays label-agnostic.
func (d *DatalogIngestor) EnsureNodeBatch(ctx context.Context, label graph.Label, nodes []graph.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	keyAttr := label.KeyAttr()

	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		keyVal, ok := n.Props[keyAttr]
		if !ok {
			return fmt.Errorf("store: node of label %s missing key attribute %q", label, keyAttr)
		}
		key, ok := keyVal.(string)
		if !ok {
			return fmt.Errorf("store: node of label %s key attribute %q is not a string", label, keyAttr)
		}
		modulePath, _ := n.Props["module_path"].(string)

		propsJSON, err := json.Marshal(n.Props)
		if err != nil {
			return fmt.Errorf("store: marshal node props: %w", err)
		}
		rows = append(rows, []string{string(label), key, string(propsJSON), modulePath})
	}

	stmt := `{
?[label, key, props, module_path] <- $rows
:put cg_node {label, key => props, module_path}
}`
	d.enqueue(stmt, rows)
	return nil
}

// EnsureRelationshipBatch upserts edges via one :put cg_edge statement
// per call.
func (d *DatalogIngestor) EnsureRelationshipBatch(ctx context.Context, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, []string{
			string(e.From.Label), e.From.Value,
			string(e.Type),
			string(e.To.Label), e.To.Value,
		})
	}

	stmt := `{
?[from_label, from_key, edge_type, to_label, to_key] <- $rows
:put cg_edge {from_label, from_key, edge_type, to_label, to_key}
}`
	d.enqueue(stmt, rows)
	return nil
}

// ExecuteWrite runs the orchestrator's escape-hatch writes. The only
// query codegraph issues through this path is
// ingest.DeleteModuleSubtreeQuery; DatalogIngestor recognizes it by
// value and translates it into the Datalog delete below, since CozoDB
// has no Cypher MATCH/DETACH DELETE surface to run the literal string
// against.
func (d *DatalogIngestor) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	if query != ingest.DeleteModuleSubtreeQuery {
		return fmt.Errorf("store: unsupported write query %q", query)
	}
	path, _ := params["path"].(string)
	if path == "" {
		return fmt.Errorf("store: delete module subtree requires a non-empty path")
	}

	// Three statements, run in order as one transaction: delete every
	// edge touching a node whose module_path matches, from either end,
	// then the nodes themselves. Edges are matched by joining back
	// into cg_node rather than against module_path directly, since
	// cg_edge has no module_path column of its own, so they go before
	// the nodes they join against.
	script := `{
?[from_label, from_key, edge_type, to_label, to_key] :=
    *cg_edge{from_label, from_key, edge_type, to_label, to_key},
    *cg_node{label: from_label, key: from_key, module_path: $path}
:rm cg_edge {from_label, from_key, edge_type, to_label, to_key}
}
{
?[from_label, from_key, edge_type, to_label, to_key] :=
    *cg_edge{from_label, from_key, edge_type, to_label, to_key},
    *cg_node{label: to_label, key: to_key, module_path: $path}
:rm cg_edge {from_label, from_key, edge_type, to_label, to_key}
}
{
?[label, key] := *cg_node{label, key, module_path: $path}
:rm cg_node {label, key}
}`
	// Path-scoped deletes run immediately rather than joining the
	// pending batch: the orchestrator issues this ahead of re-ingesting
	// the same file and needs it durable before the new Pass 1 runs.
	return d.backend.Execute(ctx, strings.ReplaceAll(script, "$path", quoteDatalogString(path)))
}

// FlushAll joins every buffered statement in enqueue order, splits the
// result into Batcher-sized scripts, runs each through the backend in
// turn, and clears the buffer whether or not it
// succeeds — a failed flush is surfaced to the orchestrator, which
// owns retry/abort policy per spec §6.
func (d *DatalogIngestor) FlushAll(ctx context.Context) error {
	if len(d.pending) == 0 {
		return nil
	}
	script := strings.Join(d.pending, "\n\n")
	d.pending = nil

	batches, err := d.batcher.Batch(script)
	if err != nil {
		return fmt.Errorf("store: batch flush script: %w", err)
	}
	for _, batch := range batches {
		if res := contract.ValidateBatchScript(batch); !res.OK {
			return fmt.Errorf("store: %s", res.Message)
		}
		if err := d.backend.Execute(ctx, batch); err != nil {
			return fmt.Errorf("store: flush batch: %w", err)
		}
	}
	return nil
}

// enqueue splices rows into stmt's $rows placeholder and appends the
// result to the pending buffer. storage.Backend.Execute takes a bare
// Datalog string with no parameter channel, and FlushAll concatenates
// many statements into one script anyway, so each statement's row list
// is inlined as a literal here rather than carried as a $rows binding —
// which also sidesteps unrelated statements in the same flush colliding
// on a shared parameter name.
func (d *DatalogIngestor) enqueue(stmt string, rows [][]string) {
	d.pending = append(d.pending, strings.Replace(stmt, "$rows", datalogRowsLiteral(rows), 1))
}

// datalogRowsLiteral renders rows as a Cozo row-list literal, e.g.
// [["Function", "pkg.Foo", "{...}"]].
func datalogRowsLiteral(rows [][]string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, row := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteDatalogString(v))
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// quoteDatalogString renders s as a Cozo double-quoted string literal,
// escaping backslashes and quotes.
func quoteDatalogString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
