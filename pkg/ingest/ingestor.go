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

// Package ingest drives the two-pass full scan and the single-file
// incremental update, and defines the Ingestor contract every graph store
// backend must satisfy (spec §4.8, §4.9).
package ingest

import (
	"context"

	"github.com/vitali87/codegraph/pkg/graph"
)

// Ingestor is the abstract batched node/edge sink every other component
// in the analysis engine writes through. The core is oblivious to
// transport: a Cypher store, a Datalog store, or a test double can all
// implement it.
type Ingestor interface {
	// EnsureNodeBatch idempotently upserts a batch of nodes sharing a
	// label. Props on a re-ingest overwrite the previous values.
	EnsureNodeBatch(ctx context.Context, label graph.Label, nodes []graph.Node) error

	// EnsureRelationshipBatch idempotently upserts a batch of edges of
	// the same type. Idempotent per (from, type, to) triple.
	EnsureRelationshipBatch(ctx context.Context, edges []graph.Edge) error

	// ExecuteWrite is the escape hatch used only by the orchestrator for
	// path-scoped deletes ahead of an incremental re-ingest.
	ExecuteWrite(ctx context.Context, query string, params map[string]any) error

	// FlushAll is the transactional barrier: on return, every prior
	// batch call is durable.
	FlushAll(ctx context.Context) error
}

// DeleteModuleSubtreeQuery is the path-scoped delete used by incremental
// updates: it removes a Module and everything it transitively owns
// (its Classes/Structs/Functions/Methods) before that file is re-ingested,
// per spec §4.8 and the original real-time updater this design is based
// on.
const DeleteModuleSubtreeQuery = `MATCH (m:Module {path:$path})-[*0..]->(c) DETACH DELETE m,c`
