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

// Package ingestion provides Batcher, which splits a Datalog mutation
// script into pieces that stay under a target mutation count and a
// maximum script size.
//
// The rest of the original ingestion pipeline (file discovery, parsing,
// embeddings, checkpointing) has moved to pkg/treesitter, pkg/analysis,
// and pkg/ingest, which implement the polyglot code graph's scan and
// incremental-update logic directly against the new cg_node/cg_edge
// schema. Batcher is the one piece of the old pipeline that still fits
// unchanged: pkg/store's DatalogIngestor uses it to keep flushed scripts
// within CozoDB's practical script size.
package ingestion
