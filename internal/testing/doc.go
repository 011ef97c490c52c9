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

// Package testing provides shared fixtures for codegraph's test suite:
// a real-backend harness for store/storage-level tests, and
// RecordingIngestor, the in-memory ingest.Ingestor double every
// analysis-engine test runs against instead of touching CozoDB.
//
// # Backend-level tests
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//	    testing.InsertTestNode(t, backend, "Function", "proj.pkg.Foo", "main.go", map[string]any{"name": "Foo"})
//
//	    nodes := testing.QueryNodes(t, backend, "Function")
//	    require.Len(t, nodes.Rows, 1)
//	}
//
// # Engine-level tests
//
// RecordingIngestor needs no CozoDB; it records every call so a test can
// assert the exact set of node/edge/delete operations an engine
// component issued, independent of call order — the shape TESTABLE
// PROPERTY 1 (idempotence) and TESTABLE PROPERTY 2 (incremental
// equivalence) both check, by comparing two such traces as sets:
//
//	func TestIngestsOnce(t *testing.T) {
//	    rec := testing.NewRecordingIngestor()
//	    // ... run the component against rec ...
//	    require.ElementsMatch(t, wantNodes, rec.Nodes)
//	}
package testing
