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

package treesitter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vitali87/codegraph/pkg/langregistry"
)

// Capture is one named sub-match from a query, with its text and span
// already resolved against the source buffer. Capture names follow the
// "<kind>.<role>" convention (spec §4.3): function.name, class.body,
// import.module, call.callee, inheritance.base.
type Capture struct {
	QueryName   string
	CaptureName string
	Node        *sitter.Node
	Text        string
	StartPoint  sitter.Point
	EndPoint    sitter.Point
}

// QueryRunner executes named tree-sitter queries against a root node and
// produces capture records. It does no semantic work — component C6/C7
// never touch raw nodes except through the Capture's typed fields.
type QueryRunner struct{}

// NewQueryRunner returns a stateless query runner.
func NewQueryRunner() *QueryRunner { return &QueryRunner{} }

// Match groups the captures that belong to a single pattern match —
// e.g. one class.name paired with one inheritance.base, or one
// import.module paired with its import.alias. Callers that only care
// about independent captures can use Run, which returns them flattened.
type Match struct {
	QueryName string
	Captures  []Capture
}

// RunMatches executes the named query against root and returns each
// pattern match's captures grouped together. Returns (nil, nil) if the
// language has no such query.
func (r *QueryRunner) RunMatches(lang *langregistry.Language, queryName string, root *sitter.Node, content []byte) ([]Match, error) {
	q, err := lang.Query(queryName)
	if err != nil {
		return nil, err
	}
	if q == nil || root == nil {
		return nil, nil
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, root)

	var out []Match
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m := Match{QueryName: queryName}
		for _, c := range match.Captures {
			name := q.CaptureNameForId(c.Index)
			// Predicate-only captures (e.g. @_require used only by
			// #eq?) never surface to callers.
			if strings.HasPrefix(name, "_") {
				continue
			}
			node := c.Node
			if node == nil {
				continue
			}
			m.Captures = append(m.Captures, Capture{
				QueryName:   queryName,
				CaptureName: name,
				Node:        node,
				Text:        string(content[node.StartByte():node.EndByte()]),
				StartPoint:  node.StartPoint(),
				EndPoint:    node.EndPoint(),
			})
		}
		if len(m.Captures) > 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

// Run executes the named query (definitions/calls/imports/inheritance)
// against root and flattens every match's captures into one slice.
// Returns (nil, nil) if the language has no such query.
func (r *QueryRunner) Run(lang *langregistry.Language, queryName string, root *sitter.Node, content []byte) ([]Capture, error) {
	matches, err := r.RunMatches(lang, queryName, root, content)
	if err != nil || matches == nil {
		return nil, err
	}
	var out []Capture
	for _, m := range matches {
		out = append(out, m.Captures...)
	}
	return out, nil
}
