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

package analysis

import (
	"strings"

	"github.com/vitali87/codegraph/pkg/langregistry"
)

// QNBuilder constructs qualified names the same way for every language:
// project name, then the path-derived module segments, then the scope
// stack's local names, then the definition's own local name, dot-joined
// (spec §4.4).
type QNBuilder struct {
	ProjectName string
}

// NewQNBuilder returns a builder rooted at projectName.
func NewQNBuilder(projectName string) *QNBuilder {
	return &QNBuilder{ProjectName: projectName}
}

// ModulePrefix computes the segments contributed by a file's path:
// [ProjectName, ...path segments with extension and package-marker
// filename stripped].
func (b *QNBuilder) ModulePrefix(lang *langregistry.Language, relPath string) []string {
	segs := make([]string, 0, 4)
	segs = append(segs, b.ProjectName)
	segs = append(segs, lang.Naming.ModuleNameFromPath(relPath)...)
	return segs
}

// ModuleQN joins a module's prefix into its own qualified name.
func (b *QNBuilder) ModuleQN(lang *langregistry.Language, relPath string) string {
	return strings.Join(b.ModulePrefix(lang, relPath), ".")
}

// Build composes the full qualified name for a local name defined at
// the given scope frames, nested under modulePrefix.
func (b *QNBuilder) Build(modulePrefix []string, scopes []ScopeFrame, localName string) string {
	parts := make([]string, 0, len(modulePrefix)+len(scopes)+1)
	parts = append(parts, modulePrefix...)
	for _, s := range scopes {
		if s.Kind == ScopeModule {
			continue
		}
		parts = append(parts, s.LocalName)
	}
	parts = append(parts, localName)
	return strings.Join(parts, ".")
}

// Join is a small helper for callers that already have a full segment
// list (e.g. the Call Resolver building a candidate QN to probe).
func Join(segments ...string) string {
	return strings.Join(segments, ".")
}
