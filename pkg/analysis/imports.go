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

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/treesitter"
)

// ImportProcessor is component C5: it reads a file's "imports" query
// matches and produces the per-module SymbolTable the Definition
// Processor and Call Resolver consult, plus the IMPORTS edges for the
// graph (spec §4.5 — six import flavors: whole-module, aliased
// whole-module, named symbol, named+alias, wildcard, side-effect).
type ImportProcessor struct {
	qn      *QNBuilder
	modules *ProjectModules
	runner  *treesitter.QueryRunner
}

// NewImportProcessor returns a processor sharing qn and modules with
// the rest of the engine.
func NewImportProcessor(qn *QNBuilder, modules *ProjectModules) *ImportProcessor {
	return &ImportProcessor{qn: qn, modules: modules, runner: treesitter.NewQueryRunner()}
}

// Process builds the symbol table and import edges for one file.
func (p *ImportProcessor) Process(lang *langregistry.Language, relPath string, root *sitter.Node, content []byte) (*SymbolTable, []graph.Edge, error) {
	table := NewSymbolTable()

	matches, err := p.runner.RunMatches(lang, "imports", root, content)
	if err != nil {
		return table, nil, err
	}

	moduleQN := p.qn.ModuleQN(lang, relPath)
	var edges []graph.Edge

	for _, m := range matches {
		var specifierRaw, alias, name string
		wildcard := false
		for _, c := range m.Captures {
			switch c.CaptureName {
			case "import.module", "import.path":
				specifierRaw = c.Text
			case "import.alias":
				alias = c.Text
			case "import.name":
				name = c.Text
			case "import.wildcard":
				wildcard = true
			}
		}
		if specifierRaw == "" {
			continue
		}
		specifier := stripSpecifierQuotes(specifierRaw)

		targetModuleQN, isInProject := p.resolveModule(lang, relPath, specifier)

		switch {
		case wildcard:
			if isInProject {
				table.AddWildcard(InProjectTarget(targetModuleQN))
			} else {
				table.AddWildcard(ExternalTarget(specifier))
			}

		case name != "":
			local := alias
			if local == "" {
				local = name
			}
			if isInProject {
				table.Bind(local, InProjectTarget(targetModuleQN+"."+name))
			} else {
				table.Bind(local, ExternalTarget(specifier))
			}

		case alias != "":
			if isInProject {
				table.Bind(alias, InProjectTarget(targetModuleQN))
			} else {
				table.Bind(alias, ExternalTarget(specifier))
			}

		default:
			// Whole-module import with nothing bound explicitly. A bare
			// side-effect import (JS `import "./polyfill"`, a C++
			// #include, a require() whose result is discarded) binds
			// nothing; every other language family binds the
			// specifier's own trailing segment as the local name.
			if lang.ImportSemantics != langregistry.SemanticsRequire && lang.Name != "cpp" {
				if local := lastSegment(specifier); local != "" {
					if isInProject {
						table.Bind(local, InProjectTarget(targetModuleQN))
					} else {
						table.Bind(local, ExternalTarget(specifier))
					}
				}
			}
		}

		to := graph.NewRef(graph.LabelExternalPackage, specifier)
		if isInProject {
			to = graph.NewRef(graph.LabelModule, targetModuleQN)
		}
		edges = append(edges, graph.Edge{
			From: graph.NewRef(graph.LabelModule, moduleQN),
			Type: graph.EdgeImports,
			To:   to,
		})
	}

	return table, edges, nil
}

func (p *ImportProcessor) resolveModule(lang *langregistry.Language, relPath, specifier string) (moduleQN string, isInProject bool) {
	switch lang.ImportSemantics {
	case langregistry.SemanticsPathQualified:
		norm := strings.ReplaceAll(specifier, "::", ".")
		norm = strings.ReplaceAll(norm, "/", ".")
		norm = strings.TrimPrefix(norm, ".")
		if targetRelPath, _, ok := p.modules.ResolveDotted(lang.Name, norm); ok {
			return p.qn.ModuleQN(lang, targetRelPath), true
		}
		return "", false

	case langregistry.SemanticsSpecifier, langregistry.SemanticsRequire:
		if targetRelPath, ok := p.modules.ResolveSpecifier(lang, relPath, specifier); ok {
			return p.qn.ModuleQN(lang, targetRelPath), true
		}
		return "", false
	}
	return "", false
}

func stripSpecifierQuotes(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		switch {
		case raw[0] == '"' && raw[len(raw)-1] == '"':
			return raw[1 : len(raw)-1]
		case raw[0] == '\'' && raw[len(raw)-1] == '\'':
			return raw[1 : len(raw)-1]
		case raw[0] == '<' && raw[len(raw)-1] == '>':
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

func lastSegment(specifier string) string {
	norm := strings.ReplaceAll(specifier, "::", "/")
	norm = strings.ReplaceAll(norm, ".", "/")
	norm = strings.TrimSuffix(norm, "/")
	idx := strings.LastIndex(norm, "/")
	if idx < 0 {
		return norm
	}
	return norm[idx+1:]
}
