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
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/treesitter"
)

// byteRange keys a definition capture by its node span, since a
// *sitter.Node obtained from a fresh tree walk is never pointer-equal to
// the one a query match captured, even for the same underlying node.
type byteRange struct{ start, end uint32 }

type defCapture struct {
	kind      graph.Kind
	defNode   *sitter.Node
	nameText  string
	anonymous bool
}

type pendingMethod struct {
	ownerPath string
	simple    string
	def       *defCapture
	scopes    []ScopeFrame
}

// DefinitionProcessor is component C6: Pass 1 of the two-pass walk. It
// recurses the tree once, maintaining a scope stack, and for every
// definition capture emits a graph node, a DEFINES/DEFINES_METHOD edge
// from its lexical container, and a DefinitionInfo for the GlobalTable.
//
// The out-of-class method case (C++ `Owner::method() {}`, always
// lexically a module-level sibling of the class, never nested inside
// its body) is handled by a pending table: an owner path not yet seen
// buffers its methods until that owner is emitted, or until the file
// walk ends, at which point it is emitted without a DEFINES_METHOD edge
// (spec §4.6 point 2).
type DefinitionProcessor struct {
	qn     *QNBuilder
	runner *treesitter.QueryRunner
	logger *slog.Logger
}

// NewDefinitionProcessor returns a processor sharing qn with the rest
// of the engine.
func NewDefinitionProcessor(qn *QNBuilder, logger *slog.Logger) *DefinitionProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefinitionProcessor{qn: qn, runner: treesitter.NewQueryRunner(), logger: logger}
}

// DefinitionResult is everything one file's Pass 1 produces. Base
// (INHERITS) relationships are resolved in Pass 2 by the Call Resolver,
// which needs the same identifier-to-QN resolution ladder and a
// complete GlobalTable to look a cross-file base class up.
type DefinitionResult struct {
	Nodes       []graph.Node
	Edges       []graph.Edge
	Definitions []*DefinitionInfo
}

// Process walks root and returns every definition node,
// DEFINES/DEFINES_METHOD edge, and GlobalTable entry found in the file;
// base relationships are left to Pass 2.
func (p *DefinitionProcessor) Process(lang *langregistry.Language, relPath string, root *sitter.Node, content []byte) (*DefinitionResult, error) {
	result := &DefinitionResult{}
	if root == nil {
		return result, nil
	}

	byRange, anon, err := indexDefinitions(p.runner, lang, root, content)
	if err != nil {
		return nil, err
	}

	modulePrefix := p.qn.ModulePrefix(lang, relPath)
	moduleQN := strings.Join(modulePrefix, ".")
	scopes := NewScopeStack(modulePrefix[len(modulePrefix)-1])

	seenOwners := make(map[string]string) // joined local owner path -> class/struct QN
	pending := make(map[string][]pendingMethod)

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		key := byteRange{n.StartByte(), n.EndByte()}

		if dc, ok := byRange[key]; ok {
			p.emit(result, lang, relPath, modulePrefix, moduleQN, scopes, seenOwners, pending, dc, n, walk)
			return
		}
		if anon[key] {
			scopes.Push(ScopeFrame{Kind: ScopeFunction, LocalName: fmt.Sprintf("anon@%d", n.StartPoint().Row+1)})
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
			scopes.Pop()
			return
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	// Drain whatever never found its owner in this file: still emitted,
	// just without a DEFINES_METHOD edge or OwnerClassQN.
	for ownerPath, methods := range pending {
		for _, pm := range methods {
			p.logger.Debug("analysis.method.owner_unresolved",
				slog.String("path", relPath), slog.String("owner", ownerPath), slog.String("method", pm.simple))
			p.emitOrphanMethod(result, lang, modulePrefix, relPath, pm)
		}
	}

	return result, nil
}

func indexDefinitions(runner *treesitter.QueryRunner, lang *langregistry.Language, root *sitter.Node, content []byte) (map[byteRange]*defCapture, map[byteRange]bool, error) {
	matches, err := runner.RunMatches(lang, "definitions", root, content)
	if err != nil {
		return nil, nil, err
	}

	byRange := make(map[byteRange]*defCapture)
	anon := make(map[byteRange]bool)

	for _, m := range matches {
		var kind graph.Kind
		var defNode *sitter.Node
		var nameNode *sitter.Node
		var ownerNode *sitter.Node
		for _, c := range m.Captures {
			switch {
			case c.CaptureName == "function.anonymous":
				anon[byteRange{c.Node.StartByte(), c.Node.EndByte()}] = true
			case c.CaptureName == "impl.owner":
				ownerNode = c.Node
			case strings.HasSuffix(c.CaptureName, ".definition"):
				defNode = c.Node
				kind = kindFromPrefix(strings.TrimSuffix(c.CaptureName, ".definition"))
			case strings.HasSuffix(c.CaptureName, ".name"):
				nameNode = c.Node
				if kind == "" {
					kind = kindFromPrefix(strings.TrimSuffix(c.CaptureName, ".name"))
				}
			}
		}
		if defNode == nil || nameNode == nil {
			continue
		}
		nameText := string(content[nameNode.StartByte():nameNode.EndByte()])
		if ownerNode != nil {
			nameText = string(content[ownerNode.StartByte():ownerNode.EndByte()]) + "::" + nameText
		}

		key := byteRange{defNode.StartByte(), defNode.EndByte()}
		// A bare "function.name"-only pattern (no owner) can match the
		// same node as an impl/owner-qualified pattern above; the
		// "::"-qualified capture always wins regardless of match order.
		if existing, ok := byRange[key]; ok && !strings.Contains(nameText, "::") && strings.Contains(existing.nameText, "::") {
			continue
		}
		byRange[key] = &defCapture{
			kind:     kind,
			defNode:  defNode,
			nameText: nameText,
		}
	}
	return byRange, anon, nil
}

func kindFromPrefix(prefix string) graph.Kind {
	switch prefix {
	case "class":
		return graph.KindClass
	case "struct":
		return graph.KindStruct
	case "function":
		return graph.KindFunction
	case "method":
		return graph.KindMethod
	case "namespace":
		return graph.KindNamespace
	default:
		return graph.KindFunction
	}
}

func (p *DefinitionProcessor) emit(
	result *DefinitionResult,
	lang *langregistry.Language,
	relPath string,
	modulePrefix []string,
	moduleQN string,
	scopes *ScopeStack,
	seenOwners map[string]string,
	pending map[string][]pendingMethod,
	dc *defCapture,
	n *sitter.Node,
	walk func(*sitter.Node),
) {
	local := lang.Naming.CanonicalizeLocalName(dc.nameText)
	kind := dc.kind

	// C++/Go out-of-class qualified method name ("Owner::method" or
	// "Owner.method" never applies to Go, whose method.name is always a
	// bare field_identifier — only "::" ever appears here).
	if kind == graph.KindMethod && strings.Contains(dc.nameText, "::") {
		parts := strings.Split(dc.nameText, "::")
		simple := lang.Naming.CanonicalizeLocalName(parts[len(parts)-1])
		ownerPath := strings.Join(parts[:len(parts)-1], ".")

		if ownerQN, ok := seenOwners[ownerPath]; ok {
			p.emitMethod(result, ownerQN, simple, n, relPath)
		} else {
			pending[ownerPath] = append(pending[ownerPath], pendingMethod{
				ownerPath: ownerPath,
				simple:    simple,
				def:       dc,
				scopes:    scopes.Snapshot(),
			})
		}
		return
	}

	// Lexically nested inside a class/struct body: promote function ->
	// method regardless of how the grammar captured it (Python/Rust).
	if kind == graph.KindFunction {
		if top := scopes.Top(); top.Kind == ScopeClass {
			kind = graph.KindMethod
		}
	}

	span := spanOf(n)
	scopeNames := scopes.LocalNames()
	qn := p.qn.Build(modulePrefix, scopes.Snapshot(), local)

	if kind == graph.KindMethod {
		ownerFrame, ok := scopes.NearestClass()
		ownerQN := ""
		if ok {
			ownerPath := append(append([]string{}, modulePrefix...), scopeNames...)
			ownerQN = strings.Join(ownerPath, ".")
			_ = ownerFrame
		}
		node := graph.Node{Label: graph.KindMethod.Label(), Props: map[string]any{
			"qualified_name": qn, "name": local, "module_path": relPath,
			"start_line": span.StartLine, "end_line": span.EndLine,
			"start_col": span.StartCol, "end_col": span.EndCol,
		}}
		result.Nodes = append(result.Nodes, node)
		result.Definitions = append(result.Definitions, &DefinitionInfo{
			QN: qn, Kind: graph.KindMethod, ModulePath: relPath, ModuleQN: moduleQN,
			Span: span, OwnerClassQN: ownerQN,
		})
		if ownerQN != "" {
			result.Edges = append(result.Edges, graph.Edge{
				From: graph.NewRef(graph.LabelClass, ownerQN),
				Type: graph.EdgeDefinesMethod,
				To:   graph.NewRef(graph.LabelMethod, qn),
			})
		}
	} else {
		containerQN := strings.Join(append(append([]string{}, modulePrefix...), scopeNames...), ".")
		containerLabel := graph.LabelModule
		if top := scopes.Top(); top.Kind == ScopeClass {
			containerLabel = graph.LabelClass
		} else if top.Kind == ScopeNamespace {
			containerLabel = graph.LabelClass
		}

		node := graph.Node{Label: kind.Label(), Props: map[string]any{
			"qualified_name": qn, "name": local, "module_path": relPath,
			"start_line": span.StartLine, "end_line": span.EndLine,
			"start_col": span.StartCol, "end_col": span.EndCol,
		}}
		result.Nodes = append(result.Nodes, node)
		result.Definitions = append(result.Definitions, &DefinitionInfo{
			QN: qn, Kind: kind, ModulePath: relPath, ModuleQN: moduleQN, Span: span,
		})
		result.Edges = append(result.Edges, graph.Edge{
			From: graph.NewRef(containerLabel, containerQN),
			Type: graph.EdgeDefines,
			To:   graph.NewRef(kind.Label(), qn),
		})

		if kind == graph.KindClass || kind == graph.KindStruct || kind == graph.KindNamespace {
			seenOwners[local] = qn
			seenOwners[strings.Join(append(scopeNames, local), ".")] = qn
			if drained, ok := pending[local]; ok {
				for _, pm := range drained {
					p.emitMethod(result, qn, pm.simple, pm.def.defNode, relPath)
				}
				delete(pending, local)
			}
		}
	}

	scopeKind := ScopeFunction
	switch kind {
	case graph.KindClass, graph.KindStruct:
		scopeKind = ScopeClass
	case graph.KindNamespace:
		scopeKind = ScopeNamespace
	}
	scopes.Push(ScopeFrame{Kind: scopeKind, LocalName: local, Span: span})
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i))
	}
	scopes.Pop()
}

func (p *DefinitionProcessor) emitMethod(result *DefinitionResult, ownerQN, simple string, n *sitter.Node, relPath string) {
	qn := ownerQN + "." + simple
	span := spanOf(n)
	result.Nodes = append(result.Nodes, graph.Node{Label: graph.LabelMethod, Props: map[string]any{
		"qualified_name": qn, "name": simple, "module_path": relPath,
		"start_line": span.StartLine, "end_line": span.EndLine,
		"start_col": span.StartCol, "end_col": span.EndCol,
	}})
	result.Definitions = append(result.Definitions, &DefinitionInfo{
		QN: qn, Kind: graph.KindMethod, ModulePath: relPath, OwnerClassQN: ownerQN, Span: span,
	})
	result.Edges = append(result.Edges, graph.Edge{
		From: graph.NewRef(graph.LabelClass, ownerQN),
		Type: graph.EdgeDefinesMethod,
		To:   graph.NewRef(graph.LabelMethod, qn),
	})
}

func (p *DefinitionProcessor) emitOrphanMethod(result *DefinitionResult, lang *langregistry.Language, modulePrefix []string, relPath string, pm pendingMethod) {
	qn := p.qn.Build(modulePrefix, pm.scopes, pm.simple)
	if pm.ownerPath != "" {
		qn = strings.Join(append(append([]string{}, modulePrefix...), append(strings.Split(pm.ownerPath, "."), pm.simple)...), ".")
	}
	span := spanOf(pm.def.defNode)
	result.Nodes = append(result.Nodes, graph.Node{Label: graph.LabelMethod, Props: map[string]any{
		"qualified_name": qn, "name": pm.simple, "module_path": relPath,
		"start_line": span.StartLine, "end_line": span.EndLine,
		"start_col": span.StartCol, "end_col": span.EndCol,
	}})
	result.Definitions = append(result.Definitions, &DefinitionInfo{
		QN: qn, Kind: graph.KindMethod, ModulePath: relPath, Span: span,
	})
}

func spanOf(n *sitter.Node) graph.Span {
	start, end := n.StartPoint(), n.EndPoint()
	return graph.Span{
		StartLine: int(start.Row) + 1, EndLine: int(end.Row) + 1,
		StartCol: int(start.Column), EndCol: int(end.Column),
	}
}
