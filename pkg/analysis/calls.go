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
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/treesitter"
)

// CallResolver is component C7: Pass 2 of the two-pass walk. It only
// runs once every file's Pass 1 has completed and the GlobalTable is
// complete (spec §4.8), and resolves each call site and inheritance
// clause through a fixed ladder, dropping anything ambiguous rather
// than guessing (spec §4.7 "conservative resolution"):
//
//  1. Receiver method — a self/this-qualified call resolved against the
//     nearest enclosing class, including inherited members.
//  2. Static/qualified class call — ClassName.method() / ClassName::method()
//     where ClassName is a locally known class.
//  3. Variable-typed receiver — a local variable whose static type was
//     inferred from a constructor call (new T(...)/T(...)/T::new(...))
//     or a factory/singleton assignment (x = Owner.method(...)),
//     resolved against that type's members.
//  4. Fully-qualified path — the receiver is an imported module/alias.
//     If the import only resolved to module granularity, the receiver's
//     own name is retried as a module member to recover the class QN.
//  5. Bare identifier in scope — a same-file sibling definition first,
//     then the symbol table, then each wildcard import in order.
//
// A call site whose receiver is itself an unresolved nested call (a
// chained factory access such as Storage::get_instance().clear_all())
// is retried once every other call in the file has resolved: if the
// receiver's byte range matches a resolved call's site, that call's
// target's owning class stands in for the receiver's type.
type CallResolver struct {
	qn     *QNBuilder
	global *GlobalTable
	runner *treesitter.QueryRunner
	logger *slog.Logger
}

// NewCallResolver returns a resolver reading from the shared global
// table, which must already contain every module's Pass 1 output.
func NewCallResolver(qn *QNBuilder, global *GlobalTable, logger *slog.Logger) *CallResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallResolver{qn: qn, global: global, runner: treesitter.NewQueryRunner(), logger: logger}
}

// selfNames are the receiver identifiers treated as "the current
// instance" across every supported language.
var selfNames = map[string]bool{"self": true, "this": true}

type fileScope struct {
	modulePrefix  []string
	moduleQN      string
	localClasses  map[string]string // simple class/struct/namespace name -> QN, same file
	localDefs     map[string]string // simple function/method name -> QN, same file
	localVarTypes map[string]string // simple variable name -> inferred type QN, same file
}

// buildFileScope replays the Pass 1 walk's naming decisions (without
// re-emitting nodes) to recover every same-file class and function/
// method simple name's QN, for the bare-identifier and qualified-class
// resolution ladder steps.
func (r *CallResolver) buildFileScope(lang *langregistry.Language, relPath string, root *sitter.Node, content []byte) (*fileScope, error) {
	byRange, anon, err := indexDefinitions(r.runner, lang, root, content)
	if err != nil {
		return nil, err
	}

	modulePrefix := r.qn.ModulePrefix(lang, relPath)
	fs := &fileScope{
		modulePrefix: modulePrefix,
		moduleQN:     strings.Join(modulePrefix, "."),
		localClasses: make(map[string]string),
		localDefs:    make(map[string]string),
	}

	scopes := NewScopeStack(modulePrefix[len(modulePrefix)-1])

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		key := byteRange{n.StartByte(), n.EndByte()}

		if dc, ok := byRange[key]; ok {
			local := lang.Naming.CanonicalizeLocalName(dc.nameText)
			kind := dc.kind
			if strings.Contains(dc.nameText, "::") {
				parts := strings.Split(dc.nameText, "::")
				local = lang.Naming.CanonicalizeLocalName(parts[len(parts)-1])
			}
			if kind == graph.KindFunction {
				if top := scopes.Top(); top.Kind == ScopeClass {
					kind = graph.KindMethod
				}
			}
			qnVal := r.qn.Build(modulePrefix, scopes.Snapshot(), local)

			if kind == graph.KindClass || kind == graph.KindStruct || kind == graph.KindNamespace {
				fs.localClasses[local] = qnVal
			} else {
				fs.localDefs[local] = qnVal
			}

			scopeKind := ScopeFunction
			switch kind {
			case graph.KindClass, graph.KindStruct:
				scopeKind = ScopeClass
			case graph.KindNamespace:
				scopeKind = ScopeNamespace
			}
			scopes.Push(ScopeFrame{Kind: scopeKind, LocalName: local})
			for i := 0; i < int(n.ChildCount()); i++ {
				walk(n.Child(i))
			}
			scopes.Pop()
			return
		}
		if anon[key] {
			scopes.Push(ScopeFrame{Kind: ScopeFunction, LocalName: "anon"})
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

	return fs, nil
}

// enclosingQNFor walks from root down to target, returning the QN of the
// nearest definition span containing it, using the definitions index
// byRange. Used at call-site resolution time.
func enclosingQNFor(root *sitter.Node, target *sitter.Node, byRange map[byteRange]*defCapture, qn *QNBuilder, lang *langregistry.Language, modulePrefix []string) (funcQN, classQN string) {
	scopes := NewScopeStack(modulePrefix[len(modulePrefix)-1])
	var result, classResult string

	var walk func(n *sitter.Node) bool
	walk = func(n *sitter.Node) bool {
		if n == nil {
			return false
		}
		if n.StartByte() <= target.StartByte() && target.EndByte() <= n.EndByte() {
			key := byteRange{n.StartByte(), n.EndByte()}
			if dc, ok := byRange[key]; ok {
				local := lang.Naming.CanonicalizeLocalName(dc.nameText)
				if strings.Contains(dc.nameText, "::") {
					parts := strings.Split(dc.nameText, "::")
					local = lang.Naming.CanonicalizeLocalName(parts[len(parts)-1])
				}
				kind := dc.kind
				if kind == graph.KindFunction {
					if top := scopes.Top(); top.Kind == ScopeClass {
						kind = graph.KindMethod
					}
				}
				qnVal := qn.Build(modulePrefix, scopes.Snapshot(), local)
				if n != target {
					result = qnVal
				}
				scopeKind := ScopeFunction
				switch kind {
				case graph.KindClass, graph.KindStruct:
					scopeKind = ScopeClass
					if n != target {
						classResult = qnVal
					}
				case graph.KindNamespace:
					scopeKind = ScopeNamespace
				}
				scopes.Push(ScopeFrame{Kind: scopeKind, LocalName: local})
				if n == target {
					return true
				}
				for i := 0; i < int(n.ChildCount()); i++ {
					if walk(n.Child(i)) {
						scopes.Pop()
						return true
					}
				}
				scopes.Pop()
				return false
			}
			if n == target {
				return true
			}
			for i := 0; i < int(n.ChildCount()); i++ {
				if walk(n.Child(i)) {
					return true
				}
			}
		}
		return false
	}
	walk(root)
	return result, classResult
}

// callSite is one resolved "calls" query match, kept around between the
// two resolution passes ResolveCalls runs.
type callSite struct {
	callerQN, callerClassQN  string
	calleeText, receiverText string
	calleeNode, receiverNode *sitter.Node
	siteNode                 *sitter.Node
}

// ResolveCalls runs the "calls" query and resolves every call site
// against table (this file's imports) and the GlobalTable (every
// project symbol). Ambiguous or unresolvable calls are silently
// dropped, never guessed (TESTABLE PROPERTY: no CALLS edge without a
// concrete target).
//
// Resolution runs in two passes over the same match list. The first
// pass resolves everything it can and records each successfully
// resolved call's target by the byte range of its own call-site node.
// The second retries whatever is left: a call whose receiver is itself
// an unresolved nested call expression (Storage::get_instance().clear_all())
// can now be resolved if that nested call's byte range matches a
// first-pass success, borrowing its target's owning class as the
// receiver's type.
func (r *CallResolver) ResolveCalls(lang *langregistry.Language, relPath string, root *sitter.Node, content []byte, table *SymbolTable) ([]graph.Edge, error) {
	if root == nil {
		return nil, nil
	}
	byRange, _, err := indexDefinitions(r.runner, lang, root, content)
	if err != nil {
		return nil, err
	}
	modulePrefix := r.qn.ModulePrefix(lang, relPath)
	fs, err := r.buildFileScope(lang, relPath, root, content)
	if err != nil {
		return nil, err
	}
	r.collectVarTypes(lang, fs, root, content, table)

	matches, err := r.runner.RunMatches(lang, "calls", root, content)
	if err != nil {
		return nil, err
	}

	sites := make([]callSite, 0, len(matches))
	for _, m := range matches {
		var calleeText, receiverText string
		var calleeNode, receiverNode, siteNode *sitter.Node
		for _, c := range m.Captures {
			switch c.CaptureName {
			case "call.callee":
				calleeText, calleeNode = c.Text, c.Node
			case "call.receiver":
				receiverText, receiverNode = c.Text, c.Node
			case "call.site":
				siteNode = c.Node
			}
		}
		if calleeText == "" || calleeNode == nil {
			continue
		}

		callerQN, callerClassQN := enclosingQNFor(root, calleeNode, byRange, r.qn, lang, modulePrefix)
		if callerQN == "" {
			callerQN = fs.moduleQN
		}
		sites = append(sites, callSite{
			callerQN: callerQN, callerClassQN: callerClassQN,
			calleeText: calleeText, receiverText: receiverText,
			calleeNode: calleeNode, receiverNode: receiverNode, siteNode: siteNode,
		})
	}

	resolved := make(map[byteRange]*DefinitionInfo, len(sites))
	var edges []graph.Edge
	var deferred []int

	for i, s := range sites {
		targetQN, ok := r.resolveCallee(table, fs, s.callerClassQN, s.receiverText, s.calleeText)
		if !ok {
			if s.receiverNode != nil {
				deferred = append(deferred, i)
			}
			continue
		}
		info, ok := r.global.Lookup(targetQN)
		if !ok {
			continue
		}
		if s.siteNode != nil {
			resolved[byteRange{s.siteNode.StartByte(), s.siteNode.EndByte()}] = info
		}
		edges = append(edges, graph.Edge{
			From: graph.NewRef(graph.LabelFunction, s.callerQN),
			Type: graph.EdgeCalls,
			To:   graph.NewRef(graph.LabelFunction, targetQN),
		})
	}

	for _, i := range deferred {
		s := sites[i]
		nested, ok := resolved[byteRange{s.receiverNode.StartByte(), s.receiverNode.EndByte()}]
		if !ok || nested.OwnerClassQN == "" {
			continue
		}
		target, ok := r.global.Member(nested.OwnerClassQN, s.calleeText)
		if !ok {
			continue
		}
		edges = append(edges, graph.Edge{
			From: graph.NewRef(graph.LabelFunction, s.callerQN),
			Type: graph.EdgeCalls,
			To:   graph.NewRef(graph.LabelFunction, target.QN),
		})
	}

	return edges, nil
}

// collectVarTypes runs the "assignments" query (where the language
// ships one — spec §4.1 missing queries simply yield no captures) and
// records each right-hand-side constructor or factory-call's inferred
// type against the assigned variable, for the variable-typed-receiver
// ladder step. A query error (e.g. the query fails to compile) is
// logged and otherwise ignored — this step is best-effort, not load
// bearing for the rest of call resolution.
func (r *CallResolver) collectVarTypes(lang *langregistry.Language, fs *fileScope, root *sitter.Node, content []byte, table *SymbolTable) {
	fs.localVarTypes = make(map[string]string)

	matches, err := r.runner.RunMatches(lang, "assignments", root, content)
	if err != nil {
		r.logger.Debug("analysis.assignments.query_error", slog.String("lang", lang.Name), slog.Any("err", err))
		return
	}

	for _, m := range matches {
		var target, owner, callee string
		for _, c := range m.Captures {
			switch c.CaptureName {
			case "assign.target":
				target = c.Text
			case "assign.owner":
				owner = c.Text
			case "assign.callee":
				callee = c.Text
			}
		}
		if target == "" {
			continue
		}
		// An owner-qualified factory/static call (x = Owner.method(...))
		// infers x's type as Owner itself; a bare call (x = Type(...))
		// infers it from the callee name directly.
		typeName := owner
		if typeName == "" {
			typeName = callee
		}
		if typeName == "" {
			continue
		}
		if typeQN, ok := r.resolveReceiverClassQN(table, fs, typeName); ok {
			fs.localVarTypes[target] = typeQN
		}
	}
}

// resolveReceiverClassQN resolves text to a known class/struct QN: a
// same-file class, or an imported name — retrying the name itself as a
// module member when the import only resolved to module granularity.
func (r *CallResolver) resolveReceiverClassQN(table *SymbolTable, fs *fileScope, text string) (string, bool) {
	if qn, ok := fs.localClasses[text]; ok {
		return qn, true
	}
	tgt, ok := table.Lookup(text)
	if !ok || tgt.Kind != TargetInProject {
		return "", false
	}
	if info, ok := r.global.Lookup(tgt.QN); ok && isClassKind(info.Kind) {
		return tgt.QN, true
	}
	if info, ok := r.global.ModuleMember(tgt.QN, text); ok && isClassKind(info.Kind) {
		return info.QN, true
	}
	return "", false
}

func isClassKind(k graph.Kind) bool {
	return k == graph.KindClass || k == graph.KindStruct
}

func (r *CallResolver) resolveCallee(table *SymbolTable, fs *fileScope, callerClassQN, receiverText, calleeText string) (string, bool) {
	// Ladder step 1: receiver method, self/this-qualified.
	if receiverText != "" {
		if selfNames[receiverText] && callerClassQN != "" {
			if info, ok := r.global.Member(callerClassQN, calleeText); ok {
				return info.QN, true
			}
			return "", false
		}

		// Ladder step 2: static/qualified class call, receiver is a
		// locally known class name.
		if classQN, ok := fs.localClasses[receiverText]; ok {
			if info, ok := r.global.Member(classQN, calleeText); ok {
				return info.QN, true
			}
			return "", false
		}

		// Ladder step 3: variable-typed receiver, its static type was
		// inferred from a constructor call or factory assignment.
		if typeQN, ok := fs.localVarTypes[receiverText]; ok {
			if info, ok := r.global.Member(typeQN, calleeText); ok {
				return info.QN, true
			}
			return "", false
		}

		// Ladder step 4: fully-qualified path, receiver is an imported
		// module/alias.
		if tgt, ok := table.Lookup(receiverText); ok {
			switch tgt.Kind {
			case TargetInProject:
				if info, ok := r.global.ModuleMember(tgt.QN, calleeText); ok {
					return info.QN, true
				}
				if info, ok := r.global.Member(tgt.QN, calleeText); ok {
					return info.QN, true
				}
				// The import only resolved to module granularity (a Rust
				// "use storage::Storage" or a JS require() bound under the
				// exported class's own name) — recover the class QN by
				// looking the receiver's own name up as a module member.
				if classInfo, ok := r.global.ModuleMember(tgt.QN, receiverText); ok && isClassKind(classInfo.Kind) {
					if info, ok := r.global.Member(classInfo.QN, calleeText); ok {
						return info.QN, true
					}
				}
			}
		}
		// Receiver is some other variable of unknown static type:
		// conservative drop rather than guess.
		return "", false
	}

	// A C++ qualified_identifier callee ("Owner::method",
	// "ns::Owner::method") carries its receiver inside the callee text
	// itself rather than as a separate field_expression capture — split
	// it and fall into the static/qualified-class step.
	if strings.Contains(calleeText, "::") {
		parts := strings.Split(calleeText, "::")
		simple := parts[len(parts)-1]
		owner := strings.Join(parts[:len(parts)-1], "::")
		if classQN, ok := fs.localClasses[lastSegment(owner)]; ok {
			if info, ok := r.global.Member(classQN, simple); ok {
				return info.QN, true
			}
		}
		return "", false
	}

	// Ladder step 5: bare identifier in scope.
	if qn, ok := fs.localDefs[calleeText]; ok {
		return qn, true
	}
	if tgt, ok := table.Lookup(calleeText); ok && tgt.Kind == TargetInProject {
		return tgt.QN, true
	}
	for _, w := range table.Wildcards() {
		if w.Kind != TargetInProject {
			continue
		}
		if info, ok := r.global.ModuleMember(w.QN, calleeText); ok {
			return info.QN, true
		}
	}
	return "", false
}

// ResolveBases runs the "inheritance" query and adds each resolved base
// to the GlobalTable plus an INHERITS edge. A base that resolves to
// neither a same-file class nor an imported project symbol is external
// (a third-party/stdlib base class): it still gets an INHERITS edge,
// pointed at an ExternalPackage node keyed by the raw base name, rather
// than being dropped.
func (r *CallResolver) ResolveBases(lang *langregistry.Language, relPath string, root *sitter.Node, content []byte, table *SymbolTable) ([]graph.Edge, error) {
	if root == nil {
		return nil, nil
	}
	fs, err := r.buildFileScope(lang, relPath, root, content)
	if err != nil {
		return nil, err
	}

	matches, err := r.runner.RunMatches(lang, "inheritance", root, content)
	if err != nil {
		return nil, err
	}

	var edges []graph.Edge
	for _, m := range matches {
		var ownerText, baseText string
		for _, c := range m.Captures {
			switch {
			case strings.HasSuffix(c.CaptureName, ".name") && c.CaptureName != "inheritance.base":
				ownerText = c.Text
			case c.CaptureName == "inheritance.base":
				baseText = c.Text
			}
		}
		if ownerText == "" || baseText == "" {
			continue
		}
		ownerQN, ok := fs.localClasses[ownerText]
		if !ok {
			continue
		}
		baseQN, ok := fs.localClasses[baseText]
		if !ok {
			if tgt, ok2 := table.Lookup(baseText); ok2 && tgt.Kind == TargetInProject {
				baseQN = tgt.QN
			} else if info, ok2 := r.global.ModuleMember(fs.moduleQN, baseText); ok2 {
				baseQN = info.QN
			}
		}
		if baseQN == "" {
			edges = append(edges, graph.Edge{
				From: graph.NewRef(graph.LabelClass, ownerQN),
				Type: graph.EdgeInherits,
				To:   graph.NewRef(graph.LabelExternalPackage, baseText),
			})
			continue
		}
		r.global.AddBase(ownerQN, baseQN)
		edges = append(edges, graph.Edge{
			From: graph.NewRef(graph.LabelClass, ownerQN),
			Type: graph.EdgeInherits,
			To:   graph.NewRef(graph.LabelClass, baseQN),
		})
	}
	return edges, nil
}
