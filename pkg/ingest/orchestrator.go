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

package ingest

import (
	"context"
	"log/slog"
	"os"
	"path"
	"time"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/vitali87/codegraph/pkg/analysis"
	"github.com/vitali87/codegraph/pkg/graph"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/treesitter"
)

// Orchestrator is component C8: it drives the full two-pass repo scan
// and the single-file incremental update, owning the parser cache and
// symbol table for the process lifetime (spec §4.8).
type Orchestrator struct {
	ProjectName string
	RootPath    string

	Registry *langregistry.Registry
	Walker   *Walker
	Sink     Ingestor

	Parsers *treesitter.ParserCache
	QN      *analysis.QNBuilder
	Modules *analysis.ProjectModules
	Global  *analysis.GlobalTable

	imports    *analysis.ImportProcessor
	defs       *analysis.DefinitionProcessor
	calls      *analysis.CallResolver
	logger     *slog.Logger
	seenFolder map[string]bool
}

// NewOrchestrator wires the analysis engine's components together over a
// fresh parser cache and symbol table, ready for a full scan or a series
// of incremental updates against sink.
func NewOrchestrator(projectName, rootPath string, registry *langregistry.Registry, walker *Walker, sink Ingestor, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	qn := analysis.NewQNBuilder(projectName)
	modules := analysis.NewProjectModules()
	global := analysis.NewGlobalTable()

	return &Orchestrator{
		ProjectName: projectName,
		RootPath:    rootPath,
		Registry:    registry,
		Walker:      walker,
		Sink:        sink,
		Parsers:     treesitter.NewParserCache(),
		QN:          qn,
		Modules:     modules,
		Global:      global,
		imports:     analysis.NewImportProcessor(qn, modules),
		defs:        analysis.NewDefinitionProcessor(qn, logger),
		calls:       analysis.NewCallResolver(qn, global, logger),
		logger:      logger,
		seenFolder:  make(map[string]bool),
	}
}

// file bundles a walked path with its language and content, which Pass 1
// and Pass 2 both reuse; the parsed tree lives in the parser cache and
// the per-file symbol table is kept separately by FullScan (spec §5 "for
// a given file, Pass 1 completes before Pass 2 begins").
type file struct {
	rel     string
	full    string
	lang    *langregistry.Language
	content []byte
}

// FullScan walks RootPath, runs Pass 1 over every file (buffering trees
// in the parser cache), flushes, then runs Pass 2 over the same set and
// flushes again — the transactional boundary callers rely on (spec
// §4.8).
func (o *Orchestrator) FullScan(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordFullScan(time.Since(start).Seconds()) }()

	walked, err := o.Walker.Walk(o.RootPath)
	if err != nil {
		return err
	}

	files := make([]file, 0, len(walked))
	for _, w := range walked {
		files = append(files, file{rel: w.Path, full: w.FullPath, lang: w.Language})
		o.Modules.Index(w.Language, w.Path)
	}

	if err := o.emitStructure(ctx, files); err != nil {
		return err
	}

	tables := make(map[string]*analysis.SymbolTable, len(files))
	for i := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		f := &files[i]
		if err := o.readFile(f); err != nil {
			o.logger.Warn("ingest.scan.read_error", "path", f.rel, "err", err)
			continue
		}
		root, err := o.parse(ctx, f)
		if err != nil {
			o.logger.Warn("ingest.scan.parse_error", "path", f.rel, "err", err)
			continue
		}

		table, importEdges, err := o.imports.Process(f.lang, f.rel, root, f.content)
		if err != nil {
			o.logger.Warn("ingest.scan.imports_error", "path", f.rel, "err", err)
			continue
		}
		tables[f.rel] = table
		if len(importEdges) > 0 {
			if err := o.Sink.EnsureRelationshipBatch(ctx, importEdges); err != nil {
				return err
			}
		}

		result, err := o.defs.Process(f.lang, f.rel, root, f.content)
		if err != nil {
			o.logger.Warn("ingest.scan.definitions_error", "path", f.rel, "err", err)
			continue
		}
		if err := o.emitDefinitionResult(ctx, result); err != nil {
			return err
		}
	}

	if err := o.Sink.FlushAll(ctx); err != nil {
		return err
	}

	for i := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		f := &files[i]
		table, ok := tables[f.rel]
		if !ok {
			continue
		}
		root, err := o.parse(ctx, f)
		if err != nil {
			continue
		}

		baseEdges, err := o.calls.ResolveBases(f.lang, f.rel, root, f.content, table)
		if err != nil {
			o.logger.Warn("ingest.scan.bases_error", "path", f.rel, "err", err)
		} else if len(baseEdges) > 0 {
			if err := o.Sink.EnsureRelationshipBatch(ctx, baseEdges); err != nil {
				return err
			}
		}

		callEdges, err := o.calls.ResolveCalls(f.lang, f.rel, root, f.content, table)
		if err != nil {
			o.logger.Warn("ingest.scan.calls_error", "path", f.rel, "err", err)
			continue
		}
		if len(callEdges) > 0 {
			if err := o.Sink.EnsureRelationshipBatch(ctx, callEdges); err != nil {
				return err
			}
		}
		o.Parsers.Evict(f.rel)
	}

	return o.Sink.FlushAll(ctx)
}

// UpdateFile runs the incremental path per spec §4.8: delete the prior
// subtree rooted at relPath, purge the symbol table, then replay Pass 1
// and Pass 2 for just that file against the now-updated global table,
// and flush. Call with an empty content read (the file no longer
// exists) to handle a deletion: the subtree delete still runs, but no
// new nodes are emitted.
func (o *Orchestrator) UpdateFile(ctx context.Context, relPath string) (err error) {
	start := time.Now()
	defer func() { recordUpdate(time.Since(start).Seconds(), err) }()

	if err := o.Sink.ExecuteWrite(ctx, DeleteModuleSubtreeQuery, map[string]any{"path": relPath}); err != nil {
		return err
	}
	o.Global.PurgePath(relPath)
	o.Parsers.Evict(relPath)

	lang := o.Registry.ForPath(relPath)
	if lang == nil {
		return o.Sink.FlushAll(ctx)
	}

	fullPath := path.Join(o.RootPath, relPath)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		// File was deleted: the subtree delete above already handled
		// removing it from the graph.
		o.Modules.Remove(lang, relPath)
		return o.Sink.FlushAll(ctx)
	}
	o.Modules.Index(lang, relPath)

	f := file{rel: relPath, full: fullPath, lang: lang, content: content}
	if err := o.emitStructure(ctx, []file{f}); err != nil {
		return err
	}

	root, err := o.parse(ctx, &f)
	if err != nil {
		return err
	}

	table, importEdges, err := o.imports.Process(f.lang, f.rel, root, f.content)
	if err != nil {
		return err
	}
	if len(importEdges) > 0 {
		if err := o.Sink.EnsureRelationshipBatch(ctx, importEdges); err != nil {
			return err
		}
	}

	result, err := o.defs.Process(f.lang, f.rel, root, f.content)
	if err != nil {
		return err
	}
	if err := o.emitDefinitionResult(ctx, result); err != nil {
		return err
	}

	baseEdges, err := o.calls.ResolveBases(f.lang, f.rel, root, f.content, table)
	if err != nil {
		o.logger.Warn("ingest.update.bases_error", "path", f.rel, "err", err)
	} else if len(baseEdges) > 0 {
		if err := o.Sink.EnsureRelationshipBatch(ctx, baseEdges); err != nil {
			return err
		}
	}

	callEdges, err := o.calls.ResolveCalls(f.lang, f.rel, root, f.content, table)
	if err != nil {
		return err
	}
	if len(callEdges) > 0 {
		if err := o.Sink.EnsureRelationshipBatch(ctx, callEdges); err != nil {
			return err
		}
	}
	o.Parsers.Evict(f.rel)

	return o.Sink.FlushAll(ctx)
}

func (o *Orchestrator) readFile(f *file) error {
	content, err := os.ReadFile(f.full)
	if err != nil {
		return err
	}
	f.content = content
	return nil
}

func (o *Orchestrator) parse(ctx context.Context, f *file) (*sitter.Node, error) {
	tree, err := o.Parsers.Parse(ctx, f.lang, f.rel, f.content)
	if err != nil {
		return nil, err
	}
	return tree.RootNode(), nil
}

func (o *Orchestrator) emitDefinitionResult(ctx context.Context, result *analysis.DefinitionResult) error {
	if result == nil {
		return nil
	}
	byLabel := make(map[graph.Label][]graph.Node)
	for _, n := range result.Nodes {
		byLabel[n.Label] = append(byLabel[n.Label], n)
	}
	for label, nodes := range byLabel {
		if err := o.Sink.EnsureNodeBatch(ctx, label, nodes); err != nil {
			return err
		}
	}
	for _, info := range result.Definitions {
		o.Global.Insert(info)
	}
	if len(result.Edges) > 0 {
		if err := o.Sink.EnsureRelationshipBatch(ctx, result.Edges); err != nil {
			return err
		}
	}
	return nil
}

// emitStructure ensures the Project root, every Folder ancestor, and
// each file's Module node exist with CONTAINS_* edges linking them
// (spec §4.6 point 1: "On entering the root, emit the Module node and
// its Folder/Package parents as needed"). This lives on the
// orchestrator rather than the Definition Processor because a shared
// ancestor folder (e.g. two files under the same package) must only be
// linked once across the whole scan, which needs the cross-file view
// the orchestrator holds and a single file's Pass 1 does not.
func (o *Orchestrator) emitStructure(ctx context.Context, files []file) error {
	if !o.seenFolder[""] {
		o.seenFolder[""] = true
		if err := o.Sink.EnsureNodeBatch(ctx, graph.LabelProject, []graph.Node{{
			Label: graph.LabelProject,
			Props: map[string]any{"name": o.ProjectName},
		}}); err != nil {
			return err
		}
	}

	for _, f := range files {
		dir := path.Dir(path.Clean(f.rel))
		if dir == "." {
			dir = ""
		}
		parent, err := o.ensureFolderChain(ctx, dir)
		if err != nil {
			return err
		}

		moduleQN := o.QN.ModuleQN(f.lang, f.rel)
		if err := o.Sink.EnsureNodeBatch(ctx, graph.LabelModule, []graph.Node{{
			Label: graph.LabelModule,
			Props: map[string]any{"path": f.rel, "qualified_name": moduleQN, "module_path": f.rel, "language": f.lang.Name},
		}}); err != nil {
			return err
		}

		fromLabel, fromKey := graph.LabelProject, o.ProjectName
		edgeType := graph.EdgeContainsFile
		if parent != "" {
			fromLabel, fromKey = graph.LabelFolder, parent
		}
		if err := o.Sink.EnsureRelationshipBatch(ctx, []graph.Edge{{
			From: graph.NewRef(fromLabel, fromKey),
			Type: edgeType,
			To:   graph.NewRef(graph.LabelModule, f.rel),
		}}); err != nil {
			return err
		}
	}
	return nil
}

// ensureFolderChain ensures every path component of dir exists as a
// Folder node linked to its parent, returning dir itself (or "" if dir
// is the project root).
func (o *Orchestrator) ensureFolderChain(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	if o.seenFolder[dir] {
		return dir, nil
	}

	parentDir := path.Dir(dir)
	if parentDir == "." {
		parentDir = ""
	}
	parentPath, err := o.ensureFolderChain(ctx, parentDir)
	if err != nil {
		return "", err
	}

	o.seenFolder[dir] = true
	if err := o.Sink.EnsureNodeBatch(ctx, graph.LabelFolder, []graph.Node{{
		Label: graph.LabelFolder,
		Props: map[string]any{"path": dir, "name": path.Base(dir)},
	}}); err != nil {
		return "", err
	}

	fromLabel, fromKey := graph.LabelProject, o.ProjectName
	if parentPath != "" {
		fromLabel, fromKey = graph.LabelFolder, parentPath
	}
	if err := o.Sink.EnsureRelationshipBatch(ctx, []graph.Edge{{
		From: graph.NewRef(fromLabel, fromKey),
		Type: graph.EdgeContainsFolder,
		To:   graph.NewRef(graph.LabelFolder, dir),
	}}); err != nil {
		return "", err
	}

	return dir, nil
}
