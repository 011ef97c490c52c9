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

// Package langregistry maps a file extension to a language descriptor:
// its tree-sitter grammar, its named query bundle, and the naming
// conventions the Qualified-Name Builder and Definition Processor need.
// This is component C1 of the analysis engine.
package langregistry

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

//go:embed queries/*/*.scm
var queryFS embed.FS

// ImportSemantics enumerates the per-language-family rules the Import
// Processor (C5) needs to resolve a specifier to a Module or
// ExternalPackage (spec §4.5).
type ImportSemantics string

const (
	// SemanticsPathQualified covers Python/Rust/Go/Java style imports,
	// resolved against the project root or a declared package root.
	SemanticsPathQualified ImportSemantics = "path-qualified"

	// SemanticsSpecifier covers JS/TS/C++ style relative/absolute
	// specifiers, resolved against the importing file's directory.
	SemanticsSpecifier ImportSemantics = "specifier"

	// SemanticsRequire covers Node.js/Lua style side-effect requires.
	SemanticsRequire ImportSemantics = "require"
)

// Naming holds the per-language identifier conventions C4 and C6 rely on.
type Naming struct {
	// CaseFold is applied to a local name before it becomes part of a
	// qualified name. nil means no folding (the default for every
	// language this registry currently supports).
	CaseFold func(string) string

	// ModuleNameFromPath derives the dotted module-name segments a file
	// path contributes (spec §4.4 rule 2): strip the extension, drop a
	// package-marker filename, replace separators with dots.
	ModuleNameFromPath func(relPath string) []string

	// CanonicalizeLocalName rewrites a raw captured name into the token
	// used in qualified names — e.g. collapsing "operator<<" to a single
	// token, or a leading "~" destructor name (spec §9).
	CanonicalizeLocalName func(raw string) string
}

func defaultModuleNameFromPath(markers map[string]bool) func(string) []string {
	return func(relPath string) []string {
		relPath = filepath.ToSlash(relPath)
		ext := filepath.Ext(relPath)
		trimmed := strings.TrimSuffix(relPath, ext)
		parts := strings.Split(trimmed, "/")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p == "" || markers[p] {
				continue
			}
			out = append(out, p)
		}
		return out
	}
}

func identityCanonicalize(raw string) string { return raw }

// cppCanonicalize collapses "operator<<" / "operator==" into a single
// token and keeps destructor tildes attached to the class-free name, per
// spec §9 "Operator methods".
func cppCanonicalize(raw string) string {
	if strings.HasPrefix(raw, "operator") {
		return "operator" + strings.TrimPrefix(raw, "operator")
	}
	return raw
}

// Language is a single supported language's descriptor.
type Language struct {
	Name             string
	FileExtensions   []string
	Grammar          *sitter.Language
	PackageMarker    string // e.g. "__init__", "mod", "index"
	ImportSemantics  ImportSemantics
	Naming           Naming

	mu         sync.Mutex
	compiled   map[string]*sitter.Query
	compileErr map[string]error
}

// Query lazily compiles and caches the named query for this language.
// Returns (nil, nil) if the query file does not exist for this language
// — spec §4.1: "Missing queries are permitted and simply yield no
// captures."
func (l *Language) Query(name string) (*sitter.Query, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.compiled == nil {
		l.compiled = make(map[string]*sitter.Query)
		l.compileErr = make(map[string]error)
	}
	if q, ok := l.compiled[name]; ok {
		return q, l.compileErr[name]
	}

	data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s/%s.scm", l.Name, name))
	if err != nil {
		// Missing query file: cache the "no query" result.
		l.compiled[name] = nil
		l.compileErr[name] = nil
		return nil, nil
	}

	q, err := sitter.NewQuery(data, l.Grammar)
	if err != nil {
		err = fmt.Errorf("compile %s query for %s: %w", name, l.Name, err)
	}
	l.compiled[name] = q
	l.compileErr[name] = err
	return q, err
}

// Registry maps file extensions to Language descriptors.
type Registry struct {
	byExt map[string]*Language
	byName map[string]*Language
}

// NewDefaultRegistry builds the registry covering every language this
// module ships grammars and query bundles for.
func NewDefaultRegistry() *Registry {
	r := &Registry{byExt: make(map[string]*Language), byName: make(map[string]*Language)}

	goMarkers := map[string]bool{}
	r.register(&Language{
		Name:            "go",
		FileExtensions:  []string{".go"},
		Grammar:         golang.GetLanguage(),
		ImportSemantics: SemanticsPathQualified,
		Naming: Naming{
			ModuleNameFromPath:    defaultModuleNameFromPath(goMarkers),
			CanonicalizeLocalName: identityCanonicalize,
		},
	})

	pyMarkers := map[string]bool{"__init__": true}
	r.register(&Language{
		Name:            "python",
		FileExtensions:  []string{".py"},
		Grammar:         python.GetLanguage(),
		PackageMarker:   "__init__",
		ImportSemantics: SemanticsPathQualified,
		Naming: Naming{
			ModuleNameFromPath:    defaultModuleNameFromPath(pyMarkers),
			CanonicalizeLocalName: identityCanonicalize,
		},
	})

	jsMarkers := map[string]bool{"index": true}
	r.register(&Language{
		Name:            "javascript",
		FileExtensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
		Grammar:         javascript.GetLanguage(),
		PackageMarker:   "index",
		ImportSemantics: SemanticsSpecifier,
		Naming: Naming{
			ModuleNameFromPath:    defaultModuleNameFromPath(jsMarkers),
			CanonicalizeLocalName: identityCanonicalize,
		},
	})

	tsMarkers := map[string]bool{"index": true}
	r.register(&Language{
		Name:            "typescript",
		FileExtensions:  []string{".ts", ".tsx"},
		Grammar:         typescript.GetLanguage(),
		PackageMarker:   "index",
		ImportSemantics: SemanticsSpecifier,
		Naming: Naming{
			ModuleNameFromPath:    defaultModuleNameFromPath(tsMarkers),
			CanonicalizeLocalName: identityCanonicalize,
		},
	})

	rsMarkers := map[string]bool{"mod": true}
	r.register(&Language{
		Name:            "rust",
		FileExtensions:  []string{".rs"},
		Grammar:         rust.GetLanguage(),
		PackageMarker:   "mod",
		ImportSemantics: SemanticsPathQualified,
		Naming: Naming{
			ModuleNameFromPath:    defaultModuleNameFromPath(rsMarkers),
			CanonicalizeLocalName: identityCanonicalize,
		},
	})

	cppMarkers := map[string]bool{}
	r.register(&Language{
		Name:            "cpp",
		FileExtensions:  []string{".cpp", ".cc", ".cxx", ".hpp", ".h", ".hh"},
		Grammar:         cpp.GetLanguage(),
		ImportSemantics: SemanticsSpecifier,
		Naming: Naming{
			ModuleNameFromPath:    defaultModuleNameFromPath(cppMarkers),
			CanonicalizeLocalName: cppCanonicalize,
		},
	})

	return r
}

func (r *Registry) register(l *Language) {
	r.byName[l.Name] = l
	for _, ext := range l.FileExtensions {
		r.byExt[ext] = l
	}
}

// ForExtension returns the Language for a file extension (including the
// leading dot), or nil if the extension is unsupported.
func (r *Registry) ForExtension(ext string) *Language {
	return r.byExt[strings.ToLower(ext)]
}

// ForPath returns the Language matching a file's extension, or nil.
func (r *Registry) ForPath(path string) *Language {
	return r.ForExtension(filepath.Ext(path))
}

// ForName returns a Language by its stable name, or nil.
func (r *Registry) ForName(name string) *Language {
	return r.byName[name]
}

// Languages returns every registered Language, order unspecified.
func (r *Registry) Languages() []*Language {
	out := make([]*Language, 0, len(r.byName))
	for _, l := range r.byName {
		out = append(out, l)
	}
	return out
}
