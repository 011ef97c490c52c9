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
	"path"
	"strings"
	"sync"

	"github.com/vitali87/codegraph/pkg/langregistry"
)

// ProjectModules is the project-wide index of every file the walker has
// seen, indexed two ways: by the dotted module name its own language
// would derive for it, and by its raw relative path. The Import
// Processor consults this before deciding a specifier is external
// (spec §4.5).
type ProjectModules struct {
	mu     sync.RWMutex
	dotted map[string]map[string]string // language name -> dotted name -> relPath
	paths  map[string]bool
}

// NewProjectModules returns an empty index.
func NewProjectModules() *ProjectModules {
	return &ProjectModules{
		dotted: make(map[string]map[string]string),
		paths:  make(map[string]bool),
	}
}

// Index records relPath as a known module of lang.
func (p *ProjectModules) Index(lang *langregistry.Language, relPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.paths[relPath] = true
	joined := strings.Join(lang.Naming.ModuleNameFromPath(relPath), ".")
	m, ok := p.dotted[lang.Name]
	if !ok {
		m = make(map[string]string)
		p.dotted[lang.Name] = m
	}
	m[joined] = relPath
}

// Remove drops relPath from the index — the first step of reindexing a
// deleted or renamed file during an incremental update.
func (p *ProjectModules) Remove(lang *langregistry.Language, relPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.paths, relPath)
	joined := strings.Join(lang.Naming.ModuleNameFromPath(relPath), ".")
	if m, ok := p.dotted[lang.Name]; ok {
		delete(m, joined)
	}
}

// HasPath reports whether relPath is a known file in the project.
func (p *ProjectModules) HasPath(relPath string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paths[relPath]
}

// ResolveDotted resolves a path-qualified specifier ("pkg.sub.mod" or
// "a::b::c", already normalized to dots by the caller) against the
// modules known for langName. Longest-prefix match: if the exact
// specifier isn't a module, progressively drop trailing segments so
// "pkg.sub.Thing" still finds module "pkg.sub".
func (p *ProjectModules) ResolveDotted(langName, specifier string) (relPath string, matchedPrefix string, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, ok := p.dotted[langName]
	if !ok {
		return "", "", false
	}
	segs := strings.Split(specifier, ".")
	for end := len(segs); end > 0; end-- {
		candidate := strings.Join(segs[:end], ".")
		if rp, ok := m[candidate]; ok {
			return rp, candidate, true
		}
	}

	// Suffix fallback: languages like Go write the full module import
	// path ("github.com/org/project/pkg/sub"), which is this project's
	// own dotted module name prefixed by an externally-rooted domain we
	// never indexed. Match the longest known dotted name that forms a
	// clean suffix.
	best, bestPath := "", ""
	for dottedName, rp := range m {
		if dottedName == "" || !strings.HasSuffix(specifier, dottedName) {
			continue
		}
		before := specifier[:len(specifier)-len(dottedName)]
		if (before == "" || strings.HasSuffix(before, ".")) && len(dottedName) > len(best) {
			best, bestPath = dottedName, rp
		}
	}
	if best != "" {
		return bestPath, best, true
	}
	return "", "", false
}

// ResolveSpecifier resolves a relative/absolute specifier-style import
// (JS/TS/C++) against the importing file's directory. Returns false for
// specifiers that aren't relative — those are always external by
// convention for these language families.
func (p *ProjectModules) ResolveSpecifier(lang *langregistry.Language, fromRelPath, specifier string) (string, bool) {
	if !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") {
		return "", false
	}

	dir := path.Dir(filepathToSlash(fromRelPath))
	joined := path.Clean(path.Join(dir, specifier))

	candidates := []string{joined}
	for _, ext := range lang.FileExtensions {
		candidates = append(candidates, joined+ext)
	}
	if lang.PackageMarker != "" {
		for _, ext := range lang.FileExtensions {
			candidates = append(candidates, path.Join(joined, lang.PackageMarker+ext))
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range candidates {
		if p.paths[c] {
			return c, true
		}
	}
	return "", false
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
