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
	"testing"

	"github.com/vitali87/codegraph/pkg/langregistry"
)

func jsLikeLanguage() *langregistry.Language {
	return langregistry.NewDefaultRegistry().ForName("javascript")
}

func TestProjectModules_IndexAndHasPath(t *testing.T) {
	pm := NewProjectModules()
	lang := goLikeLanguage()

	pm.Index(lang, "pkg/sub/mod.go")
	if !pm.HasPath("pkg/sub/mod.go") {
		t.Error("expected HasPath true after Index")
	}
	if pm.HasPath("pkg/sub/other.go") {
		t.Error("expected HasPath false for unindexed path")
	}
}

func TestProjectModules_Remove(t *testing.T) {
	pm := NewProjectModules()
	lang := goLikeLanguage()

	pm.Index(lang, "pkg/sub/mod.go")
	pm.Remove(lang, "pkg/sub/mod.go")

	if pm.HasPath("pkg/sub/mod.go") {
		t.Error("expected HasPath false after Remove")
	}
	if _, _, ok := pm.ResolveDotted("go", "pkg.sub.mod"); ok {
		t.Error("expected ResolveDotted to fail after Remove")
	}
}

func TestProjectModules_ResolveDotted_ExactMatch(t *testing.T) {
	pm := NewProjectModules()
	lang := goLikeLanguage()
	pm.Index(lang, "pkg/sub/mod.go")

	relPath, matched, ok := pm.ResolveDotted("go", "pkg.sub.mod")
	if !ok {
		t.Fatal("expected exact dotted match to resolve")
	}
	if relPath != "pkg/sub/mod.go" || matched != "pkg.sub.mod" {
		t.Errorf("ResolveDotted = (%q, %q), want (pkg/sub/mod.go, pkg.sub.mod)", relPath, matched)
	}
}

func TestProjectModules_ResolveDotted_LongestPrefixMatch(t *testing.T) {
	pm := NewProjectModules()
	lang := goLikeLanguage()
	pm.Index(lang, "pkg/sub/mod.go")

	relPath, matched, ok := pm.ResolveDotted("go", "pkg.sub.mod.Thing")
	if !ok {
		t.Fatal("expected longest-prefix match to resolve")
	}
	if relPath != "pkg/sub/mod.go" || matched != "pkg.sub.mod" {
		t.Errorf("ResolveDotted = (%q, %q), want (pkg/sub/mod.go, pkg.sub.mod)", relPath, matched)
	}
}

func TestProjectModules_ResolveDotted_SuffixFallback(t *testing.T) {
	pm := NewProjectModules()
	lang := goLikeLanguage()
	pm.Index(lang, "pkg/sub.go")

	relPath, matched, ok := pm.ResolveDotted("go", "github.com/org/project.pkg.sub")
	if !ok {
		t.Fatal("expected suffix-fallback match for an externally-rooted import path")
	}
	if relPath != "pkg/sub.go" || matched != "pkg.sub" {
		t.Errorf("ResolveDotted = (%q, %q), want (pkg/sub.go, pkg.sub)", relPath, matched)
	}
}

func TestProjectModules_ResolveDotted_NoMatch(t *testing.T) {
	pm := NewProjectModules()
	if _, _, ok := pm.ResolveDotted("go", "unknown.module"); ok {
		t.Error("expected ResolveDotted to fail for an unindexed language")
	}
}

func TestProjectModules_ResolveSpecifier_RelativeOnly(t *testing.T) {
	pm := NewProjectModules()
	lang := jsLikeLanguage()

	pm.Index(lang, "src/util.js")

	if _, ok := pm.ResolveSpecifier(lang, "src/app.js", "some-package"); ok {
		t.Error("expected non-relative specifier to be rejected")
	}

	relPath, ok := pm.ResolveSpecifier(lang, "src/app.js", "./util")
	if !ok {
		t.Fatal("expected relative specifier to resolve")
	}
	if relPath != "src/util.js" {
		t.Errorf("ResolveSpecifier = %q, want src/util.js", relPath)
	}
}

func TestProjectModules_ResolveSpecifier_PackageMarker(t *testing.T) {
	pm := NewProjectModules()
	lang := jsLikeLanguage()

	pm.Index(lang, "src/widgets/index.js")

	relPath, ok := pm.ResolveSpecifier(lang, "src/app.js", "./widgets")
	if !ok {
		t.Fatal("expected specifier to resolve via package marker file")
	}
	if relPath != "src/widgets/index.js" {
		t.Errorf("ResolveSpecifier = %q, want src/widgets/index.js", relPath)
	}
}
