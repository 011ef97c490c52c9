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

package langregistry

import "testing"

func TestRegistry_ForPath(t *testing.T) {
	r := NewDefaultRegistry()

	cases := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"pkg/mod.rs", "rust"},
		{"src/app.py", "python"},
		{"src/index.ts", "typescript"},
		{"src/index.tsx", "typescript"},
		{"src/widget.jsx", "javascript"},
		{"lib/thing.cc", "cpp"},
		{"lib/thing.hpp", "cpp"},
		{"README.md", ""},
		{"noext", ""},
	}
	for _, c := range cases {
		lang := r.ForPath(c.path)
		got := ""
		if lang != nil {
			got = lang.Name
		}
		if got != c.want {
			t.Errorf("ForPath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestRegistry_ForExtension_CaseInsensitive(t *testing.T) {
	r := NewDefaultRegistry()
	if r.ForExtension(".GO") == nil {
		t.Error("expected .GO to resolve case-insensitively")
	}
	if r.ForExtension(".Py").Name != "python" {
		t.Error("expected .Py to resolve to python")
	}
}

func TestRegistry_ForName(t *testing.T) {
	r := NewDefaultRegistry()
	if r.ForName("go") == nil {
		t.Error("expected go language registered by name")
	}
	if r.ForName("nonexistent") != nil {
		t.Error("expected nil for unregistered language name")
	}
}

func TestRegistry_Languages_CoversAllRegistered(t *testing.T) {
	r := NewDefaultRegistry()
	names := map[string]bool{}
	for _, l := range r.Languages() {
		names[l.Name] = true
	}
	for _, want := range []string{"go", "python", "javascript", "typescript", "rust", "cpp"} {
		if !names[want] {
			t.Errorf("expected %q among Languages()", want)
		}
	}
}

func TestLanguage_Query_MissingFileYieldsNilNil(t *testing.T) {
	r := NewDefaultRegistry()
	lang := r.ForName("go")
	q, err := lang.Query("nonexistent_query_name")
	if err != nil {
		t.Fatalf("expected nil error for missing query file, got %v", err)
	}
	if q != nil {
		t.Fatalf("expected nil query for missing query file, got %v", q)
	}
}

func TestLanguage_Query_CompilesAndCaches(t *testing.T) {
	r := NewDefaultRegistry()
	lang := r.ForName("go")

	q1, err := lang.Query("definitions")
	if err != nil {
		t.Fatalf("Query(definitions) failed: %v", err)
	}
	if q1 == nil {
		t.Fatal("expected a compiled query for go/definitions.scm")
	}

	q2, err := lang.Query("definitions")
	if err != nil {
		t.Fatalf("second Query(definitions) failed: %v", err)
	}
	if q1 != q2 {
		t.Error("expected cached query to be returned on second call")
	}
}

func TestCppCanonicalize(t *testing.T) {
	cases := map[string]string{
		"operator<<": "operator<<",
		"operator==": "operator==",
		"Foo":        "Foo",
	}
	for in, want := range cases {
		if got := cppCanonicalize(in); got != want {
			t.Errorf("cppCanonicalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultModuleNameFromPath_DropsMarkersAndExtension(t *testing.T) {
	fn := defaultModuleNameFromPath(map[string]bool{"__init__": true})

	cases := []struct {
		path string
		want []string
	}{
		{"pkg/mod.py", []string{"pkg", "mod"}},
		{"pkg/__init__.py", []string{"pkg"}},
		{"top.py", []string{"top"}},
	}
	for _, c := range cases {
		got := fn(c.path)
		if len(got) != len(c.want) {
			t.Fatalf("fn(%q) = %v, want %v", c.path, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("fn(%q) = %v, want %v", c.path, got, c.want)
			}
		}
	}
}
