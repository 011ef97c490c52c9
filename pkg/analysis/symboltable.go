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

// TargetKind discriminates the three things a bound local name can
// point to (spec §4.5 "Target").
type TargetKind int

const (
	// TargetInProject means the name resolves to a known qualified name
	// inside this project — either a Module or a specific symbol.
	TargetInProject TargetKind = iota

	// TargetExternal means the name resolves to an ExternalPackage node,
	// keyed by the raw specifier string as written.
	TargetExternal

	// TargetWildcard means the name was imported via a wildcard/star
	// import; the exact symbol is only known at call-resolution time by
	// probing the wildcard source's members.
	TargetWildcard
)

// Target is the value side of a module's symbol table: what a local
// name actually refers to.
type Target struct {
	Kind TargetKind

	// QN is set when Kind == TargetInProject: the qualified name of the
	// module or symbol this local name is bound to.
	QN string

	// Specifier is set when Kind == TargetExternal: the raw import
	// specifier as written ("requests", "react", "<vector>"), which also
	// doubles as the ExternalPackage node's key.
	Specifier string

	// WildcardSource is set when Kind == TargetWildcard: the qualified
	// name (or external specifier) of the module the wildcard pulled
	// from.
	WildcardSource string
}

// InProjectTarget builds a Target bound to a known project symbol.
func InProjectTarget(qn string) Target { return Target{Kind: TargetInProject, QN: qn} }

// ExternalTarget builds a Target bound to an external package.
func ExternalTarget(specifier string) Target {
	return Target{Kind: TargetExternal, Specifier: specifier}
}

// WildcardTarget builds a Target representing a wildcard import source.
func WildcardTarget(source string) Target {
	return Target{Kind: TargetWildcard, WildcardSource: source}
}

// SymbolTable is one module's local-name -> Target map, populated by
// the Import Processor (C5) before the Definition Processor runs, and
// consulted by the Call Resolver (C7).
type SymbolTable struct {
	local     map[string]Target
	wildcards []Target
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{local: make(map[string]Target)}
}

// Bind records that name resolves to target in this module. A later
// Bind for the same name overwrites the earlier one — the last import
// statement for a given local name wins, matching every language's
// shadowing rule for re-imports.
func (t *SymbolTable) Bind(name string, target Target) {
	t.local[name] = target
}

// AddWildcard records a wildcard import source, tried in declaration
// order when a bare identifier can't be found anywhere else.
func (t *SymbolTable) AddWildcard(source Target) {
	t.wildcards = append(t.wildcards, source)
}

// Lookup returns the Target bound to name, if any.
func (t *SymbolTable) Lookup(name string) (Target, bool) {
	tgt, ok := t.local[name]
	return tgt, ok
}

// Wildcards returns the wildcard sources in declaration order.
func (t *SymbolTable) Wildcards() []Target { return t.wildcards }
