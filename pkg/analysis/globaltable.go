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
	"sync"

	"github.com/vitali87/codegraph/pkg/graph"
)

// DefinitionInfo is everything the Call Resolver needs to know about a
// symbol once Pass 1 (the Definition Processor) has recorded it — the
// global symbol table the spec requires be complete before Pass 2
// begins (spec §4.8 "two full passes").
type DefinitionInfo struct {
	QN           string
	Kind         graph.Kind
	ModulePath   string // the relative file path that defines it
	ModuleQN     string // the qualified name of its owning module
	Span         graph.Span
	OwnerClassQN string // non-empty for Method: the class/struct it belongs to
}

// GlobalTable is the project-wide symbol table populated across every
// file during Pass 1 and read-only during Pass 2. It is rebuilt from
// scratch on a full scan, and surgically updated (old entries for a
// path removed, new ones inserted) on an incremental update (spec §6).
type GlobalTable struct {
	mu             sync.RWMutex
	byQN           map[string]*DefinitionInfo
	byPathQN       map[string][]string // relPath -> QNs defined there, for incremental purge
	membersByOwner map[string]map[string]*DefinitionInfo
	basesByQN      map[string][]string // class/struct QN -> base QNs, insertion order
}

// NewGlobalTable returns an empty table.
func NewGlobalTable() *GlobalTable {
	return &GlobalTable{
		byQN:           make(map[string]*DefinitionInfo),
		byPathQN:       make(map[string][]string),
		membersByOwner: make(map[string]map[string]*DefinitionInfo),
		basesByQN:      make(map[string][]string),
	}
}

// Insert records a definition. Overwriting an existing QN (two files
// defining the same fully-qualified symbol) keeps the newer entry — the
// last writer in file-walk order wins, matching the ingestor's
// ensure-node-batch upsert semantics.
func (g *GlobalTable) Insert(info *DefinitionInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.byQN[info.QN] = info
	g.byPathQN[info.ModulePath] = append(g.byPathQN[info.ModulePath], info.QN)

	if info.OwnerClassQN != "" {
		m, ok := g.membersByOwner[info.OwnerClassQN]
		if !ok {
			m = make(map[string]*DefinitionInfo)
			g.membersByOwner[info.OwnerClassQN] = m
		}
		m[simpleName(info.QN)] = info
	}
}

// AddBase records that classQN inherits from baseQN, in declaration
// order, for method-resolution-order lookups during call resolution.
func (g *GlobalTable) AddBase(classQN, baseQN string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.basesByQN[classQN] = append(g.basesByQN[classQN], baseQN)
}

// PurgePath removes every definition previously recorded for relPath —
// the first step of an incremental update for a changed file (spec
// §4.9).
func (g *GlobalTable) PurgePath(relPath string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, qn := range g.byPathQN[relPath] {
		info, ok := g.byQN[qn]
		if !ok {
			continue
		}
		delete(g.byQN, qn)
		if info.OwnerClassQN != "" {
			if m, ok := g.membersByOwner[info.OwnerClassQN]; ok {
				delete(m, simpleName(qn))
			}
		}
		delete(g.basesByQN, qn)
	}
	delete(g.byPathQN, relPath)
}

// Lookup returns the definition recorded for an exact qualified name.
func (g *GlobalTable) Lookup(qn string) (*DefinitionInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.byQN[qn]
	return info, ok
}

// Member looks up a simple (unqualified) member name on ownerQN,
// walking the inheritance chain depth-first, in base declaration order,
// when the member isn't
// declared directly — spec §4.7 "inherited members are visible through
// a receiver of the derived type".
func (g *GlobalTable) Member(ownerQN, name string) (*DefinitionInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.memberLocked(ownerQN, name, make(map[string]bool))
}

func (g *GlobalTable) memberLocked(ownerQN, name string, visited map[string]bool) (*DefinitionInfo, bool) {
	if visited[ownerQN] {
		return nil, false
	}
	visited[ownerQN] = true

	if m, ok := g.membersByOwner[ownerQN]; ok {
		if info, ok := m[name]; ok {
			return info, true
		}
	}
	for _, base := range g.basesByQN[ownerQN] {
		if info, ok := g.memberLocked(base, name, visited); ok {
			return info, true
		}
	}
	return nil, false
}

// ModuleMember looks up a top-level (non-method) symbol declared
// directly inside a module, by the module's QN and the symbol's simple
// name — used to resolve a bare call after a wildcard import.
func (g *GlobalTable) ModuleMember(moduleQN, name string) (*DefinitionInfo, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	info, ok := g.byQN[moduleQN+"."+name]
	return info, ok
}

func simpleName(qn string) string {
	idx := strings.LastIndex(qn, ".")
	if idx < 0 {
		return qn
	}
	return qn[idx+1:]
}
