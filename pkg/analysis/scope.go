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

// Package analysis is the language-agnostic core: the Qualified-Name
// Builder (C4), the Import Processor (C5), the Definition Processor (C6),
// and the Call Resolver (C7). Every language plugs in through
// langregistry.Language and treesitter.Capture; nothing here touches a
// raw tree-sitter node type string directly.
package analysis

import "github.com/vitali87/codegraph/pkg/graph"

// ScopeKind enumerates the lexical scope frame kinds the Definition
// Processor pushes while walking a tree (spec §9 "Scope stack").
type ScopeKind string

const (
	ScopeModule    ScopeKind = "module"
	ScopeClass     ScopeKind = "class"
	ScopeFunction  ScopeKind = "function"
	ScopeNamespace ScopeKind = "namespace"
)

// ScopeFrame is one entry in the scope stack. Definitions close over a
// snapshot of the stack taken at emit time, never a live reference.
type ScopeFrame struct {
	Kind      ScopeKind
	LocalName string
	Span      graph.Span
}

// ScopeStack is a simple frame stack carried through a single file's
// tree walk.
type ScopeStack struct {
	frames []ScopeFrame
}

// NewScopeStack returns a stack seeded with the module frame.
func NewScopeStack(moduleLocalName string) *ScopeStack {
	return &ScopeStack{frames: []ScopeFrame{{Kind: ScopeModule, LocalName: moduleLocalName}}}
}

// Push adds a frame to the top of the stack.
func (s *ScopeStack) Push(f ScopeFrame) { s.frames = append(s.frames, f) }

// Pop removes the top frame. Popping the module frame is a no-op: the
// module frame is the floor of every scope stack.
func (s *ScopeStack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Top returns the current innermost frame.
func (s *ScopeStack) Top() ScopeFrame { return s.frames[len(s.frames)-1] }

// Depth returns the number of frames, including the module floor.
func (s *ScopeStack) Depth() int { return len(s.frames) }

// LocalNames returns the lexical names of every frame above the module
// floor, in outer-to-inner order — the path a qualified name appends
// after the module prefix.
func (s *ScopeStack) LocalNames() []string {
	if len(s.frames) <= 1 {
		return nil
	}
	names := make([]string, 0, len(s.frames)-1)
	for _, f := range s.frames[1:] {
		names = append(names, f.LocalName)
	}
	return names
}

// Snapshot returns an immutable copy of the current frames, safe to
// retain after further Push/Pop calls on the live stack.
func (s *ScopeStack) Snapshot() []ScopeFrame {
	out := make([]ScopeFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// NearestClass returns the innermost Class/Struct scope frame and true,
// or the zero value and false if no such frame is on the stack. Used to
// bind a Method's DEFINES_METHOD edge to its lexically enclosing class.
func (s *ScopeStack) NearestClass() (ScopeFrame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == ScopeClass {
			return s.frames[i], true
		}
	}
	return ScopeFrame{}, false
}

// NearestFunction returns the innermost Function scope frame and true,
// used to nest a lambda/arrow-function assigned inside another function
// (spec §4.6 point 3: never promoted to module scope).
func (s *ScopeStack) NearestFunction() (ScopeFrame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].Kind == ScopeFunction {
			return s.frames[i], true
		}
	}
	return ScopeFrame{}, false
}
