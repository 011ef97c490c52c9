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

// Package graph defines the property-graph data model shared by every
// component that turns a parse tree into node/edge mutations: node labels,
// edge types, and the key by which each label is identified in the store.
package graph

// Label identifies a node type in the property graph.
type Label string

const (
	LabelProject         Label = "Project"
	LabelFolder          Label = "Folder"
	LabelModule          Label = "Module"
	LabelPackage         Label = "Package"
	LabelClass           Label = "Class"
	LabelStruct          Label = "Struct"
	LabelFunction        Label = "Function"
	LabelMethod          Label = "Method"
	LabelExternalPackage Label = "ExternalPackage"
)

// KeyAttr returns the attribute name that uniquely identifies a node of
// this label within the store, per spec §3.
func (l Label) KeyAttr() string {
	switch l {
	case LabelModule:
		return "path"
	case LabelExternalPackage:
		return "key"
	case LabelProject:
		return "name"
	case LabelFolder, LabelPackage:
		return "path"
	default:
		return "qualified_name"
	}
}

// EdgeType identifies a relationship type in the property graph.
type EdgeType string

const (
	EdgeContainsFolder  EdgeType = "CONTAINS_FOLDER"
	EdgeContainsFile    EdgeType = "CONTAINS_FILE"
	EdgeContainsPackage EdgeType = "CONTAINS_PACKAGE"
	EdgeContainsModule  EdgeType = "CONTAINS_MODULE"
	EdgeDefines         EdgeType = "DEFINES"
	EdgeDefinesMethod   EdgeType = "DEFINES_METHOD"
	EdgeInherits        EdgeType = "INHERITS"
	EdgeImports         EdgeType = "IMPORTS"
	EdgeCalls           EdgeType = "CALLS"
)

// Ref identifies a single node by (label, key attribute, key value) — the
// triple the ingestor contract uses to address both ends of an edge
// without holding an in-process object reference (spec §9 "Cyclic
// graphs").
type Ref struct {
	Label Label
	Key   string
	Value string
}

// NewRef builds a Ref using the label's declared key attribute.
func NewRef(label Label, value string) Ref {
	return Ref{Label: label, Key: label.KeyAttr(), Value: value}
}

// Node is a single node mutation: a label plus its attribute bag. Props
// always includes the key attribute.
type Node struct {
	Label Label
	Props map[string]any
}

// Edge is a single relationship mutation between two existing (or
// concurrently-created) nodes.
type Edge struct {
	From Ref
	Type EdgeType
	To   Ref
}

// Kind enumerates the definition kinds the analysis engine recognizes.
type Kind string

const (
	KindModule    Kind = "module"
	KindPackage   Kind = "package"
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindNamespace Kind = "namespace"
)

// Label returns the graph node label a definition Kind maps to.
func (k Kind) Label() Label {
	switch k {
	case KindClass, KindNamespace:
		return LabelClass
	case KindStruct:
		return LabelStruct
	case KindFunction:
		return LabelFunction
	case KindMethod:
		return LabelMethod
	case KindModule:
		return LabelModule
	default:
		return LabelFunction
	}
}

// Span is a source line/column range, 1-indexed, inclusive.
type Span struct {
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}
