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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/output"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/storage"
)

// StatusResult is the project status, either printed as a table or
// encoded as JSON.
type StatusResult struct {
	ProjectID string    `json:"project_id"`
	DataDir   string    `json:"data_dir"`
	Connected bool      `json:"connected"`
	Projects  int       `json:"projects"`
	Folders   int       `json:"folders"`
	Modules   int       `json:"modules"`
	Functions int       `json:"functions"`
	Methods   int       `json:"methods"`
	Classes   int       `json:"classes"`
	Structs   int       `json:"structs"`
	CallEdges int       `json:"call_edges"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, counting the Project,
// Folder, Module, Function, Method, Class and Struct nodes and the CALLS
// edges currently in the graph; Package and ExternalPackage nodes are not
// counted.
//
// Flags:
//   - --json: Output results as JSON
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph status [options]

Shows local project status: node and edge counts in the code graph.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	registry := langregistry.NewDefaultRegistry()
	cfg, err := loadProjectConfig(globals, registry)
	if err != nil {
		reportStatusError(*jsonOutput, &StatusResult{Timestamp: time.Now()}, err)
		return
	}

	result := &StatusResult{ProjectID: cfg.ProjectID, Timestamp: time.Now()}

	if !projectDataExists(cfg) {
		result.Error = "Project not indexed yet. Run 'codegraph index' first."
		if *jsonOutput {
			_ = output.JSON(result)
		} else {
			fmt.Printf("Project '%s' not indexed yet.\n", cfg.ProjectID)
			fmt.Println("Run 'codegraph index' to build the graph.")
		}
		return
	}

	backend, err := openProjectBackend(cfg)
	if err != nil {
		reportStatusError(*jsonOutput, result, err)
		os.Exit(1)
	}
	defer func() { _ = backend.Close() }()

	result.DataDir = cfg.Store.DataDir
	result.Connected = true

	ctx := context.Background()
	result.Projects = countNodesByLabel(ctx, backend, "Project")
	result.Folders = countNodesByLabel(ctx, backend, "Folder")
	result.Modules = countNodesByLabel(ctx, backend, "Module")
	result.Functions = countNodesByLabel(ctx, backend, "Function")
	result.Methods = countNodesByLabel(ctx, backend, "Method")
	result.Classes = countNodesByLabel(ctx, backend, "Class")
	result.Structs = countNodesByLabel(ctx, backend, "Struct")
	result.CallEdges = countEdgesByType(ctx, backend, "CALLS")

	if *jsonOutput {
		_ = output.JSON(result)
	} else {
		printStatus(result)
	}
}

func reportStatusError(jsonOutput bool, result *StatusResult, err error) {
	result.Connected = false
	result.Error = err.Error()
	if jsonOutput {
		_ = output.JSON(result)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

// countNodesByLabel counts cg_node rows for a label.
func countNodesByLabel(ctx context.Context, backend *storage.EmbeddedBackend, label string) int {
	script := fmt.Sprintf("?[count(key)] := *cg_node{label: %q, key}", label)
	return queryScalarCount(ctx, backend, script)
}

// countEdgesByType counts cg_edge rows for an edge_type.
func countEdgesByType(ctx context.Context, backend *storage.EmbeddedBackend, edgeType string) int {
	script := fmt.Sprintf("?[count(from_key)] := *cg_edge{edge_type: %q, from_key}", edgeType)
	return queryScalarCount(ctx, backend, script)
}

func queryScalarCount(ctx context.Context, backend *storage.EmbeddedBackend, script string) int {
	result, err := backend.Query(ctx, script)
	if err != nil || len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0
	}
	switch v := result.Rows[0][0].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func printStatus(result *StatusResult) {
	fmt.Println("codegraph project status")
	fmt.Println("=========================")
	fmt.Printf("Project ID:  %s\n", result.ProjectID)
	fmt.Printf("Data Dir:    %s\n", result.DataDir)
	fmt.Println()
	fmt.Println("Nodes:")
	fmt.Printf("  Projects:    %d\n", result.Projects)
	fmt.Printf("  Folders:     %d\n", result.Folders)
	fmt.Printf("  Modules:     %d\n", result.Modules)
	fmt.Printf("  Classes:     %d\n", result.Classes)
	fmt.Printf("  Structs:     %d\n", result.Structs)
	fmt.Printf("  Functions:   %d\n", result.Functions)
	fmt.Printf("  Methods:     %d\n", result.Methods)
	fmt.Println()
	fmt.Printf("Call edges:    %d\n", result.CallEdges)

	if result.Error != "" {
		fmt.Printf("\nWarning: %s\n", result.Error)
	}
}
