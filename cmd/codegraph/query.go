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
	"strings"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/output"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/storage"
)

// runQuery executes the 'query' CLI command: a raw, non-LLM CozoScript
// query against the project's graph. There is no natural-language or
// LLM-backed query surface (spec Non-goal); this is a thin passthrough
// to the underlying Datalog engine for scripts and ad-hoc inspection.
//
// Flags:
//   - --json: Output as JSON
//   - --timeout: Query timeout
//   - --limit: Append ":limit N" to the script
func runQuery(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	timeout := fs.Duration("timeout", 30*time.Second, "Query timeout")
	limit := fs.Int("limit", 0, "Add :limit to query (0 = no limit)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph query [options] <cozoscript>

Executes a raw CozoScript query against the local code graph.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # List every function's qualified name
  codegraph query "?[key] := *cg_node{label: 'Function', key}" --limit 10

  # Find a function by name
  codegraph query "?[key] := *cg_node{label: 'Function', key}, regex_matches(key, '(?i)parse')"

  # Count modules
  codegraph query "?[count(key)] := *cg_node{label: 'Module', key}"

  # Find callers of a function
  codegraph query "?[caller] := *cg_edge{from_label: 'Function', from_key: caller, edge_type: 'CALLS', to_label: 'Function', to_key: 'pkg.mod.target'}"

`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: script argument required")
		fs.Usage()
		os.Exit(1)
	}
	script := fs.Arg(0)
	if *limit > 0 {
		script = strings.TrimSpace(script)
		if !strings.Contains(strings.ToLower(script), ":limit") {
			script = fmt.Sprintf("%s :limit %d", script, *limit)
		}
	}

	cfg, err := loadProjectConfig(globals, langregistry.NewDefaultRegistry())
	if err != nil {
		reportQueryError(*jsonOutput, err)
	}

	if !projectDataExists(cfg) {
		reportQueryError(*jsonOutput, fmt.Errorf("project %q not indexed yet. Run 'codegraph index' first", cfg.ProjectID))
	}

	backend, err := openProjectBackend(cfg)
	if err != nil {
		reportQueryError(*jsonOutput, err)
	}
	defer func() { _ = backend.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := backend.Query(ctx, script)
	if err != nil {
		reportQueryError(*jsonOutput, fmt.Errorf("query failed: %w", err))
	}

	if *jsonOutput {
		_ = output.JSON(map[string]any{
			"headers": result.Headers,
			"rows":    result.Rows,
			"count":   len(result.Rows),
		})
	} else {
		printQueryResult(result)
	}
}

func reportQueryError(jsonOutput bool, err error) {
	if jsonOutput {
		_ = output.JSONError(err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func printQueryResult(result *storage.QueryResult) {
	if len(result.Rows) == 0 {
		fmt.Println("No results")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, h := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, strings.ToUpper(h))
	}
	fmt.Fprintln(w)
	for i := range result.Headers {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, "---")
	}
	fmt.Fprintln(w)

	for _, row := range result.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, formatCell(cell))
		}
		fmt.Fprintln(w)
	}
	_ = w.Flush()

	fmt.Printf("\n(%d rows)\n", len(result.Rows))
}

func formatCell(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 60 {
			return val[:57] + "..."
		}
		return val
	case float64:
		if val == float64(int(val)) {
			return fmt.Sprintf("%d", int(val))
		}
		return fmt.Sprintf("%.2f", val)
	case nil:
		return "<null>"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 60 {
			return s[:57] + "..."
		}
		return s
	}
}
