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

// Package main implements the codegraph CLI for building and querying
// the polyglot code graph.
//
// Usage:
//
//	codegraph init                 Create .codegraph/project.yaml configuration
//	codegraph index                Full scan of the current repository
//	codegraph watch                Watch the repository and incrementally re-index
//	codegraph status [--json]      Show project status
//	codegraph query <script>       Execute a raw CozoScript query
//	codegraph reset --yes          Delete local indexed data
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags carries flags every subcommand inherits.
type GlobalFlags struct {
	ConfigPath string
	Quiet      bool
	NoColor    bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .codegraph/project.yaml (default: ./.codegraph/project.yaml)")
		quiet       = flag.Bool("q", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - polyglot code graph engine

Usage:
  codegraph <command> [options]

Commands:
  init        Create .codegraph/project.yaml configuration
  index       Full scan of the current repository
  watch       Watch the repository and incrementally re-index on change
  status      Show project status
  query       Execute a raw CozoScript query
  reset       Delete local indexed data (destructive!)
  completion  Print a shell completion script

Global Options:
  --config    Path to .codegraph/project.yaml
  -q          Suppress progress output
  --no-color  Disable colored output
  --version   Show version and exit

Examples:
  codegraph init
  codegraph index
  codegraph watch
  codegraph status --json
  codegraph query "?[key] := *cg_node{label: 'Function', key}"

Data Storage:
  Data is stored under .codegraph/data/ inside the repository by default.

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codegraph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{ConfigPath: *configPath, Quiet: *quiet, NoColor: *noColor}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, globals)
	case "watch":
		runWatch(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "query":
		runQuery(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	case "completion":
		runCompletion(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
