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
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/config"
	"github.com/vitali87/codegraph/internal/errors"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force     bool
	projectID string
}

// runInit executes the 'init' CLI command, creating a
// .codegraph/project.yaml configuration file with the documented
// defaults.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - --project-id: Project identifier (default: directory name)
func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot get current directory", err.Error(), "", err), false)
	}

	path := config.Path(cwd)
	if _, statErr := os.Stat(path); statErr == nil && !flags.force {
		errors.FatalError(errors.NewConfigError(
			"Project configuration already exists",
			path+" already exists",
			"Use --force to overwrite",
			nil,
		), false)
	}

	projectID := flags.projectID
	if projectID == "" {
		projectID = filepath.Base(cwd)
	}

	cfg := config.DefaultConfig(projectID, cwd)
	if err := config.Save(cfg, path); err != nil {
		errors.FatalError(err, false)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .codegraph/project.yaml if needed")
	fmt.Println("  2. Run 'codegraph index' to build the graph")
	fmt.Println("  3. Run 'codegraph status' to verify indexing")
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier (default: directory name)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph init [options]

Creates .codegraph/project.yaml configuration.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}
