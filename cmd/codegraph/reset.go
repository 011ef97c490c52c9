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

	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/errors"
	"github.com/vitali87/codegraph/pkg/langregistry"
)

// runReset executes the 'reset' CLI command, deleting the project's
// local graph data so the next 'index' starts clean.
//
// Flags:
//   - --yes: confirm the reset (required)
func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph reset [options]

Deletes the project's local graph data, clearing all indexed data.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		errors.FatalError(errors.NewInputError(
			"Reset requires confirmation",
			"--yes was not passed",
			"Re-run with 'codegraph reset --yes' to delete all indexed data",
		), false)
	}

	cfg, err := loadProjectConfig(globals, langregistry.NewDefaultRegistry())
	if err != nil {
		errors.FatalError(err, false)
	}

	if !projectDataExists(cfg) {
		fmt.Printf("No local data found for project %s\n", cfg.ProjectID)
		return
	}

	fmt.Printf("Resetting project %s (deleting %s)...\n", cfg.ProjectID, cfg.Store.DataDir)
	if err := os.RemoveAll(cfg.Store.DataDir); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot delete project data",
			err.Error(),
			"Check write permissions on "+cfg.Store.DataDir,
			err,
		), false)
	}

	fmt.Println("Reset complete. All local indexed data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  codegraph index    Reindex the project")
}
