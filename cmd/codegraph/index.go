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
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/errors"
	"github.com/vitali87/codegraph/internal/ui"
	"github.com/vitali87/codegraph/pkg/ingest"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/store"
)

// runIndex executes the 'index' CLI command: a full two-pass scan of
// the repository rooted at the project's configured RepoRoot (spec
// §4.8, FullScan).
//
// Flags:
//   - --debug: enable debug-level structured logging
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph index [options]

Performs a full structural scan of the repository and (re)builds the
code graph from scratch.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newCLILogger(*debug)
	registry := langregistry.NewDefaultRegistry()

	cfg, err := loadProjectConfig(globals, registry)
	if err != nil {
		errors.FatalError(err, false)
	}

	backend, err := openProjectBackend(cfg)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError("Cannot open local graph database", err.Error(), "", err), false)
	}
	defer func() { _ = backend.Close() }()

	sink := store.NewDatalogIngestor(backend, 500, 2<<20)

	walker := ingest.NewWalker(registry)
	walker.Logger = logger
	walker.ExcludeGlobs = cfg.Exclude
	walker.DisabledLanguages = disabledLanguages(cfg, registry)

	orch := ingest.NewOrchestrator(cfg.ProjectID, cfg.RepoRoot, registry, walker, sink, logger)

	progressCfg := NewProgressConfig(globals)
	spinner := NewSpinner(progressCfg, "Indexing repository")

	start := time.Now()
	ui.Info(fmt.Sprintf("Indexing %s...", cfg.RepoRoot))

	ctx := context.Background()
	if err := orch.FullScan(ctx); err != nil {
		if spinner != nil {
			_ = spinner.Finish()
		}
		errors.FatalError(errors.NewIngestError(
			"Full scan failed",
			err.Error(),
			"Check the database is reachable and re-run 'codegraph index'",
			err,
		), false)
	}
	if spinner != nil {
		_ = spinner.Finish()
	}

	ui.Success(fmt.Sprintf("Indexed %s in %s", cfg.RepoRoot, time.Since(start).Round(time.Millisecond)))
}

// disabledLanguages converts a config's per-language enable/disable map
// into the set ingest.Walker expects, validated already by config.Load.
func disabledLanguages(cfg interface{ LanguageEnabled(string) bool }, registry *langregistry.Registry) map[string]bool {
	disabled := make(map[string]bool)
	for _, lang := range registry.Languages() {
		if !cfg.LanguageEnabled(lang.Name) {
			disabled[lang.Name] = true
		}
	}
	return disabled
}

// newCLILogger builds the slog.Logger every subcommand shares, text
// handler at Info or Debug level depending on the --debug flag.
func newCLILogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
