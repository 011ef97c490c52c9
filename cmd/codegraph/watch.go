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
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"

	"github.com/vitali87/codegraph/internal/errors"
	"github.com/vitali87/codegraph/internal/ui"
	"github.com/vitali87/codegraph/pkg/ingest"
	"github.com/vitali87/codegraph/pkg/langregistry"
	"github.com/vitali87/codegraph/pkg/store"
)

// runWatch executes the 'watch' CLI command: a full scan (if the
// project has no data yet), followed by a long-running fsnotify watch
// over the repository that feeds every change through the C11
// debouncer into the orchestrator's single-file incremental update
// (spec §4.8 UpdateFile, §4.11).
//
// The orchestrator is single-threaded (spec §5): every debounced fire
// takes one process-wide lock before calling UpdateFile, so UpdateFile
// calls never overlap.
func runWatch(args []string, globals GlobalFlags) {
	fs2 := flag.NewFlagSet("watch", flag.ExitOnError)
	debug := fs2.Bool("debug", false, "Enable debug logging")
	fs2.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph watch [options]

Watches the repository for file changes and incrementally updates the
code graph as files are saved.

Options:
`)
		fs2.PrintDefaults()
	}
	if err := fs2.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newCLILogger(*debug)
	registry := langregistry.NewDefaultRegistry()

	cfg, err := loadProjectConfig(globals, registry)
	if err != nil {
		errors.FatalError(err, false)
	}

	// Checked before the backend is opened: opening it creates the data
	// directory, after which projectDataExists always reports true.
	needsScan := !projectDataExists(cfg)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if needsScan {
		ui.Info("No existing index found, running a full scan first...")
		if err := orch.FullScan(ctx); err != nil {
			errors.FatalError(errors.NewIngestError("Initial full scan failed", err.Error(), "", err), false)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errors.FatalError(errors.NewWatcherError(
			"Cannot start filesystem watcher",
			err.Error(),
			"Check the OS inotify/kqueue limits for this user",
			err,
		), false)
	}
	defer func() { _ = watcher.Close() }()

	if err := addWatchDirs(watcher, cfg.RepoRoot); err != nil {
		errors.FatalError(errors.NewWatcherError(
			"Cannot watch repository directories",
			err.Error(),
			"",
			err,
		), false)
	}

	var updateMu sync.Mutex
	debouncer := ingest.NewDebouncer(cfg.Debounce.QuietPeriod, cfg.Debounce.MaxWait, func(relPath string) {
		updateMu.Lock()
		defer updateMu.Unlock()
		logger.Info("watch.update.start", "path", relPath)
		if err := orch.UpdateFile(ctx, relPath); err != nil {
			logger.Warn("watch.update.error", "path", relPath, "err", err)
			return
		}
		logger.Info("watch.update.done", "path", relPath)
	})
	defer debouncer.Stop()

	ui.Success(fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)...", cfg.RepoRoot))

	for {
		select {
		case <-ctx.Done():
			ui.Info("Stopping watch")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			handleWatchEvent(watcher, cfg.RepoRoot, walker, debouncer, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch.fsnotify.error", "err", err)
		}
	}
}

// handleWatchEvent filters a raw fsnotify event down to tracked source
// files and feeds the debouncer; newly created directories are added to
// the watch set so files written into them are seen too.
func handleWatchEvent(watcher *fsnotify.Watcher, root string, walker *ingest.Walker, debouncer *ingest.Debouncer, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = addWatchDirs(watcher, event.Name)
			return
		}
	}

	relPath, err := filepath.Rel(root, event.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)
	if !walker.TracksPath(relPath) {
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		debouncer.Event(relPath)
	}
}

// addWatchDirs registers root and every non-ignored subdirectory with
// watcher. fsnotify watches are not recursive, so each directory needs
// its own Add call.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort: a vanished directory mid-walk isn't fatal
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root {
			for _, ignored := range ingest.DefaultIgnoreDirs {
				if name == ignored {
					return filepath.SkipDir
				}
			}
		}
		return watcher.Add(path)
	})
}
