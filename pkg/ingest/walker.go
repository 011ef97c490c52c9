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

package ingest

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/vitali87/codegraph/pkg/langregistry"
)

// DefaultIgnoreDirs are directory components excluded from every walk
// regardless of project-level ignore globs: VCS metadata, per-language
// build/dependency caches, and virtual environments. The same set
// governs the watcher's event filter (spec §4.10).
var DefaultIgnoreDirs = []string{
	".git",
	".hg",
	".svn",
	"node_modules",
	"vendor",
	"target",
	"dist",
	"build",
	"__pycache__",
	".venv",
	"venv",
	".mypy_cache",
	".pytest_cache",
	".tox",
	".codegraph",
}

// WalkedFile is one file yielded by Walk: its repo-relative path and the
// language descriptor its extension maps to.
type WalkedFile struct {
	Path     string // relative to the repo root, slash-separated
	FullPath string
	Language *langregistry.Language
}

// Walker enumerates a project's source files for the full-scan orchestrator
// (C10). It honors DefaultIgnoreDirs plus caller-supplied exclude globs, and
// skips files above MaxFileSize and files whose extension no registered
// language claims.
type Walker struct {
	Registry     *langregistry.Registry
	ExcludeGlobs []string
	MaxFileSize  int64 // bytes; 0 means unbounded
	Logger       *slog.Logger

	// DisabledLanguages holds language names (per langregistry.Language.Name)
	// a project's configuration turned off; files claimed by one of them
	// are skipped as if no language matched at all.
	DisabledLanguages map[string]bool
}

// NewWalker returns a Walker over registry with no extra excludes and no
// size limit.
func NewWalker(registry *langregistry.Registry) *Walker {
	return &Walker{Registry: registry, Logger: slog.Default()}
}

// Walk traverses root and returns every (path, language) pair it finds,
// in directory order. Directories matching an ignored component are
// skipped entirely rather than descended into.
func (w *Walker) Walk(root string) ([]WalkedFile, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var files []WalkedFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("repo.walk.error", "path", path, "err", err)
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.shouldSkip(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.shouldSkip(relPath) {
			recordFileSkipped()
			return nil
		}

		lang := w.Registry.ForPath(relPath)
		if lang == nil {
			return nil
		}
		if w.DisabledLanguages[lang.Name] {
			recordFileSkipped()
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		if w.MaxFileSize > 0 && info.Size() > w.MaxFileSize {
			logger.Warn("repo.walk.skip_large_file",
				"path", relPath, "size", info.Size(), "limit", w.MaxFileSize)
			recordFileSkipped()
			return nil
		}

		files = append(files, WalkedFile{Path: relPath, FullPath: path, Language: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	recordFilesWalked(len(files))
	return files, nil
}

// TracksPath reports whether relPath would be yielded by Walk: not
// excluded by an ignore rule, and claimed by an enabled language. The
// incremental watcher (C11's event source) uses this to decide whether
// a raw filesystem event is worth debouncing at all.
func (w *Walker) TracksPath(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if w.shouldSkip(relPath) {
		return false
	}
	lang := w.Registry.ForPath(relPath)
	if lang == nil {
		return false
	}
	return !w.DisabledLanguages[lang.Name]
}

// shouldSkip reports whether relPath (slash-separated, relative to the
// walk root) is excluded by a default ignore directory or a caller glob.
func (w *Walker) shouldSkip(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		for _, ignored := range DefaultIgnoreDirs {
			if part == ignored {
				return true
			}
		}
	}
	for _, pattern := range w.ExcludeGlobs {
		if matchesGlob(relPath, pattern) {
			return true
		}
	}
	return false
}
