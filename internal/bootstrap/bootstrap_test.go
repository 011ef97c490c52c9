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

//go:build cgo

package bootstrap

import (
	"path/filepath"
	"testing"
)

func TestInitProject_RequiresProjectID(t *testing.T) {
	_, err := InitProject(ProjectConfig{DataDir: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("expected error when project_id is missing")
	}
}

func TestInitProject_RequiresDataDir(t *testing.T) {
	_, err := InitProject(ProjectConfig{ProjectID: "demo"}, nil)
	if err == nil {
		t.Fatal("expected error when data_dir is missing")
	}
}

func TestInitProject_Success(t *testing.T) {
	info, err := InitProject(ProjectConfig{
		ProjectID: "demo",
		DataDir:   t.TempDir(),
		Engine:    "mem",
	}, nil)
	if err != nil {
		t.Fatalf("InitProject failed: %v", err)
	}
	if info.ProjectID != "demo" {
		t.Errorf("expected ProjectID demo, got %q", info.ProjectID)
	}
	if info.Engine != "mem" {
		t.Errorf("expected Engine mem, got %q", info.Engine)
	}
}

func TestInitProject_DefaultsEngineToRocksdb(t *testing.T) {
	info, err := InitProject(ProjectConfig{
		ProjectID: "demo",
		DataDir:   filepath.Join(t.TempDir(), "data"),
	}, nil)
	if err != nil {
		t.Fatalf("InitProject failed: %v", err)
	}
	if info.Engine != "rocksdb" {
		t.Errorf("expected default Engine rocksdb, got %q", info.Engine)
	}
}

func TestOpenProject_RequiresProjectID(t *testing.T) {
	_, err := OpenProject(ProjectConfig{DataDir: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("expected error when project_id is missing")
	}
}

func TestOpenProject_FailsWhenDataDirMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	_, err := OpenProject(ProjectConfig{ProjectID: "demo", DataDir: missing, Engine: "mem"}, nil)
	if err == nil {
		t.Fatal("expected error when DataDir does not exist")
	}
}

func TestInitProject_ThenOpenProject(t *testing.T) {
	dataDir := t.TempDir()
	if _, err := InitProject(ProjectConfig{
		ProjectID: "demo",
		DataDir:   dataDir,
		Engine:    "mem",
	}, nil); err != nil {
		t.Fatalf("InitProject failed: %v", err)
	}

	backend, err := OpenProject(ProjectConfig{
		ProjectID: "demo",
		DataDir:   dataDir,
		Engine:    "mem",
	}, nil)
	if err != nil {
		t.Fatalf("OpenProject failed: %v", err)
	}
	defer func() { _ = backend.Close() }()

	if err := backend.EnsureSchema(); err != nil {
		t.Errorf("expected schema already ensured, EnsureSchema re-call failed: %v", err)
	}
}
