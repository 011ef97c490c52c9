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

package cozodb

/*
#cgo LDFLAGS: -lcozo_c
#include <stdlib.h>
#include <stdint.h>
#include <stdbool.h>

int32_t cozo_open_db(const char *engine, const char *path, const char *options, int32_t *db_id);
bool cozo_close_db(int32_t db_id);
char *cozo_run_query(int32_t db_id, const char *script, const char *params, bool immutable);
void cozo_free_str(char *s);
bool cozo_backup(int32_t db_id, const char *out_path);
bool cozo_restore(int32_t db_id, const char *in_path);
*/
import "C"

import (
	"encoding/json"
	"fmt"
	"sync"
	"unsafe"
)

// NamedRows is the decoded result of a Datalog query: a header row
// naming each bound variable, and the matching value rows.
type NamedRows struct {
	Headers []string
	Rows    [][]any
}

type rawResult struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
	Ok      bool     `json:"ok"`
	Message string   `json:"message"`
	Display string   `json:"display"`
}

// CozoDB is a handle to one open CozoDB instance.
type CozoDB struct {
	mu sync.Mutex
	id C.int32_t
}

// New opens a CozoDB instance with the given storage engine
// ("mem", "sqlite", "rocksdb") at path. options may carry engine-specific
// tuning as a map, marshaled to the JSON options string the C API
// expects; nil uses engine defaults.
func New(engine, path string, options map[string]string) (CozoDB, error) {
	cEngine := C.CString(engine)
	defer C.free(unsafe.Pointer(cEngine))
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	optJSON := "{}"
	if len(options) > 0 {
		b, err := json.Marshal(options)
		if err != nil {
			return CozoDB{}, fmt.Errorf("marshal options: %w", err)
		}
		optJSON = string(b)
	}
	cOpts := C.CString(optJSON)
	defer C.free(unsafe.Pointer(cOpts))

	var id C.int32_t
	if rc := C.cozo_open_db(cEngine, cPath, cOpts, &id); rc != 0 {
		return CozoDB{}, fmt.Errorf("cozo_open_db failed with code %d", int(rc))
	}
	return CozoDB{id: id}, nil
}

// Run executes script, which may mutate the database, against params.
func (db *CozoDB) Run(script string, params map[string]any) (NamedRows, error) {
	return db.run(script, params, false)
}

// RunReadOnly executes script under the database's read-only
// enforcement: any mutation operator inside script is rejected before
// it runs.
func (db *CozoDB) RunReadOnly(script string, params map[string]any) (NamedRows, error) {
	return db.run(script, params, true)
}

func (db *CozoDB) run(script string, params map[string]any, immutable bool) (NamedRows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return NamedRows{}, fmt.Errorf("marshal params: %w", err)
	}

	cScript := C.CString(script)
	defer C.free(unsafe.Pointer(cScript))
	cParams := C.CString(string(paramsJSON))
	defer C.free(unsafe.Pointer(cParams))

	cResult := C.cozo_run_query(db.id, cScript, cParams, C.bool(immutable))
	if cResult == nil {
		return NamedRows{}, fmt.Errorf("cozo_run_query returned no result")
	}
	defer C.cozo_free_str(cResult)

	raw := rawResult{}
	if err := json.Unmarshal([]byte(C.GoString(cResult)), &raw); err != nil {
		return NamedRows{}, fmt.Errorf("decode query result: %w", err)
	}
	if !raw.Ok {
		msg := raw.Display
		if msg == "" {
			msg = raw.Message
		}
		return NamedRows{}, fmt.Errorf("datalog error: %s", msg)
	}
	return NamedRows{Headers: raw.Headers, Rows: raw.Rows}, nil
}

// Backup writes a full snapshot of the database to path.
func (db *CozoDB) Backup(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	if !C.cozo_backup(db.id, cPath) {
		return fmt.Errorf("cozo_backup failed")
	}
	return nil
}

// Restore replaces the database's contents with a snapshot from path.
func (db *CozoDB) Restore(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	if !C.cozo_restore(db.id, cPath) {
		return fmt.Errorf("cozo_restore failed")
	}
	return nil
}

// Close releases the database handle. Safe to call once; a second call
// is a no-op.
func (db *CozoDB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	C.cozo_close_db(db.id)
}
