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
	"sync"
	"time"
)

// DefaultQuietPeriod and DefaultMaxWait are the debouncer's defaults when a
// caller doesn't override them, matching the watcher's own defaults.
const (
	DefaultQuietPeriod = 500 * time.Millisecond
	DefaultMaxWait     = 5 * time.Second
)

// Debouncer coalesces rapid change events for the same path into a single
// fire, per spec §4.11 (C11). Each path has independent state: a quiet-period
// timer `d` that reschedules on every new event, and a hard deadline `D`
// that, once exceeded, fires immediately instead of rescheduling.
//
// Setting QuietPeriod to 0 disables debouncing: every event fires
// immediately on the calling goroutine.
type Debouncer struct {
	QuietPeriod time.Duration
	MaxWait     time.Duration
	Fire        func(path string)

	mu        sync.Mutex
	timers    map[string]*time.Timer
	firstSeen map[string]time.Time
}

// NewDebouncer returns a Debouncer that calls fire on each coalesced path.
func NewDebouncer(quietPeriod, maxWait time.Duration, fire func(path string)) *Debouncer {
	return &Debouncer{
		QuietPeriod: quietPeriod,
		MaxWait:     maxWait,
		Fire:        fire,
		timers:      make(map[string]*time.Timer),
		firstSeen:   make(map[string]time.Time),
	}
}

// Event records a change for path. If debouncing is disabled it fires
// immediately on the calling goroutine; otherwise it (re)schedules path's
// quiet-period timer, or fires immediately if the path has been pending
// since at least MaxWait ago.
func (d *Debouncer) Event(path string) {
	recordDebounceEvent()

	if d.QuietPeriod == 0 {
		recordDebounceFire()
		d.Fire(path)
		return
	}

	d.mu.Lock()

	first, pending := d.firstSeen[path]
	if pending && d.MaxWait > 0 && time.Since(first) >= d.MaxWait {
		if t, ok := d.timers[path]; ok {
			t.Stop()
		}
		delete(d.timers, path)
		delete(d.firstSeen, path)
		d.mu.Unlock()
		recordDebounceMaxWaitHit()
		recordDebounceFire()
		d.Fire(path)
		return
	}

	if !pending {
		d.firstSeen[path] = time.Now()
	}
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.timers[path] = time.AfterFunc(d.QuietPeriod, func() { d.onTimer(path) })

	d.mu.Unlock()
}

// onTimer fires path after its quiet period elapses with no further events,
// then clears its state.
func (d *Debouncer) onTimer(path string) {
	d.mu.Lock()
	delete(d.timers, path)
	delete(d.firstSeen, path)
	d.mu.Unlock()

	recordDebounceFire()
	d.Fire(path)
}

// Pending reports how many paths currently have in-flight debounce state.
// Tests use this to assert coalescing without racing the timer.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.firstSeen)
}

// Stop cancels every in-flight timer without firing. Pending paths are
// dropped; callers shutting down should already have stopped the watcher
// feeding this Debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = make(map[string]*time.Timer)
	d.firstSeen = make(map[string]time.Time)
}
