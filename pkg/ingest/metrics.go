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

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus instruments for the ingest subsystem: the
// C8 orchestrator's scans and the C11 debouncer's coalescing behavior.
type metrics struct {
	once sync.Once

	filesWalked  prometheus.Counter
	filesSkipped prometheus.Counter

	fullScansTotal prometheus.Counter
	updatesTotal   prometheus.Counter
	updateErrors   prometheus.Counter

	debounceEventsTotal prometheus.Counter
	debounceFiresTotal  prometheus.Counter
	debounceMaxWaitHits prometheus.Counter

	fullScanDuration prometheus.Histogram
	updateDuration   prometheus.Histogram
}

var ingMetrics metrics

func (m *metrics) init() {
	m.once.Do(func() {
		m.filesWalked = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_files_walked_total",
			Help: "Source files accepted by the repository walker.",
		})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_files_skipped_total",
			Help: "Files skipped by the walker (excluded, too large, or disabled language).",
		})

		m.fullScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_full_scans_total",
			Help: "Full repository scans completed.",
		})
		m.updatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_file_updates_total",
			Help: "Single-file incremental updates completed.",
		})
		m.updateErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_file_update_errors_total",
			Help: "Single-file incremental updates that returned an error.",
		})

		m.debounceEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_debounce_events_total",
			Help: "Raw filesystem change events handed to the debouncer.",
		})
		m.debounceFiresTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_debounce_fires_total",
			Help: "Coalesced fires the debouncer delivered to the orchestrator.",
		})
		m.debounceMaxWaitHits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_ingest_debounce_max_wait_total",
			Help: "Fires forced by MaxWait instead of a quiet period.",
		})

		buckets := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.fullScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codegraph_ingest_full_scan_seconds",
			Help:    "Wall-clock duration of a full repository scan.",
			Buckets: buckets,
		})
		m.updateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codegraph_ingest_file_update_seconds",
			Help:    "Wall-clock duration of a single-file incremental update.",
			Buckets: buckets,
		})

		prometheus.MustRegister(
			m.filesWalked, m.filesSkipped,
			m.fullScansTotal, m.updatesTotal, m.updateErrors,
			m.debounceEventsTotal, m.debounceFiresTotal, m.debounceMaxWaitHits,
			m.fullScanDuration, m.updateDuration,
		)
	})
}

func recordFilesWalked(n int) { ingMetrics.init(); ingMetrics.filesWalked.Add(float64(n)) }
func recordFileSkipped()      { ingMetrics.init(); ingMetrics.filesSkipped.Inc() }

func recordFullScan(seconds float64) {
	ingMetrics.init()
	ingMetrics.fullScansTotal.Inc()
	ingMetrics.fullScanDuration.Observe(seconds)
}

func recordUpdate(seconds float64, err error) {
	ingMetrics.init()
	ingMetrics.updatesTotal.Inc()
	ingMetrics.updateDuration.Observe(seconds)
	if err != nil {
		ingMetrics.updateErrors.Inc()
	}
}

func recordDebounceEvent()      { ingMetrics.init(); ingMetrics.debounceEventsTotal.Inc() }
func recordDebounceFire()       { ingMetrics.init(); ingMetrics.debounceFiresTotal.Inc() }
func recordDebounceMaxWaitHit() { ingMetrics.init(); ingMetrics.debounceMaxWaitHits.Inc() }
