// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"os"
	"strconv"
)

// DefaultSoftLimitBytes is the baseline soft limit for batch operations.
const DefaultSoftLimitBytes = 64 << 20 // 64 MiB

// SoftLimitBytes returns the effective soft limit for batch_script size.
// Controlled via env CODEGRAPH_SOFT_LIMIT_BYTES; falls back to DefaultSoftLimitBytes.
func SoftLimitBytes() int {
	if v := os.Getenv("CODEGRAPH_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateBatchScript checks a single Datalog batch script against the
// soft size limit before it's sent to the backend, as a backstop
// independent of whatever split the Batcher already performed.
func ValidateBatchScript(script string) *ValidationResult {
	if len(script) > SoftLimitBytes() {
		return &ValidationResult{
			OK:      false,
			Message: "batch_script exceeds soft limit",
		}
	}
	return &ValidationResult{OK: true}
}
