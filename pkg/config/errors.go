// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrMissingWorkloadPath is returned when no workload trace path was set.
	ErrMissingWorkloadPath = errors.New("workload trace path is required")

	// ErrMissingSystemConfigPath is returned when no system configuration path was set.
	ErrMissingSystemConfigPath = errors.New("system configuration path is required")

	// ErrMissingOutputDir is returned when the output directory is empty.
	ErrMissingOutputDir = errors.New("output directory is required")

	// ErrInvalidFlushInterval is returned when the monitor flush interval is non-positive.
	ErrInvalidFlushInterval = errors.New("monitor flush interval must be greater than 0")
)
