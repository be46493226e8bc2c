// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package config holds process-level configuration for a simulation run:
// where to read the workload trace and system description from, where to
// write results, and how to log. It is deliberately separate from the
// system configuration document parsed by internal/config, which describes
// the simulated cluster itself.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/accasim-go/accasim/pkg/logging"
)

// Config holds the settings needed to start a simulation run from the CLI.
type Config struct {
	// WorkloadPath is the path to the workload trace file.
	WorkloadPath string

	// SystemConfigPath is the path to the system configuration document.
	SystemConfigPath string

	// OutputDir is where job and run reports are written.
	OutputDir string

	// MonitorAddr is the bind address for the optional HTTP monitor
	// (e.g. ":8090"). Empty disables the monitor.
	MonitorAddr string

	// MonitorFlushInterval bounds how often the monitor's watcher
	// registry prunes stale connections.
	MonitorFlushInterval time.Duration

	// LogLevel is the minimum level logged during the run.
	LogLevel slog.Level

	// LogFormat selects text or json log output.
	LogFormat logging.Format

	// Debug enables verbose kernel tracing (event admission, dispatch
	// attempts, and rejections), mirroring the debug flag accepted by
	// the original event manager.
	Debug bool

	// LowWatermark overrides the system config document's low_watermark
	// (spec.md §4.5.5): when the kernel's loaded-batch count drops below
	// this, the driver pulls more records from the reader. Zero defers
	// to the system config document's value.
	LowWatermark int

	// DispatchTimeDiff is the caller-supplied dispatch processing cost
	// added to spec.md §4.5.3's start_time check (0 by default).
	DispatchTimeDiff int64
}

// NewDefault returns a Config with the simulator's default settings, then
// applies environment overrides on top via Load.
func NewDefault() *Config {
	c := &Config{
		OutputDir:            "./results",
		MonitorFlushInterval: 30 * time.Second,
		LogLevel:             slog.LevelInfo,
		LogFormat:            logging.FormatText,
	}
	c.Load()
	return c
}

// Load overlays environment variable overrides onto c.
func (c *Config) Load() {
	if v := os.Getenv("ACCASIM_WORKLOAD"); v != "" {
		c.WorkloadPath = v
	}
	if v := os.Getenv("ACCASIM_SYSTEM_CONFIG"); v != "" {
		c.SystemConfigPath = v
	}
	if v := os.Getenv("ACCASIM_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("ACCASIM_MONITOR_ADDR"); v != "" {
		c.MonitorAddr = v
	}
	if v := os.Getenv("ACCASIM_MONITOR_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.MonitorFlushInterval = d
		}
	}
	if v := os.Getenv("ACCASIM_LOG_FORMAT"); v == string(logging.FormatJSON) {
		c.LogFormat = logging.FormatJSON
	}
	if v := os.Getenv("ACCASIM_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
			if b {
				c.LogLevel = slog.LevelDebug
			}
		}
	}
	if v := os.Getenv("ACCASIM_LOW_WATERMARK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LowWatermark = n
		}
	}
}

// Validate checks that the fields required to run a simulation are set.
func (c *Config) Validate() error {
	if c.WorkloadPath == "" {
		return ErrMissingWorkloadPath
	}
	if c.SystemConfigPath == "" {
		return ErrMissingSystemConfigPath
	}
	if c.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if c.MonitorFlushInterval <= 0 {
		return ErrInvalidFlushInterval
	}
	return nil
}
