// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"
	"time"

	"github.com/accasim-go/accasim/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	assert.Equal(t, "./results", c.OutputDir)
	assert.Equal(t, 30*time.Second, c.MonitorFlushInterval)
	assert.Equal(t, logging.FormatText, c.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ACCASIM_WORKLOAD", "trace.swf")
	t.Setenv("ACCASIM_SYSTEM_CONFIG", "system.json")
	t.Setenv("ACCASIM_OUTPUT_DIR", "/tmp/out")
	t.Setenv("ACCASIM_MONITOR_ADDR", ":9090")
	t.Setenv("ACCASIM_MONITOR_FLUSH_INTERVAL", "5s")
	t.Setenv("ACCASIM_LOG_FORMAT", "json")
	t.Setenv("ACCASIM_DEBUG", "true")

	c := NewDefault()
	assert.Equal(t, "trace.swf", c.WorkloadPath)
	assert.Equal(t, "system.json", c.SystemConfigPath)
	assert.Equal(t, "/tmp/out", c.OutputDir)
	assert.Equal(t, ":9090", c.MonitorAddr)
	assert.Equal(t, 5*time.Second, c.MonitorFlushInterval)
	assert.Equal(t, logging.FormatJSON, c.LogFormat)
	assert.True(t, c.Debug)
}

func TestValidate(t *testing.T) {
	c := &Config{}
	assert.ErrorIs(t, c.Validate(), ErrMissingWorkloadPath)

	c.WorkloadPath = "trace.swf"
	assert.ErrorIs(t, c.Validate(), ErrMissingSystemConfigPath)

	c.SystemConfigPath = "system.json"
	assert.ErrorIs(t, c.Validate(), ErrMissingOutputDir)

	c.OutputDir = "./results"
	assert.ErrorIs(t, c.Validate(), ErrInvalidFlushInterval)

	c.MonitorFlushInterval = time.Second
	assert.NoError(t, c.Validate())
}
