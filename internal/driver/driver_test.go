// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accasim-go/accasim/pkg/config"
)

const testSystemConfig = `{
	"node_prefix": "node",
	"resources": ["core", "mem"],
	"groups": {
		"compute": {"count": 2, "core": 4, "mem": 8}
	},
	"scheduling_output_format": "{id} {start_time.int} {end_time.int} {slowdown.float2}",
	"pretty_print_format": "{id}: slowdown={slowdown.float2}",
	"pretty_print_header": "job: slowdown",
	"low_watermark": 5
}`

// line builds an 18-field SWF data line with every non-relevant field
// zeroed, matching internal/reader's own test fixtures.
func line(jobNumber, submitTime, duration, reqProcs, reqMem int) string {
	fields := []int{
		jobNumber, submitTime, 0, duration, reqProcs, 0, reqMem,
		reqProcs, 0, reqMem, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	parts := make([]string, len(fields))
	for i, v := range fields {
		parts[i] = itoa(v)
	}
	return strings.Join(parts, " ")
}

func itoa(v int) string {
	if v == 0 {
		return "0"
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte('0' + v%10)}, digits...)
		v /= 10
	}
	return string(digits)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDriver_Run_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.swf")
	cfgPath := filepath.Join(dir, "system.json")
	outDir := filepath.Join(dir, "out")

	trace := strings.Join([]string{
		line(1, 0, 5, 2, 4),
		line(2, 0, 5, 2, 4),
	}, "\n") + "\n"
	writeFile(t, tracePath, trace)
	writeFile(t, cfgPath, testSystemConfig)

	cfg := config.NewDefault()
	cfg.WorkloadPath = tracePath
	cfg.SystemConfigPath = cfgPath
	cfg.OutputDir = outDir
	require.NoError(t, cfg.Validate())

	d := New(cfg)
	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalJobs)

	schedData, err := os.ReadFile(filepath.Join(outDir, "scheduling.log"))
	require.NoError(t, err)
	schedLines := strings.Split(strings.TrimRight(string(schedData), "\n"), "\n")
	assert.Len(t, schedLines, 2)

	prettyData, err := os.ReadFile(filepath.Join(outDir, "pretty_print.log"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(prettyData), "job: slowdown\n"))

	statsData, err := os.ReadFile(filepath.Join(outDir, "stats.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(statsData), "Total jobs: 2")
}

// TestDriver_Run_ZeroDurationJobReachesOutput covers spec scenario 1: a
// zero-duration job finishes inside Dispatch's fast path without ever
// entering running, but must still produce a scheduling/pretty-print line.
func TestDriver_Run_ZeroDurationJobReachesOutput(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.swf")
	cfgPath := filepath.Join(dir, "system.json")
	outDir := filepath.Join(dir, "out")

	trace := line(1, 10, 0, 1, 1) + "\n"
	writeFile(t, tracePath, trace)
	writeFile(t, cfgPath, testSystemConfig)

	cfg := config.NewDefault()
	cfg.WorkloadPath = tracePath
	cfg.SystemConfigPath = cfgPath
	cfg.OutputDir = outDir
	require.NoError(t, cfg.Validate())

	d := New(cfg)
	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalJobs)

	schedData, err := os.ReadFile(filepath.Join(outDir, "scheduling.log"))
	require.NoError(t, err)
	schedLines := strings.Split(strings.TrimRight(string(schedData), "\n"), "\n")
	require.Len(t, schedLines, 1)
	assert.Contains(t, schedLines[0], "1 10 10")

	prettyData, err := os.ReadFile(filepath.Join(outDir, "pretty_print.log"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(prettyData), "job: slowdown\n"))
}

func TestDriver_Run_MalformedSystemConfigIsFatal(t *testing.T) {
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "trace.swf")
	cfgPath := filepath.Join(dir, "system.json")

	writeFile(t, tracePath, line(1, 0, 5, 2, 4)+"\n")
	writeFile(t, cfgPath, `{"node_prefix": "node"}`)

	cfg := config.NewDefault()
	cfg.WorkloadPath = tracePath
	cfg.SystemConfigPath = cfgPath
	cfg.OutputDir = filepath.Join(dir, "out")

	d := New(cfg)
	_, err := d.Run(context.Background())
	assert.Error(t, err)
}
