// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const objectFormDoc = `{
	"node_prefix": "node",
	"resources": ["core", "mem", "gpu"],
	"groups": {
		"compute": {"count": 4, "core": 16, "mem": 64, "gpu": 0}
	},
	"scheduling_output_format": "{id} {start_time} {end_time}",
	"pretty_print_format": "{id}: {slowdown}",
	"low_watermark": 10
}`

const tupleFormDoc = `{
	"node_prefix": "n",
	"resources": {"__tuple__": true, "items": ["core", "mem"]},
	"groups": {"__tuple__": true, "items": [
		["small", {"count": 2, "core": 4, "mem": 8}],
		["large", {"count": 1, "core": 32, "mem": 128}]
	]}
}`

func TestParse_ObjectForm(t *testing.T) {
	cfg, err := Parse([]byte(objectFormDoc))
	require.NoError(t, err)
	assert.Equal(t, "node", cfg.NodePrefix)
	assert.Equal(t, []string{"core", "mem", "gpu"}, cfg.Resources)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "compute", cfg.Groups[0].Name)
	assert.Equal(t, 4, cfg.Groups[0].Count)
	assert.Equal(t, int64(16), cfg.Groups[0].Capacity["core"])
	assert.Equal(t, 10, cfg.LowWatermark)
}

func TestParse_TupleForm_PreservesOrder(t *testing.T) {
	cfg, err := Parse([]byte(tupleFormDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "mem"}, cfg.Resources)
	require.Len(t, cfg.Groups, 2)
	assert.Equal(t, "small", cfg.Groups[0].Name)
	assert.Equal(t, "large", cfg.Groups[1].Name)
	assert.Equal(t, 5, cfg.LowWatermark, "defaults when document omits low_watermark")
}

func TestParse_DuplicateGroup_Fatal(t *testing.T) {
	doc := `{
		"resources": ["core", "mem"],
		"groups": {"__tuple__": true, "items": [
			["dup", {"count": 1, "core": 4, "mem": 8}],
			["dup", {"count": 1, "core": 4, "mem": 8}]
		]}
	}`
	_, err := Parse([]byte(doc))
	assert.Error(t, err)
}

func TestParse_MalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParse_MissingRequiredFields(t *testing.T) {
	_, err := Parse([]byte(`{"node_prefix": "node"}`))
	assert.Error(t, err)
}

func TestBuildPool(t *testing.T) {
	cfg, err := Parse([]byte(objectFormDoc))
	require.NoError(t, err)

	pool, err := cfg.BuildPool()
	require.NoError(t, err)
	assert.Len(t, pool.Nodes(), 4)
	assert.ElementsMatch(t, []string{"core", "mem", "gpu"}, pool.ResourceTypes())
}
