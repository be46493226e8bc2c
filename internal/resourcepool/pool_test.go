// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package resourcepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accasim-go/accasim/model"
	simerrors "github.com/accasim-go/accasim/pkg/errors"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p := NewPool()
	require.NoError(t, p.DefineGroup("compute", model.ResourceSpec{"core": 4, "mem": 16}))
	require.NoError(t, p.AddNodes("compute", "node", 2))
	return p
}

func TestPool_DefineGroup_DuplicateIsFatal(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.DefineGroup("compute", model.ResourceSpec{"core": 4}))
	err := p.DefineGroup("compute", model.ResourceSpec{"core": 8})
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrorCodeDuplicateGroup, simerrors.Code(err))
}

func TestPool_AddNodes_UnknownGroup(t *testing.T) {
	p := NewPool()
	err := p.AddNodes("missing", "node", 1)
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrorCodeMissingResourceType, simerrors.Code(err))
}

func TestPool_AddNodes_NamesAreSequentialAcrossGroups(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.DefineGroup("a", model.ResourceSpec{"core": 1}))
	require.NoError(t, p.DefineGroup("b", model.ResourceSpec{"core": 1}))
	require.NoError(t, p.AddNodes("a", "node", 2))
	require.NoError(t, p.AddNodes("b", "node", 1))
	assert.Equal(t, []string{"node1", "node2", "node3"}, p.Nodes())
}

func TestPool_Allocate_RejectsOverflow(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.Allocate("node1", model.ResourceSpec{"core": 4, "mem": 16}))

	err := p.Allocate("node1", model.ResourceSpec{"core": 1})
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrorCodeResourceOverflow, simerrors.Code(err))

	free := p.Availability()["node1"]
	assert.Equal(t, int64(0), free["core"])
}

func TestPool_Allocate_RejectsOffNode(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.SetStatus("node1", model.NodeOff))

	err := p.Allocate("node1", model.ResourceSpec{"core": 1})
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrorCodeNodeOff, simerrors.Code(err))
}

func TestPool_Release_SucceedsOnOffNode(t *testing.T) {
	p := newTestPool(t)
	require.NoError(t, p.Allocate("node1", model.ResourceSpec{"core": 2}))
	require.NoError(t, p.SetStatus("node1", model.NodeOff))

	err := p.Release("node1", model.ResourceSpec{"core": 2})
	assert.NoError(t, err)
}

func TestPool_Release_RejectsUnderflow(t *testing.T) {
	p := newTestPool(t)
	err := p.Release("node1", model.ResourceSpec{"core": 1})
	require.Error(t, err)
	assert.Equal(t, simerrors.ErrorCodeResourceUnderflow, simerrors.Code(err))
}

func TestPool_Capacity_SumsAcrossNodes(t *testing.T) {
	p := newTestPool(t)
	cap := p.Capacity()
	assert.Equal(t, int64(8), cap["core"])
	assert.Equal(t, int64(32), cap["mem"])
}

func TestPool_Allocate_PartialFailureMutatesNothing(t *testing.T) {
	p := newTestPool(t)
	err := p.Allocate("node1", model.ResourceSpec{"core": 2, "mem": 100})
	require.Error(t, err)

	free := p.Availability()["node1"]
	assert.Equal(t, int64(4), free["core"])
	assert.Equal(t, int64(16), free["mem"])
}
