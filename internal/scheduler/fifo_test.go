// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accasim-go/accasim/model"
)

type fakeResources struct {
	avail map[string]model.ResourceSpec
}

func (f fakeResources) Availability() map[string]model.ResourceSpec {
	return f.avail
}

func TestFirstFit_PlacesOnFirstFittingNodesInSortedOrder(t *testing.T) {
	a := &FirstFit{}
	job := &model.JobSpec{RequestedNodes: 2, RequestedResources: model.ResourceSpec{"core": 2}}
	avail := map[string]model.ResourceSpec{
		"node3": {"core": 4},
		"node1": {"core": 1},
		"node2": {"core": 4},
	}

	nodes, ok := a.Place(job, avail)
	require.True(t, ok)
	assert.Equal(t, []string{"node2", "node3"}, nodes, "node1 lacks capacity, so the first two fitting in sorted order are node2 and node3")
}

func TestFirstFit_FailsWhenNotEnoughNodesFit(t *testing.T) {
	a := &FirstFit{}
	job := &model.JobSpec{RequestedNodes: 2, RequestedResources: model.ResourceSpec{"core": 4}}
	avail := map[string]model.ResourceSpec{
		"node1": {"core": 4},
	}

	_, ok := a.Place(job, avail)
	assert.False(t, ok)
}

func TestFirstInFirstOut_Schedule_DispatchesInOrderAndDecrementsAvailability(t *testing.T) {
	s := NewFirstInFirstOut(nil)
	jobTable := map[string]*model.JobSpec{
		"job-1": {ID: "job-1", RequestedNodes: 1, RequestedResources: model.ResourceSpec{"core": 4}},
		"job-2": {ID: "job-2", RequestedNodes: 1, RequestedResources: model.ResourceSpec{"core": 4}},
	}
	resources := fakeResources{avail: map[string]model.ResourceSpec{
		"node1": {"core": 4},
	}}

	decisions, err := s.Schedule(10, jobTable, []string{"job-1", "job-2"}, resources)
	require.NoError(t, err)
	require.Len(t, decisions, 2)

	assert.Equal(t, "job-1", decisions[0].JobID)
	assert.Equal(t, []string{"node1"}, decisions[0].Nodes)
	require.NotNil(t, decisions[0].StartTime)
	assert.Equal(t, int64(10), *decisions[0].StartTime)

	assert.Equal(t, "job-2", decisions[1].JobID)
	assert.True(t, decisions[1].Postponed(), "node1's capacity was exhausted by job-1 this tick")
}

func TestFirstInFirstOut_Schedule_SkipsUnknownJobIDs(t *testing.T) {
	s := NewFirstInFirstOut(nil)
	jobTable := map[string]*model.JobSpec{}
	resources := fakeResources{avail: map[string]model.ResourceSpec{"node1": {"core": 4}}}

	decisions, err := s.Schedule(0, jobTable, []string{"ghost"}, resources)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}
