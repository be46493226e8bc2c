// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"sort"

	"github.com/accasim-go/accasim/model"
)

// FirstInFirstOut dispatches eligible jobs in the order they are
// presented (spec.md's admission order), each placed by a FirstFit
// allocator. A job that cannot fit on any single node this tick is
// re-queued with no wake-up hint — it will be reconsidered on its next
// eligible tick, same as the original simulator's FIFO+FirstFit pairing
// (basic_example.py: FirstInFirstOut(FirstFit())).
type FirstInFirstOut struct {
	Allocator Allocator
}

// NewFirstInFirstOut builds a FIFO scheduler backed by allocator. A nil
// allocator defaults to FirstFit.
func NewFirstInFirstOut(allocator Allocator) *FirstInFirstOut {
	if allocator == nil {
		allocator = &FirstFit{}
	}
	return &FirstInFirstOut{Allocator: allocator}
}

// Schedule implements Scheduler.
func (s *FirstInFirstOut) Schedule(currentTime int64, jobTable map[string]*model.JobSpec, eligible []string, resources ResourceView) ([]model.Decision, error) {
	decisions := make([]model.Decision, 0, len(eligible))
	availability := resources.Availability()

	for _, id := range eligible {
		job, ok := jobTable[id]
		if !ok {
			continue
		}
		nodes, ok := s.Allocator.Place(job, availability)
		if !ok {
			decisions = append(decisions, model.Decision{JobID: id})
			continue
		}
		for _, n := range nodes {
			availability[n] = availability[n].Clone()
			for r, amount := range job.RequestedResources {
				availability[n][r] -= amount
			}
		}
		start := currentTime
		decisions = append(decisions, model.Decision{StartTime: &start, JobID: id, Nodes: nodes})
	}
	return decisions, nil
}

// Allocator places a single job's request onto nodes, given current
// per-node free capacity. It returns ok=false when the job cannot be
// placed this tick.
type Allocator interface {
	Place(job *model.JobSpec, availability map[string]model.ResourceSpec) (nodes []string, ok bool)
}

// FirstFit places every requested node's worth of a job's per-node
// request on the first nodes (in map iteration order stabilized by id
// sort) with enough free capacity, one node per unit, until
// RequestedNodes nodes are claimed or the candidates are exhausted.
type FirstFit struct{}

// Place implements Allocator.
func (a *FirstFit) Place(job *model.JobSpec, availability map[string]model.ResourceSpec) ([]string, bool) {
	ids := sortedKeys(availability)
	var nodes []string
	for _, id := range ids {
		if len(nodes) >= job.RequestedNodes {
			break
		}
		if job.RequestedResources.Fits(availability[id]) {
			nodes = append(nodes, id)
		}
	}
	if len(nodes) < job.RequestedNodes {
		return nil, false
	}
	return nodes, true
}

func sortedKeys(m map[string]model.ResourceSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
