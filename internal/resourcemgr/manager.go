// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package resourcemgr aggregates a job's per-node allocations on top of
// the resource pool, and rolls back partial allocations when a multi-node
// claim fails partway through — the kernel never has to reason about node
// ordering itself.
package resourcemgr

import (
	"fmt"
	"sync"

	"github.com/accasim-go/accasim/internal/resourcepool"
	"github.com/accasim-go/accasim/model"
)

// claim records exactly what was allocated for one job, per node, so it
// can be released without recomputation.
type claim map[string]model.ResourceSpec

// Manager owns a resource pool and the table of currently active claims.
type Manager struct {
	mu     sync.Mutex
	pool   *resourcepool.Pool
	active map[string]claim
}

// New builds a Manager over pool.
func New(pool *resourcepool.Pool) *Manager {
	return &Manager{
		pool:   pool,
		active: make(map[string]claim),
	}
}

// Pool exposes the underlying resource pool, e.g. for the monitor's
// read-only availability/usage endpoints.
func (m *Manager) Pool() *resourcepool.Pool {
	return m.pool
}

// AllocateEvent groups nodes by id, multiplies the job's per-node resource
// request by each node's multiplicity, and allocates every distinct node.
// If any node's allocation fails, every allocation already made in this
// call is rolled back and the call reports failure — the source
// simulator's resource_manager.allocate_event does not roll back; this is
// an intentional hardening documented in DESIGN.md.
func (m *Manager) AllocateEvent(jobID string, perNodeRequest model.ResourceSpec, nodes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int64, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, seen := counts[n]; !seen {
			order = append(order, n)
		}
		counts[n]++
	}

	c := make(claim, len(order))
	var allocated []string
	for _, nodeID := range order {
		amount := perNodeRequest.Scale(counts[nodeID])
		if err := m.pool.Allocate(nodeID, amount); err != nil {
			for _, done := range allocated {
				_ = m.pool.Release(done, c[done])
			}
			return fmt.Errorf("allocating job %s on node %s: %w", jobID, nodeID, err)
		}
		c[nodeID] = amount
		allocated = append(allocated, nodeID)
	}

	m.active[jobID] = c
	return nil
}

// RemoveEvent releases every node claimed for jobID and forgets the claim.
// It is a no-op if jobID has no active claim (e.g. a zero-duration job
// that never entered running).
func (m *Manager) RemoveEvent(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.active[jobID]
	if !ok {
		return nil
	}
	delete(m.active, jobID)

	for nodeID, amount := range c {
		if err := m.pool.Release(nodeID, amount); err != nil {
			return fmt.Errorf("releasing job %s on node %s: %w", jobID, nodeID, err)
		}
	}
	return nil
}

// GroupsAvailableResource returns each group's per-resource capacity, so
// the Job Factory can derive requested_nodes from raw per-job totals.
func (m *Manager) GroupsAvailableResource() map[string]model.ResourceSpec {
	out := make(map[string]model.ResourceSpec)
	for name, g := range m.pool.Groups() {
		out[name] = g.Capacity
	}
	return out
}

// ResourceTypes returns the union of resource names across all groups.
func (m *Manager) ResourceTypes() []string {
	return m.pool.ResourceTypes()
}

// Availability returns the free capacity of each ON node.
func (m *Manager) Availability() map[string]model.ResourceSpec {
	return m.pool.Availability()
}

// ActiveJobCount reports how many jobs currently hold a resource claim.
func (m *Manager) ActiveJobCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}
