// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package resourcepool holds the per-node available/used counters for the
// simulated cluster and the allocate/release primitives the resource
// manager builds job-level accounting on top of.
package resourcepool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	simerrors "github.com/accasim-go/accasim/pkg/errors"
	"github.com/accasim-go/accasim/model"
)

// Pool owns every node in the simulated cluster, grouped by the group
// template it was instantiated from. A node's Used/Capacity counters are
// mutated only through Allocate/Release, both of which take the pool's
// lock for the whole operation so a reader calling Availability mid-update
// never observes a torn state.
type Pool struct {
	mu          sync.RWMutex
	groups      map[string]model.Group
	groupOrder  []string
	nodes       map[string]*model.Node
	nodeOrder   []string
	resourceTypes []string
}

// NewPool builds an empty pool. Groups and nodes are added via DefineGroup
// and AddNodes before the first Allocate.
func NewPool() *Pool {
	return &Pool{
		groups: make(map[string]model.Group),
		nodes:  make(map[string]*model.Node),
	}
}

// DefineGroup registers a named resource template. Returns a
// CategoryConfiguration error if the name is already taken.
func (p *Pool) DefineGroup(name string, capacity model.ResourceSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.groups[name]; exists {
		return simerrors.NewConfigError(simerrors.ErrorCodeDuplicateGroup, fmt.Sprintf("duplicate group name %q", name))
	}
	p.groups[name] = model.Group{Name: name, Capacity: capacity.Clone()}
	p.groupOrder = append(p.groupOrder, name)

	for r := range capacity {
		if !containsString(p.resourceTypes, r) {
			p.resourceTypes = append(p.resourceTypes, r)
		}
	}
	return nil
}

// AddNodes instantiates count identical nodes from group, named
// "<prefix><n>" with a 1-based, pool-wide running index.
func (p *Pool) AddNodes(group, prefix string, count int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.groups[group]
	if !ok {
		return simerrors.NewConfigError(simerrors.ErrorCodeMissingResourceType, fmt.Sprintf("unknown group %q", group))
	}

	next := len(p.nodes) + 1
	for i := 0; i < count; i++ {
		id := model.NodeName(prefix, next+i)
		p.nodes[id] = model.NewNode(id, group, g.Capacity)
		p.nodeOrder = append(p.nodeOrder, id)
	}
	return nil
}

// ResourceTypes returns the union of resource names declared across every
// group, in declaration order.
func (p *Pool) ResourceTypes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.resourceTypes))
	copy(out, p.resourceTypes)
	return out
}

// Groups returns each defined group's capacity, keyed by group name.
func (p *Pool) Groups() map[string]model.Group {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]model.Group, len(p.groups))
	for k, v := range p.groups {
		out[k] = v
	}
	return out
}

// Nodes returns the ids of every node in the pool, in instantiation order.
func (p *Pool) Nodes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.nodeOrder))
	copy(out, p.nodeOrder)
	return out
}

// SetStatus sets a node's power state. An OFF node rejects Allocate but
// still accepts Release so in-flight accounting can drain (spec's open
// question on OFF-node handling).
func (p *Pool) SetStatus(nodeID string, status model.NodeStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[nodeID]
	if !ok {
		return simerrors.NewAccountingError(simerrors.ErrorCodeMissingResourceType, "", nodeID, "", fmt.Sprintf("unknown node %q", nodeID))
	}
	n.Status = status
	return nil
}

// Allocate claims amount of each resource in claim on node. On failure
// (node OFF, or any resource would overflow capacity) nothing is mutated.
func (p *Pool) Allocate(nodeID string, claim model.ResourceSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.nodes[nodeID]
	if !ok {
		return simerrors.NewAccountingError(simerrors.ErrorCodeResourceOverflow, "", nodeID, "", fmt.Sprintf("unknown node %q", nodeID))
	}
	if n.Status != model.NodeOn {
		return simerrors.NewAccountingError(simerrors.ErrorCodeNodeOff, "", nodeID, "", fmt.Sprintf("node %q is OFF", nodeID))
	}
	for r, amount := range claim {
		if n.Used[r]+amount > n.Capacity[r] {
			return simerrors.NewAccountingError(simerrors.ErrorCodeResourceOverflow, "", nodeID, r,
				fmt.Sprintf("requested %d %s on %s, only %d free", amount, r, nodeID, n.Capacity[r]-n.Used[r]))
		}
	}
	for r, amount := range claim {
		n.Used[r] += amount
	}
	return nil
}

// Release gives back amount of each resource in claim on node. A release
// that would take any counter below zero is a fatal accounting bug.
func (p *Pool) Release(nodeID string, claim model.ResourceSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, ok := p.nodes[nodeID]
	if !ok {
		return simerrors.NewAccountingError(simerrors.ErrorCodeResourceUnderflow, "", nodeID, "", fmt.Sprintf("unknown node %q", nodeID))
	}
	for r, amount := range claim {
		if n.Used[r]-amount < 0 {
			return simerrors.NewAccountingError(simerrors.ErrorCodeResourceUnderflow, "", nodeID, r,
				fmt.Sprintf("releasing %d %s on %s, only %d used", amount, r, nodeID, n.Used[r]))
		}
	}
	for r, amount := range claim {
		n.Used[r] -= amount
	}
	return nil
}

// Availability returns, for every ON node, the currently free amount of
// each resource.
func (p *Pool) Availability() map[string]model.ResourceSpec {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]model.ResourceSpec, len(p.nodes))
	for id, n := range p.nodes {
		if n.Status != model.NodeOn {
			continue
		}
		out[id] = n.Free()
	}
	return out
}

// Capacity returns the cluster-wide total of each resource.
func (p *Pool) Capacity() model.ResourceSpec {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(model.ResourceSpec, len(p.resourceTypes))
	for _, n := range p.nodes {
		for _, r := range p.resourceTypes {
			out[r] += n.Capacity[r]
		}
	}
	return out
}

// Usage renders a human-readable per-resource utilization summary, used
// by the monitor's /stats endpoint.
func (p *Pool) Usage() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	totals := make(model.ResourceSpec, len(p.resourceTypes))
	used := make(model.ResourceSpec, len(p.resourceTypes))
	for _, n := range p.nodes {
		for _, r := range p.resourceTypes {
			totals[r] += n.Capacity[r]
			used[r] += n.Used[r]
		}
	}

	var b strings.Builder
	b.WriteString("System usage:\n")
	parts := make([]string, 0, len(p.resourceTypes))
	for _, r := range p.resourceTypes {
		if totals[r] <= 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %.2f%%", r, float64(used[r])/float64(totals[r])*100))
	}
	b.WriteString(strings.Join(parts, ", "))
	return b.String()
}

func (p *Pool) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.nodes))
	for id := range p.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Resources:\n")
	for _, id := range ids {
		n := p.nodes[id]
		b.WriteString(fmt.Sprintf("- %s: ", id))
		for _, r := range p.resourceTypes {
			b.WriteString(fmt.Sprintf("%s: %d/%d, ", r, n.Used[r], n.Capacity[r]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
