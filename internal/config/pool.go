// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/accasim-go/accasim/internal/resourcepool"
	"github.com/accasim-go/accasim/model"
)

// BuildPool instantiates a resourcepool.Pool from the decoded system
// config: one DefineGroup + AddNodes call per group, in declaration
// order, so node ids are assigned the same way across repeated runs of
// the same document (spec.md's determinism contract).
func (c *SystemConfig) BuildPool() (*resourcepool.Pool, error) {
	pool := resourcepool.NewPool()
	for _, g := range c.Groups {
		capacity := make(model.ResourceSpec, len(g.Capacity))
		for r, amount := range g.Capacity {
			capacity[r] = amount
		}
		if err := pool.DefineGroup(g.Name, capacity); err != nil {
			return nil, err
		}
		if err := pool.AddNodes(g.Name, c.NodePrefix, g.Count); err != nil {
			return nil, err
		}
	}
	return pool, nil
}
