// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package scheduler defines the kernel's scheduler/allocator contract and
// a FIFO-plus-first-fit reference implementation.
package scheduler

import "github.com/accasim-go/accasim/model"

// ResourceView is the read-only window into cluster state a Scheduler is
// allowed: current per-node free capacity. It cannot allocate or release;
// only the kernel drives those through the resource manager.
type ResourceView interface {
	Availability() map[string]model.ResourceSpec
}

// Scheduler is the kernel's pluggable dispatch policy. It must be a pure
// function of its inputs: given the current time, a read-only job table,
// and the ids eligible for consideration this tick, it returns a sequence
// of dispatch decisions. It must not retain or mutate jobTable entries —
// JobSpec values are shared directly with every call, not cloned, so a
// policy holding onto a reference across ticks would observe no change
// (JobSpec is immutable) but must never write through it.
type Scheduler interface {
	Schedule(currentTime int64, jobTable map[string]*model.JobSpec, eligible []string, resources ResourceView) ([]model.Decision, error)
}
