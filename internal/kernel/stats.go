// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package kernel

import "fmt"

// Stats is a snapshot of the run's aggregate statistics: spec.md §6's
// "Statistics file" content (total jobs, makespan, averages).
type Stats struct {
	TotalJobs          int
	Makespan           int64
	AverageWaitingTime float64
	AverageSlowdown    float64
}

// Stats computes the current aggregate statistics. Safe to call mid-run;
// the monitor's /stats endpoint does exactly that.
func (k *Kernel) Stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()

	var makespan int64
	if k.firstTimeDispatch != nil && k.lastRunTime != nil {
		makespan = *k.lastRunTime - *k.firstTimeDispatch
	}

	var wsum int64
	for _, w := range k.wtimes {
		wsum += w
	}
	var ssum float64
	for _, s := range k.slowdowns {
		ssum += s
	}

	n := len(k.finished)
	stats := Stats{TotalJobs: n, Makespan: makespan}
	if n > 0 {
		stats.AverageWaitingTime = float64(wsum) / float64(n)
		stats.AverageSlowdown = ssum / float64(n)
	}
	return stats
}

// Usage reports the resource pool's human-readable utilization summary.
func (k *Kernel) Usage() string {
	return k.manager.Pool().Usage()
}

// String renders the kernel's current lifecycle-set sizes, matching the
// source event manager's __str__ used for debug status lines.
func (k *Kernel) String() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return fmt.Sprintf("Loaded: %d, Queued: %d, Running: %d, Finished: %d, Next time points: %d",
		len(k.loaded), len(k.queued), len(k.running), len(k.finished), k.timePoints.Len())
}
