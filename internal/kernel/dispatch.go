// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"fmt"
	"math"

	"github.com/accasim-go/accasim/model"
	simerrors "github.com/accasim-go/accasim/pkg/errors"
	"github.com/accasim-go/accasim/pkg/logging"
)

// DispatchResult tallies what a Dispatch call did, for caller diagnostics:
// spec.md §4.5.3's (dispatched, dispatched_and_finished, postponed) tuple.
type DispatchResult struct {
	Dispatched            int
	DispatchedAndFinished int
	Postponed             int

	// FinishedIDs holds the ids of jobs finished directly within this
	// Dispatch call (the zero-duration fast path of §4.5.3), in finish
	// order. ReleaseEnded is the only other place a job finishes; callers
	// must drain both to see every completion.
	FinishedIDs []string
}

// Dispatch applies the scheduler's decisions: spec.md §4.5.3. timeDiff is
// the caller-supplied dispatch processing cost (0 by default); a
// non-empty node list whose start_time does not equal current_time +
// timeDiff is a fatal accounting error.
func (k *Kernel) Dispatch(decisions []model.Decision, timeDiff int64) (DispatchResult, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	var result DispatchResult
	for _, d := range decisions {
		if d.Postponed() {
			if d.StartTime != nil && *d.StartTime != k.currentTime {
				k.timePoints.Add(*d.StartTime)
			}
			k.queued = append(k.queued, d.JobID)
			result.Postponed++
			if k.debug {
				logging.LogPostponement(k.logger, d.JobID, "scheduler declined to dispatch")
			}
			continue
		}

		expectedStart := k.currentTime + timeDiff
		if d.StartTime == nil || *d.StartTime != expectedStart {
			return result, simerrors.NewAccountingError(simerrors.ErrorCodeDispatchTimeMismatch, d.JobID, "", "",
				fmt.Sprintf("start_time must equal current_time(%d)+time_diff(%d)=%d", k.currentTime, timeDiff, expectedStart))
		}

		spec, ok := k.specs[d.JobID]
		if !ok {
			return result, simerrors.NewAccountingError(simerrors.ErrorCodeDispatchTimeMismatch, d.JobID, "", "", "dispatch decision for unknown job id")
		}

		state := k.states[d.JobID]
		state.StartTime = expectedStart
		state.AssignedNodes = d.Nodes

		if k.firstTimeDispatch == nil {
			k.firstTimeDispatch = new(int64)
			*k.firstTimeDispatch = expectedStart
		}

		if k.debug {
			logging.LogDispatch(k.logger, d.JobID, k.currentTime, "nodes", d.Nodes).Debug("dispatching")
		}
		k.emit(StreamEvent{Kind: "dispatch", JobID: d.JobID, CurrentTime: k.currentTime})

		if spec.Duration == 0 {
			k.finishLocked(d.JobID)
			result.DispatchedAndFinished++
			result.FinishedIDs = append(result.FinishedIDs, d.JobID)
			continue
		}

		k.running = append(k.running, d.JobID)
		endTime := state.StartTime + spec.Duration
		k.timePoints.Add(endTime)
		k.realEnding[endTime] = append(k.realEnding[endTime], d.JobID)

		if err := k.manager.AllocateEvent(d.JobID, spec.RequestedResources, d.Nodes); err != nil {
			k.removeFromRunning(d.JobID)
			k.removeFromRealEnding(endTime, d.JobID)
			k.queued = append(k.queued, d.JobID)
			result.Postponed++
			if k.debug {
				logging.LogPostponement(k.logger, d.JobID, err.Error())
			}
			continue
		}
		result.Dispatched++
	}
	return result, nil
}

// ReleaseEnded pops every job ending at the current time and finishes it:
// spec.md §4.5.4. Called before consulting the scheduler each tick.
func (k *Kernel) ReleaseEnded() ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	ending := k.realEnding[k.currentTime]
	delete(k.realEnding, k.currentTime)

	var done []string
	for _, id := range ending {
		if !k.removeFromRunning(id) {
			continue
		}
		k.finishLocked(id)
		if err := k.manager.RemoveEvent(id); err != nil {
			return done, err
		}
		done = append(done, id)
	}
	k.lastRunTime = new(int64)
	*k.lastRunTime = k.currentTime
	return done, nil
}

// finishLocked computes a job's completion stats and appends it to
// finished. Caller must hold k.mu.
func (k *Kernel) finishLocked(id string) {
	spec := k.specs[id]
	state := k.states[id]

	state.EndTime = k.currentTime
	state.RunningTime = state.EndTime - state.StartTime
	state.WaitingTime = state.StartTime - spec.QueuedTime
	state.Slowdown = slowdown(state.WaitingTime, state.RunningTime)

	k.slowdowns = append(k.slowdowns, state.Slowdown)
	k.wtimes = append(k.wtimes, state.WaitingTime)
	k.finished = append(k.finished, id)
	state.EndOrder = len(k.finished)

	if k.debug {
		logging.LogCompletion(k.logger, id, state.EndOrder, state.WaitingTime, state.RunningTime, state.Slowdown)
	}
	k.emit(StreamEvent{Kind: "finish", JobID: id, CurrentTime: k.currentTime})

	k.finishedRecords[id] = model.Job{JobSpec: *spec, DispatchState: *state}
	delete(k.specs, id)
	delete(k.states, id)
}

// slowdown implements spec.md §4.5.4's formula, including the
// open-question fallback preserved verbatim from the source simulator.
func slowdown(waitingTime, runningTime int64) float64 {
	if runningTime != 0 {
		v := float64(waitingTime+runningTime) / float64(runningTime)
		return math.Round(v*100) / 100
	}
	if waitingTime != 0 {
		return float64(waitingTime)
	}
	return 1.0
}

func (k *Kernel) removeFromRunning(id string) bool {
	for i, v := range k.running {
		if v == id {
			k.running = append(k.running[:i], k.running[i+1:]...)
			return true
		}
	}
	return false
}

func (k *Kernel) removeFromRealEnding(t int64, id string) {
	ids := k.realEnding[t]
	for i, v := range ids {
		if v == id {
			k.realEnding[t] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (k *Kernel) emit(ev StreamEvent) {
	if k.stream == nil {
		return
	}
	select {
	case k.stream <- ev:
	default:
	}
}
