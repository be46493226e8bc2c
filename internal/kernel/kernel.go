// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package kernel is the simulation kernel: admission, time advancement,
// dispatch, and completion, exactly the event-time advancement loop and
// state machine described as "the hard part" of the simulator. It knows
// nothing about reading workload files or the shape of a scheduling
// policy beyond the narrow Schedule contract; both are supplied by the
// caller.
package kernel

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/accasim-go/accasim/internal/eventset"
	"github.com/accasim-go/accasim/internal/resourcemgr"
	"github.com/accasim-go/accasim/model"
	simerrors "github.com/accasim-go/accasim/pkg/errors"
	"github.com/accasim-go/accasim/pkg/logging"
)

// StreamEvent is a single kernel transition pushed to any connected
// monitor watchers: "dispatch" or "finish", naming the job and the time
// it happened. It is an immutable copy — the monitor never touches kernel
// state through it.
type StreamEvent struct {
	Kind        string `json:"kind"`
	JobID       string `json:"job_id"`
	CurrentTime int64  `json:"current_time"`
}

// Option configures a Kernel at construction time.
type Option func(*Kernel)

// WithDebug enables per-transition debug logging, matching the source
// event manager's debug flag.
func WithDebug(debug bool) Option {
	return func(k *Kernel) { k.debug = debug }
}

// WithLogger overrides the kernel's logger (defaults to a no-op).
func WithLogger(logger logging.Logger) Option {
	return func(k *Kernel) { k.logger = logger }
}

// WithRunID overrides the kernel's generated run identifier, so a caller
// can correlate the kernel's own id with the logger context it attaches
// to every log line for the run.
func WithRunID(runID string) Option {
	return func(k *Kernel) { k.runID = runID }
}

// WithStream attaches a channel the kernel pushes StreamEvents onto,
// non-blocking: a full channel drops the event rather than stall the
// kernel's single-threaded loop. The monitor watcher is a best-effort
// observer, never a backpressure source for the simulation itself.
func WithStream(ch chan<- StreamEvent) Option {
	return func(k *Kernel) { k.stream = ch }
}

// Kernel owns the simulation clock, the job lifecycle state machine, and
// the resource manager. All of its exported methods are meant to be
// called from a single goroutine — the simulation loop — per §5's
// single-threaded cooperative scheduling model.
type Kernel struct {
	mu sync.Mutex

	runID   string
	manager *resourcemgr.Manager
	debug   bool
	logger  logging.Logger
	stream  chan<- StreamEvent

	started     bool
	currentTime int64
	timePoints  *eventset.Set

	specs   map[string]*model.JobSpec
	states  map[string]*model.DispatchState
	loaded  map[int64][]string
	queued  []string
	running []string
	// realEnding maps a completion time to the ids ending then, in the
	// order they were dispatched.
	realEnding map[int64][]string
	finished   []string

	// finishedRecords holds a frozen spec+state snapshot for every
	// completed job, taken at the moment it finishes. specs/states
	// entries for a finished job are dropped (JobTable only ever shows
	// the kernel's active job set to the scheduler); JobRecord serves a
	// finished job's final snapshot from here instead.
	finishedRecords map[string]model.Job

	slowdowns         []float64
	wtimes            []int64
	firstTimeDispatch *int64
	lastRunTime       *int64
}

// New builds a Kernel bound to manager.
func New(manager *resourcemgr.Manager, opts ...Option) *Kernel {
	k := &Kernel{
		runID:      uuid.NewString(),
		manager:    manager,
		logger:     logging.NoOpLogger{},
		timePoints: eventset.New(),
		specs:           make(map[string]*model.JobSpec),
		states:          make(map[string]*model.DispatchState),
		loaded:          make(map[int64][]string),
		realEnding:      make(map[int64][]string),
		finishedRecords: make(map[string]model.Job),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// RunID returns the UUID stamped on this kernel instance, used to tell
// concurrent runs apart in log lines.
func (k *Kernel) RunID() string {
	return k.runID
}

// CurrentTime returns the kernel's clock.
func (k *Kernel) CurrentTime() int64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.currentTime
}

// HasEvents reports whether any job remains loaded, queued, or running.
func (k *Kernel) HasEvents() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.loaded) > 0 || len(k.queued) > 0 || len(k.running) > 0
}

// LoadedCount reports how many future admission batches are still
// pending, used by the driver to decide when to pull more from the
// reader (the "low_watermark" check in §4.5.5's main loop).
func (k *Kernel) LoadedCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.loaded)
}

// JobTable returns the read-only map of every job currently known to the
// kernel (loaded, queued, running — finished jobs are dropped), for the
// scheduler to consult. JobSpec values are immutable, so sharing the
// pointers directly is safe; the kernel clones nothing.
func (k *Kernel) JobTable() map[string]*model.JobSpec {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]*model.JobSpec, len(k.specs))
	for id, spec := range k.specs {
		out[id] = spec
	}
	return out
}

// JobRecord returns a point-in-time, read-only snapshot combining a job's
// spec and current dispatch state. Finished jobs are served from their
// frozen completion-time snapshot, since their spec/state entries are
// dropped from the active job table once the kernel finishes them.
func (k *Kernel) JobRecord(id string) (model.Job, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if job, ok := k.finishedRecords[id]; ok {
		return job, true
	}
	spec, ok := k.specs[id]
	if !ok {
		return model.Job{}, false
	}
	state := k.states[id]
	if state == nil {
		state = &model.DispatchState{}
	}
	return model.Job{JobSpec: *spec, DispatchState: *state}, true
}

// Finished returns the ids completed so far, in completion order.
func (k *Kernel) Finished() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.finished))
	copy(out, k.finished)
	return out
}

// Availability implements scheduler.ResourceView.
func (k *Kernel) Availability() map[string]model.ResourceSpec {
	return k.manager.Availability()
}

// Load admits job into the kernel: spec.md §4.5.1. The kernel's clock is
// lazily established on the very first job as queued_time - 1.
func (k *Kernel) Load(spec *model.JobSpec) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if !k.started {
		k.currentTime = spec.QueuedTime - 1
		k.started = true
	}

	k.specs[spec.ID] = spec
	k.states[spec.ID] = &model.DispatchState{}

	switch {
	case spec.QueuedTime == k.currentTime:
		k.queued = append(k.queued, spec.ID)
	case spec.QueuedTime > k.currentTime:
		k.loaded[spec.QueuedTime] = append(k.loaded[spec.QueuedTime], spec.ID)
		k.timePoints.Add(spec.QueuedTime)
	default:
		return simerrors.NewAdmissionError(simerrors.ErrorCodeOutOfOrderSubmit, spec.ID,
			fmt.Sprintf("job queued_time %d is before current_time %d", spec.QueuedTime, k.currentTime))
	}

	if k.debug {
		logging.LogOperation(k.logger, "load", "job_id", spec.ID, "queued_time", spec.QueuedTime).Debug("job loaded")
	}
	return nil
}

// NextEvents advances the clock and returns the ids eligible for
// scheduling this tick: spec.md §4.5.2.
func (k *Kernel) NextEvents() []string {
	k.mu.Lock()
	defer k.mu.Unlock()

	if t, ok := k.timePoints.PopMin(); ok {
		k.currentTime = t
	} else {
		k.currentTime++
	}

	submitted := k.loaded[k.currentTime]
	delete(k.loaded, k.currentTime)

	eligible := make([]string, 0, len(k.queued)+len(submitted))
	eligible = append(eligible, k.queued...)
	eligible = append(eligible, submitted...)
	k.queued = nil

	if k.debug {
		k.logger.Debug("next events", "current_time", k.currentTime, "submitted", len(submitted), "eligible", len(eligible))
	}
	return eligible
}
