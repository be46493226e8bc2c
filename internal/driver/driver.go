// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package driver wires the reader, factory, resource manager, kernel,
// scheduler, and output writers into the main loop spec.md §4.5.5
// describes, and is the only package in the module that imports all of
// them. Everything it calls treats it as an external collaborator, per
// §5: the kernel has no idea a driver exists.
package driver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	simconfig "github.com/accasim-go/accasim/internal/config"
	"github.com/accasim-go/accasim/internal/factory"
	"github.com/accasim-go/accasim/internal/kernel"
	"github.com/accasim-go/accasim/internal/monitor"
	"github.com/accasim-go/accasim/internal/output"
	"github.com/accasim-go/accasim/internal/reader"
	"github.com/accasim-go/accasim/internal/resourcemgr"
	"github.com/accasim-go/accasim/internal/scheduler"
	"github.com/accasim-go/accasim/pkg/config"
	"github.com/accasim-go/accasim/pkg/logging"
	"github.com/accasim-go/accasim/pkg/pool"
)

// defaultBatchSize is how many records the driver pulls from the reader
// per load, irrespective of the system config document's low_watermark
// (which instead governs how soon the *next* pull happens).
const defaultBatchSize = 500

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithLogger overrides the driver's logger (defaults to a no-op).
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithScheduler overrides the default FIFO+FirstFit scheduler.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(d *Driver) { d.scheduler = sched }
}

// Driver owns one simulation run end to end.
type Driver struct {
	cfg       *config.Config
	logger    logging.Logger
	scheduler scheduler.Scheduler
}

// New builds a Driver over cfg, applying opts in order.
func New(cfg *config.Config, opts ...Option) *Driver {
	d := &Driver{
		cfg:       cfg,
		logger:    logging.NoOpLogger{},
		scheduler: scheduler.NewFirstInFirstOut(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one full simulation: parses the system config document,
// replays the workload trace through the kernel's main loop, renders the
// scheduling/pretty-print logs and the run's aggregate statistics, and
// (if cfg.MonitorAddr is set) serves a read-only snapshot/watch endpoint
// for the run's duration. A fatal *pkg/errors.SimError aborts the run
// after flushing every writer; soft failures are absorbed inline by the
// kernel and reported only through logging.
func (d *Driver) Run(ctx context.Context) (kernel.Stats, error) {
	if err := d.cfg.Validate(); err != nil {
		return kernel.Stats{}, err
	}

	sysCfg, err := d.loadSystemConfig()
	if err != nil {
		return kernel.Stats{}, err
	}

	rpool, err := sysCfg.BuildPool()
	if err != nil {
		return kernel.Stats{}, err
	}
	manager := resourcemgr.New(rpool)

	jobFactory, err := factory.New(manager,
		factory.WithMapper(reader.DefaultMapping),
		factory.WithLogger(d.logger),
	)
	if err != nil {
		return kernel.Stats{}, err
	}

	trace, err := reader.Open(d.cfg.WorkloadPath)
	if err != nil {
		return kernel.Stats{}, fmt.Errorf("opening workload trace: %w", err)
	}

	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return kernel.Stats{}, fmt.Errorf("creating output directory: %w", err)
	}

	var streamCh chan kernel.StreamEvent
	var watcherPool *pool.WatcherPool
	var httpServer *http.Server
	if d.cfg.MonitorAddr != "" {
		streamCh = make(chan kernel.StreamEvent, 256)
		watcherPool = pool.NewWatcherPool(d.logger)
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	d.logger = d.logger.WithContext(ctx)

	kernelOpts := []kernel.Option{
		kernel.WithDebug(d.cfg.Debug),
		kernel.WithLogger(d.logger),
		kernel.WithRunID(runID),
	}
	if streamCh != nil {
		kernelOpts = append(kernelOpts, kernel.WithStream(streamCh))
	}
	k := kernel.New(manager, kernelOpts...)

	schedLog, err := output.NewAsyncWriter(
		filepath.Join(d.cfg.OutputDir, "scheduling.log"),
		output.SchedulingPreprocessor(sysCfg.SchedulingFormat, d.logger),
		output.WithLogger(d.logger),
	)
	if err != nil {
		return kernel.Stats{}, err
	}
	prettyLog, err := output.NewAsyncWriter(
		filepath.Join(d.cfg.OutputDir, "pretty_print.log"),
		output.PrettyPrintPreprocessor(sysCfg.PrettyPrintFormat, sysCfg.PrettyPrintHeader, d.logger),
		output.WithLogger(d.logger),
	)
	if err != nil {
		_ = schedLog.Stop()
		return kernel.Stats{}, err
	}

	pruneDone := make(chan struct{})
	if watcherPool != nil {
		registrar := monitor.NewWatcherRegistrar(watcherPool, d.logger)
		srv := monitor.New(k, registrar, d.logger)
		httpServer = &http.Server{Addr: d.cfg.MonitorAddr, Handler: srv}
		go monitor.Pump(streamCh, watcherPool, d.logger)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				d.logger.Error("monitor: server failed", "error", err.Error())
			}
		}()
		go d.pruneStaleWatchers(watcherPool, pruneDone)
	} else {
		close(pruneDone)
	}

	lowWatermark := sysCfg.LowWatermark
	if d.cfg.LowWatermark > 0 {
		lowWatermark = d.cfg.LowWatermark
	}
	admitted, runErr := d.runLoop(k, jobFactory, trace, lowWatermark, schedLog, prettyLog)

	var verifyErr error
	if runErr == nil {
		verifyErr = k.VerifyTermination(admitted)
	}

	writeErr := schedLog.Stop()
	if err := prettyLog.Stop(); writeErr == nil {
		writeErr = err
	}

	stats := k.Stats()
	statsErr := output.WriteStats(filepath.Join(d.cfg.OutputDir, "stats.txt"), stats)

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		close(streamCh)
		close(pruneDone)
	}

	switch {
	case runErr != nil:
		return stats, runErr
	case verifyErr != nil:
		return stats, verifyErr
	case writeErr != nil:
		return stats, writeErr
	case statsErr != nil:
		return stats, statsErr
	}
	return stats, nil
}

// pruneStaleWatchers periodically evicts monitor connections that have not
// received a successful broadcast within cfg.MonitorFlushInterval, until
// done is closed at shutdown.
func (d *Driver) pruneStaleWatchers(watcherPool *pool.WatcherPool, done <-chan struct{}) {
	ticker := time.NewTicker(d.cfg.MonitorFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			watcherPool.PruneStale(d.cfg.MonitorFlushInterval)
		case <-done:
			return
		}
	}
}

func (d *Driver) loadSystemConfig() (*simconfig.SystemConfig, error) {
	data, err := os.ReadFile(d.cfg.SystemConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading system config: %w", err)
	}
	return simconfig.Parse(data)
}

// runLoop drives spec.md §4.5.5's pseudocode: load an initial batch,
// then alternate releasing ended jobs, consulting the scheduler for the
// currently eligible set, dispatching its decisions, and topping up the
// loaded batch once it falls below the low watermark, until no events
// remain and nothing more is loaded, queued, or running.
func (d *Driver) runLoop(
	k *kernel.Kernel,
	jobFactory *factory.Factory,
	trace *reader.Reader,
	lowWatermark int,
	schedLog, prettyLog *output.AsyncWriter,
) (admitted int, err error) {
	loadNext := func() error {
		n, loadErr := d.loadBatch(k, jobFactory, trace, admitted == 0)
		admitted += n
		return loadErr
	}

	if err := loadNext(); err != nil {
		return admitted, err
	}

	events := k.NextEvents()
	for len(events) > 0 || k.HasEvents() {
		done, relErr := k.ReleaseEnded()
		if relErr != nil {
			return admitted, relErr
		}
		for _, id := range done {
			job, ok := k.JobRecord(id)
			if !ok {
				continue
			}
			schedLog.Push(job)
			prettyLog.Push(job)
		}

		if len(events) > 0 {
			decisions, schedErr := d.scheduler.Schedule(k.CurrentTime(), k.JobTable(), events, k)
			if schedErr != nil {
				return admitted, schedErr
			}
			dispResult, dispErr := k.Dispatch(decisions, d.cfg.DispatchTimeDiff)
			if dispErr != nil {
				return admitted, dispErr
			}
			for _, id := range dispResult.FinishedIDs {
				job, ok := k.JobRecord(id)
				if !ok {
					continue
				}
				schedLog.Push(job)
				prettyLog.Push(job)
			}
		}

		if k.LoadedCount() < lowWatermark && trace.HasMore() {
			if err := loadNext(); err != nil {
				return admitted, err
			}
		}

		events = k.NextEvents()
	}
	return admitted, nil
}

// loadBatch pulls one batch from trace, builds each raw record into a
// JobSpec, and admits it into the kernel. On the very first batch it also
// enforces §4.3's core/mem coverage check once, right after the factory
// has seen its first job.
func (d *Driver) loadBatch(k *kernel.Kernel, jobFactory *factory.Factory, trace *reader.Reader, checkCoverage bool) (int, error) {
	raws := trace.NextBatch(defaultBatchSize)
	loaded := 0
	for i, raw := range raws {
		spec, err := jobFactory.Build(raw)
		if err != nil {
			return loaded, err
		}
		if checkCoverage && i == 0 {
			if err := jobFactory.MandatoryResourcesPresent(); err != nil {
				return loaded, err
			}
		}
		if err := k.Load(spec); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
