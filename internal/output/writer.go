// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/accasim-go/accasim/model"
	"github.com/accasim-go/accasim/pkg/logging"
	"github.com/accasim-go/accasim/pkg/retry"
)

// flushInterval is how often the consumer goroutine syncs buffered output
// to disk ahead of the final flush in Stop, so a long run's scheduling log
// is readable by a tail -f rather than appearing only at shutdown.
const flushInterval = 2 * time.Second

// Preprocessor turns a finished job into one output line. Scheduling and
// pretty-print logs each supply their own, built from a Formatter; a
// pretty-print preprocessor additionally prepends a header line the first
// time it sees end_order == 1 (spec.md §6).
type Preprocessor func(model.Job) string

// AsyncWriter is a background consumer bound to exactly one output file,
// per spec.md §4.7: producers Push finished-job records onto a bounded
// FIFO; one goroutine drains it through a Preprocessor and flushes to
// disk. Push blocks when the queue is full rather than drop records —
// the kernel's single allowed backpressure point outside the trace
// reader (§5).
type AsyncWriter struct {
	queue        chan model.Job
	preprocessor Preprocessor
	logger       logging.Logger

	done chan struct{}
	once sync.Once

	file *os.File
	w    *bufio.Writer

	mu      sync.Mutex
	errs    []error
	written int
}

// Option configures an AsyncWriter at construction time.
type Option func(*AsyncWriter)

// WithQueueDepth overrides the default bounded queue size (256).
func WithQueueDepth(n int) Option {
	return func(w *AsyncWriter) { w.queue = make(chan model.Job, n) }
}

// WithLogger overrides the writer's logger (defaults to a no-op).
func WithLogger(logger logging.Logger) Option {
	return func(w *AsyncWriter) { w.logger = logger }
}

// NewAsyncWriter opens path (truncating any existing content) and starts
// the consumer goroutine. Only one AsyncWriter should ever be open on a
// given path at a time (spec.md §4.7's "at-most-one writer per output
// path per run" guarantee is the caller's responsibility: the driver
// opens exactly one writer per sink).
func NewAsyncWriter(path string, preprocessor Preprocessor, opts ...Option) (*AsyncWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file %s: %w", path, err)
	}

	w := &AsyncWriter{
		queue:        make(chan model.Job, 256),
		preprocessor: preprocessor,
		logger:       logging.NoOpLogger{},
		done:         make(chan struct{}),
		file:         f,
		w:            bufio.NewWriter(f),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run()
	return w, nil
}

func (w *AsyncWriter) run() {
	defer close(w.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case job, ok := <-w.queue:
			if !ok {
				w.flushWithRetry()
				if err := w.file.Close(); err != nil {
					w.recordErr(err)
				}
				return
			}
			line := w.preprocessor(job)
			if _, err := w.w.WriteString(line); err != nil {
				w.recordErr(err)
				continue
			}
			if err := w.w.WriteByte('\n'); err != nil {
				w.recordErr(err)
				continue
			}
			w.mu.Lock()
			w.written++
			w.mu.Unlock()
		case <-ticker.C:
			w.flushWithRetry()
		}
	}
}

// flushWithRetry syncs the buffered writer to disk, retrying a transient
// failure (e.g. a momentarily full NFS-mounted output directory) a few
// times before giving up and recording it as a write error.
func (w *AsyncWriter) flushWithRetry() {
	backoff := retry.NewConstantBackoff(10*time.Millisecond, 3)
	if err := retry.Retry(context.Background(), backoff, w.w.Flush); err != nil {
		w.recordErr(err)
	}
}

func (w *AsyncWriter) recordErr(err error) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
	w.logger.Error("output write failed", "error", err.Error(), "path", w.file.Name())
}

// Push enqueues job for serialization, blocking if the queue is full.
// Calling Push after Stop panics, matching a send on a closed channel —
// callers must not push after shutdown.
func (w *AsyncWriter) Push(job model.Job) {
	w.queue <- job
}

// Stop signals end-of-stream, waits for the consumer to drain the queue
// and flush, then closes the file. Safe to call more than once.
func (w *AsyncWriter) Stop() error {
	w.once.Do(func() {
		close(w.queue)
	})
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.errs) > 0 {
		return fmt.Errorf("async writer for %s: %d write error(s), first: %w", w.file.Name(), len(w.errs), w.errs[0])
	}
	return nil
}

// WrittenCount reports how many lines have been written to the buffered
// writer so far; a line counts before it is flushed to disk. Safe to
// call concurrently with Push.
func (w *AsyncWriter) WrittenCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}
