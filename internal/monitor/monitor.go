// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package monitor is the optional, read-only HTTP monitoring daemon
// spec.md §1(e)/§5 allows as an external collaborator: a snapshot view of
// the kernel's current time and finished-job count (running jobs are not
// listed), a rolling-stats endpoint,
// and a websocket feed of dispatch/completion events. It never drives the
// kernel; every handler only reads immutable copies.
package monitor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/accasim-go/accasim/internal/kernel"
	"github.com/accasim-go/accasim/pkg/logging"
)

// Snapshotter is the read-only kernel surface the monitor depends on.
// internal/kernel.Kernel satisfies it directly; tests can substitute a
// fake.
type Snapshotter interface {
	CurrentTime() int64
	Finished() []string
	Stats() kernel.Stats
	Usage() string
}

// Server is the monitor's HTTP surface: GET /snapshot, GET /stats, and
// (see watch.go) GET /watch for the websocket feed.
type Server struct {
	router *mux.Router
	kernel Snapshotter
	logger logging.Logger
	start  time.Time
}

// New builds a monitor Server bound to k. watcherPool may be nil to
// disable the /watch endpoint (e.g. a run with no stream configured).
func New(k Snapshotter, watcherPool *WatcherRegistrar, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	s := &Server{
		router: mux.NewRouter(),
		kernel: k,
		logger: logger,
		start:  time.Now(),
	}
	s.router.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	if watcherPool != nil {
		s.router.HandleFunc("/watch", watcherPool.HandleWatch).Methods(http.MethodGet)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SnapshotResponse is GET /snapshot's body: current_time, the number of
// finished jobs, the monitor's uptime and the response time. It does not
// list running jobs and never includes full job records.
type SnapshotResponse struct {
	CurrentTime int64     `json:"current_time"`
	Finished    int       `json:"finished_count"`
	Uptime      string    `json:"uptime"`
	AsOf        time.Time `json:"as_of"`
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	resp := SnapshotResponse{
		CurrentTime: s.kernel.CurrentTime(),
		Finished:    len(s.kernel.Finished()),
		Uptime:      time.Since(s.start).String(),
		AsOf:        time.Now(),
	}
	s.writeJSON(w, resp)
}

// StatsResponse is GET /stats's body: the kernel's rolling aggregate
// statistics (spec.md §6) plus a human-readable resource usage summary.
type StatsResponse struct {
	kernel.Stats
	Usage string `json:"usage"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Stats: s.kernel.Stats(), Usage: s.kernel.Usage()}
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("monitor: encoding response failed", "error", err.Error())
	}
}
