// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

// Package pool tracks the live websocket connections held by the optional
// HTTP monitor, so that a state change pushed by the kernel can be fanned
// out to every connected watcher without the monitor handler needing to
// know about connection lifecycle itself.
package pool

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/accasim-go/accasim/pkg/logging"
)

// WatcherPool is a registry of connected monitor watchers, keyed by an
// opaque connection id assigned at registration time.
type WatcherPool struct {
	mu       sync.RWMutex
	watchers map[string]*watcherConn
	logger   logging.Logger
}

type watcherConn struct {
	conn      *websocket.Conn
	created   time.Time
	lastSent  time.Time
	sentCount int64
}

// NewWatcherPool creates an empty pool. A nil logger falls back to a no-op.
func NewWatcherPool(logger logging.Logger) *WatcherPool {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &WatcherPool{
		watchers: make(map[string]*watcherConn),
		logger:   logger,
	}
}

// Register adds a newly-upgraded connection to the pool.
func (p *WatcherPool) Register(id string, conn *websocket.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.watchers[id] = &watcherConn{conn: conn, created: time.Now(), lastSent: time.Now()}
	p.logger.Info("watcher connected", "watcher_id", id, "total", len(p.watchers))
}

// Unregister removes and closes a connection, if present.
func (p *WatcherPool) Unregister(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if wc, ok := p.watchers[id]; ok {
		_ = wc.conn.Close()
		delete(p.watchers, id)
		p.logger.Info("watcher disconnected", "watcher_id", id, "total", len(p.watchers))
	}
}

// Broadcast sends message to every registered watcher, dropping (and
// unregistering) any connection whose write fails.
func (p *WatcherPool) Broadcast(message []byte) (sent int, failed []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, wc := range p.watchers {
		if err := wc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			_ = wc.conn.Close()
			delete(p.watchers, id)
			failed = append(failed, id)
			continue
		}
		wc.lastSent = time.Now()
		wc.sentCount++
		sent++
	}
	return sent, failed
}

// PruneStale closes and removes connections that have not received a
// successful send within maxIdle.
func (p *WatcherPool) PruneStale(maxIdle time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, wc := range p.watchers {
		if wc.lastSent.Before(cutoff) {
			_ = wc.conn.Close()
			delete(p.watchers, id)
			removed++
		}
	}
	if removed > 0 {
		p.logger.Info("pruned stale watchers", "removed", removed)
	}
	return removed
}

// Stats reports a snapshot of the pool's current connections.
func (p *WatcherPool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := PoolStats{
		TotalWatchers: len(p.watchers),
		WatcherStats:  make(map[string]WatcherStats, len(p.watchers)),
	}
	for id, wc := range p.watchers {
		stats.WatcherStats[id] = WatcherStats{
			Created:   wc.created,
			LastSent:  wc.lastSent,
			SentCount: wc.sentCount,
		}
	}
	return stats
}

// Close closes every connection and empties the pool.
func (p *WatcherPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, wc := range p.watchers {
		_ = wc.conn.Close()
		delete(p.watchers, id)
	}
	p.logger.Info("closed all watcher connections")
	return nil
}

// PoolStats summarizes the watcher pool's state.
type PoolStats struct {
	TotalWatchers int
	WatcherStats  map[string]WatcherStats
}

// WatcherStats summarizes a single watcher connection.
type WatcherStats struct {
	Created   time.Time
	LastSent  time.Time
	SentCount int64
}
