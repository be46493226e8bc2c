// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/accasim-go/accasim/internal/kernel"
	"github.com/accasim-go/accasim/pkg/logging"
	"github.com/accasim-go/accasim/pkg/pool"
)

// WatcherRegistrar upgrades incoming /watch connections into the shared
// pkg/pool.WatcherPool; Pump fans out the kernel.StreamEvents the kernel
// writes onto its stream channel to every connected dashboard. It never
// calls back into kernel state — spec.md §5's "network watcher" is
// read-only by construction: it holds only the watcher pool, the
// websocket upgrader and a logger, and no reference to the kernel.
type WatcherRegistrar struct {
	pool     *pool.WatcherPool
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// NewWatcherRegistrar builds a registrar around an existing watcher pool.
func NewWatcherRegistrar(watcherPool *pool.WatcherPool, logger logging.Logger) *WatcherRegistrar {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &WatcherRegistrar{
		pool:   watcherPool,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWatch upgrades the request to a websocket connection and
// registers it with the watcher pool; the pool's Broadcast (driven by
// Pump) pushes every subsequent StreamEvent to it until it disconnects.
func (wr *WatcherRegistrar) HandleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := wr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wr.logger.Error("watch: upgrade failed", "error", err.Error())
		return
	}

	id := uuid.NewString()
	wr.pool.Register(id, conn)

	// Drain (and discard) anything the client sends; this is a read-only
	// feed, but an unread client message would otherwise stall the
	// connection's read deadline handling inside gorilla/websocket.
	go func() {
		defer wr.pool.Unregister(id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Pump reads kernel.StreamEvents from ch (the channel passed to
// kernel.WithStream) and broadcasts each as JSON to every connected
// watcher, until ch is closed. Run it in its own goroutine.
func Pump(ch <-chan kernel.StreamEvent, watcherPool *pool.WatcherPool, logger logging.Logger) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			logger.Error("watch: marshaling stream event failed", "error", err.Error())
			continue
		}
		watcherPool.Broadcast(data)
	}
}
