// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package pool

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialTestServer(t *testing.T) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		// Keep the handler alive until the client closes the connection.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return client, srv
}

func TestWatcherPool_RegisterBroadcastUnregister(t *testing.T) {
	conn, srv := dialTestServer(t)
	defer srv.Close()

	p := NewWatcherPool(nil)
	p.Register("watcher-1", conn)

	stats := p.Stats()
	require.Equal(t, 1, stats.TotalWatchers)

	sent, failed := p.Broadcast([]byte(`{"current_time":10}`))
	require.Equal(t, 1, sent)
	require.Empty(t, failed)

	stats = p.Stats()
	require.Equal(t, int64(1), stats.WatcherStats["watcher-1"].SentCount)

	p.Unregister("watcher-1")
	require.Equal(t, 0, p.Stats().TotalWatchers)
}

func TestWatcherPool_PruneStale(t *testing.T) {
	conn, srv := dialTestServer(t)
	defer srv.Close()

	p := NewWatcherPool(nil)
	p.Register("watcher-1", conn)

	removed := p.PruneStale(time.Hour)
	require.Equal(t, 0, removed)

	time.Sleep(5 * time.Millisecond)
	removed = p.PruneStale(time.Millisecond)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, p.Stats().TotalWatchers)
}

func TestWatcherPool_Close(t *testing.T) {
	conn, srv := dialTestServer(t)
	defer srv.Close()

	p := NewWatcherPool(nil)
	p.Register("watcher-1", conn)
	require.NoError(t, p.Close())
	require.Equal(t, 0, p.Stats().TotalWatchers)
}
