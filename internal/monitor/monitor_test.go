// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accasim-go/accasim/internal/kernel"
)

type fakeSnapshotter struct {
	currentTime int64
	finished    []string
	stats       kernel.Stats
	usage       string
}

func (f fakeSnapshotter) CurrentTime() int64    { return f.currentTime }
func (f fakeSnapshotter) Finished() []string    { return f.finished }
func (f fakeSnapshotter) Stats() kernel.Stats   { return f.stats }
func (f fakeSnapshotter) Usage() string         { return f.usage }

func TestHandleSnapshot(t *testing.T) {
	fake := fakeSnapshotter{currentTime: 42, finished: []string{"a", "b"}}
	srv := New(fake, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp SnapshotResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.CurrentTime)
	assert.Equal(t, 2, resp.Finished)
}

func TestHandleStats(t *testing.T) {
	fake := fakeSnapshotter{stats: kernel.Stats{TotalJobs: 5, Makespan: 100}, usage: "core: 50.00%"}
	srv := New(fake, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.TotalJobs)
	assert.Equal(t, "core: 50.00%", resp.Usage)
}
