// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accasim-go/accasim/model"
)

func TestAsyncWriter_PreservesFIFOAndFlushesOnStop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sched.log")

	w, err := NewAsyncWriter(path, func(j model.Job) string { return j.ID })
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		w.Push(model.Job{JobSpec: model.JobSpec{ID: id}})
	}
	require.NoError(t, w.Stop())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Equal(t, []string{"a", "b", "c"}, lines)
	assert.Equal(t, 3, w.WrittenCount())
}

func TestAsyncWriter_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")

	w, err := NewAsyncWriter(path, func(j model.Job) string { return j.ID })
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
