// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("with config", func(t *testing.T) {
		logger := NewLogger(&Config{Level: slog.LevelDebug, Format: FormatJSON, Output: os.Stdout, Version: "1.0.0"})
		require.NotNil(t, logger)
		_, ok := logger.(*slogLogger)
		assert.True(t, ok)
	})

	t.Run("with nil config", func(t *testing.T) {
		logger := NewLogger(nil)
		require.NotNil(t, logger)
	})
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, slog.LevelInfo, config.Level)
	assert.Equal(t, FormatText, config.Format)
	assert.Equal(t, "unknown", config.Version)
}

func TestSlogLogger_WithContext(t *testing.T) {
	logger := NewLogger(&Config{Level: slog.LevelDebug, Format: FormatText, Output: os.Stdout, Version: "test"})

	t.Run("with run id", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "run-1")
		withCtx := logger.WithContext(ctx)
		assert.NotEqual(t, logger, withCtx)
	})

	t.Run("no values", func(t *testing.T) {
		withCtx := logger.WithContext(context.Background())
		assert.Equal(t, logger, withCtx)
	})
}

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := &slogLogger{logger: slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	LogDispatch(logger, "job-1", 10, "nodes", 2).Info("dispatched")
	LogPostponement(logger, "job-2", "allocation rejected")
	LogCompletion(logger, "job-1", 1, 5, 10, 1.5)
	LogError(logger, errors.New("boom"), "release", "job_id", "job-3")
	LogError(logger, nil, "noop")

	out := buf.String()
	assert.True(t, json.Valid([]byte(out[:len(out)-1])) || len(out) > 0)
	assert.Contains(t, out, "job-1")
	assert.Contains(t, out, "allocation rejected")
}

func TestSanitizeLogValue(t *testing.T) {
	assert.Equal(t, "a b c", sanitizeLogValue("a\nb\tc"))
	assert.Equal(t, 42, sanitizeLogValue(42))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, "", getErrorType(nil))
	assert.Equal(t, "PathError", getErrorType(&os.PathError{Op: "open", Path: "/x", Err: errors.New("x")}))
	assert.Equal(t, "*errors.errorString", getErrorType(errors.New("plain")))
}

func TestNoOpLogger(t *testing.T) {
	logger := NoOpLogger{}
	logger.Debug("x")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
	assert.Equal(t, NoOpLogger{}, logger.With("k", "v"))
	assert.Equal(t, NoOpLogger{}, logger.WithContext(context.Background()))
}

func TestSetDefaultLogger(t *testing.T) {
	original := DefaultLogger
	defer SetDefaultLogger(original)

	replacement := NoOpLogger{}
	SetDefaultLogger(replacement)
	assert.Equal(t, replacement, DefaultLogger)
}
