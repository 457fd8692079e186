package slogger

import (
	"context"
	"encoding/json"
	"errors"
	"nextdynamic/internal/application/common/logging"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger(t *testing.T) logging.ApplicationLogger {
	t.Helper()
	logger, err := logging.NewApplicationLogger(logging.Config{Level: "DEBUG", Format: "json", Output: "buffer"})
	require.NoError(t, err)
	return logger
}

func TestProcessLogger(t *testing.T) {
	logger := bufferLogger(t)
	t.Cleanup(Use(logger))

	ctx := logging.WithCorrelationID(context.Background(), "corr-1")
	Debug(ctx, "debug", Fields{"n": 1})
	Info(ctx, "info", nil)
	Warn(ctx, "warn", nil)
	Error(ctx, "error", nil)
	ErrorWithError(ctx, errors.New("boom"), "error with error", nil)
	InfoNoCtx("no context", nil)
	ErrorNoCtx("no context error", nil)
	WithComponent("worker").Info(ctx, "component", nil)

	lines := strings.Split(strings.TrimSpace(logging.BufferedOutput(logger)), "\n")
	require.Len(t, lines, 8)

	var entry logging.LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[4]), &entry))
	assert.Equal(t, "boom", entry.Error)
	assert.Equal(t, "corr-1", entry.CorrelationID)

	require.NoError(t, json.Unmarshal([]byte(lines[7]), &entry))
	assert.Equal(t, "worker", entry.Component)
}

func TestUse_Restore(t *testing.T) {
	outer := bufferLogger(t)
	t.Cleanup(Use(outer))

	inner := bufferLogger(t)
	restore := Use(inner)
	Info(context.Background(), "inner", nil)
	restore()
	Info(context.Background(), "outer", nil)

	assert.Contains(t, logging.BufferedOutput(inner), `"inner"`)
	assert.NotContains(t, logging.BufferedOutput(inner), `"outer"`)
	assert.Contains(t, logging.BufferedOutput(outer), `"outer"`)
}

func TestConfigure_InvalidConfigKeepsLogger(t *testing.T) {
	logger := bufferLogger(t)
	t.Cleanup(Use(logger))

	err := Configure(logging.Config{Level: "LOUD", Format: "json", Output: "stderr"})
	require.Error(t, err)

	Info(context.Background(), "still here", nil)
	assert.Contains(t, logging.BufferedOutput(logger), "still here")
}
