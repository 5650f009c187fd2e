package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("err"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
}

func TestBuildLogger(t *testing.T) {
	var buf bytes.Buffer
	buildLogger(&buf, "info", "json").Info("hello", "k", "v")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])

	buf.Reset()
	buildLogger(&buf, "warn", "text").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestMigrate_MemoryStoreIsNoop(t *testing.T) {
	t.Setenv("BANKLEDGER_STORE", "memory")
	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	assert.NoError(t, root.Execute())
}

func TestRoot_RejectsBadConfig(t *testing.T) {
	t.Setenv("BANKLEDGER_STORE", "sqlite")
	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	assert.ErrorContains(t, root.Execute(), "unknown store")
}
