package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"DEBUG":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"":         slog.LevelInfo,
		"Warning":  slog.LevelWarn,
		"WARN":     slog.LevelWarn,
		"ERROR":    slog.LevelError,
		"CRITICAL": LevelCritical,
	}
	for input, expected := range cases {
		got, err := ParseLevel(input)
		require.NoError(t, err, "ParseLevel(%q)", input)
		assert.Equal(t, expected, got, "ParseLevel(%q)", input)
	}

	_, err := ParseLevel("TRACE")
	assert.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := NewWithWriter(&buf, Options{Level: "WARNING"})
	require.NoError(t, err)
	defer closeFn()

	logger.Info("hidden")
	logger.Warn("shown")
	Critical(logger, "fatal")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "level=CRITICAL")
}

func TestNewJSONWithFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "lkpatch.log")
	logger, closeFn, err := NewWithWriter(&buf, Options{Format: "json", File: path})
	require.NoError(t, err)
	logger.Info("loaded patches", "count", 6)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), data)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "loaded patches", record["msg"])
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, _, err := NewWithWriter(&bytes.Buffer{}, Options{Format: "xml"})
	assert.Error(t, err)
}

func TestHistoryAppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	for i := 0; i < 2; i++ {
		require.NoError(t, AppendHistory(path, map[string]int{"run": i}))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"run":1}`, lines[1])
}
