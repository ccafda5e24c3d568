package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetup_WritesToConsoleAndFile(t *testing.T) {
	var console, file bytes.Buffer
	log := Setup(&console, &file, "info")
	log.Info("gear shift", "to", 2)

	for _, out := range []string{console.String(), file.String()} {
		assert.Contains(t, out, "gear shift")
		assert.Contains(t, out, "to=2")
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf, nil, "info")
	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = Setup(nil, &buf, "debug")
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestSetup_RFC3339UTC(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, nil, "info").Info("x")
	out := buf.String()
	require.True(t, len(out) > len("time=")+20)

	start := len("time=")
	ts := out[start : start+len("2006-01-02T15:04:05Z")]
	_, err := time.Parse(time.RFC3339, ts)
	assert.NoError(t, err, "timestamp %q", ts)
	assert.Equal(t, byte('Z'), ts[len(ts)-1])
}

func TestSetup_NoWriters(t *testing.T) {
	log := Setup(nil, nil, "debug")
	assert.NotPanics(t, func() { log.Info("dropped") })
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	good := slog.NewTextHandler(&buf, nil)
	bad := failingHandler{slog.NewTextHandler(&bytes.Buffer{}, nil)}

	h := NewMultiHandler(bad, nil, good)
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still written", 0))
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, buf.String(), "still written")
}

func TestMultiHandler_AttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(slog.NewTextHandler(&a, nil), slog.NewTextHandler(&b, nil))
	log := slog.New(h).With("vehicle", "hatch").WithGroup("drive")
	log.Info("tick", "rpm", 3)

	for _, out := range []string{a.String(), b.String()} {
		assert.Contains(t, out, "vehicle=hatch")
		assert.Contains(t, out, "drive.rpm=3")
	}
	assert.Same(t, h, h.WithGroup(""))
}

func TestMultiHandler_Enabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestLogFilePath(t *testing.T) {
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := LogFilePath("logs", "vehicle-sim", start)
	assert.Equal(t, filepath.Join("logs", "vehicle-sim.20260304_050607.log"), got)
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	f, err := OpenLogFile(dir, "sim", start)
	require.NoError(t, err)
	_, err = f.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(LogFilePath(dir, "sim", start))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
