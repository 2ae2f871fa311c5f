package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/nodescope/internal/config"
	"github.com/npratt/nodescope/internal/testutil"
)

func tuiLogger(t *testing.T, dir string, level slog.Leveler) *TUILoggerResult {
	t.Helper()
	res, err := SetupTUILogger(dir, level, config.Default().LogRotation)
	require.NoError(t, err)
	return res
}

func TestSetupTUILogger_WritesJSONToFile(t *testing.T) {
	dir := t.TempDir()
	res := tuiLogger(t, dir, slog.LevelInfo)
	assert.Equal(t, filepath.Join(dir, "nodescope-debug.log"), res.FilePath)

	res.Logger.Info("graph loaded", "nodes", 6)
	require.NoError(t, res.Close())

	content := testutil.ReadFile(t, res.FilePath)
	assert.Contains(t, content, `"msg":"graph loaded"`)
	assert.Contains(t, content, `"nodes":6`)
}

func TestSetupTUILogger_KeepsStderrClean(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	saved := os.Stderr
	os.Stderr = w
	t.Cleanup(func() { os.Stderr = saved })

	res := tuiLogger(t, t.TempDir(), slog.LevelInfo)
	res.Logger.Warn("layout stalled")
	_ = res.Close()

	_ = w.Close()
	os.Stderr = saved
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	assert.Empty(t, buf.String())
}

func TestSetupTUILogger_Appends(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "nodescope-debug.log", "earlier run\n")

	res := tuiLogger(t, dir, slog.LevelInfo)
	res.Logger.Info("later run")
	require.NoError(t, res.Close())

	content := testutil.ReadFile(t, res.FilePath)
	assert.Contains(t, content, "earlier run")
	assert.Contains(t, content, "later run")
}

func TestSetupTUILogger_FollowsLevelVar(t *testing.T) {
	level := &slog.LevelVar{}
	level.Set(slog.LevelWarn)
	res := tuiLogger(t, t.TempDir(), level)

	res.Logger.Info("hidden info")
	res.Logger.Warn("shown warn")
	level.Set(slog.LevelDebug)
	res.Logger.Debug("shown debug")
	require.NoError(t, res.Close())

	content := testutil.ReadFile(t, res.FilePath)
	assert.NotContains(t, content, "hidden info")
	assert.Contains(t, content, "shown warn")
	assert.Contains(t, content, "shown debug")
}

func TestSetupLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	SetupLoggerWithWriter(&buf, slog.LevelInfo).Info("serving", "addr", "127.0.0.1:8080")

	assert.Contains(t, buf.String(), `"addr":"127.0.0.1:8080"`)
}
