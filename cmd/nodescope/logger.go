package main

import (
	"io"
	"log/slog"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/npratt/nodescope/internal/config"
)

const debugLogName = "nodescope-debug.log"

// TUILoggerResult is a logger bound to the rotating debug log. The TUI owns
// the terminal, so nothing may be logged to stderr while it runs.
type TUILoggerResult struct {
	Logger   *slog.Logger
	LogFile  io.WriteCloser
	FilePath string
}

// Close closes the debug log.
func (r *TUILoggerResult) Close() error {
	if r.LogFile == nil {
		return nil
	}
	return r.LogFile.Close()
}

// SetupTUILogger logs to logDir/nodescope-debug.log, appending to what is
// there and rotating per rot.
func SetupTUILogger(logDir string, level slog.Leveler, rot config.LogRotationConfig) (*TUILoggerResult, error) {
	path := filepath.Join(logDir, debugLogName)
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	return &TUILoggerResult{
		Logger:   SetupLoggerWithWriter(w, level),
		LogFile:  w,
		FilePath: path,
	}, nil
}

// SetupLoggerWithWriter returns a JSON logger on w. level is usually the
// app's LevelVar so --verbose can lower it after construction.
func SetupLoggerWithWriter(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
