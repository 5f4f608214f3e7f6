package main

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(slog.LevelWarn, &buf)

	logger.Debug("hidden debug", nil)
	logger.Info("hidden info", nil)
	logger.Warn("shown warning", map[string]any{"hunk": 2})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below WARN should be dropped, got %q", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, `msg="shown warning" hunk=2`) {
		t.Errorf("unexpected output %q", out)
	}

	buf.Reset()
	logger.SetLevel(slog.LevelDebug)
	logger.Debug("now visible", nil)
	if !strings.Contains(buf.String(), `msg="now visible"`) {
		t.Errorf("SetLevel(debug) should let debug through, got %q", buf.String())
	}
}

func TestLoggerFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(slog.LevelInfo, &buf)

	logger.Info("request", map[string]any{"status": 200, "method": "POST", "path": "/diff/apply"})

	out := buf.String()
	method := strings.Index(out, "method=")
	path := strings.Index(out, "path=")
	status := strings.Index(out, "status=")
	if method < 0 || !(method < path && path < status) {
		t.Errorf("fields should be logged in key order, got %q", out)
	}
}

func TestLoggerStats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(slog.LevelInfo, &buf)

	if diff := cmp.Diff(LogStats{}, logger.Stats(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("new logger stats mismatch (-want +got):\n%s", diff)
	}

	logger.Warn("drifted hunk", nil)
	logger.Error("apply failed", errors.New("context mismatch"), nil)
	logger.Error("read failed", &fs.PathError{Op: "open", Path: "scene.md", Err: fs.ErrNotExist}, nil)
	logger.Error("request failed", nil, map[string]any{"status": 500})

	stats := logger.Stats()
	if stats.LastErrorAt.IsZero() {
		t.Error("LastErrorAt should be set after an error")
	}
	want := LogStats{
		Warnings:  1,
		Errors:    3,
		ByType:    map[string]int{"*errors.errorString": 1, "*fs.PathError": 1},
		LastError: "request failed",
	}
	if diff := cmp.Diff(want, stats, cmpopts.IgnoreFields(LogStats{}, "LastErrorAt")); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), `error="context mismatch"`) {
		t.Errorf("error should be logged as a field, got %q", buf.String())
	}

	// The returned stats are a copy.
	stats.ByType["*errors.errorString"] = 99
	if logger.Stats().ByType["*errors.errorString"] != 1 {
		t.Error("Stats() should not expose internal state")
	}
}

func TestLoggerStatsSkipFilteredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(slog.LevelError, &buf)

	logger.Warn("filtered warning", nil)
	logger.Error("kept", errors.New("boom"), nil)

	stats := logger.Stats()
	if stats.Warnings != 0 || stats.Errors != 1 || stats.LastError != "kept: boom" {
		t.Errorf("stats = %+v, want only the written error", stats)
	}
}

func TestLoggerSetOutput(t *testing.T) {
	var first, second bytes.Buffer
	logger := NewWriterLogger(slog.LevelInfo, &first)
	logger.Warn("before", nil)

	logger.SetOutput(&second)
	logger.Info("moved", nil)

	if strings.Contains(first.String(), "moved") || !strings.Contains(second.String(), "msg=moved") {
		t.Errorf("first = %q, second = %q", first.String(), second.String())
	}
	if got := logger.Stats().Warnings; got != 1 {
		t.Errorf("Warnings after SetOutput = %d, want 1", got)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() without a file error = %v", err)
	}
}

func TestStatsFields(t *testing.T) {
	got := statsFields(LogStats{Warnings: 2, Errors: 1, LastError: "apply failed"}, map[string]any{"command": "apply"})
	want := map[string]any{"command": "apply", "warnings": 2, "errors": 1, "last_error": "apply failed"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("statsFields() mismatch (-want +got):\n%s", diff)
	}

	if _, ok := statsFields(LogStats{}, nil)["last_error"]; ok {
		t.Error("statsFields() should omit an empty last_error")
	}
}
