package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const logFileName = "scenepatch.log"

// Logger writes logfmt records through slog and keeps a running tally of the warnings and
// errors it has written, which the serve command reports on /healthz.
type Logger struct {
	level  *slog.LevelVar
	counts *logCounts
	file   *os.File

	mu     sync.Mutex
	logger *slog.Logger
}

// LogStats summarises the warnings and errors a Logger has written.
type LogStats struct {
	Warnings    int            `json:"warnings"`
	Errors      int            `json:"errors"`
	ByType      map[string]int `json:"by_type,omitempty"`
	LastError   string         `json:"last_error,omitempty"`
	LastErrorAt time.Time      `json:"last_error_at,omitzero"`
}

// NewWriterLogger creates a logger that writes records at level or above to w.
func NewWriterLogger(level slog.Level, w io.Writer) *Logger {
	l := &Logger{
		level:  new(slog.LevelVar),
		counts: &logCounts{byType: make(map[string]int)},
	}
	l.level.Set(level)
	l.logger = l.newSlogLogger(w)
	return l
}

// NewLogger creates a logger appending to scenepatch.log in the temp directory.
// If the file cannot be opened, the logger writes to stderr and the error is returned.
func NewLogger(level slog.Level) (*Logger, error) {
	l := NewWriterLogger(level, os.Stderr)

	path := filepath.Join(os.TempDir(), logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return l, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	l.file = file
	l.SetOutput(file)
	return l, nil
}

func (l *Logger) newSlogLogger(w io.Writer) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{Level: l.level})
	return slog.New(countingHandler{Handler: text, counts: l.counts})
}

// SetOutput redirects later records to w. The level and the tallies carry over.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = l.newSlogLogger(w)
}

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Stats returns a snapshot of the warning and error tallies.
func (l *Logger) Stats() LogStats {
	return l.counts.snapshot()
}

func (l *Logger) log(level slog.Level, msg string, err error, fields map[string]any) {
	l.mu.Lock()
	logger := l.logger
	l.mu.Unlock()

	args := make([]any, 0, 2*len(fields)+2)
	if err != nil {
		args = append(args, "error", err)
	}
	for _, key := range sortedFieldKeys(fields) {
		args = append(args, key, fields[key])
	}
	logger.Log(context.Background(), level, msg, args...)
}

func (l *Logger) Debug(msg string, fields map[string]any) {
	l.log(slog.LevelDebug, msg, nil, fields)
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log(slog.LevelInfo, msg, nil, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log(slog.LevelWarn, msg, nil, fields)
}

// Error logs msg at error level with err under the "error" key.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	l.log(slog.LevelError, msg, err, fields)
}

// Close closes the log file if one is open.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// statsFields flattens s into log fields.
func statsFields(s LogStats, fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		out[k] = v
	}
	out["warnings"] = s.Warnings
	out["errors"] = s.Errors
	if s.LastError != "" {
		out["last_error"] = s.LastError
	}
	return out
}

// countingHandler tallies every record that passes the level check before handing it on.
type countingHandler struct {
	slog.Handler
	counts *logCounts
}

func (h countingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.counts.record(r)
	return h.Handler.Handle(ctx, r)
}

func (h countingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return countingHandler{Handler: h.Handler.WithAttrs(attrs), counts: h.counts}
}

func (h countingHandler) WithGroup(name string) slog.Handler {
	return countingHandler{Handler: h.Handler.WithGroup(name), counts: h.counts}
}

type logCounts struct {
	mu          sync.Mutex
	warnings    int
	errors      int
	byType      map[string]int
	lastError   string
	lastErrorAt time.Time
}

func (c *logCounts) record(r slog.Record) {
	if r.Level < slog.LevelWarn {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Level < slog.LevelError {
		c.warnings++
		return
	}

	c.errors++
	c.lastError = r.Message
	c.lastErrorAt = r.Time
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "error" {
			return true
		}
		if err, ok := a.Value.Any().(error); ok {
			c.byType[fmt.Sprintf("%T", err)]++
			c.lastError += ": " + err.Error()
		}
		return false
	})
}

func (c *logCounts) snapshot() LogStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return LogStats{
		Warnings:    c.warnings,
		Errors:      c.errors,
		ByType:      copyMap(c.byType),
		LastError:   c.lastError,
		LastErrorAt: c.lastErrorAt,
	}
}
