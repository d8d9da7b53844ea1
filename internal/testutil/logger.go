// Package testutil holds logging helpers shared by package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a debug logger writing through t.Log, so records
// show up only for failing tests or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

// LogRecorder captures the records of a logger for assertions. It is safe
// for concurrent use.
type LogRecorder struct {
	Logger *slog.Logger

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogRecorder returns a recorder whose Logger keeps debug records.
func NewLogRecorder() *LogRecorder {
	r := &LogRecorder{}
	r.Logger = slog.New(slog.NewJSONHandler(r, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return r
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// Records returns every record logged so far, decoded into attribute maps.
func (r *LogRecorder) Records() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(r.buf.Bytes()))
	for dec.More() {
		rec := map[string]any{}
		if err := dec.Decode(&rec); err != nil {
			break
		}
		out = append(out, rec)
	}
	return out
}

// Count returns how many records carry msg.
func (r *LogRecorder) Count(msg string) int {
	n := 0
	for _, rec := range r.Records() {
		if rec[slog.MessageKey] == msg {
			n++
		}
	}
	return n
}
