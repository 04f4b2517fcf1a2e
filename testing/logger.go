// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/juju/loggo/v2"
)

// NoopLogger is a logger that does nothing.
type NoopLogger struct{}

func (NoopLogger) Criticalf(string, ...any) {}
func (NoopLogger) Errorf(string, ...any)    {}
func (NoopLogger) Warningf(string, ...any)  {}
func (NoopLogger) Infof(string, ...any)     {}
func (NoopLogger) Debugf(string, ...any)    {}
func (NoopLogger) Tracef(string, ...any)    {}

// CheckLog is an interface that can be used to log messages to a
// *testing.T or *check.C.
type CheckLog interface {
	Logf(string, ...any)
}

// CheckLogger is a logger that logs to a *testing.T or *check.C.
type CheckLogger struct {
	Log CheckLog
}

// NewCheckLogger returns a CheckLogger that logs to the given CheckLog.
func NewCheckLogger(log CheckLog) CheckLogger {
	return CheckLogger{Log: log}
}

func (c CheckLogger) Criticalf(msg string, args ...any) {
	c.Log.Logf(fmt.Sprintf("CRITICAL: %s", msg), args...)
}
func (c CheckLogger) Errorf(msg string, args ...any) {
	c.Log.Logf(fmt.Sprintf("ERROR: %s", msg), args...)
}
func (c CheckLogger) Warningf(msg string, args ...any) {
	c.Log.Logf(fmt.Sprintf("WARNING: %s", msg), args...)
}
func (c CheckLogger) Infof(msg string, args ...any) {
	c.Log.Logf(fmt.Sprintf("INFO: %s", msg), args...)
}
func (c CheckLogger) Debugf(msg string, args ...any) {
	c.Log.Logf(fmt.Sprintf("DEBUG: %s", msg), args...)
}
func (c CheckLogger) Tracef(msg string, args ...any) {
	c.Log.Logf(fmt.Sprintf("TRACE: %s", msg), args...)
}

// Entry is one message captured by a RecordingLogger.
type Entry struct {
	Level   loggo.Level
	Message string
}

// RecordingLogger captures every message logged through it, so tests can
// assert on warnings emitted for malformed input.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *RecordingLogger) record(level loggo.Level, msg string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: fmt.Sprintf(msg, args...)})
}

func (r *RecordingLogger) Criticalf(msg string, args ...any) { r.record(loggo.CRITICAL, msg, args...) }
func (r *RecordingLogger) Errorf(msg string, args ...any)    { r.record(loggo.ERROR, msg, args...) }
func (r *RecordingLogger) Warningf(msg string, args ...any)  { r.record(loggo.WARNING, msg, args...) }
func (r *RecordingLogger) Infof(msg string, args ...any)     { r.record(loggo.INFO, msg, args...) }
func (r *RecordingLogger) Debugf(msg string, args ...any)    { r.record(loggo.DEBUG, msg, args...) }
func (r *RecordingLogger) Tracef(msg string, args ...any)    { r.record(loggo.TRACE, msg, args...) }

// Entries returns a copy of the captured messages.
func (r *RecordingLogger) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// Messages returns the captured messages at the given level.
func (r *RecordingLogger) Messages(level loggo.Level) []string {
	var result []string
	for _, entry := range r.Entries() {
		if entry.Level == level {
			result = append(result, entry.Message)
		}
	}
	return result
}

// Warnings returns the captured warning messages.
func (r *RecordingLogger) Warnings() []string {
	return r.Messages(loggo.WARNING)
}

// Errors returns the captured error messages.
func (r *RecordingLogger) Errors() []string {
	return r.Messages(loggo.ERROR)
}

// Contains reports whether any captured message at the given level
// contains the substring.
func (r *RecordingLogger) Contains(level loggo.Level, substr string) bool {
	for _, msg := range r.Messages(level) {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
