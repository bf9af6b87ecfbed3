// Package eventlog holds the append-only, timestamped message log shared by
// the pipeline (writer) and the dashboard (reader).
package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/romso/r4d4r/internal/domain"
)

// Log is a goroutine-safe append-only sequence of entries. Entries are never
// removed or reordered; the log grows for the lifetime of the run.
type Log struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
	now     func() time.Time
}

var (
	_ domain.EventSink = (*Log)(nil)
	_ domain.LogTail   = (*Log)(nil)
)

// New creates an empty log stamped with the wall clock.
func New() *Log {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty log that stamps entries with now.
func NewWithClock(now func() time.Time) *Log {
	return &Log{now: now}
}

// Append adds one entry and returns it.
func (l *Log) Append(level domain.Level, text string) domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := domain.LogEntry{
		Seq:   len(l.entries),
		Time:  l.now(),
		Level: level,
		Text:  text,
	}
	l.entries = append(l.entries, e)
	return e
}

// Appendf formats according to a format specifier and appends the result.
func (l *Log) Appendf(level domain.Level, format string, args ...any) domain.LogEntry {
	return l.Append(level, fmt.Sprintf(format, args...))
}

// Recent returns up to n of the newest entries in append order.
// The returned slice is a copy and safe to keep.
func (l *Log) Recent(n int) []domain.LogEntry {
	if n <= 0 {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	start := len(l.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]domain.LogEntry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out
}

// Len returns the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
