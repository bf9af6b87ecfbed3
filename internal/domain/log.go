package domain

import "time"

// Level classifies a log entry for rendering.
type Level int

const (
	LevelInfo Level = iota
	LevelStart
	LevelDone
	LevelWarn
	LevelError
	LevelBanner
)

// LogEntry is one immutable line of the shared event log.
type LogEntry struct {
	Seq   int
	Time  time.Time
	Level Level
	Text  string
}

// EventSink is the port the pipeline uses to report progress.
type EventSink interface {
	Append(level Level, text string) LogEntry
	Appendf(level Level, format string, args ...any) LogEntry
}

// LogTail is the read side of the event log used by the display.
type LogTail interface {
	Recent(n int) []LogEntry
}
