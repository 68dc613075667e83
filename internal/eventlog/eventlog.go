// Package eventlog keeps the operator-visible event history: a small
// in-memory ring for the dashboard plus a durable append-only file with
// one-generation size rotation.
package eventlog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Level classifies an event for display and filtering.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is a single timestamped event. Immutable once appended.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// DefaultRingSize is how many recent entries the dashboard shows.
const DefaultRingSize = 4

// BackupSuffix is appended to the log path for the single rotation backup.
const BackupSuffix = ".old"

// Log appends entries to a durable file and retains the most recent few in
// memory. Durable writes are best-effort: Append returns the write error so
// callers can consciously discard it; monitoring never stops because a log
// line didn't land on disk.
type Log struct {
	path     string
	maxSize  int64
	ringSize int
	ring     []Entry
	now      func() time.Time
}

// New creates a Log writing to path, rotating once the file exceeds maxSize
// bytes. ringSize controls the in-memory window (DefaultRingSize if <= 0).
func New(path string, maxSize int64, ringSize int) *Log {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	return &Log{
		path:     path,
		maxSize:  maxSize,
		ringSize: ringSize,
		now:      time.Now,
	}
}

// Path returns the durable log file location.
func (l *Log) Path() string {
	return l.path
}

// Append records an event in the ring and appends it to the durable file,
// rotating first if the file has outgrown the ceiling. The in-memory ring is
// always updated, even when the durable write fails.
func (l *Log) Append(level Level, message string) error {
	entry := Entry{Time: l.now(), Level: level, Message: message}

	l.ring = append(l.ring, entry)
	if len(l.ring) > l.ringSize {
		l.ring = l.ring[1:]
	}

	return l.persist(entry)
}

// Info appends an INFO entry, discarding the durable write error.
func (l *Log) Info(format string, args ...interface{}) {
	_ = l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a WARN entry, discarding the durable write error.
func (l *Log) Warn(format string, args ...interface{}) {
	_ = l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an ERROR entry, discarding the durable write error.
func (l *Log) Error(format string, args ...interface{}) {
	_ = l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Recent returns a copy of the in-memory ring, oldest first.
func (l *Log) Recent() []Entry {
	out := make([]Entry, len(l.ring))
	copy(out, l.ring)
	return out
}

// FormatEntry renders an entry in the durable file format:
// [YYYY-MM-DD HH:MM:SS] [LEVEL] message
func FormatEntry(e Entry) string {
	return fmt.Sprintf("[%s] [%s] %s", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Message)
}

func (l *Log) persist(entry Entry) error {
	if l.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}

	if err := l.rotateIfNeeded(); err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(FormatEntry(entry) + "\n")
	return err
}

// rotateIfNeeded moves the log aside once it exceeds the size ceiling.
// One generation only: a previous backup is discarded.
func (l *Log) rotateIfNeeded() error {
	if l.maxSize <= 0 {
		return nil
	}

	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() <= l.maxSize {
		return nil
	}

	backup := l.path + BackupSuffix
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(l.path, backup)
}
