package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T, maxSize int64, ringSize int) *Log {
	t.Helper()
	l := New(filepath.Join(t.TempDir(), "monitor.log"), maxSize, ringSize)
	l.now = func() time.Time {
		return time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)
	}
	return l
}

func TestAppend_DurableFormat(t *testing.T) {
	l := newTestLog(t, 0, 4)

	require.NoError(t, l.Append(LevelInfo, "Remote service monitor started"))

	data, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, "[2026-08-25 14:30:05] [INFO] Remote service monitor started\n", string(data))
}

func TestAppend_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "monitor.log")
	l := New(path, 0, 4)

	require.NoError(t, l.Append(LevelWarn, "service is STOPPED - restarting..."))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRing_EvictsOldestFirst(t *testing.T) {
	l := newTestLog(t, 0, 4)

	for _, msg := range []string{"one", "two", "three", "four", "five"} {
		l.Info("%s", msg)
	}

	recent := l.Recent()
	require.Len(t, recent, 4)
	assert.Equal(t, "two", recent[0].Message)
	assert.Equal(t, "five", recent[3].Message)
}

func TestRing_UpdatedEvenWhenDurableWriteFails(t *testing.T) {
	// Point the log at a path whose parent is a file, so MkdirAll fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	l := New(filepath.Join(blocker, "monitor.log"), 0, 4)
	err := l.Append(LevelError, "restart failed")

	assert.Error(t, err)
	require.Len(t, l.Recent(), 1)
	assert.Equal(t, "restart failed", l.Recent()[0].Message)
}

func TestRotation_SingleBackupGeneration(t *testing.T) {
	l := newTestLog(t, 64, 4)

	// Fill past the ceiling
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Append(LevelInfo, strings.Repeat("x", 40)))
	}

	// The next write lands in a fresh file; old content is in the backup.
	require.NoError(t, l.Append(LevelInfo, "after rotation"))

	backup, err := os.ReadFile(l.Path() + BackupSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(backup), strings.Repeat("x", 40))

	fresh, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Contains(t, string(fresh), "after rotation")
	assert.NotContains(t, string(fresh), strings.Repeat("x", 40))
}

func TestRotation_NoEntriesLostAcrossBoundary(t *testing.T) {
	// Each line is 37 bytes; the ceiling trips exactly once, on the sixth write.
	l := newTestLog(t, 150, 8)

	total := 6
	for i := 0; i < total; i++ {
		l.Info("entry %d", i)
	}

	count := 0
	for _, path := range []string{l.Path(), l.Path() + BackupSuffix} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		count += strings.Count(string(data), "entry ")
	}
	assert.Equal(t, total, count)
}

func TestRotation_OldBackupDiscarded(t *testing.T) {
	l := newTestLog(t, 16, 4)

	require.NoError(t, l.Append(LevelInfo, strings.Repeat("a", 32)))
	require.NoError(t, l.Append(LevelInfo, strings.Repeat("b", 32))) // rotates a's
	require.NoError(t, l.Append(LevelInfo, "final"))                 // rotates b's, discards a's

	backup, err := os.ReadFile(l.Path() + BackupSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(backup), strings.Repeat("b", 32))
	assert.NotContains(t, string(backup), strings.Repeat("a", 32))
}

func TestHelpers_DiscardWriteErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	l := New(filepath.Join(blocker, "monitor.log"), 0, 4)

	// Must not panic or surface the failure
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Len(t, l.Recent(), 3)
}
