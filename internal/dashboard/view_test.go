package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svrroot/servicemon/internal/engine"
	"github.com/svrroot/servicemon/internal/probe"
	"github.com/svrroot/servicemon/internal/remote"
)

func TestView_InitialFrame(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()

	assert.Contains(t, view, "servicemon")
	assert.Contains(t, view, "operator@winbox")
	assert.Contains(t, view, "OFFLINE")
	assert.Contains(t, view, "Checking now")
	assert.Contains(t, view, "No events yet")
}

func TestView_RunningService(t *testing.T) {
	m, _ := idleModel(t)

	view := m.View()

	assert.Contains(t, view, "CONNECTED")
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "FileMaker Server")
	assert.Contains(t, view, "Automatic")
	assert.Contains(t, view, "Next check in 60s")
	assert.Contains(t, view, "Checks")
	assert.Contains(t, view, "Restarts")
}

func TestView_ServiceMissing(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(cycleDoneMsg{snap: engine.Snapshot{
		State:          engine.StateIdle,
		Connection:     remote.ConnectionState{Healthy: true},
		ServiceMissing: true,
	}})
	m = updated.(Model)

	assert.Contains(t, m.View(), "NOT FOUND")
}

func TestView_NoStatusThisCycle(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(cycleDoneMsg{snap: engine.Snapshot{
		State:      engine.StateIdle,
		Connection: remote.ConnectionState{Healthy: true},
	}})
	m = updated.(Model)

	assert.Contains(t, m.View(), "NO DATA")
}

func TestView_StoppedService(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(cycleDoneMsg{snap: engine.Snapshot{
		State:      engine.StateIdle,
		Connection: remote.ConnectionState{Healthy: true},
		Status:     &probe.Status{Code: probe.CodeStopped},
	}})
	m = updated.(Model)

	assert.Contains(t, m.View(), "STOPPED")
}

func TestView_EventFeed(t *testing.T) {
	m, _ := idleModel(t)
	m.events.Warn("Service is STOPPED - restarting...")
	m.events.Error("Connection failed (transport failure)")

	view := m.View()

	assert.Contains(t, view, "Service is running normally")
	assert.Contains(t, view, "Service is STOPPED - restarting...")
	assert.Contains(t, view, "Connection failed (transport failure)")
}

func TestView_ErrorCountInHeader(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(cycleDoneMsg{snap: engine.Snapshot{
		State:      engine.StateIdle,
		Connection: remote.ConnectionState{Healthy: true, ConsecutiveErrors: 2},
	}})
	m = updated.(Model)

	assert.Contains(t, m.View(), "2 errors")
}

func TestView_QuittingRendersNothing(t *testing.T) {
	m, _ := idleModel(t)
	m.quitting = true

	assert.Empty(t, m.View())
}

func TestCountdownColor(t *testing.T) {
	assert.Equal(t, ColorHealthy, CountdownColor(45*time.Second))
	assert.Equal(t, ColorWarning, CountdownColor(20*time.Second))
	assert.Equal(t, ColorCritical, CountdownColor(5*time.Second))
	assert.Equal(t, ColorCritical, CountdownColor(0))
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{2*time.Minute + 3*time.Second, "2m 03s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h 02m 03s"},
		{-time.Second, "0s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.d))
	}
}

func TestBoxWidth_Clamped(t *testing.T) {
	m, _ := newTestModel(t)
	require.Equal(t, 60, m.boxWidth(), "default before the first WindowSizeMsg")

	m.width = 30
	assert.Equal(t, 44, m.boxWidth())

	m.width = 200
	assert.Equal(t, 72, m.boxWidth())

	m.width = 66
	assert.Equal(t, 64, m.boxWidth())
}
