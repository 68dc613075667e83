package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svrroot/servicemon/internal/eventlog"
	"github.com/svrroot/servicemon/internal/probe"
	"github.com/svrroot/servicemon/internal/remote"
	"github.com/svrroot/servicemon/pkg/sshexec"
	sshtest "github.com/svrroot/servicemon/pkg/sshexec/testing"
)

const serviceName = "FileMaker Server"

type harness struct {
	engine  *Engine
	session *remote.Session
	runner  *sshtest.MockRunner
	events  *eventlog.Log
	dials   int
	handles []*dialHandle
}

// dialHandle gives each dial its own closable wrapper around the shared mock.
// Reconnect closes the previous handle; that must not take the shared matcher
// table down with it.
type dialHandle struct {
	*sshtest.MockRunner
	closed bool
}

func (d *dialHandle) Close() error {
	d.closed = true
	return nil
}

// newHarness wires an engine to a mock transport. The mock answers the
// liveness echo by default; tests register service responses on top.
func newHarness(t *testing.T, maxErrors int) *harness {
	t.Helper()

	h := &harness{
		runner: sshtest.NewMockRunner().
			On("echo OK", sshtest.Response{Output: "OK\n"}),
		events: eventlog.New("", 0, 16),
	}
	h.session = remote.NewSession(sshexec.Endpoint{Host: "winbox"}, maxErrors,
		remote.WithDialFunc(func(sshexec.Endpoint, time.Duration) (sshexec.Runner, error) {
			h.dials++
			handle := &dialHandle{MockRunner: h.runner}
			h.handles = append(h.handles, handle)
			return handle, nil
		}))
	h.engine = New(h.session, h.events, Config{
		ServiceName:               serviceName,
		RemediationTimeoutSeconds: 60,
	})
	return h
}

func (h *harness) eventCount(substr string) int {
	count := 0
	for _, e := range h.events.Recent() {
		if strings.Contains(e.Message, substr) {
			count++
		}
	}
	return count
}

func TestTick_ConnectsThenProbes(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"})

	snap := h.engine.Tick()

	assert.Equal(t, StateIdle, snap.State)
	assert.True(t, snap.Connection.Healthy)
	require.NotNil(t, snap.Status)
	assert.Equal(t, probe.CodeRunning, snap.Status.Code)
	assert.Equal(t, 1, snap.Counters.CheckCount)
	assert.Equal(t, 1, h.dials)
}

func TestTick_RunningLoggedOnTransitionOnly(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"})

	h.engine.Tick()
	h.engine.Tick()

	assert.Equal(t, 1, h.eventCount("running normally"),
		"two consecutive running observations must log exactly once")
}

func TestTick_RunningLoggedAgainAfterRecovery(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"})

	h.engine.Tick()

	// Service disappears for a cycle, then comes back.
	h.runner.Set("Get-Service", sshtest.Response{Output: "NOT_FOUND\n"})
	h.engine.Tick()
	h.runner.Set("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"})
	h.engine.Tick()

	assert.Equal(t, 2, h.eventCount("running normally"))
}

func TestTick_RemediationSuccessOptimisticStatus(t *testing.T) {
	h := newHarness(t, 3)
	// The start script polls via Get-Service too, so its matcher goes first.
	h.runner.
		On("Start-Service", sshtest.Response{Output: "SUCCESS\n"}).
		On("Get-Service", sshtest.Response{Output: "1|FileMaker Server|Automatic\n"})

	snap := h.engine.Tick()

	// Effective status is optimistically running without a confirming
	// re-probe (original behavior, kept deliberately; next cycle re-probes).
	require.NotNil(t, snap.Status)
	assert.Equal(t, probe.CodeRunning, snap.Status.Code)
	assert.Equal(t, 1, snap.Counters.RestartCount)
	assert.Equal(t, 1, h.eventCount("successfully started"))

	// Only one Start-Service script per cycle: no remediation storms.
	starts := 0
	for _, s := range h.runner.Scripts {
		if strings.Contains(s, "Start-Service") {
			starts++
		}
	}
	assert.Equal(t, 1, starts)
}

func TestTick_RemediationSuppressesNextRunningEdge(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.
		On("Start-Service", sshtest.Response{Output: "SUCCESS\n"}).
		On("Get-Service", sshtest.Response{Output: "1|FileMaker Server|Automatic\n"})

	h.engine.Tick()

	// Next cycle observes running for real; the edge was already consumed by
	// the optimistic post-remediation status.
	h.runner.Set("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"})
	h.engine.Tick()

	assert.Equal(t, 0, h.eventCount("running normally"))
}

func TestTick_RemediationTimeout(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.
		On("Start-Service", sshtest.Response{Output: "TIMEOUT\n", HadErrors: true}).
		On("Get-Service", sshtest.Response{Output: "1|FileMaker Server|Automatic\n"})

	snap := h.engine.Tick()

	assert.Equal(t, 0, snap.Counters.RestartCount)
	require.NotNil(t, snap.Status)
	assert.Equal(t, probe.CodeStopped, snap.Status.Code, "timeout keeps the observed status")
	assert.Equal(t, 1, h.eventCount("did not reach running"))
	assert.Equal(t, StateIdle, snap.State, "a failed remediation never halts the loop")
}

func TestTick_RemediationFailureCarriesReason(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.
		On("Start-Service", sshtest.Response{Output: "ERROR: Access is denied\n", HadErrors: true}).
		On("Get-Service", sshtest.Response{Output: "1|FileMaker Server|Automatic\n"})

	snap := h.engine.Tick()

	assert.Equal(t, 0, snap.Counters.RestartCount)
	assert.Equal(t, 1, h.eventCount("Access is denied"))
}

func TestTick_ServiceMissingNoRemediation(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Output: "NOT_FOUND\n"})

	snap := h.engine.Tick()

	assert.True(t, snap.ServiceMissing)
	assert.Nil(t, snap.Status)
	assert.True(t, snap.Connection.Healthy, "absence is not a connection problem")
	assert.Equal(t, 1, h.eventCount("not found"))

	for _, s := range h.runner.Scripts {
		assert.NotContains(t, s, "Start-Service", "nothing to start when the service doesn't exist")
	}
}

func TestTick_MalformedResponseKeepsHealth(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Output: "4|OnlyTwoFields\n"})

	snap := h.engine.Tick()

	assert.Nil(t, snap.Status)
	assert.False(t, snap.ServiceMissing)
	assert.True(t, snap.Connection.Healthy)
	assert.Equal(t, 0, snap.Connection.ConsecutiveErrors)
	assert.Equal(t, 1, h.eventCount("Malformed"))
}

func TestTick_ProbeFailureCeilingForcesReconnect(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Err: fmt.Errorf("session torn down")})

	// Ticks 1-3: failures accumulate but stay under the ceiling.
	for i := 0; i < 3; i++ {
		snap := h.engine.Tick()
		assert.True(t, snap.Connection.Healthy, "tick %d", i+1)
	}

	// Tick 4 exceeds the ceiling.
	snap := h.engine.Tick()
	assert.False(t, snap.Connection.Healthy)
	assert.Equal(t, StateDisconnected, snap.State)
	assert.Equal(t, 1, h.dials)

	// Tick 5 reconnects before probing again. The probe still fails, but a
	// fresh connect resets the error count, so health holds.
	snap = h.engine.Tick()
	assert.Equal(t, 2, h.dials)
	assert.True(t, snap.Connection.Healthy)
	assert.True(t, h.handles[0].closed, "reconnect must discard the old handle")
}

func TestTick_ConnectFailureCoolsDown(t *testing.T) {
	events := eventlog.New("", 0, 16)
	dials := 0
	session := remote.NewSession(sshexec.Endpoint{Host: "winbox"}, 3,
		remote.WithDialFunc(func(sshexec.Endpoint, time.Duration) (sshexec.Runner, error) {
			dials++
			return nil, fmt.Errorf("no route to host")
		}))
	e := New(session, events, Config{ServiceName: serviceName})

	snap1 := e.Tick()
	snap2 := e.Tick()

	assert.Equal(t, StateCoolingDown, snap1.State)
	assert.Equal(t, StateCoolingDown, snap2.State)
	assert.Equal(t, 2, dials, "connect retries forever, once per tick")
	assert.Equal(t, 2, snap2.Counters.CheckCount, "counters update even on reconnect-only ticks")
	assert.False(t, snap2.Counters.LastCheckTime.IsZero())
}

func TestManualRestart_SuccessCountsAsRestart(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.
		On("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"}).
		On("Restart-Service", sshtest.Response{Output: "SUCCESS\n"})

	h.engine.Tick()
	h.engine.ManualRestart()

	assert.Equal(t, 1, h.engine.Counters().RestartCount)
	assert.Equal(t, 1, h.eventCount("Service restarted"))
}

func TestManualRestart_FailureDoesNotCount(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.
		On("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"}).
		On("Restart-Service", sshtest.Response{Output: "ERROR: Access is denied\n"})

	h.engine.Tick()
	h.engine.ManualRestart()

	assert.Equal(t, 0, h.engine.Counters().RestartCount)
	assert.Equal(t, 1, h.eventCount("Restart failed"))
}

func TestManualRestart_RequiresConnection(t *testing.T) {
	h := newHarness(t, 3)

	// Never ticked: no session established.
	h.engine.ManualRestart()

	assert.Equal(t, 0, h.engine.Counters().RestartCount)
	assert.Equal(t, 1, h.eventCount("No connection"))
}

func TestForceReconnect_NextTickReplacesHandle(t *testing.T) {
	h := newHarness(t, 3)
	h.runner.On("Get-Service", sshtest.Response{Output: "4|FileMaker Server|Automatic\n"})

	h.engine.Tick()
	require.Equal(t, 1, h.dials)

	h.engine.ForceReconnect()
	assert.False(t, h.session.Healthy())

	h.engine.Tick()
	assert.Equal(t, 2, h.dials)
	assert.True(t, h.session.Healthy(), "reconnect must yield a working handle")
	assert.True(t, h.handles[0].closed)
	assert.False(t, h.handles[1].closed)
}

func TestState_Labels(t *testing.T) {
	tests := []struct {
		state  State
		expect string
	}{
		{StateDisconnected, "disconnected"},
		{StateIdle, "idle"},
		{StateChecking, "checking"},
		{StateRemediating, "remediating"},
		{StateCoolingDown, "cooling down"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, tt.state.String())
	}
}
