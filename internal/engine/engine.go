// Package engine runs the poll→evaluate→remediate→log cycle and owns the
// reconnect policy. One Tick is one complete cycle; the interactive layer
// decides when ticks happen.
package engine

import (
	stderrors "errors"
	"time"

	"github.com/svrroot/servicemon/internal/errors"
	"github.com/svrroot/servicemon/internal/eventlog"
	"github.com/svrroot/servicemon/internal/logger"
	"github.com/svrroot/servicemon/internal/probe"
	"github.com/svrroot/servicemon/internal/remediate"
	"github.com/svrroot/servicemon/internal/remote"
)

// State is the engine's position in its cycle, as shown on the dashboard.
type State int

const (
	// StateDisconnected: no healthy session; next tick attempts a connect.
	StateDisconnected State = iota
	// StateIdle: connected, waiting for the next tick.
	StateIdle
	// StateChecking: probing the service (transient within a tick).
	StateChecking
	// StateRemediating: a start is in flight (transient within a tick).
	StateRemediating
	// StateCoolingDown: a connect attempt failed; holding the retry delay
	// before trying again. Never fatal; retries continue indefinitely.
	StateCoolingDown
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateRemediating:
		return "remediating"
	case StateCoolingDown:
		return "cooling down"
	default:
		return "unknown"
	}
}

// Counters are the monotonically updated run statistics.
type Counters struct {
	StartTime     time.Time
	CheckCount    int
	RestartCount  int
	LastCheckTime time.Time
}

// Snapshot is what one tick hands the renderer: pure data, no behavior.
type Snapshot struct {
	State      State
	Connection remote.ConnectionState
	Counters   Counters

	// Status is the cycle's effective status. After a successful remediation
	// it is optimistically set to running without a confirming re-probe; the
	// next cycle re-probes anyway. Nil when no status was obtained.
	Status *probe.Status

	// ServiceMissing is true when the remote side answered definitively that
	// no such service exists (a valid absence, not an error).
	ServiceMissing bool
}

// Config carries the engine's tunables.
type Config struct {
	ServiceName               string
	RemediationTimeoutSeconds int
}

// Engine drives the monitoring cycle against one session.
type Engine struct {
	session    *remote.Session
	probe      *probe.Probe
	remediator *remediate.Remediator
	events     *eventlog.Log
	log        logger.Logger
	cfg        Config

	state    State
	counters Counters

	// lastCode is the previous cycle's effective status code; used for
	// edge-triggered "running normally" logging. hasLast distinguishes
	// "never observed" from any real code.
	lastCode probe.Code
	hasLast  bool

	now func() time.Time
}

// New creates an engine over an established (or establishable) session.
func New(session *remote.Session, events *eventlog.Log, cfg Config) *Engine {
	if cfg.RemediationTimeoutSeconds <= 0 {
		cfg.RemediationTimeoutSeconds = 60
	}
	e := &Engine{
		session:    session,
		probe:      probe.New(session),
		remediator: remediate.New(session),
		events:     events,
		log:        logger.NewEnvLogger("[engine]"),
		cfg:        cfg,
		state:      StateDisconnected,
		now:        time.Now,
	}
	e.counters.StartTime = e.now()
	return e
}

// Counters returns the current run statistics.
func (e *Engine) Counters() Counters {
	return e.counters
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// Tick runs one complete cycle: reconnect if needed, probe, evaluate,
// remediate, log. It blocks for the duration of the remote calls and never
// returns an error: every failure is absorbed into the snapshot and the
// event log. The engine only stops when the interactive layer stops calling.
func (e *Engine) Tick() Snapshot {
	e.counters.CheckCount++
	e.counters.LastCheckTime = e.now()

	if !e.session.Healthy() {
		if !e.reconnect() {
			e.state = StateCoolingDown
			return e.snapshot(nil, false)
		}
	}

	e.state = StateChecking
	status, missing := e.observe()

	if missing {
		e.events.Error("Service '%s' not found", e.cfg.ServiceName)
	}

	if status != nil && !status.Running() {
		status = e.remediateCycle(status)
	} else if status.Running() {
		// Edge-triggered: log only on a transition into running.
		if !e.hasLast || e.lastCode != probe.CodeRunning {
			e.events.Info("Service is running normally")
		}
	}

	e.rememberEffective(status)

	if e.session.Healthy() {
		e.state = StateIdle
	} else {
		e.state = StateDisconnected
	}
	return e.snapshot(status, missing)
}

// ManualRestart performs a forced restart outside the normal remediation
// path, logging the outcome. A success counts as a restart.
func (e *Engine) ManualRestart() {
	e.events.Info("Manual restart requested")

	if !e.session.Healthy() {
		e.events.Error("No connection to the server")
		return
	}

	if err := e.remediator.Restart(e.cfg.ServiceName); err != nil {
		e.events.Error("Restart failed: %s", errMessage(err))
		return
	}
	e.counters.RestartCount++
	e.events.Info("Service restarted")
}

// ForceReconnect marks the connection unhealthy so the next tick replaces it.
func (e *Engine) ForceReconnect() {
	e.events.Info("Manual reconnect requested")
	e.session.ForceUnhealthy()
}

// reconnect attempts to (re-)establish the session, logging the outcome.
func (e *Engine) reconnect() bool {
	e.events.Warn("Attempting to restore connection...")
	if err := e.session.Connect(); err != nil {
		kind := e.session.State().LastFailure
		e.events.Error("Connection failed (%s)", kind)
		e.log.Debug("connect: %v", err)
		return false
	}
	e.events.Info("Connection established")
	return true
}

// observe runs the probe and converts every failure mode into
// "no status this cycle". Only a definitive NOT_FOUND sets missing.
func (e *Engine) observe() (status *probe.Status, missing bool) {
	status, err := e.probe.Query(e.cfg.ServiceName)
	if err == nil {
		return status, status == nil
	}

	var parseErr *probe.ParseError
	if stderrors.As(err, &parseErr) {
		// Malformed response: logged, never alters connection health.
		e.events.Error("Malformed status response from remote side")
		e.log.Debug("probe parse: %v", err)
		return nil, false
	}

	// Transport-level probe failure: counts toward the error ceiling.
	e.events.Error("Status query for '%s' failed", e.cfg.ServiceName)
	e.log.Debug("probe: %v", err)
	e.session.RecordFailure(err)
	return nil, false
}

// remediateCycle handles an observed not-running status. Returns the cycle's
// effective status (optimistically running after a successful start).
func (e *Engine) remediateCycle(observed *probe.Status) *probe.Status {
	e.state = StateRemediating
	e.events.Warn("Service is %s - restarting...", probe.Classify(observed.Code).Label)

	result, err := e.remediator.EnsureRunning(e.cfg.ServiceName, e.cfg.RemediationTimeoutSeconds)
	if err != nil {
		e.events.Error("Start request failed: %s", errMessage(err))
		e.session.RecordFailure(err)
		return observed
	}

	switch result.Outcome {
	case remediate.OutcomeStarted:
		e.counters.RestartCount++
		e.events.Info("Service successfully started")
		return asRunning(observed)
	case remediate.OutcomeAlreadyRunning:
		e.events.Info("Service was already running")
		return asRunning(observed)
	case remediate.OutcomeTimedOut:
		e.events.Error("Service did not reach running within %ds", e.cfg.RemediationTimeoutSeconds)
		return observed
	default:
		e.events.Error("Service could not be started: %s", result.Reason)
		return observed
	}
}

// rememberEffective records the cycle's effective code for edge-triggered
// logging. A nil status resets the edge so recovery is logged again.
func (e *Engine) rememberEffective(status *probe.Status) {
	if status == nil {
		e.hasLast = false
		return
	}
	e.lastCode = status.Code
	e.hasLast = true
}

func (e *Engine) snapshot(status *probe.Status, missing bool) Snapshot {
	return Snapshot{
		State:          e.state,
		Connection:     e.session.State(),
		Counters:       e.counters,
		Status:         status,
		ServiceMissing: missing,
	}
}

// asRunning copies the observed status with the code forced to running for
// this cycle's display.
func asRunning(observed *probe.Status) *probe.Status {
	out := *observed
	out.Code = probe.CodeRunning
	return &out
}

// errMessage extracts the one-line message from a structured error, falling
// back to the first line of a plain error.
func errMessage(err error) string {
	var serr *errors.Error
	if stderrors.As(err, &serr) {
		return serr.Message
	}
	s := err.Error()
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
