// Package remote owns the authenticated connection to the monitored host:
// establishing it, verifying liveness, tracking health, and replacing the
// handle wholesale on reconnect.
package remote

import (
	"strings"
	"time"

	"github.com/svrroot/servicemon/internal/errors"
	"github.com/svrroot/servicemon/internal/logger"
	"github.com/svrroot/servicemon/pkg/sshexec"
)

// FailureKind classifies why a connect attempt failed.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureAuth: credentials rejected. Unrecoverable without new
	// credentials, but the engine keeps retrying on its fixed delay since
	// they cannot be re-prompted mid-run.
	FailureAuth
	// FailureTransport: transient network/handshake trouble.
	FailureTransport
	// FailureUnknown: anything else.
	FailureUnknown
)

// String returns a short label for the failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureAuth:
		return "authentication failure"
	case FailureTransport:
		return "transport failure"
	default:
		return "unknown failure"
	}
}

// ConnectionState is the session's caller-visible health record.
type ConnectionState struct {
	Healthy           bool
	ConsecutiveErrors int
	LastError         string
	LastFailure       FailureKind
}

// DialFunc opens a transport to the endpoint. Swappable for tests.
type DialFunc func(endpoint sshexec.Endpoint, timeout time.Duration) (sshexec.Runner, error)

// Session holds the single connection handle used by the whole monitor.
// It is accessed by one goroutine only and carries no locks.
type Session struct {
	endpoint    sshexec.Endpoint
	dial        DialFunc
	dialTimeout time.Duration
	maxErrors   int
	log         logger.Logger

	client sshexec.Runner
	state  ConnectionState
}

// Option configures a Session.
type Option func(*Session)

// WithDialFunc replaces the transport dialer (used by tests).
func WithDialFunc(dial DialFunc) Option {
	return func(s *Session) { s.dial = dial }
}

// WithDialTimeout sets the TCP/handshake timeout for connect attempts.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Session) { s.dialTimeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession creates a session for the endpoint. maxErrors is the ceiling of
// consecutive execute failures tolerated before health is forced down.
func NewSession(endpoint sshexec.Endpoint, maxErrors int, opts ...Option) *Session {
	s := &Session{
		endpoint:    endpoint,
		dialTimeout: 10 * time.Second,
		maxErrors:   maxErrors,
		log:         logger.NewEnvLogger("[session]"),
		dial: func(e sshexec.Endpoint, timeout time.Duration) (sshexec.Runner, error) {
			return sshexec.Dial(e, timeout)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoint returns the endpoint this session was built for.
func (s *Session) Endpoint() sshexec.Endpoint {
	return s.endpoint
}

// State returns a copy of the current connection state.
func (s *Session) State() ConnectionState {
	return s.state
}

// Healthy reports whether the last liveness evidence was good.
func (s *Session) Healthy() bool {
	return s.state.Healthy
}

// Connect establishes a fresh authenticated connection and verifies it with
// an echo round-trip. The old handle, if any, is closed first; a reconnect
// never reuses a half-broken session. All failures are converted to a typed
// error; nothing is thrown past this boundary.
func (s *Session) Connect() error {
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}

	client, err := s.dial(s.endpoint, s.dialTimeout)
	if err != nil {
		s.recordConnectFailure(err)
		return err
	}

	// Trivial no-op round-trip to verify the session actually works.
	output, hadErrors, err := client.RunCommand("echo OK")
	if err != nil || hadErrors || !strings.Contains(output, "OK") {
		_ = client.Close()
		if err == nil {
			err = errors.New(errors.ErrTransport,
				"Liveness check on '"+s.endpoint.Host+"' returned unexpected output",
				"The host connected but can't run commands. Check the account's shell access.")
		}
		s.recordConnectFailure(err)
		return err
	}

	s.client = client
	s.state = ConnectionState{Healthy: true}
	s.log.Debug("connected to %s", s.endpoint.Host)
	return nil
}

// RunCommand executes a command on the established session.
// Fails fast when no session exists. Health is not enforced here: execute
// failures are how unhealthiness is discovered, and callers check health.
func (s *Session) RunCommand(cmd string) (string, bool, error) {
	if s.client == nil {
		return "", false, errors.New(errors.ErrTransport,
			"No connection to "+s.endpoint.Host,
			"Connect first.")
	}
	return s.client.RunCommand(cmd)
}

// RunScript executes a script on the established session. See RunCommand.
func (s *Session) RunScript(script string) (string, bool, error) {
	if s.client == nil {
		return "", false, errors.New(errors.ErrTransport,
			"No connection to "+s.endpoint.Host,
			"Connect first.")
	}
	return s.client.RunScript(script)
}

// RecordFailure notes one execute failure. Once the count exceeds the
// ceiling, health is forced down so the next cycle reconnects.
func (s *Session) RecordFailure(err error) {
	s.state.ConsecutiveErrors++
	if err != nil {
		s.state.LastError = err.Error()
	}
	if s.state.ConsecutiveErrors > s.maxErrors {
		s.state.Healthy = false
		s.log.Debug("error ceiling exceeded (%d), marking unhealthy", s.state.ConsecutiveErrors)
	}
}

// ForceUnhealthy marks the connection down, forcing a reconnect on the next
// cycle. Used by the manual reconnect control.
func (s *Session) ForceUnhealthy() {
	s.state.Healthy = false
}

// Close releases the connection handle.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.state.Healthy = false
	return err
}

var _ sshexec.Runner = (*Session)(nil)

func (s *Session) recordConnectFailure(err error) {
	s.state.Healthy = false
	s.state.LastError = err.Error()
	s.state.LastFailure = classifyFailure(err)
	s.log.Debug("connect to %s failed: %v", s.endpoint.Host, err)
}

// classifyFailure maps a connect error to its failure kind.
func classifyFailure(err error) FailureKind {
	switch errors.CodeOf(err) {
	case errors.ErrAuth:
		return FailureAuth
	case errors.ErrTransport:
		return FailureTransport
	default:
		return FailureUnknown
	}
}
