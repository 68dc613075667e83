// Package testing provides a mock Runner for exercising the monitor core
// without an SSH connection.
package testing

import (
	"errors"
	"strings"
	"sync"

	"github.com/svrroot/servicemon/pkg/sshexec"
)

// Response defines a canned response for a command or script match.
type Response struct {
	Output    string
	HadErrors bool
	Err       error
}

// MockRunner simulates remote execution for testing.
// Responses are matched by substring against the command or script text,
// in registration order; calls are recorded for assertions.
type MockRunner struct {
	mu       sync.Mutex
	closed   bool
	matchers []matcher

	// Commands records every RunCommand invocation.
	Commands []string
	// Scripts records every RunScript invocation.
	Scripts []string
}

type matcher struct {
	substr string
	resp   Response
}

// NewMockRunner creates an empty mock. Unmatched calls return an error so
// tests fail loudly on unexpected remote traffic.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

var _ sshexec.Runner = (*MockRunner)(nil)

// On registers a response for any command/script containing substr.
func (m *MockRunner) On(substr string, resp Response) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchers = append(m.matchers, matcher{substr: substr, resp: resp})
	return m
}

// Set replaces the response of an existing matcher for substr, registering a
// new one when absent. Lets a test change the remote state between calls.
func (m *MockRunner) Set(substr string, resp Response) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, mt := range m.matchers {
		if mt.substr == substr {
			m.matchers[i].resp = resp
			return m
		}
	}
	m.matchers = append(m.matchers, matcher{substr: substr, resp: resp})
	return m
}

// RunCommand returns the first matching canned response.
func (m *MockRunner) RunCommand(cmd string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", false, errors.New("connection closed")
	}
	m.Commands = append(m.Commands, cmd)
	return m.respond(cmd)
}

// RunScript returns the first matching canned response.
func (m *MockRunner) RunScript(script string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", false, errors.New("connection closed")
	}
	m.Scripts = append(m.Scripts, script)
	return m.respond(script)
}

func (m *MockRunner) respond(text string) (string, bool, error) {
	for _, mt := range m.matchers {
		if strings.Contains(text, mt.substr) {
			return mt.resp.Output, mt.resp.HadErrors, mt.resp.Err
		}
	}
	return "", false, errors.New("mock runner: no response registered for: " + text)
}

// Close marks the connection as closed.
func (m *MockRunner) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockRunner) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
