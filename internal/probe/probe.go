// Package probe queries the current state of a named remote service and
// parses the compact pipe-delimited reply into a typed status record.
package probe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/svrroot/servicemon/internal/errors"
	"github.com/svrroot/servicemon/pkg/sshexec"
)

// notFoundMarker is what the remote query prints when the service doesn't exist.
const notFoundMarker = "NOT_FOUND"

// ParseError reports a malformed probe response. Callers treat it like an
// absent status for the cycle (logged, never fatal).
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed service status response %q: %s", e.Raw, e.Reason)
}

// Probe issues side-effect-free status queries for one named service.
type Probe struct {
	runner sshexec.Runner
	now    func() time.Time
}

// New creates a probe that executes queries through the given runner.
func New(runner sshexec.Runner) *Probe {
	return &Probe{runner: runner, now: time.Now}
}

// queryScript builds the remote status query. The remote side answers with
// either NOT_FOUND or a "status|displayName|startType" triple.
func queryScript(serviceName string) string {
	return fmt.Sprintf(`$service = Get-Service -Name '%s' -ErrorAction SilentlyContinue
if ($service) {
    $status = $service.Status.value__
    $displayName = $service.DisplayName
    $startType = $service.StartType.ToString()
    Write-Output "$status|$displayName|$startType"
} else {
    Write-Output "NOT_FOUND"
}`, escapeSingleQuotes(serviceName))
}

// Query looks up the service by name.
// Returns (nil, nil) when the service does not exist, a valid absence state
// distinct from a transport error. A malformed reply returns a *ParseError.
func (p *Probe) Query(serviceName string) (*Status, error) {
	output, hadErrors, err := p.runner.RunScript(queryScript(serviceName))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrProbe,
			fmt.Sprintf("Status query for '%s' failed", serviceName), "")
	}

	result := strings.TrimSpace(output)
	if hadErrors || result == "" {
		return nil, &ParseError{Raw: result, Reason: "remote query reported errors or produced no output"}
	}
	if result == notFoundMarker {
		return nil, nil
	}

	status, err := parseTriple(result)
	if err != nil {
		return nil, err
	}
	status.ObservedAt = p.now()
	return status, nil
}

// parseTriple parses "status|displayName|startType".
func parseTriple(result string) (*Status, error) {
	parts := strings.Split(result, "|")
	if len(parts) < 3 {
		return nil, &ParseError{Raw: result, Reason: fmt.Sprintf("want 3 fields, got %d", len(parts))}
	}

	code, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, &ParseError{Raw: result, Reason: "status code is not numeric"}
	}

	return &Status{
		Code:        Code(code),
		DisplayName: parts[1],
		StartType:   parts[2],
	}, nil
}

// escapeSingleQuotes doubles single quotes for safe embedding in a
// single-quoted PowerShell string literal.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
