// Package remediate issues corrective start/restart actions against the
// monitored service. The wait-for-running loop runs remote-side so a slow
// start costs one round trip, not sixty.
package remediate

import (
	"fmt"
	"strings"

	"github.com/svrroot/servicemon/internal/errors"
	"github.com/svrroot/servicemon/pkg/sshexec"
)

// Outcome is the result of an EnsureRunning attempt.
type Outcome int

const (
	// OutcomeAlreadyRunning means the service was running before we acted.
	OutcomeAlreadyRunning Outcome = iota
	// OutcomeStarted means the service reached running within the timeout.
	OutcomeStarted
	// OutcomeTimedOut means the wait budget elapsed without reaching running.
	OutcomeTimedOut
	// OutcomeFailed means the remote side reported an error; Result.Reason
	// carries the captured message.
	OutcomeFailed
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyRunning:
		return "already running"
	case OutcomeStarted:
		return "started"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result pairs an outcome with the failure reason when there is one.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Remediator performs start/restart actions through a runner.
type Remediator struct {
	runner sshexec.Runner
}

// New creates a Remediator executing through the given runner.
func New(runner sshexec.Runner) *Remediator {
	return &Remediator{runner: runner}
}

// Sentinel markers printed by the remote-side scripts.
const (
	markerSuccess = "SUCCESS"
	markerTimeout = "TIMEOUT"
	markerError   = "ERROR:"
)

// ensureRunningScript starts the service and polls its state remote-side at
// 1-second granularity until it runs or the budget is exhausted.
func ensureRunningScript(serviceName string, timeoutSeconds int) string {
	name := escapeSingleQuotes(serviceName)
	return fmt.Sprintf(`try {
    Start-Service -Name '%s' -ErrorAction Stop

    $timeout = %d
    $count = 0
    while ($count -lt $timeout) {
        $service = Get-Service -Name '%s'
        if ($service.Status -eq 'Running') {
            Write-Output "SUCCESS"
            exit 0
        }
        Start-Sleep -Seconds 1
        $count++
    }
    Write-Output "TIMEOUT"
    exit 1
} catch {
    Write-Output "ERROR: $($_.Exception.Message)"
    exit 1
}`, name, timeoutSeconds, name)
}

// restartScript forces a restart; success is a bare SUCCESS marker.
func restartScript(serviceName string) string {
	return fmt.Sprintf(`try {
    Restart-Service -Name '%s' -Force -ErrorAction Stop
    Write-Output "SUCCESS"
} catch {
    Write-Output "ERROR: $($_.Exception.Message)"
}`, escapeSingleQuotes(serviceName))
}

// EnsureRunning issues a start request and waits (remote-side) up to
// timeoutSeconds for the service to report running. Remote-side exceptions
// surface as OutcomeFailed with the captured message; a transport failure is
// returned as an error.
func (r *Remediator) EnsureRunning(serviceName string, timeoutSeconds int) (Result, error) {
	output, _, err := r.runner.RunScript(ensureRunningScript(serviceName, timeoutSeconds))
	if err != nil {
		return Result{}, errors.WrapWithCode(err, errors.ErrRemediate,
			fmt.Sprintf("Start request for '%s' could not be issued", serviceName), "")
	}

	result := strings.TrimSpace(output)
	switch {
	case strings.Contains(strings.ToLower(result), "already running"):
		return Result{Outcome: OutcomeAlreadyRunning}, nil
	case strings.Contains(result, markerSuccess):
		return Result{Outcome: OutcomeStarted}, nil
	case strings.Contains(result, markerTimeout):
		return Result{Outcome: OutcomeTimedOut}, nil
	default:
		return Result{Outcome: OutcomeFailed, Reason: reasonFrom(result)}, nil
	}
}

// Restart forces a restart of the service. Success is determined purely by
// the SUCCESS marker in the output; anything else is a failure carrying the
// output as the reason.
func (r *Remediator) Restart(serviceName string) error {
	output, _, err := r.runner.RunScript(restartScript(serviceName))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrRemediate,
			fmt.Sprintf("Restart request for '%s' could not be issued", serviceName), "")
	}

	if strings.Contains(output, markerSuccess) {
		return nil
	}
	return errors.New(errors.ErrRemediate,
		fmt.Sprintf("Restart of '%s' failed: %s", serviceName, reasonFrom(strings.TrimSpace(output))),
		"")
}

// reasonFrom strips the ERROR: prefix when present.
func reasonFrom(output string) string {
	if idx := strings.Index(output, markerError); idx != -1 {
		return strings.TrimSpace(output[idx+len(markerError):])
	}
	return output
}

func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
