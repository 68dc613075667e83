package sshexec

// Runner defines the interface for remote command execution.
// Both the real Client and mock implementations satisfy this interface.
//
// The monitor core depends only on this contract, not on the SSH protocol:
// run a command or script against an authenticated session and get back the
// combined output plus a flag saying whether the remote side reported errors.
type Runner interface {
	// RunCommand executes a plain shell command on the remote host.
	// hadErrors is true when the command exited non-zero or wrote to stderr.
	// A non-nil err means the command could not be executed at all.
	RunCommand(cmd string) (output string, hadErrors bool, err error)

	// RunScript executes a PowerShell script on the remote host.
	// Semantics match RunCommand.
	RunScript(script string) (output string, hadErrors bool, err error)

	// Close closes the underlying connection.
	Close() error
}
