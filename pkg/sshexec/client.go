package sshexec

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/svrroot/servicemon/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Client wraps an SSH connection with the endpoint it was dialed for.
type Client struct {
	*ssh.Client
	Endpoint Endpoint
	Address  string // The resolved address (host:port)
}

// Dial establishes an SSH connection to the endpoint using password and
// keyboard-interactive authentication.
//
// Failures are classified: authentication failures carry errors.ErrAuth,
// everything else (dial, handshake, host key) carries errors.ErrTransport.
func Dial(endpoint Endpoint, timeout time.Duration) (*Client, error) {
	endpoint = endpoint.Resolved()
	address := endpoint.Address()

	config, err := buildClientConfig(endpoint, timeout)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			fmt.Sprintf("Can't reach '%s' at %s", endpoint.Host, address),
			suggestionForDialError(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		if isAuthError(err) {
			return nil, errors.WrapWithCode(err, errors.ErrAuth,
				fmt.Sprintf("Authentication to '%s' failed", endpoint.Host),
				"Check the username and password; re-run with fresh credentials if they changed.")
		}

		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", endpoint.Host),
			"Try connecting manually first: ssh "+endpoint.User+"@"+endpoint.Host)
	}

	return &Client{
		Client:   ssh.NewClient(sshConn, chans, reqs),
		Endpoint: endpoint,
		Address:  address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// RunCommand executes a plain command on the remote host.
// hadErrors is true when the command exited non-zero or wrote to stderr;
// err is reserved for transport-level failures.
func (c *Client) RunCommand(cmd string) (string, bool, error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return "", false, errors.WrapWithCode(err, errors.ErrTransport,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	hadErrors := false
	if err := session.Run(cmd); err != nil {
		if _, ok := err.(*ssh.ExitError); ok {
			hadErrors = true // Command ran, just failed
		} else {
			return "", false, errors.WrapWithCode(err, errors.ErrExec,
				fmt.Sprintf("Failed to execute command: %s", cmd),
				"Check if the command exists on the remote host.")
		}
	}
	if stderr.Len() > 0 {
		hadErrors = true
	}

	return stdout.String(), hadErrors, nil
}

// RunScript executes a PowerShell script on the remote host.
// The script is shipped as a UTF-16LE base64 -EncodedCommand, which sidesteps
// all quoting between the SSH shell and PowerShell.
func (c *Client) RunScript(script string) (string, bool, error) {
	cmd := fmt.Sprintf("powershell.exe -NoProfile -NonInteractive -EncodedCommand %s",
		EncodeScript(script))
	return c.RunCommand(cmd)
}

// buildClientConfig assembles the ssh.ClientConfig for the endpoint.
func buildClientConfig(endpoint Endpoint, timeout time.Duration) (*ssh.ClientConfig, error) {
	if endpoint.Password == "" {
		return nil, errors.New(errors.ErrAuth,
			"No credential available for "+endpoint.Host,
			"Provide a password at startup or store one with the credential prompt.")
	}

	auth := []ssh.AuthMethod{
		ssh.Password(endpoint.Password),
		// Some sshd setups (notably Windows OpenSSH) only advertise
		// keyboard-interactive; answer every challenge with the password.
		ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				answers[i] = endpoint.Password
			}
			return answers, nil
		}),
	}

	var hostKeyCallback ssh.HostKeyCallback
	if endpoint.StrictHostKey {
		var err error
		hostKeyCallback, err = knownHostsCallback()
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrTransport,
				"Failed to load known_hosts",
				"Check ~/.ssh/known_hosts is readable, or disable strict host key checking.")
		}
	} else {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // User explicitly disabled host key checking
	}

	cfg := &ssh.ClientConfig{
		User:            endpoint.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}
	if len(endpoint.Ciphers) > 0 {
		cfg.Ciphers = endpoint.Ciphers
	}
	return cfg, nil
}

// knownHostsCallback loads ~/.ssh/known_hosts, creating it if absent.
func knownHostsCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	path := filepath.Join(home, ".ssh", "known_hosts")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(path, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	return knownhosts.New(path)
}

// isAuthError reports whether a handshake error was an authentication
// rejection rather than a transport problem.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	var serr *errors.Error
	if stderrors.As(err, &serr) && serr.Code == errors.ErrAuth {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied")
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Try: ssh <host>"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}
