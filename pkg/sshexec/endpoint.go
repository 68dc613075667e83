package sshexec

import (
	"net"
	"os"
	"strconv"

	"github.com/kevinburke/ssh_config"
)

// Endpoint describes the remote host the monitor connects to.
// Immutable after construction; the session layer owns the only copy.
type Endpoint struct {
	// Host is the hostname or address of the remote machine.
	Host string

	// User is the login name for the SSH session.
	User string

	// Password is the credential for password / keyboard-interactive auth.
	Password string

	// Port is the SSH port. Zero means "resolve from ssh_config or use 22".
	Port int

	// StrictHostKey controls host key verification against known_hosts.
	// Disable only on already-encrypted overlays (e.g. a tailnet).
	StrictHostKey bool

	// Ciphers optionally restricts the cipher suites offered during the
	// handshake. Empty means the ssh package defaults.
	Ciphers []string
}

// Address returns the host:port string for dialing.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.effectivePort()))
}

// Resolved returns a copy of the endpoint with port and user filled in from
// ~/.ssh/config (and sensible fallbacks) where the caller left them empty.
func (e Endpoint) Resolved() Endpoint {
	out := e
	out.Port = e.effectivePort()
	out.User = e.effectiveUser()
	return out
}

func (e Endpoint) effectivePort() int {
	if e.Port != 0 {
		return e.Port
	}
	if p := ssh_config.Get(e.Host, "Port"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			return n
		}
	}
	return 22
}

func (e Endpoint) effectiveUser() string {
	if e.User != "" {
		return e.User
	}
	if u := ssh_config.Get(e.Host, "User"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "root"
}
