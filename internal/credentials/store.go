// Package credentials persists the operator's remote login as a keyed blob
// on disk. Used only at startup; the monitoring loop never touches it.
package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/svrroot/servicemon/internal/errors"
)

// Credentials is the stored username/password pair, keyed by host so stale
// entries for a different machine are never offered.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
}

// Store reads and writes the credential file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the standard credential file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", "servicemon", "credentials.json")
}

// Load returns the stored credentials, or (nil, nil) when none exist.
// A corrupt file is reported as an error rather than silently discarded.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't read stored credentials",
			"Check permissions on "+s.path)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Stored credentials file is corrupt",
			"Delete "+s.path+" and enter credentials again")
	}
	return &creds, nil
}

// LoadFor returns stored credentials only when they match the given host.
func (s *Store) LoadFor(host string) (*Credentials, error) {
	creds, err := s.Load()
	if err != nil || creds == nil {
		return nil, err
	}
	if creds.Host != host {
		return nil, nil
	}
	return creds, nil
}

// Save writes the credentials with restrictive permissions (0600 file inside
// a 0700 directory).
func (s *Store) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create credentials directory",
			"Check permissions on "+filepath.Dir(s.path))
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't encode credentials", "")
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't write credentials file",
			"Check permissions on "+s.path)
	}
	return nil
}
