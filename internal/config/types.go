package config

import "time"

// Config represents the complete .servicemon.yaml configuration file.
type Config struct {
	// Host is the remote machine running the monitored service.
	Host string `yaml:"host" mapstructure:"host"`

	// Port is the SSH port on the remote machine.
	Port int `yaml:"port" mapstructure:"port"`

	// User is the SSH account name. Empty means defer to ssh_config, then
	// the local environment.
	User string `yaml:"user" mapstructure:"user"`

	// Service is the name of the service to watch (the short service name,
	// not the display name).
	Service string `yaml:"service" mapstructure:"service"`

	// CheckInterval is how long to wait between status checks.
	CheckInterval time.Duration `yaml:"check_interval" mapstructure:"check_interval"`

	// RetryDelay is the shorter wait used after a failed connect attempt.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`

	// MaxConsecutiveErrors is how many execute failures in a row are
	// tolerated before the connection is torn down and rebuilt.
	MaxConsecutiveErrors int `yaml:"max_consecutive_errors" mapstructure:"max_consecutive_errors"`

	// RemediationTimeout bounds the remote-side wait for the service to
	// reach running after a start request.
	RemediationTimeout time.Duration `yaml:"remediation_timeout" mapstructure:"remediation_timeout"`

	// InsecureHostKey skips host key verification. Only sensible on
	// already-encrypted overlays or lab networks.
	InsecureHostKey bool `yaml:"insecure_host_key" mapstructure:"insecure_host_key"`

	Log LogConfig `yaml:"log" mapstructure:"log"`
}

// LogConfig controls the durable event log.
type LogConfig struct {
	// File is the event log path.
	File string `yaml:"file" mapstructure:"file"`

	// MaxSize is the rotation ceiling in bytes.
	MaxSize int64 `yaml:"max_size" mapstructure:"max_size"`

	// RingSize is how many recent events the dashboard shows.
	RingSize int `yaml:"ring_size" mapstructure:"ring_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:                 22,
		CheckInterval:        60 * time.Second,
		RetryDelay:           5 * time.Second,
		MaxConsecutiveErrors: 3,
		RemediationTimeout:   60 * time.Second,
		Log: LogConfig{
			File:     "servicemon.log",
			MaxSize:  5 * 1024 * 1024,
			RingSize: 4,
		},
	}
}
