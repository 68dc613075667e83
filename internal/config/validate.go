package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/svrroot/servicemon/internal/errors"
)

// Validate checks a fully resolved config (file values plus flag overrides)
// for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if strings.TrimSpace(cfg.Host) == "" {
		return errors.New(errors.ErrConfig,
			"No host configured",
			"Set 'host' in .servicemon.yaml or pass --host.")
	}

	if strings.TrimSpace(cfg.Service) == "" {
		return errors.New(errors.ErrConfig,
			"No service configured",
			"Set 'service' in .servicemon.yaml or pass --service.")
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d isn't valid - use 1-65535", cfg.Port),
			"Check the 'port' setting in your .servicemon.yaml.")
	}

	if cfg.CheckInterval < time.Second {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("check_interval %v is too short - the minimum is 1s", cfg.CheckInterval),
			"Use something like '30s', '60s', or '5m'.")
	}

	if cfg.RetryDelay < time.Second {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("retry_delay %v is too short - the minimum is 1s", cfg.RetryDelay),
			"Use something like '5s' or '10s'.")
	}

	if cfg.MaxConsecutiveErrors < 1 {
		return errors.New(errors.ErrConfig,
			"max_consecutive_errors must be at least 1",
			"With 0 every hiccup would force a reconnect.")
	}

	if cfg.RemediationTimeout < time.Second || cfg.RemediationTimeout > time.Hour {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("remediation_timeout %v isn't valid - use 1s to 1h", cfg.RemediationTimeout),
			"The remote side waits this long for the service to start.")
	}

	if err := validateLog(cfg.Log); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'log' section in your .servicemon.yaml.")
	}

	return nil
}

// validateLog checks event log configuration.
func validateLog(log LogConfig) error {
	if strings.TrimSpace(log.File) == "" {
		return fmt.Errorf("log.file can't be empty - events need somewhere to land")
	}
	if log.MaxSize < 1024 {
		return fmt.Errorf("log.max_size %d is too small - use at least 1024 bytes", log.MaxSize)
	}
	if log.RingSize < 1 {
		return fmt.Errorf("log.ring_size must be at least 1")
	}
	return nil
}
