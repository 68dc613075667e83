package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/svrroot/servicemon/internal/config"
	"github.com/svrroot/servicemon/internal/dashboard"
	"github.com/svrroot/servicemon/internal/engine"
	"github.com/svrroot/servicemon/internal/errors"
	"github.com/svrroot/servicemon/internal/eventlog"
	"github.com/svrroot/servicemon/internal/remote"
	"github.com/svrroot/servicemon/pkg/sshexec"
)

// watchCommand loads config and credentials, builds the monitor, and runs the
// dashboard until the operator quits.
func watchCommand() error {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return err
	}

	if err := applyFlagOverrides(cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	creds, err := resolveCredentials(cfg)
	if err != nil {
		return err
	}

	endpoint := sshexec.Endpoint{
		Host:          cfg.Host,
		Port:          cfg.Port,
		User:          creds.Username,
		Password:      creds.Password,
		StrictHostKey: !cfg.InsecureHostKey,
	}.Resolved()

	events := eventlog.New(cfg.Log.File, cfg.Log.MaxSize, cfg.Log.RingSize)
	session := remote.NewSession(endpoint, cfg.MaxConsecutiveErrors)
	defer session.Close()

	eng := engine.New(session, events, engine.Config{
		ServiceName:               cfg.Service,
		RemediationTimeoutSeconds: int(cfg.RemediationTimeout / time.Second),
	})

	printBanner(cfg, endpoint)
	termenv.SetWindowTitle("servicemon — " + cfg.Host)

	model := dashboard.NewModel(eng, events, dashboard.Options{
		User:          endpoint.User,
		Host:          cfg.Host,
		Service:       cfg.Service,
		CheckInterval: cfg.CheckInterval,
		RetryDelay:    cfg.RetryDelay,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"Dashboard terminated unexpectedly",
			"Check terminal compatibility")
	}

	fmt.Printf("Stopped watching '%s' on %s.\n", cfg.Service, cfg.Host)
	fmt.Printf("Event log: %s\n", events.Path())
	return nil
}

// applyFlagOverrides layers root-command flags over the loaded config.
func applyFlagOverrides(cfg *config.Config) error {
	if hostFlag != "" {
		cfg.Host = hostFlag
	}
	if serviceFlag != "" {
		cfg.Service = serviceFlag
	}
	if intervalFlag != "" {
		d, err := time.ParseDuration(intervalFlag)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("'%s' doesn't look like a valid interval", intervalFlag),
				"Try something like 30s, 60s, or 2m.")
		}
		cfg.CheckInterval = d
	}
	if insecureFlag {
		cfg.InsecureHostKey = true
	}
	return nil
}

// printBanner shows what is about to be watched before the alt screen opens.
func printBanner(cfg *config.Config, endpoint sshexec.Endpoint) {
	fmt.Printf("servicemon %s\n", formatVersion(GetVersion()))
	fmt.Printf("Watching '%s' on %s@%s (every %s)\n",
		cfg.Service, endpoint.User, endpoint.Address(), cfg.CheckInterval)
}
