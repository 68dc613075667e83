package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/svrroot/servicemon/internal/config"
	"github.com/svrroot/servicemon/internal/credentials"
	"github.com/svrroot/servicemon/internal/errors"
)

// resolveCredentials returns the login for the configured host: stored
// credentials when they match, otherwise an interactive prompt. Saving is
// opt-in.
func resolveCredentials(cfg *config.Config) (*credentials.Credentials, error) {
	store := credentials.NewStore(credentials.DefaultPath())

	stored, err := store.LoadFor(cfg.Host)
	if err != nil {
		return nil, err
	}
	if stored != nil && (cfg.User == "" || stored.Username == cfg.User) {
		fmt.Printf("Using stored credentials for %s@%s\n", stored.Username, cfg.Host)
		return stored, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New(errors.ErrAuth,
			"No stored credentials for '"+cfg.Host+"' and no terminal to prompt on",
			"Run servicemon interactively once and choose to save credentials.")
	}

	return promptCredentials(store, cfg)
}

// promptCredentials collects a username and password for the host.
func promptCredentials(store *credentials.Store, cfg *config.Config) (*credentials.Credentials, error) {
	username := cfg.User
	var password string
	var save bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Description("Account on "+cfg.Host).
				Value(&username).
				Validate(requireValue("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(requireValue("password")),
			huh.NewConfirm().
				Title("Save credentials for next time?").
				Value(&save),
		),
	)

	if err := form.Run(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrAuth,
			"Credential prompt failed",
			"Check terminal compatibility")
	}

	creds := credentials.Credentials{
		Username: username,
		Password: password,
		Host:     cfg.Host,
	}

	if save {
		if err := store.Save(creds); err != nil {
			// A failed save shouldn't stop the monitor from starting.
			fmt.Printf("Warning: couldn't save credentials: %v\n", err)
		}
	}

	return &creds, nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
