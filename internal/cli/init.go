package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/svrroot/servicemon/internal/config"
	"github.com/svrroot/servicemon/internal/errors"
)

// initCommand writes a starter configuration file into dir.
func initCommand(dir string, force bool) error {
	configPath := filepath.Join(dir, config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config file already exists: %s", configPath),
			"Use --force to overwrite")
	}

	data, err := yaml.Marshal(starterConfig())
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}

	header := `# servicemon configuration
# Run 'servicemon' to start watching the service.

`
	if err := os.WriteFile(configPath, []byte(header+string(data)), 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", configPath),
			"Check directory permissions")
	}

	fmt.Printf("Created %s\n\n", configPath)
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the host and service settings")
	fmt.Println("  2. Run 'servicemon' to start watching")

	return nil
}

// starter mirrors Config with durations as strings so the generated YAML
// reads as "60s" rather than nanosecond counts.
type starter struct {
	Host                 string     `yaml:"host"`
	Port                 int        `yaml:"port"`
	Service              string     `yaml:"service"`
	CheckInterval        string     `yaml:"check_interval"`
	RetryDelay           string     `yaml:"retry_delay"`
	MaxConsecutiveErrors int        `yaml:"max_consecutive_errors"`
	RemediationTimeout   string     `yaml:"remediation_timeout"`
	InsecureHostKey      bool       `yaml:"insecure_host_key"`
	Log                  starterLog `yaml:"log"`
}

type starterLog struct {
	File     string `yaml:"file"`
	MaxSize  int64  `yaml:"max_size"`
	RingSize int    `yaml:"ring_size"`
}

// starterConfig builds the template from the real defaults with placeholder
// host and service names.
func starterConfig() starter {
	cfg := config.DefaultConfig()
	return starter{
		Host:                 "my-server",
		Port:                 cfg.Port,
		Service:              "My Service",
		CheckInterval:        cfg.CheckInterval.String(),
		RetryDelay:           cfg.RetryDelay.String(),
		MaxConsecutiveErrors: cfg.MaxConsecutiveErrors,
		RemediationTimeout:   cfg.RemediationTimeout.String(),
		InsecureHostKey:      cfg.InsecureHostKey,
		Log: starterLog{
			File:     cfg.Log.File,
			MaxSize:  cfg.Log.MaxSize,
			RingSize: cfg.Log.RingSize,
		},
	}
}
