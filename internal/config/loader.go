package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/svrroot/servicemon/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".servicemon.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/servicemon"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'servicemon init' to create one, or specify a file with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. .servicemon.yaml in the current directory
// 2. ~/.config/servicemon/config.yaml
//
// Returns the path to the config file, or empty string if not found.
// An explicit --config path skips the search; see LoadOrDefault.
func Find() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the explicit path or the search locations,
// falling back to defaults when nothing is found. An explicit path that does
// not exist is always an error.
func LoadOrDefault(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}

	path, err := Find()
	if err != nil {
		return nil, err
	}

	if path == "" {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// parseConfig converts viper config to our Config struct with defaults
// merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	return cfg, nil
}

// setDefaults registers defaults so partially specified files merge cleanly.
func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 22)
	v.SetDefault("check_interval", "60s")
	v.SetDefault("retry_delay", "5s")
	v.SetDefault("max_consecutive_errors", 3)
	v.SetDefault("remediation_timeout", "60s")
	v.SetDefault("log.file", "servicemon.log")
	v.SetDefault("log.max_size", 5*1024*1024)
	v.SetDefault("log.ring_size", 4)
}
