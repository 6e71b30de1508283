// Package config loads and validates ByteHot's configuration: defaults
// first, then overlay from config.yaml, with structured errors for anything
// that cannot be applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rydnr/bytehot/pkg/logging"
)

const (
	userConfigDir  = ".config/bytehot"
	configFileName = "config.yaml"
)

const subsystem = "ConfigLoader"

// GetDefaultConfigPathOrPanic returns the per-user configuration directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from a single specified directory. The
// directory should contain config.yaml; a missing file is not an error and
// yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info(subsystem, "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: "io",
			Message:   err.Error(),
		}
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, ConfigurationError{
			FilePath:    configFilePath,
			ErrorType:   "parse",
			Message:     "config.yaml is not valid YAML",
			Details:     err.Error(),
			Suggestions: []string{"check indentation and key names against the documented options"},
		}
	}
	logging.Info(subsystem, "Loaded configuration from %s", configFilePath)

	if err := Validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks every recognized option for values the rest of the system
// cannot act on, collecting all problems rather than stopping at the first.
func Validate(cfg Config) error {
	var collection ConfigurationErrorCollection

	for _, root := range cfg.Watch.Roots {
		if !filepath.IsAbs(root) {
			collection.Add(ConfigurationError{
				ErrorType:   "validation",
				Message:     fmt.Sprintf("watch root %q is not an absolute path", root),
				Suggestions: []string{"use an absolute directory path under watch.roots"},
			})
		}
	}
	if cfg.Watch.DebounceMS < 0 {
		collection.Add(ConfigurationError{
			ErrorType: "validation",
			Message:   fmt.Sprintf("watch.debounce_ms must be non-negative, got %d", cfg.Watch.DebounceMS),
		})
	}
	if cfg.Snapshot.Window < 0 {
		collection.Add(ConfigurationError{
			ErrorType: "validation",
			Message:   fmt.Sprintf("snapshot.window must be non-negative, got %d", cfg.Snapshot.Window),
		})
	}
	if cfg.Redefine.TimeoutMS < 0 {
		collection.Add(ConfigurationError{
			ErrorType: "validation",
			Message:   fmt.Sprintf("redefine.timeout_ms must be non-negative, got %d", cfg.Redefine.TimeoutMS),
		})
	}
	for _, s := range cfg.Update.EnabledStrategies {
		if !knownStrategies[s] {
			collection.Add(ConfigurationError{
				ErrorType:   "validation",
				Message:     fmt.Sprintf("unknown update strategy %q", s),
				Suggestions: []string{"valid strategies: AUTOMATIC, REFLECTION, PROXY_REFRESH, FACTORY_RESET, NO_UPDATE"},
			})
		}
	}

	if collection.HasErrors() {
		return collection
	}
	return nil
}
