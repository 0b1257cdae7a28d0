// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// EnvApplier is implemented by configurations that take overrides from
// plain environment variables after the file is parsed.
type EnvApplier interface {
	ApplyEnv(getenv func(string) string) error
}

// Load loads configuration from a YAML file with environment variable
// expansion, then applies environment overrides and validates the result.
// A missing file leaves target at its defaults.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	default:
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", filename, err)
		}
	}

	if applier, ok := any(target).(EnvApplier); ok {
		if err := applier.ApplyEnv(os.Getenv); err != nil {
			return fmt.Errorf("config environment override failed: %w", err)
		}
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}
