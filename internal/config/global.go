package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetGlobalConfigDir returns the path to the global configuration directory.
// This is typically ~/.triage/
func GetGlobalConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home cannot be determined
		return ".triage"
	}
	return filepath.Join(home, ".triage")
}

// GetGlobalConfigPath returns the path to the global configuration file.
func GetGlobalConfigPath() string {
	return filepath.Join(GetGlobalConfigDir(), "config")
}

// EnsureGlobalConfigDir ensures that the global configuration directory exists.
func EnsureGlobalConfigDir() error {
	return os.MkdirAll(GetGlobalConfigDir(), 0755)
}

// SetGlobalConfig sets a configuration value in the global config file.
func SetGlobalConfig(key, value string) error {
	if err := EnsureGlobalConfigDir(); err != nil {
		return fmt.Errorf("failed to create global config directory: %w", err)
	}
	return writeValue(GetGlobalConfigPath(), key, value)
}

// GetGlobalConfig retrieves a configuration value from the global config file.
func GetGlobalConfig(key string) (string, error) {
	value, err := readValue(GetGlobalConfigPath(), key)
	if err != nil {
		return "", fmt.Errorf("global configuration: %w", err)
	}
	return value, nil
}

// ListGlobalConfig returns the entries of the global config file sorted by key.
func ListGlobalConfig() ([]Entry, error) {
	return listFile(GetGlobalConfigPath())
}
