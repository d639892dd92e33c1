package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mcpbase/pkg/logging"
)

const (
	userConfigDir  = ".config/mcpbase"
	configFileName = "config.yaml"
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from a single specified directory.
// The directory should contain config.yaml. A missing file yields the
// defaults and the caller supplies an identity; an existing file must pass
// validation, since the identity it carries is fixed for the process
// lifetime.
func LoadConfig(configPath string) (ServerConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig() // Start with default config

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return ServerConfig{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		// config malformed
		return ServerConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	if config.Identity.Tier == "" {
		config.Identity.Tier = DefaultTier
	}

	if err := config.Validate(); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid config in %s: %w", configFilePath, err)
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
