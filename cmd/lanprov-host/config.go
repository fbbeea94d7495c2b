package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

// Config holds the host configuration.
type Config struct {
	SSID        string `yaml:"ssid"`
	Passphrase  string `yaml:"passphrase"`
	Port        int    `yaml:"port"`
	Advertise   bool   `yaml:"advertise"`
	EventLog    string `yaml:"event_log"`
	LogLevel    string `yaml:"log_level"`
	Interactive bool   `yaml:"interactive"`
}

// DefaultConfig returns the conventional host settings.
func DefaultConfig() *Config {
	return &Config{
		SSID:       wire.DefaultSSID,
		Passphrase: wire.DefaultPassphrase,
		Port:       wire.DefaultControlPort,
		LogLevel:   "info",
	}
}

// LoadFile merges settings from a YAML file into the config.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SSID == "" {
		return fmt.Errorf("ssid must not be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1-65535, got %d", c.Port)
	}
	return nil
}
