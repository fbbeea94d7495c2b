package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lanprov-protocol/lanprov-go/pkg/wire"
)

// Config holds the peer configuration.
type Config struct {
	// SSID and Passphrase identify the host's access point network.
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`

	// Gateway and Port locate the host's control endpoint on it.
	Gateway string `yaml:"gateway"`
	Port    int    `yaml:"port"`

	// TargetSSID and TargetPassphrase are the credentials to deliver.
	TargetSSID       string `yaml:"target_ssid"`
	TargetPassphrase string `yaml:"target_passphrase"`

	// Discover resolves the endpoint via mDNS instead of the fixed
	// gateway convention.
	Discover bool `yaml:"discover"`

	EventLog    string `yaml:"event_log"`
	LogLevel    string `yaml:"log_level"`
	Interactive bool   `yaml:"interactive"`
}

// DefaultConfig returns the conventional peer settings.
func DefaultConfig() *Config {
	return &Config{
		SSID:       wire.DefaultSSID,
		Passphrase: wire.DefaultPassphrase,
		Gateway:    wire.DefaultGateway,
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
	if !c.Interactive && c.TargetSSID == "" {
		return fmt.Errorf("target-ssid is required outside interactive mode")
	}
	return nil
}
