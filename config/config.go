// Package config provides configuration loading and management for the
// settings validator.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g.
// REPOSETTINGS_PROBES_BROKER_TIMEOUT=2s.
const EnvPrefix = "REPOSETTINGS_"

// Config represents the complete validator configuration
type Config struct {
	Probes ProbesConfig `yaml:"probes" envPrefix:"PROBES_"`
	Broker BrokerConfig `yaml:"broker" envPrefix:"BROKER_"`
	Lookup LookupConfig `yaml:"lookup" envPrefix:"LOOKUP_"`
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

// ProbesConfig bounds the network probes made during validation
type ProbesConfig struct {
	// BrokerTimeout bounds connect + subscribe + unsubscribe (default: 5s)
	BrokerTimeout time.Duration `yaml:"broker_timeout" env:"BROKER_TIMEOUT"`
	// LookupTimeout bounds the lookup-service request (default: 5s)
	LookupTimeout time.Duration `yaml:"lookup_timeout" env:"LOOKUP_TIMEOUT"`
}

// BrokerConfig configures the broker probe client
type BrokerConfig struct {
	// ClientName is reported to the broker on connect
	ClientName string `yaml:"client_name" env:"CLIENT_NAME"`
}

// LookupConfig configures the lookup-service client
type LookupConfig struct {
	// Token is sent as a bearer credential (empty = anonymous)
	Token string `yaml:"token" env:"TOKEN"`
}

// ServerConfig configures the HTTP validation endpoint
type ServerConfig struct {
	// Addr is the listen address (default: :8080)
	Addr string `yaml:"addr" env:"ADDR"`
	// ShutdownTimeout bounds graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LEVEL"`
	// Format is text or json (default: text)
	Format string `yaml:"format" env:"FORMAT"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Probes: ProbesConfig{
			BrokerTimeout: 5 * time.Second,
			LookupTimeout: 5 * time.Second,
		},
		Broker: BrokerConfig{
			ClientName: "reposettings-probe",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Probes.BrokerTimeout <= 0 {
		return fmt.Errorf("probes.broker_timeout must be positive")
	}
	if c.Probes.LookupTimeout <= 0 {
		return fmt.Errorf("probes.lookup_timeout must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// WriteYAML writes the configuration as YAML to w
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return enc.Close()
}

// ApplyEnv overrides fields from REPOSETTINGS_* environment variables
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Probes
	if other.Probes.BrokerTimeout != 0 {
		c.Probes.BrokerTimeout = other.Probes.BrokerTimeout
	}
	if other.Probes.LookupTimeout != 0 {
		c.Probes.LookupTimeout = other.Probes.LookupTimeout
	}

	// Broker
	if other.Broker.ClientName != "" {
		c.Broker.ClientName = other.Broker.ClientName
	}

	// Lookup
	if other.Lookup.Token != "" {
		c.Lookup.Token = other.Lookup.Token
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
}
