/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Config represents emberdb's configuration.
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

// Security contains security-related configuration. SystemKey encrypts
// only the system/API-key metadata store (pkg/api.SystemService), never
// the core key-value log.
type Security struct {
	SystemKey    string `yaml:"system_key"`
	SystemAPIKey string `yaml:"system_api_key"`
	ClientAPIKey string `yaml:"client_api_key"`
	// MaxRecordSize bounds the value size pkg/api accepts on PUT, in
	// bytes. It is an API-layer guard, not a log-engine limit: the
	// engine itself accepts any value size per the append-only format.
	MaxRecordSize int `yaml:"max_record_size"`
}

// Logging contains logging configuration. It is saved and loaded with
// the rest of Config; cmd/ember does not read it.
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			SystemKey:     "auto",
			SystemAPIKey:  "auto",
			ClientAPIKey:  "auto",
			MaxRecordSize: 4096,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// LoadEnvOverrides loads a .env file, if present, into the process
// environment. LoadConfig and the values it returns do not read those
// environment variables. A missing .env file is not an error: it is
// skipped before godotenv.Load is called.
func LoadEnvOverrides(envPath string) error {
	if envPath == "" {
		envPath = ".env"
	}
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(envPath)
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveConfig durably writes the configuration to configPath. The write
// goes through atomic.WriteFile so a crash mid-write never leaves a
// half-written config behind: the rename-into-place it performs is
// all-or-nothing at the filesystem level.
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := atomic.WriteFile(configPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(configPath, 0o600)
}

// GenerateSecureKey generates a cryptographically secure random key,
// hex-encoded.
func GenerateSecureKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// BootstrapConfig creates a new configuration with generated keys and
// saves it to configPath, replacing any file already there.
func BootstrapConfig(configPath, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	systemKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate system key: %w", err)
	}
	config.Security.SystemKey = systemKey

	systemAPIKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate system API key: %w", err)
	}
	config.Security.SystemAPIKey = systemAPIKey

	clientAPIKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client API key: %w", err)
	}
	config.Security.ClientAPIKey = clientAPIKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the
// current platform.
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./ember.yaml"
	}
	return filepath.Join(homeDir, ".config", "emberdb", "config.yaml")
}

// ConfigExists checks if a configuration file exists.
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
