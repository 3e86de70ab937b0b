// Package config loads and stores the reportist configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the reportist configuration file in the
// user's home directory.
const ConfigFileName = ".reportist.yaml"

// Config holds the persisted reportist settings.
// The APIKEY key matches files written by earlier reportist versions.
type Config struct {
	APIKey   string `yaml:"APIKEY,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`
}

// ErrNoAPIKey is returned when no API key is given or stored.
var ErrNoAPIKey = errors.New("no API key provided: pass --apikey or store one with --store-apikey")

// DefaultPath returns ~/.reportist.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ConfigFileName), nil
}

// Load reads the config file at path. A missing file yields an empty config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, readable only by the owner.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// ResolveAPIKey picks the API key for this run. A key given on the command
// line wins and, with store set, is persisted first. Otherwise the stored
// key is used. ErrNoAPIKey is returned when neither exists.
func ResolveAPIKey(path, flagKey string, store bool) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}

	if flagKey != "" {
		if store {
			cfg.APIKey = flagKey
			if err := Save(path, cfg); err != nil {
				return "", err
			}
		}
		return flagKey, nil
	}

	if cfg.APIKey == "" {
		return "", ErrNoAPIKey
	}
	return cfg.APIKey, nil
}

// CacheDirOrDefault returns the configured cache directory or DefaultCacheDir.
func (c *Config) CacheDirOrDefault() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	return DefaultCacheDir()
}
