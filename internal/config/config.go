// Package config provides configuration management for promptdeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultListenAddr = "127.0.0.1:8787"
	DefaultDBDriver   = "sqlite"
)

// Config is the application configuration, loaded from settings.yaml in the
// data directory.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	Database struct {
		Driver   string `yaml:"driver"` // sqlite or postgres
		DSN      string `yaml:"dsn"`    // defaults to <data_dir>/promptdeck.db for sqlite
		MaxConns int    `yaml:"max_conns"`
	} `yaml:"database"`

	// ListsDir holds extra built-in markdown lists loaded next to the
	// embedded ones and hot-reloaded on change.
	ListsDir string `yaml:"lists_dir"`

	Auth struct {
		// JWTSecret enables the bearer-token identity provider. Empty
		// means local mode: a single static user.
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
		// LocalUserID is the owner id used in local mode.
		LocalUserID string `yaml:"local_user_id"`
	} `yaml:"auth"`
}

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	cfg := &Config{
		ListenAddr: DefaultListenAddr,
		DataDir:    DataDir(),
	}
	cfg.Database.Driver = DefaultDBDriver
	cfg.Database.MaxConns = 4
	cfg.Auth.LocalUserID = "local"
	return cfg
}

// DataDir returns the default data directory (~/.promptdeck).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptdeck"
	}
	return filepath.Join(home, ".promptdeck")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), "settings.yaml")
}

// PrefsPath returns the UI preferences file path under cfg's data dir.
func (c *Config) PrefsPath() string {
	return filepath.Join(c.DataDir, "prefs.json")
}

// DBDSN returns the database DSN, defaulting the sqlite path into the data
// directory.
func (c *Config) DBDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return filepath.Join(c.DataDir, "promptdeck.db")
}

// Load reads the settings file at path. A missing file returns defaults,
// not an error; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DataDir()
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDBDriver
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 4
	}
	if cfg.Auth.LocalUserID == "" {
		cfg.Auth.LocalUserID = "local"
	}
	return cfg, nil
}

// EnsureDataDir creates the data directory when missing.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}
