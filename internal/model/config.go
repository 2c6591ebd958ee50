package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// appDirName is the directory under ~/.config holding config, database and logs.
const appDirName = "thinkwaste"

// IdentityConfig holds the wallet identity provider settings.
type IdentityConfig struct {
	// AuthURL is the wallet login page opened in the browser.
	AuthURL string `mapstructure:"auth_url" yaml:"auth_url"`

	// ClientID identifies this application to the wallet provider.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`

	// ChainID is the EIP-155 chain id requested at login (e.g. "0xaa36a7").
	ChainID string `mapstructure:"chain_id" yaml:"chain_id"`

	// Network selects the provider network (e.g. "testnet").
	Network string `mapstructure:"network" yaml:"network"`

	// VerifyKey is a PEM-encoded public key, or a path to one, used to
	// verify id tokens returned by the provider.
	VerifyKey string `mapstructure:"verify_key" yaml:"verify_key"`

	// Issuer and Audience are checked against the id token claims when set.
	Issuer   string `mapstructure:"issuer" yaml:"issuer"`
	Audience string `mapstructure:"audience" yaml:"audience"`

	// LoginTimeoutSec bounds how long Connect waits for the browser callback.
	LoginTimeoutSec int `mapstructure:"login_timeout_sec" yaml:"login_timeout_sec"`
}

// DatabaseConfig selects and locates the relational store.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// DSN is the Postgres connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// NotificationsConfig controls the unread notification poller.
type NotificationsConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig controls the log file and verbosity.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Identity      IdentityConfig      `mapstructure:"identity" yaml:"identity"`
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// PollInterval returns the notification poll period, 30s when unset.
func (c *AppConfig) PollInterval() time.Duration {
	if c == nil || c.Notifications.PollIntervalSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Notifications.PollIntervalSec) * time.Second
}

// LoginTimeout returns how long a wallet login may take, 2m when unset.
func (c *AppConfig) LoginTimeout() time.Duration {
	if c == nil || c.Identity.LoginTimeoutSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.Identity.LoginTimeoutSec) * time.Second
}

// ConfigDir returns ~/.config/thinkwaste, or "." when the home directory
// cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appDirName)
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/thinkwaste/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Identity: IdentityConfig{
			ChainID:         "0xaa36a7",
			Network:         "testnet",
			LoginTimeoutSec: 120,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(ConfigDir(), "thinkwaste.db"),
		},
		Notifications: NotificationsConfig{
			PollIntervalSec: 30,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(ConfigDir(), "thinkwaste.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with THINKWASTE_ override file values
// (e.g. THINKWASTE_DATABASE_DSN). If the file does not exist, defaults
// plus environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("THINKWASTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can resolve it on Unmarshal.
	v.SetDefault("identity.auth_url", def.Identity.AuthURL)
	v.SetDefault("identity.client_id", def.Identity.ClientID)
	v.SetDefault("identity.chain_id", def.Identity.ChainID)
	v.SetDefault("identity.network", def.Identity.Network)
	v.SetDefault("identity.verify_key", def.Identity.VerifyKey)
	v.SetDefault("identity.issuer", def.Identity.Issuer)
	v.SetDefault("identity.audience", def.Identity.Audience)
	v.SetDefault("identity.login_timeout_sec", def.Identity.LoginTimeoutSec)
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("notifications.poll_interval_sec", def.Notifications.PollIntervalSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("config: unsupported database.driver %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "postgres" && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("config: database.dsn must be set for postgres")
	}
	if cfg.Notifications.PollIntervalSec <= 0 {
		cfg.Notifications.PollIntervalSec = 30
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("identity", cfg.Identity)
	v.Set("database", cfg.Database)
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
