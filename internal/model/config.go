package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the backend API.
type ServerConfig struct {
	// BaseURL is the root URL of the backend (e.g. https://perf.corp.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PageSize is how many notifications a snapshot page requests.
	PageSize int `mapstructure:"page_size" yaml:"page_size"`

	// TimeoutSec is the per-request timeout for REST calls.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// StreamConfig holds settings for the live notification stream.
type StreamConfig struct {
	// AutoReconnect re-syncs and reopens the stream after a drop.
	// When off, a dropped stream stays down until the next refresh
	// or login, matching the backend web client's behavior.
	AutoReconnect bool `mapstructure:"auto_reconnect" yaml:"auto_reconnect"`

	// MaxReconnectAttempts bounds the reconnect loop per drop.
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme      string `mapstructure:"theme" yaml:"theme"`
	UnreadOnly bool   `mapstructure:"unread_only" yaml:"unread_only"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Stream  StreamConfig  `mapstructure:"stream" yaml:"stream"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/perfhub/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "perfhub", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:    "http://localhost:8080",
			PageSize:   20,
			TimeoutSec: 30,
		},
		Stream: StreamConfig{
			AutoReconnect:        true,
			MaxReconnectAttempts: 6,
		},
		Display: DisplayConfig{
			Theme:      "default",
			UnreadOnly: false,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.page_size", 20)
	v.SetDefault("server.timeout_sec", 30)
	v.SetDefault("stream.auto_reconnect", true)
	v.SetDefault("stream.max_reconnect_attempts", 6)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.unread_only", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Server.PageSize <= 0 {
		cfg.Server.PageSize = 20
	}
	if cfg.Server.TimeoutSec <= 0 {
		cfg.Server.TimeoutSec = 30
	}
	if cfg.Stream.MaxReconnectAttempts <= 0 {
		cfg.Stream.MaxReconnectAttempts = 6
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

	v.Set("server", cfg.Server)
	v.Set("stream", cfg.Stream)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
