package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "tunescout"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paging  PagingConfig  `mapstructure:"paging"`
	History HistoryConfig `mapstructure:"history"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds recommendation service configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"` // Deadline for a single page request
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig controls the circuit breaker in front of the service
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"` // Consecutive failures before opening
	Cooldown    time.Duration `mapstructure:"cooldown"`     // Open -> half-open delay
}

// PagingConfig holds the form defaults
type PagingConfig struct {
	DefaultPlaylistID int `mapstructure:"default_playlist_id"`
	DefaultPageSize   int `mapstructure:"default_page_size"`
}

// HistoryConfig holds query history configuration
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"` // Empty keeps history in memory only
	Max     int    `mapstructure:"max"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme          string `mapstructure:"theme"`
	ShowRequestIDs bool   `mapstructure:"show_request_ids"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://127.0.0.1:8000",
			Timeout: 30 * time.Second,
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Cooldown:    30 * time.Second,
			},
		},
		Paging: PagingConfig{
			DefaultPlaylistID: 405000,
			DefaultPageSize:   10,
		},
		History: HistoryConfig{
			Enabled: true,
			File:    filepath.Join(defaultDataPath(), "history.db"),
			Max:     20,
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), appName+".log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the directory for logs and history on the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName)
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName)
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return load(viper.New(), defaultConfigPath(), ".")
}

// LoadConfigFrom loads configuration from an explicit file path
func LoadConfigFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper, searchPaths ...string) (*Config, error) {
	setDefaults(v, DefaultConfig())

	if len(searchPaths) > 0 {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	// Environment variable overrides (TUNESCOUT_SERVER_URL, ...)
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("server.breaker.enabled", cfg.Server.Breaker.Enabled)
	v.SetDefault("server.breaker.max_failures", cfg.Server.Breaker.MaxFailures)
	v.SetDefault("server.breaker.cooldown", cfg.Server.Breaker.Cooldown)

	v.SetDefault("paging.default_playlist_id", cfg.Paging.DefaultPlaylistID)
	v.SetDefault("paging.default_page_size", cfg.Paging.DefaultPageSize)

	v.SetDefault("history.enabled", cfg.History.Enabled)
	v.SetDefault("history.file", cfg.History.File)
	v.SetDefault("history.max", cfg.History.Max)

	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("ui.show_request_ids", cfg.UI.ShowRequestIDs)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// SaveConfig saves the configuration to the default config directory
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return SaveConfigTo(cfg, filepath.Join(configPath, "config.yaml"))
}

// SaveConfigTo writes cfg as YAML to path
func SaveConfigTo(cfg *Config, path string) error {
	v := viper.New()

	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())
	v.Set("server.breaker.enabled", cfg.Server.Breaker.Enabled)
	v.Set("server.breaker.max_failures", cfg.Server.Breaker.MaxFailures)
	v.Set("server.breaker.cooldown", cfg.Server.Breaker.Cooldown.String())

	v.Set("paging.default_playlist_id", cfg.Paging.DefaultPlaylistID)
	v.Set("paging.default_page_size", cfg.Paging.DefaultPageSize)

	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.file", cfg.History.File)
	v.Set("history.max", cfg.History.Max)

	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("ui.show_request_ids", cfg.UI.ShowRequestIDs)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the values the client cannot run without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return errors.New("server URL is required")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Paging.DefaultPageSize <= 0 {
		return fmt.Errorf("default page size must be positive, got %d", c.Paging.DefaultPageSize)
	}
	return nil
}

// ClearHistory removes the history database file
func ClearHistory(cfg *Config) error {
	if cfg.History.File == "" {
		return nil
	}
	if err := os.Remove(cfg.History.File); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
