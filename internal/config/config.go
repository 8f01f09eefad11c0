// Package config loads missiondeck configuration from defaults, an optional
// config.yaml, and MISSIONDECK_-prefixed environment variables, in increasing
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/missiondeck/missiondeck/internal/logging"
)

// Config holds all configuration sections.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  logging.Config `mapstructure:"logging"`
}

// ServerConfig holds the control-plane HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the sqlite store configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds display refresh and view tuning.
type UIConfig struct {
	RefreshIntervalMs int     `mapstructure:"refresh_interval_ms"`
	StepIntervalMs    int     `mapstructure:"step_interval_ms"`
	ZoomMin           float64 `mapstructure:"zoom_min"`
	ZoomMax           float64 `mapstructure:"zoom_max"`
}

// RefreshInterval returns the coarse data refresh period.
func (u UIConfig) RefreshInterval() time.Duration {
	return time.Duration(u.RefreshIntervalMs) * time.Millisecond
}

// StepInterval returns the fine simulation-step period.
func (u UIConfig) StepInterval() time.Duration {
	return time.Duration(u.StepIntervalMs) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8930)

	v.SetDefault("database.path", "missiondeck.db")

	v.SetDefault("ui.refresh_interval_ms", 1000)
	v.SetDefault("ui.step_interval_ms", 100)
	v.SetDefault("ui.zoom_min", 0.2)
	v.SetDefault("ui.zoom_max", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stderr")
}

// Load reads configuration from defaults, config file, and environment.
// Environment variables use the MISSIONDECK_ prefix with underscores, e.g.
// MISSIONDECK_SERVER_PORT.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration, preferring a config file in the given
// directory when non-empty.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MISSIONDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/missiondeck/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if cfg.Database.Path == "" {
		errs = append(errs, "database.path must not be empty")
	}
	if cfg.UI.RefreshIntervalMs <= 0 {
		errs = append(errs, "ui.refresh_interval_ms must be positive")
	}
	if cfg.UI.StepIntervalMs <= 0 {
		errs = append(errs, "ui.step_interval_ms must be positive")
	}
	if cfg.UI.ZoomMin <= 0 || cfg.UI.ZoomMax < cfg.UI.ZoomMin {
		errs = append(errs, "ui zoom range must satisfy 0 < zoom_min <= zoom_max")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
