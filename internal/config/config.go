// Package config loads and validates client configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultBaseURL = "http://localhost:8000/api/v1"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Poll      PollConfig      `mapstructure:"poll"`
	Input     InputConfig     `mapstructure:"input"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the map backend HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// OptimizerConfig locates the external optimization service.
type OptimizerConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PollConfig governs the status polling schedule.
// Zero caps mean polling continues for as long as the task stays pending.
type PollConfig struct {
	IntervalMs           int `mapstructure:"interval_ms"`
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors"`
	MaxWaitSeconds       int `mapstructure:"max_wait_seconds"`
}

// InputConfig points at the initial stop input.
type InputConfig struct {
	SeedPath string `mapstructure:"seed_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file plus environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ROUTECLIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindAliases(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Optimizer.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Optimizer.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("optimizer.base_url", DefaultBaseURL)
	v.SetDefault("optimizer.timeout_seconds", 10)
	v.SetDefault("poll.interval_ms", 1000)
	v.SetDefault("poll.max_consecutive_errors", 10)
	v.SetDefault("poll.max_wait_seconds", 600)
	v.SetDefault("input.seed_path", "data/seeds/stops.json")
	v.SetDefault("logging.development", true)
}

// bindAliases accepts the conventional unprefixed variables as well.
func bindAliases(v *viper.Viper) error {
	if err := v.BindEnv("server.port", "ROUTECLIENT_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind server.port: %w", err)
	}
	if err := v.BindEnv("optimizer.base_url", "ROUTECLIENT_OPTIMIZER_BASE_URL", "OPTIMIZER_API_URL"); err != nil {
		return fmt.Errorf("bind optimizer.base_url: %w", err)
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be > 0")
	}
	u, err := url.Parse(c.Optimizer.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("optimizer.base_url must be an absolute http(s) URL, got %q", c.Optimizer.BaseURL)
	}
	if c.Optimizer.TimeoutSeconds <= 0 {
		return errors.New("optimizer.timeout_seconds must be > 0")
	}
	if c.Poll.IntervalMs <= 0 {
		return errors.New("poll.interval_ms must be > 0")
	}
	if c.Poll.MaxConsecutiveErrors < 0 {
		return errors.New("poll.max_consecutive_errors must be >= 0")
	}
	if c.Poll.MaxWaitSeconds < 0 {
		return errors.New("poll.max_wait_seconds must be >= 0")
	}
	return nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}

func (c Config) PollMaxWait() time.Duration {
	return time.Duration(c.Poll.MaxWaitSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Optimizer.TimeoutSeconds) * time.Second
}
