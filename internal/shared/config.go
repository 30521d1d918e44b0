package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	LogLevel string         `toml:"log_level"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Preload  PreloadConfig  `toml:"preload"`
	Media    MediaConfig    `toml:"media"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port pair the status server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PreloadConfig tunes the preload manager and its window.
type PreloadConfig struct {
	MaxResident           int     `toml:"max_resident"`
	ReadyTimeoutMS        int     `toml:"ready_timeout_ms"`
	ReadyThresholdSeconds float64 `toml:"ready_threshold_seconds"`
	Lookahead             int     `toml:"lookahead"`
	Lookbehind            int     `toml:"lookbehind"`
}

// ReadyTimeout returns the readiness fallback as a [time.Duration].
func (p PreloadConfig) ReadyTimeout() time.Duration {
	return time.Duration(p.ReadyTimeoutMS) * time.Millisecond
}

// MediaConfig configures the HTTP-backed media handles.
type MediaConfig struct {
	PrefetchBytes      int64  `toml:"prefetch_bytes"`
	AssumedBitrateKbps int    `toml:"assumed_bitrate_kbps"`
	RateLimitKbps      int    `toml:"rate_limit_kbps"`
	RequestTimeoutMS   int    `toml:"request_timeout_ms"`
	UserAgent          string `toml:"user_agent"`
}

// RequestTimeout returns the per-request timeout as a [time.Duration].
func (m MediaConfig) RequestTimeout() time.Duration {
	return time.Duration(m.RequestTimeoutMS) * time.Millisecond
}

// LoadConfig reads a TOML configuration file from the specified path.
//
// Values absent from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate rejects values the preload manager or media layer cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Preload.MaxResident < 1:
		return fmt.Errorf("%w: preload.max_resident must be at least 1", ErrInvalidConfig)
	case c.Preload.ReadyTimeoutMS <= 0:
		return fmt.Errorf("%w: preload.ready_timeout_ms must be positive", ErrInvalidConfig)
	case c.Preload.ReadyThresholdSeconds < 0:
		return fmt.Errorf("%w: preload.ready_threshold_seconds cannot be negative", ErrInvalidConfig)
	case c.Preload.Lookahead < 1:
		return fmt.Errorf("%w: preload.lookahead must be at least 1", ErrInvalidConfig)
	case c.Preload.Lookbehind < 0:
		return fmt.Errorf("%w: preload.lookbehind cannot be negative", ErrInvalidConfig)
	case c.Media.PrefetchBytes <= 0:
		return fmt.Errorf("%w: media.prefetch_bytes must be positive", ErrInvalidConfig)
	case c.Media.AssumedBitrateKbps <= 0:
		return fmt.Errorf("%w: media.assumed_bitrate_kbps must be positive", ErrInvalidConfig)
	case c.Media.RateLimitKbps < 0:
		return fmt.Errorf("%w: media.rate_limit_kbps cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
