package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./reelx.db" {
			t.Errorf("expected database path ./reelx.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}
		if config.Preload.MaxResident != 3 {
			t.Errorf("expected max_resident 3, got %d", config.Preload.MaxResident)
		}
		if config.Preload.ReadyTimeout() != 3*time.Second {
			t.Errorf("expected ready timeout 3s, got %v", config.Preload.ReadyTimeout())
		}
		if config.Preload.ReadyThresholdSeconds != 0.5 {
			t.Errorf("expected ready threshold 0.5, got %v", config.Preload.ReadyThresholdSeconds)
		}
		if config.Preload.Lookahead != 3 || config.Preload.Lookbehind != 1 {
			t.Errorf("expected window 1 behind / 3 ahead, got %d / %d", config.Preload.Lookbehind, config.Preload.Lookahead)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig overlays defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")
		testConfig := `[database]
path = "/custom/path.db"

[server]
port = 8080

[preload]
max_resident = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Addr() != "127.0.0.1:8080" {
			t.Errorf("expected addr 127.0.0.1:8080, got %s", config.Server.Addr())
		}
		if config.Preload.MaxResident != 5 {
			t.Errorf("expected max_resident 5, got %d", config.Preload.MaxResident)
		}
		if config.Preload.ReadyTimeoutMS != 3000 {
			t.Errorf("expected default ready timeout to survive overlay, got %d", config.Preload.ReadyTimeoutMS)
		}
		if config.Media.AssumedBitrateKbps != 2000 {
			t.Errorf("expected default bitrate to survive overlay, got %d", config.Media.AssumedBitrateKbps)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("LoadConfig malformed", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[preload\nmax_resident ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tt := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero max resident", mutate: func(c *Config) { c.Preload.MaxResident = 0 }},
		{name: "zero ready timeout", mutate: func(c *Config) { c.Preload.ReadyTimeoutMS = 0 }},
		{name: "negative threshold", mutate: func(c *Config) { c.Preload.ReadyThresholdSeconds = -1 }},
		{name: "zero lookahead", mutate: func(c *Config) { c.Preload.Lookahead = 0 }},
		{name: "negative lookbehind", mutate: func(c *Config) { c.Preload.Lookbehind = -1 }},
		{name: "zero prefetch", mutate: func(c *Config) { c.Media.PrefetchBytes = 0 }},
		{name: "zero bitrate", mutate: func(c *Config) { c.Media.AssumedBitrateKbps = 0 }},
		{name: "negative rate limit", mutate: func(c *Config) { c.Media.RateLimitKbps = -5 }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
