package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./tapedeck.db" {
			t.Errorf("expected database path ./tapedeck.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Playback.Volume != 0.8 {
			t.Errorf("expected playback volume 0.8, got %v", config.Playback.Volume)
		}

		if config.Playback.Curve != "smooth" {
			t.Errorf("expected smooth curve, got %s", config.Playback.Curve)
		}

		if config.Cloud.TokenEnv != "TAPEDECK_CLOUD_TOKEN" {
			t.Errorf("expected token env TAPEDECK_CLOUD_TOKEN, got %s", config.Cloud.TokenEnv)
		}

		if config.Offline.Workers != 3 {
			t.Errorf("expected 3 offline workers, got %d", config.Offline.Workers)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
port = 8080

[playback]
volume = 0.5
fade_in = 2.5
curve = "exponential"
environment = "cathedral"
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

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Playback.FadeIn != 2.5 {
			t.Errorf("expected fade in 2.5, got %v", config.Playback.FadeIn)
		}

		if config.Playback.FadeOut != 1.0 {
			t.Errorf("expected default fade out 1.0 to survive, got %v", config.Playback.FadeOut)
		}

		if config.Offline.RateLimit != 2.0 {
			t.Errorf("expected default offline rate limit to survive, got %v", config.Offline.RateLimit)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("TAPEDECK_TEST_TOKEN=abc123\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("TAPEDECK_TEST_TOKEN") })

		if err := LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("LoadEnv failed: %v", err)
		}

		cloud := CloudConfig{TokenEnv: "TAPEDECK_TEST_TOKEN"}
		if got := cloud.AccessToken(); got != "abc123" {
			t.Errorf("expected token abc123, got %q", got)
		}
	})
}
