package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Playback PlaybackConfig `toml:"playback"`
	Cloud    CloudConfig    `toml:"cloud"`
	Offline  OfflineConfig  `toml:"offline"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local HTTP control surface.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// PlaybackConfig holds the initial playback session settings.
type PlaybackConfig struct {
	Volume      float64 `toml:"volume"`
	FadeIn      float64 `toml:"fade_in"`
	FadeOut     float64 `toml:"fade_out"`
	Curve       string  `toml:"curve"`
	AutoAdvance bool    `toml:"auto_advance"`
	Environment string  `toml:"environment"`
}

// CloudConfig contains cloud-drive provider settings.
//
// Tokens are never stored in the file; TokenEnv and RefreshTokenEnv name the environment variables that hold them.
type CloudConfig struct {
	Provider        string `toml:"provider"`
	BaseURL         string `toml:"base_url"`
	TokenURL        string `toml:"token_url"`
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	TokenEnv        string `toml:"token_env"`
	RefreshTokenEnv string `toml:"refresh_token_env"`
}

// AccessToken returns the access token from the configured environment variable.
func (c CloudConfig) AccessToken() string {
	if c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// RefreshToken returns the refresh token from the configured environment variable.
func (c CloudConfig) RefreshToken() string {
	if c.RefreshTokenEnv == "" {
		return ""
	}
	return os.Getenv(c.RefreshTokenEnv)
}

// OfflineConfig contains bulk offline download settings.
type OfflineConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// LoadEnv loads .env style files into the process environment.
//
// Missing files are ignored so a bare checkout still runs.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}
