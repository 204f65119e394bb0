package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Validate when no seats.aero key is configured
var ErrMissingAPIKey = errors.New("SEATS_AERO_API_KEY environment variable is not set; " +
	"set it in the environment or a .env file (get your API key from https://seats.aero/apikey)")

const configFile = "config.yaml"

// Config aggregates all application configuration
type Config struct {
	SeatsAero SeatsAeroConfig `yaml:"seats_aero"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

type SeatsAeroConfig struct {
	APIKey            string  `yaml:"api_key" env:"SEATS_AERO_API_KEY"`
	BaseURL           string  `yaml:"base_url" env:"SEATS_AERO_BASE_URL" env-default:"https://seats.aero/partnerapi"`
	Timeout           int     `yaml:"timeout" env:"SEATS_AERO_TIMEOUT" env-default:"30"`
	MaxRetries        int     `yaml:"max_retries" env:"SEATS_AERO_MAX_RETRIES" env-default:"3"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"SEATS_AERO_REQUESTS_PER_SECOND" env-default:"0"`
	ResultLimit       int     `yaml:"result_limit" env:"SEATS_AERO_RESULT_LIMIT" env-default:"10"`
}

// TimeoutDuration returns the per-request timeout
func (c SeatsAeroConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type ServerConfig struct {
	Name    string `yaml:"name" env:"MCP_SERVER_NAME" env-default:"seats-aero-mcp"`
	Version string `yaml:"version" env:"MCP_SERVER_VERSION" env-default:"1.0.0"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from config.yaml and environment variables.
// A .env file in the working directory is loaded into the environment first.
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	var cfg Config

	// cleanenv applies env overrides on top of the file when it exists.
	if _, err := os.Stat(configFile); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
		return &cfg, nil
	}
	if err := cleanenv.ReadConfig(configFile, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
	}

	return &cfg, nil
}

// Validate reports configuration that prevents startup
func (c *Config) Validate() error {
	if c.SeatsAero.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.SeatsAero.Timeout <= 0 {
		return fmt.Errorf("SEATS_AERO_TIMEOUT must be positive, got %d", c.SeatsAero.Timeout)
	}
	if c.SeatsAero.MaxRetries < 0 {
		return fmt.Errorf("SEATS_AERO_MAX_RETRIES must not be negative, got %d", c.SeatsAero.MaxRetries)
	}
	if c.SeatsAero.ResultLimit <= 0 {
		return fmt.Errorf("SEATS_AERO_RESULT_LIMIT must be positive, got %d", c.SeatsAero.ResultLimit)
	}
	return nil
}
