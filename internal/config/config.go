// Package config loads imagegen settings from the environment and an optional
// .env file. The API key is not part of Config: it is a secret
// resolved by internal/auth and passed to the gateway client explicitly.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvFile is loaded from the working directory when present.
const DefaultEnvFile = ".env"

// Config holds the non-secret settings.
type Config struct {
	BaseURL       string        `envconfig:"IMAGEGEN_BASE_URL" default:"https://api.apiframe.pro"`
	OutputDir     string        `envconfig:"IMAGEGEN_OUTPUT_DIR" default:"generated-assets"`
	PollInterval  time.Duration `envconfig:"IMAGEGEN_POLL_INTERVAL" default:"5s"`
	Timeout       time.Duration `envconfig:"IMAGEGEN_TIMEOUT" default:"300s"`
	MaxPollErrors int           `envconfig:"IMAGEGEN_MAX_POLL_ERRORS" default:"3"`
	HTTPTimeout   time.Duration `envconfig:"IMAGEGEN_HTTP_TIMEOUT" default:"60s"`
	PreferIPv4    bool          `envconfig:"IMAGEGEN_PREFER_IPV4" default:"false"`
	LogLevel      string        `envconfig:"IMAGEGEN_LOG_LEVEL" default:"info"`
}

// EnvPrefix names the variables Config is read from.
const EnvPrefix = "IMAGEGEN_"

// LoadDotEnv exports the IMAGEGEN_* variables in path without overriding ones
// already set. Other entries, including the API key, stay in the file. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check if %s exists: %w", path, err)
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	for key, value := range values {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// Load reads envFile (if it exists) and then the process environment.
func Load(envFile string) (Config, error) {
	if err := LoadDotEnv(envFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load configuration: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the job client cannot work with.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("IMAGEGEN_BASE_URL must not be empty")
	case c.OutputDir == "":
		return fmt.Errorf("IMAGEGEN_OUTPUT_DIR must not be empty")
	case c.PollInterval <= 0:
		return fmt.Errorf("IMAGEGEN_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	case c.Timeout <= 0:
		return fmt.Errorf("IMAGEGEN_TIMEOUT must be positive, got %s", c.Timeout)
	case c.MaxPollErrors < 1:
		return fmt.Errorf("IMAGEGEN_MAX_POLL_ERRORS must be at least 1, got %d", c.MaxPollErrors)
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("IMAGEGEN_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}
