package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL        string `mapstructure:"API_BASE_URL"`
	Env               string `mapstructure:"ENV"`
	TokenFile         string `mapstructure:"TOKEN_FILE"`
	HTTPTimeoutSecs   int    `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	DosePollSecs      int    `mapstructure:"DOSE_POLL_INTERVAL_SECONDS"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	DefaultAnnotation string `mapstructure:"DEFAULT_ANNOTATION"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("API_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("ENV", "development")
	v.SetDefault("TOKEN_FILE", defaultTokenFile())
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("DOSE_POLL_INTERVAL_SECONDS", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_ANNOTATION", "Receta médica")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("API_BASE_URL")
	v.BindEnv("ENV")
	v.BindEnv("TOKEN_FILE")
	v.BindEnv("HTTP_TIMEOUT_SECONDS")
	v.BindEnv("DOSE_POLL_INTERVAL_SECONDS")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DEFAULT_ANNOTATION")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSecs) * time.Second
}

func (c *Config) DosePollInterval() time.Duration {
	return time.Duration(c.DosePollSecs) * time.Second
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.HTTPTimeoutSecs <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSecs)
	}
	if c.DosePollSecs <= 0 {
		return fmt.Errorf("DOSE_POLL_INTERVAL_SECONDS must be positive, got %d", c.DosePollSecs)
	}
	if c.TokenFile == "" {
		return fmt.Errorf("TOKEN_FILE is required")
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".citamed-token"
	}
	return filepath.Join(home, ".citamed", "token")
}
