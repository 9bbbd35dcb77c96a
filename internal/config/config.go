package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all environment backed configuration for guidechat.
type Config struct {
	// Backend
	BackendURL  string        `env:"GUIDECHAT_BACKEND_URL" envDefault:"http://localhost:5000"`
	HTTPTimeout time.Duration `env:"GUIDECHAT_HTTP_TIMEOUT" envDefault:"120s"`

	// Local data
	DataDir     string `env:"GUIDECHAT_DATA_DIR"`
	ProfilePath string `env:"GUIDECHAT_PROFILE"`

	// Rendering
	RevealInterval time.Duration `env:"GUIDECHAT_REVEAL_INTERVAL" envDefault:"10ms"`
	RevealDelay    time.Duration `env:"GUIDECHAT_REVEAL_DELAY" envDefault:"300ms"`
	ThinkInterval  time.Duration `env:"GUIDECHAT_THINK_INTERVAL" envDefault:"400ms"`

	// Logging
	LogLevel  string `env:"GUIDECHAT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GUIDECHAT_LOG_FORMAT" envDefault:"json"`
	DevMode   bool   `env:"GUIDECHAT_DEV" envDefault:"false"`
}

// Load parses environment variables into Config and performs minimal
// validation. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.BackendURL); err != nil {
		return nil, fmt.Errorf("invalid GUIDECHAT_BACKEND_URL: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".guidechat")
	}

	if cfg.RevealInterval < 0 || cfg.ThinkInterval <= 0 {
		return nil, fmt.Errorf("animation intervals must be positive")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	return cfg, nil
}

var Version = "dev"
