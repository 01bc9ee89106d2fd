package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the console needs from the environment
type Config struct {
	GatewayBaseURL string        `env:"GATEWAY_BASE_URL"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"15s"`
	ServerPort     string        `env:"SERVER_PORT" envDefault:"3000"`
	StateDir       string        `env:"STATE_DIR" envDefault:".state"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding    string        `env:"LOG_ENCODING" envDefault:"console"`
}

// Load parses configuration from environment variables
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.GatewayBaseURL == "" {
		return nil, fmt.Errorf("GATEWAY_BASE_URL not set in environment")
	}
	cfg.GatewayBaseURL = strings.TrimRight(cfg.GatewayBaseURL, "/")

	return &cfg, nil
}
