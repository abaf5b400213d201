// Package server provides configuration helpers that define runtime defaults
// and validation for the chat relay.
package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DefaultPort is used when PORT is unset or not a positive number.
const DefaultPort = 3000

var validate = validator.New()

// Config holds the server configuration settings.
type Config struct {
	Host            string        `env:"HOST"`
	RawPort         string        `env:"PORT"`
	Port            int           `validate:"min=1,max=65535"`
	StaticDir       string        `env:"STATIC_DIR,default=public" validate:"required"`
	RawOrigins      string        `env:"ALLOWED_ORIGINS,default=*"`
	AllowedOrigins  []string
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=0" validate:"gte=0"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	return &Config{
		Port:            DefaultPort,
		StaticDir:       "public",
		RawOrigins:      "*",
		AllowedOrigins:  []string{"*"},
		LogLevel:        "INFO",
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig reads an optional .env file, then the process environment, and
// validates the result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	cfg.Port = parsePort(cfg.RawPort)
	cfg.AllowedOrigins = parseOrigins(cfg.RawOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func parsePort(value string) int {
	if port, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && port > 0 {
		return port
	}
	return DefaultPort
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
