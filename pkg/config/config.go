// Package config loads runtime settings for routefsm programs from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/anggasct/routefsm"
)

// Format represents logger output format.
type Format string

const (
	// FormatJSON outputs one JSON object per record.
	FormatJSON Format = "json"
	// FormatText outputs key=value records.
	FormatText Format = "text"
)

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into Config
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrInvalidConfig is returned when a parsed value is out of range
	ErrInvalidConfig = errors.New("invalid configuration value")

	// ErrLoadingEnvFile is returned when an explicitly requested .env file cannot be read
	ErrLoadingEnvFile = errors.New("failed to load env file")
)

// Config holds the settings shared by routefsm programs.
// MachineName, when set, overrides machine names.
type Config struct {
	LogLevel        string `env:"ROUTEFSM_LOG_LEVEL" envDefault:"info"`
	LogFormat       Format `env:"ROUTEFSM_LOG_FORMAT" envDefault:"text"`
	PublisherBuffer int    `env:"ROUTEFSM_PUBLISHER_BUFFER" envDefault:"16"`
	MachineName     string `env:"ROUTEFSM_MACHINE_NAME"`
}

var defaultEnvLoaded sync.Once

// Load reads Config from the environment.
//
// Without arguments the default .env file is loaded once if present. Explicit
// files must exist. Variables already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		defaultEnvLoaded.Do(func() {
			// the default .env file is optional
			_ = godotenv.Load()
		})
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, errors.Join(ErrLoadingEnvFile, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad(envFiles ...string) Config {
	cfg, err := Load(envFiles...)
	if err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
	return cfg
}

// Validate checks that every field holds a usable value.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	switch c.LogFormat {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("%w: log format %q must be %q or %q", ErrInvalidConfig, c.LogFormat, FormatJSON, FormatText)
	}

	if c.PublisherBuffer < 0 {
		return fmt.Errorf("%w: publisher buffer %d must not be negative", ErrInvalidConfig, c.PublisherBuffer)
	}

	if c.MachineName != "" && strings.TrimSpace(c.MachineName) == "" {
		return fmt.Errorf("%w: machine name must not be blank", ErrInvalidConfig)
	}

	return nil
}

// Level parses LogLevel into a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// NewLogger builds a logger writing to w (stderr when nil) in the configured format and level.
func (c Config) NewLogger(w io.Writer, attrs ...slog.Attr) (*slog.Logger, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	level, _ := c.Level()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch c.LogFormat {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler), nil
}

// MachineOptions returns the machine options implied by the configuration:
// the logger, and the name override when one is set.
func MachineOptions[S, E comparable](c Config, logger *slog.Logger) []routefsm.Option[S, E] {
	opts := []routefsm.Option[S, E]{routefsm.WithLogger[S, E](logger)}
	if c.MachineName != "" {
		opts = append(opts, routefsm.WithName[S, E](c.MachineName))
	}
	return opts
}
