// Package config loads settings shared by the toon binaries from the
// environment, after reading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvLogLevel    = "TOON_LOG_LEVEL"
	EnvSeed        = "TOON_SEED"
	EnvCount       = "TOON_COUNT"
	EnvStrictCount = "TOON_STRICT_COUNT"
)

// Config holds runtime settings. Command-line flags override these.
type Config struct {
	LogLevel    slog.Level
	Seed        uint64
	Count       int
	StrictCount bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel: slog.LevelInfo,
		Seed:     42,
		Count:    200,
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, then builds a Config from it. Missing .env files
// are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup for each variable.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvLogLevel); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
	}
	if v, ok := lookup(EnvSeed); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvSeed, err)
		}
		cfg.Seed = n
	}
	if v, ok := lookup(EnvCount); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("config: %s: invalid count %q", EnvCount, v)
		}
		cfg.Count = n
	}
	if v, ok := lookup(EnvStrictCount); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvStrictCount, err)
		}
		cfg.StrictCount = b
	}

	return cfg, nil
}

// Logger returns a text logger on stderr at the configured level.
func (c Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}
