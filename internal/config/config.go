// Package config reads process configuration from the environment.
//
// Values come from real environment variables first and, for keys that are
// unset there, from an optional .env file. Both binaries share it: the
// server uses everything, the terminal editor only DB_PATH, LOG_LEVEL and
// SWIFTSNIP_LOG.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the resolved configuration.
type Config struct {
	Port     int
	DBPath   string
	LogLevel slog.Level

	// Sign-in. An empty JWTSecret disables it entirely.
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	CookieSecure       bool

	ExecutorEnabled  bool
	ExecutorPoolSize int
	ExecutorTimeout  time.Duration

	// TUILogPath is where the terminal editor writes its log.
	TUILogPath string
}

// AuthEnabled reports whether session tokens can be issued and checked.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// GitHubEnabled reports whether the OAuth routes can be served.
func (c *Config) GitHubEnabled() bool {
	return c.AuthEnabled() && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Load reads envFile (if it exists) and the process environment.
// A missing envFile is not an error; a malformed one is.
func Load(envFile string) (*Config, error) {
	fileValues := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: reading %s: %w", envFile, err)
		}
	}

	return FromLookup(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fileValues[key]
	})
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) string) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		Port:               r.int("PORT", 8080),
		DBPath:             r.string("DB_PATH", filepath.Join("data", "swiftsnip.db")),
		LogLevel:           r.level("LOG_LEVEL", slog.LevelInfo),
		JWTSecret:          r.string("JWT_SECRET", ""),
		GitHubClientID:     r.string("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: r.string("GITHUB_CLIENT_SECRET", ""),
		CookieSecure:       r.bool("COOKIE_SECURE", false),
		ExecutorEnabled:    r.bool("EXECUTOR_ENABLED", true),
		ExecutorPoolSize:   r.int("EXECUTOR_POOL_SIZE", 1),
		ExecutorTimeout:    r.duration("EXECUTOR_TIMEOUT", 10*time.Second),
		TUILogPath:         r.string("SWIFTSNIP_LOG", filepath.Join(os.TempDir(), "swiftsnip.log")),
	}
	cfg.GitHubCallbackURL = r.string("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if err := errors.Join(append(r.errs, cfg.Validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field and range constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: PORT %d out of range", c.Port))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("config: DB_PATH is required"))
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("config: JWT_SECRET must be at least 16 characters"))
	}
	if c.ExecutorPoolSize < 1 {
		errs = append(errs, errors.New("config: EXECUTOR_POOL_SIZE must be at least 1"))
	}
	if c.ExecutorTimeout <= 0 {
		errs = append(errs, errors.New("config: EXECUTOR_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// reader collects parse errors so every bad key is reported at once.
type reader struct {
	lookup func(string) string
	errs   []error
}

func (r *reader) string(key, def string) string {
	if v := strings.TrimSpace(r.lookup(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	raw := r.string(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s=%q is not an integer", key, raw))
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	raw := r.string(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s=%q is not a boolean", key, raw))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	raw := r.string(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s=%q is not a duration", key, raw))
		return def
	}
	return d
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	raw := r.string(key, "")
	if raw == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(raw)); err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s=%q is not a log level", key, raw))
		return def
	}
	return l
}
