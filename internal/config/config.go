// Package config reads process settings for the questionnaire binaries from
// the environment, optionally seeded by a .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

type Config struct {
	Remote RemoteConfig
	Web    WebConfig
	Stub   StubConfig
	Log    LogConfig
}

// RemoteConfig points the engine at the remote data service.
type RemoteConfig struct {
	URL     string
	Token   string
	Lang    string
	Timeout time.Duration
}

type WebConfig struct {
	Port         string
	TemplatesDir string
	Environment  string
}

// StubConfig configures the local stand-in for the remote service.
type StubConfig struct {
	Port     string
	SeedPath string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. Missing files are not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	cfg := &Config{
		Remote: RemoteConfig{
			URL:     getEnv("QUESTIONNAIRE_REMOTE_URL", "http://localhost:8090"),
			Token:   getEnv("QUESTIONNAIRE_TOKEN", ""),
			Lang:    getEnv("QUESTIONNAIRE_LANG", "pt-BR"),
			Timeout: getEnvAsDuration("QUESTIONNAIRE_HTTP_TIMEOUT", 0),
		},
		Web: WebConfig{
			Port:         getEnv("PORT", "8080"),
			TemplatesDir: getEnv("QUESTIONNAIRE_TEMPLATES_DIR", ""),
			Environment:  getEnv("APP_ENV", "development"),
		},
		Stub: StubConfig{
			Port:     getEnv("STUB_PORT", "8090"),
			SeedPath: getEnv("STUB_SEED", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if parsed, err := url.Parse(c.Remote.URL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("QUESTIONNAIRE_REMOTE_URL must be an http(s) URL, got %q", c.Remote.URL))
	}
	if _, err := language.Parse(c.Remote.Lang); err != nil {
		errs = append(errs, fmt.Errorf("QUESTIONNAIRE_LANG: %w", err))
	}
	if c.Remote.Timeout < 0 {
		errs = append(errs, errors.New("QUESTIONNAIRE_HTTP_TIMEOUT must not be negative"))
	}
	if err := validPort(c.Web.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT: %w", err))
	}
	if err := validPort(c.Stub.Port); err != nil {
		errs = append(errs, fmt.Errorf("STUB_PORT: %w", err))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address for a port.
func Addr(port string) string {
	return ":" + port
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c LogConfig) level() (slog.Level, error) {
	switch c.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.Level)
	}
}

func validPort(port string) error {
	value, err := strconv.Atoi(port)
	if err != nil || value <= 0 || value > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	// Bare numbers are seconds.
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	slog.Warn("invalid duration, using default", "key", key, "value", valueStr, "default", defaultValue)
	return defaultValue
}
