// Package config provides environment-based configuration management
// Every setting has a default, so the server runs with no environment at all
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ServerConfig holds listener and static asset parameters
type ServerConfig struct {
	Port        int
	StaticRoot  string // Directory served for every non-API path
	MonitorPage string // Page announced in the startup message
}

// LogConfig holds parameters of the tailed log file
type LogConfig struct {
	Path      string
	Route     string // Exact path of the tail endpoint
	TailLines int    // Maximum number of lines returned
}

// Config aggregates all configuration sections
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	LogLevel slog.Level
}

// Defaults
const (
	DefaultPort        = 8888
	DefaultLogPath     = "/tmp/kotlin-server.log"
	DefaultLogRoute    = "/api/logs"
	DefaultTailLines   = 100
	DefaultStaticRoot  = "."
	DefaultMonitorPage = "monitor.html"
)

// LoadConfig reads configuration from environment variables
// Returns error if a value is present but invalid
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.Server.Port = getEnvAsInt("APP_PORT", DefaultPort)
	cfg.Server.StaticRoot = getEnv("STATIC_ROOT", DefaultStaticRoot)
	cfg.Server.MonitorPage = getEnv("MONITOR_PAGE", DefaultMonitorPage)

	cfg.Log.Path = getEnv("LOG_FILE", DefaultLogPath)
	cfg.Log.Route = getEnv("LOG_ROUTE", DefaultLogRoute)
	cfg.Log.TailLines = getEnvAsInt("TAIL_LINES", DefaultTailLines)

	level, err := ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
// It is called again by the CLI after flags are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", c.Server.Port)
	}
	if c.Server.StaticRoot == "" {
		return fmt.Errorf("static root must not be empty")
	}
	if c.Log.Path == "" {
		return fmt.Errorf("log file path must not be empty")
	}
	if !strings.HasPrefix(c.Log.Route, "/") || len(c.Log.Route) < 2 || strings.HasSuffix(c.Log.Route, "/") {
		return fmt.Errorf("log route %q must start with / and must not end with one", c.Log.Route)
	}
	if c.Log.TailLines < 1 {
		return fmt.Errorf("tail lines must be at least 1, got %d", c.Log.TailLines)
	}
	return nil
}

// Addr returns the listen address (all interfaces)
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// MonitorURL returns the URL printed at startup
func (c *ServerConfig) MonitorURL() string {
	return fmt.Sprintf("http://localhost:%d/%s", c.Port, strings.TrimPrefix(c.MonitorPage, "/"))
}

// ParseLevel maps a level name to slog.Level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", name, err)
	}
	return level, nil
}

// getEnv reads environment variable with fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads environment variable as integer with fallback default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		slog.Warn("Ignoring non-numeric environment value", "key", key, "value", value)
	}
	return defaultValue
}
