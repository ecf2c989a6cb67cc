// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/task-gateway/config.toml",
	"configs/config.toml",
}

// reservedGatewayPaths are served locally and never forwarded; route
// prefixes and the metrics path must not shadow them.
var reservedGatewayPaths = []string{"/", "/health", "/routes", "/ping", "/docs", "/redoc", "/openapi.json"}

// CLI holds command-line arguments parsed by Kong. The env tags carry the
// deployment surface the gateway is driven by in containerized setups.
type CLI struct {
	Config          string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host            string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port            int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	AuthURL         string `kong:"help='Auth service base URL (overrides config).',env='AUTH_SERVICE_URL'"`
	TaskURL         string `kong:"help='Task service base URL (overrides config).',env='TASK_SERVICE_URL'"`
	NotificationURL string `kong:"help='Notification service base URL (overrides config).',env='NOTIFICATION_SERVICE_URL'"`
	RequestTimeout  int    `kong:"help='Per-attempt upstream timeout in seconds (overrides config).',env='REQUEST_TIMEOUT'"`
	MaxRetries      int    `kong:"help='Total forward attempts per request (overrides config).',env='MAX_RETRIES'"`
	PoolSize        int    `kong:"help='Outbound connection pool size (overrides config).',env='CONNECTION_POOL_LIMITS'"`
	Version         string `kong:"help='Gateway version string (overrides config).',env='SERVICE_VERSION'"`
	LogLevel        string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level gateway configuration. It is validated once at
// startup and treated as immutable afterwards.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Upstream UpstreamConfig `toml:"upstream"`
	Routes   []RouteConfig  `toml:"routes"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8080); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// GatewayConfig holds gateway identity settings.
type GatewayConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// UpstreamConfig holds outbound connection settings shared by all routes.
type UpstreamConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxRetries     int `toml:"max_retries"` // total attempts per request, not retries after the first
	PoolSize       int `toml:"pool_size"`
}

// RouteConfig declares one prefix route. Declaration order is significant:
// the first matching prefix wins.
type RouteConfig struct {
	Name        string `toml:"name"`
	Prefix      string `toml:"prefix"`
	URL         string `toml:"url"`
	Description string `toml:"description"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/task-gateway/config.toml then configs/config.toml; if neither exists
// the gateway runs on defaults plus environment overrides, which matches
// env-only container deployments.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	if len(cfg.Routes) == 0 {
		cfg.Routes = defaultRoutes()
	}
	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// defaultRoutes mirrors the standard task-manager deployment: auth, task
// and notification services behind their docker-compose hostnames.
func defaultRoutes() []RouteConfig {
	return []RouteConfig{
		{Name: "auth", Prefix: "/auth", URL: "http://auth_service:8000", Description: "Authentication Service"},
		{Name: "tasks", Prefix: "/api/v1/tasks", URL: "http://task_service:8000", Description: "Task Management Service"},
		{Name: "notifications", Prefix: "/api/v1/notifications", URL: "http://notification_service:8000", Description: "Notification Service"},
	}
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.RequestTimeout != 0 {
		c.Upstream.TimeoutSeconds = cli.RequestTimeout
	}
	if cli.MaxRetries != 0 {
		c.Upstream.MaxRetries = cli.MaxRetries
	}
	if cli.PoolSize != 0 {
		c.Upstream.PoolSize = cli.PoolSize
	}
	if cli.Version != "" {
		c.Gateway.Version = cli.Version
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}

	c.overrideRouteURL("auth", cli.AuthURL)
	c.overrideRouteURL("tasks", cli.TaskURL)
	c.overrideRouteURL("notifications", cli.NotificationURL)
}

func (c *Config) overrideRouteURL(name, u string) {
	if u == "" {
		return
	}
	for i := range c.Routes {
		if c.Routes[i].Name == name {
			c.Routes[i].URL = u
			return
		}
	}
}

func (c *Config) validate() error {
	if len(c.Routes) == 0 {
		return fmt.Errorf("at least one route is required")
	}

	seen := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if r.Name == "" {
			return fmt.Errorf("routes[%d].name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("routes[%d].name %q is duplicated", i, r.Name)
		}
		seen[r.Name] = true

		if r.Prefix == "" || r.Prefix[0] != '/' {
			return fmt.Errorf("routes[%d].prefix must start with '/'; got %q", i, r.Prefix)
		}
		for _, reserved := range reservedGatewayPaths {
			if r.Prefix == reserved {
				return fmt.Errorf("routes[%d].prefix %q shadows reserved gateway path", i, r.Prefix)
			}
		}

		u, err := url.Parse(r.URL)
		if err != nil {
			return fmt.Errorf("routes[%d].url is not a valid URL: %w", i, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("routes[%d].url must use http or https; got %q", i, r.URL)
		}
		if u.Host == "" {
			return fmt.Errorf("routes[%d].url is missing a host; got %q", i, r.URL)
		}
	}

	// Numeric bounds.
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 0–65535; got %d", c.Server.Port)
	}
	if c.Server.BodyMaxBytes < 0 {
		return fmt.Errorf("server.body_max_bytes must be non-negative; got %d", c.Server.BodyMaxBytes)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must be non-negative; got %d", c.Upstream.MaxRetries)
	}
	if c.Upstream.PoolSize < 0 {
		return fmt.Errorf("upstream.pool_size must be non-negative; got %d", c.Upstream.PoolSize)
	}
	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled && c.Metrics.Path != "" {
		p := c.Metrics.Path
		if p[0] != '/' {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range reservedGatewayPaths {
			if p == reserved {
				return fmt.Errorf("metrics.path %q conflicts with reserved gateway path", p)
			}
		}
		for _, r := range c.Routes {
			if p == r.Prefix || strings.HasPrefix(p, r.Prefix+"/") {
				return fmt.Errorf("metrics.path %q conflicts with route prefix %q", p, r.Prefix)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Gateway.Name == "" {
		c.Gateway.Name = "task_manager_api_gateway"
	}
	if c.Gateway.Version == "" {
		c.Gateway.Version = "1.0.0"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = 3
	}
	if c.Upstream.PoolSize == 0 {
		c.Upstream.PoolSize = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ReservedPaths returns the gateway paths that are never forwarded,
// including the metrics path when metrics are enabled.
func (c *Config) ReservedPaths() []string {
	out := make([]string, len(reservedGatewayPaths), len(reservedGatewayPaths)+1)
	copy(out, reservedGatewayPaths)
	if c.Metrics.Enabled {
		out = append(out, c.Metrics.Path)
	}
	return out
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
