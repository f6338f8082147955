// Package config provides configuration loading for todod.
//
// Configuration comes from a YAML file, then environment variables, over
// the defaults returned by Default. See LoadWithFile for precedence and the
// file checks applied.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/bryankimani/todo-list/internal/logging"
	"github.com/bryankimani/todo-list/internal/telemetry"
)

// Config holds the complete todod configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Store     StoreConfig      `koanf:"store"`
	Events    EventsConfig     `koanf:"events"`
	Web       WebConfig        `koanf:"web"`
	RateLimit RateLimitConfig  `koanf:"ratelimit"`
	CORS      CORSConfig       `koanf:"cors"`
	Logging   logging.Config   `koanf:"logging"`
	Telemetry telemetry.Config `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig locates the JSON database.
type StoreConfig struct {
	Path  string `koanf:"path"`
	Watch bool   `koanf:"watch"`
}

// EventsConfig configures change notifications. An empty NATS URL disables
// publishing.
type EventsConfig struct {
	NATSURL       Secret   `koanf:"nats_url"`
	MaxReconnects int      `koanf:"max_reconnects"`
	ReconnectWait Duration `koanf:"reconnect_wait"`
}

// WebConfig tunes the HTML pages.
type WebConfig struct {
	PageSize int    `koanf:"page_size"`
	Timezone string `koanf:"timezone"`
}

// Location resolves Timezone, defaulting to UTC.
func (w WebConfig) Location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(w.Timezone)
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// CORSConfig lists origins allowed to call the JSON API from a browser.
type CORSConfig struct {
	AllowOrigins []string `koanf:"allow_origins"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            3001,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Store: StoreConfig{
			Path:  "database/db.json",
			Watch: true,
		},
		Events: EventsConfig{
			MaxReconnects: 5,
			ReconnectWait: Duration(time.Second),
		},
		Web: WebConfig{
			PageSize: 10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Logging:   *logging.NewDefaultConfig(),
		Telemetry: *telemetry.NewDefaultConfig(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Store.Path == "" {
		return errors.New("store path is required")
	}
	if c.Events.NATSURL.IsSet() {
		u, err := url.Parse(c.Events.NATSURL.Value())
		if err != nil || u.Host == "" {
			return errors.New("events nats_url must be a URL such as nats://localhost:4222")
		}
	}
	if c.Web.PageSize < 1 || c.Web.PageSize > 100 {
		return fmt.Errorf("web page size must be 1-100, got %d", c.Web.PageSize)
	}
	if _, err := c.Web.Location(); err != nil {
		return fmt.Errorf("invalid web timezone: %w", err)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("rate limit needs positive requests_per_second and burst")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	return nil
}
