// Package config loads and validates application configuration from environment variables
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"fujin.app/pkg/errors"
)

// Config represents the application configuration structure
type Config struct {
	Server    ServerConfig    `split_words:"true"`
	Database  DatabaseConfig  `split_words:"true"`
	Weather   WeatherConfig   `split_words:"true"`
	Push      PushConfig      `split_words:"true"`
	Scheduler SchedulerConfig `split_words:"true"`
	Mirror    MirrorConfig    `split_words:"true"`
	LogLevel  string          `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"fujin"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

// GetDSN returns a formatted database connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// WeatherConfig contains settings for the external weather provider
type WeatherConfig struct {
	APIKey       string        `envconfig:"WEATHER_API_KEY" required:"true"`
	BaseURL      string        `envconfig:"WEATHER_API_BASE_URL" default:"https://api.weatherapi.com/v1"`
	Timeout      time.Duration `envconfig:"WEATHER_API_TIMEOUT" default:"10s"`
	SearchLimit  int           `envconfig:"WEATHER_SEARCH_LIMIT" default:"10"`
	ForecastDays int           `envconfig:"WEATHER_FORECAST_DAYS" default:"8"`
}

// PushConfig contains settings for push notification delivery
type PushConfig struct {
	Endpoint string        `envconfig:"PUSH_ENDPOINT" default:"https://exp.host/--/api/v2/push/send"`
	Timeout  time.Duration `envconfig:"PUSH_TIMEOUT" default:"10s"`
}

// SchedulerConfig contains settings for the two background jobs
type SchedulerConfig struct {
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"30m"`
	AlertInterval   time.Duration `envconfig:"ALERT_INTERVAL" default:"1m"`
	LocationDelay   time.Duration `envconfig:"LOCATION_DELAY" default:"5s"`
	// AlertCooldown suppresses re-firing of a rule that stays true.
	// Zero keeps the re-fire-every-tick behavior.
	AlertCooldown time.Duration `envconfig:"ALERT_COOLDOWN" default:"0"`
}

// MirrorConfig selects the backing store for the client mirror cache
type MirrorConfig struct {
	Type          string        `envconfig:"MIRROR_CACHE_TYPE" default:"memory"`
	RedisAddr     string        `envconfig:"MIRROR_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"MIRROR_REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"MIRROR_REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"MIRROR_CACHE_TTL" default:"24h"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	if err := c.Push.Validate(); err != nil {
		return err
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	return c.Mirror.Validate()
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// Validate checks database configuration
func (d *DatabaseConfig) Validate() error {
	if d.Host == "" {
		return errors.NewConfigurationError("DB_HOST cannot be empty", nil)
	}
	if d.Port < 1 || d.Port > 65535 {
		return errors.NewConfigurationError("DB_PORT must be between 1 and 65535", nil)
	}
	if d.User == "" {
		return errors.NewConfigurationError("DB_USER cannot be empty", nil)
	}
	if d.Name == "" {
		return errors.NewConfigurationError("DB_NAME cannot be empty", nil)
	}
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	for _, mode := range validSSLModes {
		if d.SSLMode == mode {
			return nil
		}
	}
	return errors.NewConfigurationError(
		fmt.Sprintf("DB_SSL_MODE must be one of: %s", strings.Join(validSSLModes, ", ")), nil)
}

// Validate checks weather provider configuration
func (w *WeatherConfig) Validate() error {
	if w.APIKey == "" {
		return errors.NewConfigurationError("WEATHER_API_KEY is required", nil)
	}
	if !strings.HasPrefix(w.BaseURL, "http://") && !strings.HasPrefix(w.BaseURL, "https://") {
		return errors.NewConfigurationError("WEATHER_API_BASE_URL must start with http:// or https://", nil)
	}
	if w.Timeout <= 0 {
		return errors.NewConfigurationError("WEATHER_API_TIMEOUT must be positive", nil)
	}
	if w.SearchLimit < 1 {
		return errors.NewConfigurationError("WEATHER_SEARCH_LIMIT must be at least 1", nil)
	}
	if w.ForecastDays < 2 || w.ForecastDays > 14 {
		return errors.NewConfigurationError("WEATHER_FORECAST_DAYS must be between 2 and 14", nil)
	}
	return nil
}

// Validate checks push delivery configuration
func (p *PushConfig) Validate() error {
	if !strings.HasPrefix(p.Endpoint, "http://") && !strings.HasPrefix(p.Endpoint, "https://") {
		return errors.NewConfigurationError("PUSH_ENDPOINT must start with http:// or https://", nil)
	}
	if p.Timeout <= 0 {
		return errors.NewConfigurationError("PUSH_TIMEOUT must be positive", nil)
	}
	return nil
}

// Validate checks scheduler configuration
func (s *SchedulerConfig) Validate() error {
	if s.RefreshInterval < time.Minute {
		return errors.NewConfigurationError("REFRESH_INTERVAL must be at least 1 minute", nil)
	}
	if s.AlertInterval < time.Second {
		return errors.NewConfigurationError("ALERT_INTERVAL must be at least 1 second", nil)
	}
	if s.LocationDelay < 0 {
		return errors.NewConfigurationError("LOCATION_DELAY cannot be negative", nil)
	}
	if s.AlertCooldown < 0 {
		return errors.NewConfigurationError("ALERT_COOLDOWN cannot be negative", nil)
	}
	return nil
}

// Validate checks mirror cache configuration
func (m *MirrorConfig) Validate() error {
	if m.Type != "memory" && m.Type != "redis" {
		return errors.NewConfigurationError("MIRROR_CACHE_TYPE must be 'memory' or 'redis'", nil)
	}
	if m.Type == "redis" && m.RedisAddr == "" {
		return errors.NewConfigurationError("MIRROR_REDIS_ADDR cannot be empty when MIRROR_CACHE_TYPE is 'redis'", nil)
	}
	if m.TTL <= 0 {
		return errors.NewConfigurationError("MIRROR_CACHE_TTL must be positive", nil)
	}
	return nil
}
