package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Registry   RegistryConfig
	TravelTime TravelTimeConfig
	Overlay    OverlayConfig
	Redis      RedisConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

// RegistryConfig holds the hospital dataset location
type RegistryConfig struct {
	// Source is a file path or an http(s) URL pointing at the hospital CSV.
	Source string
}

// TravelTimeConfig holds travel time provider configuration
type TravelTimeConfig struct {
	Provider string
	APIKey   string
	Timeout  time.Duration
}

// OverlayConfig holds capacity overlay store configuration
type OverlayConfig struct {
	Backend   string
	KeyPrefix string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

const (
	TravelTimeProviderGoogle = "google"
	TravelTimeProviderNone   = "none"

	OverlayBackendMemory = "memory"
	OverlayBackendRedis  = "redis"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Registry: RegistryConfig{
			Source: getEnv("REGISTRY_SOURCE", "data/hospitals.csv"),
		},
		TravelTime: TravelTimeConfig{
			Provider: strings.ToLower(getEnv("TRAVEL_TIME_PROVIDER", TravelTimeProviderGoogle)),
			APIKey:   getEnv("GMAPS_API_KEY", ""),
			Timeout:  time.Duration(getEnvAsInt("TRAVEL_TIME_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Overlay: OverlayConfig{
			Backend:   strings.ToLower(getEnv("OVERLAY_BACKEND", OverlayBackendMemory)),
			KeyPrefix: getEnv("OVERLAY_KEY_PREFIX", "hospitalrouter"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "hospital-router"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Registry.Source) == "" {
		return fmt.Errorf("REGISTRY_SOURCE must not be empty")
	}
	switch c.TravelTime.Provider {
	case TravelTimeProviderGoogle, TravelTimeProviderNone:
	default:
		return fmt.Errorf("unknown TRAVEL_TIME_PROVIDER %q", c.TravelTime.Provider)
	}
	switch c.Overlay.Backend {
	case OverlayBackendMemory, OverlayBackendRedis:
	default:
		return fmt.Errorf("unknown OVERLAY_BACKEND %q", c.Overlay.Backend)
	}
	if c.TravelTime.Timeout <= 0 {
		return fmt.Errorf("TRAVEL_TIME_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// LiveTravelTimeEnabled reports whether a live travel time provider can be built.
func (c *TravelTimeConfig) LiveTravelTimeEnabled() bool {
	return c.Provider == TravelTimeProviderGoogle && c.APIKey != ""
}

// RedisRequired reports whether any component needs a Redis connection.
func (c *Config) RedisRequired() bool {
	return c.Redis.Enabled || c.Overlay.Backend == OverlayBackendRedis
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
