// Package config provides configuration management for the todo API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultEnvironment     = EnvironmentProduction
	DefaultIDType          = IDTypeInt
	DefaultSeedDefaults    = true
	DefaultAllowedOrigins  = "*"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvEnvironment     = "APP_ENVIRONMENT"
	EnvDatabaseURL     = "APP_DATABASE_URL"
	EnvIDType          = "APP_ID_TYPE"
	EnvSeedFile        = "APP_SEED_FILE"
	EnvSeedDefaults    = "APP_SEED_DEFAULTS"
	EnvAllowedOrigins  = "APP_CORS_ALLOWED_ORIGINS"
)

// Deployment environments.
const (
	EnvironmentProduction  = "Production"
	EnvironmentDevelopment = "Development"
	EnvironmentTesting     = "Testing"
)

// Todo identifier types.
const (
	IDTypeInt  = "int"
	IDTypeUUID = "uuid"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// Environment is Production, Development or Testing. Testing always
	// uses the in-memory store.
	Environment string

	// DatabaseURL is a sqlite DSN. Empty selects the in-memory store.
	DatabaseURL string

	// IDType selects integer or UUID todo identifiers.
	IDType string

	SeedFile     string
	SeedDefaults bool

	// AllowedOrigins is a comma separated list of CORS origins.
	AllowedOrigins string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidEnvironment     = errors.New("environment must be one of: Production, Development, Testing")
	ErrInvalidIDType          = errors.New("id type must be one of: int, uuid")
	ErrNoAllowedOrigins       = errors.New("at least one CORS origin must be allowed")
)

// Load reads configuration from environment variables with defaults.
// Environment variables have priority over default values.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		Environment:     DefaultEnvironment,
		IDType:          DefaultIDType,
		SeedDefaults:    DefaultSeedDefaults,
		AllowedOrigins:  DefaultAllowedOrigins,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	return c.loadStoreEnv()
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = strings.ToLower(val)
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvAllowedOrigins); val != "" {
		c.AllowedOrigins = val
	}

	return nil
}

// loadStoreEnv loads storage and seeding environment variables.
func (c *Config) loadStoreEnv() error {
	if val := os.Getenv(EnvEnvironment); val != "" {
		c.Environment = val
	}

	if val := os.Getenv(EnvDatabaseURL); val != "" {
		c.DatabaseURL = val
	}

	if val := os.Getenv(EnvIDType); val != "" {
		c.IDType = strings.ToLower(val)
	}

	if val := os.Getenv(EnvSeedFile); val != "" {
		c.SeedFile = val
	}

	if val := os.Getenv(EnvSeedDefaults); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvSeedDefaults, err)
		}
		c.SeedDefaults = enabled
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateStore()
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if len(c.Origins()) == 0 {
		return ErrNoAllowedOrigins
	}

	return nil
}

// validateStore validates storage-related configuration.
func (c *Config) validateStore() error {
	switch c.Environment {
	case EnvironmentProduction, EnvironmentDevelopment, EnvironmentTesting:
	default:
		return ErrInvalidEnvironment
	}

	switch c.IDType {
	case IDTypeInt, IDTypeUUID:
	default:
		return ErrInvalidIDType
	}

	return nil
}

// UseMemoryStore reports whether todos are kept in process memory.
func (c *Config) UseMemoryStore() bool {
	return c.Environment == EnvironmentTesting || c.DatabaseURL == ""
}

// Origins returns the trimmed, non-empty CORS origins.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
