package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pos-coupon/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logger     LoggerConfig
	Session    SessionConfig
	Outlets    OutletsConfig
	S3         S3Config
	Allocation AllocationConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds the coupon ledger database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// SessionConfig holds the cashier session cookie configuration.
type SessionConfig struct {
	Secret     string
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// OutletsConfig holds the outlet directory and per-outlet pool configuration.
type OutletsConfig struct {
	File             string
	HeadOffice       string
	UserOverride     string
	PasswordOverride string
	MaxConnections   int
	MinConnections   int
	MaxConnIdleTime  time.Duration
}

// S3Config holds AWS S3 configuration for the outlet directory file.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "config/")
}

// AllocationConfig holds the coupon allocation rules.
type AllocationConfig struct {
	AmountPerCoupon float64
	MaxRunning      int
	LockTimeout     time.Duration
	RetryAttempts   int
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := fromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOutlets loads configuration for tools that only reach the outlet
// databases. The ledger, session and allocation settings are not validated.
func LoadOutlets() (*Config, error) {
	cfg := fromEnv()

	if err := cfg.validateLogger(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := cfg.ValidateOutlets(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "coupons"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Session: SessionConfig{
			Secret:     getEnv("SESSION_SECRET", ""),
			CookieName: getEnv("SESSION_COOKIE", "session"),
			MaxAge:     getEnvAsDuration("SESSION_MAX_AGE", 24*time.Hour),
			Secure:     getEnvAsBool("SESSION_SECURE", false),
		},
		Outlets: OutletsConfig{
			File:             getEnv("OUTLETS_FILE", "config/server-config.json"),
			HeadOffice:       getEnv("OUTLETS_HEAD_OFFICE", "TKK"),
			UserOverride:     getEnv("AGENT_DB_USER", ""),
			PasswordOverride: getEnv("AGENT_DB_PASSWORD", ""),
			MaxConnections:   getEnvAsInt("OUTLET_MAX_CONNECTIONS", 5),
			MinConnections:   getEnvAsInt("OUTLET_MIN_CONNECTIONS", 1),
			MaxConnIdleTime:  getEnvAsDuration("OUTLET_MAX_CONN_IDLE", 30*time.Second),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "ap-southeast-3"),
			Prefix:  getEnv("S3_PREFIX", "config/"),
		},
		Allocation: AllocationConfig{
			AmountPerCoupon: getEnvAsFloat("COUPON_AMOUNT_UNIT", 1_000_000),
			MaxRunning:      getEnvAsInt("COUPON_MAX_RUNNING", model.MaxRunning),
			LockTimeout:     getEnvAsDuration("ALLOCATION_LOCK_TIMEOUT", 5*time.Second),
			RetryAttempts:   getEnvAsInt("ALLOCATION_RETRY_ATTEMPTS", 3),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if len(c.Session.Secret) != 32 {
		return fmt.Errorf("session secret must be exactly 32 bytes")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session max age must be positive")
	}

	if err := c.validateLogger(); err != nil {
		return err
	}

	if err := c.ValidateOutlets(); err != nil {
		return err
	}

	if c.Allocation.AmountPerCoupon <= 0 {
		return fmt.Errorf("coupon amount unit must be positive")
	}

	if c.Allocation.MaxRunning < 1 || c.Allocation.MaxRunning > model.MaxRunning {
		return fmt.Errorf("invalid coupon max running: %d (must be between 1 and %d)", c.Allocation.MaxRunning, model.MaxRunning)
	}

	if c.Allocation.RetryAttempts < 1 {
		return fmt.Errorf("allocation retry attempts must be at least 1")
	}

	return nil
}

func (c *Config) validateLogger() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// ValidateOutlets validates the outlet directory, pool and S3 settings.
func (c *Config) ValidateOutlets() error {
	if c.Outlets.File == "" {
		return fmt.Errorf("outlets file is required")
	}

	if c.Outlets.HeadOffice == "" {
		return fmt.Errorf("head office outlet code is required")
	}

	if c.Outlets.MaxConnections < 1 {
		return fmt.Errorf("outlet max connections must be at least 1")
	}

	if c.Outlets.MinConnections < 0 || c.Outlets.MinConnections > c.Outlets.MaxConnections {
		return fmt.Errorf("outlet min connections must be between 0 and max connections")
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
