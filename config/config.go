// Package config has the configuration for the pharmacy API
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the process runs in
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// String returns the string form of the environment
func (e Environment) String() string {
	return string(e)
}

// ParseEnvironment accepts the short and long environment names
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("unknown environment: %q", s)
}

// Catalog sources
const (
	CatalogSourceCSV   = "csv"
	CatalogSourceMySQL = "mysql"
)

// Order stores
const (
	OrderStoreMemory = "memory"
	OrderStoreRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	CatalogSource       string
	CatalogPaths        []string
	CatalogMaxEntries   int
	MySQLDSN            string
	CatalogRefreshTimes string // gocron At() format, "06:00;18:00"
	CosmeticsPaths      []string

	OrderStore    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OrderTTL      time.Duration // 0 keeps orders forever

	GeminiAPIKey string
	AITimeout    time.Duration

	CORSAllowedOrigins []string
	RateLimitRate      float64
	RateLimitCapacity  int64
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               Environment(getEnvWithDefault("ENV", "dev")),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", ""),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 100*1024*1024),
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 8*1024*1024), // OCR uploads carry base64 images
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1024*1024),

		CatalogSource:       strings.ToLower(getEnvWithDefault("CATALOG_SOURCE", CatalogSourceCSV)),
		CatalogPaths:        getListEnvWithDefault("CATALOG_PATH", []string{"data/drugs_eg.csv", "data/drugs_import.csv"}),
		CatalogMaxEntries:   getIntEnvWithDefault("CATALOG_MAX_ENTRIES", 15000),
		MySQLDSN:            os.Getenv("MYSQL_DSN"),
		CatalogRefreshTimes: getEnvWithDefault("CATALOG_REFRESH_TIMES", "06:00;18:00"),
		CosmeticsPaths:      getListEnvWithDefault("COSMETICS_PATH", []string{"data/cosmetics.csv"}),

		OrderStore:    strings.ToLower(getEnvWithDefault("ORDER_STORE", OrderStoreMemory)),
		RedisAddr:     getEnvWithDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntEnvWithDefault("REDIS_DB", 0),
		OrderTTL:      time.Duration(getIntEnvWithDefault("ORDER_TTL_HOURS", 0)) * time.Hour,

		GeminiAPIKey: getEnvWithDefault("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		AITimeout:    time.Duration(getIntEnvWithDefault("AI_TIMEOUT_SECONDS", 10)) * time.Second,

		CORSAllowedOrigins: getListEnvWithDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRate:      getFloatEnvWithDefault("RATE_LIMIT_RATE", 3),
		RateLimitCapacity:  getInt64EnvWithDefault("RATE_LIMIT_CAPACITY", 1000),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}
	cfg.Env, _ = ParseEnvironment(string(cfg.Env))

	if cfg.LogLevel != "" {
		if err := validateLogLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if err := validateCatalog(cfg); err != nil {
		return fmt.Errorf("invalid catalog settings: %w", err)
	}

	if err := validateOrderStore(cfg); err != nil {
		return fmt.Errorf("invalid ORDER_STORE: %w", err)
	}

	if cfg.AITimeout <= 0 || cfg.AITimeout > time.Minute {
		return fmt.Errorf("invalid AI_TIMEOUT_SECONDS: must be between 1 and 60, got %v", cfg.AITimeout)
	}

	if cfg.RateLimitRate <= 0 || cfg.RateLimitCapacity <= 0 {
		return fmt.Errorf("invalid rate limit: rate and capacity must be positive")
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	if !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
		return fmt.Errorf("ADDRESS %s is a public IP, bind to a private or loopback address behind the proxy", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env Environment) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}
	if _, err := ParseEnvironment(string(env)); err != nil {
		return fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", env)
	}
	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	switch strings.ToLower(logLevel) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("LOG_LEVEL must be one of: [debug info warn error], got: %s", logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 {
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateCatalog validates the catalog source settings
func validateCatalog(cfg *Config) error {
	switch cfg.CatalogSource {
	case CatalogSourceCSV:
		if len(cfg.CatalogPaths) == 0 {
			return fmt.Errorf("CATALOG_PATH cannot be empty for the csv source")
		}
	case CatalogSourceMySQL:
		if cfg.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is required when CATALOG_SOURCE=mysql")
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be one of: [csv mysql], got: %s", cfg.CatalogSource)
	}

	if cfg.CatalogMaxEntries < 0 {
		return fmt.Errorf("CATALOG_MAX_ENTRIES cannot be negative, got: %d", cfg.CatalogMaxEntries)
	}

	if strings.TrimSpace(cfg.CatalogRefreshTimes) == "" {
		return fmt.Errorf("CATALOG_REFRESH_TIMES cannot be empty")
	}

	return nil
}

// validateOrderStore validates the reservation store settings
func validateOrderStore(cfg *Config) error {
	switch cfg.OrderStore {
	case OrderStoreMemory:
		return nil
	case OrderStoreRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when ORDER_STORE=redis")
		}
		if cfg.RedisDB < 0 || cfg.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be between 0 and 15, got: %d", cfg.RedisDB)
		}
		return nil
	}
	return fmt.Errorf("must be one of: [memory redis], got: %s", cfg.OrderStore)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnvWithDefault gets an environment variable as float64 with a default value
func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getListEnvWithDefault splits a comma-separated environment variable
func getListEnvWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT", "ADDRESS", "ENV", "LOG_LEVEL", "LOG_DIR",
		"LOG_RETENTION_WEEKS", "MAX_LOG_FILE_SIZE", "MAX_REQUEST_BODY", "MAX_HEADER_SIZE",
		"CATALOG_SOURCE", "CATALOG_PATH", "CATALOG_MAX_ENTRIES", "MYSQL_DSN", "CATALOG_REFRESH_TIMES", "COSMETICS_PATH",
		"ORDER_STORE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "ORDER_TTL_HOURS",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "AI_TIMEOUT_SECONDS",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RATE", "RATE_LIMIT_CAPACITY",
	}
}
