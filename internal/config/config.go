package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Forum    ForumConfig
	Jobs     JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// ForumConfig holds the forum API connection values. The service trusts the
// forum for identity, private messages, and leaderboard scores.
type ForumConfig struct {
	BaseURL     string
	APIKey      string
	APIUsername string
	Timeout     time.Duration
}

// JobsConfig holds scheduled sweep intervals
type JobsConfig struct {
	OrderExpiryInterval       time.Duration
	TransactionExpiryInterval time.Duration
	EnvelopeRefundInterval    time.Duration
	DisputeResolveInterval    time.Duration
	ScoreSyncInterval         time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "creditledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 24*time.Hour),
		},
		Forum: ForumConfig{
			BaseURL:     getEnv("FORUM_BASE_URL", "http://localhost:3000"),
			APIKey:      getEnv("FORUM_API_KEY", ""),
			APIUsername: getEnv("FORUM_API_USERNAME", "system"),
			Timeout:     getEnvAsDuration("FORUM_API_TIMEOUT", 10*time.Second),
		},
		Jobs: JobsConfig{
			OrderExpiryInterval:       getEnvAsDuration("JOB_ORDER_EXPIRY_INTERVAL", 5*time.Minute),
			TransactionExpiryInterval: getEnvAsDuration("JOB_TXN_EXPIRY_INTERVAL", 5*time.Minute),
			EnvelopeRefundInterval:    getEnvAsDuration("JOB_ENVELOPE_REFUND_INTERVAL", 30*time.Minute),
			DisputeResolveInterval:    getEnvAsDuration("JOB_DISPUTE_RESOLVE_INTERVAL", 10*time.Minute),
			ScoreSyncInterval:         getEnvAsDuration("JOB_SCORE_SYNC_INTERVAL", 24*time.Hour),
		},
	}
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
