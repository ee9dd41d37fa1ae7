package app

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env    string // Environment (development, production) (default: development)
	Port   int    // HTTP server port (default: 3333)
	APIKey string // Required: shared key clients send in x-api-key

	JWTSecret string // Required: HS256 signing secret, 32+ bytes
	Issuer    string // Issuer claim for tokens (default: portal-api)

	DatabaseFile string // Path to SQLite database file (default: ./portal.db)
	PepperFile   string // Path to the password hashing pepper file (default: ./pepper)
	RedisURL     string // Optional: redis:// URL; empty disables caching

	WebAppURL string // Required: base URL for links in emails

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	S3Region       string
	S3Endpoint     string // Optional: for MinIO and other S3-compatible stores
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3UsePathStyle bool

	BootstrapAdminName     string // Optional: seed admin when the users table is empty
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Env:    getEnvOrDefault("ENV", "development"),
		Port:   getEnvIntOrDefault("PORT", 3333),
		APIKey: os.Getenv("API_KEY"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		Issuer:    getEnvOrDefault("JWT_ISSUER", "portal-api"),

		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "portal.db"),
		PepperFile:   getEnvOrDefault("PEPPER_FILE", "pepper"),
		RedisURL:     os.Getenv("REDIS_URL"),

		WebAppURL: os.Getenv("WEB_APP_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "noreply@localhost"),

		S3Region:       getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3UsePathStyle: getEnvBoolOrDefault("S3_USE_PATH_STYLE", false),

		BootstrapAdminName:     os.Getenv("BOOTSTRAP_ADMIN_NAME"),
		BootstrapAdminEmail:    os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// Validate rejects configurations that cannot possibly serve traffic.
func (c Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be set and at least 32 bytes")
	}
	if c.WebAppURL == "" {
		return errors.New("WEB_APP_URL must be set")
	}
	if c.Env == "production" {
		if c.APIKey == "" {
			return errors.New("API_KEY must be set in production")
		}
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST must be set in production")
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
