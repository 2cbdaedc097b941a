package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperror "github.com/chtmcooks/auth-service/domain/error"
	"github.com/chtmcooks/auth-service/domain/valueobject"
)

type Config struct {
	DatabaseURL   string
	JWTSecret     string
	RefreshSecret string

	RedisURL     string
	RedisClient  string
	StoreTimeout time.Duration

	ResetResponseFloor time.Duration
	BcryptCost         int

	AppURL             string
	StudentEmailDomain string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string

	ServerPort     string
	ServerHost     string
	Environment    string
	MigrateOnStart bool

	LogLevel               string
	LogFormat              string
	LogCorrelationIDHeader string
	LogEnableRequestLog    bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrMissingRedisURL    = errors.New("REDIS_URL is required")
	ErrInvalidRedisClient = errors.New("REDIS_CLIENT must be v8 or v9")
)

const (
	RedisClientV8 = "v8"
	RedisClientV9 = "v9"
)

// Load reads .env when present and then the process environment.
// Missing required settings are returned as configuration errors and are fatal at startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_SECRET"),

		RedisURL:     os.Getenv("REDIS_URL"),
		RedisClient:  strings.ToLower(getEnvOrDefault("REDIS_CLIENT", RedisClientV8)),
		StoreTimeout: getEnvOrDefaultDuration("STORE_TIMEOUT", 3*time.Second),

		ResetResponseFloor: getEnvOrDefaultDuration("RESET_RESPONSE_FLOOR", valueobject.PasswordResetResponseFloor),
		BcryptCost:         getEnvOrDefaultInt("BCRYPT_COST", 12),

		AppURL:             strings.TrimRight(getEnvOrDefault("APP_URL", "http://localhost:3000"), "/"),
		StudentEmailDomain: getEnvOrDefault("STUDENT_EMAIL_DOMAIN", "domain.edu"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvOrDefaultInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getEnvOrDefault("EMAIL_FROM", "no-reply@localhost"),

		ServerPort:     getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:     getEnvOrDefault("SERVER_HOST", "localhost"),
		Environment:    getEnvOrDefault("ENV", "development"),
		MigrateOnStart: getEnvOrDefaultBool("MIGRATE_ON_START", false),

		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "json"),
		LogCorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),
		LogEnableRequestLog:    getEnvOrDefaultBool("LOG_ENABLE_REQUEST_LOG", true),

		CORSAllowedOrigins:   parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
		CORSAllowCredentials: getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
	}

	if cfg.JWTSecret == "" {
		return nil, configError("JWT_SECRET", ErrMissingJWTSecret)
	}
	if cfg.DatabaseURL == "" {
		return nil, configError("DATABASE_URL", ErrMissingDatabaseURL)
	}
	if cfg.RedisURL == "" {
		return nil, configError("REDIS_URL", ErrMissingRedisURL)
	}
	if cfg.RedisClient != RedisClientV8 && cfg.RedisClient != RedisClientV9 {
		return nil, configError("REDIS_CLIENT", ErrInvalidRedisClient)
	}

	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.JWTSecret + "_refresh"
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func configError(key string, cause error) error {
	appErr := apperror.ErrConfigurationError(key)
	appErr.Cause = cause
	return appErr
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// bare numbers are seconds
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
