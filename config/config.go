package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Program   ProgramConfig
	Email     EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string   // comma-separated, or "*" for all
	RunEmailWorker     bool     // also consume the email queue inside the API process
	TrustedProxies     []string // reverse proxies allowed to set X-Forwarded-For; empty trusts none
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/panelevent?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// RateLimitConfig controls the public registration limiter.
type RateLimitConfig struct {
	Backend     string // "memory" or "redis"
	MaxAttempts int
	Window      time.Duration
}

// ProgramConfig controls the locales a program is stored in.
type ProgramConfig struct {
	Locales []string // first entry is not special; "fr" is always the base locale
}

// EmailConfig selects and configures the outbound mail provider.
type EmailConfig struct {
	Provider    string // "ses" or "noop"
	FromAddress string
	FromName    string
	CheckinURL  string // base URL of the attendee check-in page; the token is appended
	SES         SESConfig
}

// SESConfig holds AWS SES credentials.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	window, err := time.ParseDuration(getEnv("REGISTRATION_RATE_WINDOW", "1h"))
	if err != nil {
		return nil, fmt.Errorf("parse REGISTRATION_RATE_WINDOW: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			RunEmailWorker:     getEnv("RUN_EMAIL_WORKER", "false") == "true",
			TrustedProxies:     splitTrim(getEnv("TRUSTED_PROXIES", ""), ","),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "panelevent"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		RateLimit: RateLimitConfig{
			Backend:     getEnv("REGISTRATION_RATE_BACKEND", "redis"),
			MaxAttempts: getEnvInt("REGISTRATION_RATE_MAX", 5),
			Window:      window,
		},
		Program: ProgramConfig{
			Locales: splitTrim(getEnv("PROGRAM_LOCALES", "fr,en,pt,es,ar"), ","),
		},
		Email: EmailConfig{
			Provider:    getEnv("EMAIL_PROVIDER", "noop"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@panelevent.app"),
			FromName:    getEnv("EMAIL_FROM_NAME", "PanelEvent"),
			CheckinURL:  getEnv("CHECKIN_BASE_URL", "http://localhost:3000/checkin/"),
			SES: SESConfig{
				Region:          getEnv("AWS_REGION", "eu-west-3"),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			},
		},
	}
	if cfg.RateLimit.Backend != "memory" && cfg.RateLimit.Backend != "redis" {
		return nil, fmt.Errorf("unknown REGISTRATION_RATE_BACKEND %q", cfg.RateLimit.Backend)
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
