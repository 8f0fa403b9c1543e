package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Lipana     LipanaConfig
	Cloudinary CloudinaryConfig
	Payment    PaymentConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// LipanaConfig holds credentials for the Lipana M-Pesa API.
type LipanaConfig struct {
	BaseURL   string
	SecretKey string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// PaymentConfig tunes the verification pipeline.
type PaymentConfig struct {
	// PollInterval / InitiateMaxWait bound the server-side wait after an
	// STK push before the client takes over polling /payments/verify.
	PollInterval    time.Duration
	InitiateMaxWait time.Duration
	// VerifyTimeout bounds a single provider status call; a timeout is
	// treated as PENDING, not FAILED.
	VerifyTimeout time.Duration
}

// AdminConfig seeds the initial admin account.
type AdminConfig struct {
	Email    string
	Password string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "8080"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             env("DATABASE_DSN", "edupulse:edupulse@tcp(localhost:3306)/edupulse?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			AccessSecret:  env("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: env("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  envDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: envDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
			Issuer:        env("JWT_ISSUER", "edupulse"),
		},
		Lipana: LipanaConfig{
			BaseURL:   env("LIPANA_BASE_URL", "https://api.lipana.dev"),
			SecretKey: env("LIPANA_SECRET_KEY", ""),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: env("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    env("CLOUDINARY_API_KEY", ""),
			APISecret: env("CLOUDINARY_API_SECRET", ""),
		},
		Payment: PaymentConfig{
			PollInterval:    envDuration("PAYMENT_POLL_INTERVAL", 3*time.Second),
			InitiateMaxWait: envDuration("PAYMENT_INITIATE_MAX_WAIT", 30*time.Second),
			VerifyTimeout:   envDuration("PAYMENT_VERIFY_TIMEOUT", 10*time.Second),
		},
		Admin: AdminConfig{
			Email:    env("ADMIN_EMAIL", "admin@edupulse.co.ke"),
			Password: env("ADMIN_PASSWORD", ""),
		},
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
