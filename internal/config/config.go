package config

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"os"

	"github.com/geocoder89/authhub/internal/security"
)

type Config struct {
	Env  string
	Port int

	// DBMode "memory" skips postgres entirely and serves from the
	// in-process store; anything else means postgres at DBURL.
	DBMode string
	DBURL  string

	// Signing secret and reset-link base. Both are required; the
	// process refuses to start without them.
	JWTSecret   string
	FrontendURL string

	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int

	AllowedOrigins []string

	// Optional redis-backed cache. Empty addr keeps the in-process cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTELEndpoint string
}

func Load() (Config, error) {
	cfg := Config{
		Env:            getEnv("APP_ENV", "dev"),
		Port:           getEnvInt("PORT", 8080),
		DBMode:         getEnv("DB_MODE", "postgres"),
		DBURL:          getEnv("DATABASE_URL", buildDBURL()),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		FrontendURL:    strings.TrimRight(os.Getenv("FRONTEND_URL"), "/"),
		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		ResetTokenTTL:  time.Duration(getEnvInt("RESET_TOKEN_TTL_MINUTES", 60)) * time.Minute,
		BcryptCost:     getEnvInt("BCRYPT_COST", security.DefaultCost),
		AllowedOrigins: splitEnv("CORS_ALLOWED_ORIGINS"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		OTELEndpoint:   os.Getenv("OTEL_ENDPOINT"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	if cfg.FrontendURL == "" {
		return Config{}, errors.New("FRONTEND_URL is required")
	}

	return cfg, nil
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "authhub")
	pass := getEnv("DB_PASSWORD", "authhub")
	name := getEnv("DB_NAME", "authhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func splitEnv(key string) []string {
	raw := os.Getenv(key)

	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
