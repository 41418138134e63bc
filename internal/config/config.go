// Package config loads server settings from environment variables.
//
// A .env file in the working directory is read by main before Load runs, so
// local development can keep secrets out of the shell history. Variables
// already set in the environment win over the file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Port        int
	Environment string // dev | test | prod
	LogLevel    slog.Level

	Store  string // StoreMemory or StoreSQLite
	DBPath string

	JWTSecret string
	// JWTSecretGenerated is set when JWT_SECRET was empty and a random
	// secret was made up; sessions then die with the process.
	JWTSecretGenerated bool
	TokenTTL           time.Duration
	CookieSecure       bool
	BcryptCost         int

	// RedisURL selects the Redis revocation list; empty keeps it in memory.
	RedisURL    string
	CORSOrigins []string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// GitHubEnabled reports whether GitHub sign-in is configured.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "prod"
}

// Load reads the configuration. Malformed values are an error rather than
// a silent fallback to the default.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	port, err := getEnvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("config: PORT %d out of range", port)
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	store := strings.ToLower(getEnv("STORE", StoreMemory))
	if store != StoreMemory && store != StoreSQLite {
		return nil, fmt.Errorf("config: STORE must be %q or %q, got %q", StoreMemory, StoreSQLite, store)
	}

	ttl, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive, got %s", ttl)
	}

	secure, err := getEnvBool("COOKIE_SECURE", env == "prod")
	if err != nil {
		return nil, err
	}

	cost, err := getEnvInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:               port,
		Environment:        env,
		LogLevel:           level,
		Store:              store,
		DBPath:             getEnv("DB_PATH", "data/journalize.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           ttl,
		CookieSecure:       secure,
		BcryptCost:         cost,
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSOrigins:        splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", port)),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("config: JWT_SECRET is required when ENVIRONMENT=prod")
		}
		cfg.JWTSecret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecretGenerated = true
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return level, nil
}

// splitList parses a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generating JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
