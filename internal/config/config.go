package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN           string
	HTTPAddr        string
	Environment     string
	UsersServiceURL string
	MigrationsDir   string
	AuthCacheTTL    time.Duration
}

func Load() (*Config, error) {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(".env"); err == nil {
		log.Println("Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:           os.Getenv("DB_DSN"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		Environment:     os.Getenv("ENV"),
		UsersServiceURL: os.Getenv("USERS_SERVICE_URL"),
		MigrationsDir:   os.Getenv("MIGRATIONS_DIR"),
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}

	cfg.AuthCacheTTL = 5 * time.Minute
	if raw := os.Getenv("AUTH_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse AUTH_CACHE_TTL: %w", err)
		}
		cfg.AuthCacheTTL = ttl
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.UsersServiceURL == "" {
		return nil, fmt.Errorf("USERS_SERVICE_URL is required but not set")
	}

	return cfg, nil
}
