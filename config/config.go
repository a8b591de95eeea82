// Package config reads the server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"

	SessionsRedis = "redis"
	SessionsJWT   = "jwt"
)

type Config struct {
	Env  string
	Addr string

	StoreDriver  string
	DatabaseURL  string
	SQLitePath   string
	StoreTimeout time.Duration

	SessionBackend string
	RedisURL       string
	JWTSecret      string
	SessionTTL     time.Duration
	BcryptCost     int

	SendGridKey string
	MailFrom    string

	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads a .env file unless APP_ENV is production. Variables
// already set in the environment win.
func LoadDotEnv(files ...string) error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	return godotenv.Load(files...)
}

// Load builds the Config from the process environment.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Env:            get("APP_ENV", "development"),
		Addr:           get("ADDR", ":8080"),
		StoreDriver:    get("STORE_DRIVER", StorePostgres),
		DatabaseURL:    getenv("DATABASE_URL"),
		SQLitePath:     get("SQLITE_PATH", "todolist.sqlite"),
		SessionBackend: get("SESSION_BACKEND", SessionsRedis),
		RedisURL:       getenv("REDIS_URL"),
		JWTSecret:      getenv("JWT_SECRET"),
		SendGridKey:    getenv("SENDGRID_API_KEY"),
		MailFrom:       get("MAIL_FROM", "donotreply@todolist.local"),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.StoreTimeout, err = parseDuration("STORE_TIMEOUT", get("STORE_TIMEOUT", "10s")); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", get("SESSION_TTL", "24h")); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = strconv.Atoi(get("BCRYPT_COST", "10")); err != nil {
		return Config{}, fmt.Errorf("BCRYPT_COST: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORE_DRIVER=sqlite")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be postgres, sqlite or memory, got %q", c.StoreDriver)
	}

	switch c.SessionBackend {
	case SessionsRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	case SessionsJWT:
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 bytes when SESSION_BACKEND=jwt")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be redis or jwt, got %q", c.SessionBackend)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
