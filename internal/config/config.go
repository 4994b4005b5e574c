package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все параметры запуска сервиса.
type Config struct {
	Env             string
	ServerAddress   string
	PostgresConn    string
	LogLevel        string
	RateLimitLimit  int64
	RateLimitPeriod time.Duration
	WindowSweepSpec string
	SeedFile        string
}

// Load читает переменные окружения и возвращает готовую конфигурацию.
func Load() (*Config, error) {
	// .env необязателен, иначе используем системные переменные
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("config: .env not found, using environment: %v", err)
	}

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		ServerAddress:   getEnv("SERVER_ADDRESS", "0.0.0.0:8080"),
		PostgresConn:    getEnv("POSTGRES_CONN", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		WindowSweepSpec: getEnv("WINDOW_SWEEP_SPEC", "@every 1m"),
		SeedFile:        getEnv("SEED_FILE", ""),
	}

	var err error
	if cfg.RateLimitLimit, err = parseInt64("RATE_LIMIT_LIMIT", getEnv("RATE_LIMIT_LIMIT", "100")); err != nil {
		return nil, err
	}
	if cfg.RateLimitPeriod, err = parseDuration("RATE_LIMIT_PERIOD", getEnv("RATE_LIMIT_PERIOD", "1m")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет обязательные параметры после применения флагов.
func (c *Config) Validate() error {
	if c.PostgresConn == "" {
		return fmt.Errorf("config: POSTGRES_CONN is not set")
	}
	if c.RateLimitLimit <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_LIMIT must be positive, got %d", c.RateLimitLimit)
	}
	if c.RateLimitPeriod <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_PERIOD must be positive, got %s", c.RateLimitPeriod)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func parseDuration(key, v string) (time.Duration, error) {
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: cannot parse %s=%q: %w", key, v, err)
	}
	return dur, nil
}

func parseInt64(key, v string) (int64, error) {
	num, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: cannot parse %s=%q: %w", key, v, err)
	}
	return num, nil
}
