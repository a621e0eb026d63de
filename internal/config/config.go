package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Webhook Config (исходящая лента событий тревог)
	WebhookURL        string        `env:"WEBHOOK_URL"`
	WebhookSecret     string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"5s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"3"`
	WebhookBaseDelay  time.Duration `env:"WEBHOOK_BASE_DELAY" envDefault:"1s"`

	// Alert Config
	OverlayDismissAfter time.Duration `env:"OVERLAY_DISMISS_AFTER" envDefault:"12s"`
	KlaxonCueDuration   time.Duration `env:"KLAXON_CUE_DURATION" envDefault:"3s"`

	// Camera Config
	FlyToDuration time.Duration `env:"FLY_TO_DURATION" envDefault:"2500ms"`
	FlyToZoom     float64       `env:"FLY_TO_ZOOM" envDefault:"15"`
	FlyToPitch    float64       `env:"FLY_TO_PITCH" envDefault:"45"`

	// Timeline Config
	TimelineStartYear int           `env:"TIMELINE_START_YEAR" envDefault:"2020"`
	TimelineEndYear   int           `env:"TIMELINE_END_YEAR" envDefault:"2026"`
	TimelineFrameRate time.Duration `env:"TIMELINE_FRAME_RATE" envDefault:"33ms"`
	PerMonthDuration  time.Duration `env:"PER_MONTH_DURATION" envDefault:"1500ms"`

	// API Keys for authentication
	APIKeys []string `env:"API_KEYS"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		WebhookURL:          os.Getenv("WEBHOOK_URL"),
		WebhookSecret:       os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:      getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries:   getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:    getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
		OverlayDismissAfter: getEnvAsDuration("OVERLAY_DISMISS_AFTER", 12*time.Second),
		KlaxonCueDuration:   getEnvAsDuration("KLAXON_CUE_DURATION", 3*time.Second),
		FlyToDuration:       getEnvAsDuration("FLY_TO_DURATION", 2500*time.Millisecond),
		FlyToZoom:           getEnvAsFloat("FLY_TO_ZOOM", 15),
		FlyToPitch:          getEnvAsFloat("FLY_TO_PITCH", 45),
		TimelineStartYear:   getEnvAsInt("TIMELINE_START_YEAR", 2020),
		TimelineEndYear:     getEnvAsInt("TIMELINE_END_YEAR", 2026),
		TimelineFrameRate:   getEnvAsDuration("TIMELINE_FRAME_RATE", 33*time.Millisecond),
		PerMonthDuration:    getEnvAsDuration("PER_MONTH_DURATION", 1500*time.Millisecond),
	}

	// Загрузка API ключей
	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.TimelineEndYear < cfg.TimelineStartYear {
		return nil, fmt.Errorf("TIMELINE_END_YEAR must not be before TIMELINE_START_YEAR")
	}

	return cfg, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat возвращает значение переменной окружения как float64 или значение по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
