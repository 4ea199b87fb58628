package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is required")

type Config struct {
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration
	Gemini         GeminiConfig
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Load читает конфигурацию из окружения. Перед этим подгружается dotenv-файл
// (ENV_FILE, по умолчанию .env); уже заданные переменные окружения не перетираются.
func Load() (Config, error) {
	if err := loadEnvFile(getEnv("ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	// 0s означает, что клиентский таймаут не выставляется.
	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "0s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	cfg.Gemini = GeminiConfig{
		APIKey:  getEnv("GEMINI_API_KEY", ""),
		BaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}
	if cfg.Gemini.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		// Отсутствующий файл не ошибка: секреты могут прийти из окружения.
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration is negative: %s", value)
	}
	return d, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
