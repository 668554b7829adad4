package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config конфигурация приложения
type Config struct {
	// Сервер
	Port string `json:"port"`

	// База данных аналитики
	DatabasePath string `json:"database_path"`

	// Источники данных
	DataDir     string   `json:"data_dir"`
	DataSources []string `json:"data_sources"`

	// Connection pooling
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`

	// Логирование
	LogLevel string `json:"log_level"`

	// Обработка
	EURToUSDRate       float64       `json:"eur_to_usd_rate"`
	ProcessSchedule    string        `json:"process_schedule"` // Пустое значение отключает планировщик
	ProcessConcurrency int           `json:"process_concurrency"`
	ProcessTimeout     time.Duration `json:"process_timeout"`

	// Ограничение частоты запросов к API обработки
	RateLimitPerSec float64 `json:"rate_limit_per_sec"`
	RateBurst       int     `json:"rate_burst"`
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	config := &Config{
		// Сервер
		Port: getEnv("SERVER_PORT", "9999"),

		// База данных
		DatabasePath: getEnv("DATABASE_PATH", "analytics.db"),

		// Источники
		DataDir:     getEnv("DATA_DIR", "data"),
		DataSources: getEnvList("DATA_SOURCES", []string{"DATA1", "DATA2", "DATA3"}),

		// Connection pooling
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 3),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		// Логирование
		LogLevel: getEnv("LOG_LEVEL", "INFO"),

		// Обработка
		EURToUSDRate:       getEnvFloat("EUR_TO_USD_RATE", 1.20),
		ProcessSchedule:    os.Getenv("PROCESS_SCHEDULE"),
		ProcessConcurrency: getEnvInt("PROCESS_CONCURRENCY", 2),
		ProcessTimeout:     getEnvDuration("PROCESS_TIMEOUT", 10*time.Minute),

		// Rate limiting
		RateLimitPerSec: getEnvFloat("API_RATE_LIMIT_PER_SEC", 2),
		RateBurst:       getEnvInt("API_RATE_BURST", 4),
	}

	// Валидация
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64 или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как Duration или возвращает значение по умолчанию
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList получает список через запятую, пустые элементы отбрасываются
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
