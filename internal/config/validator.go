package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Validate проверяет корректность конфигурации и собирает все ошибки сразу
func (c *Config) Validate() error {
	var errors []string

	// Валидация порта
	if c.Port == "" {
		errors = append(errors, "port is required")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid port: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", port))
		}
	}

	// Валидация путей
	if c.DatabasePath == "" {
		errors = append(errors, "database path is required")
	}
	if c.DataDir == "" {
		errors = append(errors, "data directory is required")
	}

	// Валидация источников
	if len(c.DataSources) == 0 {
		errors = append(errors, "at least one data source is required")
	}
	seen := make(map[string]bool, len(c.DataSources))
	for _, s := range c.DataSources {
		if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
			errors = append(errors, fmt.Sprintf("invalid data source name: %s", s))
		}
		if seen[s] {
			errors = append(errors, fmt.Sprintf("duplicate data source: %s", s))
		}
		seen[s] = true
	}

	// Валидация connection pooling
	if c.MaxOpenConns < 1 {
		errors = append(errors, "max open connections must be at least 1")
	}
	if c.MaxIdleConns < 1 {
		errors = append(errors, "max idle connections must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		errors = append(errors, "max idle connections cannot be greater than max open connections")
	}
	if c.ConnMaxLifetime < time.Second {
		errors = append(errors, "connection max lifetime must be at least 1 second")
	}

	// Валидация уровня логирования
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	if c.LogLevel != "" {
		valid := false
		logLevelUpper := strings.ToUpper(c.LogLevel)
		for _, level := range validLogLevels {
			if logLevelUpper == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("invalid log level: %s (valid: %s)",
				c.LogLevel, strings.Join(validLogLevels, ", ")))
		}
	}

	// Валидация обработки
	if c.EURToUSDRate <= 0 {
		errors = append(errors, "EUR to USD rate must be positive")
	}
	if c.ProcessConcurrency < 1 {
		errors = append(errors, "process concurrency must be at least 1")
	}
	if c.ProcessTimeout < time.Second {
		errors = append(errors, "process timeout must be at least 1 second")
	}
	if c.ProcessSchedule != "" {
		if _, err := cron.ParseStandard(c.ProcessSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid process schedule: %v", err))
		}
	}

	// Валидация rate limiting
	if c.RateLimitPerSec <= 0 {
		errors = append(errors, "rate limit must be positive")
	}
	if c.RateBurst < 1 {
		errors = append(errors, "rate burst must be at least 1")
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GetDefaults возвращает конфигурацию со значениями по умолчанию
func GetDefaults() *Config {
	return &Config{
		Port:               "9999",
		DatabasePath:       "analytics.db",
		DataDir:            "data",
		DataSources:        []string{"DATA1", "DATA2", "DATA3"},
		MaxOpenConns:       10,
		MaxIdleConns:       3,
		ConnMaxLifetime:    5 * time.Minute,
		LogLevel:           "INFO",
		EURToUSDRate:       1.20,
		ProcessConcurrency: 2,
		ProcessTimeout:     10 * time.Minute,
		RateLimitPerSec:    2,
		RateBurst:          4,
	}
}
