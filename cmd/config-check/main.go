package main

import (
	"fmt"
	"os"
	"strings"

	"salesanalytics/internal/config"
)

func main() {
	fmt.Println("=== Проверка конфигурации ===")
	fmt.Println("")

	// LoadConfig уже валидирует конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("❌ Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Конфигурация успешно загружена")
	fmt.Println("")

	fmt.Println("Основные настройки:")
	fmt.Printf("  Порт: %s\n", cfg.Port)
	fmt.Printf("  БД аналитики: %s\n", cfg.DatabasePath)
	fmt.Printf("  Уровень логирования: %s\n", cfg.LogLevel)
	fmt.Println("")

	fmt.Println("Источники:")
	fmt.Printf("  Каталог: %s\n", cfg.DataDir)
	fmt.Printf("  Источники: %s\n", strings.Join(cfg.DataSources, ", "))
	fmt.Printf("  Курс EUR/USD: %.4f\n", cfg.EURToUSDRate)
	fmt.Println("")

	fmt.Println("Connection Pooling:")
	fmt.Printf("  Max Open Connections: %d\n", cfg.MaxOpenConns)
	fmt.Printf("  Max Idle Connections: %d\n", cfg.MaxIdleConns)
	fmt.Printf("  Connection Max Lifetime: %v\n", cfg.ConnMaxLifetime)
	fmt.Println("")

	fmt.Println("Обработка:")
	if cfg.ProcessSchedule != "" {
		fmt.Printf("  Расписание: %s\n", cfg.ProcessSchedule)
	} else {
		fmt.Printf("  Расписание: [не задано]\n")
	}
	fmt.Printf("  Параллельность: %d\n", cfg.ProcessConcurrency)
	fmt.Printf("  Таймаут: %v\n", cfg.ProcessTimeout)
	fmt.Printf("  Rate limit: %.2f/с, burst %d\n", cfg.RateLimitPerSec, cfg.RateBurst)
	fmt.Println("")

	fmt.Println("=== Проверка завершена ===")
}
