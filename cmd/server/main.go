// @title Sales Analytics API
// @version 1.0
// @description API нормализации и аналитики продаж книг по источникам данных.

// @BasePath /api
// @schemes http https

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"salesanalytics/internal/config"
	"salesanalytics/internal/container"
	"salesanalytics/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := server.NewLogger(cfg.LogLevel)

	// Режим Gin можно переопределить через GIN_MODE
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Initialize(); err != nil {
		return err
	}

	if cfg.ProcessSchedule != "" {
		c.Scheduler.Start()
		logger.Info("scheduler started", "schedule", cfg.ProcessSchedule, "next_run", c.Scheduler.NextRun())
	}

	srv := server.New(cfg.Port, c.Router(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			_ = c.Shutdown(context.Background())
			return err
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return errors.Join(srv.Shutdown(ctx), c.Shutdown(ctx))
}
