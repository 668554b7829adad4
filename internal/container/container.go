package container

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	analyticshandler "salesanalytics/internal/api/handlers/analytics"
	"salesanalytics/internal/api/routes"
	analyticsapp "salesanalytics/internal/application/analytics"
	"salesanalytics/internal/config"
	analyticsdomain "salesanalytics/internal/domain/analytics"
	"salesanalytics/internal/infrastructure/monitoring"
	"salesanalytics/internal/infrastructure/workers"
	"salesanalytics/database"
	"salesanalytics/importer"
	"salesanalytics/normalization/pipeline"
)

// Container контейнер зависимостей приложения
// Управляет жизненным циклом всех компонентов
type Container struct {
	mu sync.Mutex

	// Конфигурация
	Config *config.Config
	Logger *slog.Logger

	// Хранилище и чтение источников
	DB     *database.AnalyticsDB
	Reader *importer.FileSourceReader

	// Обработка источников
	Monitoring *monitoring.Manager
	Pipeline   *pipeline.Pipeline
	Scheduler  *workers.Scheduler

	// Бизнес-логика и HTTP
	AnalyticsService analyticsdomain.Service
	AnalyticsUseCase *analyticsapp.UseCase
	AnalyticsHandler *analyticshandler.Handler

	router *gin.Engine

	initialized bool
}

// NewContainer создает новый контейнер зависимостей
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{Config: cfg, Logger: logger}, nil
}

// Initialize инициализирует все зависимости контейнера
// Выполняется в порядке, исключающем циклические зависимости
func (c *Container) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("container already initialized")
	}

	// Шаг 1: База данных
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Шаг 2: Конвейер обработки источников
	c.initPipeline()

	// Шаг 3: Сервисы и обработчики
	c.initAnalytics()

	// Шаг 4: Планировщик
	if err := c.initScheduler(); err != nil {
		c.DB.Close()
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	c.initialized = true
	c.Logger.Info("container initialized",
		"database", c.Config.DatabasePath,
		"data_dir", c.Config.DataDir,
		"sources", c.Config.DataSources,
	)
	return nil
}

func (c *Container) initDatabase() error {
	db, err := database.NewAnalyticsDBWithConfig(c.Config.DatabasePath, database.DBConfig{
		MaxOpenConns:    c.Config.MaxOpenConns,
		MaxIdleConns:    c.Config.MaxIdleConns,
		ConnMaxLifetime: c.Config.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	c.DB = db
	return nil
}

func (c *Container) initPipeline() {
	c.Reader = importer.NewFileSourceReader(c.Config.DataDir, c.Config.DataSources)
	c.Monitoring = monitoring.NewManager(c.Config.DataSources)
	c.Pipeline = pipeline.New(c.Reader, c.DB, c.Logger, pipeline.Config{
		Sources:      c.Config.DataSources,
		EURToUSDRate: c.Config.EURToUSDRate,
		Concurrency:  c.Config.ProcessConcurrency,
	}, pipeline.WithMetricsRecorder(c.Monitoring))
}

func (c *Container) initAnalytics() {
	c.AnalyticsService = analyticsdomain.NewService(c.Pipeline, c.DB, c.DB, c.Logger)
	c.AnalyticsUseCase = analyticsapp.NewUseCase(c.AnalyticsService, c.Monitoring)
	c.AnalyticsHandler = analyticshandler.NewHandler(c.AnalyticsUseCase, c.Logger)
}

func (c *Container) initScheduler() error {
	c.Scheduler = workers.NewScheduler(c.Pipeline, c.Logger, c.Config.ProcessTimeout)
	if c.Config.ProcessSchedule == "" {
		return nil
	}
	return c.Scheduler.Schedule(c.Config.ProcessSchedule)
}

// Router возвращает HTTP обработчик приложения, создавая его при первом вызове
func (c *Container) Router() http.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.router == nil {
		c.router = routes.NewRouter(routes.Options{
			AnalyticsHandler: c.AnalyticsHandler,
			Health:           c.DB,
			MetricsHandler:   c.Monitoring.Handler(),
			Logger:           c.Logger,
			RateLimitPerSec:  c.Config.RateLimitPerSec,
			RateBurst:        c.Config.RateBurst,
			EnableSwagger:    true,
		})
	}
	return c.router
}

// Shutdown останавливает планировщик и закрывает базу данных
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}
	if c.Scheduler != nil {
		c.Scheduler.Stop(ctx)
	}
	c.initialized = false
	if err := c.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
