package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	analyticshandler "salesanalytics/internal/api/handlers/analytics"
	"salesanalytics/server/middleware"
)

// HealthChecker проверка доступности хранилища
type HealthChecker interface {
	Ping() error
}

// Options зависимости и настройки маршрутизации
type Options struct {
	AnalyticsHandler *analyticshandler.Handler
	Health           HealthChecker
	MetricsHandler   http.Handler // Метрики Prometheus, nil отключает /metrics
	Logger           *slog.Logger

	// Ограничение частоты запросов на обработку источников
	RateLimitPerSec float64
	RateBurst       int

	EnableSwagger bool
}

// NewRouter создает gin router со всеми маршрутами приложения
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()

	// Применяем middleware
	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinRecoveryMiddleware(opts.Logger))
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware("/metrics"))
	router.Use(middleware.GinLoggerMiddleware(opts.Logger))

	router.GET("/health", healthHandler(opts.Health))

	if opts.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}

	if opts.EnableSwagger {
		RegisterSwaggerRoutes(router)
	}

	if opts.AnalyticsHandler != nil {
		RegisterAnalyticsRoutes(router.Group("/api"), opts)
	}

	return router
}

// RegisterAnalyticsRoutes регистрирует маршруты аналитики
func RegisterAnalyticsRoutes(api *gin.RouterGroup, opts Options) {
	h := opts.AnalyticsHandler

	metrics := api.Group("/metrics")
	{
		metrics.GET("", h.GetAllMetrics)
		metrics.GET("/:source", h.GetMetrics)
	}

	sources := api.Group("/sources")
	{
		sources.GET("", h.GetSources)
		sources.GET("/:source/export", h.ExportSource)

		// Обработка тяжелая, поэтому ограничиваем частоту запросов
		process := sources.Group("")
		if opts.RateLimitPerSec > 0 && opts.RateBurst > 0 {
			process.Use(middleware.GinRateLimitMiddleware(opts.RateLimitPerSec, opts.RateBurst, opts.Logger))
		}
		process.POST("/process", h.ProcessAll)
		process.POST("/:source/process", h.ProcessSource)
	}
}

// healthHandler проверка работоспособности
// @Summary Проверка работоспособности
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func healthHandler(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if checker != nil {
			if err := checker.Ping(); err != nil {
				status["status"] = "unavailable"
				status["database"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, status)
				return
			}
			status["database"] = "ok"
		}
		c.JSON(http.StatusOK, status)
	}
}
