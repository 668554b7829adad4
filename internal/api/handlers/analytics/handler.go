package analytics

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	analyticsapp "salesanalytics/internal/application/analytics"
	"salesanalytics/normalization"
	"salesanalytics/normalization/pipeline"
	"salesanalytics/server/middleware"
)

// Handler HTTP обработчик аналитики продаж
type Handler struct {
	useCase *analyticsapp.UseCase
	logger  *slog.Logger
}

// NewHandler создает новый HTTP обработчик аналитики
func NewHandler(useCase *analyticsapp.UseCase, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{useCase: useCase, logger: logger}
}

// ProcessAllResponse итог обработки всех источников
type ProcessAllResponse struct {
	Results []*pipeline.RunResult `json:"results"`
	Error   string                `json:"error,omitempty"` // Ошибки отдельных источников
}

// GetAllMetrics сводки по всем источникам
// @Summary Получить сводки по всем источникам
// @Description Обрабатывает необработанные источники и возвращает сводку по каждому
// @Tags metrics
// @Produce json
// @Success 200 {array} analyticsapp.SourceDashboard "Сводки по источникам"
// @Failure 500 {object} middleware.ErrorResponse "Внутренняя ошибка сервера"
// @Router /metrics [get]
func (h *Handler) GetAllMetrics(c *gin.Context) {
	dashboards, err := h.useCase.GetAllMetrics(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dashboards)
}

// GetMetrics сводка по источнику
// @Summary Получить сводку по источнику
// @Description Обрабатывает источник при необходимости и возвращает метрики дашборда
// @Tags metrics
// @Produce json
// @Param source path string true "Имя источника"
// @Success 200 {object} analyticsapp.DashboardMetrics "Сводка"
// @Failure 404 {object} middleware.ErrorResponse "Источник не найден"
// @Failure 503 {object} middleware.ErrorResponse "Файлы источника недоступны"
// @Router /metrics/{source} [get]
func (h *Handler) GetMetrics(c *gin.Context) {
	metrics, err := h.useCase.GetMetrics(c.Request.Context(), c.Param("source"))
	if err != nil {
		middleware.HandleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetSources состояние источников
// @Summary Получить состояние источников
// @Description Возвращает число строк и статистику запусков без обработки источников
// @Tags sources
// @Produce json
// @Success 200 {array} analyticsapp.SourceStatus "Состояние источников"
// @Router /sources [get]
func (h *Handler) GetSources(c *gin.Context) {
	statuses, err := h.useCase.GetSourcesStatus(c.Request.Context())
	if err != nil {
		middleware.HandleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

// ProcessSource обработка источника
// @Summary Обработать источник
// @Description Запускает конвейер для источника. Повторный вызов для обработанного источника ничего не меняет.
// @Tags sources
// @Produce json
// @Param source path string true "Имя источника"
// @Success 200 {object} pipeline.RunResult "Итог запуска"
// @Failure 404 {object} middleware.ErrorResponse "Источник не найден"
// @Failure 429 {object} middleware.ErrorResponse "Слишком много запросов"
// @Failure 503 {object} middleware.ErrorResponse "Файлы источника недоступны"
// @Router /sources/{source}/process [post]
func (h *Handler) ProcessSource(c *gin.Context) {
	result, err := h.useCase.ProcessSource(c.Request.Context(), c.Param("source"))
	if err != nil {
		middleware.HandleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ProcessAll обработка всех источников
// @Summary Обработать все источники
// @Description Ошибка одного источника не останавливает остальные
// @Tags sources
// @Produce json
// @Success 200 {object} ProcessAllResponse "Итоги запусков"
// @Failure 429 {object} middleware.ErrorResponse "Слишком много запросов"
// @Router /sources/process [post]
func (h *Handler) ProcessAll(c *gin.Context) {
	results, err := h.useCase.ProcessAll(c.Request.Context())
	if err != nil && len(results) == 0 {
		middleware.HandleError(c, h.logger, err)
		return
	}

	resp := ProcessAllResponse{Results: results}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// ExportSource выгрузка нормализованных таблиц
// @Summary Выгрузить таблицы источника
// @Description Формат json (все таблицы), csv (одна таблица) или excel (лист на таблицу)
// @Tags sources
// @Produce json
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param source path string true "Имя источника"
// @Param format query string false "json, csv, excel"
// @Param table query string false "books, customers, orders"
// @Success 200 {file} file "Файл выгрузки"
// @Failure 400 {object} middleware.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} middleware.ErrorResponse "Источник не найден"
// @Router /sources/{source}/export [get]
func (h *Handler) ExportSource(c *gin.Context) {
	source := c.Param("source")
	table := c.Query("table")

	format, err := normalization.ParseExportFormat(c.Query("format"))
	if err != nil {
		middleware.HandleError(c, h.logger, err)
		return
	}

	// Пишем в буфер, чтобы ошибка выгрузки не оборвала уже начатый ответ
	var buf bytes.Buffer
	if err := h.useCase.Export(c.Request.Context(), &buf, source, table, format); err != nil {
		middleware.HandleError(c, h.logger, err)
		return
	}

	name := source
	if table != "" {
		name += "_" + table
	}
	filename := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102"), format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
