package analytics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"salesanalytics/internal/domain/repositories"
	"salesanalytics/normalization"
	"salesanalytics/normalization/pipeline"
)

// service реализация domain service для analytics
type service struct {
	processor Processor
	repo      repositories.AnalyticsRepository
	exporter  *normalization.Exporter
	logger    *slog.Logger
}

// NewService создает новый domain service для analytics
func NewService(processor Processor, repo repositories.AnalyticsRepository, exportRepo repositories.ExportRepository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		processor: processor,
		repo:      repo,
		exporter:  normalization.NewExporter(exportRepo),
		logger:    logger,
	}
}

// EnsureProcessed обрабатывает источник, если он еще не обработан
func (s *service) EnsureProcessed(ctx context.Context, source string) (*pipeline.RunResult, error) {
	if source == "" {
		return nil, ErrInvalidSource
	}
	return s.processor.EnsureProcessed(ctx, source)
}

// EnsureAllProcessed обрабатывает все источники
func (s *service) EnsureAllProcessed(ctx context.Context) ([]*pipeline.RunResult, error) {
	return s.processor.EnsureAll(ctx)
}

// GetMetrics возвращает сводку по источнику
func (s *service) GetMetrics(ctx context.Context, source string) (*DashboardMetrics, error) {
	if _, err := s.EnsureProcessed(ctx, source); err != nil {
		return nil, err
	}
	return s.aggregate(ctx, source)
}

// GetAllMetrics возвращает сводки по всем источникам. Ошибка одного источника
// попадает в его элемент и не мешает остальным.
func (s *service) GetAllMetrics(ctx context.Context) ([]SourceDashboard, error) {
	if _, err := s.processor.EnsureAll(ctx); err != nil {
		s.logger.Warn("some sources failed to process", "error", err)
	}

	sources := s.processor.Sources()
	dashboards := make([]SourceDashboard, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := SourceDashboard{Source: source}
		metrics, err := s.aggregate(ctx, source)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Metrics = metrics
		}
		dashboards = append(dashboards, entry)
	}
	return dashboards, nil
}

// GetTableCounts возвращает число строк источника
func (s *service) GetTableCounts(ctx context.Context, source string) (*repositories.SourceTableCounts, error) {
	if !s.processor.IsKnownSource(source) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrUnknownSource, source)
	}
	return s.repo.CountRows(ctx, source)
}

// Export выгружает нормализованные таблицы обработанного источника
func (s *service) Export(ctx context.Context, w io.Writer, source, table string, format normalization.ExportFormat) error {
	if table != "" && table != repositories.TableBooks && table != repositories.TableCustomers && table != repositories.TableOrders {
		return fmt.Errorf("%w: %s", ErrInvalidTable, table)
	}
	if _, err := s.EnsureProcessed(ctx, source); err != nil {
		return err
	}
	return s.exporter.Export(ctx, w, source, table, format)
}

// Sources настроенные источники
func (s *service) Sources() []string {
	return s.processor.Sources()
}

// aggregate собирает сводку из сохраненных данных. Частично заполненная сводка
// не возвращается: при отсутствии любой метрики источник считается необработанным.
func (s *service) aggregate(ctx context.Context, source string) (*DashboardMetrics, error) {
	if !s.processor.IsKnownSource(source) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrUnknownSource, source)
	}

	dm := &DashboardMetrics{Source: source, TopRevenueDays: []RevenueDay{}}

	counters := []struct {
		key  string
		dest *int64
	}{
		{repositories.MetricUniqueCustomers, &dm.UniqueCustomerCount},
		{repositories.MetricLinkedCustomerGroups, &dm.LinkedCustomerGroupCount},
		{repositories.MetricUniqueAuthorSets, &dm.UniqueAuthorSetCount},
	}
	for _, c := range counters {
		value, ok, err := s.repo.GetMetric(ctx, source, c.key)
		if err != nil {
			return nil, fmt.Errorf("failed to get metric %s: %w", c.key, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s (missing %s)", ErrNotProcessed, source, c.key)
		}
		*c.dest = value
	}

	days, err := s.repo.TopRevenueDays(ctx, source, TopRevenueDaysLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue days: %w", err)
	}
	for _, d := range days {
		dm.TopRevenueDays = append(dm.TopRevenueDays, RevenueDay{
			Date:    d.Date.Format("2006-01-02"),
			Revenue: d.Revenue,
		})
	}

	author, err := s.repo.MostPopularAuthor(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular author: %w", err)
	}
	if author != nil {
		dm.MostPopularAuthor = &PopularAuthor{Author: author.Author, BooksSold: author.BooksSold}
	}

	customer, err := s.repo.TopCustomer(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get top customer: %w", err)
	}
	if customer != nil {
		dm.TopCustomer = &TopCustomer{
			CustomerID:  customer.CustomerID,
			Name:        customer.Name,
			TotalSpent:  customer.TotalSpent,
			LinkedIDs:   customer.LinkedIDs,
			CustomerIDs: customer.CustomerIDs,
		}
	}

	dm.GeneratedAt = time.Now()
	return dm, nil
}
