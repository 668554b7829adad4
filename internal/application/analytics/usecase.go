package analytics

import (
	"context"
	"io"

	analyticsdomain "salesanalytics/internal/domain/analytics"
	"salesanalytics/internal/domain/repositories"
	"salesanalytics/internal/infrastructure/monitoring"
	"salesanalytics/normalization"
	"salesanalytics/normalization/pipeline"
)

// RunStats источник статистики запусков конвейера
type RunStats interface {
	Snapshot() monitoring.MonitoringData
}

// UseCase представляет use case для аналитики продаж
// Координирует выполнение бизнес-логики между domain и infrastructure слоями
type UseCase struct {
	analyticsService analyticsdomain.Service
	runStats         RunStats
}

// NewUseCase создает новый use case для аналитики
func NewUseCase(analyticsService analyticsdomain.Service, runStats RunStats) *UseCase {
	return &UseCase{
		analyticsService: analyticsService,
		runStats:         runStats,
	}
}

// DashboardMetrics сводка по источнику (алиас для удобства)
type DashboardMetrics = analyticsdomain.DashboardMetrics

// SourceDashboard сводка источника в общем ответе (алиас для удобства)
type SourceDashboard = analyticsdomain.SourceDashboard

// SourceStatus состояние источника
type SourceStatus struct {
	Source string                          `json:"source"`
	Counts *repositories.SourceTableCounts `json:"counts,omitempty"`
	Runs   *monitoring.SourceStats         `json:"runs,omitempty"`
	Error  string                          `json:"error,omitempty"`
}

// ProcessSource обрабатывает источник, если он еще не обработан
func (uc *UseCase) ProcessSource(ctx context.Context, source string) (*pipeline.RunResult, error) {
	return uc.analyticsService.EnsureProcessed(ctx, source)
}

// ProcessAll обрабатывает все источники
func (uc *UseCase) ProcessAll(ctx context.Context) ([]*pipeline.RunResult, error) {
	return uc.analyticsService.EnsureAllProcessed(ctx)
}

// GetMetrics возвращает сводку по источнику
func (uc *UseCase) GetMetrics(ctx context.Context, source string) (*DashboardMetrics, error) {
	return uc.analyticsService.GetMetrics(ctx, source)
}

// GetAllMetrics возвращает сводки по всем источникам
func (uc *UseCase) GetAllMetrics(ctx context.Context) ([]SourceDashboard, error) {
	return uc.analyticsService.GetAllMetrics(ctx)
}

// Export выгружает таблицы источника
func (uc *UseCase) Export(ctx context.Context, w io.Writer, source, table string, format normalization.ExportFormat) error {
	return uc.analyticsService.Export(ctx, w, source, table, format)
}

// GetSourcesStatus возвращает число строк и статистику запусков по каждому источнику.
// Источники не обрабатываются.
func (uc *UseCase) GetSourcesStatus(ctx context.Context) ([]SourceStatus, error) {
	runs := make(map[string]monitoring.SourceStats)
	if uc.runStats != nil {
		for _, st := range uc.runStats.Snapshot().Sources {
			runs[st.Source] = st
		}
	}

	sources := uc.analyticsService.Sources()
	statuses := make([]SourceStatus, 0, len(sources))
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status := SourceStatus{Source: source}
		counts, err := uc.analyticsService.GetTableCounts(ctx, source)
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Counts = counts
		}
		if st, ok := runs[source]; ok {
			status.Runs = &st
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
