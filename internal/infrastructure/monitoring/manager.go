package monitoring

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salesanalytics/normalization/pipeline"
)

// SourceStats статистика запусков одного источника
type SourceStats struct {
	Source         string         `json:"source"`
	Stage          pipeline.Stage `json:"stage"`            // Последний завершенный этап
	Status         string         `json:"status"`           // "idle", "processed", "skipped", "failed"
	TotalRuns      int64          `json:"total_runs"`       // Запусков с момента старта процесса
	FailedRuns     int64          `json:"failed_runs"`      // Неудачных запусков
	MalformedTotal int64          `json:"malformed_total"`  // Некорректных значений за все запуски
	LastDurationMs int64          `json:"last_duration_ms"` // Длительность последнего запуска
	LastRunTime    time.Time      `json:"last_run_time"`
}

// SystemStats общая статистика
type SystemStats struct {
	TotalSources     int       `json:"total_sources"`
	ProcessedSources int       `json:"processed_sources"`
	TotalRuns        int64     `json:"total_runs"`
	FailedRuns       int64     `json:"failed_runs"`
	Timestamp        time.Time `json:"timestamp"`
}

// MonitoringData снимок для отдачи клиенту
type MonitoringData struct {
	Sources []SourceStats `json:"sources"`
	System  SystemStats   `json:"system"`
}

// Manager потокобезопасный сборщик статистики конвейера.
// Реализует pipeline.MetricsRecorder и дублирует данные в реестр Prometheus.
type Manager struct {
	mu    sync.RWMutex
	stats map[string]*SourceStats

	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	stageDuration *prometheus.HistogramVec
	malformed     *prometheus.CounterVec
}

// NewManager создает менеджер и регистрирует метрики в собственном реестре
func NewManager(sources []string) *Manager {
	mm := &Manager{
		stats:    make(map[string]*SourceStats, len(sources)),
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesanalytics_pipeline_runs_total",
			Help: "Pipeline runs by source and final status.",
		}, []string{"source", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salesanalytics_pipeline_run_duration_seconds",
			Help:    "Duration of a pipeline run.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salesanalytics_pipeline_stage_duration_seconds",
			Help:    "Duration of a single pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "stage"}),
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesanalytics_malformed_values_total",
			Help: "Values that failed normalization.",
		}, []string{"source", "table", "column"}),
	}
	mm.registry.MustRegister(mm.runs, mm.runDuration, mm.stageDuration, mm.malformed)

	for _, s := range sources {
		mm.stats[s] = &SourceStats{Source: s, Stage: pipeline.StageUnprocessed, Status: "idle"}
	}
	return mm
}

func (mm *Manager) source(name string) *SourceStats {
	st, ok := mm.stats[name]
	if !ok {
		st = &SourceStats{Source: name, Stage: pipeline.StageUnprocessed, Status: "idle"}
		mm.stats[name] = st
	}
	return st
}

// ObserveStage фиксирует завершение этапа
func (mm *Manager) ObserveStage(source string, stage pipeline.Stage, duration time.Duration) {
	mm.stageDuration.WithLabelValues(source, string(stage)).Observe(duration.Seconds())

	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.source(source).Stage = stage
}

// AddMalformed учитывает некорректные значения колонки
func (mm *Manager) AddMalformed(source, table, column string, count int) {
	mm.malformed.WithLabelValues(source, table, column).Add(float64(count))

	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.source(source).MalformedTotal += int64(count)
}

// RunFinished фиксирует итог запуска
func (mm *Manager) RunFinished(source, status string, duration time.Duration) {
	mm.runs.WithLabelValues(source, status).Inc()
	mm.runDuration.WithLabelValues(source).Observe(duration.Seconds())

	mm.mu.Lock()
	defer mm.mu.Unlock()

	st := mm.source(source)
	st.TotalRuns++
	st.Status = status
	st.LastDurationMs = duration.Milliseconds()
	st.LastRunTime = time.Now()
	switch status {
	case "failed":
		st.FailedRuns++
	case "processed", "skipped":
		st.Stage = pipeline.StageProcessed
	}
}

// Snapshot возвращает статистику по всем источникам в порядке имен
func (mm *Manager) Snapshot() MonitoringData {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	sources := make([]SourceStats, 0, len(mm.stats))
	system := SystemStats{TotalSources: len(mm.stats), Timestamp: time.Now()}
	for _, st := range mm.stats {
		sources = append(sources, *st)
		system.TotalRuns += st.TotalRuns
		system.FailedRuns += st.FailedRuns
		if st.Stage == pipeline.StageProcessed {
			system.ProcessedSources++
		}
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Source < sources[j].Source })

	return MonitoringData{Sources: sources, System: system}
}

// Registry реестр Prometheus менеджера
func (mm *Manager) Registry() *prometheus.Registry {
	return mm.registry
}

// Handler отдает метрики в формате Prometheus
func (mm *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}
