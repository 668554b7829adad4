package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"salesanalytics/internal/domain/repositories"
	"salesanalytics/normalization"
)

// MetricsRecorder приемник технических метрик конвейера
type MetricsRecorder interface {
	ObserveStage(source string, stage Stage, duration time.Duration)
	AddMalformed(source, table, column string, count int)
	RunFinished(source, status string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveStage(string, Stage, time.Duration) {}
func (noopRecorder) AddMalformed(string, string, string, int)   {}
func (noopRecorder) RunFinished(string, string, time.Duration)  {}

// Config конфигурация конвейера
type Config struct {
	Sources      []string // Закрытый набор источников в порядке обработки
	EURToUSDRate float64
	Concurrency  int // Сколько источников EnsureAll обрабатывает параллельно
}

// Pipeline конвейер загрузки источников
type Pipeline struct {
	reader   repositories.SourceReader
	repo     repositories.AnalyticsRepository
	logger   *slog.Logger
	recorder MetricsRecorder

	sources     []string
	allowed     map[string]bool
	concurrency int

	prices   *normalization.PriceNormalizer
	analyzer *normalization.CustomerDuplicateAnalyzer

	// Один запуск на источник внутри процесса
	inflight singleflight.Group
}

// Option дополнительная настройка конвейера
type Option func(*Pipeline)

// WithMetricsRecorder подключает сбор технических метрик
func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(p *Pipeline) {
		if recorder != nil {
			p.recorder = recorder
		}
	}
}

// New создает конвейер
func New(reader repositories.SourceReader, repo repositories.AnalyticsRepository, logger *slog.Logger, cfg Config, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	p := &Pipeline{
		reader:      reader,
		repo:        repo,
		logger:      logger,
		recorder:    noopRecorder{},
		sources:     append([]string(nil), cfg.Sources...),
		allowed:     make(map[string]bool, len(cfg.Sources)),
		concurrency: concurrency,
		prices:      normalization.NewPriceNormalizer(cfg.EURToUSDRate),
		analyzer:    normalization.NewCustomerDuplicateAnalyzer(),
	}
	for _, s := range cfg.Sources {
		p.allowed[s] = true
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sources настроенные источники
func (p *Pipeline) Sources() []string {
	return append([]string(nil), p.sources...)
}

// IsKnownSource входит ли источник в настроенный набор
func (p *Pipeline) IsKnownSource(source string) bool {
	return p.allowed[source]
}

// EnsureProcessed обрабатывает источник, если он еще не обработан.
// Одновременные вызовы для одного источника получают результат одного запуска.
func (p *Pipeline) EnsureProcessed(ctx context.Context, source string) (*RunResult, error) {
	if !p.allowed[source] {
		return nil, fmt.Errorf("%w: %s", repositories.ErrUnknownSource, source)
	}

	v, err, _ := p.inflight.Do(source, func() (any, error) {
		return p.run(ctx, source)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RunResult), nil
}

// EnsureAll обрабатывает все источники. Ошибка одного источника не останавливает остальные.
func (p *Pipeline) EnsureAll(ctx context.Context) ([]*RunResult, error) {
	results := make([]*RunResult, len(p.sources))
	errs := make([]error, len(p.sources))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, source := range p.sources {
		i, source := i, source
		g.Go(func() error {
			res, err := p.EnsureProcessed(ctx, source)
			results[i], errs[i] = res, err
			return nil
		})
	}
	g.Wait()

	done := make([]*RunResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			done = append(done, r)
		}
	}
	return done, errors.Join(errs...)
}

func (p *Pipeline) run(ctx context.Context, source string) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New().String(),
		Source:    source,
		Stage:     StageUnprocessed,
		StartedAt: time.Now(),
	}
	logger := p.logger.With("source", source, "run_id", result.RunID)

	processed, err := p.repo.IsSourceProcessed(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to check source status: %w", err)
	}
	if processed {
		result.Stage = StageProcessed
		result.AlreadyDone = true
		p.finish(result, "skipped")
		logger.Debug("source already processed")
		return result, nil
	}

	logger.Info("source processing started")
	metrics := make(map[string]int64)

	stages := []struct {
		next Stage
		fn   func(context.Context, string, *RunResult, map[string]int64) error
	}{
		{StageBooksLoaded, p.loadBooks},
		{StageCustomersLoaded, p.loadCustomers},
		{StageOrdersLoaded, p.loadOrders},
	}
	for _, st := range stages {
		started := time.Now()
		if err := st.fn(ctx, source, result, metrics); err != nil {
			p.finish(result, "failed")
			logger.Error("source processing failed", "stage", result.Stage, "error", err)
			return nil, err
		}
		result.Stage = st.next
		p.recorder.ObserveStage(source, st.next, time.Since(started))
		logger.Debug("stage completed", "stage", st.next, "duration_ms", time.Since(started).Milliseconds())
	}

	// Метрики пишутся последними: их наличие означает, что все таблицы записаны
	if err := p.repo.SaveMetrics(ctx, source, metrics); err != nil {
		p.finish(result, "failed")
		logger.Error("failed to save metrics", "error", err)
		return nil, fmt.Errorf("failed to save metrics: %w", err)
	}
	result.Stage = StageProcessed
	result.Metrics = metrics
	p.finish(result, "processed")

	logger.Info("source processing completed",
		"books", result.Books.Stored,
		"customers", result.Customers.Stored,
		"orders", result.Orders.Stored,
		"malformed", result.MalformedTotal(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (p *Pipeline) finish(result *RunResult, status string) {
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	p.recorder.RunFinished(result.Source, status, result.Duration)
}

// readTable читает сырую таблицу; ошибка чтения фатальна для источника
func (p *Pipeline) readTable(ctx context.Context, source, table string) (*normalization.Table, error) {
	raw, err := p.reader.ReadTable(ctx, source, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s of %s: %w", table, source, err)
	}
	return normalization.NewTable(raw), nil
}

// applyColumns применяет преобразования и учитывает некорректные значения
func (p *Pipeline) applyColumns(source, table string, t *normalization.Table, res *TableResult, transforms []columnTransform) error {
	for _, ct := range transforms {
		malformed, err := t.Apply(ct.column, ct.fn)
		if err != nil {
			return fmt.Errorf("failed to normalize %s.%s: %w", table, ct.column, err)
		}
		p.countMalformed(source, table, ct.column, res, malformed)
	}
	return nil
}

func (p *Pipeline) countMalformed(source, table, column string, res *TableResult, n int) {
	if n == 0 {
		return
	}
	if res.Malformed == nil {
		res.Malformed = make(map[string]int)
	}
	res.Malformed[column] += n
	p.recorder.AddMalformed(source, table, column, n)
}

// storeOnce записывает таблицу, только если для источника в ней еще нет строк
func (p *Pipeline) storeOnce(ctx context.Context, source, table string, res *TableResult, count int, store func() error) error {
	has, err := p.repo.TableHasRows(ctx, table, source)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", table, err)
	}
	if has {
		res.Skipped = true
		return nil
	}
	if err := store(); err != nil {
		return fmt.Errorf("failed to store %s: %w", table, err)
	}
	res.Stored = count
	return nil
}

type columnTransform struct {
	column string
	fn     normalization.ColumnTransform
}
