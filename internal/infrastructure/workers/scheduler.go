package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"salesanalytics/normalization/pipeline"
)

// SourceProcessor обрабатывает все настроенные источники
type SourceProcessor interface {
	EnsureAll(ctx context.Context) ([]*pipeline.RunResult, error)
}

// Scheduler периодически запускает обработку источников по cron-расписанию
type Scheduler struct {
	cron      *cron.Cron
	processor SourceProcessor
	logger    *slog.Logger
	timeout   time.Duration

	mu      sync.Mutex
	entry   cron.EntryID
	lastRun time.Time
	lastErr error
	running bool
}

// NewScheduler создает планировщик. Пустое расписание допустимо: Start ничего не запускает.
func NewScheduler(processor SourceProcessor, logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(),
		processor: processor,
		logger:    logger,
		timeout:   timeout,
	}
}

// Schedule регистрирует задачу по стандартному cron-выражению
func (s *Scheduler) Schedule(spec string) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = s.cron.Schedule(schedule, cron.FuncJob(s.RunOnce))
	s.logger.Info("source processing scheduled", "schedule", spec)
	return nil
}

// Start запускает планировщик
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущей задачи
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

// RunOnce выполняет одну обработку. Пересекающиеся запуски пропускаются.
func (s *Scheduler) RunOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous scheduled run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	results, err := s.processor.EnsureAll(ctx)
	if err != nil {
		s.logger.Error("scheduled processing failed", "error", err)
	} else {
		s.logger.Info("scheduled processing completed", "sources", len(results))
	}

	s.mu.Lock()
	s.running = false
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()
}

// LastRun время и ошибка последнего запуска
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun, s.lastErr
}

// NextRun время следующего запуска; нулевое, если расписание не задано
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	entry := s.entry
	s.mu.Unlock()
	if entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(entry).Next
}
