package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesanalytics/normalization/pipeline"
)

type countingProcessor struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (p *countingProcessor) EnsureAll(ctx context.Context) ([]*pipeline.RunResult, error) {
	p.calls.Add(1)
	if p.block != nil {
		<-p.block
	}
	return []*pipeline.RunResult{{Source: "alpha"}}, p.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRejectsInvalidSpec(t *testing.T) {
	s := NewScheduler(&countingProcessor{}, discardLogger(), 0)
	assert.Error(t, s.Schedule("not a cron"))
	assert.True(t, s.NextRun().IsZero())
}

func TestSchedulerRunOnceRecordsError(t *testing.T) {
	proc := &countingProcessor{err: errors.New("boom")}
	s := NewScheduler(proc, discardLogger(), time.Second)

	s.RunOnce()

	last, err := s.LastRun()
	assert.False(t, last.IsZero())
	assert.EqualError(t, err, "boom")
	assert.Equal(t, int32(1), proc.calls.Load())
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	proc := &countingProcessor{block: make(chan struct{})}
	s := NewScheduler(proc, discardLogger(), 0)

	done := make(chan struct{})
	go func() {
		s.RunOnce()
		close(done)
	}()
	require.Eventually(t, func() bool { return proc.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	s.RunOnce()
	assert.Equal(t, int32(1), proc.calls.Load())

	close(proc.block)
	<-done
}

func TestSchedulerNextRun(t *testing.T) {
	s := NewScheduler(&countingProcessor{}, discardLogger(), 0)
	require.NoError(t, s.Schedule("@every 1h"))
	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return !s.NextRun().IsZero() }, time.Second, 5*time.Millisecond)
	assert.True(t, s.NextRun().After(time.Now()))
}
