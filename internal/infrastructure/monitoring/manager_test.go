package monitoring

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesanalytics/normalization/pipeline"
)

func TestManagerTracksRuns(t *testing.T) {
	mm := NewManager([]string{"beta", "alpha"})

	mm.ObserveStage("alpha", pipeline.StageBooksLoaded, 10*time.Millisecond)
	mm.AddMalformed("alpha", "orders", "unit_price", 3)
	mm.RunFinished("alpha", "processed", 50*time.Millisecond)
	mm.RunFinished("beta", "failed", 5*time.Millisecond)

	data := mm.Snapshot()
	require.Len(t, data.Sources, 2)
	assert.Equal(t, "alpha", data.Sources[0].Source)
	assert.Equal(t, pipeline.StageProcessed, data.Sources[0].Stage)
	assert.Equal(t, int64(3), data.Sources[0].MalformedTotal)
	assert.Equal(t, int64(50), data.Sources[0].LastDurationMs)

	assert.Equal(t, "failed", data.Sources[1].Status)
	assert.Equal(t, pipeline.StageUnprocessed, data.Sources[1].Stage)
	assert.Equal(t, int64(1), data.Sources[1].FailedRuns)

	assert.Equal(t, 2, data.System.TotalSources)
	assert.Equal(t, 1, data.System.ProcessedSources)
	assert.Equal(t, int64(2), data.System.TotalRuns)
	assert.Equal(t, int64(1), data.System.FailedRuns)

	assert.Equal(t, 1.0, testutil.ToFloat64(mm.runs.WithLabelValues("alpha", "processed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(mm.malformed.WithLabelValues("alpha", "orders", "unit_price")))
}

func TestManagerUnknownSourceIsAdded(t *testing.T) {
	mm := NewManager(nil)
	mm.RunFinished("gamma", "skipped", time.Millisecond)

	data := mm.Snapshot()
	require.Len(t, data.Sources, 1)
	assert.Equal(t, pipeline.StageProcessed, data.Sources[0].Stage)
}

func TestManagerHandler(t *testing.T) {
	mm := NewManager([]string{"alpha"})
	mm.RunFinished("alpha", "processed", time.Millisecond)

	rec := httptest.NewRecorder()
	mm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `salesanalytics_pipeline_runs_total{source="alpha",status="processed"} 1`))
}
