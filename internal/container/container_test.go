package container

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	analyticsdomain "salesanalytics/internal/domain/analytics"
	"salesanalytics/internal/config"
)

const testBooksYAML = `
- :id: 1
  :title: Good Omens
  :author: Terry Pratchett, Neil Gaiman
  :year: 1990
- :id: 2
  :title: Dune
  :author: Frank Herbert
  :year: 1965
`

const testUsersCSV = `id,name,address,phone,email
1,Ann Lee,1 Main St,555-123-4567,ann@example.com
2,Ann Lee,1 Main St,555-123-4567,other@example.com
3,Bob Stone,2 Oak Ave,555-987-6543,bob@example.com
`

func writeSource(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "books.yaml"), []byte(testBooksYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.csv"), []byte(testUsersCSV), 0o644))

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"user_id", "book_id", "quantity", "unit_price", "timestamp"},
		{1, 1, 3, "$10.00", "2024-01-05"},
		{2, 2, 1, "€10", "2024-01-05"},
		{3, 2, 1, "$5.00", "2024-01-06"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, "orders.xlsx")))
}

func newTestContainer(t *testing.T) *Container {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dataDir := t.TempDir()
	writeSource(t, filepath.Join(dataDir, "DATA1"))

	cfg := &config.Config{
		Port:               "0",
		DatabasePath:       ":memory:",
		DataDir:            dataDir,
		DataSources:        []string{"DATA1", "DATA2"},
		LogLevel:           "ERROR",
		EURToUSDRate:       1.2,
		ProcessConcurrency: 2,
		ProcessTimeout:     time.Minute,
		RateLimitPerSec:    100,
		RateBurst:          100,
	}
	c, err := NewContainer(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, c.Initialize())
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNewContainerRequiresConfig(t *testing.T) {
	_, err := NewContainer(nil, nil)
	assert.Error(t, err)
}

func TestInitializeTwice(t *testing.T) {
	c := newTestContainer(t)
	assert.Error(t, c.Initialize())
}

func TestInitializeRejectsBadSchedule(t *testing.T) {
	cfg := &config.Config{
		DatabasePath:    ":memory:",
		DataDir:         t.TempDir(),
		DataSources:     []string{"DATA1"},
		EURToUSDRate:    1.2,
		ProcessSchedule: "every now and then",
	}
	c, err := NewContainer(cfg, nil)
	require.NoError(t, err)
	assert.Error(t, c.Initialize())
}

func TestRouterEndToEnd(t *testing.T) {
	c := newTestContainer(t)
	h := c.Router()

	t.Run("health", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"database":"ok"`)
	})

	t.Run("source metrics", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/metrics/DATA1")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dm analyticsdomain.DashboardMetrics
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dm))
		assert.Equal(t, "DATA1", dm.Source)
		assert.Equal(t, int64(2), dm.UniqueCustomerCount)
		assert.Equal(t, int64(2), dm.LinkedCustomerGroupCount)
		assert.Equal(t, int64(2), dm.UniqueAuthorSetCount)

		require.Len(t, dm.TopRevenueDays, 2)
		assert.Equal(t, "2024-01-05", dm.TopRevenueDays[0].Date)
		assert.InDelta(t, 42.0, dm.TopRevenueDays[0].Revenue, 0.001)
		assert.Equal(t, "2024-01-06", dm.TopRevenueDays[1].Date)

		require.NotNil(t, dm.MostPopularAuthor)
		assert.Equal(t, "Terry Pratchett, Neil Gaiman", dm.MostPopularAuthor.Author)
		assert.Equal(t, int64(3), dm.MostPopularAuthor.BooksSold)

		require.NotNil(t, dm.TopCustomer)
		assert.Equal(t, int64(1), dm.TopCustomer.CustomerID)
		assert.Equal(t, []int64{1, 2}, dm.TopCustomer.CustomerIDs)
	})

	t.Run("repeat processing is a no-op", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/api/sources/DATA1/process")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"already_done":true`)
	})

	t.Run("unknown source", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/metrics/DATA9")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing source files", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/metrics/DATA2")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("all metrics report per source", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/metrics")
		require.Equal(t, http.StatusOK, rec.Code)

		var all []analyticsdomain.SourceDashboard
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
		require.Len(t, all, 2)
		assert.NotNil(t, all[0].Metrics)
		assert.Empty(t, all[0].Error)
		assert.Nil(t, all[1].Metrics)
		assert.NotEmpty(t, all[1].Error)
	})

	t.Run("csv export", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/sources/DATA1/export?format=csv&table=orders")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 4)
	})

	t.Run("csv export without table", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/sources/DATA1/export?format=csv")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("prometheus metrics", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "salesanalytics_pipeline_runs_total")
	})

	t.Run("sources status", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/sources")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"books":2`)
	})
}
