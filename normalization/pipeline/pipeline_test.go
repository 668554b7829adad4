package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"salesanalytics/database"
	"salesanalytics/internal/domain/repositories"
)

// memoryReader источник таблиц в памяти
type memoryReader struct {
	tables map[string]map[string]*repositories.RawTable
	calls  atomic.Int32
	gate   chan struct{} // если задан, чтение ждет закрытия канала
}

func (r *memoryReader) ReadTable(ctx context.Context, source, table string) (*repositories.RawTable, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	t, ok := r.tables[source][table]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", repositories.ErrSourceUnavailable, source, table)
	}
	return t, nil
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) TableHasRows(ctx context.Context, table, source string) (bool, error) {
	args := m.Called(ctx, table, source)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) IsSourceProcessed(ctx context.Context, source string) (bool, error) {
	args := m.Called(ctx, source)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) AppendBooks(ctx context.Context, books []repositories.BookRecord) error {
	return m.Called(ctx, books).Error(0)
}

func (m *mockRepository) AppendCustomers(ctx context.Context, customers []repositories.CustomerRecord) error {
	return m.Called(ctx, customers).Error(0)
}

func (m *mockRepository) AppendOrders(ctx context.Context, orders []repositories.OrderRecord) error {
	return m.Called(ctx, orders).Error(0)
}

func (m *mockRepository) SaveMetrics(ctx context.Context, source string, metrics map[string]int64) error {
	return m.Called(ctx, source, metrics).Error(0)
}

func (m *mockRepository) GetCustomerAddresses(ctx context.Context, source string) (map[int64]string, error) {
	args := m.Called(ctx, source)
	addresses, _ := args.Get(0).(map[int64]string)
	return addresses, args.Error(1)
}

func (m *mockRepository) GetMetric(ctx context.Context, source, key string) (int64, bool, error) {
	args := m.Called(ctx, source, key)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockRepository) TopRevenueDays(ctx context.Context, source string, limit int) ([]repositories.RevenueDay, error) {
	args := m.Called(ctx, source, limit)
	days, _ := args.Get(0).([]repositories.RevenueDay)
	return days, args.Error(1)
}

func (m *mockRepository) MostPopularAuthor(ctx context.Context, source string) (*repositories.AuthorSales, error) {
	args := m.Called(ctx, source)
	author, _ := args.Get(0).(*repositories.AuthorSales)
	return author, args.Error(1)
}

func (m *mockRepository) TopCustomer(ctx context.Context, source string) (*repositories.CustomerSpending, error) {
	args := m.Called(ctx, source)
	customer, _ := args.Get(0).(*repositories.CustomerSpending)
	return customer, args.Error(1)
}

func (m *mockRepository) CountRows(ctx context.Context, source string) (*repositories.SourceTableCounts, error) {
	args := m.Called(ctx, source)
	counts, _ := args.Get(0).(*repositories.SourceTableCounts)
	return counts, args.Error(1)
}

type recordingRecorder struct {
	mu        sync.Mutex
	stages    []Stage
	malformed map[string]int
	statuses  []string
}

func (r *recordingRecorder) ObserveStage(_ string, stage Stage, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *recordingRecorder) AddMalformed(_, table, column string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.malformed == nil {
		r.malformed = make(map[string]int)
	}
	r.malformed[table+"."+column] += n
}

func (r *recordingRecorder) RunFinished(_, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTables() map[string]*repositories.RawTable {
	return map[string]*repositories.RawTable{
		repositories.TableBooks: {
			Columns: []string{"id", "title", "author", "genre", "publisher", "year"},
			Records: []repositories.RawRecord{
				{"id": int64(1), "title": "'Dune' Messiah", "author": "Frank  Herbert", "genre": "sf", "publisher": "Ace", "year": int64(1965)},
				{"id": int64(2), "title": "Good Omens", "author": "Terry Pratchett, Neil Gaiman", "genre": "fantasy", "publisher": "NULL", "year": "unknown"},
				{"id": int64(3), "title": "Omens Again", "author": "Neil Gaiman, Terry Pratchett", "genre": "fantasy", "publisher": "Ace", "year": int64(1990)},
			},
		},
		repositories.TableCustomers: {
			Columns: []string{"id", "name", "address", "phone", "email"},
			Records: []repositories.RawRecord{
				{"id": int64(1), "name": "Ann", "address": "1 Main St", "phone": "(555) 123", "email": "ann@example.com"},
				{"id": int64(2), "name": "Ann", "address": "1 Main St", "phone": "(555) 123", "email": "ann.other@example.com"},
				{"id": int64(3), "name": "Bob", "address": "2 Side St", "phone": "555.777", "email": "bob@example.com"},
				{"id": int64(4), "name": "Cid", "address": "3 Low St", "phone": "555 888", "email": "cid@example.com"},
			},
		},
		repositories.TableOrders: {
			Columns: []string{"user_id", "book_id", "quantity", "unit_price", "timestamp"},
			Records: []repositories.RawRecord{
				{"user_id": int64(1), "book_id": int64(1), "quantity": int64(2), "unit_price": "$10.00", "timestamp": "2024-01-05 10:00"},
				{"user_id": int64(2), "book_id": int64(2), "quantity": int64(1), "unit_price": "€10", "timestamp": "05.01.2024"},
				{"user_id": int64(3), "book_id": int64(3), "quantity": int64(1), "unit_price": "free", "timestamp": "2024-01-06"},
				{"user_id": int64(4), "book_id": int64(2), "quantity": int64(3), "unit_price": "5$", "timestamp": "sometime"},
				{"user_id": "x", "book_id": int64(3), "quantity": int64(1), "unit_price": "$1", "timestamp": "2024-01-07"},
			},
		},
	}
}

type PipelineSuite struct {
	suite.Suite
	repo   *mockRepository
	reader *memoryReader
	p      *Pipeline
	ctx    context.Context
}

func (s *PipelineSuite) SetupTest() {
	s.repo = &mockRepository{}
	s.reader = &memoryReader{tables: map[string]map[string]*repositories.RawTable{"alpha": sampleTables()}}
	s.p = New(s.reader, s.repo, testLogger(), Config{Sources: []string{"alpha"}})
	s.ctx = context.Background()
}

func (s *PipelineSuite) TestUnknownSource() {
	_, err := s.p.EnsureProcessed(s.ctx, "omega")
	s.Require().Error(err)
	s.True(errors.Is(err, repositories.ErrUnknownSource))
	s.repo.AssertNotCalled(s.T(), "IsSourceProcessed", mock.Anything, mock.Anything)
}

func (s *PipelineSuite) TestAlreadyProcessedSkipsEverything() {
	s.repo.On("IsSourceProcessed", mock.Anything, "alpha").Return(true, nil)

	res, err := s.p.EnsureProcessed(s.ctx, "alpha")
	s.Require().NoError(err)
	s.True(res.AlreadyDone)
	s.Equal(StageProcessed, res.Stage)
	s.Equal(int32(0), s.reader.calls.Load())
	s.repo.AssertNotCalled(s.T(), "SaveMetrics", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PipelineSuite) TestUnavailableSourceWritesNothing() {
	delete(s.reader.tables["alpha"], repositories.TableBooks)
	s.repo.On("IsSourceProcessed", mock.Anything, "alpha").Return(false, nil)

	_, err := s.p.EnsureProcessed(s.ctx, "alpha")
	s.Require().Error(err)
	s.True(errors.Is(err, repositories.ErrSourceUnavailable))
	s.repo.AssertNotCalled(s.T(), "AppendBooks", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "SaveMetrics", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PipelineSuite) TestPersistenceFailureSurfaces() {
	s.repo.On("IsSourceProcessed", mock.Anything, "alpha").Return(false, nil)
	s.repo.On("TableHasRows", mock.Anything, repositories.TableBooks, "alpha").Return(false, nil)
	s.repo.On("AppendBooks", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: disk full", repositories.ErrPersistenceFailure))

	_, err := s.p.EnsureProcessed(s.ctx, "alpha")
	s.Require().Error(err)
	s.True(errors.Is(err, repositories.ErrPersistenceFailure))
	s.repo.AssertNotCalled(s.T(), "SaveMetrics", mock.Anything, mock.Anything, mock.Anything)
}

func (s *PipelineSuite) TestTablesWithRowsAreNotRewritten() {
	s.repo.On("IsSourceProcessed", mock.Anything, "alpha").Return(false, nil)
	s.repo.On("TableHasRows", mock.Anything, repositories.TableBooks, "alpha").Return(true, nil)
	s.repo.On("TableHasRows", mock.Anything, repositories.TableCustomers, "alpha").Return(true, nil)
	s.repo.On("TableHasRows", mock.Anything, repositories.TableOrders, "alpha").Return(false, nil)
	s.repo.On("GetCustomerAddresses", mock.Anything, "alpha").
		Return(map[int64]string{1: "1 Main St"}, nil)
	s.repo.On("AppendOrders", mock.Anything, mock.Anything).Return(nil)
	s.repo.On("SaveMetrics", mock.Anything, "alpha", mock.Anything).Return(nil)

	res, err := s.p.EnsureProcessed(s.ctx, "alpha")
	s.Require().NoError(err)
	s.True(res.Books.Skipped)
	s.True(res.Customers.Skipped)
	s.False(res.Orders.Skipped)
	s.Equal(4, res.Orders.Stored)
	s.Equal(StageProcessed, res.Stage)

	s.repo.AssertNotCalled(s.T(), "AppendBooks", mock.Anything, mock.Anything)
	s.repo.AssertNotCalled(s.T(), "AppendCustomers", mock.Anything, mock.Anything)

	// Метрики пересчитываются из сырых данных даже при пропуске записи таблиц
	s.repo.AssertCalled(s.T(), "SaveMetrics", mock.Anything, "alpha", map[string]int64{
		repositories.MetricUniqueAuthorSets:     2,
		repositories.MetricUniqueCustomers:      3,
		repositories.MetricLinkedCustomerGroups: 3,
	})
}

func (s *PipelineSuite) TestOrdersCarryShippingAddress() {
	s.repo.On("IsSourceProcessed", mock.Anything, "alpha").Return(false, nil)
	s.repo.On("TableHasRows", mock.Anything, mock.Anything, "alpha").Return(false, nil)
	s.repo.On("AppendBooks", mock.Anything, mock.Anything).Return(nil)
	s.repo.On("AppendCustomers", mock.Anything, mock.Anything).Return(nil)
	s.repo.On("GetCustomerAddresses", mock.Anything, "alpha").
		Return(map[int64]string{1: "1 Main St"}, nil)
	s.repo.On("SaveMetrics", mock.Anything, "alpha", mock.Anything).Return(nil)

	var stored []repositories.OrderRecord
	s.repo.On("AppendOrders", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]repositories.OrderRecord)
		}).
		Return(nil)

	_, err := s.p.EnsureProcessed(s.ctx, "alpha")
	s.Require().NoError(err)
	s.Require().Len(stored, 4)

	s.Require().NotNil(stored[0].ShippingMethod)
	s.Equal("1 Main St", *stored[0].ShippingMethod)
	s.Nil(stored[1].ShippingMethod)
	for _, o := range stored {
		s.Equal(CurrencyUSD, o.CurrencyCode)
	}
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func newTestDB(t *testing.T) *database.AnalyticsDB {
	t.Helper()
	db, err := database.NewAnalyticsDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnsureProcessedEndToEnd(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reader := &memoryReader{tables: map[string]map[string]*repositories.RawTable{"alpha": sampleTables()}}
	recorder := &recordingRecorder{}
	p := New(reader, db, testLogger(), Config{Sources: []string{"alpha"}}, WithMetricsRecorder(recorder))

	res, err := p.EnsureProcessed(ctx, "alpha")
	require.NoError(t, err)

	assert.Equal(t, StageProcessed, res.Stage)
	assert.False(t, res.AlreadyDone)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Books.Stored)
	assert.Equal(t, 4, res.Customers.Stored)
	assert.Equal(t, 4, res.Orders.Stored)
	assert.Equal(t, map[string]int{"unit_price": 1, "timestamp": 1, "user_id": 1}, res.Orders.Malformed)
	assert.Equal(t, 3, res.MalformedTotal())

	assert.Equal(t, []Stage{StageBooksLoaded, StageCustomersLoaded, StageOrdersLoaded}, recorder.stages)
	assert.Equal(t, []string{"processed"}, recorder.statuses)
	assert.Equal(t, 1, recorder.malformed["orders.unit_price"])

	unique, ok, err := db.GetMetric(ctx, "alpha", repositories.MetricUniqueCustomers)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), unique)

	sets, _, err := db.GetMetric(ctx, "alpha", repositories.MetricUniqueAuthorSets)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sets)

	days, err := db.TopRevenueDays(ctx, "alpha", 5)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-01-05", days[0].Date.Format("2006-01-02"))
	assert.InDelta(t, 32.0, days[0].Revenue, 0.001)

	books, err := db.ListBooks(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Dune Messiah", books[0].Title)
	assert.Equal(t, "Frank Herbert", books[0].Author)
	assert.Equal(t, "Ace", books[1].Publisher)

	customers, err := db.ListCustomers(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, customers, 4)
	assert.Equal(t, []int64{2}, customers[0].LinkedIDs)
	assert.Equal(t, []int64{1}, customers[1].LinkedIDs)
	assert.Equal(t, "555-123", customers[0].Phone)

	top, err := db.TopCustomer(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, top)
	assert.Equal(t, int64(1), top.CustomerID)
	assert.Equal(t, []int64{1, 2}, top.CustomerIDs)

	// Повторный запуск ничего не меняет
	again, err := p.EnsureProcessed(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, again.AlreadyDone)

	counts, err := db.CountRows(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, &repositories.SourceTableCounts{Books: 3, Customers: 4, Orders: 4}, counts)
}

func TestEnsureProcessedResumesAfterPartialRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	tables := sampleTables()
	orders := tables[repositories.TableOrders]
	delete(tables, repositories.TableOrders)
	reader := &memoryReader{tables: map[string]map[string]*repositories.RawTable{"alpha": tables}}
	p := New(reader, db, testLogger(), Config{Sources: []string{"alpha"}})

	_, err := p.EnsureProcessed(ctx, "alpha")
	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrSourceUnavailable)

	processed, err := db.IsSourceProcessed(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, processed)

	tables[repositories.TableOrders] = orders
	res, err := p.EnsureProcessed(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, res.Books.Skipped)
	assert.True(t, res.Customers.Skipped)
	assert.Equal(t, 4, res.Orders.Stored)

	counts, err := db.CountRows(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Books)
	assert.Equal(t, int64(4), counts.Customers)
}

func TestEnsureProcessedSharesConcurrentRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	gate := make(chan struct{})
	reader := &memoryReader{
		tables: map[string]map[string]*repositories.RawTable{"alpha": sampleTables()},
		gate:   gate,
	}
	p := New(reader, db, testLogger(), Config{Sources: []string{"alpha"}})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*RunResult, callers)
	errs := make([]error, callers)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			results[i], errs[i] = p.EnsureProcessed(ctx, "alpha")
		}()
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
	counts, err := db.CountRows(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Books)
	assert.Equal(t, int64(4), counts.Orders)
}

func TestEnsureAllCollectsErrors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	reader := &memoryReader{tables: map[string]map[string]*repositories.RawTable{
		"alpha": sampleTables(),
		"beta":  sampleTables(),
	}}
	p := New(reader, db, testLogger(), Config{Sources: []string{"alpha", "beta", "gamma"}, Concurrency: 2})

	results, err := p.EnsureAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrSourceUnavailable)
	assert.Len(t, results, 2)

	for _, source := range []string{"alpha", "beta"} {
		processed, err := db.IsSourceProcessed(ctx, source)
		require.NoError(t, err)
		assert.True(t, processed, source)
	}
	processed, err := db.IsSourceProcessed(ctx, "gamma")
	require.NoError(t, err)
	assert.False(t, processed)
}
