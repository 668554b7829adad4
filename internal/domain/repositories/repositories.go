package repositories

import (
	"context"
)

// SourceReader порт чтения сырых таблиц источника.
// Отсутствующий или нечитаемый файл возвращает ошибку, обернутую в ErrSourceUnavailable.
type SourceReader interface {
	ReadTable(ctx context.Context, source, table string) (*RawTable, error)
}

// AnalyticsRepository порт хранилища нормализованных таблиц и метрик
type AnalyticsRepository interface {
	// Защита идемпотентности
	TableHasRows(ctx context.Context, table, source string) (bool, error)
	IsSourceProcessed(ctx context.Context, source string) (bool, error)

	// Запись, каждая пачка в одной транзакции
	AppendBooks(ctx context.Context, books []BookRecord) error
	AppendCustomers(ctx context.Context, customers []CustomerRecord) error
	AppendOrders(ctx context.Context, orders []OrderRecord) error
	SaveMetrics(ctx context.Context, source string, metrics map[string]int64) error

	// Чтение для конвейера
	GetCustomerAddresses(ctx context.Context, source string) (map[int64]string, error)

	// Запросы агрегатора метрик
	GetMetric(ctx context.Context, source, key string) (int64, bool, error)
	TopRevenueDays(ctx context.Context, source string, limit int) ([]RevenueDay, error)
	MostPopularAuthor(ctx context.Context, source string) (*AuthorSales, error)
	TopCustomer(ctx context.Context, source string) (*CustomerSpending, error)
	CountRows(ctx context.Context, source string) (*SourceTableCounts, error)
}

// ExportRepository порт выгрузки нормализованных таблиц
type ExportRepository interface {
	ListBooks(ctx context.Context, source string) ([]BookRecord, error)
	ListCustomers(ctx context.Context, source string) ([]CustomerRecord, error)
	ListOrders(ctx context.Context, source string) ([]OrderRecord, error)
}
