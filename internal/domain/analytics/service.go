package analytics

import (
	"context"
	"io"
	"time"

	"salesanalytics/internal/domain/repositories"
	"salesanalytics/normalization"
	"salesanalytics/normalization/pipeline"
)

// TopRevenueDaysLimit сколько дней с наибольшей выручкой попадает в сводку
const TopRevenueDaysLimit = 5

// Service интерфейс бизнес-логики аналитики продаж
type Service interface {
	// EnsureProcessed обрабатывает источник, если он еще не обработан.
	// Безопасно вызывать на каждый запрос.
	EnsureProcessed(ctx context.Context, source string) (*pipeline.RunResult, error)

	// EnsureAllProcessed обрабатывает все настроенные источники
	EnsureAllProcessed(ctx context.Context) ([]*pipeline.RunResult, error)

	// GetMetrics возвращает сводку по источнику, при необходимости обработав его
	GetMetrics(ctx context.Context, source string) (*DashboardMetrics, error)

	// GetAllMetrics возвращает сводки по всем источникам в порядке конфигурации
	GetAllMetrics(ctx context.Context) ([]SourceDashboard, error)

	// GetTableCounts возвращает число строк в нормализованных таблицах источника
	GetTableCounts(ctx context.Context, source string) (*repositories.SourceTableCounts, error)

	// Export выгружает нормализованные таблицы источника
	Export(ctx context.Context, w io.Writer, source, table string, format normalization.ExportFormat) error

	// Sources настроенные источники
	Sources() []string
}

// Processor конвейер обработки источников
type Processor interface {
	EnsureProcessed(ctx context.Context, source string) (*pipeline.RunResult, error)
	EnsureAll(ctx context.Context) ([]*pipeline.RunResult, error)
	Sources() []string
	IsKnownSource(source string) bool
}

// RevenueDay выручка за день
type RevenueDay struct {
	Date    string  `json:"date"` // YYYY-MM-DD
	Revenue float64 `json:"revenue"`
}

// PopularAuthor самый продаваемый набор авторов
type PopularAuthor struct {
	Author    string `json:"author"`
	BooksSold int64  `json:"books_sold"`
}

// TopCustomer покупатель с наибольшей суммой заказов
type TopCustomer struct {
	CustomerID  int64   `json:"customer_id"`
	Name        string  `json:"name"`
	TotalSpent  float64 `json:"total_spent"`
	LinkedIDs   []int64 `json:"linked_ids"`
	CustomerIDs []int64 `json:"customer_ids"` // Собственный id и связанные
}

// DashboardMetrics сводка по одному источнику
type DashboardMetrics struct {
	Source                   string         `json:"source"`
	TopRevenueDays           []RevenueDay   `json:"top_revenue_days"`
	UniqueCustomerCount      int64          `json:"unique_customer_count"`
	LinkedCustomerGroupCount int64          `json:"linked_customer_group_count"`
	UniqueAuthorSetCount     int64          `json:"unique_author_set_count"`
	MostPopularAuthor        *PopularAuthor `json:"most_popular_author"`
	TopCustomer              *TopCustomer   `json:"top_customer"`
	GeneratedAt              time.Time      `json:"generated_at"`
}

// SourceDashboard сводка источника в общем ответе. Если источник не удалось
// обработать, Metrics пуст, а Error содержит причину.
type SourceDashboard struct {
	Source  string            `json:"source"`
	Metrics *DashboardMetrics `json:"metrics,omitempty"`
	Error   string            `json:"error,omitempty"`
}
