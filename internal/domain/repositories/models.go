package repositories

import (
	"time"
)

// ============================================================================
// Raw Source Models
// ============================================================================

// Таблицы источника. Порядок обработки фиксирован: книги, покупатели, заказы.
const (
	TableBooks     = "books"
	TableCustomers = "customers"
	TableOrders    = "orders"
)

// RawRecord сырая запись источника: имя колонки -> значение (string, число или nil)
type RawRecord map[string]any

// RawTable сырая таблица в порядке чтения из файла
type RawTable struct {
	Columns []string
	Records []RawRecord
}

// ============================================================================
// Normalized Models
// ============================================================================

// BookRecord нормализованная запись каталога книг
type BookRecord struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	Publisher string `json:"publisher"`
	Year      int    `json:"year"`
	Source    string `json:"source"`
}

// CustomerRecord нормализованная запись покупателя.
// LinkedIDs содержит id всех записей той же компоненты связности, кроме собственного, по возрастанию.
type CustomerRecord struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email"`
	LinkedIDs []int64 `json:"linked_ids"`
	Source    string  `json:"source"`
}

// OrderRecord нормализованная запись заказа. Цены в USD, nil означает отсутствующее значение.
type OrderRecord struct {
	CustomerID     int64      `json:"customer_id"`
	BookID         int64      `json:"book_id"`
	Quantity       int64      `json:"quantity"`
	UnitPrice      *float64   `json:"unit_price,omitempty"`
	Total          *float64   `json:"total,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	ShippingMethod *string    `json:"shipping_method,omitempty"`
	Source         string     `json:"source"`
	CurrencyCode   string     `json:"currency_code"`
}

// ============================================================================
// Analytics Models
// ============================================================================

// Ключи производных метрик
const (
	MetricUniqueAuthorSets     = "unique_author_sets"
	MetricUniqueCustomers      = "unique_customers"
	MetricLinkedCustomerGroups = "linked_customer_groups"
)

// RevenueDay выручка за день
type RevenueDay struct {
	Date    time.Time `json:"date"`
	Revenue float64   `json:"revenue"`
}

// AuthorSales самый продаваемый набор авторов
type AuthorSales struct {
	Author    string `json:"author"`
	BooksSold int64  `json:"books_sold"`
}

// CustomerSpending покупатель с наибольшей суммой покупок
type CustomerSpending struct {
	CustomerID  int64   `json:"customer_id"`
	Name        string  `json:"name"`
	TotalSpent  float64 `json:"total_spent"`
	LinkedIDs   []int64 `json:"linked_ids"`
	CustomerIDs []int64 `json:"customer_ids"`
}

// SourceTableCounts количество строк в нормализованных таблицах источника
type SourceTableCounts struct {
	Books     int64 `json:"books"`
	Customers int64 `json:"customers"`
	Orders    int64 `json:"orders"`
}
