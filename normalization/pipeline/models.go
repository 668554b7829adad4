// Package pipeline приводит сырые таблицы источника к нормализованному виду,
// сохраняет их и вычисляет производные метрики. Повторный запуск по
// обработанному источнику ничего не меняет.
package pipeline

import (
	"time"
)

// Stage этап обработки источника
type Stage string

const (
	StageUnprocessed     Stage = "UNPROCESSED"
	StageBooksLoaded     Stage = "BOOKS_LOADED"
	StageCustomersLoaded Stage = "CUSTOMERS_LOADED"
	StageOrdersLoaded    Stage = "ORDERS_LOADED"
	StageProcessed       Stage = "PROCESSED"
)

// Колонки сырых таблиц
const (
	colBookID    = "id"
	colTitle     = "title"
	colAuthor    = "author"
	colGenre     = "genre"
	colPublisher = "publisher"
	colYear      = "year"

	colCustomerID = "id"
	colName       = "name"
	colAddress    = "address"
	colPhone      = "phone"
	colEmail      = "email"

	colUserID    = "user_id"
	colOrderBook = "book_id"
	colQuantity  = "quantity"
	colUnitPrice = "unit_price"
	colTimestamp = "timestamp"
)

// CurrencyUSD валюта всех сохраненных сумм
const CurrencyUSD = "USD"

// TableResult итог обработки одной таблицы
type TableResult struct {
	Read      int            `json:"read"`
	Stored    int            `json:"stored"`
	Skipped   bool           `json:"skipped"` // Таблица уже была записана ранее
	Malformed map[string]int `json:"malformed,omitempty"`
}

// RunResult итог запуска по одному источнику
type RunResult struct {
	RunID       string           `json:"run_id"`
	Source      string           `json:"source"`
	Stage       Stage            `json:"stage"`
	AlreadyDone bool             `json:"already_done"`
	Books       TableResult      `json:"books"`
	Customers   TableResult      `json:"customers"`
	Orders      TableResult      `json:"orders"`
	Metrics     map[string]int64 `json:"metrics,omitempty"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at"`
	Duration    time.Duration    `json:"duration"`
}

// MalformedTotal общее число некорректных значений по всем таблицам
func (r *RunResult) MalformedTotal() int {
	total := 0
	for _, t := range []TableResult{r.Books, r.Customers, r.Orders} {
		for _, n := range t.Malformed {
			total += n
		}
	}
	return total
}
