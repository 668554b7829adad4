package database

import (
	"database/sql"
	"log/slog"
)

// analyticsTables таблицы нормализованных данных и метрик. Все ключи включают источник.
var analyticsTables = []string{
	`CREATE TABLE IF NOT EXISTS analytics_metrics (
		metric_key TEXT NOT NULL,
		metric_value INTEGER NOT NULL,
		data_source TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (metric_key, data_source)
	)`,
	`CREATE TABLE IF NOT EXISTS book_catalog (
		book_id INTEGER NOT NULL,
		book_title TEXT,
		authors TEXT,
		category TEXT,
		publisher_name TEXT,
		publication_year INTEGER,
		source TEXT NOT NULL,
		PRIMARY KEY (book_id, source)
	)`,
	`CREATE TABLE IF NOT EXISTS customer_profiles (
		customer_id INTEGER NOT NULL,
		customer_name TEXT,
		delivery_address TEXT,
		contact_phone TEXT,
		email_address TEXT,
		linked_customer_ids TEXT,
		source TEXT NOT NULL,
		PRIMARY KEY (customer_id, source)
	)`,
	`CREATE TABLE IF NOT EXISTS transaction_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		book_id INTEGER NOT NULL,
		items_quantity INTEGER,
		price_per_item REAL,
		total_amount REAL,
		transaction_date TEXT,
		delivery_method TEXT,
		source TEXT NOT NULL,
		currency_code TEXT NOT NULL DEFAULT 'USD'
	)`,
}

// transactionIndexes индексы для запросов сводки
var transactionIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_transaction_records_source_date ON transaction_records(source, transaction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_transaction_records_source_customer ON transaction_records(source, customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transaction_records_source_book ON transaction_records(source, book_id)`,
}

// analyticsMigrations миграции схемы в порядке применения
var analyticsMigrations = []migration{
	{name: "001_analytics_tables", statements: analyticsTables},
	{name: "002_transaction_indexes", statements: transactionIndexes},
}

// InitAnalyticsSchema применяет миграции схемы, которые еще не применены
func InitAnalyticsSchema(conn *sql.DB) error {
	for _, m := range analyticsMigrations {
		applied, err := ensureMigrationApplied(conn, m)
		if err != nil {
			return err
		}
		if applied {
			slog.Debug("analytics migration applied", "migration", m.name)
		}
	}
	return nil
}
