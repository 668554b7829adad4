package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"salesanalytics/internal/domain/repositories"
	"salesanalytics/normalization"
)

const dateLayout = "2006-01-02"

// tableNames соответствие таблиц источника таблицам хранилища
var tableNames = map[string]string{
	repositories.TableBooks:     "book_catalog",
	repositories.TableCustomers: "customer_profiles",
	repositories.TableOrders:    "transaction_records",
}

// persistenceError оборачивает ошибку хранилища в ErrPersistenceFailure
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", repositories.ErrPersistenceFailure, op, err)
}

// TableHasRows проверяет, есть ли строки источника в таблице
func (db *AnalyticsDB) TableHasRows(ctx context.Context, table, source string) (bool, error) {
	name, ok := tableNames[table]
	if !ok {
		return false, fmt.Errorf("%w: %s", repositories.ErrUnknownTable, table)
	}

	var exists int
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE source = ?)", name)
	if err := db.conn.QueryRowContext(ctx, query, source).Scan(&exists); err != nil {
		return false, persistenceError("count "+name, err)
	}
	return exists == 1, nil
}

// IsSourceProcessed источник обработан, если для него сохранена хотя бы одна метрика
func (db *AnalyticsDB) IsSourceProcessed(ctx context.Context, source string) (bool, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM analytics_metrics WHERE data_source = ?)", source).Scan(&exists)
	if err != nil {
		return false, persistenceError("check metrics", err)
	}
	return exists == 1, nil
}

// AppendBooks добавляет книги одной транзакцией. При повторе id внутри источника остается первая запись.
func (db *AnalyticsDB) AppendBooks(ctx context.Context, books []repositories.BookRecord) error {
	return db.withTx(ctx, "append books", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO book_catalog
			(book_id, book_title, authors, category, publisher_name, publication_year, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, b := range books {
			if _, err := stmt.ExecContext(ctx, b.ID, nullIfEmpty(b.Title), nullIfEmpty(b.Author),
				nullIfEmpty(b.Genre), nullIfEmpty(b.Publisher), b.Year, b.Source); err != nil {
				return fmt.Errorf("book %d: %w", b.ID, err)
			}
		}
		return nil
	})
}

// AppendCustomers добавляет покупателей одной транзакцией
func (db *AnalyticsDB) AppendCustomers(ctx context.Context, customers []repositories.CustomerRecord) error {
	return db.withTx(ctx, "append customers", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO customer_profiles
			(customer_id, customer_name, delivery_address, contact_phone, email_address, linked_customer_ids, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range customers {
			if _, err := stmt.ExecContext(ctx, c.ID, nullIfEmpty(c.Name), nullIfEmpty(c.Address),
				nullIfEmpty(c.Phone), nullIfEmpty(c.Email), normalization.FormatLinkedIDs(c.LinkedIDs), c.Source); err != nil {
				return fmt.Errorf("customer %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// AppendOrders добавляет заказы одной транзакцией
func (db *AnalyticsDB) AppendOrders(ctx context.Context, orders []repositories.OrderRecord) error {
	return db.withTx(ctx, "append orders", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO transaction_records
			(customer_id, book_id, items_quantity, price_per_item, total_amount,
			 transaction_date, delivery_method, source, currency_code)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, o := range orders {
			var date any
			if o.Date != nil {
				date = o.Date.Format(dateLayout)
			}
			currency := o.CurrencyCode
			if currency == "" {
				currency = "USD"
			}
			if _, err := stmt.ExecContext(ctx, o.CustomerID, o.BookID, o.Quantity,
				nullableFloat(o.UnitPrice), nullableFloat(o.Total), date,
				nullableString(o.ShippingMethod), o.Source, currency); err != nil {
				return fmt.Errorf("order of customer %d: %w", o.CustomerID, err)
			}
		}
		return nil
	})
}

// SaveMetrics сохраняет метрики источника одной транзакцией (upsert по ключу и источнику)
func (db *AnalyticsDB) SaveMetrics(ctx context.Context, source string, metrics map[string]int64) error {
	return db.withTx(ctx, "save metrics", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO analytics_metrics (metric_key, metric_value, data_source)
			VALUES (?, ?, ?)
			ON CONFLICT (metric_key, data_source) DO UPDATE SET
				metric_value = excluded.metric_value,
				updated_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for key, value := range metrics {
			if _, err := stmt.ExecContext(ctx, key, value, source); err != nil {
				return fmt.Errorf("metric %s: %w", key, err)
			}
		}
		return nil
	})
}

// GetCustomerAddresses адреса сохраненных покупателей источника по id
func (db *AnalyticsDB) GetCustomerAddresses(ctx context.Context, source string) (map[int64]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT customer_id, delivery_address FROM customer_profiles WHERE source = ? AND delivery_address IS NOT NULL",
		source)
	if err != nil {
		return nil, persistenceError("query customer addresses", err)
	}
	defer rows.Close()

	addresses := make(map[int64]string)
	for rows.Next() {
		var id int64
		var address string
		if err := rows.Scan(&id, &address); err != nil {
			return nil, persistenceError("scan customer address", err)
		}
		addresses[id] = address
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate customer addresses", err)
	}
	return addresses, nil
}

// GetMetric возвращает метрику источника. false, если метрика не сохранена.
func (db *AnalyticsDB) GetMetric(ctx context.Context, source, key string) (int64, bool, error) {
	var value int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT metric_value FROM analytics_metrics WHERE metric_key = ? AND data_source = ?",
		key, source).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, persistenceError("get metric "+key, err)
	}
	return value, true, nil
}

// TopRevenueDays дни с наибольшей выручкой. Дни без даты и без суммы не учитываются.
// При равной выручке раньше идет более ранняя дата.
func (db *AnalyticsDB) TopRevenueDays(ctx context.Context, source string, limit int) ([]repositories.RevenueDay, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT transaction_date, SUM(total_amount) AS revenue
		FROM transaction_records
		WHERE source = ? AND transaction_date IS NOT NULL
		GROUP BY transaction_date
		HAVING SUM(total_amount) IS NOT NULL
		ORDER BY revenue DESC, transaction_date ASC
		LIMIT ?`, source, limit)
	if err != nil {
		return nil, persistenceError("query revenue days", err)
	}
	defer rows.Close()

	days := []repositories.RevenueDay{}
	for rows.Next() {
		var dateStr string
		var revenue float64
		if err := rows.Scan(&dateStr, &revenue); err != nil {
			return nil, persistenceError("scan revenue day", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, persistenceError("parse revenue date", err)
		}
		days = append(days, repositories.RevenueDay{Date: date, Revenue: roundCents(revenue)})
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate revenue days", err)
	}
	return days, nil
}

// MostPopularAuthor набор авторов с наибольшим числом строк заказов. nil, если заказов нет.
func (db *AnalyticsDB) MostPopularAuthor(ctx context.Context, source string) (*repositories.AuthorSales, error) {
	var author sql.NullString
	var sold int64
	err := db.conn.QueryRowContext(ctx, `
		SELECT b.authors, COUNT(t.items_quantity) AS books_sold
		FROM transaction_records t
		JOIN book_catalog b ON t.book_id = b.book_id AND t.source = b.source
		WHERE t.source = ?
		GROUP BY b.authors
		ORDER BY books_sold DESC, b.authors ASC
		LIMIT 1`, source).Scan(&author, &sold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError("query popular author", err)
	}
	return &repositories.AuthorSales{Author: author.String, BooksSold: sold}, nil
}

// TopCustomer покупатель с наибольшей суммой заказов. nil, если заказов нет.
func (db *AnalyticsDB) TopCustomer(ctx context.Context, source string) (*repositories.CustomerSpending, error) {
	var (
		id     int64
		name   sql.NullString
		total  sql.NullFloat64
		linked sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT c.customer_id, c.customer_name, SUM(t.total_amount) AS total_spent, c.linked_customer_ids
		FROM transaction_records t
		JOIN customer_profiles c ON t.customer_id = c.customer_id AND t.source = c.source
		WHERE t.source = ?
		GROUP BY c.customer_id, c.customer_name, c.linked_customer_ids
		ORDER BY total_spent DESC, c.customer_id ASC
		LIMIT 1`, source).Scan(&id, &name, &total, &linked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceError("query top customer", err)
	}

	linkedIDs := normalization.ParseLinkedIDs(linked.String)
	return &repositories.CustomerSpending{
		CustomerID:  id,
		Name:        name.String,
		TotalSpent:  roundCents(total.Float64),
		LinkedIDs:   linkedIDs,
		CustomerIDs: append([]int64{id}, linkedIDs...),
	}, nil
}

// CountRows количество строк источника в нормализованных таблицах
func (db *AnalyticsDB) CountRows(ctx context.Context, source string) (*repositories.SourceTableCounts, error) {
	counts := &repositories.SourceTableCounts{}
	targets := []struct {
		table string
		dest  *int64
	}{
		{"book_catalog", &counts.Books},
		{"customer_profiles", &counts.Customers},
		{"transaction_records", &counts.Orders},
	}
	for _, target := range targets {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE source = ?", target.table)
		if err := db.conn.QueryRowContext(ctx, query, source).Scan(target.dest); err != nil {
			return nil, persistenceError("count "+target.table, err)
		}
	}
	return counts, nil
}

// ListBooks книги источника по возрастанию id
func (db *AnalyticsDB) ListBooks(ctx context.Context, source string) ([]repositories.BookRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT book_id, book_title, authors, category, publisher_name, publication_year, source
		FROM book_catalog WHERE source = ? ORDER BY book_id`, source)
	if err != nil {
		return nil, persistenceError("list books", err)
	}
	defer rows.Close()

	books := []repositories.BookRecord{}
	for rows.Next() {
		var b repositories.BookRecord
		var title, authors, genre, publisher sql.NullString
		var year sql.NullInt64
		if err := rows.Scan(&b.ID, &title, &authors, &genre, &publisher, &year, &b.Source); err != nil {
			return nil, persistenceError("scan book", err)
		}
		b.Title, b.Author, b.Genre, b.Publisher = title.String, authors.String, genre.String, publisher.String
		b.Year = int(year.Int64)
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate books", err)
	}
	return books, nil
}

// ListCustomers покупатели источника по возрастанию id
func (db *AnalyticsDB) ListCustomers(ctx context.Context, source string) ([]repositories.CustomerRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT customer_id, customer_name, delivery_address, contact_phone, email_address, linked_customer_ids, source
		FROM customer_profiles WHERE source = ? ORDER BY customer_id`, source)
	if err != nil {
		return nil, persistenceError("list customers", err)
	}
	defer rows.Close()

	customers := []repositories.CustomerRecord{}
	for rows.Next() {
		var c repositories.CustomerRecord
		var name, address, phone, email, linked sql.NullString
		if err := rows.Scan(&c.ID, &name, &address, &phone, &email, &linked, &c.Source); err != nil {
			return nil, persistenceError("scan customer", err)
		}
		c.Name, c.Address, c.Phone, c.Email = name.String, address.String, phone.String, email.String
		c.LinkedIDs = normalization.ParseLinkedIDs(linked.String)
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate customers", err)
	}
	return customers, nil
}

// ListOrders заказы источника в порядке вставки
func (db *AnalyticsDB) ListOrders(ctx context.Context, source string) ([]repositories.OrderRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT customer_id, book_id, items_quantity, price_per_item, total_amount,
		       transaction_date, delivery_method, source, currency_code
		FROM transaction_records WHERE source = ? ORDER BY id`, source)
	if err != nil {
		return nil, persistenceError("list orders", err)
	}
	defer rows.Close()

	orders := []repositories.OrderRecord{}
	for rows.Next() {
		var o repositories.OrderRecord
		var quantity sql.NullInt64
		var price, total sql.NullFloat64
		var date, shipping sql.NullString
		if err := rows.Scan(&o.CustomerID, &o.BookID, &quantity, &price, &total,
			&date, &shipping, &o.Source, &o.CurrencyCode); err != nil {
			return nil, persistenceError("scan order", err)
		}
		o.Quantity = quantity.Int64
		if price.Valid {
			o.UnitPrice = &price.Float64
		}
		if total.Valid {
			o.Total = &total.Float64
		}
		if date.Valid {
			if d, err := time.Parse(dateLayout, date.String); err == nil {
				o.Date = &d
			}
		}
		if shipping.Valid {
			o.ShippingMethod = &shipping.String
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("iterate orders", err)
	}
	return orders, nil
}

// withTx выполняет fn в транзакции. Любая ошибка откатывает всю пачку.
// Занятая база повторяется целиком, начиная с новой транзакции.
func (db *AnalyticsDB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	err := Retry(ctx, db.retry, func() error {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return persistenceError(op, err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
