package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBConfig конфигурация подключения к БД
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// AnalyticsDB обертка для работы с аналитической базой данных
type AnalyticsDB struct {
	conn  *sql.DB
	retry RetryConfig
}

// NewAnalyticsDB создает новое подключение к аналитической базе данных
func NewAnalyticsDB(dbPath string) (*AnalyticsDB, error) {
	return NewAnalyticsDBWithConfig(dbPath, DBConfig{})
}

// isInMemoryDB определяет, что путь относится к in-memory SQLite
func isInMemoryDB(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}

	// Формат file:memdb?mode=memory&cache=shared также хранит БД в памяти
	return strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory")
}

// NewAnalyticsDBWithConfig создает новое подключение к аналитической базе данных с конфигурацией
func NewAnalyticsDBWithConfig(dbPath string, config DBConfig) (*AnalyticsDB, error) {
	// Для in-memory SQLite требуется ровно одно соединение,
	// иначе каждое новое соединение получает пустую БД без таблиц
	if isInMemoryDB(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		// SQLite плохо справляется с большим количеством одновременных соединений
		conn.SetMaxOpenConns(10)
	}

	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		conn.SetMaxIdleConns(3)
	}

	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping analytics database: %w", err)
	}

	if !isInMemoryDB(dbPath) {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			slog.Warn("failed to enable WAL mode", "error", err)
		}
		if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			slog.Warn("failed to set busy timeout", "error", err)
		}
	}

	if err := InitAnalyticsSchema(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize analytics schema: %w", err)
	}

	return &AnalyticsDB{conn: conn, retry: DefaultRetryConfig()}, nil
}

// Close закрывает подключение к базе данных
func (db *AnalyticsDB) Close() error {
	return db.conn.Close()
}

// Ping проверяет подключение к базе данных
func (db *AnalyticsDB) Ping() error {
	return db.conn.Ping()
}

// GetDB возвращает указатель на sql.DB для прямого доступа
func (db *AnalyticsDB) GetDB() *sql.DB {
	return db.conn
}
