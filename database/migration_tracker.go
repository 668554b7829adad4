package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const migrationsTableName = "schema_migrations"

// migration именованный набор DDL выражений, применяемый один раз
type migration struct {
	name       string
	statements []string
}

// ensureMigrationTable создает таблицу schema_migrations при необходимости.
func ensureMigrationTable(db *sql.DB) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, migrationsTableName)

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return nil
}

// isMigrationApplied проверяет, была ли уже применена миграция.
func isMigrationApplied(db *sql.DB, name string) (bool, error) {
	var appliedAt sql.NullTime
	query := fmt.Sprintf(`SELECT applied_at FROM %s WHERE name = ?`, migrationsTableName)
	err := db.QueryRow(query, name).Scan(&appliedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", name, err)
	}
	return appliedAt.Valid, nil
}

// ensureMigrationApplied выполняет миграцию только один раз. Выражения миграции
// и отметка о применении пишутся в одной транзакции.
// Возвращает true, если миграция была применена этим вызовом.
func ensureMigrationApplied(db *sql.DB, m migration) (bool, error) {
	if err := ensureMigrationTable(db); err != nil {
		return false, err
	}
	applied, err := isMigrationApplied(db, m.name)
	if err != nil || applied {
		return false, err
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin migration %s: %w", m.name, err)
	}
	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return false, fmt.Errorf("migration %s failed: %w", m.name, err)
		}
	}

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s(name, applied_at) VALUES(?, ?)`, migrationsTableName)
	if _, err := tx.Exec(query, m.name, time.Now()); err != nil {
		tx.Rollback()
		return false, fmt.Errorf("failed to mark migration %s as applied: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit migration %s: %w", m.name, err)
	}
	return true, nil
}
